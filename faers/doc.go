// Package faers decodes openFDA adverse event reports and flattens them into
// core.EventRecord values.
//
// Raw reports are heterogeneous: fields may be missing, arrive as strings or
// numbers, or be null. Report maps them onto an explicit optional-field schema
// once, and Normalize applies the extraction rules:
//
//   - only the first drug with drugcharacterization "1" (primary suspect) is used
//   - one record per non-empty reaction term, sharing the report's demographics
//   - seriousness is the OR of six flags compared to the sentinel "1"
//   - sex code "1" is Male, "2" is Female, anything else Unknown
//   - onset age is converted to years when a unit code is present
//
// Reports that cannot be used are skipped and tallied in Stats.
package faers
