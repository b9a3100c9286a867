// Package query turns a free-text question into a core.ParsedQuery.
//
// A language model is asked for a JSON object holding the search concept and
// filter tokens. Model output is treated as untrusted text: code fences and
// surrounding chatter are stripped and unquoted keys repaired before parsing.
// When anything goes wrong the raw question becomes the concept and no filters
// apply.
package query
