// Package retrieval implements hybrid retrieval over pediatric adverse event
// reports.
//
// A Retriever first turns raw reports into a KnowledgeBase: flat event
// records, the catalog of unique reaction terms, and a vector index over that
// catalog. Questions are then answered in three steps:
//
//  1. the question is split into a search concept and filter tokens
//  2. the concept is embedded and the top K closest reaction terms are found
//  3. records are narrowed to those reactions, the queried drug, and the
//     filter tokens
//
// Each step degrades rather than fails. An unparseable model response uses
// the whole question as the concept, and a missing index or failed query
// embedding skips semantic narrowing so the whole catalog is considered.
// Only caller mistakes produce errors.
package retrieval
