// Package history keeps an append-only ledger of completed analyses in BadgerDB.
//
// Entries are keyed by creation time so the most recent analyses can be listed
// with a single reverse scan. Values are MUS-encoded (see EntryMUS).
package history
