// Package sqlite provides the SQLite-backed metadata store for users,
// chats, messages and ingested document records.
//
// The store lives in a single database file separate from the vector
// index, so conversation history and retrieval data can be backed up
// or wiped independently. Schema changes run through embedded SQL
// migrations applied at open time.
package sqlite
