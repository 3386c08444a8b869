// Package services implements the driving port interfaces: the RAG
// pipeline, document ingestion, conversation handling and accounts.
// Services orchestrate calls to driven ports and carry all business
// rules; they never touch a transport or a database directly.
package services
