// Package driving defines the interfaces that transports call IN to core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI, HTTP/WebSocket API, TUI and drop-folder watcher depend on
// these interfaces; core services implement them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driving
