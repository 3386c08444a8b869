package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input. Inputs are
	// rejected before any external call is made.
	ErrInvalidInput = errors.New("invalid input")

	// Configuration errors. These are fatal: the process must not
	// continue in a degraded mode.

	// ErrDimensionMismatch indicates a vector whose length does not match
	// the index's embedding dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexCorrupted indicates the persisted vector index could not be
	// read back. Falling back to an empty index would silently discard
	// prior ingestion work, so this is fatal.
	ErrIndexCorrupted = errors.New("vector index corrupted")

	// ErrMissingCredentials indicates a required external-service
	// credential or secret is not configured.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Authentication errors.

	// ErrAuthInvalid indicates the credentials or token are invalid.
	ErrAuthInvalid = errors.New("authentication invalid")
)
