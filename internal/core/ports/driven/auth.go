package driven

// TokenIssuer issues and verifies session tokens.
type TokenIssuer interface {
	// Issue creates a signed token whose subject is the user ID.
	Issue(userID string) (string, error)

	// Verify validates a token and returns its subject user ID.
	// Returns domain.ErrAuthInvalid for expired or malformed tokens.
	Verify(token string) (string, error)
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	// Hash derives a storable hash from a plaintext password.
	Hash(password string) (string, error)

	// Compare checks a plaintext password against a stored hash.
	// Returns domain.ErrAuthInvalid on mismatch.
	Compare(hash, password string) error
}
