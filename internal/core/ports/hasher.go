package ports

// PasswordHasher wraps an adaptive hash for storing and verifying
// credentials.
type PasswordHasher interface {
	// Hash produces a digest of plain at the given cost factor.
	Hash(plain string, cost int) (string, error)

	// Verify compares plain against digest in constant time. It returns
	// domain.ErrInvalidCredentials on a mismatch and a non-nil error only
	// when the digest itself is malformed.
	Verify(plain, digest string) error
}
