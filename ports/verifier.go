package ports

// SignatureVerifier checks a signature over the exact rendered message bytes.
type SignatureVerifier interface {
	// Verify returns false for an ordinary signature mismatch and an error
	// only for structurally invalid input such as a wrong-length key.
	Verify(publicKey, message, signature []byte) (bool, error)
}
