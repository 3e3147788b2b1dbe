package core

import "errors"

var (
	// ErrInvalidEncoding is returned when a wallet key or signature payload is malformed
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrInvalidKeyLength is returned when a decoded wallet key is not 32 bytes
	ErrInvalidKeyLength = errors.New("invalid wallet public key length")

	// ErrUnsupportedEncoding is returned for signature encodings other than base64 or hex
	ErrUnsupportedEncoding = errors.New("unsupported signature encoding")

	// ErrInvalidWallet is returned when a wallet identifier fails the basic shape check
	ErrInvalidWallet = errors.New("invalid wallet")

	// ErrUnknownOrExpiredNonce is returned when a nonce is absent from the store or past expiry
	ErrUnknownOrExpiredNonce = errors.New("unknown or expired nonce")

	// ErrNonceAlreadyUsed is returned when a nonce has already been consumed
	ErrNonceAlreadyUsed = errors.New("nonce already used")

	// ErrMalformedChallengeMessage is returned when a challenge message is missing required fields
	ErrMalformedChallengeMessage = errors.New("malformed challenge message")

	// ErrDomainMismatch is returned when the domain embedded in a message disagrees with the configured one
	ErrDomainMismatch = errors.New("challenge domain mismatch")

	// ErrInvalidSignature is returned when signature verification fails
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidRefreshToken is returned when a refresh token is unknown, revoked or expired
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

	// ErrExpiredToken is returned when an access token is past its expiry
	ErrExpiredToken = errors.New("token has expired")

	// ErrIssuerMismatch is returned when an access token carries the wrong issuer
	ErrIssuerMismatch = errors.New("token issuer mismatch")

	// ErrAudienceMismatch is returned when an access token carries the wrong audience
	ErrAudienceMismatch = errors.New("token audience mismatch")

	// ErrMissingCredential is returned when no token is presented at all
	ErrMissingCredential = errors.New("missing credential")

	// ErrTooManyRequests is returned when the rate limiter denies a request
	ErrTooManyRequests = errors.New("too many requests")

	// ErrVerificationUnavailable is returned when the verification primitive itself cannot run
	ErrVerificationUnavailable = errors.New("signature verification unavailable")

	// ErrStoreOperationFailed is returned when a backing store operation fails
	ErrStoreOperationFailed = errors.New("store operation failed")
)
