package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMessage(t *testing.T) {
	issued := time.Date(2024, 3, 25, 12, 0, 0, 123456789, time.UTC)
	expires := issued.Add(5 * time.Minute)

	message := RenderMessage("example.com", "4Nd1mYvR7Gxq", "abc123", issued, expires, "Login")

	expected := strings.Join([]string{
		"Sign in to example.com",
		"Wallet: 4Nd1mYvR7Gxq",
		"Nonce: abc123",
		"Issued-At: 2024-03-25T12:00:00Z",
		"Expires-At: 2024-03-25T12:05:00Z",
		"Purpose: Login",
	}, "\n")
	assert.Equal(t, expected, message)
}

func TestRenderMessage_NonUTCInput(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	issued := time.Date(2024, 3, 25, 15, 0, 0, 0, loc)

	message := RenderMessage("example.com", "wallet", "nonce", issued, issued, "Login")

	assert.Contains(t, message, "Issued-At: 2024-03-25T12:00:00Z")
}

func TestParseMessage_RoundTrip(t *testing.T) {
	issued := time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(5 * time.Minute)
	message := RenderMessage("example.com", "4Nd1mYvR7Gxq", "abc123", issued, expires, "Login")

	parsed, err := ParseMessage(message, "example.com")
	require.NoError(t, err)

	assert.Equal(t, "example.com", parsed.Domain)
	assert.Equal(t, "4Nd1mYvR7Gxq", parsed.Wallet)
	assert.Equal(t, "abc123", parsed.Nonce)
	assert.Equal(t, "Login", parsed.Purpose)
	assert.True(t, parsed.IssuedAt.Equal(issued))
	assert.True(t, parsed.ExpiresAt.Equal(expires))
}

func TestParseMessage_DomainMismatch(t *testing.T) {
	issued := time.Now()
	message := RenderMessage("evil.com", "wallet", "nonce", issued, issued, "Login")

	_, err := ParseMessage(message, "example.com")
	assert.ErrorIs(t, err, ErrDomainMismatch)
}

func TestParseMessage_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"no prefix":       "Hello there\nWallet: w\nNonce: n",
		"missing nonce":   "Sign in to example.com\nWallet: w\nIssued-At: 2024-03-25T12:00:00Z\nExpires-At: 2024-03-25T12:05:00Z\nPurpose: Login",
		"bad timestamp":   "Sign in to example.com\nWallet: w\nNonce: n\nIssued-At: yesterday\nExpires-At: 2024-03-25T12:05:00Z\nPurpose: Login",
		"missing expires": "Sign in to example.com\nWallet: w\nNonce: n\nIssued-At: 2024-03-25T12:00:00Z\nPurpose: Login",
	}

	for name, message := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMessage(message, "example.com")
			assert.ErrorIs(t, err, ErrMalformedChallengeMessage)
		})
	}
}

func TestParseMessage_DomainCheckedAfterShape(t *testing.T) {
	_, err := ParseMessage("Sign in to evil.com", "example.com")
	assert.True(t, errors.Is(err, ErrMalformedChallengeMessage))
}
