package core

import (
	"fmt"
	"strings"
	"time"
)

const messagePrefix = "Sign in to "

// FormatTimestamp renders a timestamp the way challenge messages and the wire
// contract expect it: UTC, second precision, Z-suffixed ISO 8601.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// RenderMessage produces the canonical challenge message a wallet signs.
// The wallet signs these exact bytes; both issuance and verification must go
// through this function, any deviation in field order or timestamp precision
// breaks signature verification.
func RenderMessage(domain, wallet, nonce string, issuedAt, expiresAt time.Time, purpose string) string {
	return fmt.Sprintf(
		"%s%s\nWallet: %s\nNonce: %s\nIssued-At: %s\nExpires-At: %s\nPurpose: %s",
		messagePrefix, domain, wallet, nonce,
		FormatTimestamp(issuedAt), FormatTimestamp(expiresAt), purpose,
	)
}

// ParsedMessage holds the fields recovered from an externally-supplied
// challenge message.
type ParsedMessage struct {
	Domain    string
	Wallet    string
	Nonce     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Purpose   string
}

// ParseMessage recovers the challenge fields from a rendered message and
// checks the embedded domain against the expected one.
func ParseMessage(message, expectedDomain string) (*ParsedMessage, error) {
	lines := strings.Split(message, "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], messagePrefix) {
		return nil, fmt.Errorf("%w: missing sign-in line", ErrMalformedChallengeMessage)
	}

	parsed := &ParsedMessage{Domain: strings.TrimPrefix(lines[0], messagePrefix)}

	fields := make(map[string]string, len(lines)-1)
	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		fields[key] = value
	}

	parsed.Wallet = fields["Wallet"]
	parsed.Nonce = fields["Nonce"]
	parsed.Purpose = fields["Purpose"]
	issuedAtRaw := fields["Issued-At"]
	expiresAtRaw := fields["Expires-At"]

	if parsed.Domain == "" || parsed.Wallet == "" || parsed.Nonce == "" ||
		issuedAtRaw == "" || expiresAtRaw == "" {
		return nil, fmt.Errorf("%w: missing fields", ErrMalformedChallengeMessage)
	}

	var err error
	if parsed.IssuedAt, err = time.Parse(time.RFC3339, issuedAtRaw); err != nil {
		return nil, fmt.Errorf("%w: bad issued-at timestamp", ErrMalformedChallengeMessage)
	}
	if parsed.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtRaw); err != nil {
		return nil, fmt.Errorf("%w: bad expires-at timestamp", ErrMalformedChallengeMessage)
	}

	if parsed.Domain != expectedDomain {
		return nil, ErrDomainMismatch
	}

	return parsed, nil
}
