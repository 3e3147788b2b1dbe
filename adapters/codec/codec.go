// Package codec decodes wallet public keys and signatures from their wire
// encodings. Wallet keys are Base58 (Solana convention), signatures arrive as
// base64 or hex.
package codec

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/cardpass/gatekeeper/core"
)

// Signature encodings accepted on the wire.
const (
	EncodingBase64 = "base64"
	EncodingHex    = "hex"
)

// DecodeWalletKey decodes a Base58 wallet public key into its 32 raw bytes.
// Leading '1' characters decode to leading zero bytes and are preserved.
func DecodeWalletKey(text string) ([]byte, error) {
	raw, err := base58.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: wallet key is not base58", core.ErrInvalidEncoding)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", core.ErrInvalidKeyLength, len(raw), ed25519.PublicKeySize)
	}
	return raw, nil
}

// EncodeWalletKey renders a raw public key in Base58.
func EncodeWalletKey(key []byte) string {
	return base58.Encode(key)
}

// DecodeSignature decodes a signature payload. The encoding name is
// case-insensitive; length is left to the verifier.
func DecodeSignature(text, encoding string) ([]byte, error) {
	switch strings.ToLower(encoding) {
	case EncodingBase64:
		raw, err := base64.StdEncoding.Strict().DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("%w: signature is not base64", core.ErrInvalidEncoding)
		}
		return raw, nil
	case EncodingHex:
		raw, err := hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("%w: signature is not hex", core.ErrInvalidEncoding)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedEncoding, encoding)
	}
}
