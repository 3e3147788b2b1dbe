package service

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardpass/gatekeeper/adapters/codec"
	"github.com/cardpass/gatekeeper/adapters/ledger"
	"github.com/cardpass/gatekeeper/adapters/store"
	"github.com/cardpass/gatekeeper/adapters/tokenizer"
	"github.com/cardpass/gatekeeper/adapters/verifier"
	"github.com/cardpass/gatekeeper/core"
)

type testWallet struct {
	address string
	priv    ed25519.PrivateKey
}

func newTestWallet(t *testing.T) testWallet {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return testWallet{address: codec.EncodeWalletKey(pub), priv: priv}
}

func (w testWallet) sign(message string) string {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(w.priv, []byte(message)))
}

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	challenges := store.NewMemoryStore()
	t.Cleanup(func() { challenges.Close() })

	svc := NewAuthService(
		challenges,
		ledger.NewMemoryLedger(),
		tokenizer.NewJWTTokenizer([]byte("test-secret"), "example.com", "", 15*time.Minute),
		verifier.NewEd25519Verifier(),
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config{Domain: "example.com"},
	)
	return svc
}

func TestCreateChallenge(t *testing.T) {
	svc := newTestService(t)
	wallet := newTestWallet(t)

	challenge, err := svc.CreateChallenge(context.Background(), wallet.address, "", "")
	require.NoError(t, err)

	assert.Equal(t, wallet.address, challenge.Wallet)
	assert.Equal(t, "Login", challenge.Purpose)
	assert.Equal(t, "example.com", challenge.Domain)
	assert.Contains(t, challenge.Message, "Sign in to example.com")
	assert.Contains(t, challenge.Message, "Wallet: "+wallet.address)
}

func TestCreateChallenge_InvalidWalletShape(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateChallenge(context.Background(), "", "", "")
	assert.ErrorIs(t, err, core.ErrInvalidWallet)

	_, err = svc.CreateChallenge(context.Background(), "too-short", "", "")
	assert.ErrorIs(t, err, core.ErrInvalidWallet)
}

func TestVerify_EndToEnd(t *testing.T) {
	svc := newTestService(t)
	wallet := newTestWallet(t)
	ctx := context.Background()

	challenge, err := svc.CreateChallenge(ctx, wallet.address, "Login", "")
	require.NoError(t, err)

	result, err := svc.Verify(ctx, wallet.address, challenge.Nonce, wallet.sign(challenge.Message), "base64")
	require.NoError(t, err)

	assert.Equal(t, wallet.address, result.Wallet)
	assert.Equal(t, challenge.Nonce, result.Nonce)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshSecret)
	assert.True(t, result.RefreshExpiry.After(result.AccessExpiry))

	principal, err := svc.ResolvePrincipal(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, wallet.address, principal.Wallet)
	assert.Equal(t, challenge.Nonce, principal.Nonce)
	assert.Equal(t, "Login", principal.Purpose)
	assert.Equal(t, "example.com", principal.Domain)

	// The nonce reached its terminal state; a replay must fail.
	_, err = svc.Verify(ctx, wallet.address, challenge.Nonce, wallet.sign(challenge.Message), "base64")
	assert.ErrorIs(t, err, core.ErrUnknownOrExpiredNonce)
}

func TestVerify_HexSignature(t *testing.T) {
	svc := newTestService(t)
	wallet := newTestWallet(t)
	ctx := context.Background()

	challenge, err := svc.CreateChallenge(ctx, wallet.address, "", "")
	require.NoError(t, err)

	sig := hex.EncodeToString(ed25519.Sign(wallet.priv, []byte(challenge.Message)))
	_, err = svc.Verify(ctx, wallet.address, challenge.Nonce, sig, "hex")
	assert.NoError(t, err)
}

func TestVerify_WrongKeySignature(t *testing.T) {
	svc := newTestService(t)
	wallet := newTestWallet(t)
	impostor := newTestWallet(t)
	ctx := context.Background()

	challenge, err := svc.CreateChallenge(ctx, wallet.address, "", "")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, wallet.address, challenge.Nonce, impostor.sign(challenge.Message), "base64")
	assert.ErrorIs(t, err, core.ErrInvalidSignature)

	// The failed attempt burned the nonce; even the right key cannot retry.
	_, err = svc.Verify(ctx, wallet.address, challenge.Nonce, wallet.sign(challenge.Message), "base64")
	assert.ErrorIs(t, err, core.ErrUnknownOrExpiredNonce)
}

func TestVerify_ShortKeyRejectedBeforeSignatureCheck(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// 31 decoded bytes: syntactically valid base58, wrong key length.
	shortKey := codec.EncodeWalletKey(make([]byte, 31))
	challenge, err := svc.CreateChallenge(ctx, shortKey, "", "")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, shortKey, challenge.Nonce, base64.StdEncoding.EncodeToString(make([]byte, 64)), "base64")
	assert.ErrorIs(t, err, core.ErrInvalidKeyLength)
}

func TestVerify_WalletMismatch(t *testing.T) {
	svc := newTestService(t)
	wallet := newTestWallet(t)
	other := newTestWallet(t)
	ctx := context.Background()

	challenge, err := svc.CreateChallenge(ctx, wallet.address, "", "")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, other.address, challenge.Nonce, wallet.sign(challenge.Message), "base64")
	assert.ErrorIs(t, err, core.ErrInvalidWallet)
}

func TestVerify_UnsupportedSignatureEncoding(t *testing.T) {
	svc := newTestService(t)
	wallet := newTestWallet(t)
	ctx := context.Background()

	challenge, err := svc.CreateChallenge(ctx, wallet.address, "", "")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, wallet.address, challenge.Nonce, wallet.sign(challenge.Message), "base32")
	assert.ErrorIs(t, err, core.ErrUnsupportedEncoding)
}

func TestRefresh_RotationInvalidatesOldToken(t *testing.T) {
	svc := newTestService(t)
	wallet := newTestWallet(t)
	ctx := context.Background()

	challenge, err := svc.CreateChallenge(ctx, wallet.address, "", "")
	require.NoError(t, err)
	verified, err := svc.Verify(ctx, wallet.address, challenge.Nonce, wallet.sign(challenge.Message), "base64")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, verified.RefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, wallet.address, rotated.Wallet)
	assert.NotEqual(t, verified.RefreshSecret, rotated.RefreshSecret)

	principal, err := svc.ResolvePrincipal(ctx, rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, wallet.address, principal.Wallet)

	// Token A is invalid for all subsequent refresh calls; B still works.
	_, err = svc.Refresh(ctx, verified.RefreshSecret)
	assert.ErrorIs(t, err, core.ErrInvalidRefreshToken)

	_, err = svc.Refresh(ctx, rotated.RefreshSecret)
	assert.NoError(t, err)
}

func TestRefresh_RevokedTokenRejected(t *testing.T) {
	svc := newTestService(t)
	wallet := newTestWallet(t)
	ctx := context.Background()

	challenge, err := svc.CreateChallenge(ctx, wallet.address, "", "")
	require.NoError(t, err)
	verified, err := svc.Verify(ctx, wallet.address, challenge.Nonce, wallet.sign(challenge.Message), "base64")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, verified.RefreshSecret))

	_, err = svc.Refresh(ctx, verified.RefreshSecret)
	assert.ErrorIs(t, err, core.ErrInvalidRefreshToken)
}

func TestRefresh_MissingOrUnknownSecret(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrMissingCredential)

	_, err = svc.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, core.ErrInvalidRefreshToken)
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Logout(ctx, ""))
	assert.NoError(t, svc.Logout(ctx, "never-issued"))

	wallet := newTestWallet(t)
	challenge, err := svc.CreateChallenge(ctx, wallet.address, "", "")
	require.NoError(t, err)
	verified, err := svc.Verify(ctx, wallet.address, challenge.Nonce, wallet.sign(challenge.Message), "base64")
	require.NoError(t, err)

	assert.NoError(t, svc.Logout(ctx, verified.RefreshSecret))
	assert.NoError(t, svc.Logout(ctx, verified.RefreshSecret), "logout is idempotent")
}

func TestResolvePrincipal_MissingToken(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ResolvePrincipal(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrMissingCredential)
}
