// Package service composes the challenge store, codec, verifier, tokenizer
// and refresh ledger into the wallet login protocol.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardpass/gatekeeper/adapters/codec"
	"github.com/cardpass/gatekeeper/core"
	"github.com/cardpass/gatekeeper/ports"
)

const (
	defaultPurpose      = "Login"
	defaultChallengeTTL = 5 * time.Minute
	defaultRefreshTTL   = 14 * 24 * time.Hour

	// Plausible Base58 lengths for a 32-byte key, with slack for callers
	// that send other identifier shapes; real validation happens at decode.
	minWalletLength = 20
	maxWalletLength = 128
)

// Config carries the protocol parameters of the auth service.
type Config struct {
	Domain       string
	ChallengeTTL time.Duration
	RefreshTTL   time.Duration
}

// AuthService handles the two protocol steps (challenge, verify) plus
// refresh and logout. Per nonce the flow is a one-way state machine:
// issued, then exactly one terminal outcome, verified or rejected; either
// outcome removes the nonce from the store.
type AuthService struct {
	challenges ports.ChallengeStore
	ledger     ports.RefreshLedger
	tokenizer  ports.Tokenizer
	verifier   ports.SignatureVerifier
	eventPub   ports.EventPublisher
	logger     *slog.Logger

	domain       string
	challengeTTL time.Duration
	refreshTTL   time.Duration
}

// NewAuthService creates the orchestrator. eventPub may be nil when no
// message broker is configured.
func NewAuthService(
	challenges ports.ChallengeStore,
	ledger ports.RefreshLedger,
	tokenizer ports.Tokenizer,
	verifier ports.SignatureVerifier,
	eventPub ports.EventPublisher,
	logger *slog.Logger,
	cfg Config,
) *AuthService {
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = defaultChallengeTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		challenges:   challenges,
		ledger:       ledger,
		tokenizer:    tokenizer,
		verifier:     verifier,
		eventPub:     eventPub,
		logger:       logger,
		domain:       cfg.Domain,
		challengeTTL: cfg.ChallengeTTL,
		refreshTTL:   cfg.RefreshTTL,
	}
}

// VerifyResult carries the credentials minted by a successful verification.
type VerifyResult struct {
	Wallet        string
	Nonce         string
	AccessToken   string
	AccessExpiry  time.Time
	RefreshSecret string
	RefreshExpiry time.Time
}

// RefreshResult carries the credentials minted by a rotation.
type RefreshResult struct {
	Wallet        string
	AccessToken   string
	AccessExpiry  time.Time
	RefreshSecret string
	RefreshExpiry time.Time
}

// CreateChallenge issues a new challenge for the wallet. Only the basic
// shape of the wallet identifier is checked here; full decoding happens at
// verification time.
func (s *AuthService) CreateChallenge(ctx context.Context, wallet, purpose, domain string) (*core.Challenge, error) {
	if len(wallet) < minWalletLength || len(wallet) > maxWalletLength {
		return nil, core.ErrInvalidWallet
	}
	if purpose == "" {
		purpose = defaultPurpose
	}
	if domain == "" {
		domain = s.domain
	}

	challenge, err := s.challenges.Issue(ctx, wallet, purpose, domain, s.challengeTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue challenge: %w", err)
	}

	s.logger.Debug("challenge issued", "wallet", wallet, "nonce", challenge.Nonce)
	return challenge, nil
}

// Verify consumes the nonce and checks the signature over the stored
// message. Consuming comes first and is terminal: a failed signature check
// burns the nonce, so the same challenge can never be retried.
func (s *AuthService) Verify(ctx context.Context, wallet, nonce, signature, encoding string) (*VerifyResult, error) {
	challenge, err := s.challenges.Consume(ctx, nonce)
	if err != nil {
		return nil, err
	}

	if wallet != "" && wallet != challenge.Wallet {
		return nil, fmt.Errorf("%w: wallet does not match challenge", core.ErrInvalidWallet)
	}

	publicKey, err := codec.DecodeWalletKey(challenge.Wallet)
	if err != nil {
		return nil, err
	}

	rawSignature, err := codec.DecodeSignature(signature, encoding)
	if err != nil {
		return nil, err
	}

	ok, err := s.verifier.Verify(publicKey, []byte(challenge.Message), rawSignature)
	if err != nil {
		if errors.Is(err, core.ErrInvalidKeyLength) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", core.ErrVerificationUnavailable, err)
	}
	if !ok {
		s.logger.Info("signature verification failed", "wallet", challenge.Wallet, "nonce", nonce)
		return nil, core.ErrInvalidSignature
	}

	accessToken, accessExpiry, err := s.tokenizer.MintAccess(
		challenge.Wallet, challenge.Nonce, challenge.Purpose, challenge.Domain)
	if err != nil {
		return nil, fmt.Errorf("failed to mint access token: %w", err)
	}

	refreshSecret, err := s.tokenizer.NewRefreshSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh secret: %w", err)
	}

	refreshExpiry := time.Now().UTC().Add(s.refreshTTL)
	if _, err := s.ledger.Record(ctx, challenge.Wallet, refreshSecret, refreshExpiry); err != nil {
		return nil, fmt.Errorf("failed to record refresh token: %w", err)
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishLogin(ctx, challenge.Wallet); err != nil {
			s.logger.Warn("failed to publish login event", "error", err)
		}
	}

	s.logger.Info("wallet verified", "wallet", challenge.Wallet, "nonce", nonce)
	return &VerifyResult{
		Wallet:        challenge.Wallet,
		Nonce:         challenge.Nonce,
		AccessToken:   accessToken,
		AccessExpiry:  accessExpiry,
		RefreshSecret: refreshSecret,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Refresh rotates the presented refresh credential and mints a fresh access
// token. The access token's nonce claim carries the new ledger record ID,
// linking it to the credential that minted it.
func (s *AuthService) Refresh(ctx context.Context, refreshSecret string) (*RefreshResult, error) {
	if refreshSecret == "" {
		return nil, core.ErrMissingCredential
	}

	newSecret, err := s.tokenizer.NewRefreshSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh secret: %w", err)
	}

	refreshExpiry := time.Now().UTC().Add(s.refreshTTL)
	rotated, err := s.ledger.Rotate(ctx, refreshSecret, newSecret, refreshExpiry)
	if err != nil {
		return nil, err
	}

	accessToken, accessExpiry, err := s.tokenizer.MintAccess(
		rotated.Wallet, rotated.ID, defaultPurpose, s.domain)
	if err != nil {
		return nil, fmt.Errorf("failed to mint access token: %w", err)
	}

	s.logger.Debug("refresh token rotated", "wallet", rotated.Wallet)
	return &RefreshResult{
		Wallet:        rotated.Wallet,
		AccessToken:   accessToken,
		AccessExpiry:  accessExpiry,
		RefreshSecret: newSecret,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Logout revokes the presented refresh credential. It always reports
// success, so callers cannot probe which sessions exist.
func (s *AuthService) Logout(ctx context.Context, refreshSecret string) error {
	if refreshSecret == "" {
		return nil
	}

	record, err := s.ledger.Lookup(ctx, refreshSecret)
	if err != nil {
		return nil
	}

	if err := s.ledger.Revoke(ctx, refreshSecret); err != nil {
		s.logger.Warn("failed to revoke refresh token", "error", err)
		return nil
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishLogout(ctx, record.Wallet, record.ID); err != nil {
			s.logger.Warn("failed to publish logout event", "error", err)
		}
	}

	s.logger.Info("session revoked", "wallet", record.Wallet)
	return nil
}

// ResolvePrincipal validates an access token and returns the authenticated
// subject. This is the single surface the surrounding application consumes
// for its protected endpoints.
func (s *AuthService) ResolvePrincipal(ctx context.Context, accessToken string) (*core.Principal, error) {
	if accessToken == "" {
		return nil, core.ErrMissingCredential
	}
	return s.tokenizer.VerifyAccess(accessToken)
}
