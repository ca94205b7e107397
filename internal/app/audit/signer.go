package audit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"

	"github.com/medinfohub/med-portal/internal/config"
	"github.com/medinfohub/med-portal/internal/domain"
)

// Signer computes and verifies HMAC signatures over the canonical audit
// payload. The key and default algorithm are fixed at construction time;
// verification always uses the algorithm recorded on the event so that a
// configuration change never invalidates existing records.
type Signer struct {
	key       []byte
	algorithm config.SigningAlgorithm
}

// NewSigner creates a Signer from the audit configuration. It fails fast on
// an unusable signing setup so that a misconfigured service never starts.
func NewSigner(cfg *config.AuditConfig) (*Signer, error) {
	if cfg.RequireSignatures && len(cfg.SigningKey) == 0 {
		return nil, &domain.ConfigurationError{
			Field: "audit.signing_key",
			Msg:   "signatures are required but no signing key is configured",
		}
	}

	if _, err := hashFunc(cfg.SigningAlgorithm); err != nil {
		return nil, &domain.ConfigurationError{
			Field: "audit.signing_algorithm",
			Msg:   err.Error(),
		}
	}

	return &Signer{
		key:       []byte(cfg.SigningKey),
		algorithm: cfg.SigningAlgorithm,
	}, nil
}

// CanSign reports whether a signing key is available.
func (s *Signer) CanSign() bool {
	return len(s.key) > 0
}

// Algorithm returns the algorithm used for new signatures.
func (s *Signer) Algorithm() string {
	return string(s.algorithm)
}

// Sign computes the hex encoded HMAC of the given payload with the configured
// default algorithm.
func (s *Signer) Sign(ctx context.Context, payload string) (string, error) {
	return s.SignWith(ctx, payload, string(s.algorithm))
}

// SignWith computes the hex encoded HMAC of the given payload with an explicit
// algorithm. Verification uses this to reproduce expected signatures for
// events signed under a previous configuration.
func (s *Signer) SignWith(_ context.Context, payload, algorithm string) (string, error) {
	if len(s.key) == 0 {
		return "", &domain.SigningError{Err: errors.New("no signing key configured")}
	}

	h, err := hashFunc(config.SigningAlgorithm(algorithm))
	if err != nil {
		return "", &domain.SigningError{Err: err}
	}

	mac := hmac.New(h, s.key)
	mac.Write([]byte(payload))

	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify checks the given signature against the payload using the algorithm
// recorded with the signature. The comparison is constant time.
func (s *Signer) Verify(ctx context.Context, payload, signature, algorithm string) (bool, error) {
	expected, err := s.SignWith(ctx, payload, algorithm)
	if err != nil {
		return false, err
	}

	return hmac.Equal([]byte(expected), []byte(signature)), nil
}

// VerifyEvent checks the signature of a persisted audit event against its
// canonical payload. Unsigned events always fail verification.
func (s *Signer) VerifyEvent(ctx context.Context, event *domain.AuditEvent) (bool, error) {
	if !event.IsSigned() {
		return false, nil
	}

	return s.Verify(ctx, event.GetDataForSigning(), event.Signature, event.SignatureAlgorithm)
}

func hashFunc(algorithm config.SigningAlgorithm) (func() hash.Hash, error) {
	switch algorithm {
	case config.SigningAlgorithmHmacSha256:
		return sha256.New, nil
	case config.SigningAlgorithmHmacSha512:
		return sha512.New, nil
	default:
		return nil, errors.New("unsupported signing algorithm " + string(algorithm))
	}
}
