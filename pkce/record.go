// Package pkce implements the PKCE (RFC 7636) side of the sign-in flow:
// generation of code verifier, challenge and state material, and the
// lifecycle of the per-flow record across fallback storage tiers.
package pkce

import (
	"time"

	"github.com/cropgenius/authflow/storagetier"
	"github.com/pkg/errors"
)

// ChallengeMethodS256 is the only challenge method this library produces.
const ChallengeMethodS256 = "S256"

// FlowRecord is the per-sign-in PKCE state. It is created once, stored in
// the best-available tier, read exactly once at callback time, and deleted.
// Timestamps are milliseconds since epoch, matching the wire form the
// record had in the original client.
type FlowRecord struct {
	CodeVerifier        string `json:"codeVerifier"`
	CodeChallenge       string `json:"codeChallenge"`
	CodeChallengeMethod string `json:"codeChallengeMethod"`

	// CorrelationToken is the OAuth "state" parameter: the lookup key that
	// ties the outbound redirect to the inbound callback.
	CorrelationToken string `json:"state"`

	CreatedAt int64 `json:"createdAt"`
	ExpiresAt int64 `json:"expiresAt"`

	// RedirectTarget is the optional post-authentication destination path.
	RedirectTarget string `json:"redirectTo,omitempty"`

	// ClientInstanceID identifies the running client instance, for
	// diagnostics and log correlation only.
	ClientInstanceID string `json:"instanceId,omitempty"`

	// StorageTier records where the write actually landed.
	StorageTier storagetier.Name `json:"storageTier,omitempty"`
}

// Expired reports whether the record's TTL has elapsed at the given time.
func (r *FlowRecord) Expired(now time.Time) bool {
	return now.UnixMilli() > r.ExpiresAt
}

// Validate checks the structural invariants of a complete record. The
// challenge must never exist without its verifier, and vice versa.
func (r *FlowRecord) Validate() error {
	if r.CodeVerifier == "" {
		return errors.New("[FlowRecord.Validate] code verifier is required")
	}
	if r.CodeChallenge == "" {
		return errors.New("[FlowRecord.Validate] code challenge is required")
	}
	if r.CodeChallengeMethod != ChallengeMethodS256 {
		return errors.Errorf("[FlowRecord.Validate] unsupported challenge method %q", r.CodeChallengeMethod)
	}
	if r.CorrelationToken == "" {
		return errors.New("[FlowRecord.Validate] correlation token is required")
	}
	if r.ExpiresAt <= r.CreatedAt {
		return errors.New("[FlowRecord.Validate] expiry must be after creation")
	}
	return nil
}
