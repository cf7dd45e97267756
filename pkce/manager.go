package pkce

import (
	"time"

	"github.com/cropgenius/authflow/autherrors"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Defaults for Config. The verifier default of 96 bytes encodes to exactly
// 128 base64url characters; the state default of 32 bytes encodes to 43.
const (
	DefaultCodeVerifierByteLength = 96
	DefaultStateByteLength        = 32
	DefaultExpiration             = 10 * time.Minute
	DefaultCleanupInterval        = 5 * time.Minute
)

// Config sizes and times the PKCE material. Zero values take the defaults
// at construction; the resolved Config is immutable thereafter.
type Config struct {
	CodeVerifierByteLength int
	StateByteLength        int
	Expiration             time.Duration
	StorageKeyPrefix       string
	CleanupInterval        time.Duration
}

func (c Config) withDefaults() Config {
	if c.CodeVerifierByteLength <= 0 {
		c.CodeVerifierByteLength = DefaultCodeVerifierByteLength
	}
	if c.StateByteLength <= 0 {
		c.StateByteLength = DefaultStateByteLength
	}
	if c.Expiration <= 0 {
		c.Expiration = DefaultExpiration
	}
	if c.StorageKeyPrefix == "" {
		c.StorageKeyPrefix = DefaultStorageKeyPrefix
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	return c
}

// StateManager is the only component that assembles complete, valid flow
// records. Strategies never mint crypto material directly.
type StateManager struct {
	crypto     *Crypto
	store      *Store
	config     Config
	instanceID string
	nowTime    func() time.Time
}

// StateManagerOption configures a StateManager.
type StateManagerOption func(*StateManager)

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) StateManagerOption {
	return func(m *StateManager) {
		m.nowTime = nowFunc
	}
}

// WithInstanceID overrides the generated client instance identifier.
func WithInstanceID(id string) StateManagerOption {
	return func(m *StateManager) {
		m.instanceID = id
	}
}

// NewStateManager initialises a StateManager with required dependencies.
func NewStateManager(crypto *Crypto, store *Store, config Config, options ...StateManagerOption) (*StateManager, error) {
	if crypto == nil {
		return nil, errors.New("[NewStateManager] crypto is required")
	}
	if store == nil {
		return nil, errors.New("[NewStateManager] store is required")
	}

	manager := &StateManager{
		crypto:     crypto,
		store:      store,
		config:     config.withDefaults(),
		instanceID: uuid.New().String(),
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(manager)
	}
	return manager, nil
}

// Config returns the resolved configuration.
func (m *StateManager) Config() Config {
	return m.config
}

// InstanceID returns the client instance identifier used for diagnostics.
func (m *StateManager) InstanceID() string {
	return m.instanceID
}

// Store exposes the underlying state store for capability probing.
func (m *StateManager) Store() *Store {
	return m.store
}

// Crypto exposes the crypto primitives for capability probing.
func (m *StateManager) Crypto() *Crypto {
	return m.crypto
}

// CryptoAvailable reports whether both crypto primitives answer their
// capability probes.
func (m *StateManager) CryptoAvailable() bool {
	return m.crypto.RandomAvailable() && m.crypto.DigestAvailable()
}

// GenerateVerifier produces a fresh code verifier. Generation failures are
// retryable: a transient environment issue may clear on the next attempt.
func (m *StateManager) GenerateVerifier() (string, error) {
	raw, err := m.crypto.RandomBytes(m.config.CodeVerifierByteLength)
	if err != nil {
		return "", autherrors.Generation(autherrors.CodeVerifierGenerationFailed,
			"failed to generate PKCE code verifier", err)
	}
	return Base64URLEncode(raw), nil
}

// GenerateChallenge derives the S256 challenge for a verifier. The
// derivation is deterministic: the same verifier always yields the same
// challenge.
func (m *StateManager) GenerateChallenge(verifier string) (string, error) {
	sum, err := m.crypto.Digest([]byte(verifier))
	if err != nil {
		return "", autherrors.Generation(autherrors.CodeChallengeGenerationFailed,
			"failed to derive S256 code challenge from verifier", err)
	}
	return Base64URLEncode(sum), nil
}

// GenerateCorrelationToken produces the unguessable state parameter,
// drawn independently of the verifier.
func (m *StateManager) GenerateCorrelationToken() (string, error) {
	raw, err := m.crypto.RandomBytes(m.config.StateByteLength)
	if err != nil {
		return "", autherrors.Generation(autherrors.CodeStateGenerationFailed,
			"failed to generate state parameter", err)
	}
	return Base64URLEncode(raw), nil
}

// CreateAndStore mints a complete flow record and persists it. Generation
// failures take precedence over storage failures: generation runs first
// and short-circuits. The returned record carries the tier the write
// actually landed in.
func (m *StateManager) CreateAndStore(redirectTarget, clientInstanceID string) (*FlowRecord, error) {
	verifier, err := m.GenerateVerifier()
	if err != nil {
		return nil, err
	}
	challenge, err := m.GenerateChallenge(verifier)
	if err != nil {
		return nil, err
	}
	token, err := m.GenerateCorrelationToken()
	if err != nil {
		return nil, err
	}

	if clientInstanceID == "" {
		clientInstanceID = m.instanceID
	}
	now := m.nowTime()
	record := &FlowRecord{
		CodeVerifier:        verifier,
		CodeChallenge:       challenge,
		CodeChallengeMethod: ChallengeMethodS256,
		CorrelationToken:    token,
		CreatedAt:           now.UnixMilli(),
		ExpiresAt:           now.Add(m.config.Expiration).UnixMilli(),
		RedirectTarget:      redirectTarget,
		ClientInstanceID:    clientInstanceID,
	}

	if err := m.store.Put(record); err != nil {
		return nil, err
	}
	return record, nil
}

// RetrieveAndConsume looks the record up by its correlation token and
// deletes it before returning, making every record single use. The delete
// is best effort: its outcome does not change the returned record, because
// the caller's token exchange does not depend on cleanup succeeding. A
// missing record returns (nil, nil); a second call for the same token
// therefore reports not-found.
func (m *StateManager) RetrieveAndConsume(correlationToken string) (*FlowRecord, error) {
	record, err := m.store.Get(correlationToken)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	m.store.Delete(correlationToken)
	return record, nil
}

// CleanupExpired removes every expired record across all tiers, returning
// the count deleted. Exposed for manual invocation alongside the periodic
// sweeper.
func (m *StateManager) CleanupExpired() int {
	return m.store.SweepExpired()
}
