package pkce

import (
	"encoding/json"
	"time"

	"github.com/cropgenius/authflow/autherrors"
	"github.com/cropgenius/authflow/storagetier"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultStorageKeyPrefix namespaces flow-record keys away from unrelated
// entries sharing the same storage medium.
const DefaultStorageKeyPrefix = "authflow-pkce-"

// Store persists flow records across an ordered list of storage tiers.
// Writes take the first tier that accepts them; reads check every tier,
// because the tier that answers first at read time is not necessarily the
// one that accepted the write. A tier error is treated as "tier
// unavailable" and the next tier is tried; only exhausting the whole list
// is a hard failure.
type Store struct {
	tiers   []storagetier.Tier
	prefix  string
	nowTime func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreNowTime sets the clock (primarily for testing).
func WithStoreNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// NewStore creates a Store over the given tiers, tried in order. An empty
// prefix uses DefaultStorageKeyPrefix.
func NewStore(tiers []storagetier.Tier, prefix string, options ...StoreOption) (*Store, error) {
	if len(tiers) == 0 {
		return nil, errors.New("[NewStore] at least one storage tier is required")
	}
	if prefix == "" {
		prefix = DefaultStorageKeyPrefix
	}

	store := &Store{
		tiers:   tiers,
		prefix:  prefix,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

func (s *Store) keyFor(correlationToken string) string {
	return s.prefix + correlationToken
}

// Put writes the record to the first tier that accepts it and stamps the
// record with that tier's name. Returns a storage failure only when every
// tier rejected the write.
func (s *Store) Put(record *FlowRecord) error {
	if record == nil {
		return autherrors.Storage("nil flow record", nil)
	}
	key := s.keyFor(record.CorrelationToken)

	var lastErr error
	for _, tier := range s.tiers {
		record.StorageTier = tier.Name()
		payload, err := json.Marshal(record)
		if err != nil {
			return autherrors.Storage("marshal flow record", err)
		}
		if err := tier.SetItem(key, string(payload)); err != nil {
			log.Debug().Err(err).Str("tier", string(tier.Name())).Msg("storage tier rejected write, falling back")
			lastErr = err
			continue
		}
		return nil
	}

	record.StorageTier = ""
	return autherrors.Storage("all storage tiers rejected the write", lastErr)
}

// Get returns the record for the correlation token, checking every tier in
// order. A missing record returns (nil, nil). An expired record is deleted
// wherever it was found and reported as an expiry failure. A payload that
// fails to parse is deleted and reported as a retrieval failure.
func (s *Store) Get(correlationToken string) (*FlowRecord, error) {
	key := s.keyFor(correlationToken)

	var payload string
	found := false
	for _, tier := range s.tiers {
		value, ok, err := tier.GetItem(key)
		if err != nil {
			log.Debug().Err(err).Str("tier", string(tier.Name())).Msg("storage tier read failed, trying next")
			continue
		}
		if ok {
			payload = value
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}

	var record FlowRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		s.Delete(correlationToken)
		return nil, autherrors.Retrieval("stored flow record failed to parse", err)
	}

	if record.Expired(s.nowTime()) {
		s.Delete(correlationToken)
		return nil, autherrors.Expired(correlationToken)
	}
	return &record, nil
}

// Delete removes the record from every tier, best effort. Individual tier
// failures never fail the caller.
func (s *Store) Delete(correlationToken string) {
	key := s.keyFor(correlationToken)
	for _, tier := range s.tiers {
		if err := tier.RemoveItem(key); err != nil {
			log.Debug().Err(err).Str("tier", string(tier.Name())).Msg("storage tier delete failed")
		}
	}
}

// SweepExpired enumerates every key under the store prefix across all
// tiers and deletes records whose TTL has elapsed, as well as payloads
// that no longer parse. Returns the number of entries deleted.
func (s *Store) SweepExpired() int {
	now := s.nowTime()
	deleted := 0

	for _, tier := range s.tiers {
		keys, err := tier.Keys(s.prefix)
		if err != nil {
			log.Debug().Err(err).Str("tier", string(tier.Name())).Msg("storage tier enumeration failed")
			continue
		}
		for _, key := range keys {
			value, ok, err := tier.GetItem(key)
			if err != nil || !ok {
				continue
			}
			var record FlowRecord
			if err := json.Unmarshal([]byte(value), &record); err != nil {
				// Corrupt entry, reclaim it.
				if tier.RemoveItem(key) == nil {
					deleted++
				}
				continue
			}
			if record.Expired(now) {
				if tier.RemoveItem(key) == nil {
					deleted++
				}
			}
		}
	}
	return deleted
}

// WritableTierAvailable reports whether any tier answers its capability
// probe. This is a feature probe, not a write test.
func (s *Store) WritableTierAvailable() bool {
	for _, tier := range s.tiers {
		if tier.Available() {
			return true
		}
	}
	return false
}

// TierAvailability reports each tier's probe result keyed by tier name,
// for diagnostics.
func (s *Store) TierAvailability() map[storagetier.Name]bool {
	availability := make(map[storagetier.Name]bool, len(s.tiers))
	for _, tier := range s.tiers {
		availability[tier.Name()] = tier.Available()
	}
	return availability
}
