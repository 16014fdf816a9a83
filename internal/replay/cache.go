package replay

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/oddslock/oddslock/internal/domain"
)

// Key computes the content address for a decision: SHA-256 over the
// composite (event_id, inputs_hash, market_type, decision_version)
// tuple. Identical in every process, which is what makes "identical
// inputs, identical decision" auditable after the fact.
func Key(eventID, inputsHash string, marketType domain.MarketType, decisionVersion string) string {
	tuple := strings.Join([]string{eventID, inputsHash, string(marketType), decisionVersion}, "|")
	sum := sha256.Sum256([]byte(tuple))
	return hex.EncodeToString(sum[:])
}

// Cache is the content-addressed replay cache: at most one authoritative
// record per key, retained indefinitely for audit and determinism
// verification. Storage faults are soft: a read error is a miss, a
// write error is "not yet cached", and the pipeline continues either way.
type Cache struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewCache wraps a store. The logger is used for soft-failure warnings.
func NewCache(store Store, log zerolog.Logger) *Cache {
	return &Cache{store: store, log: log, now: time.Now}
}

// Get returns the stored decision payload verbatim, or (nil, false) on a
// miss. Storage errors are logged and treated as a miss.
func (c *Cache) Get(ctx context.Context, eventID, inputsHash string, marketType domain.MarketType, decisionVersion string) (*domain.Decision, bool) {
	key := Key(eventID, inputsHash, marketType, decisionVersion)
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("cache_key", key).Msg("replay cache read failed, treating as miss")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.Warn().Err(err).Str("cache_key", key).Msg("replay cache payload corrupt, treating as miss")
		return nil, false
	}
	return &entry.Decision, true
}

// Put upserts the decision under its composite key. Returns false on
// storage failure; never errors to the caller.
func (c *Cache) Put(ctx context.Context, eventID, inputsHash string, marketType domain.MarketType, decisionVersion string, d domain.Decision) bool {
	key := Key(eventID, inputsHash, marketType, decisionVersion)
	entry := domain.CacheEntry{
		CacheKey: key,
		Decision: d,
		CachedAt: c.now().UTC(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		c.log.Warn().Err(err).Str("cache_key", key).Msg("replay cache marshal failed")
		return false
	}
	if err := c.store.Put(ctx, key, raw); err != nil {
		c.log.Warn().Err(err).Str("cache_key", key).Msg("replay cache write failed, decision not cached")
		return false
	}
	return true
}

// VerifyDeterminism deep-diffs the current decision against the cached
// record for key, reporting a field path for every mismatch. Excluded
// fields are ignored at any depth; nil exclusions means the default set.
func (c *Cache) VerifyDeterminism(ctx context.Context, key string, current domain.Decision, exclude []string) (bool, []string) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return false, []string{fmt.Sprintf("replay store unavailable: %v", err)}
	}
	if !ok {
		return false, []string{fmt.Sprintf("no cached record for key %s", key)}
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return false, []string{fmt.Sprintf("cached payload corrupt: %v", err)}
	}

	diffs := DiffDecisions(entry.Decision, current, exclude)
	return len(diffs) == 0, diffs
}

// Clear removes every replay record. Determinism records are retained
// forever in normal operation, so clearing demands explicit
// confirmation; test/ops use only.
func (c *Cache) Clear(ctx context.Context, confirm bool) error {
	if !confirm {
		return fmt.Errorf("refusing to clear replay cache without explicit confirmation")
	}
	return c.store.Clear(ctx)
}
