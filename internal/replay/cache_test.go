package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddslock/oddslock/internal/domain"
)

// failingStore simulates an unavailable backend.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}
func (failingStore) Put(context.Context, string, []byte) error { return errors.New("backend down") }
func (failingStore) Clear(context.Context) error               { return errors.New("backend down") }

func testDecision() domain.Decision {
	return domain.Decision{
		League:               "NBA",
		Sport:                domain.SportNBA,
		GameID:               "game-001",
		OddsEventID:          "evt-001",
		MarketType:           domain.MarketSpread,
		DecisionID:           "d1",
		SelectionID:          "sel-bos",
		PreferredSelectionID: "sel-bos",
		Classification:       domain.ClassificationEdge,
		ReleaseStatus:        domain.ReleaseApproved,
		Reasons:              []string{"Model prices BOS at -7.0 vs posted -4.5 (consensus)"},
		Debug: domain.Debug{
			InputsHash:      "hash-a",
			TraceID:         "trace-1",
			DecisionVersion: "2.0.0",
			ComputedAt:      time.Date(2026, 3, 14, 18, 5, 0, 0, time.UTC),
		},
		ValidatorFailures: []string{},
	}
}

func TestKeyDeterministic(t *testing.T) {
	a := Key("evt-001", "hash-a", domain.MarketSpread, "2.0.0")
	b := Key("evt-001", "hash-a", domain.MarketSpread, "2.0.0")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, Key("evt-001", "hash-a", domain.MarketTotal, "2.0.0"))
	assert.NotEqual(t, a, Key("evt-001", "hash-a", domain.MarketSpread, "2.1.0"))
}

func TestCachePutGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(NewMemoryStore(), zerolog.Nop())
	d := testDecision()

	_, ok := cache.Get(ctx, d.OddsEventID, d.Debug.InputsHash, d.MarketType, d.Debug.DecisionVersion)
	assert.False(t, ok)

	require.True(t, cache.Put(ctx, d.OddsEventID, d.Debug.InputsHash, d.MarketType, d.Debug.DecisionVersion, d))

	got, ok := cache.Get(ctx, d.OddsEventID, d.Debug.InputsHash, d.MarketType, d.Debug.DecisionVersion)
	require.True(t, ok)
	assert.Equal(t, d, *got)
}

func TestCacheSharedAcrossInstances(t *testing.T) {
	// Two engine processes sharing one backend must see each other's
	// records and verify clean against them.
	ctx := context.Background()
	store := NewMemoryStore()
	first := NewCache(store, zerolog.Nop())
	second := NewCache(store, zerolog.Nop())
	d := testDecision()

	require.True(t, first.Put(ctx, d.OddsEventID, d.Debug.InputsHash, d.MarketType, d.Debug.DecisionVersion, d))

	got, ok := second.Get(ctx, d.OddsEventID, d.Debug.InputsHash, d.MarketType, d.Debug.DecisionVersion)
	require.True(t, ok)
	assert.Equal(t, d, *got)

	key := Key(d.OddsEventID, d.Debug.InputsHash, d.MarketType, d.Debug.DecisionVersion)
	clean, diffs := second.VerifyDeterminism(ctx, key, d, nil)
	assert.True(t, clean)
	assert.Empty(t, diffs)
}

func TestCacheSoftFailOnBackendError(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(failingStore{}, zerolog.Nop())
	d := testDecision()

	_, ok := cache.Get(ctx, d.OddsEventID, d.Debug.InputsHash, d.MarketType, d.Debug.DecisionVersion)
	assert.False(t, ok, "read failure must present as a miss")

	assert.False(t, cache.Put(ctx, d.OddsEventID, d.Debug.InputsHash, d.MarketType, d.Debug.DecisionVersion, d))
}

func TestVerifyDeterminismDetectsDrift(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(NewMemoryStore(), zerolog.Nop())
	d := testDecision()
	key := Key(d.OddsEventID, d.Debug.InputsHash, d.MarketType, d.Debug.DecisionVersion)

	require.True(t, cache.Put(ctx, d.OddsEventID, d.Debug.InputsHash, d.MarketType, d.Debug.DecisionVersion, d))

	drifted := d
	drifted.Classification = domain.ClassificationLean
	drifted.Debug.ComputedAt = drifted.Debug.ComputedAt.Add(time.Hour) // excluded, must not count

	clean, diffs := cache.VerifyDeterminism(ctx, key, drifted, nil)
	assert.False(t, clean)
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0], "classification")
}

func TestVerifyDeterminismMissingRecord(t *testing.T) {
	cache := NewCache(NewMemoryStore(), zerolog.Nop())

	clean, diffs := cache.VerifyDeterminism(context.Background(), "no-such-key", testDecision(), nil)
	assert.False(t, clean)
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0], "no cached record")
}

func TestVerifyDeterminismBackendError(t *testing.T) {
	cache := NewCache(failingStore{}, zerolog.Nop())

	clean, diffs := cache.VerifyDeterminism(context.Background(), "any", testDecision(), nil)
	assert.False(t, clean)
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0], "replay store unavailable")
}

func TestClearRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cache := NewCache(store, zerolog.Nop())
	d := testDecision()

	require.True(t, cache.Put(ctx, d.OddsEventID, d.Debug.InputsHash, d.MarketType, d.Debug.DecisionVersion, d))

	require.Error(t, cache.Clear(ctx, false))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, cache.Clear(ctx, true))
	assert.Equal(t, 0, store.Len())
}
