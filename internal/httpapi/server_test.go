package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddslock/oddslock/internal/builder"
	"github.com/oddslock/oddslock/internal/classifier"
	"github.com/oddslock/oddslock/internal/domain"
	"github.com/oddslock/oddslock/internal/engine"
	"github.com/oddslock/oddslock/internal/metrics"
	"github.com/oddslock/oddslock/internal/persistence"
	"github.com/oddslock/oddslock/internal/replay"
	"github.com/oddslock/oddslock/internal/validator"
	"github.com/oddslock/oddslock/internal/version"
)

func newTestServer(t *testing.T, audit persistence.AuditRepo) *Server {
	t.Helper()
	c, err := classifier.New(classifier.DefaultThresholds())
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	verman := version.NewManager(context.Background(), version.NewFileStore(t.TempDir()), "deadbeef", zerolog.Nop())
	eng := engine.New(engine.Deps{
		Classifier: c,
		Builder:    builder.New(),
		Validator:  validator.New(),
		Cache:      replay.NewCache(replay.NewMemoryStore(), zerolog.Nop()),
		Versions:   verman,
		Audit:      audit,
		Metrics:    reg,
		Log:        zerolog.Nop(),
	})

	return NewServer(Config{Addr: ":0", RateLimitRPS: 0}, eng, audit, verman, reg, zerolog.Nop())
}

func decideBody(t *testing.T) []byte {
	t.Helper()
	req := domain.DecisionRequest{
		Sport:       domain.SportNBA,
		League:      "NBA",
		GameID:      "game-001",
		OddsEventID: "evt-001",
		Matchup: domain.Matchup{
			Home: domain.Competitor{TeamID: "BOS"},
			Away: domain.Competitor{TeamID: "MIA"},
		},
		Markets: []domain.MarketInput{{
			MarketType:           domain.MarketSpread,
			PreferredSelectionID: "sel-bos",
			Market: domain.MarketSnapshot{
				Sides: [2]domain.SideQuote{
					{SelectionID: "sel-bos", TeamID: "BOS", Line: -4.5, Price: -110},
					{SelectionID: "sel-mia", TeamID: "MIA", Line: 4.5, Price: -110},
				},
				OddsTimestamp:   time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
				BookmakerSource: "consensus",
			},
			Sim: domain.SimSignal{
				SimRunID:        "sim-42",
				WinProbability:  0.62,
				FairLine:        -9.0,
				VarianceZ:       1.10,
				ConfidenceScore: 70,
				VolatilityBand:  "medium",
			},
			Calibration:     domain.CalibrationGate{PublishOK: true, DataQualityScore: 0.85},
			MarketDeviation: 4.5,
		}},
	}
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	return raw
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2.0.0", body["decision_version"])
	assert.Equal(t, version.EngineVersion, body["engine_version"])
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "deadbeef", body["git_commit_sha"])
}

func TestDecideEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/v1/decide", bytes.NewReader(decideBody(t)))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result engine.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Game.Decisions, 1)
	assert.Equal(t, domain.ReleaseApproved, result.Game.Decisions[0].ReleaseStatus)
	assert.Equal(t, result.Game.TraceID, result.Game.Decisions[0].Debug.TraceID)
}

func TestDecideEndpointRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/v1/decide", strings.NewReader("{not json"))
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecideEndpointRejectsInvalidRequest(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	// Structurally valid JSON, semantically empty request.
	req := httptest.NewRequest(http.MethodPost, "/v1/decide", strings.NewReader("{}"))
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDecisionsEndpointWithoutAuditStore(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/decisions/game-001", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type staticAuditRepo struct {
	rows []persistence.AuditRecord
}

func (r staticAuditRepo) Append(_ context.Context, rec persistence.AuditRecord) (int64, error) {
	return 1, nil
}

func (r staticAuditRepo) ListByGame(_ context.Context, gameID string, _ int) ([]persistence.AuditRecord, error) {
	var out []persistence.AuditRecord
	for _, rec := range r.rows {
		if rec.GameID == gameID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func TestDecisionsEndpointListsAuditRows(t *testing.T) {
	audit := staticAuditRepo{rows: []persistence.AuditRecord{{
		ID:              1,
		GameID:          "game-001",
		MarketType:      domain.MarketSpread,
		Classification:  domain.ClassificationEdge,
		ReleaseStatus:   domain.ReleaseApproved,
		DecisionVersion: "2.0.0",
	}}}
	srv := newTestServer(t, audit)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/decisions/game-001", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []persistence.AuditRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "game-001", rows[0].GameID)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	// Produce one decision so the counters have samples.
	decideRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(decideRec, httptest.NewRequest(http.MethodPost, "/v1/decide", bytes.NewReader(decideBody(t))))
	require.Equal(t, http.StatusOK, decideRec.Code)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "oddslock_decisions_total")
	assert.Contains(t, rec.Body.String(), "oddslock_replay_cache_misses_total")
}

func TestUnknownRouteReturns404(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
