package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oddslock/oddslock/internal/builder"
	"github.com/oddslock/oddslock/internal/classifier"
	"github.com/oddslock/oddslock/internal/domain"
	"github.com/oddslock/oddslock/internal/metrics"
	"github.com/oddslock/oddslock/internal/persistence"
	"github.com/oddslock/oddslock/internal/replay"
	"github.com/oddslock/oddslock/internal/validator"
	"github.com/oddslock/oddslock/internal/version"
)

// LegResult pairs a market with its leg-level classification for the
// parlay-eligibility consumer.
type LegResult struct {
	MarketType     domain.MarketType         `json:"market_type"`
	Classification domain.PickClassification `json:"classification"`
}

// Result is one full engine run: the canonical bundle plus the leg
// classification stream.
type Result struct {
	Game domain.GameDecisions `json:"game"`
	Legs []LegResult          `json:"legs"`
}

// Deps are the explicitly injected collaborators. No ambient globals:
// everything is constructed once at process start and passed in.
type Deps struct {
	Classifier *classifier.Classifier
	Builder    *builder.Builder
	Validator  *validator.Validator
	Cache      *replay.Cache
	Versions   *version.Manager
	Audit      persistence.AuditRepo // optional; nil disables audit writes
	Metrics    *metrics.Registry     // optional
	Log        zerolog.Logger
}

// Engine runs the decision pipeline: classify, build, certify, replay
// lookup-or-store. Classification, building, and validation are pure;
// the cache and audit log are the only I/O, and both are soft
// dependencies: the pipeline completes correctly without them.
type Engine struct {
	deps Deps
	now  func() time.Time
}

func New(deps Deps) *Engine {
	return &Engine{deps: deps, now: time.Now}
}

// Decide produces the certified decision bundle for one game. Every
// market in the bundle shares the same decision_version, trace_id, and
// inputs_hash.
func (e *Engine) Decide(ctx context.Context, req domain.DecisionRequest) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}

	start := e.now()
	traceID := uuid.New().String()
	inputsHash := builder.InputsHash(req)
	meta := e.deps.Versions.Metadata()

	result := Result{
		Game: domain.GameDecisions{
			League:          req.League,
			Sport:           req.Sport,
			GameID:          req.GameID,
			DecisionVersion: meta.DecisionVersion,
			TraceID:         traceID,
			InputsHash:      inputsHash,
			ComputedAt:      start.UTC(),
		},
	}

	for _, m := range req.Markets {
		leg := e.deps.Classifier.Classify(classifierInput(req.Sport, m))
		result.Legs = append(result.Legs, LegResult{MarketType: m.MarketType, Classification: leg})

		built := e.deps.Builder.Build(builder.Params{
			Request:    req,
			Market:     m,
			Leg:        leg,
			TraceID:    traceID,
			InputsHash: inputsHash,
			Version: builder.VersionMetadata{
				DecisionVersion: meta.DecisionVersion,
				GitCommitSHA:    meta.GitCommitSHA,
				EngineVersion:   meta.EngineVersion,
			},
			Now: start.UTC(),
		})

		certified := e.deps.Validator.Certify(built, req.Matchup)
		decision := certified.Decision

		if certified.Blocked() {
			e.deps.Log.Warn().
				Str("game_id", req.GameID).
				Str("market", string(m.MarketType)).
				Strs("violations", certified.Violations).
				Msg("decision blocked by integrity certification")
			if e.deps.Metrics != nil {
				e.deps.Metrics.ValidatorBlocks.WithLabelValues(string(m.MarketType)).Inc()
			}
		} else {
			decision = e.replayLookupOrStore(ctx, req, m, decision)
		}

		e.audit(ctx, req, decision, leg)
		if e.deps.Metrics != nil {
			e.deps.Metrics.DecisionsTotal.
				WithLabelValues(string(decision.Classification), string(decision.ReleaseStatus)).Inc()
		}

		result.Game.Decisions = append(result.Game.Decisions, decision)
	}

	// Final atomic-consistency recheck over the assembled bundle. By
	// construction this passes; a failure here means a bug upstream, and
	// the whole bundle is blocked rather than released inconsistent.
	if ok, violations := e.deps.Validator.ValidateGame(result.Game); !ok {
		e.deps.Log.Error().Strs("violations", violations).
			Str("game_id", req.GameID).Msg("bundle failed atomic consistency, blocking all markets")
		for i := range result.Game.Decisions {
			result.Game.Decisions[i].Classification = domain.ClassificationNoAction
			result.Game.Decisions[i].ReleaseStatus = domain.ReleaseBlockedIntegrity
			result.Game.Decisions[i].ValidatorFailures = append(result.Game.Decisions[i].ValidatorFailures, violations...)
		}
	}

	if e.deps.Metrics != nil {
		e.deps.Metrics.StepDuration.WithLabelValues("decide").Observe(e.now().Sub(start).Seconds())
	}
	return result, nil
}

// replayLookupOrStore returns the cached payload verbatim on a hit
// (counting any determinism drift against the fresh build), and stores
// the fresh decision on a miss. Cache failures never fail the pipeline.
func (e *Engine) replayLookupOrStore(ctx context.Context, req domain.DecisionRequest, m domain.MarketInput, fresh domain.Decision) domain.Decision {
	ver := fresh.Debug.DecisionVersion
	cached, hit := e.deps.Cache.Get(ctx, req.OddsEventID, fresh.Debug.InputsHash, m.MarketType, ver)
	if hit {
		if e.deps.Metrics != nil {
			e.deps.Metrics.CacheHits.Inc()
		}
		key := replay.Key(req.OddsEventID, fresh.Debug.InputsHash, m.MarketType, ver)
		if ok, diffs := e.deps.Cache.VerifyDeterminism(ctx, key, fresh, nil); !ok {
			e.deps.Log.Error().
				Str("cache_key", key).
				Strs("differences", diffs).
				Msg("determinism drift: rebuild differs from replay record")
			if e.deps.Metrics != nil {
				e.deps.Metrics.DeterminismDriftTotal.Inc()
			}
		}
		// The cached payload is authoritative for every deterministic
		// field. Trace id and computed-at are per-run observability fields
		// and are restamped so the bundle stays internally consistent.
		replayed := *cached
		replayed.Debug.TraceID = fresh.Debug.TraceID
		replayed.Debug.ComputedAt = fresh.Debug.ComputedAt
		return replayed
	}

	if e.deps.Metrics != nil {
		e.deps.Metrics.CacheMisses.Inc()
	}
	if !e.deps.Cache.Put(ctx, req.OddsEventID, fresh.Debug.InputsHash, m.MarketType, ver, fresh) {
		if e.deps.Metrics != nil {
			e.deps.Metrics.CachePutFailures.Inc()
		}
	}
	return fresh
}

// audit appends the decision to the append-only audit log. Failures are
// logged and swallowed: audit is a retention layer, not a correctness
// dependency.
func (e *Engine) audit(ctx context.Context, req domain.DecisionRequest, d domain.Decision, leg domain.PickClassification) {
	if e.deps.Audit == nil {
		return
	}

	payload, err := json.Marshal(d)
	if err != nil {
		e.deps.Log.Warn().Err(err).Str("decision_id", d.DecisionID).Msg("audit payload marshal failed")
		return
	}

	_, err = e.deps.Audit.Append(ctx, persistence.AuditRecord{
		Timestamp:           d.Debug.ComputedAt,
		League:              d.League,
		Sport:               d.Sport,
		GameID:              d.GameID,
		OddsEventID:         d.OddsEventID,
		MarketType:          d.MarketType,
		DecisionID:          d.DecisionID,
		Classification:      d.Classification,
		ReleaseStatus:       d.ReleaseStatus,
		PickState:           leg.State,
		CanPublish:          leg.CanPublish,
		CanParlay:           leg.CanParlay,
		DecisionVersion:     d.Debug.DecisionVersion,
		InputsHash:          d.Debug.InputsHash,
		TraceID:             d.Debug.TraceID,
		StateMachineReasons: leg.Reasons,
		ValidatorFailures:   d.ValidatorFailures,
		Payload:             payload,
	})
	if err != nil {
		e.deps.Log.Warn().Err(err).Str("decision_id", d.DecisionID).Msg("audit append failed")
	}
}

// classifierInput projects one market's signals onto the classifier
// contract. Edge is points for spreads/totals and EV percent for
// moneylines, always as magnitude.
func classifierInput(sport domain.Sport, m domain.MarketInput) classifier.Input {
	edge := math.Abs(m.Sim.FairLine - preferredLine(m))
	if m.MarketType == domain.MarketMoneyline {
		edge = math.Abs(moneylineEV(m))
	}

	return classifier.Input{
		Sport:                sport,
		Probability:          m.Sim.WinProbability,
		Edge:                 edge,
		ConfidenceScore:      m.Sim.ConfidenceScore,
		VarianceZ:            m.Sim.VarianceZ,
		MarketDeviation:      m.MarketDeviation,
		DataQuality:          m.Calibration.DataQualityScore,
		UpstreamPublishOK:    m.Calibration.PublishOK,
		UpstreamBlockReasons: m.Calibration.BlockReasons,
		BootstrapMode:        m.Calibration.BootstrapMode,
	}
}

func preferredLine(m domain.MarketInput) float64 {
	if side, ok := m.Market.Side(m.PreferredSelectionID); ok {
		return side.Line
	}
	return 0
}

func moneylineEV(m domain.MarketInput) float64 {
	side, ok := m.Market.Side(m.PreferredSelectionID)
	if !ok || side.Price == 0 {
		return 0
	}
	var implied float64
	if side.Price > 0 {
		implied = 100.0 / (float64(side.Price) + 100.0)
	} else {
		implied = float64(-side.Price) / (float64(-side.Price) + 100.0)
	}
	return (m.Sim.WinProbability/implied - 1.0) * 100
}

func validateRequest(req domain.DecisionRequest) error {
	if req.GameID == "" || req.OddsEventID == "" {
		return fmt.Errorf("decision request requires game_id and odds_event_id")
	}
	if _, err := domain.ParseSport(string(req.Sport)); err != nil {
		return err
	}
	if len(req.Markets) == 0 {
		return fmt.Errorf("decision request requires at least one market")
	}
	seen := map[domain.MarketType]bool{}
	for _, m := range req.Markets {
		if !m.MarketType.Valid() {
			return fmt.Errorf("invalid market type %q", m.MarketType)
		}
		if seen[m.MarketType] {
			return fmt.Errorf("duplicate market type %s in request", m.MarketType)
		}
		seen[m.MarketType] = true
		if m.PreferredSelectionID == "" {
			return fmt.Errorf("market %s requires a preferred selection", m.MarketType)
		}
		if _, ok := m.Market.Side(m.PreferredSelectionID); !ok {
			return fmt.Errorf("market %s: preferred selection %s not present in snapshot", m.MarketType, m.PreferredSelectionID)
		}
	}
	return nil
}
