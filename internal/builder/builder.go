package builder

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oddslock/oddslock/internal/domain"
)

// decisionNamespace seeds deterministic decision ids: the same replay
// key tuple always yields the same decision_id, in any process.
var decisionNamespace = uuid.MustParse("7f1c9f5e-4b2a-5d3c-9e8f-6a0b1c2d3e4f")

// VersionMetadata is the version block stamped onto every decision.
type VersionMetadata struct {
	DecisionVersion string
	GitCommitSHA    string
	EngineVersion   string
}

// Params carries everything needed to assemble one market decision.
// TraceID and InputsHash are resolved once per request so every market
// in a bundle shares them.
type Params struct {
	Request    domain.DecisionRequest
	Market     domain.MarketInput
	Leg        domain.PickClassification
	TraceID    string
	InputsHash string
	Version    VersionMetadata
	Now        time.Time
}

// Builder assembles canonical decision objects from classifier output
// and market/model signals. Pure: no I/O, no shared mutable state.
type Builder struct{}

func New() *Builder { return &Builder{} }

// DecisionID derives the deterministic id for a replay key tuple.
func DecisionID(eventID, inputsHash string, marketType domain.MarketType, decisionVersion string) string {
	tuple := strings.Join([]string{eventID, inputsHash, string(marketType), decisionVersion}, "|")
	return uuid.NewSHA1(decisionNamespace, []byte(tuple)).String()
}

// Build assembles the decision for one market. The result has not been
// certified yet; callers must pass it through the validator before it
// reaches any consumer.
func (b *Builder) Build(p Params) domain.Decision {
	m := p.Market
	leg := p.Leg

	classification, release := classify(leg, m.Calibration)

	preferred, _ := m.Market.Side(m.PreferredSelectionID)

	d := domain.Decision{
		League:               p.Request.League,
		Sport:                p.Request.Sport,
		GameID:               p.Request.GameID,
		OddsEventID:          p.Request.OddsEventID,
		MarketType:           m.MarketType,
		DecisionID:           DecisionID(p.Request.OddsEventID, p.InputsHash, m.MarketType, p.Version.DecisionVersion),
		SelectionID:          m.PreferredSelectionID,
		PreferredSelectionID: m.PreferredSelectionID,
		Market:               m.Market,
		ModelProb:            m.Sim.WinProbability,
		MarketImpliedProb:    impliedProbability(preferred.Price),
		Classification:       classification,
		ReleaseStatus:        release,
		Risk: domain.Risk{
			VolatilityBand: m.Sim.VolatilityBand,
			InjuryImpact:   m.Sim.InjuryImpact,
			CLVForecastPts: m.Sim.CLVForecastPts,
		},
		Debug: domain.Debug{
			InputsHash:      p.InputsHash,
			OddsTimestamp:   m.Market.OddsTimestamp,
			SimRunID:        m.Sim.SimRunID,
			TraceID:         p.TraceID,
			DecisionVersion: p.Version.DecisionVersion,
			EngineVersion:   p.Version.EngineVersion,
			GitCommitSHA:    p.Version.GitCommitSHA,
			ComputedAt:      p.Now,
		},
		ValidatorFailures: []string{},
	}

	edge := m.Sim.FairLine - preferred.Line
	if m.MarketType == domain.MarketMoneyline {
		// Moneylines grade on EV percent instead of points.
		ev := 0.0
		if implied := impliedProbability(preferred.Price); implied > 0 {
			ev = (m.Sim.WinProbability/implied - 1.0) * 100
		}
		d.EdgeEV = &ev
		d.EdgeGrade = gradeEdge(math.Abs(ev), m.MarketType)
	} else {
		pts := edge
		d.EdgePoints = &pts
		d.EdgeGrade = gradeEdge(math.Abs(pts), m.MarketType)
	}

	if release.Released() {
		d.Model = &domain.ModelSnapshot{
			SelectionID:    m.PreferredSelectionID,
			TeamID:         preferred.TeamID,
			FairLine:       m.Sim.FairLine,
			WinProbability: m.Sim.WinProbability,
		}
		if classification == domain.ClassificationEdge || classification == domain.ClassificationLean {
			d.Pick = &domain.Pick{
				SelectionID: m.PreferredSelectionID,
				TeamID:      preferred.TeamID,
			}
		}
	} else {
		// Blocked decisions expose no model snapshot and carry an
		// explicit reason so the UI never renders a default-looking pick.
		d.Risk.BlockedReason = firstReason(leg.Reasons)
	}

	d.Reasons = renderReasons(d, m, leg, preferred)
	return d
}

// classify maps the leg state onto the market-level classification and
// release status.
func classify(leg domain.PickClassification, cal domain.CalibrationGate) (domain.Classification, domain.ReleaseStatus) {
	switch leg.State {
	case domain.PickStatePick:
		return domain.ClassificationEdge, domain.ReleaseApproved
	case domain.PickStateLean:
		return domain.ClassificationLean, domain.ReleaseApproved
	default:
		if !cal.PublishOK && !cal.BootstrapMode {
			return domain.ClassificationNoAction, blockStatus(cal.BlockReasons)
		}
		// Thresholds failed but the data itself is sound: the model
		// agrees with the market closely enough that no action is taken.
		return domain.ClassificationMarketAligned, domain.ReleaseApproved
	}
}

// blockStatus picks the release status matching the upstream reason codes.
func blockStatus(reasons []string) domain.ReleaseStatus {
	joined := strings.ToLower(strings.Join(reasons, " "))
	switch {
	case strings.Contains(joined, "stale"):
		return domain.ReleaseBlockedStaleData
	case strings.Contains(joined, "mismatch"):
		return domain.ReleaseBlockedOddsMismatch
	case strings.Contains(joined, "missing"):
		return domain.ReleaseBlockedMissingData
	default:
		return domain.ReleasePendingReview
	}
}

// gradeEdge buckets edge magnitude. Spreads/totals grade on points,
// moneylines on EV percent.
func gradeEdge(edge float64, mt domain.MarketType) domain.EdgeGrade {
	cuts := []float64{6.0, 4.5, 3.0, 1.5}
	if mt == domain.MarketMoneyline {
		cuts = []float64{8.0, 6.0, 4.0, 2.0}
	}
	switch {
	case edge >= cuts[0]:
		return domain.GradeS
	case edge >= cuts[1]:
		return domain.GradeA
	case edge >= cuts[2]:
		return domain.GradeB
	case edge >= cuts[3]:
		return domain.GradeC
	default:
		return domain.GradeD
	}
}

// impliedProbability converts American odds to the book's implied
// probability, vig included.
func impliedProbability(price int) float64 {
	if price == 0 {
		return 0
	}
	if price > 0 {
		return 100.0 / (float64(price) + 100.0)
	}
	return float64(-price) / (float64(-price) + 100.0)
}

// renderReasons produces the UI-verbatim bullets. MARKET_ALIGNED copy
// deliberately avoids any misprice/value language; the validator holds
// the matching denylist.
func renderReasons(d domain.Decision, m domain.MarketInput, leg domain.PickClassification, preferred domain.SideQuote) []string {
	switch d.Classification {
	case domain.ClassificationEdge, domain.ClassificationLean:
		reasons := []string{
			fmt.Sprintf("Model prices %s at %.1f vs posted %.1f (%s)", preferred.TeamID, m.Sim.FairLine, preferred.Line, m.Market.BookmakerSource),
			fmt.Sprintf("Win probability %.1f%% vs market implied %.1f%%", d.ModelProb*100, d.MarketImpliedProb*100),
		}
		if d.Classification == domain.ClassificationLean {
			reasons = append(reasons, leg.Reasons...)
		}
		return reasons
	case domain.ClassificationMarketAligned:
		return []string{
			fmt.Sprintf("Model agrees with the posted number for %s", preferred.TeamID),
			"No action: the simulation and the market are within the no-play band",
		}
	default:
		if len(leg.Reasons) > 0 {
			return leg.Reasons
		}
		return []string{"Decision blocked upstream"}
	}
}

func firstReason(reasons []string) string {
	if len(reasons) == 0 {
		return ""
	}
	return reasons[0]
}
