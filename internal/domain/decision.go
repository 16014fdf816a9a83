package domain

import "time"

// SideQuote is one side of a market snapshot with its resolved selection.
// Raw signed numbers never travel without the selection they belong to.
type SideQuote struct {
	SelectionID string  `json:"selection_id"`
	TeamID      string  `json:"team_id"` // team id, or OVER/UNDER for totals
	Line        float64 `json:"line"`    // signed spread, total points, 0 for moneyline
	Price       int     `json:"price"`   // American odds
}

// MarketSnapshot is the bookmaker view of one market at decision time.
// Both sides are always present so structural checks (opposite spread
// signs, selection resolution) run against a single snapshot.
type MarketSnapshot struct {
	Sides           [2]SideQuote `json:"sides"`
	OddsTimestamp   time.Time    `json:"odds_timestamp"`
	BookmakerSource string       `json:"bookmaker_source"`
}

// Side returns the quote for the given selection id.
func (m MarketSnapshot) Side(selectionID string) (SideQuote, bool) {
	for _, s := range m.Sides {
		if s.SelectionID == selectionID {
			return s, true
		}
	}
	return SideQuote{}, false
}

// Opponent returns the quote for the other selection in the snapshot.
func (m MarketSnapshot) Opponent(selectionID string) (SideQuote, bool) {
	for i, s := range m.Sides {
		if s.SelectionID == selectionID {
			return m.Sides[1-i], true
		}
	}
	return SideQuote{}, false
}

// ModelSnapshot is the simulation view expressed for one selection.
// Nil on a blocked decision.
type ModelSnapshot struct {
	SelectionID    string  `json:"selection_id"`
	TeamID         string  `json:"team_id"`
	FairLine       float64 `json:"fair_line"`
	WinProbability float64 `json:"win_probability"`
}

// Pick is the released selection. Nil unless the decision is approved.
type Pick struct {
	SelectionID string `json:"selection_id"`
	TeamID      string `json:"team_id"`
}

// Risk carries the display-facing risk annotations for a decision.
type Risk struct {
	VolatilityBand string  `json:"volatility_band"`
	InjuryImpact   string  `json:"injury_impact,omitempty"`
	CLVForecastPts float64 `json:"clv_forecast_pts"`
	BlockedReason  string  `json:"blocked_reason,omitempty"`
}

// Debug is the audit/replay block attached to every decision.
type Debug struct {
	InputsHash      string    `json:"inputs_hash"`
	OddsTimestamp   time.Time `json:"odds_timestamp"`
	SimRunID        string    `json:"sim_run_id"`
	TraceID         string    `json:"trace_id"`
	DecisionVersion string    `json:"decision_version"`
	EngineVersion   string    `json:"engine_version"`
	GitCommitSHA    string    `json:"git_commit_sha,omitempty"`
	ComputedAt      time.Time `json:"computed_at"`
}

// Decision is the canonical, versioned decision object, one per
// (game_id, market_type). Consumers render it verbatim and never
// recompute direction, classification, or reasons.
type Decision struct {
	League               string     `json:"league"`
	Sport                Sport      `json:"sport"`
	GameID               string     `json:"game_id"`
	OddsEventID          string     `json:"odds_event_id"`
	MarketType           MarketType `json:"market_type"`
	DecisionID           string     `json:"decision_id"`
	SelectionID          string     `json:"selection_id"`
	PreferredSelectionID string     `json:"preferred_selection_id"`

	Pick   *Pick          `json:"pick,omitempty"`
	Market MarketSnapshot `json:"market"`
	Model  *ModelSnapshot `json:"model,omitempty"`

	ModelProb         float64 `json:"model_prob"`
	MarketImpliedProb float64 `json:"market_implied_prob"`

	EdgePoints *float64  `json:"edge_points,omitempty"` // spreads and totals
	EdgeEV     *float64  `json:"edge_ev,omitempty"`     // moneylines
	EdgeGrade  EdgeGrade `json:"edge_grade"`

	Classification Classification `json:"classification"`
	ReleaseStatus  ReleaseStatus  `json:"release_status"`

	// Reasons are pre-rendered, UI-verbatim bullets.
	Reasons []string `json:"reasons"`

	Risk  Risk  `json:"risk"`
	Debug Debug `json:"debug"`

	// ValidatorFailures is empty iff certification passed.
	ValidatorFailures []string `json:"validator_failures"`
}

// GameDecisions bundles every market decision for one game. The version,
// trace id, and inputs hash are identical across the bundle by contract.
type GameDecisions struct {
	League          string     `json:"league"`
	Sport           Sport      `json:"sport"`
	GameID          string     `json:"game_id"`
	DecisionVersion string     `json:"decision_version"`
	TraceID         string     `json:"trace_id"`
	InputsHash      string     `json:"inputs_hash"`
	Decisions       []Decision `json:"decisions"`
	ComputedAt      time.Time  `json:"computed_at"`
}

// PickClassification is the leg-level result that feeds publishing and
// parlay eligibility.
type PickClassification struct {
	State          PickState       `json:"state"`
	CanPublish     bool            `json:"can_publish"`
	CanParlay      bool            `json:"can_parlay"`
	ConfidenceTier ConfidenceTier  `json:"confidence_tier"`
	Reasons        []string        `json:"reasons"`
	ThresholdsMet  map[string]bool `json:"thresholds_met"`
}

// Competitor is one of the two teams in a game.
type Competitor struct {
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
}

// Matchup is the competitor registry for a single game.
type Matchup struct {
	Home Competitor `json:"home"`
	Away Competitor `json:"away"`
}

// Has reports whether teamID is one of the game's two competitors.
// OVER/UNDER side tokens count as valid for total markets.
func (m Matchup) Has(teamID string) bool {
	return teamID == m.Home.TeamID || teamID == m.Away.TeamID ||
		teamID == SideOver || teamID == SideUnder
}
