package domain

import "fmt"

// Sport identifies a supported league for threshold lookup.
// The set is closed: adding a sport means adding a constant here and a
// row to the classifier threshold table, nothing else.
type Sport string

const (
	SportNBA  Sport = "NBA"
	SportWNBA Sport = "WNBA"
	SportNFL  Sport = "NFL"
	SportMLB  Sport = "MLB"
	SportNHL  Sport = "NHL"
)

// AllSports lists every supported sport in a stable order.
var AllSports = []Sport{SportNBA, SportWNBA, SportNFL, SportMLB, SportNHL}

// ParseSport validates a sport key from config or request input.
func ParseSport(s string) (Sport, error) {
	for _, sport := range AllSports {
		if string(sport) == s {
			return sport, nil
		}
	}
	return "", fmt.Errorf("unknown sport: %q", s)
}

// MarketType identifies the bet market a decision covers.
type MarketType string

const (
	MarketSpread    MarketType = "SPREAD"
	MarketMoneyline MarketType = "MONEYLINE"
	MarketTotal     MarketType = "TOTAL"
)

// Valid reports whether mt is one of the three supported markets.
func (mt MarketType) Valid() bool {
	switch mt {
	case MarketSpread, MarketMoneyline, MarketTotal:
		return true
	}
	return false
}

// Classification is the market-level decision state.
type Classification string

const (
	ClassificationEdge          Classification = "EDGE"
	ClassificationLean          Classification = "LEAN"
	ClassificationMarketAligned Classification = "MARKET_ALIGNED"
	ClassificationNoAction      Classification = "NO_ACTION"
)

// ReleaseStatus gates whether a decision may reach consumers.
type ReleaseStatus string

const (
	ReleaseApproved            ReleaseStatus = "APPROVED"
	ReleaseBlockedIntegrity    ReleaseStatus = "BLOCKED_BY_INTEGRITY"
	ReleaseBlockedOddsMismatch ReleaseStatus = "BLOCKED_BY_ODDS_MISMATCH"
	ReleaseBlockedStaleData    ReleaseStatus = "BLOCKED_BY_STALE_DATA"
	ReleaseBlockedMissingData  ReleaseStatus = "BLOCKED_BY_MISSING_DATA"
	ReleasePendingReview       ReleaseStatus = "PENDING_REVIEW"
)

// Released reports whether consumers may act on the decision.
func (rs ReleaseStatus) Released() bool {
	return rs == ReleaseApproved
}

// PickState is the leg-level classification that feeds parlay eligibility.
type PickState string

const (
	PickStatePick   PickState = "PICK"
	PickStateLean   PickState = "LEAN"
	PickStateNoPlay PickState = "NO_PLAY"
)

// ConfidenceTier is a secondary, informational-only grade for PICK-state
// legs. It never affects publish or parlay eligibility.
type ConfidenceTier string

const (
	TierStrong   ConfidenceTier = "STRONG"
	TierModerate ConfidenceTier = "MODERATE"
	TierWeak     ConfidenceTier = "WEAK"
	TierNone     ConfidenceTier = "NONE"
)

// EdgeGrade buckets edge magnitude for display.
type EdgeGrade string

const (
	GradeS EdgeGrade = "S"
	GradeA EdgeGrade = "A"
	GradeB EdgeGrade = "B"
	GradeC EdgeGrade = "C"
	GradeD EdgeGrade = "D"
)

// Side tokens for TOTAL markets; team markets use team ids instead.
const (
	SideOver  = "OVER"
	SideUnder = "UNDER"
)
