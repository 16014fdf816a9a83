package validator

import (
	"fmt"
	"strings"

	"github.com/oddslock/oddslock/internal/domain"
)

// mispriceDenylist is the set of substrings that must never appear in
// the reasons of a MARKET_ALIGNED decision. A decision that claims the
// market is aligned while its copy implies a misprice is incoherent.
var mispriceDenylist = []string{
	"misprice",
	"mispriced",
	"undervalued",
	"overvalued",
	"value on",
	"edge on",
	"sharp side",
}

// CertifiedDecision is the tagged certification result: the decision
// plus the violations that blocked it. Violations is nil iff the
// decision passed.
type CertifiedDecision struct {
	Decision   domain.Decision
	Violations []string
}

// Blocked reports whether certification overrode the decision.
func (c CertifiedDecision) Blocked() bool { return len(c.Violations) > 0 }

// Validator runs the structural invariant checks that certify a decision
// before it reaches any consumer. Pure and stateless.
type Validator struct{}

func New() *Validator { return &Validator{} }

// Validate runs every invariant in fixed order and collects all
// violations; it never short-circuits, so one failed certification
// reports every problem at once.
func (v *Validator) Validate(d domain.Decision, matchup domain.Matchup) (bool, []string) {
	var violations []string

	violations = append(violations, checkSpreadSigns(d)...)
	violations = append(violations, checkModelSelection(d)...)
	violations = append(violations, checkClassificationCoherence(d)...)
	violations = append(violations, checkSelectionConsistency(d)...)
	violations = append(violations, checkPickCompetitor(d, matchup)...)

	return len(violations) == 0, violations
}

// Certify validates and, on failure, force-sets the classification to
// NO_ACTION and the release status to BLOCKED_BY_INTEGRITY, recording
// every violation. All other observed fields are left untouched for
// forensic inspection. Idempotent: re-certifying a blocked decision is
// a no-op.
func (v *Validator) Certify(d domain.Decision, matchup domain.Matchup) CertifiedDecision {
	if d.ReleaseStatus == domain.ReleaseBlockedIntegrity && len(d.ValidatorFailures) > 0 {
		return CertifiedDecision{Decision: d, Violations: d.ValidatorFailures}
	}

	ok, violations := v.Validate(d, matchup)
	if ok {
		return CertifiedDecision{Decision: d}
	}

	d.Classification = domain.ClassificationNoAction
	d.ReleaseStatus = domain.ReleaseBlockedIntegrity
	d.ValidatorFailures = violations
	return CertifiedDecision{Decision: d, Violations: violations}
}

// ValidateGame enforces atomic consistency across a bundle: every market
// decision must carry the identical decision_version, trace_id, and
// inputs_hash, matching the bundle header.
func (v *Validator) ValidateGame(g domain.GameDecisions) (bool, []string) {
	var violations []string

	for _, d := range g.Decisions {
		if d.Debug.DecisionVersion != g.DecisionVersion {
			violations = append(violations, fmt.Sprintf("market %s decision_version %s differs from bundle %s", d.MarketType, d.Debug.DecisionVersion, g.DecisionVersion))
		}
		if d.Debug.TraceID != g.TraceID {
			violations = append(violations, fmt.Sprintf("market %s trace_id %s differs from bundle %s", d.MarketType, d.Debug.TraceID, g.TraceID))
		}
		if d.Debug.InputsHash != g.InputsHash {
			violations = append(violations, fmt.Sprintf("market %s inputs_hash differs from bundle", d.MarketType))
		}
	}

	return len(violations) == 0, violations
}

// checkSpreadSigns requires the two competitor spread lines to have
// opposite signs unless one side is a pick-'em (0), and no side may
// equal its opponent's signed line.
func checkSpreadSigns(d domain.Decision) []string {
	if d.MarketType != domain.MarketSpread {
		return nil
	}
	a, b := d.Market.Sides[0].Line, d.Market.Sides[1].Line

	var violations []string
	if a != 0 && b != 0 && sameSign(a, b) {
		violations = append(violations, fmt.Sprintf("spread lines %.1f and %.1f must have opposite signs", a, b))
	}
	if a == b && a != 0 {
		violations = append(violations, fmt.Sprintf("spread line %.1f equals its opponent's signed line", a))
	}
	return violations
}

func sameSign(a, b float64) bool {
	return (a > 0) == (b > 0)
}

// checkModelSelection requires the model fair line to be
// expressed for the same selection as the market line it is compared to.
func checkModelSelection(d domain.Decision) []string {
	if d.Model == nil {
		return nil
	}
	var violations []string
	if d.Model.SelectionID != d.SelectionID {
		violations = append(violations, fmt.Sprintf("model fair_line is expressed for selection %s but the decision references %s", d.Model.SelectionID, d.SelectionID))
	}
	if d.Pick != nil && d.Model.TeamID != d.Pick.TeamID {
		violations = append(violations, fmt.Sprintf("model fair_line team %s does not match pick team %s", d.Model.TeamID, d.Pick.TeamID))
	}
	return violations
}

// checkClassificationCoherence rejects misprice-implying copy in the
// reasons of a MARKET_ALIGNED decision.
func checkClassificationCoherence(d domain.Decision) []string {
	if d.Classification != domain.ClassificationMarketAligned {
		return nil
	}
	var violations []string
	for _, reason := range d.Reasons {
		lower := strings.ToLower(reason)
		for _, banned := range mispriceDenylist {
			if strings.Contains(lower, banned) {
				violations = append(violations, fmt.Sprintf("MARKET_ALIGNED decision carries misprice language %q in reason %q", banned, reason))
			}
		}
	}
	return violations
}

// checkSelectionConsistency requires selection_id to resolve to the
// same side everywhere it appears.
func checkSelectionConsistency(d domain.Decision) []string {
	var violations []string

	if d.SelectionID != d.PreferredSelectionID {
		violations = append(violations, fmt.Sprintf("selection_id %s does not match preferred_selection_id %s", d.SelectionID, d.PreferredSelectionID))
	}
	side, ok := d.Market.Side(d.SelectionID)
	if !ok {
		violations = append(violations, fmt.Sprintf("selection_id %s does not resolve to a side in the market snapshot", d.SelectionID))
	}
	if d.Pick != nil {
		if d.Pick.SelectionID != d.SelectionID {
			violations = append(violations, fmt.Sprintf("pick selection %s does not match decision selection %s", d.Pick.SelectionID, d.SelectionID))
		}
		if ok && d.Pick.TeamID != side.TeamID {
			violations = append(violations, fmt.Sprintf("pick team %s does not match snapshot team %s for selection %s", d.Pick.TeamID, side.TeamID, d.SelectionID))
		}
	}
	return violations
}

// checkPickCompetitor requires a released pick to name
// one of the game's two competitors (or OVER/UNDER on totals).
func checkPickCompetitor(d domain.Decision, matchup domain.Matchup) []string {
	if d.Pick == nil {
		return nil
	}
	if !matchup.Has(d.Pick.TeamID) {
		return []string{fmt.Sprintf("pick team %s is not a competitor in game %s", d.Pick.TeamID, d.GameID)}
	}
	return nil
}
