package classifier

import (
	"fmt"

	"github.com/oddslock/oddslock/internal/domain"
)

// ParlayLeg pairs a leg identifier with its classification.
type ParlayLeg struct {
	LegID          string
	Classification domain.PickClassification
}

// ParlayEligible is the single chokepoint deciding whether a set of legs
// may form a parlay: every leg must be PICK state with can_parlay set.
// One rejection reason is emitted per offending leg.
func ParlayEligible(legs []ParlayLeg) (bool, []string) {
	reasons := []string{}
	if len(legs) == 0 {
		return false, []string{"Parlay requires at least one leg"}
	}

	for _, leg := range legs {
		switch {
		case leg.Classification.State != domain.PickStatePick:
			reasons = append(reasons, fmt.Sprintf("Leg %s is %s, parlay legs must be PICK", leg.LegID, leg.Classification.State))
		case !leg.Classification.CanParlay:
			reasons = append(reasons, fmt.Sprintf("Leg %s is not parlay-eligible", leg.LegID))
		}
	}

	return len(reasons) == 0, reasons
}
