package classifier

import (
	"fmt"

	"github.com/oddslock/oddslock/internal/domain"
)

// Input is the signal bundle for one leg.
type Input struct {
	Sport           domain.Sport
	Probability     float64 // model win probability for the preferred side
	Edge            float64 // points (spread/total) or EV% (moneyline), absolute
	ConfidenceScore float64 // 0-100 from the simulation run
	VarianceZ       float64
	MarketDeviation float64
	DataQuality     float64 // 0-1 from the calibration collaborator

	UpstreamPublishOK    bool
	UpstreamBlockReasons []string

	// BootstrapMode is set before historical calibration data exists.
	// It caps the result at LEAN so unproven thresholds never reach
	// parlay eligibility.
	BootstrapMode bool
}

// Classifier maps signal bundles onto PICK/LEAN/NO_PLAY states using the
// sport threshold table. It is a pure function holder: no I/O, no shared
// mutable state, safe for any number of concurrent callers.
type Classifier struct {
	table ThresholdTable
}

// New creates a classifier over a validated threshold table.
func New(table ThresholdTable) (*Classifier, error) {
	if err := ValidateThresholds(table); err != nil {
		return nil, err
	}
	return &Classifier{table: table}, nil
}

// checkTier evaluates every knob of one tier, recording each result
// under a prefixed key and returning the failure descriptions.
func checkTier(prefix string, t TierThresholds, in Input, met map[string]bool) []string {
	var failures []string
	record := func(name string, passed bool, failure string) {
		met[prefix+"_"+name] = passed
		if !passed {
			failures = append(failures, failure)
		}
	}

	record("min_probability", in.Probability >= t.MinProbability,
		fmt.Sprintf("Probability %.3f below %s floor %.3f", in.Probability, prefix, t.MinProbability))
	record("min_edge", in.Edge >= t.MinEdge,
		fmt.Sprintf("Edge %.2f below %s floor %.2f", in.Edge, prefix, t.MinEdge))
	record("min_confidence", in.ConfidenceScore >= t.MinConfidence,
		fmt.Sprintf("Confidence %.1f below %s floor %.1f", in.ConfidenceScore, prefix, t.MinConfidence))
	record("max_variance_z", in.VarianceZ <= t.MaxVarianceZ,
		fmt.Sprintf("Variance z %.2f above %s ceiling %.2f", in.VarianceZ, prefix, t.MaxVarianceZ))
	record("max_market_deviation", in.MarketDeviation <= t.MaxMarketDeviation,
		fmt.Sprintf("Market deviation %.2f above %s ceiling %.2f", in.MarketDeviation, prefix, t.MaxMarketDeviation))
	record("min_data_quality", in.DataQuality >= t.MinDataQuality,
		fmt.Sprintf("Data quality %.2f below %s floor %.2f", in.DataQuality, prefix, t.MinDataQuality))

	return failures
}

// Classify maps one signal bundle onto a PickClassification.
//
// Gate order: upstream publish gate, PICK tier, bootstrap downgrade,
// LEAN tier, NO_PLAY.
func (c *Classifier) Classify(in Input) domain.PickClassification {
	met := make(map[string]bool)

	if !in.UpstreamPublishOK && !in.BootstrapMode {
		reasons := in.UpstreamBlockReasons
		if len(reasons) == 0 {
			reasons = []string{"Upstream calibration gate rejected this market"}
		}
		met["upstream_publish_ok"] = false
		return domain.PickClassification{
			State:          domain.PickStateNoPlay,
			CanPublish:     false,
			CanParlay:      false,
			ConfidenceTier: domain.TierNone,
			Reasons:        reasons,
			ThresholdsMet:  met,
		}
	}
	met["upstream_publish_ok"] = true

	st, ok := c.table[in.Sport]
	if !ok {
		// Closed sport enum makes this unreachable from validated input.
		return domain.PickClassification{
			State:          domain.PickStateNoPlay,
			CanPublish:     false,
			CanParlay:      false,
			ConfidenceTier: domain.TierNone,
			Reasons:        []string{fmt.Sprintf("No thresholds configured for sport %s", in.Sport)},
			ThresholdsMet:  met,
		}
	}

	pickFailures := checkTier("pick", st.Pick, in, met)
	if len(pickFailures) == 0 {
		if in.BootstrapMode {
			return domain.PickClassification{
				State:          domain.PickStateLean,
				CanPublish:     true,
				CanParlay:      false,
				ConfidenceTier: domain.TierNone,
				Reasons: []string{
					"All PICK thresholds met, downgraded to LEAN: historical calibration data not yet available (bootstrap mode)",
				},
				ThresholdsMet: met,
			}
		}
		return domain.PickClassification{
			State:          domain.PickStatePick,
			CanPublish:     true,
			CanParlay:      true,
			ConfidenceTier: confidenceTier(st.Pick, in),
			Reasons:        []string{"All PICK thresholds met"},
			ThresholdsMet:  met,
		}
	}

	leanFailures := checkTier("lean", st.Lean, in, met)
	if len(leanFailures) == 0 {
		return domain.PickClassification{
			State:          domain.PickStateLean,
			CanPublish:     true,
			CanParlay:      false,
			ConfidenceTier: domain.TierNone,
			Reasons:        append([]string{"LEAN thresholds met, PICK thresholds not met:"}, pickFailures...),
			ThresholdsMet:  met,
		}
	}

	return domain.PickClassification{
		State:          domain.PickStateNoPlay,
		CanPublish:     false,
		CanParlay:      false,
		ConfidenceTier: domain.TierNone,
		Reasons:        leanFailures,
		ThresholdsMet:  met,
	}
}

// confidenceTier grades how far a PICK-state signal sits above the PICK
// thresholds. Informational only; never gates publish or parlay.
func confidenceTier(t TierThresholds, in Input) domain.ConfidenceTier {
	probMargin := in.Probability - t.MinProbability
	confMargin := in.ConfidenceScore - t.MinConfidence

	switch {
	case probMargin >= 0.05 && confMargin >= 10:
		return domain.TierStrong
	case probMargin < 0.02 || confMargin < 3:
		return domain.TierWeak
	default:
		return domain.TierModerate
	}
}
