package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oddslock/oddslock/internal/domain"
)

// TierThresholds holds the six numeric knobs for one classification tier.
// Classification never branches on sport: adding a sport is a new table
// row, not new code.
type TierThresholds struct {
	MinProbability     float64 `yaml:"min_probability"`      // model win probability floor
	MinEdge            float64 `yaml:"min_edge"`             // points (spread/total) or EV% (moneyline)
	MinConfidence      float64 `yaml:"min_confidence"`       // sim confidence score floor, 0-100
	MaxVarianceZ       float64 `yaml:"max_variance_z"`       // variance z-score ceiling
	MaxMarketDeviation float64 `yaml:"max_market_deviation"` // fair-vs-posted gap ceiling
	MinDataQuality     float64 `yaml:"min_data_quality"`     // 0-1; LEAN tiers carry 0
}

// SportThresholds pairs the two tiers for one sport. The PICK tier is
// strictly tighter than the LEAN tier on every knob.
type SportThresholds struct {
	Pick TierThresholds `yaml:"pick"`
	Lean TierThresholds `yaml:"lean"`
}

// ThresholdTable maps every supported sport to its tier thresholds.
type ThresholdTable map[domain.Sport]SportThresholds

// DefaultThresholds returns the compiled-in production table.
func DefaultThresholds() ThresholdTable {
	return ThresholdTable{
		domain.SportNBA: {
			Pick: TierThresholds{MinProbability: 0.57, MinEdge: 3.0, MinConfidence: 65, MaxVarianceZ: 1.25, MaxMarketDeviation: 6.5, MinDataQuality: 0.70},
			Lean: TierThresholds{MinProbability: 0.53, MinEdge: 1.5, MinConfidence: 55, MaxVarianceZ: 1.75, MaxMarketDeviation: 8.0},
		},
		domain.SportWNBA: {
			Pick: TierThresholds{MinProbability: 0.58, MinEdge: 3.0, MinConfidence: 66, MaxVarianceZ: 1.20, MaxMarketDeviation: 6.0, MinDataQuality: 0.70},
			Lean: TierThresholds{MinProbability: 0.54, MinEdge: 1.5, MinConfidence: 56, MaxVarianceZ: 1.70, MaxMarketDeviation: 7.5},
		},
		domain.SportNFL: {
			Pick: TierThresholds{MinProbability: 0.58, MinEdge: 2.0, MinConfidence: 68, MaxVarianceZ: 1.15, MaxMarketDeviation: 4.5, MinDataQuality: 0.70},
			Lean: TierThresholds{MinProbability: 0.54, MinEdge: 1.0, MinConfidence: 58, MaxVarianceZ: 1.60, MaxMarketDeviation: 6.0},
		},
		domain.SportMLB: {
			Pick: TierThresholds{MinProbability: 0.56, MinEdge: 2.5, MinConfidence: 64, MaxVarianceZ: 1.30, MaxMarketDeviation: 1.5, MinDataQuality: 0.70},
			Lean: TierThresholds{MinProbability: 0.53, MinEdge: 1.2, MinConfidence: 54, MaxVarianceZ: 1.80, MaxMarketDeviation: 2.5},
		},
		domain.SportNHL: {
			Pick: TierThresholds{MinProbability: 0.56, MinEdge: 2.5, MinConfidence: 64, MaxVarianceZ: 1.30, MaxMarketDeviation: 1.0, MinDataQuality: 0.70},
			Lean: TierThresholds{MinProbability: 0.53, MinEdge: 1.2, MinConfidence: 54, MaxVarianceZ: 1.80, MaxMarketDeviation: 1.8},
		},
	}
}

// LoadThresholds reads a YAML override table, falling back to compiled
// defaults for sports the file does not mention.
func LoadThresholds(path string) (ThresholdTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read threshold config %s: %w", path, err)
	}

	raw := map[string]SportThresholds{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse threshold config: %w", err)
	}

	table := DefaultThresholds()
	for key, st := range raw {
		sport, err := domain.ParseSport(key)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold config: %w", err)
		}
		table[sport] = st
	}

	if err := ValidateThresholds(table); err != nil {
		return nil, fmt.Errorf("invalid threshold configuration: %w", err)
	}
	return table, nil
}

// ValidateThresholds enforces sane ranges and the PICK-stricter-than-LEAN
// ordering on every knob.
func ValidateThresholds(table ThresholdTable) error {
	for _, sport := range domain.AllSports {
		st, ok := table[sport]
		if !ok {
			return fmt.Errorf("missing thresholds for sport %s", sport)
		}
		for tier, t := range map[string]TierThresholds{"pick": st.Pick, "lean": st.Lean} {
			if t.MinProbability <= 0.5 || t.MinProbability >= 1.0 {
				return fmt.Errorf("%s %s: min_probability %.3f out of range (0.5, 1.0)", sport, tier, t.MinProbability)
			}
			if t.MinEdge <= 0 {
				return fmt.Errorf("%s %s: min_edge must be positive, got %.2f", sport, tier, t.MinEdge)
			}
			if t.MinConfidence <= 0 || t.MinConfidence > 100 {
				return fmt.Errorf("%s %s: min_confidence %.1f out of range (0, 100]", sport, tier, t.MinConfidence)
			}
			if t.MaxVarianceZ <= 0 {
				return fmt.Errorf("%s %s: max_variance_z must be positive, got %.2f", sport, tier, t.MaxVarianceZ)
			}
			if t.MaxMarketDeviation <= 0 {
				return fmt.Errorf("%s %s: max_market_deviation must be positive, got %.2f", sport, tier, t.MaxMarketDeviation)
			}
			if t.MinDataQuality < 0 || t.MinDataQuality > 1 {
				return fmt.Errorf("%s %s: min_data_quality %.2f out of range [0, 1]", sport, tier, t.MinDataQuality)
			}
		}
		if st.Pick.MinProbability < st.Lean.MinProbability ||
			st.Pick.MinEdge < st.Lean.MinEdge ||
			st.Pick.MinConfidence < st.Lean.MinConfidence ||
			st.Pick.MaxVarianceZ > st.Lean.MaxVarianceZ ||
			st.Pick.MaxMarketDeviation > st.Lean.MaxMarketDeviation ||
			st.Pick.MinDataQuality < st.Lean.MinDataQuality {
			return fmt.Errorf("%s: PICK tier must be stricter than LEAN tier on every knob", sport)
		}
	}
	return nil
}
