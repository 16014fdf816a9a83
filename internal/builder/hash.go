package builder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/oddslock/oddslock/internal/domain"
)

// hashedMarket is the canonical projection of one market's inputs. Field
// order is fixed by the struct, so encoding/json yields identical bytes
// in every process.
type hashedMarket struct {
	MarketType           domain.MarketType     `json:"market_type"`
	PreferredSelectionID string                `json:"preferred_selection_id"`
	Sides                [2]domain.SideQuote   `json:"sides"`
	OddsTimestamp        time.Time             `json:"odds_timestamp"`
	BookmakerSource      string                `json:"bookmaker_source"`
	SimRunID             string                `json:"sim_run_id"`
	SimCount             int                   `json:"sim_count"`
	WinProbability       float64               `json:"win_probability"`
	FairLine             float64               `json:"fair_line"`
	VarianceZ            float64               `json:"variance_z"`
	ConfidenceScore      float64               `json:"confidence_score"`
	MarketDeviation      float64               `json:"market_deviation"`
	Calibration          domain.CalibrationGate `json:"calibration"`
}

type hashedRequest struct {
	Sport         domain.Sport   `json:"sport"`
	GameID        string         `json:"game_id"`
	OddsEventID   string         `json:"odds_event_id"`
	ConfigProfile string         `json:"config_profile"`
	Markets       []hashedMarket `json:"markets"`
}

// InputsHash digests the odds snapshot, simulation run, and config
// profile for a request. Identical inputs hash identically regardless of
// which process computes the digest; the hash uniquely identifies the
// situation a decision was computed from.
func InputsHash(req domain.DecisionRequest) string {
	h := hashedRequest{
		Sport:         req.Sport,
		GameID:        req.GameID,
		OddsEventID:   req.OddsEventID,
		ConfigProfile: req.ConfigProfile,
	}

	markets := append([]domain.MarketInput(nil), req.Markets...)
	sort.Slice(markets, func(i, j int) bool { return markets[i].MarketType < markets[j].MarketType })

	for _, m := range markets {
		h.Markets = append(h.Markets, hashedMarket{
			MarketType:           m.MarketType,
			PreferredSelectionID: m.PreferredSelectionID,
			Sides:                m.Market.Sides,
			OddsTimestamp:        m.Market.OddsTimestamp.UTC(),
			BookmakerSource:      m.Market.BookmakerSource,
			SimRunID:             m.Sim.SimRunID,
			SimCount:             m.Sim.SimCount,
			WinProbability:       m.Sim.WinProbability,
			FairLine:             m.Sim.FairLine,
			VarianceZ:            m.Sim.VarianceZ,
			ConfidenceScore:      m.Sim.ConfidenceScore,
			MarketDeviation:      m.MarketDeviation,
			Calibration:          m.Calibration,
		})
	}

	payload, err := json.Marshal(h)
	if err != nil {
		// Marshal over plain structs cannot fail; keep the digest total anyway.
		payload = []byte(req.GameID + "|" + req.OddsEventID)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
