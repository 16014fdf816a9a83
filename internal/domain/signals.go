package domain

import "time"

// SimSignal is the per-market output of the simulation collaborator.
type SimSignal struct {
	SimRunID         string  `json:"sim_run_id"`
	SimCount         int     `json:"sim_count"`
	WinProbability   float64 `json:"win_probability"`
	FairLine         float64 `json:"fair_line"` // fair spread/total; fair price prob for moneylines
	VarianceZ        float64 `json:"variance_z"`
	ConfidenceScore  float64 `json:"confidence_score"` // 0-100
	VolatilityBand   string  `json:"volatility_band"`
	DistributionSkew float64 `json:"distribution_skew"`
	InjuryImpact     string  `json:"injury_impact,omitempty"`
	CLVForecastPts   float64 `json:"clv_forecast_pts"`
}

// CalibrationGate is the upstream integrity/freshness verdict consumed
// from the calibration collaborator.
type CalibrationGate struct {
	PublishOK        bool     `json:"publish_ok"`
	BlockReasons     []string `json:"block_reasons"`
	DataQualityScore float64  `json:"data_quality_score"` // 0-1
	// BootstrapMode is set while historical calibration data does not yet
	// exist; it caps classification at LEAN.
	BootstrapMode bool `json:"bootstrap_mode"`
}

// MarketInput is everything the engine needs to decide one market.
type MarketInput struct {
	MarketType MarketType `json:"market_type"`
	// PreferredSelectionID names the side the model favors; every
	// downstream field referencing a selection resolves to this side.
	PreferredSelectionID string          `json:"preferred_selection_id"`
	Market               MarketSnapshot  `json:"market"`
	Sim                  SimSignal       `json:"sim"`
	Calibration          CalibrationGate `json:"calibration"`
	// MarketDeviation is the absolute gap between the model fair number
	// and the posted number, in points (or EV percent for moneylines).
	MarketDeviation float64 `json:"market_deviation"`
}

// DecisionRequest is one game's worth of signals headed into the engine.
type DecisionRequest struct {
	Sport         Sport         `json:"sport"`
	League        string        `json:"league"`
	GameID        string        `json:"game_id"`
	OddsEventID   string        `json:"odds_event_id"`
	Matchup       Matchup       `json:"matchup"`
	ConfigProfile string        `json:"config_profile"`
	Markets       []MarketInput `json:"markets"`
	RequestedAt   time.Time     `json:"requested_at"`
}

// CacheEntry is one content-addressed replay record.
type CacheEntry struct {
	CacheKey string    `json:"cache_key"`
	Decision Decision  `json:"decision"`
	CachedAt time.Time `json:"cached_at"`
}

// VersionRecord is the persisted operator-controlled decision version.
type VersionRecord struct {
	Major             int       `json:"major" db:"major"`
	Minor             int       `json:"minor" db:"minor"`
	Patch             int       `json:"patch" db:"patch"`
	Version           string    `json:"version" db:"version"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
	UpdatedBy         string    `json:"updated_by" db:"updated_by"`
	ChangeDescription string    `json:"change_description" db:"change_description"`
	GitCommitSHA      string    `json:"git_commit_sha" db:"git_commit_sha"`
}
