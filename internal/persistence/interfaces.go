package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oddslock/oddslock/internal/domain"
)

// AuditRecord is one append-only row in the decision audit log. The full
// decision payload rides along so compliance retention never depends on
// schema evolution of the flattened columns.
type AuditRecord struct {
	ID              int64                 `json:"id" db:"id"`
	Timestamp       time.Time             `json:"ts" db:"ts"`
	League          string                `json:"league" db:"league"`
	Sport           domain.Sport          `json:"sport" db:"sport"`
	GameID          string                `json:"game_id" db:"game_id"`
	OddsEventID     string                `json:"odds_event_id" db:"odds_event_id"`
	MarketType      domain.MarketType     `json:"market_type" db:"market_type"`
	DecisionID      string                `json:"decision_id" db:"decision_id"`
	Classification  domain.Classification `json:"classification" db:"classification"`
	ReleaseStatus   domain.ReleaseStatus  `json:"release_status" db:"release_status"`
	PickState       domain.PickState      `json:"pick_state" db:"pick_state"`
	CanPublish      bool                  `json:"can_publish" db:"can_publish"`
	CanParlay       bool                  `json:"can_parlay" db:"can_parlay"`
	DecisionVersion string                `json:"decision_version" db:"decision_version"`
	InputsHash      string                `json:"inputs_hash" db:"inputs_hash"`
	TraceID         string                `json:"trace_id" db:"trace_id"`

	// StateMachineReasons carries the classifier reasons; Payload the
	// full decision object.
	StateMachineReasons []string        `json:"state_machine_reasons" db:"-"`
	ValidatorFailures   []string        `json:"validator_failures" db:"-"`
	Payload             json.RawMessage `json:"payload" db:"payload"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AuditRepo is the append-only decision audit log. Records are never
// updated or deleted (7-year retention handled out of band).
type AuditRepo interface {
	Append(ctx context.Context, rec AuditRecord) (int64, error)
	ListByGame(ctx context.Context, gameID string, limit int) ([]AuditRecord, error)
}
