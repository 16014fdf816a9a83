package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oddslock/oddslock/internal/persistence"
)

// auditRepo implements AuditRepo for PostgreSQL. Inserts only; the table
// carries no update or delete path.
type auditRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewAuditRepo creates a PostgreSQL decision audit repository.
func NewAuditRepo(db *sqlx.DB, timeout time.Duration) persistence.AuditRepo {
	return &auditRepo{db: db, timeout: timeout}
}

func (r *auditRepo) Append(ctx context.Context, rec persistence.AuditRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reasonsJSON, err := json.Marshal(rec.StateMachineReasons)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal state machine reasons: %w", err)
	}
	failuresJSON, err := json.Marshal(rec.ValidatorFailures)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal validator failures: %w", err)
	}

	query := `
		INSERT INTO decision_audit
		(ts, league, sport, game_id, odds_event_id, market_type, decision_id,
		 classification, release_status, pick_state, can_publish, can_parlay,
		 decision_version, inputs_hash, trace_id, state_machine_reasons,
		 validator_failures, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`

	var id int64
	err = r.db.QueryRowxContext(ctx, query,
		rec.Timestamp, rec.League, rec.Sport, rec.GameID, rec.OddsEventID,
		rec.MarketType, rec.DecisionID, rec.Classification, rec.ReleaseStatus,
		rec.PickState, rec.CanPublish, rec.CanParlay, rec.DecisionVersion,
		rec.InputsHash, rec.TraceID, reasonsJSON, failuresJSON, []byte(rec.Payload)).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append audit record: %w", err)
	}
	return id, nil
}

func (r *auditRepo) ListByGame(ctx context.Context, gameID string, limit int) ([]persistence.AuditRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, ts, league, sport, game_id, odds_event_id, market_type,
		       decision_id, classification, release_status, pick_state,
		       can_publish, can_parlay, decision_version, inputs_hash, trace_id,
		       state_machine_reasons, validator_failures, payload, created_at
		FROM decision_audit
		WHERE game_id = $1
		ORDER BY ts DESC
		LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, gameID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	var records []persistence.AuditRecord
	for rows.Next() {
		var rec persistence.AuditRecord
		var reasonsJSON, failuresJSON []byte
		err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.League, &rec.Sport,
			&rec.GameID, &rec.OddsEventID, &rec.MarketType, &rec.DecisionID,
			&rec.Classification, &rec.ReleaseStatus, &rec.PickState,
			&rec.CanPublish, &rec.CanParlay, &rec.DecisionVersion,
			&rec.InputsHash, &rec.TraceID, &reasonsJSON, &failuresJSON,
			&rec.Payload, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		if err := json.Unmarshal(reasonsJSON, &rec.StateMachineReasons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state machine reasons: %w", err)
		}
		if err := json.Unmarshal(failuresJSON, &rec.ValidatorFailures); err != nil {
			return nil, fmt.Errorf("failed to unmarshal validator failures: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
