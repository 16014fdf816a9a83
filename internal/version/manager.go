package version

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/oddslock/oddslock/internal/domain"
)

// EngineVersion identifies the decision engine build, independent of the
// operator-controlled decision version.
const EngineVersion = "v1.4.2"

// Metadata is the version block every decision debug section carries.
type Metadata struct {
	DecisionVersion string
	GitCommitSHA    string
	EngineVersion   string
}

// Manager owns the operator-controlled decision version: loaded once at
// process start, exposed atomically to every component, mutated only by
// an explicit operator bump. There is no terminal state; the version is
// live process-wide state.
type Manager struct {
	mu      sync.RWMutex
	store   Store
	current SemVer
	gitSHA  string
	log     zerolog.Logger
}

// NewManager loads the persisted version. A missing record initializes
// to the default; a corrupt or unreadable record falls back to the
// default with a loud warning, and the operator must reconcile before
// the next bump.
func NewManager(ctx context.Context, store Store, gitSHA string, log zerolog.Logger) *Manager {
	m := &Manager{store: store, current: DefaultVersion, gitSHA: gitSHA, log: log}

	rec, err := store.Load(ctx)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("fallback", DefaultVersion.String()).
			Msg("decision version record unreadable, falling back to default; reconcile before the next bump")
	case rec == nil:
		log.Info().Str("version", DefaultVersion.String()).Msg("no decision version record, initializing default")
	default:
		v, perr := Parse(rec.Version)
		if perr != nil {
			log.Warn().Err(perr).Str("fallback", DefaultVersion.String()).
				Msg("decision version record corrupt, falling back to default; reconcile before the next bump")
		} else {
			m.current = v
		}
	}
	return m
}

// Current returns the active decision version.
func (m *Manager) Current() SemVer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Metadata returns the version block attached to every decision.
func (m *Manager) Metadata() Metadata {
	return Metadata{
		DecisionVersion: m.Current().String(),
		GitCommitSHA:    m.gitSHA,
		EngineVersion:   EngineVersion,
	}
}

// Bump advances the version per SEMVER rules and persists the new record
// with operator and reason for audit. Operator CLI only: the decision
// pipeline never calls this.
func (m *Manager) Bump(ctx context.Context, kind BumpKind, operator, reason string) (SemVer, error) {
	if strings.TrimSpace(operator) == "" {
		return SemVer{}, fmt.Errorf("bump requires an operator id")
	}
	if strings.TrimSpace(reason) == "" {
		return SemVer{}, fmt.Errorf("bump requires a change description")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.current.Bump(kind)
	if err != nil {
		return SemVer{}, err
	}

	rec := domain.VersionRecord{
		Major:             next.Major,
		Minor:             next.Minor,
		Patch:             next.Patch,
		Version:           next.String(),
		UpdatedAt:         time.Now().UTC(),
		UpdatedBy:         operator,
		ChangeDescription: reason,
		GitCommitSHA:      m.gitSHA,
	}
	if err := m.store.Save(ctx, rec); err != nil {
		return SemVer{}, fmt.Errorf("failed to persist version record: %w", err)
	}

	m.log.Info().Str("from", m.current.String()).Str("to", next.String()).
		Str("operator", operator).Str("reason", reason).Msg("decision version bumped")
	m.current = next
	return next, nil
}
