package validator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddslock/oddslock/internal/domain"
)

var testMatchup = domain.Matchup{
	Home: domain.Competitor{TeamID: "BOS", Name: "Boston Celtics"},
	Away: domain.Competitor{TeamID: "MIA", Name: "Miami Heat"},
}

// spreadDecision is a structurally sound approved spread pick on BOS -4.5.
func spreadDecision() domain.Decision {
	return domain.Decision{
		League:               "NBA",
		Sport:                domain.SportNBA,
		GameID:               "game-001",
		OddsEventID:          "evt-001",
		MarketType:           domain.MarketSpread,
		DecisionID:           "4f7e2c1a-0000-5000-8000-000000000001",
		SelectionID:          "sel-bos",
		PreferredSelectionID: "sel-bos",
		Pick:                 &domain.Pick{SelectionID: "sel-bos", TeamID: "BOS"},
		Market: domain.MarketSnapshot{
			Sides: [2]domain.SideQuote{
				{SelectionID: "sel-bos", TeamID: "BOS", Line: -4.5, Price: -110},
				{SelectionID: "sel-mia", TeamID: "MIA", Line: 4.5, Price: -110},
			},
			OddsTimestamp:   time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
			BookmakerSource: "consensus",
		},
		Model: &domain.ModelSnapshot{
			SelectionID:    "sel-bos",
			TeamID:         "BOS",
			FairLine:       -7.0,
			WinProbability: 0.62,
		},
		Classification: domain.ClassificationEdge,
		ReleaseStatus:  domain.ReleaseApproved,
		Reasons:        []string{"Model prices BOS at -7.0 vs posted -4.5 (consensus)"},
		Debug: domain.Debug{
			InputsHash:      "abc123",
			TraceID:         "trace-1",
			DecisionVersion: "2.0.0",
			EngineVersion:   "v1.4.2",
		},
		ValidatorFailures: []string{},
	}
}

func TestValidatePassesSoundDecision(t *testing.T) {
	ok, violations := New().Validate(spreadDecision(), testMatchup)
	assert.True(t, ok)
	assert.Empty(t, violations)
}

func TestValidateSpreadSignViolation(t *testing.T) {
	d := spreadDecision()
	// Both sides favored: a feed glitch the engine must never release.
	d.Market.Sides[1].Line = -4.5

	ok, violations := New().Validate(d, testMatchup)
	assert.False(t, ok)
	require.NotEmpty(t, violations)
	assert.Contains(t, violations[0], "must have opposite signs")
}

func TestValidateAllowsPickEmSpread(t *testing.T) {
	d := spreadDecision()
	d.Market.Sides[0].Line = 0
	d.Market.Sides[1].Line = 0
	d.Model.FairLine = -1.5

	ok, violations := New().Validate(d, testMatchup)
	assert.True(t, ok, "pick-'em lines are legal: %v", violations)
}

func TestValidateModelSelectionMismatch(t *testing.T) {
	d := spreadDecision()
	d.Model.SelectionID = "sel-mia"
	d.Model.TeamID = "MIA"

	ok, violations := New().Validate(d, testMatchup)
	assert.False(t, ok)
	assert.Contains(t, violations[0], "fair_line is expressed for selection")
}

func TestValidateMarketAlignedMispriceLanguage(t *testing.T) {
	d := spreadDecision()
	d.Pick = nil
	d.Model = nil
	d.Classification = domain.ClassificationMarketAligned
	d.Reasons = []string{"BOS looks undervalued at this number"}

	ok, violations := New().Validate(d, testMatchup)
	assert.False(t, ok)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "misprice language")
	assert.Contains(t, violations[0], "undervalued")
}

func TestValidateMarketAlignedCleanCopyPasses(t *testing.T) {
	d := spreadDecision()
	d.Pick = nil
	d.Classification = domain.ClassificationMarketAligned
	d.Reasons = []string{"Model agrees with the posted number for BOS"}

	ok, violations := New().Validate(d, testMatchup)
	assert.True(t, ok, "%v", violations)
}

func TestValidateSelectionConsistency(t *testing.T) {
	d := spreadDecision()
	d.PreferredSelectionID = "sel-mia"

	ok, violations := New().Validate(d, testMatchup)
	assert.False(t, ok)
	assert.Contains(t, violations[0], "preferred_selection_id")
}

func TestValidateSelectionNotInSnapshot(t *testing.T) {
	d := spreadDecision()
	d.SelectionID = "sel-nyk"
	d.PreferredSelectionID = "sel-nyk"
	d.Pick.SelectionID = "sel-nyk"
	d.Model.SelectionID = "sel-nyk"

	ok, violations := New().Validate(d, testMatchup)
	assert.False(t, ok)
	found := false
	for _, v := range violations {
		if strings.Contains(v, "does not resolve") {
			found = true
		}
	}
	assert.True(t, found, "expected a snapshot-resolution violation, got %v", violations)
}

func TestValidatePickCompetitor(t *testing.T) {
	d := spreadDecision()
	d.Market.Sides[0].TeamID = "NYK"
	d.Pick.TeamID = "NYK"
	d.Model.TeamID = "NYK"

	ok, violations := New().Validate(d, testMatchup)
	assert.False(t, ok)
	assert.Contains(t, violations[len(violations)-1], "not a competitor")
}

func TestValidateTotalsOverIsValidCompetitor(t *testing.T) {
	d := spreadDecision()
	d.MarketType = domain.MarketTotal
	d.SelectionID = "sel-over"
	d.PreferredSelectionID = "sel-over"
	d.Market.Sides = [2]domain.SideQuote{
		{SelectionID: "sel-over", TeamID: domain.SideOver, Line: 221.5, Price: -110},
		{SelectionID: "sel-under", TeamID: domain.SideUnder, Line: 221.5, Price: -110},
	}
	d.Pick = &domain.Pick{SelectionID: "sel-over", TeamID: domain.SideOver}
	d.Model = &domain.ModelSnapshot{SelectionID: "sel-over", TeamID: domain.SideOver, FairLine: 227.0, WinProbability: 0.60}

	ok, violations := New().Validate(d, testMatchup)
	assert.True(t, ok, "%v", violations)
}

func TestCertifyOverridesOnViolation(t *testing.T) {
	d := spreadDecision()
	d.Market.Sides[1].Line = -4.5

	certified := New().Certify(d, testMatchup)

	assert.True(t, certified.Blocked())
	assert.Equal(t, domain.ClassificationNoAction, certified.Decision.Classification)
	assert.Equal(t, domain.ReleaseBlockedIntegrity, certified.Decision.ReleaseStatus)
	assert.Equal(t, certified.Violations, certified.Decision.ValidatorFailures)
	// Observed fields stay untouched for forensics.
	assert.Equal(t, -4.5, certified.Decision.Market.Sides[1].Line)
	assert.NotNil(t, certified.Decision.Pick)
}

func TestCertifyPassesCleanDecisionUnchanged(t *testing.T) {
	d := spreadDecision()

	certified := New().Certify(d, testMatchup)

	assert.False(t, certified.Blocked())
	assert.Equal(t, d, certified.Decision)
}

func TestCertifyIdempotent(t *testing.T) {
	d := spreadDecision()
	d.Market.Sides[1].Line = -4.5

	v := New()
	first := v.Certify(d, testMatchup)
	second := v.Certify(first.Decision, testMatchup)

	assert.Equal(t, first.Decision, second.Decision)
	assert.Equal(t, first.Violations, second.Violations)
}

func TestValidateGameAtomicConsistency(t *testing.T) {
	a := spreadDecision()
	b := spreadDecision()
	b.MarketType = domain.MarketMoneyline

	g := domain.GameDecisions{
		GameID:          "game-001",
		DecisionVersion: "2.0.0",
		TraceID:         "trace-1",
		InputsHash:      "abc123",
		Decisions:       []domain.Decision{a, b},
	}

	ok, violations := New().ValidateGame(g)
	assert.True(t, ok, "%v", violations)

	g.Decisions[1].Debug.DecisionVersion = "2.1.0"
	g.Decisions[1].Debug.InputsHash = "zzz999"

	ok, violations = New().ValidateGame(g)
	assert.False(t, ok)
	require.Len(t, violations, 2)
	assert.Contains(t, violations[0], "decision_version")
	assert.Contains(t, violations[1], "inputs_hash")
}
