package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddslock/oddslock/internal/domain"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(DefaultThresholds())
	require.NoError(t, err)
	return c
}

// nbaInput is the reference NBA total signal: passes every PICK knob.
func nbaInput() Input {
	return Input{
		Sport:             domain.SportNBA,
		Probability:       0.60,
		Edge:              4.5,
		ConfidenceScore:   68,
		VarianceZ:         1.10,
		MarketDeviation:   6.0,
		DataQuality:       0.80,
		UpstreamPublishOK: true,
	}
}

func TestClassifyPick(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify(nbaInput())

	assert.Equal(t, domain.PickStatePick, result.State)
	assert.True(t, result.CanPublish)
	assert.True(t, result.CanParlay)
	assert.True(t, result.ThresholdsMet["pick_min_probability"])
	assert.True(t, result.ThresholdsMet["pick_min_data_quality"])
	assert.NotEqual(t, domain.TierNone, result.ConfidenceTier)
}

func TestClassifyLeanWhenConfidenceMissesPick(t *testing.T) {
	c := newTestClassifier(t)

	in := nbaInput()
	in.ConfidenceScore = 58 // below PICK floor 65, above LEAN floor 55

	result := c.Classify(in)

	assert.Equal(t, domain.PickStateLean, result.State)
	assert.True(t, result.CanPublish)
	assert.False(t, result.CanParlay)
	assert.False(t, result.ThresholdsMet["pick_min_confidence"])
	assert.True(t, result.ThresholdsMet["lean_min_confidence"])
}

func TestClassifyNoPlay(t *testing.T) {
	c := newTestClassifier(t)

	in := nbaInput()
	in.Probability = 0.50
	in.Edge = 0.5

	result := c.Classify(in)

	assert.Equal(t, domain.PickStateNoPlay, result.State)
	assert.False(t, result.CanPublish)
	assert.False(t, result.CanParlay)
	assert.NotEmpty(t, result.Reasons)
}

func TestClassifyUpstreamBlock(t *testing.T) {
	c := newTestClassifier(t)

	in := nbaInput()
	in.UpstreamPublishOK = false
	in.UpstreamBlockReasons = []string{"stale odds snapshot"}

	result := c.Classify(in)

	assert.Equal(t, domain.PickStateNoPlay, result.State)
	assert.False(t, result.CanPublish)
	assert.Equal(t, []string{"stale odds snapshot"}, result.Reasons)
	assert.False(t, result.ThresholdsMet["upstream_publish_ok"])
}

func TestClassifyUpstreamBlockGenericFallback(t *testing.T) {
	c := newTestClassifier(t)

	in := nbaInput()
	in.UpstreamPublishOK = false

	result := c.Classify(in)

	assert.Equal(t, domain.PickStateNoPlay, result.State)
	require.Len(t, result.Reasons, 1)
	assert.Contains(t, result.Reasons[0], "calibration gate")
}

func TestClassifyBootstrapDowngradesPick(t *testing.T) {
	c := newTestClassifier(t)

	in := nbaInput()
	in.BootstrapMode = true

	result := c.Classify(in)

	assert.Equal(t, domain.PickStateLean, result.State)
	assert.True(t, result.CanPublish)
	assert.False(t, result.CanParlay, "bootstrap mode must never reach parlay eligibility")
	require.NotEmpty(t, result.Reasons)
	assert.Contains(t, result.Reasons[0], "bootstrap")
}

func TestClassifyDataQualityOnlyGatesPick(t *testing.T) {
	c := newTestClassifier(t)

	in := nbaInput()
	in.DataQuality = 0.60 // below the 0.70 PICK floor

	result := c.Classify(in)

	assert.Equal(t, domain.PickStateLean, result.State)
	assert.False(t, result.ThresholdsMet["pick_min_data_quality"])
	assert.True(t, result.ThresholdsMet["lean_min_data_quality"])
}

func TestClassifyTableDriven(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name   string
		mutate func(*Input)
		want   domain.PickState
	}{
		{"variance too wide for pick", func(in *Input) { in.VarianceZ = 1.50 }, domain.PickStateLean},
		{"variance too wide for lean", func(in *Input) { in.VarianceZ = 2.00 }, domain.PickStateNoPlay},
		{"deviation too large for pick", func(in *Input) { in.MarketDeviation = 7.0 }, domain.PickStateLean},
		{"deviation too large for lean", func(in *Input) { in.MarketDeviation = 9.0 }, domain.PickStateNoPlay},
		{"edge below pick floor", func(in *Input) { in.Edge = 2.0 }, domain.PickStateLean},
		{"edge below lean floor", func(in *Input) { in.Edge = 1.0 }, domain.PickStateNoPlay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := nbaInput()
			tt.mutate(&in)
			assert.Equal(t, tt.want, c.Classify(in).State)
		})
	}
}

func TestConfidenceTierInformational(t *testing.T) {
	c := newTestClassifier(t)

	strong := nbaInput()
	strong.Probability = 0.65
	strong.ConfidenceScore = 80
	assert.Equal(t, domain.TierStrong, c.Classify(strong).ConfidenceTier)

	weak := nbaInput()
	weak.Probability = 0.575
	weak.ConfidenceScore = 66
	result := c.Classify(weak)
	assert.Equal(t, domain.TierWeak, result.ConfidenceTier)
	// Tier never affects publish or parlay.
	assert.True(t, result.CanPublish)
	assert.True(t, result.CanParlay)
}
