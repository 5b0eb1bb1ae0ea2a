package snapshots

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/modules/compliance"
	testutil "github.com/aristath/sentinel-risk/internal/testing"
)

type mockEmitter struct {
	mu     sync.Mutex
	events []events.EventData
}

func (m *mockEmitter) Emit(_ string, data events.EventData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, data)
}

func TestStoreEmpty(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())

	_, err := s.Current()
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = s.LatestEvaluation()
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreReplace(t *testing.T) {
	emitter := &mockEmitter{}
	s := NewStore(emitter, zerolog.Nop())
	portfolio := testutil.NewPortfolio(t)
	series := testutil.NewReturnSeries(t, testutil.Alternating(30, 1))

	snap, err := s.Replace(portfolio, series, nil, "test")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Len(t, snap.Rules, len(compliance.DefaultRules()))

	current, err := s.Current()
	require.NoError(t, err)
	assert.Same(t, portfolio, current.Portfolio)
	assert.Same(t, series, current.Series)

	require.Len(t, emitter.events, 1)
	data, ok := emitter.events[0].(*events.SnapshotUpdatedData)
	require.True(t, ok)
	assert.Equal(t, 4, data.Positions)
	assert.Equal(t, 30, data.Observations)
	assert.Equal(t, "test", data.Source)
}

func TestStoreRulesAreCopied(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	_, err := s.Replace(testutil.NewPortfolio(t), nil, nil, "")
	require.NoError(t, err)

	snap, err := s.Current()
	require.NoError(t, err)
	snap.Rules[0].Threshold = 99

	again, err := s.Current()
	require.NoError(t, err)
	assert.NotEqual(t, 99.0, again.Rules[0].Threshold)
}

func TestStoreRejectsInvalidInput(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())

	_, err := s.Replace(nil, nil, nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad := compliance.DefaultRules()
	bad[0].Threshold = -1
	_, err = s.Replace(testutil.NewPortfolio(t), nil, bad, "")
	assert.Error(t, err)

	_, err = s.Current()
	assert.ErrorIs(t, err, domain.ErrNotFound, "a rejected snapshot must not replace anything")
}

func TestStoreDropsStaleEvaluation(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	first, err := s.Replace(testutil.NewPortfolio(t), nil, nil, "")
	require.NoError(t, err)

	second, err := s.Replace(testutil.NewPortfolio(t), nil, nil, "")
	require.NoError(t, err)

	eval := &compliance.Evaluation{Report: domain.ComplianceReport{OverallStatus: domain.OverallCompliant}}
	assert.False(t, s.SetEvaluation(eval, first.Version))
	_, _, err = s.LatestEvaluation()
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.True(t, s.SetEvaluation(eval, second.Version))
	got, _, err := s.LatestEvaluation()
	require.NoError(t, err)
	assert.Same(t, eval, got)

	_, err = s.Replace(testutil.NewPortfolio(t), nil, nil, "")
	require.NoError(t, err)
	_, _, err = s.LatestEvaluation()
	assert.ErrorIs(t, err, domain.ErrNotFound, "replacing the snapshot clears the evaluation")
}

func TestStoreDefaultRules(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	assert.Equal(t, compliance.DefaultRules(), s.DefaultRules())

	custom := compliance.DefaultRules()[:2]
	require.NoError(t, s.SetDefaultRules(custom))
	assert.Equal(t, custom, s.DefaultRules())

	snap, err := s.Replace(testutil.NewPortfolio(t), nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, custom, snap.Rules)

	bad := compliance.DefaultRules()
	bad[0].ID = ""
	assert.Error(t, s.SetDefaultRules(bad))
	assert.Equal(t, custom, s.DefaultRules())
}
