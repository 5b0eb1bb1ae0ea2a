// Package snapshots holds the current portfolio snapshot: the positions, the return
// history and the rule set that scheduled compliance sweeps evaluate.
package snapshots

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/modules/compliance"
)

// EventEmitter defines the interface for emitting events
type EventEmitter interface {
	Emit(module string, data events.EventData)
}

const eventModule = "snapshots"

// Snapshot is one wholesale replacement of the evaluated inputs. Series may be nil.
type Snapshot struct {
	Portfolio *domain.Portfolio
	Series    *domain.ReturnSeries
	Rules     []domain.ComplianceRule
	Source    string
	Version   uint64
	UpdatedAt time.Time
}

// Store keeps the latest snapshot and the latest compliance evaluation in memory.
type Store struct {
	mu       sync.RWMutex
	current  *Snapshot
	version  uint64
	latest   *compliance.Evaluation
	latestAt time.Time
	defaults []domain.ComplianceRule

	emitter EventEmitter
	now     func() time.Time
	log     zerolog.Logger
}

// NewStore creates an empty store. emitter may be nil.
func NewStore(emitter EventEmitter, log zerolog.Logger) *Store {
	return &Store{
		emitter: emitter,
		now:     time.Now,
		log:     log.With().Str("component", "snapshot_store").Logger(),
	}
}

// SetDefaultRules replaces the rule set used by snapshots that carry none.
func (s *Store) SetDefaultRules(rules []domain.ComplianceRule) error {
	if err := compliance.ValidateRules(rules); err != nil {
		return err
	}
	s.mu.Lock()
	s.defaults = append([]domain.ComplianceRule(nil), rules...)
	s.mu.Unlock()
	return nil
}

// DefaultRules returns the configured default rules, or compliance.DefaultRules.
func (s *Store) DefaultRules() []domain.ComplianceRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.defaults == nil {
		return compliance.DefaultRules()
	}
	return append([]domain.ComplianceRule(nil), s.defaults...)
}

// Replace swaps the current snapshot. A nil rule set falls back to the default rules;
// the rule set is validated before anything is replaced.
func (s *Store) Replace(portfolio *domain.Portfolio, series *domain.ReturnSeries, rules []domain.ComplianceRule, source string) (Snapshot, error) {
	if portfolio == nil {
		return Snapshot{}, fmt.Errorf("%w: snapshot without portfolio", domain.ErrInvalidInput)
	}
	if rules == nil {
		rules = s.DefaultRules()
	}
	if err := compliance.ValidateRules(rules); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	s.version++
	snap := &Snapshot{
		Portfolio: portfolio,
		Series:    series,
		Rules:     append([]domain.ComplianceRule(nil), rules...),
		Source:    source,
		Version:   s.version,
		UpdatedAt: s.now(),
	}
	s.current = snap
	s.latest = nil
	s.mu.Unlock()

	observations := 0
	if series != nil {
		observations = series.Len()
	}
	s.log.Info().
		Int("positions", len(portfolio.Positions())).
		Int("observations", observations).
		Str("source", source).
		Msg("Snapshot replaced")

	if s.emitter != nil {
		s.emitter.Emit(eventModule, &events.SnapshotUpdatedData{
			Positions:    len(portfolio.Positions()),
			Observations: observations,
			Source:       source,
		})
	}
	return snap.copy(), nil
}

// Current returns the current snapshot or domain.ErrNotFound.
func (s *Store) Current() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Snapshot{}, fmt.Errorf("%w: no snapshot loaded", domain.ErrNotFound)
	}
	return s.current.copy(), nil
}

// SetEvaluation records an evaluation of snapshot version. Evaluations of a snapshot that
// has since been replaced are dropped and false is returned.
func (s *Store) SetEvaluation(eval *compliance.Evaluation, version uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.Version != version {
		return false
	}
	s.latest = eval
	s.latestAt = s.now()
	return true
}

// LatestEvaluation returns the most recent evaluation of the current snapshot.
func (s *Store) LatestEvaluation() (*compliance.Evaluation, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return nil, time.Time{}, fmt.Errorf("%w: no compliance evaluation yet", domain.ErrNotFound)
	}
	return s.latest, s.latestAt, nil
}

func (s *Snapshot) copy() Snapshot {
	out := *s
	out.Rules = append([]domain.ComplianceRule(nil), s.Rules...)
	return out
}
