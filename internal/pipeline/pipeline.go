// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives graph assembly as a phase state machine:
//
//	idle → loading → enriching → active → extending → active → …
//
// with a terminal error state reachable from any phase on a fatal
// failure. Phases run strictly sequentially against the session's graph
// state; concurrency exists only inside a phase's network fan-out. Soft
// phases catch their errors and continue with partial data; only fatal
// HTTP failures (or retry exhaustion) abort the session.
//
// See docs/ARCHITECTURE § Enrichment Pipeline.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/citegraph/internal/graph"
	"github.com/pdiddy/citegraph/internal/httputil"
	"github.com/pdiddy/citegraph/internal/openalex"
	"github.com/pdiddy/citegraph/internal/reconcile"
	"github.com/pdiddy/citegraph/internal/semanticscholar"
	"github.com/pdiddy/citegraph/internal/stream"
	"github.com/pdiddy/citegraph/pkg/types"
)

// Phase names the orchestrator states.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseEnriching Phase = "enriching"
	PhaseActive    Phase = "active"
	PhaseExtending Phase = "extending"
	PhaseError     Phase = "error"
)

// OpenAlexClient is the slice of the OpenAlex adapter the pipeline uses.
type OpenAlexClient interface {
	SearchByTitle(ctx context.Context, query string) ([]openalex.Work, error)
	FetchWork(ctx context.Context, id string) (*openalex.Work, error)
	FetchCitingWorks(ctx context.Context, ids []string) ([]openalex.Work, error)
	FetchWorksBatch(ctx context.Context, ids []string, fs openalex.FieldSet) ([]openalex.Work, error)
	FetchWorksByDOI(ctx context.Context, dois []string, fs openalex.FieldSet) ([]openalex.Work, error)
}

// SemanticClient is the slice of the Semantic Scholar adapter the
// pipeline uses.
type SemanticClient interface {
	FetchByDOI(ctx context.Context, doi string) (*semanticscholar.Neighborhood, error)
}

// Seed identifies the master paper: either a direct identifier (bare DOI
// or OpenAlex work id) or a title to search for.
type Seed struct {
	Identifier string
	Title      string
}

// Session owns one analysis: the graph state, the adapters, and the
// consumer stream. A session is single-threaded with respect to its own
// state; callers run Run and Extend from one goroutine.
type Session struct {
	cfg     types.SessionConfig
	oa      OpenAlexClient
	s2      SemanticClient
	st      *graph.State
	emitter *stream.Emitter
	log     *zap.Logger

	phase Phase

	// firstDegree maps bare OpenAlex work ids of first-degree papers to
	// their internal uids, kept for second-degree confirmation.
	firstDegree map[string]string
}

// NewSession builds an idle session and emits the initial reset so
// consumers start folding from a clean slate.
func NewSession(cfg types.SessionConfig, oa OpenAlexClient, s2 SemanticClient, log *zap.Logger) *Session {
	cfg.Defaults()
	emitter := stream.NewEmitter(cfg.Graph.FlushInterval)
	s := &Session{
		cfg:         cfg,
		oa:          oa,
		s2:          s2,
		emitter:     emitter,
		log:         log,
		phase:       PhaseIdle,
		firstDegree: make(map[string]string),
	}
	s.st = graph.NewState(cfg.Graph.StubCreationThreshold, emitter)
	emitter.Emit(stream.Event{Type: stream.EventReset})
	return s
}

// Events returns the consumer batch stream.
func (s *Session) Events() <-chan []stream.Event { return s.emitter.Events() }

// Phase returns the current orchestrator phase.
func (s *Session) Phase() Phase { return s.phase }

// State exposes the session graph. Callers must not mutate it while a
// phase is running.
func (s *Session) State() *graph.State { return s.st }

// Snapshot freezes the current graph for export.
func (s *Session) Snapshot() *graph.Snapshot { return s.st.Snapshot() }

// Close flushes and closes the consumer stream.
func (s *Session) Close() { s.emitter.Close() }

// Reset discards all session data and returns to idle. In-flight results
// from an aborted run are lost by design.
func (s *Session) Reset() {
	s.st = graph.NewState(s.cfg.Graph.StubCreationThreshold, s.emitter)
	s.firstDegree = make(map[string]string)
	s.phase = PhaseIdle
	s.emitter.Emit(stream.Event{Type: stream.EventReset})
}

// Run executes the loading and enriching phases for a seed and leaves the
// session active. On a fatal failure the session lands in the error phase
// and whatever partial graph exists is retained for inspection.
func (s *Session) Run(ctx context.Context, seed Seed) error {
	if s.phase != PhaseIdle {
		return fmt.Errorf("session already started (phase %s)", s.phase)
	}

	s.transition(PhaseLoading)

	if err := s.seedMaster(ctx, seed); err != nil {
		return s.fail(err)
	}

	refCounts, relCounts, err := s.firstDegreePhase(ctx)
	if err != nil {
		return s.fail(err)
	}

	if err := s.soft(ctx, "stub_promotion", func() error {
		return s.stubPromotionPhase(ctx, refCounts, relCounts)
	}); err != nil {
		return s.fail(err)
	}

	if err := s.soft(ctx, "cross_provider", func() error {
		return s.crossProviderPhase(ctx)
	}); err != nil {
		return s.fail(err)
	}

	s.transition(PhaseEnriching)

	if err := s.soft(ctx, "master_hydration", func() error {
		return s.hydrateMasterPhase(ctx)
	}); err != nil {
		return s.fail(err)
	}

	if err := s.soft(ctx, "author_reconciliation", func() error {
		_, err := reconcile.Run(ctx, s.st, s.oa, s.log)
		return err
	}); err != nil {
		return s.fail(err)
	}

	s.transition(PhaseActive)
	s.emitter.Emit(stream.Event{Type: stream.EventDone, Phase: string(PhaseActive)})
	return nil
}

// Extend runs the on-demand second-degree expansion followed by stub
// hydration. It is re-entrant: each call expands against the then-current
// graph and returns the session to active.
func (s *Session) Extend(ctx context.Context) error {
	if s.phase != PhaseActive {
		return fmt.Errorf("extend requires an active session (phase %s)", s.phase)
	}

	s.transition(PhaseExtending)

	if err := s.soft(ctx, "second_degree", func() error {
		return s.secondDegreePhase(ctx)
	}); err != nil {
		return s.fail(err)
	}

	if err := s.soft(ctx, "stub_hydration", func() error {
		return s.stubHydrationPhase(ctx)
	}); err != nil {
		return s.fail(err)
	}

	s.transition(PhaseActive)
	s.emitter.Emit(stream.Event{Type: stream.EventDone, Phase: string(PhaseActive)})
	return nil
}

// transition moves to a phase and notifies the consumer immediately.
func (s *Session) transition(phase Phase) {
	s.phase = phase
	s.log.Info("phase transition", zap.String("phase", string(phase)))
	s.emitter.Emit(stream.Event{Type: stream.EventStatus, Phase: string(phase)})
}

// fail lands the session in the terminal error phase.
func (s *Session) fail(err error) error {
	s.phase = PhaseError
	s.log.Error("session failed", zap.Error(err))
	s.emitter.Emit(stream.Event{
		Type:    stream.EventFatalError,
		Phase:   string(PhaseError),
		Message: err.Error(),
	})
	return err
}

// soft runs a non-critical phase: its errors are logged and swallowed so
// the pipeline proceeds with partial data, except fatal HTTP failures and
// context cancellation, which propagate.
func (s *Session) soft(ctx context.Context, name string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if errors.Is(err, httputil.ErrFatalStatus) || ctx.Err() != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	s.log.Warn("phase degraded, continuing with partial data",
		zap.String("phase", name), zap.Error(err))
	return nil
}

// progress emits a coalesced progress delta.
func (s *Session) progress(phase string, current, total int) {
	s.emitter.Emit(stream.Event{
		Type:    stream.EventProgress,
		Phase:   phase,
		Current: current,
		Total:   total,
	})
}
