package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

var (
	ErrFlowNotFound = errors.New("flow not found")
	ErrDraftGone    = errors.New("draft no longer available")
)

// DefaultFlowIdleTimeout is how long an abandoned flow stays registered
// before the sweep closes it. Its draft survives, so the next open
// offers a resume prompt.
const DefaultFlowIdleTimeout = time.Hour

// FlowService owns the live flow registry: it opens, resumes, looks up
// and closes flows, and is the only place flows are created. Lookups are
// scoped to the owning user, so one user can never drive another's flow.
type FlowService struct {
	log      *logger.Logger
	seq      *StepSequence
	store    DraftStore
	catalog  CatalogService
	reviews  ReviewService
	interval time.Duration

	mu    sync.Mutex
	flows map[uuid.UUID]*GuidedFlow
}

func NewFlowService(baseLog *logger.Logger, seq *StepSequence, store DraftStore, catalog CatalogService, reviews ReviewService, autosaveInterval time.Duration) *FlowService {
	return &FlowService{
		log:      baseLog.With("service", "FlowService"),
		seq:      seq,
		store:    store,
		catalog:  catalog,
		reviews:  reviews,
		interval: autosaveInterval,
		flows:    map[uuid.UUID]*GuidedFlow{},
	}
}

// OpenResult is either a fresh flow or a resume prompt, never both.
type OpenResult struct {
	Flow   *GuidedFlow
	Prompt *ResumePrompt
}

// Open starts a submission session. When the user has a live draft the
// call returns a prompt instead of a flow; the client answers through
// Resume. Only a missing draft starts fresh immediately.
func (s *FlowService) Open(ctx context.Context, userID uuid.UUID) (*OpenResult, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("open flow: missing user")
	}
	draft, err := s.store.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if draft != nil && !draft.IsExpired(now) {
		return &OpenResult{Prompt: &ResumePrompt{
			DraftID:    draft.ID,
			Step:       StepID(draft.Step),
			AgeDisplay: draft.AgeDisplay(now),
			UpdatedAt:  draft.UpdatedAt,
		}}, nil
	}
	flow := s.register(NewSession(userID, s.seq.First().ID), nil)
	return &OpenResult{Flow: flow}, nil
}

// Resume answers an open prompt. Accepting rebuilds the session from the
// draft; declining discards the draft and starts fresh. A draft that
// expired or vanished between prompt and answer resumes as fresh with
// ErrDraftGone so the client can tell the user.
func (s *FlowService) Resume(ctx context.Context, userID, draftID uuid.UUID, accept bool) (*GuidedFlow, error) {
	if !accept {
		if err := s.store.Discard(ctx, draftID, userID); err != nil {
			return nil, err
		}
		return s.register(NewSession(userID, s.seq.First().ID), nil), nil
	}

	draft, err := s.store.Get(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	if draft == nil || draft.IsExpired(time.Now().UTC()) {
		return s.register(NewSession(userID, s.seq.First().ID), nil), ErrDraftGone
	}

	session, rows, err := DecodeDraft(userID, draft, s.seq)
	if err != nil {
		return nil, err
	}
	return s.register(session, rows), nil
}

func (s *FlowService) register(session *Session, rows []DishEntry) *GuidedFlow {
	flow := newGuidedFlow(s.log, s.seq, s.store, s.catalog, s.reviews, session, rows, s.interval)
	s.mu.Lock()
	s.flows[flow.ID] = flow
	s.mu.Unlock()
	s.log.Info("flow opened", "flow_id", flow.ID, "resumed", len(rows) > 0 || session.DraftID != nil)
	return flow
}

// Get returns the flow only to its owner.
func (s *FlowService) Get(flowID, userID uuid.UUID) (*GuidedFlow, error) {
	s.mu.Lock()
	flow, ok := s.flows[flowID]
	s.mu.Unlock()
	if !ok || flow.UserID != userID {
		return nil, ErrFlowNotFound
	}
	return flow, nil
}

// Close ends a flow and drops it from the registry.
func (s *FlowService) Close(ctx context.Context, flowID, userID uuid.UUID, discard bool) error {
	flow, err := s.Get(flowID, userID)
	if err != nil {
		return err
	}
	if err := flow.Close(ctx, discard); err != nil {
		return err
	}
	s.Remove(flowID)
	return nil
}

// Remove drops a flow from the registry without touching its state; the
// submit handler calls it after a successful Submit already closed the
// flow.
func (s *FlowService) Remove(flowID uuid.UUID) {
	s.mu.Lock()
	delete(s.flows, flowID)
	s.mu.Unlock()
}

// ReapIdle closes and drops flows with no client activity for idleFor or
// longer, stopping their autosave goroutines. Each reaped flow flushes
// its draft on the way out, so an abandoned session is resumable.
func (s *FlowService) ReapIdle(ctx context.Context, idleFor time.Duration) int {
	cutoff := time.Now().UTC().Add(-idleFor)
	s.mu.Lock()
	var stale []*GuidedFlow
	for id, flow := range s.flows {
		if flow.LastActivity().Before(cutoff) {
			stale = append(stale, flow)
			delete(s.flows, id)
		}
	}
	s.mu.Unlock()

	for _, flow := range stale {
		if err := flow.Close(ctx, false); err != nil {
			s.log.Warn("closing idle flow", "flow_id", flow.ID, "error", err)
		}
	}
	if len(stale) > 0 {
		s.log.Info("reaped idle flows", "count", len(stale))
	}
	return len(stale)
}

// Steps exposes the configured sequence for the handlers layer.
func (s *FlowService) Steps() []Step { return s.seq.Steps() }

// Sequence exposes the step sequence for error-to-step mapping.
func (s *FlowService) Sequence() *StepSequence { return s.seq }
