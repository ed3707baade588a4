package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/platebook-backend/internal/domain"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

var (
	ErrFlowClosed       = errors.New("flow is closed")
	ErrStepUnknown      = errors.New("unknown step")
	ErrStepNotVisited   = errors.New("step not visited yet")
	ErrStepNotSkippable = errors.New("step cannot be skipped")
	ErrAlreadySubmitted = errors.New("flow already submitted")
)

// StepValidationError reports why the current step refused to advance.
type StepValidationError struct {
	Step   StepID
	Fields map[string]string
}

func (e *StepValidationError) Error() string {
	return "step " + string(e.Step) + " failed validation"
}

// GuidedFlow is one user's live submission session. All operations take
// the flow lock, so the session, editor and linker underneath never see
// concurrent mutation; the autosave goroutine goes through the same
// lock via flushIfDirty.
type GuidedFlow struct {
	ID     uuid.UUID
	UserID uuid.UUID

	log     *logger.Logger
	seq     *StepSequence
	store   DraftStore
	catalog CatalogService
	reviews ReviewService

	mu           sync.Mutex
	session      *Session
	editor       *DishEditor
	linker       *ReferenceLinker
	saver        *autosaver
	closed       bool
	lastActivity time.Time
}

func newGuidedFlow(baseLog *logger.Logger, seq *StepSequence, store DraftStore, catalog CatalogService, reviews ReviewService, session *Session, rows []DishEntry, interval time.Duration) *GuidedFlow {
	f := &GuidedFlow{
		ID:      uuid.New(),
		UserID:  session.UserID,
		seq:     seq,
		store:   store,
		catalog: catalog,
		reviews: reviews,
		session: session,
		editor:  NewDishEditor(session, rows),
		linker:  NewReferenceLinker(catalog),
	}
	f.log = baseLog.With("service", "GuidedFlow", "flow_id", f.ID)
	f.lastActivity = time.Now().UTC()
	f.saver = newAutosaver(interval, f.autosaveFlush)
	f.saver.Start()
	return f
}

// LastActivity reports when a client last drove the flow. Autosave ticks
// do not count; only operations that materialize a view do.
func (f *GuidedFlow) LastActivity() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastActivity
}

// StepView is one step's line in the progress rail.
type StepView struct {
	ID       StepID `json:"id"`
	Title    string `json:"title"`
	Required bool   `json:"required"`
	Current  bool   `json:"current"`
	Visited  bool   `json:"visited"`
}

// FlowView is the full client-facing snapshot of a flow. Summary is
// materialized only on the confirm step.
type FlowView struct {
	FlowID  uuid.UUID             `json:"flowId"`
	DraftID *uuid.UUID            `json:"draftId,omitempty"`
	Current StepID                `json:"current"`
	Steps   []StepView            `json:"steps"`
	Fields  map[StepID]StepFields `json:"fields"`
	Dishes  []DishEntry           `json:"dishes"`
	Dirty   bool                  `json:"dirty"`
	Summary *ReviewSummary        `json:"summary,omitempty"`
}

// ReviewSummary is the confirm step's read-back of everything entered.
type ReviewSummary struct {
	RestaurantName string      `json:"restaurantName"`
	VisitDate      string      `json:"visitDate"`
	EntryTime      string      `json:"entryTime,omitempty"`
	PartySize      int         `json:"partySize"`
	Location       string      `json:"location,omitempty"`
	Address        string      `json:"address,omitempty"`
	Rating         int         `json:"rating"`
	Notes          string      `json:"notes,omitempty"`
	Dishes         []DishEntry `json:"dishes"`
}

func (f *GuidedFlow) View() FlowView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

func (f *GuidedFlow) viewLocked() FlowView {
	f.lastActivity = time.Now().UTC()
	steps := make([]StepView, 0, len(f.seq.steps))
	for _, s := range f.seq.steps {
		steps = append(steps, StepView{
			ID:       s.ID,
			Title:    s.Title,
			Required: s.Required,
			Current:  s.ID == f.session.Current,
			Visited:  f.session.Visited[s.ID],
		})
	}
	fields := make(map[StepID]StepFields, len(f.session.Fields))
	for k, v := range f.session.Fields {
		fields[k] = v.Clone()
	}
	view := FlowView{
		FlowID:  f.ID,
		DraftID: f.session.DraftID,
		Current: f.session.Current,
		Steps:   steps,
		Fields:  fields,
		Dishes:  f.editor.Rows(),
		Dirty:   f.session.Dirty(),
	}
	if f.seq.IsTerminal(f.session.Current) {
		view.Summary = f.summaryLocked()
	}
	return view
}

func (f *GuidedFlow) summaryLocked() *ReviewSummary {
	basic := f.session.FieldsFor(StepBasicInfo)
	location := f.session.FieldsFor(StepLocation)
	rating := f.session.FieldsFor(StepRating)
	partySize, _ := basic.Int("partySize")
	overall, _ := rating.Int("overall")
	return &ReviewSummary{
		RestaurantName: basic.String("restaurantName"),
		VisitDate:      basic.String("visitDate"),
		EntryTime:      basic.String("entryTime"),
		PartySize:      partySize,
		Location:       joinLocation(location.String("city"), location.String("country")),
		Address:        location.String("address"),
		Rating:         overall,
		Notes:          rating.String("notes"),
		Dishes:         append([]DishEntry(nil), f.session.Dishes...),
	}
}

// PatchFields merges field edits into the current step.
func (f *GuidedFlow) PatchFields(patch StepFields) (FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}
	f.session.PatchFields(f.session.Current, patch)
	return f.viewLocked(), nil
}

// GoNext validates the current step and advances on success. Advancing
// off the last step is a no-op; Submit is the way out of confirm.
func (f *GuidedFlow) GoNext(ctx context.Context) (FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}

	step, _ := f.seq.Get(f.session.Current)
	errs := validateStep(step, f.session.FieldsFor(step.ID), f.session.Dishes, time.Now().UTC())
	if len(errs) > 0 {
		return f.viewLocked(), &StepValidationError{Step: step.ID, Fields: errs}
	}

	next, ok := f.seq.Next(step.ID)
	if ok {
		f.session.Current = next.ID
		f.session.Visited[next.ID] = true
		f.session.MarkEdited()
	}
	f.flushLocked(ctx)
	return f.viewLocked(), nil
}

// GoBack moves to the previous step without validating; edits on the
// abandoned step stay in the session.
func (f *GuidedFlow) GoBack(ctx context.Context) (FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}
	if prev, ok := f.seq.Prev(f.session.Current); ok {
		f.session.Current = prev.ID
		f.session.MarkEdited()
		f.flushLocked(ctx)
	}
	return f.viewLocked(), nil
}

// Skip advances past the current step without validation. Only optional
// steps may be skipped.
func (f *GuidedFlow) Skip(ctx context.Context) (FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}
	step, _ := f.seq.Get(f.session.Current)
	if step.Required {
		return f.viewLocked(), ErrStepNotSkippable
	}
	if next, ok := f.seq.Next(step.ID); ok {
		f.session.Current = next.ID
		f.session.Visited[next.ID] = true
		f.session.MarkEdited()
		f.flushLocked(ctx)
	}
	return f.viewLocked(), nil
}

// GoToStep jumps directly to an already-visited step, the non-linear
// path the progress rail offers. Unvisited steps stay gated behind
// GoNext's validation.
func (f *GuidedFlow) GoToStep(ctx context.Context, target StepID) (FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}
	if _, ok := f.seq.Get(target); !ok {
		return f.viewLocked(), ErrStepUnknown
	}
	if !f.session.Visited[target] {
		return f.viewLocked(), ErrStepNotVisited
	}
	if f.session.Current != target {
		f.session.Current = target
		f.session.MarkEdited()
		f.flushLocked(ctx)
	}
	return f.viewLocked(), nil
}

func (f *GuidedFlow) AddDish() (DishEntry, FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return DishEntry{}, FlowView{}, ErrFlowClosed
	}
	d := f.editor.Add()
	return d, f.viewLocked(), nil
}

func (f *GuidedFlow) UpdateDish(localID uuid.UUID, name string, rating int, notes string) (FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}
	if err := f.editor.Update(localID, name, rating, notes); err != nil {
		return f.viewLocked(), err
	}
	return f.viewLocked(), nil
}

// RemoveDish deletes a row; rows with content require confirmed, and the
// caller surfaces ErrRemovalNeedsConfirm as a confirmation prompt.
func (f *GuidedFlow) RemoveDish(localID uuid.UUID, confirmed bool) (FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}
	if err := f.editor.Remove(localID, confirmed); err != nil {
		return f.viewLocked(), err
	}
	return f.viewLocked(), nil
}

func (f *GuidedFlow) MoveDish(localID uuid.UUID, up bool) (FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}
	var err error
	if up {
		err = f.editor.MoveUp(localID)
	} else {
		err = f.editor.MoveDown(localID)
	}
	if err != nil {
		return f.viewLocked(), err
	}
	return f.viewLocked(), nil
}

// SearchCatalog runs the linker sub-flow's query. It holds no flow state,
// so it deliberately does not take the flow lock; superseded results come
// back as ErrSearchSuperseded.
func (f *GuidedFlow) SearchCatalog(ctx context.Context, query string) ([]SearchResult, error) {
	return f.linker.Search(ctx, query)
}

// LinkDish attaches the chosen catalog entry to the dish, replacing any
// existing link.
func (f *GuidedFlow) LinkDish(ctx context.Context, localID, entryID uuid.UUID) (FlowView, error) {
	ref, err := f.catalog.GetRef(ctx, entryID)
	if err != nil {
		return f.View(), err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}
	if err := f.editor.SetReference(localID, ref); err != nil {
		return f.viewLocked(), err
	}
	return f.viewLocked(), nil
}

// CreateAndLinkStub mints a placeholder catalog entry for an unknown dish
// and links it in one motion. parentID optionally files the stub under an
// existing entry.
func (f *GuidedFlow) CreateAndLinkStub(ctx context.Context, localID uuid.UUID, name string, parentID *uuid.UUID) (FlowView, error) {
	entry, err := f.catalog.CreateStub(ctx, name, parentID, f.UserID)
	if err != nil {
		return f.View(), err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}
	ref := CatalogRef{EntryID: entry.ID, Name: entry.Name, IsPlaceholder: true}
	if err := f.editor.SetReference(localID, ref); err != nil {
		return f.viewLocked(), err
	}
	return f.viewLocked(), nil
}

func (f *GuidedFlow) UnlinkDish(localID uuid.UUID) (FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}
	if err := f.editor.ClearReference(localID); err != nil {
		return f.viewLocked(), err
	}
	return f.viewLocked(), nil
}

func (f *GuidedFlow) AttachImage(localID uuid.UUID, img ImageRef) (FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}
	if err := f.editor.SetImage(localID, img); err != nil {
		return f.viewLocked(), err
	}
	return f.viewLocked(), nil
}

// Save forces an immediate draft flush, the explicit save button path.
func (f *GuidedFlow) Save(ctx context.Context) (FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowView{}, ErrFlowClosed
	}
	f.flushLocked(ctx)
	return f.viewLocked(), nil
}

// Submit runs full validation and persists the review. On validation
// failure the flow jumps to the earliest failing step and returns the
// field errors; on success the flow closes.
func (f *GuidedFlow) Submit(ctx context.Context) (*domain.Review, FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, FlowView{}, ErrFlowClosed
	}

	review, err := f.reviews.CreateFromDraft(ctx, f.session, f.seq)
	if err != nil {
		var subErr *SubmissionError
		if errors.As(err, &subErr) {
			back := subErr.FirstStep(f.seq)
			if f.session.Current != back {
				f.session.Current = back
				f.session.Visited[back] = true
			}
			return nil, f.viewLocked(), subErr
		}
		return nil, f.viewLocked(), err
	}

	f.closed = true
	f.saver.Stop()
	f.log.Info("flow submitted", "review_id", review.ID)
	return review, f.viewLocked(), nil
}

// Close ends the flow. With discard the backing draft is deleted;
// otherwise any unsaved edits flush first so the draft can be resumed.
func (f *GuidedFlow) Close(ctx context.Context, discard bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.saver.Stop()

	if discard {
		if f.session.DraftID != nil {
			if err := f.store.Discard(ctx, *f.session.DraftID, f.UserID); err != nil {
				return err
			}
		}
		return nil
	}
	f.flushLocked(ctx)
	return nil
}

// autosaveFlush is the ticker callback. It uses its own deadline because
// no request context exists on the autosave path.
func (f *GuidedFlow) autosaveFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || !f.session.Dirty() {
		return
	}
	f.flushLocked(ctx)
}

// flushLocked persists the session snapshot if dirty. Callers hold the
// flow lock. The save completes only the sequence it captured, so a
// failed or partial save leaves the session dirty and the next tick
// retries.
func (f *GuidedFlow) flushLocked(ctx context.Context) {
	if !f.session.Dirty() {
		return
	}
	seq := f.session.BeginSave()
	data, err := f.session.EncodeDraft()
	if err != nil {
		f.log.Error("encode draft failed", "error", err)
		return
	}
	draftID, err := f.store.Save(ctx, f.session.DraftID, f.UserID, f.session.Current, data)
	if err != nil {
		f.log.Warn("draft save failed", "error", err)
		return
	}
	f.session.DraftID = &draftID
	f.session.CompleteSave(seq)
}
