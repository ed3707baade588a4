package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/platebook-backend/internal/data/repos"
	"github.com/yungbote/platebook-backend/internal/data/repos/testutil"
	"github.com/yungbote/platebook-backend/internal/domain"
	"github.com/yungbote/platebook-backend/internal/platform/dbctx"
)

func seedEntry(name string, createdBy uuid.UUID) *domain.CatalogEntry {
	// Unique slug suffix keeps repeated runs on the shared test DB apart.
	return &domain.CatalogEntry{
		Name:      name,
		Slug:      slugify(name) + "-" + uuid.NewString()[:8],
		CreatedBy: createdBy,
	}
}

type flowHarness struct {
	svc     *FlowService
	store   DraftStore
	catalog repos.CatalogEntryRepo
	reviews repos.ReviewRepo
}

func newFlowHarness(t *testing.T) *flowHarness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	catalogRepo := repos.NewCatalogEntryRepo(db, log)
	reviewRepo := repos.NewReviewRepo(db, log)
	store := NewDraftSyncService(log, repos.NewReviewDraftRepo(db, log), nil)
	catalog := NewCatalogService(log, db, catalogRepo)
	reviews := NewReviewService(log, db, reviewRepo, catalogRepo, store)

	// Autosave cadence is hour-scale so ticks never interleave with
	// test assertions; flush behavior is driven explicitly.
	return &flowHarness{
		svc:     NewFlowService(log, DefaultStepSequence(), store, catalog, reviews, time.Hour),
		store:   store,
		catalog: catalogRepo,
		reviews: reviewRepo,
	}
}

func openFresh(t *testing.T, h *flowHarness, userID uuid.UUID) *GuidedFlow {
	t.Helper()
	res, err := h.svc.Open(context.Background(), userID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if res.Flow == nil {
		t.Fatalf("Open: expected a fresh flow, got prompt %+v", res.Prompt)
	}
	return res.Flow
}

func yesterday() string {
	return time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
}

func TestFlowHappyPath(t *testing.T) {
	h := newFlowHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	flow := openFresh(t, h, userID)

	if _, err := flow.PatchFields(StepFields{
		"restaurantName": "Le Jardin",
		"visitDate":      yesterday(),
		"entryTime":      "19:30",
		"partySize":      2,
	}); err != nil {
		t.Fatalf("PatchFields: %v", err)
	}

	view, err := flow.GoNext(ctx)
	if err != nil {
		t.Fatalf("GoNext (basic-info): %v", err)
	}
	if view.Current != StepLocation {
		t.Fatalf("expected location, got %s", view.Current)
	}

	view, err = flow.Skip(ctx)
	if err != nil {
		t.Fatalf("Skip (location): %v", err)
	}
	if view.Current != StepRating {
		t.Fatalf("expected rating, got %s", view.Current)
	}

	if _, err := flow.PatchFields(StepFields{"overall": 80, "notes": "lovely terrace"}); err != nil {
		t.Fatalf("PatchFields (rating): %v", err)
	}
	if view, err = flow.GoNext(ctx); err != nil || view.Current != StepDishes {
		t.Fatalf("GoNext (rating): %v, step %s", err, view.Current)
	}

	dish, _, err := flow.AddDish()
	if err != nil {
		t.Fatalf("AddDish: %v", err)
	}
	if _, err := flow.UpdateDish(dish.LocalID, "Tarte Tatin", 80, ""); err != nil {
		t.Fatalf("UpdateDish: %v", err)
	}

	if view, err = flow.GoNext(ctx); err != nil || view.Current != StepConfirm {
		t.Fatalf("GoNext (dishes): %v, step %s", err, view.Current)
	}
	if view.Summary == nil {
		t.Fatalf("confirm step must materialize a summary")
	}
	if view.Summary.RestaurantName != "Le Jardin" || view.Summary.Rating != 80 || len(view.Summary.Dishes) != 1 {
		t.Fatalf("summary contents: %+v", view.Summary)
	}

	review, _, err := flow.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if review.RestaurantName != "Le Jardin" || review.Rating != 80 || review.PartySize != 2 {
		t.Fatalf("unexpected review: %+v", review)
	}

	stored, err := h.reviews.GetByID(dbctx.Context{Ctx: ctx}, review.ID)
	if err != nil || stored == nil {
		t.Fatalf("stored review: %v %v", stored, err)
	}
	if len(stored.Dishes) != 1 || stored.Dishes[0].DishName != "Tarte Tatin" || stored.Dishes[0].DishRating != 80 {
		t.Fatalf("stored dishes: %+v", stored.Dishes)
	}

	// The draft is spent and the flow is closed.
	if latest, err := h.store.Latest(ctx, userID); err != nil || latest != nil {
		t.Fatalf("expected draft discarded after submit, got %v %v", latest, err)
	}
	if _, err := flow.PatchFields(StepFields{"restaurantName": "x"}); !errors.Is(err, ErrFlowClosed) {
		t.Fatalf("expected ErrFlowClosed after submit, got %v", err)
	}
}

func TestFlowFutureDateBlocksAdvance(t *testing.T) {
	h := newFlowHarness(t)
	ctx := context.Background()
	flow := openFresh(t, h, uuid.New())

	future := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
	if _, err := flow.PatchFields(StepFields{
		"restaurantName": "Le Jardin",
		"visitDate":      future,
		"partySize":      2,
	}); err != nil {
		t.Fatalf("PatchFields: %v", err)
	}

	view, err := flow.GoNext(ctx)
	var stepErr *StepValidationError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepValidationError, got %v", err)
	}
	if stepErr.Step != StepBasicInfo || stepErr.Fields["visit_date"] == "" {
		t.Fatalf("unexpected validation error: %+v", stepErr)
	}
	if view.Current != StepBasicInfo {
		t.Fatalf("refused advance must stay on basic-info, got %s", view.Current)
	}

	// Correcting the date unblocks the step.
	if _, err := flow.PatchFields(StepFields{"visitDate": yesterday()}); err != nil {
		t.Fatalf("PatchFields (fix): %v", err)
	}
	if view, err = flow.GoNext(ctx); err != nil || view.Current != StepLocation {
		t.Fatalf("GoNext after fix: %v, step %s", err, view.Current)
	}
}

func TestFlowSkipOnlyOptionalSteps(t *testing.T) {
	h := newFlowHarness(t)
	flow := openFresh(t, h, uuid.New())

	if _, err := flow.Skip(context.Background()); !errors.Is(err, ErrStepNotSkippable) {
		t.Fatalf("required step must refuse skip, got %v", err)
	}
}

func TestFlowGoToStepRequiresVisit(t *testing.T) {
	h := newFlowHarness(t)
	ctx := context.Background()
	flow := openFresh(t, h, uuid.New())

	if _, err := flow.GoToStep(ctx, StepRating); !errors.Is(err, ErrStepNotVisited) {
		t.Fatalf("expected ErrStepNotVisited, got %v", err)
	}
	if _, err := flow.GoToStep(ctx, "no-such-step"); !errors.Is(err, ErrStepUnknown) {
		t.Fatalf("expected ErrStepUnknown, got %v", err)
	}

	if _, err := flow.PatchFields(StepFields{
		"restaurantName": "Le Jardin",
		"visitDate":      yesterday(),
		"partySize":      2,
	}); err != nil {
		t.Fatalf("PatchFields: %v", err)
	}
	if _, err := flow.GoNext(ctx); err != nil {
		t.Fatalf("GoNext: %v", err)
	}

	// Both steps are visited now; jumping back and forth is free.
	view, err := flow.GoToStep(ctx, StepBasicInfo)
	if err != nil || view.Current != StepBasicInfo {
		t.Fatalf("GoToStep back: %v, step %s", err, view.Current)
	}
	view, err = flow.GoToStep(ctx, StepLocation)
	if err != nil || view.Current != StepLocation {
		t.Fatalf("GoToStep forward: %v, step %s", err, view.Current)
	}
}

func TestFlowSaveMintsOneDraft(t *testing.T) {
	h := newFlowHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	flow := openFresh(t, h, userID)

	if _, err := flow.PatchFields(StepFields{"restaurantName": "Le Jardin"}); err != nil {
		t.Fatalf("PatchFields: %v", err)
	}
	view, err := flow.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if view.DraftID == nil {
		t.Fatalf("first save must mint a draft ID")
	}
	if view.Dirty {
		t.Fatalf("saved flow must report clean")
	}
	first := *view.DraftID

	if _, err := flow.PatchFields(StepFields{"partySize": 4}); err != nil {
		t.Fatalf("PatchFields: %v", err)
	}
	if view, err = flow.Save(ctx); err != nil {
		t.Fatalf("Save (second): %v", err)
	}
	if view.DraftID == nil || *view.DraftID != first {
		t.Fatalf("second save must reuse the draft ID: %v vs %v", view.DraftID, first)
	}

	// A clean save is a no-op.
	if _, err := flow.Save(ctx); err != nil {
		t.Fatalf("Save (clean): %v", err)
	}
}

func TestFlowResumeAccept(t *testing.T) {
	h := newFlowHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	flow := openFresh(t, h, userID)

	if _, err := flow.PatchFields(StepFields{
		"restaurantName": "Le Jardin",
		"visitDate":      yesterday(),
		"partySize":      2,
	}); err != nil {
		t.Fatalf("PatchFields: %v", err)
	}
	if _, err := flow.GoNext(ctx); err != nil {
		t.Fatalf("GoNext: %v", err)
	}
	dish, _, err := flow.AddDish()
	if err != nil {
		t.Fatalf("AddDish: %v", err)
	}
	if _, err := flow.UpdateDish(dish.LocalID, "Tarte Tatin", 80, ""); err != nil {
		t.Fatalf("UpdateDish: %v", err)
	}
	if err := h.svc.Close(ctx, flow.ID, userID, false); err != nil {
		t.Fatalf("Close: %v", err)
	}

	res, err := h.svc.Open(ctx, userID)
	if err != nil {
		t.Fatalf("Open (again): %v", err)
	}
	if res.Prompt == nil {
		t.Fatalf("expected resume prompt")
	}
	if res.Prompt.Step != StepLocation {
		t.Fatalf("prompt step: expected location, got %s", res.Prompt.Step)
	}
	if res.Prompt.AgeDisplay != "Just now" {
		t.Fatalf("prompt age: expected Just now, got %q", res.Prompt.AgeDisplay)
	}

	resumed, err := h.svc.Resume(ctx, userID, res.Prompt.DraftID, true)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	view := resumed.View()
	if view.Current != StepLocation {
		t.Fatalf("resumed step: expected location, got %s", view.Current)
	}
	if view.Fields[StepBasicInfo].String("restaurantName") != "Le Jardin" {
		t.Fatalf("resumed fields lost: %+v", view.Fields)
	}
	if len(view.Dishes) != 1 || view.Dishes[0].Name != "Tarte Tatin" {
		t.Fatalf("resumed dishes lost: %+v", view.Dishes)
	}
	if view.Dirty {
		t.Fatalf("resumed flow must start clean")
	}
}

func TestFlowResumeDeclineDiscards(t *testing.T) {
	h := newFlowHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	flow := openFresh(t, h, userID)

	if _, err := flow.PatchFields(StepFields{"restaurantName": "Le Jardin"}); err != nil {
		t.Fatalf("PatchFields: %v", err)
	}
	if err := h.svc.Close(ctx, flow.ID, userID, false); err != nil {
		t.Fatalf("Close: %v", err)
	}

	res, err := h.svc.Open(ctx, userID)
	if err != nil || res.Prompt == nil {
		t.Fatalf("Open: %v, prompt %v", err, res.Prompt)
	}

	fresh, err := h.svc.Resume(ctx, userID, res.Prompt.DraftID, false)
	if err != nil {
		t.Fatalf("Resume (decline): %v", err)
	}
	view := fresh.View()
	if view.Current != StepBasicInfo || len(view.Fields) != 0 {
		t.Fatalf("declined resume must start fresh: %+v", view)
	}
	if latest, err := h.store.Latest(ctx, userID); err != nil || latest != nil {
		t.Fatalf("declined draft must be discarded, got %v %v", latest, err)
	}
}

func TestFlowResumeGoneDraftStartsFresh(t *testing.T) {
	h := newFlowHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	flow, err := h.svc.Resume(ctx, userID, uuid.New(), true)
	if !errors.Is(err, ErrDraftGone) {
		t.Fatalf("expected ErrDraftGone, got %v", err)
	}
	if flow == nil || flow.View().Current != StepBasicInfo {
		t.Fatalf("gone draft must still yield a fresh flow")
	}
}

func TestSubmitJumpsToFirstFailingStep(t *testing.T) {
	h := newFlowHarness(t)
	ctx := context.Background()
	flow := openFresh(t, h, uuid.New())

	// Valid basic info, a named dish, but no rating.
	if _, err := flow.PatchFields(StepFields{
		"restaurantName": "Le Jardin",
		"visitDate":      yesterday(),
		"partySize":      2,
	}); err != nil {
		t.Fatalf("PatchFields: %v", err)
	}
	dish, _, err := flow.AddDish()
	if err != nil {
		t.Fatalf("AddDish: %v", err)
	}
	if _, err := flow.UpdateDish(dish.LocalID, "Tarte Tatin", 0, ""); err != nil {
		t.Fatalf("UpdateDish: %v", err)
	}

	_, view, err := flow.Submit(ctx)
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if subErr.Fields["rating"] == "" {
		t.Fatalf("expected rating error, got %v", subErr.Fields)
	}
	byStep := subErr.ByStep()
	if _, ok := byStep[StepRating]["rating"]; !ok {
		t.Fatalf("rating error must map to the rating step: %v", byStep)
	}
	if view.Current != StepRating {
		t.Fatalf("failed submit must jump to the rating step, got %s", view.Current)
	}

	// Fix and resubmit from where the flow landed.
	if _, err := flow.PatchFields(StepFields{"overall": 80}); err != nil {
		t.Fatalf("PatchFields (rating): %v", err)
	}
	review, _, err := flow.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit (retry): %v", err)
	}
	if review.Rating != 80 {
		t.Fatalf("expected rating 80, got %d", review.Rating)
	}
}

func TestFlowLinkDishAndStub(t *testing.T) {
	h := newFlowHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	flow := openFresh(t, h, userID)

	entry, err := h.catalog.Create(dbctx.Context{Ctx: ctx}, seedEntry("Tarte Tatin Classique", userID))
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	dish, _, err := flow.AddDish()
	if err != nil {
		t.Fatalf("AddDish: %v", err)
	}
	if _, err := flow.UpdateDish(dish.LocalID, "Tarte Tatin", 80, ""); err != nil {
		t.Fatalf("UpdateDish: %v", err)
	}

	view, err := flow.LinkDish(ctx, dish.LocalID, entry.ID)
	if err != nil {
		t.Fatalf("LinkDish: %v", err)
	}
	if view.Dishes[0].Ref == nil || view.Dishes[0].Ref.EntryID != entry.ID {
		t.Fatalf("link missing: %+v", view.Dishes[0].Ref)
	}

	// Creating a stub replaces the existing link in one motion; the stub
	// files under the seeded entry.
	view, err = flow.CreateAndLinkStub(ctx, dish.LocalID, "Tarte Renversee Maison", &entry.ID)
	if err != nil {
		t.Fatalf("CreateAndLinkStub: %v", err)
	}
	ref := view.Dishes[0].Ref
	if ref == nil || ref.EntryID == entry.ID || !ref.IsPlaceholder {
		t.Fatalf("stub link must replace the old one: %+v", ref)
	}

	stub, err := h.catalog.GetByID(dbctx.Context{Ctx: ctx}, ref.EntryID)
	if err != nil || stub == nil {
		t.Fatalf("stub entry: %v %v", stub, err)
	}
	if !stub.IsPlaceholder || stub.Slug == "" {
		t.Fatalf("stub shape: %+v", stub)
	}
	if stub.ParentID == nil || *stub.ParentID != entry.ID {
		t.Fatalf("stub parent: %+v", stub.ParentID)
	}

	if view, err = flow.UnlinkDish(dish.LocalID); err != nil || view.Dishes[0].Ref != nil {
		t.Fatalf("UnlinkDish: %v, ref %+v", err, view.Dishes[0].Ref)
	}
}

func TestFlowOwnershipScoping(t *testing.T) {
	h := newFlowHarness(t)
	flow := openFresh(t, h, uuid.New())

	if _, err := h.svc.Get(flow.ID, uuid.New()); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("other users must not see the flow, got %v", err)
	}
	if _, err := h.svc.Get(flow.ID, flow.UserID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
}

func TestSubmitRejectsOutOfRangeDishRating(t *testing.T) {
	h := newFlowHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	// The editor refuses out-of-range ratings, so the only way one gets
	// in front of submit is a persisted draft that predates the bound.
	s := NewSession(userID, StepBasicInfo)
	s.PatchFields(StepBasicInfo, StepFields{
		"restaurantName": "Le Jardin",
		"visitDate":      yesterday(),
		"partySize":      2,
	})
	s.PatchFields(StepRating, StepFields{"overall": 80})
	s.Dishes = []DishEntry{{LocalID: uuid.New(), Name: "Tarte Tatin", Rating: 5000}}
	data, err := s.EncodeDraft()
	if err != nil {
		t.Fatalf("EncodeDraft: %v", err)
	}
	draftID, err := h.store.Save(ctx, nil, userID, StepBasicInfo, data)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	flow, err := h.svc.Resume(ctx, userID, draftID, true)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	_, view, err := flow.Submit(ctx)
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if subErr.Fields["dish_0_rating"] == "" {
		t.Fatalf("expected dish_0_rating error, got %v", subErr.Fields)
	}
	if _, ok := subErr.ByStep()[StepDishes]["dish_0_rating"]; !ok {
		t.Fatalf("dish rating error must map to the dishes step: %v", subErr.ByStep())
	}
	if view.Current != StepDishes {
		t.Fatalf("failed submit must jump to the dishes step, got %s", view.Current)
	}

	// Nothing reached the permanent record.
	if latest, err := h.store.Latest(ctx, userID); err != nil || latest == nil {
		t.Fatalf("refused submit must keep the draft, got %v %v", latest, err)
	}
}

func TestReapIdleClosesAbandonedFlows(t *testing.T) {
	h := newFlowHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	flow := openFresh(t, h, userID)

	if _, err := flow.PatchFields(StepFields{"restaurantName": "Le Jardin"}); err != nil {
		t.Fatalf("PatchFields: %v", err)
	}

	// Recent activity keeps the flow registered.
	if n := h.svc.ReapIdle(ctx, time.Hour); n != 0 {
		t.Fatalf("active flow must survive the sweep, reaped %d", n)
	}

	flow.mu.Lock()
	flow.lastActivity = time.Now().UTC().Add(-2 * time.Hour)
	flow.mu.Unlock()

	if n := h.svc.ReapIdle(ctx, time.Hour); n != 1 {
		t.Fatalf("expected 1 reaped flow, got %d", n)
	}
	if _, err := h.svc.Get(flow.ID, userID); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("reaped flow must leave the registry, got %v", err)
	}
	if _, err := flow.PatchFields(StepFields{"partySize": 2}); !errors.Is(err, ErrFlowClosed) {
		t.Fatalf("reaped flow must be closed, got %v", err)
	}

	// The sweep flushes on the way out, so reopening offers a resume.
	res, err := h.svc.Open(ctx, userID)
	if err != nil {
		t.Fatalf("Open (after reap): %v", err)
	}
	if res.Prompt == nil {
		t.Fatalf("expected a resume prompt for the flushed draft")
	}
}
