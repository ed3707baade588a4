package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/platebook-backend/internal/data/repos"
	"github.com/yungbote/platebook-backend/internal/domain"
	"github.com/yungbote/platebook-backend/internal/platform/dbctx"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

// SubmissionError carries field-keyed validation failures. Each field
// maps back to its owning step so the client can jump the user straight
// to the first step that needs fixing.
type SubmissionError struct {
	Fields map[string]string
}

func (e *SubmissionError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "submission invalid: " + strings.Join(keys, ", ")
}

// ByStep groups the field errors by owning step.
func (e *SubmissionError) ByStep() map[StepID]map[string]string {
	out := map[StepID]map[string]string{}
	for field, msg := range e.Fields {
		step := StepForField(field)
		if out[step] == nil {
			out[step] = map[string]string{}
		}
		out[step][field] = msg
	}
	return out
}

// FirstStep returns the earliest step in sequence order that owns an
// error, so the flow knows where to send the user back.
func (e *SubmissionError) FirstStep(seq *StepSequence) StepID {
	owned := map[StepID]bool{}
	for field := range e.Fields {
		owned[StepForField(field)] = true
	}
	for _, step := range seq.Steps() {
		if owned[step.ID] {
			return step.ID
		}
	}
	return seq.First().ID
}

type ReviewService interface {
	// CreateFromDraft validates the full session, persists the review
	// with its ordered dishes, and discards the backing draft. On
	// validation failure it returns *SubmissionError and writes nothing.
	CreateFromDraft(ctx context.Context, session *Session, seq *StepSequence) (*domain.Review, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*domain.Review, error)
}

type reviewService struct {
	log     *logger.Logger
	db      *gorm.DB
	reviews repos.ReviewRepo
	catalog repos.CatalogEntryRepo
	drafts  DraftStore
}

func NewReviewService(baseLog *logger.Logger, db *gorm.DB, reviews repos.ReviewRepo, catalog repos.CatalogEntryRepo, drafts DraftStore) ReviewService {
	return &reviewService{
		log:     baseLog.With("service", "ReviewService"),
		db:      db,
		reviews: reviews,
		catalog: catalog,
		drafts:  drafts,
	}
}

func (s *reviewService) CreateFromDraft(ctx context.Context, session *Session, seq *StepSequence) (*domain.Review, error) {
	now := time.Now().UTC()
	fieldErrs := map[string]string{}
	for _, step := range seq.Steps() {
		for field, msg := range validateStep(step, session.FieldsFor(step.ID), session.Dishes, now) {
			fieldErrs[field] = msg
		}
	}
	if len(fieldErrs) > 0 {
		return nil, &SubmissionError{Fields: fieldErrs}
	}

	// Re-verify catalog links in parallel before the write; a linked
	// entry deleted since selection downgrades the submit to an error on
	// the dishes step rather than a broken foreign key.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, d := range session.Dishes {
		if d.Ref == nil {
			continue
		}
		i, d := i, d
		g.Go(func() error {
			entry, err := s.catalog.GetByID(dbctx.Context{Ctx: gctx}, d.Ref.EntryID)
			if err != nil {
				return err
			}
			if entry == nil {
				return &SubmissionError{Fields: map[string]string{
					fmt.Sprintf("dish_%d_reference", i): "Linked catalog entry no longer exists",
				}}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if subErr, ok := err.(*SubmissionError); ok {
			return nil, subErr
		}
		return nil, fmt.Errorf("verify catalog links: %w", err)
	}

	basic := session.FieldsFor(StepBasicInfo)
	location := session.FieldsFor(StepLocation)
	rating := session.FieldsFor(StepRating)

	visitDate, err := time.Parse("2006-01-02", strings.TrimSpace(basic.String("visitDate")))
	if err != nil {
		return nil, &SubmissionError{Fields: map[string]string{"visit_date": "Invalid date format"}}
	}
	partySize, _ := basic.Int("partySize")
	overall, _ := rating.Int("overall")

	review := &domain.Review{
		Title:          strings.TrimSpace(rating.String("title")),
		RestaurantName: strings.TrimSpace(basic.String("restaurantName")),
		VisitDate:      visitDate,
		EntryTime:      strings.TrimSpace(basic.String("entryTime")),
		PartySize:      partySize,
		Location:       joinLocation(location.String("city"), location.String("country")),
		Address:        strings.TrimSpace(location.String("address")),
		Rating:         overall,
		Notes:          strings.TrimSpace(rating.String("notes")),
		CreatedBy:      session.UserID,
	}

	dishes := make([]*domain.ReviewDish, 0, len(session.Dishes))
	for _, d := range session.Dishes {
		dish := &domain.ReviewDish{
			DishName:   strings.TrimSpace(d.Name),
			DishRating: d.Rating,
			Notes:      strings.TrimSpace(d.Notes),
		}
		if d.Ref != nil {
			id := d.Ref.EntryID
			dish.CatalogEntryID = &id
		}
		if d.Image != nil {
			id := d.Image.RecordID
			dish.ImageRecordID = &id
		}
		dishes = append(dishes, dish)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		created, err := s.reviews.Create(dbc, review, dishes)
		if err != nil {
			return err
		}
		review = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist review: %w", err)
	}

	// The draft is spent. Discard failure is not a submit failure; the
	// TTL sweep collects leftovers.
	if session.DraftID != nil {
		if err := s.drafts.Discard(ctx, *session.DraftID, session.UserID); err != nil {
			s.log.Warn("failed to discard submitted draft", "draft_id", *session.DraftID, "error", err)
		}
	}

	s.log.Info("review submitted", "review_id", review.ID, "dishes", len(dishes))
	return review, nil
}

func (s *reviewService) Get(ctx context.Context, id, userID uuid.UUID) (*domain.Review, error) {
	review, err := s.reviews.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil || review.CreatedBy != userID {
		return nil, nil
	}
	return review, nil
}

func joinLocation(city, country string) string {
	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)
	switch {
	case city != "" && country != "":
		return city + ", " + country
	case city != "":
		return city
	default:
		return country
	}
}
