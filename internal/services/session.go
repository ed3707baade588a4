package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/platebook-backend/internal/domain"
)

// CatalogRef is the single catalog link a dish row can carry. Selecting a
// new reference replaces the old one wholesale.
type CatalogRef struct {
	EntryID       uuid.UUID `json:"entryId"`
	Name          string    `json:"name"`
	IsPlaceholder bool      `json:"isPlaceholder"`
}

// ImageRef points at a stored dish photo.
type ImageRef struct {
	RecordID    uuid.UUID `json:"recordId"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
}

// DishEntry is one row of the dish collection as the editor sees it,
// including rows with no name yet. LocalID is minted client-visible and
// stable across saves so in-flight edits survive a resume.
type DishEntry struct {
	LocalID uuid.UUID   `json:"localId"`
	Name    string      `json:"name"`
	Rating  int         `json:"rating"`
	Notes   string      `json:"notes"`
	Ref     *CatalogRef `json:"ref,omitempty"`
	Image   *ImageRef   `json:"image,omitempty"`
}

// Counts reports whether the row participates in validation and
// submission. Unnamed rows are editor scratch space.
func (d DishEntry) Counts() bool {
	return strings.TrimSpace(d.Name) != ""
}

// HasContent reports whether discarding the row would lose user input.
func (d DishEntry) HasContent() bool {
	return d.Counts() || strings.TrimSpace(d.Notes) != "" || d.Ref != nil || d.Image != nil || d.Rating != 0
}

// Session is the per-flow working state. All access goes through the
// owning GuidedFlow's lock; Session itself is not safe for concurrent use.
type Session struct {
	UserID  uuid.UUID
	DraftID *uuid.UUID

	Current StepID
	Visited map[StepID]bool
	Fields  map[StepID]StepFields

	// Dishes is the counted view, re-derived from the editor rows on
	// every mutation. The editor owns the full row list.
	Dishes []DishEntry

	// editSeq advances on every user mutation; savedSeq records the
	// highest edit sequence a completed save has covered. The session is
	// dirty exactly when they differ, so a save response that raced a
	// newer edit can never clear the newer edit's dirty state.
	editSeq  uint64
	savedSeq uint64
}

func NewSession(userID uuid.UUID, first StepID) *Session {
	return &Session{
		UserID:  userID,
		Current: first,
		Visited: map[StepID]bool{first: true},
		Fields:  map[StepID]StepFields{},
	}
}

func (s *Session) MarkEdited() {
	s.editSeq++
}

func (s *Session) Dirty() bool {
	return s.editSeq != s.savedSeq
}

// BeginSave captures the edit sequence a save attempt covers.
func (s *Session) BeginSave() uint64 {
	return s.editSeq
}

// CompleteSave records a finished save. seq is the value BeginSave
// returned for that attempt; stale completions only ever move savedSeq
// forward, so out-of-order responses cannot mask unsaved edits.
func (s *Session) CompleteSave(seq uint64) {
	if seq > s.savedSeq {
		s.savedSeq = seq
	}
}

func (s *Session) FieldsFor(step StepID) StepFields {
	if f, ok := s.Fields[step]; ok {
		return f
	}
	return StepFields{}
}

func (s *Session) PatchFields(step StepID, patch StepFields) {
	if len(patch) == 0 {
		return
	}
	existing, ok := s.Fields[step]
	if !ok {
		existing = StepFields{}
		s.Fields[step] = existing
	}
	for k, v := range patch {
		existing[k] = v
	}
	s.MarkEdited()
}

// draftDish is the persisted shape of one counted dish row.
type draftDish struct {
	LocalID     uuid.UUID  `json:"localId"`
	Name        string     `json:"name"`
	Rating      int        `json:"rating"`
	Notes       string     `json:"notes"`
	CatalogID   *uuid.UUID `json:"catalogId,omitempty"`
	CatalogName string     `json:"catalogName,omitempty"`
	Placeholder bool       `json:"placeholder,omitempty"`
	ImageID     *uuid.UUID `json:"imageId,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	ImageMime   string     `json:"imageMime,omitempty"`
}

// draftPayload is the JSON document stored in review_draft.data. Only
// counted dish rows persist; unnamed scratch rows are session-local.
type draftPayload struct {
	Step    StepID                `json:"step"`
	Visited []StepID              `json:"visited"`
	Fields  map[StepID]StepFields `json:"fields"`
	Dishes  []draftDish           `json:"dishes"`
}

func (s *Session) EncodeDraft() ([]byte, error) {
	p := draftPayload{
		Step:   s.Current,
		Fields: s.Fields,
	}
	for step, seen := range s.Visited {
		if seen {
			p.Visited = append(p.Visited, step)
		}
	}
	for _, d := range s.Dishes {
		dd := draftDish{
			LocalID: d.LocalID,
			Name:    d.Name,
			Rating:  d.Rating,
			Notes:   d.Notes,
		}
		if d.Ref != nil {
			id := d.Ref.EntryID
			dd.CatalogID = &id
			dd.CatalogName = d.Ref.Name
			dd.Placeholder = d.Ref.IsPlaceholder
		}
		if d.Image != nil {
			id := d.Image.RecordID
			dd.ImageID = &id
			dd.ImageURL = d.Image.URL
			dd.ImageMime = d.Image.ContentType
		}
		p.Dishes = append(p.Dishes, dd)
	}
	return json.Marshal(p)
}

// DecodeDraft rebuilds session state from a persisted draft. The restored
// session starts clean: nothing has been edited since the stored copy.
func DecodeDraft(userID uuid.UUID, draft *domain.ReviewDraft, seq *StepSequence) (*Session, []DishEntry, error) {
	if draft == nil {
		return nil, nil, fmt.Errorf("nil draft")
	}
	var p draftPayload
	if len(draft.Data) > 0 {
		if err := json.Unmarshal(draft.Data, &p); err != nil {
			return nil, nil, fmt.Errorf("decode draft %s: %w", draft.ID, err)
		}
	}

	current := StepID(draft.Step)
	if _, ok := seq.Get(current); !ok {
		current = seq.First().ID
	}

	s := NewSession(userID, current)
	id := draft.ID
	s.DraftID = &id
	for _, step := range p.Visited {
		if _, ok := seq.Get(step); ok {
			s.Visited[step] = true
		}
	}
	s.Visited[current] = true
	if p.Fields != nil {
		s.Fields = p.Fields
	}

	rows := make([]DishEntry, 0, len(p.Dishes))
	for _, dd := range p.Dishes {
		d := DishEntry{
			LocalID: dd.LocalID,
			Name:    dd.Name,
			Rating:  dd.Rating,
			Notes:   dd.Notes,
		}
		if d.LocalID == uuid.Nil {
			d.LocalID = uuid.New()
		}
		if dd.CatalogID != nil {
			d.Ref = &CatalogRef{EntryID: *dd.CatalogID, Name: dd.CatalogName, IsPlaceholder: dd.Placeholder}
		}
		if dd.ImageID != nil {
			d.Image = &ImageRef{RecordID: *dd.ImageID, URL: dd.ImageURL, ContentType: dd.ImageMime}
		}
		rows = append(rows, d)
	}
	s.Dishes = countedDishes(rows)
	return s, rows, nil
}

func countedDishes(rows []DishEntry) []DishEntry {
	out := make([]DishEntry, 0, len(rows))
	for _, d := range rows {
		if d.Counts() {
			out = append(out, d)
		}
	}
	return out
}

// ResumePrompt is what the open endpoint returns when a live draft exists.
type ResumePrompt struct {
	DraftID    uuid.UUID `json:"draftId"`
	Step       StepID    `json:"step"`
	AgeDisplay string    `json:"ageDisplay"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
