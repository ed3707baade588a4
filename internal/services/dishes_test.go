package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func newTestEditor(t *testing.T) (*Session, *DishEditor) {
	t.Helper()
	s := NewSession(uuid.New(), StepDishes)
	return s, NewDishEditor(s, nil)
}

func TestEditorAddAndCountedView(t *testing.T) {
	s, e := newTestEditor(t)

	blank := e.Add()
	if blank.LocalID == uuid.Nil {
		t.Fatalf("Add must mint a local id")
	}
	if len(e.Rows()) != 1 {
		t.Fatalf("expected 1 editor row, got %d", len(e.Rows()))
	}
	if len(s.Dishes) != 0 {
		t.Fatalf("unnamed row must not appear in the counted view")
	}

	if err := e.Update(blank.LocalID, "Tarte Tatin", 80, ""); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(s.Dishes) != 1 || s.Dishes[0].Name != "Tarte Tatin" {
		t.Fatalf("named row must appear in the counted view: %v", s.Dishes)
	}

	// Blanking the name removes it from the counted view but keeps the row.
	if err := e.Update(blank.LocalID, "   ", 80, ""); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(e.Rows()) != 1 || len(s.Dishes) != 0 {
		t.Fatalf("blanked row: editor %d, counted %d", len(e.Rows()), len(s.Dishes))
	}
}

func TestEditorRemoveConfirmation(t *testing.T) {
	_, e := newTestEditor(t)

	empty := e.Add()
	if err := e.Remove(empty.LocalID, false); err != nil {
		t.Fatalf("empty row must remove without confirmation: %v", err)
	}

	// An unnamed row with notes still holds user input.
	scratch := e.Add()
	if err := e.Update(scratch.LocalID, "", 0, "came with a surprise amuse-bouche"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	err := e.Remove(scratch.LocalID, false)
	if !errors.Is(err, ErrRemovalNeedsConfirm) {
		t.Fatalf("expected ErrRemovalNeedsConfirm, got %v", err)
	}
	if len(e.Rows()) != 1 {
		t.Fatalf("refused removal must keep the row")
	}
	if err := e.Remove(scratch.LocalID, true); err != nil {
		t.Fatalf("confirmed removal: %v", err)
	}
	if len(e.Rows()) != 0 {
		t.Fatalf("confirmed removal must drop the row")
	}

	if err := e.Remove(uuid.New(), true); !errors.Is(err, ErrDishNotFound) {
		t.Fatalf("expected ErrDishNotFound, got %v", err)
	}
}

func TestEditorMoveOrdering(t *testing.T) {
	s, e := newTestEditor(t)

	a := e.Add()
	b := e.Add()
	c := e.Add()
	for i, d := range []DishEntry{a, b, c} {
		name := []string{"Soupe", "Tarte Tatin", "Cafe gourmand"}[i]
		if err := e.Update(d.LocalID, name, 0, ""); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	if err := e.MoveUp(b.LocalID); err != nil {
		t.Fatalf("MoveUp: %v", err)
	}
	names := func() []string {
		var out []string
		for _, d := range e.Rows() {
			out = append(out, d.Name)
		}
		return out
	}
	got := names()
	if got[0] != "Tarte Tatin" || got[1] != "Soupe" || got[2] != "Cafe gourmand" {
		t.Fatalf("MoveUp order: %v", got)
	}

	// Edge moves are no-ops that leave the session clean of new edits.
	before := s.editSeq
	if err := e.MoveUp(b.LocalID); err != nil {
		t.Fatalf("MoveUp (top): %v", err)
	}
	if err := e.MoveDown(c.LocalID); err != nil {
		t.Fatalf("MoveDown (bottom): %v", err)
	}
	if s.editSeq != before {
		t.Fatalf("edge moves must not advance the edit sequence")
	}
	if g := names(); g[0] != "Tarte Tatin" || g[2] != "Cafe gourmand" {
		t.Fatalf("edge moves changed order: %v", g)
	}

	if err := e.MoveDown(b.LocalID); err != nil {
		t.Fatalf("MoveDown: %v", err)
	}
	if g := names(); g[1] != "Cafe gourmand" || g[2] != "Soupe" {
		t.Fatalf("MoveDown order: %v", g)
	}

	// The counted view mirrors editor order.
	if s.Dishes[0].Name != "Tarte Tatin" || s.Dishes[2].Name != "Soupe" {
		t.Fatalf("counted view out of sync: %v", s.Dishes)
	}
}

func TestEditorReferenceReplacement(t *testing.T) {
	_, e := newTestEditor(t)
	d := e.Add()
	if err := e.Update(d.LocalID, "Tarte Tatin", 0, ""); err != nil {
		t.Fatalf("Update: %v", err)
	}

	first := CatalogRef{EntryID: uuid.New(), Name: "Tarte Tatin"}
	second := CatalogRef{EntryID: uuid.New(), Name: "Tarte aux Pommes", IsPlaceholder: true}

	if err := e.SetReference(d.LocalID, first); err != nil {
		t.Fatalf("SetReference: %v", err)
	}
	if err := e.SetReference(d.LocalID, second); err != nil {
		t.Fatalf("SetReference (replace): %v", err)
	}
	row := e.Rows()[0]
	if row.Ref == nil || row.Ref.EntryID != second.EntryID {
		t.Fatalf("replacement must drop the first link: %+v", row.Ref)
	}
	if !row.Ref.IsPlaceholder {
		t.Fatalf("placeholder flag lost")
	}

	if err := e.ClearReference(d.LocalID); err != nil {
		t.Fatalf("ClearReference: %v", err)
	}
	if e.Rows()[0].Ref != nil {
		t.Fatalf("ClearReference must unlink the row")
	}
}

func TestEditorRatingBounds(t *testing.T) {
	_, e := newTestEditor(t)
	d := e.Add()

	for _, bad := range []int{-1, 101, 5000} {
		if err := e.Update(d.LocalID, "Tarte Tatin", bad, ""); !errors.Is(err, ErrDishRatingOutOfRange) {
			t.Fatalf("Update(rating=%d): expected ErrDishRatingOutOfRange, got %v", bad, err)
		}
	}
	// The rejected patch must not land on the row.
	if row := e.Rows()[0]; row.Name != "" || row.Rating != 0 {
		t.Fatalf("rejected update must not mutate the row: %+v", row)
	}

	// Both ends of the scale are valid; zero means unrated.
	for _, ok := range []int{0, 100} {
		if err := e.Update(d.LocalID, "Tarte Tatin", ok, ""); err != nil {
			t.Fatalf("Update(rating=%d): %v", ok, err)
		}
	}
}
