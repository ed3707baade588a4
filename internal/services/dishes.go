package services

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDishNotFound         = errors.New("dish not found")
	ErrRemovalNeedsConfirm  = errors.New("dish removal needs confirmation")
	ErrDishRatingOutOfRange = errors.New("dish rating must be between 0 and 100")
)

// DishEditor owns the full ordered dish row list, unnamed scratch rows
// included. The session's Dishes slice is the derived counted view and is
// re-derived after every mutation, never edited directly.
type DishEditor struct {
	session *Session
	rows    []DishEntry
}

func NewDishEditor(session *Session, rows []DishEntry) *DishEditor {
	e := &DishEditor{session: session, rows: rows}
	e.sync()
	return e
}

func (e *DishEditor) sync() {
	e.session.Dishes = countedDishes(e.rows)
}

// Rows returns the editor's full view, scratch rows included.
func (e *DishEditor) Rows() []DishEntry {
	out := make([]DishEntry, len(e.rows))
	copy(out, e.rows)
	return out
}

func (e *DishEditor) find(localID uuid.UUID) int {
	for i, d := range e.rows {
		if d.LocalID == localID {
			return i
		}
	}
	return -1
}

// Add appends a blank row and returns its local id. The blank row does
// not count toward validation until it gets a name, so adding never
// dirties the persisted draft by itself beyond the edit mark.
func (e *DishEditor) Add() DishEntry {
	d := DishEntry{LocalID: uuid.New()}
	e.rows = append(e.rows, d)
	e.session.MarkEdited()
	e.sync()
	return d
}

// Update patches one row's scalar fields. Ratings share the review's
// 0..100 scale; zero means unrated.
func (e *DishEditor) Update(localID uuid.UUID, name string, rating int, notes string) error {
	i := e.find(localID)
	if i < 0 {
		return ErrDishNotFound
	}
	if rating < 0 || rating > 100 {
		return ErrDishRatingOutOfRange
	}
	e.rows[i].Name = name
	e.rows[i].Rating = rating
	e.rows[i].Notes = notes
	e.session.MarkEdited()
	e.sync()
	return nil
}

// Remove deletes a row. Rows carrying any user input require confirmed
// to be set; empty rows go silently. Confirmation is keyed on content,
// not on the name alone, so an unnamed row with notes still prompts.
func (e *DishEditor) Remove(localID uuid.UUID, confirmed bool) error {
	i := e.find(localID)
	if i < 0 {
		return ErrDishNotFound
	}
	if e.rows[i].HasContent() && !confirmed {
		return ErrRemovalNeedsConfirm
	}
	e.rows = append(e.rows[:i], e.rows[i+1:]...)
	e.session.MarkEdited()
	e.sync()
	return nil
}

// MoveUp swaps the row with its predecessor. Moving the first row up is
// a no-op, not an error, and does not dirty the session.
func (e *DishEditor) MoveUp(localID uuid.UUID) error {
	i := e.find(localID)
	if i < 0 {
		return ErrDishNotFound
	}
	if i == 0 {
		return nil
	}
	e.rows[i-1], e.rows[i] = e.rows[i], e.rows[i-1]
	e.session.MarkEdited()
	e.sync()
	return nil
}

// MoveDown swaps the row with its successor; moving the last row down is
// a no-op.
func (e *DishEditor) MoveDown(localID uuid.UUID) error {
	i := e.find(localID)
	if i < 0 {
		return ErrDishNotFound
	}
	if i == len(e.rows)-1 {
		return nil
	}
	e.rows[i], e.rows[i+1] = e.rows[i+1], e.rows[i]
	e.session.MarkEdited()
	e.sync()
	return nil
}

// SetReference replaces the row's catalog link. A row holds at most one
// reference; linking over an existing one drops the old link.
func (e *DishEditor) SetReference(localID uuid.UUID, ref CatalogRef) error {
	i := e.find(localID)
	if i < 0 {
		return ErrDishNotFound
	}
	r := ref
	e.rows[i].Ref = &r
	e.session.MarkEdited()
	e.sync()
	return nil
}

// ClearReference unlinks the row from the catalog.
func (e *DishEditor) ClearReference(localID uuid.UUID) error {
	i := e.find(localID)
	if i < 0 {
		return ErrDishNotFound
	}
	if e.rows[i].Ref == nil {
		return nil
	}
	e.rows[i].Ref = nil
	e.session.MarkEdited()
	e.sync()
	return nil
}

// SetImage attaches an uploaded photo to the row, replacing any prior one.
func (e *DishEditor) SetImage(localID uuid.UUID, img ImageRef) error {
	i := e.find(localID)
	if i < 0 {
		return ErrDishNotFound
	}
	m := img
	e.rows[i].Image = &m
	e.session.MarkEdited()
	e.sync()
	return nil
}
