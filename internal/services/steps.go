package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type StepID string

const (
	StepBasicInfo StepID = "basic-info"
	StepLocation  StepID = "location"
	StepRating    StepID = "rating"
	StepDishes    StepID = "dishes"
	StepConfirm   StepID = "confirm"
)

// Step is static, read-only flow configuration, not per-session data.
type Step struct {
	ID       StepID `yaml:"id" json:"id"`
	Title    string `yaml:"title" json:"title"`
	Required bool   `yaml:"required" json:"required"`
}

// StepSequence is the immutable ordered step list one guided flow walks.
type StepSequence struct {
	steps []Step
	index map[StepID]int
}

func NewStepSequence(steps []Step) (*StepSequence, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("step sequence must not be empty")
	}
	index := make(map[StepID]int, len(steps))
	for i, s := range steps {
		if s.ID == "" {
			return nil, fmt.Errorf("step %d has no id", i)
		}
		if _, dup := index[s.ID]; dup {
			return nil, fmt.Errorf("duplicate step id %q", s.ID)
		}
		index[s.ID] = i
	}
	return &StepSequence{steps: steps, index: index}, nil
}

// DefaultStepSequence is the review submission flow shipped with the app.
func DefaultStepSequence() *StepSequence {
	seq, _ := NewStepSequence([]Step{
		{ID: StepBasicInfo, Title: "Basic Information", Required: true},
		{ID: StepLocation, Title: "Location", Required: false},
		{ID: StepRating, Title: "Rating", Required: true},
		{ID: StepDishes, Title: "Dishes", Required: true},
		{ID: StepConfirm, Title: "Confirm & Submit", Required: false},
	})
	return seq
}

type stepSequenceFile struct {
	Steps []Step `yaml:"steps"`
}

// LoadStepSequence reads a YAML override of the step list. Validators stay
// keyed by step id, so overrides can retitle or reorder steps but the
// known ids keep their semantics.
func LoadStepSequence(path string) (*StepSequence, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read step config: %w", err)
	}
	var f stepSequenceFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse step config: %w", err)
	}
	return NewStepSequence(f.Steps)
}

func (sq *StepSequence) Steps() []Step {
	out := make([]Step, len(sq.steps))
	copy(out, sq.steps)
	return out
}

func (sq *StepSequence) First() Step { return sq.steps[0] }

func (sq *StepSequence) Get(id StepID) (Step, bool) {
	i, ok := sq.index[id]
	if !ok {
		return Step{}, false
	}
	return sq.steps[i], true
}

func (sq *StepSequence) Next(id StepID) (Step, bool) {
	i, ok := sq.index[id]
	if !ok || i+1 >= len(sq.steps) {
		return Step{}, false
	}
	return sq.steps[i+1], true
}

func (sq *StepSequence) Prev(id StepID) (Step, bool) {
	i, ok := sq.index[id]
	if !ok || i == 0 {
		return Step{}, false
	}
	return sq.steps[i-1], true
}

// IsTerminal reports whether id is the confirm step that closes the flow.
func (sq *StepSequence) IsTerminal(id StepID) bool {
	i, ok := sq.index[id]
	return ok && i == len(sq.steps)-1
}

// fieldStepOwner maps a server-reported field error key to the step that
// owns the field, so submit failures can send the user straight back.
var fieldStepOwner = map[string]StepID{
	"restaurant_name": StepBasicInfo,
	"visit_date":      StepBasicInfo,
	"party_size":      StepBasicInfo,
	"entry_time":      StepBasicInfo,
	"city":            StepLocation,
	"country":         StepLocation,
	"address":         StepLocation,
	"rating":          StepRating,
	"title":           StepRating,
	"notes":           StepRating,
	"dishes":          StepDishes,
}

// StepForField resolves error ownership; per-dish keys like dish_2_name
// belong to the dishes step. Unknown fields land on the first step.
func StepForField(field string) StepID {
	if step, ok := fieldStepOwner[field]; ok {
		return step
	}
	if strings.HasPrefix(field, "dish_") {
		return StepDishes
	}
	return StepBasicInfo
}

// validateStep runs the per-step validation policy against committed plus
// pending field state. Empty result means the step passes. Collection
// validation runs against the already re-derived dish list (GoNext forces
// the re-derivation first).
func validateStep(step Step, fields StepFields, dishes []DishEntry, now time.Time) map[string]string {
	errs := map[string]string{}
	switch step.ID {
	case StepBasicInfo:
		if strings.TrimSpace(fields.String("restaurantName")) == "" {
			errs["restaurant_name"] = "Restaurant name is required"
		}
		rawDate := strings.TrimSpace(fields.String("visitDate"))
		if rawDate == "" {
			errs["visit_date"] = "Visit date is required"
		} else if visitDate, err := time.Parse("2006-01-02", rawDate); err != nil {
			errs["visit_date"] = "Invalid date format"
		} else if visitDate.After(endOfDay(now)) {
			errs["visit_date"] = "Visit date cannot be in the future"
		}
		if size, err := fields.Int("partySize"); err != nil || size < 1 {
			errs["party_size"] = "Party size must be at least 1"
		}
	case StepRating:
		if overall, err := fields.Int("overall"); err != nil {
			errs["rating"] = "Overall rating is required"
		} else if overall < 0 || overall > 100 {
			errs["rating"] = "Rating must be between 0 and 100"
		}
	case StepDishes:
		counted := 0
		for i, d := range dishes {
			if d.Counts() {
				counted++
			}
			if d.Rating < 0 || d.Rating > 100 {
				errs[fmt.Sprintf("dish_%d_rating", i)] = "Dish rating must be between 0 and 100"
			}
		}
		if counted == 0 {
			errs["dishes"] = "At least one dish is required"
		}
	}
	if !step.Required {
		// Optional steps always validate true.
		return map[string]string{}
	}
	return errs
}

// endOfDay anchors the future-date check so a same-day visit in any
// timezone still validates.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// StepFields is one step's captured form data.
type StepFields map[string]any

func (f StepFields) String(key string) string {
	if f == nil {
		return ""
	}
	switch v := f[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (f StepFields) Int(key string) (int, error) {
	if f == nil {
		return 0, fmt.Errorf("missing field %q", key)
	}
	switch v := f[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, fmt.Errorf("missing field %q", key)
		}
		return strconv.Atoi(s)
	case nil:
		return 0, fmt.Errorf("missing field %q", key)
	default:
		return 0, fmt.Errorf("field %q is not numeric", key)
	}
}

func (f StepFields) Clone() StepFields {
	if f == nil {
		return nil
	}
	out := make(StepFields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
