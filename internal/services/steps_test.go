package services

import (
	"testing"
	"time"
)

func TestDefaultStepSequenceOrder(t *testing.T) {
	seq := DefaultStepSequence()
	want := []StepID{StepBasicInfo, StepLocation, StepRating, StepDishes, StepConfirm}
	steps := seq.Steps()
	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}
	for i, id := range want {
		if steps[i].ID != id {
			t.Fatalf("step %d: expected %s, got %s", i, id, steps[i].ID)
		}
	}
	if seq.First().ID != StepBasicInfo {
		t.Fatalf("expected first step basic-info, got %s", seq.First().ID)
	}
	if !seq.IsTerminal(StepConfirm) {
		t.Fatalf("expected confirm to be terminal")
	}
	if seq.IsTerminal(StepDishes) {
		t.Fatalf("dishes must not be terminal")
	}

	next, ok := seq.Next(StepLocation)
	if !ok || next.ID != StepRating {
		t.Fatalf("Next(location): got %v %v", next.ID, ok)
	}
	prev, ok := seq.Prev(StepRating)
	if !ok || prev.ID != StepLocation {
		t.Fatalf("Prev(rating): got %v %v", prev.ID, ok)
	}
	if _, ok := seq.Prev(StepBasicInfo); ok {
		t.Fatalf("Prev(first) must report no step")
	}
	if _, ok := seq.Next(StepConfirm); ok {
		t.Fatalf("Next(last) must report no step")
	}
}

func TestNewStepSequenceRejectsDuplicates(t *testing.T) {
	if _, err := NewStepSequence(nil); err == nil {
		t.Fatalf("expected error for empty sequence")
	}
	_, err := NewStepSequence([]Step{
		{ID: "a", Title: "A"},
		{ID: "a", Title: "A again"},
	})
	if err == nil {
		t.Fatalf("expected error for duplicate step id")
	}
}

func TestValidateBasicInfo(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	step, _ := DefaultStepSequence().Get(StepBasicInfo)

	errs := validateStep(step, StepFields{}, nil, now)
	for _, field := range []string{"restaurant_name", "visit_date", "party_size"} {
		if _, ok := errs[field]; !ok {
			t.Fatalf("expected error on %s, got %v", field, errs)
		}
	}

	errs = validateStep(step, StepFields{
		"restaurantName": "Le Jardin",
		"visitDate":      "2026-08-25",
		"partySize":      2,
	}, nil, now)
	if errs["visit_date"] == "" {
		t.Fatalf("expected future date to be rejected")
	}

	errs = validateStep(step, StepFields{
		"restaurantName": "Le Jardin",
		"visitDate":      "2026-08-24",
		"partySize":      2,
	}, nil, now)
	if len(errs) != 0 {
		t.Fatalf("same-day visit must validate, got %v", errs)
	}

	errs = validateStep(step, StepFields{
		"restaurantName": "Le Jardin",
		"visitDate":      "not-a-date",
		"partySize":      0,
	}, nil, now)
	if errs["visit_date"] == "" || errs["party_size"] == "" {
		t.Fatalf("expected date and party size errors, got %v", errs)
	}
}

func TestValidateRatingBounds(t *testing.T) {
	now := time.Now().UTC()
	step, _ := DefaultStepSequence().Get(StepRating)

	if errs := validateStep(step, StepFields{}, nil, now); errs["rating"] == "" {
		t.Fatalf("expected missing rating error")
	}
	if errs := validateStep(step, StepFields{"overall": 101}, nil, now); errs["rating"] == "" {
		t.Fatalf("expected out-of-range rating error")
	}
	if errs := validateStep(step, StepFields{"overall": 0}, nil, now); len(errs) != 0 {
		t.Fatalf("rating 0 must validate, got %v", errs)
	}
	if errs := validateStep(step, StepFields{"overall": 100}, nil, now); len(errs) != 0 {
		t.Fatalf("rating 100 must validate, got %v", errs)
	}
}

func TestValidateDishesCountsNamedOnly(t *testing.T) {
	now := time.Now().UTC()
	step, _ := DefaultStepSequence().Get(StepDishes)

	dishes := []DishEntry{{Name: "   "}, {Name: ""}}
	if errs := validateStep(step, nil, dishes, now); errs["dishes"] == "" {
		t.Fatalf("unnamed rows must not satisfy the dish requirement")
	}
	dishes = append(dishes, DishEntry{Name: "Tarte Tatin"})
	if errs := validateStep(step, nil, dishes, now); len(errs) != 0 {
		t.Fatalf("one named dish must validate, got %v", errs)
	}
}

func TestValidateDishRatingBounds(t *testing.T) {
	now := time.Now().UTC()
	step, _ := DefaultStepSequence().Get(StepDishes)

	dishes := []DishEntry{
		{Name: "Tarte Tatin", Rating: 100},
		{Name: "Soupe a l'oignon", Rating: 5000},
		{Name: "Cafe gourmand", Rating: -1},
	}
	errs := validateStep(step, nil, dishes, now)
	if errs["dish_1_rating"] == "" || errs["dish_2_rating"] == "" {
		t.Fatalf("out-of-range dish ratings must error, got %v", errs)
	}
	if _, ok := errs["dish_0_rating"]; ok {
		t.Fatalf("rating 100 must validate, got %v", errs)
	}
}

func TestOptionalStepAlwaysValidates(t *testing.T) {
	step, _ := DefaultStepSequence().Get(StepLocation)
	if errs := validateStep(step, StepFields{}, nil, time.Now().UTC()); len(errs) != 0 {
		t.Fatalf("optional step must validate empty, got %v", errs)
	}
}

func TestStepForField(t *testing.T) {
	cases := map[string]StepID{
		"restaurant_name":  StepBasicInfo,
		"visit_date":       StepBasicInfo,
		"party_size":       StepBasicInfo,
		"city":             StepLocation,
		"rating":           StepRating,
		"dishes":           StepDishes,
		"dish_2_name":      StepDishes,
		"dish_0_reference": StepDishes,
		"mystery_field":    StepBasicInfo,
	}
	for field, want := range cases {
		if got := StepForField(field); got != want {
			t.Fatalf("StepForField(%s): expected %s, got %s", field, want, got)
		}
	}
}
