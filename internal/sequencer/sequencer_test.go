package sequencer

import (
	"errors"
	"reflect"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/similarity"
)

func testEngine() *similarity.Engine {
	ix := index.Build([]models.Article{
		{ID: "solar", Title: "Solar Power", Text: "solar panels energy sunlight power grid inverter efficiency"},
		{ID: "wind", Title: "Wind Energy", Text: "wind turbines energy power grid generation capacity"},
		{ID: "storage", Title: "Grid Storage", Text: "battery storage energy grid power capacity lithium"},
		{ID: "predictions", Title: "Making Predictions", Text: "forecasting future uncertainty calibrated estimates evidence"},
		{ID: "cooking", Title: "Weeknight Cooking", Text: "garlic onions butter simmer recipes flavor"},
		{ID: "gardening", Title: "Garden Notes", Text: "soil compost seedlings watering mulch harvest"},
	})
	return similarity.New(ix, 0, 0)
}

func TestSequenceInsufficientInput(t *testing.T) {
	eng := testEngine()
	for _, ids := range [][]string{nil, {}, {"solar"}, {"solar", "solar"}} {
		if _, err := Sequence(eng, ids); !errors.Is(err, apperr.ErrInsufficientInput) {
			t.Errorf("Sequence(%v) err = %v, want ErrInsufficientInput", ids, err)
		}
	}
}

func TestSequenceCoversAllInputs(t *testing.T) {
	eng := testEngine()
	ids := []string{"solar", "wind", "storage", "predictions"}
	plan, err := Sequence(eng, ids)
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	if len(plan.Steps) != len(ids) {
		t.Fatalf("steps = %d, want %d", len(plan.Steps), len(ids))
	}
	got := make(map[string]bool)
	for _, s := range plan.Steps {
		if got[s.ID] {
			t.Errorf("id %q appears twice", s.ID)
		}
		got[s.ID] = true
	}
	for _, id := range ids {
		if !got[id] {
			t.Errorf("id %q missing from plan", id)
		}
	}
}

func TestSequenceFirstStepHasNoRationale(t *testing.T) {
	eng := testEngine()
	plan, err := Sequence(eng, []string{"solar", "wind", "storage"})
	if err != nil {
		t.Fatal(err)
	}
	first := plan.Steps[0]
	if first.Score != 0 || len(first.SharedTerms) != 0 {
		t.Errorf("first step carries rationale: %+v", first)
	}
	for i, s := range plan.Steps[1:] {
		if s.Score <= 0 {
			t.Errorf("step %d score = %v, want > 0 for this corpus", i+1, s.Score)
		}
		if len(s.SharedTerms) == 0 {
			t.Errorf("step %d has no shared terms", i+1)
		}
	}
}

func TestSequenceDeterministic(t *testing.T) {
	eng := testEngine()
	ids := []string{"storage", "predictions", "wind", "solar"}
	first, err := Sequence(eng, ids)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Sequence(eng, ids)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.IDs(), second.IDs()) {
		t.Errorf("plans differ: %v vs %v", first.IDs(), second.IDs())
	}
}

func TestSequenceStartsFromStrongestPair(t *testing.T) {
	eng := testEngine()
	// predictions overlaps nothing, so it must never occupy the seed pair.
	plan, err := Sequence(eng, []string{"predictions", "solar", "wind", "storage"})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Steps[0].ID == "predictions" || plan.Steps[1].ID == "predictions" {
		t.Errorf("zero-overlap article seeded the chain: %v", plan.IDs())
	}
}

func TestSequenceDeduplicatesInput(t *testing.T) {
	eng := testEngine()
	plan, err := Sequence(eng, []string{"solar", "wind", "solar"})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Steps) != 2 {
		t.Errorf("steps = %d, want 2 after dedupe", len(plan.Steps))
	}
}
