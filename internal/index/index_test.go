package index

import (
	"reflect"
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func testIndex() *Index {
	return Build([]models.Article{
		{ID: "solar", Title: "Solar Power", Text: "solar panels convert sunlight into power for the grid"},
		{ID: "wind", Title: "Wind Power", Text: "wind turbines convert motion into power for the grid"},
		{ID: "predictions", Title: "Making Predictions", Text: "forecasting the future requires calibrated estimates"},
	})
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Solar Power!", []string{"solar", "power"}},
		{"panels, turbines", []string{"panel", "turbine"}},
		{"forecasting", []string{"forecast"}},
		{"calibrated", []string{"calibrat"}},
		{"class pass", []string{"class", "pass"}},
		{"", nil},
	}
	for _, c := range cases {
		got := Tokenize(c.in)
		if len(got) == 0 && len(c.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSearchRanksMatchingDocs(t *testing.T) {
	ix := testIndex()
	hits := ix.Search("solar power", 0)
	if len(hits) != 2 {
		t.Fatalf("hits = %v, want solar and wind", hits)
	}
	// "solar" appears only in one doc, so that doc must rank first.
	if hits[0].ID != "solar" {
		t.Errorf("top hit = %q, want solar", hits[0].ID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("scores not descending: %v", hits)
	}
}

func TestSearchNoMatches(t *testing.T) {
	ix := testIndex()
	if hits := ix.Search("zeppelin", 0); hits != nil {
		t.Errorf("hits = %v, want nil", hits)
	}
	if hits := ix.Search("", 0); hits != nil {
		t.Errorf("empty query hits = %v, want nil", hits)
	}
}

func TestSearchIdempotent(t *testing.T) {
	ix := testIndex()
	first := ix.Search("power grid", 0)
	second := ix.Search("power grid", 0)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated search differs: %v vs %v", first, second)
	}
}

func TestSearchLimit(t *testing.T) {
	ix := testIndex()
	hits := ix.Search("power", 1)
	if len(hits) != 1 {
		t.Fatalf("len(hits) = %d, want 1", len(hits))
	}
}

func TestSearchTitleOnlyMatch(t *testing.T) {
	ix := testIndex()
	hits := ix.Search("making", 0)
	if len(hits) != 1 || hits[0].ID != "predictions" {
		t.Errorf("hits = %v, want predictions via title token", hits)
	}
}

func TestTopTerms(t *testing.T) {
	ix := testIndex()
	terms := ix.TopTerms("solar", 3)
	if len(terms) != 3 {
		t.Fatalf("terms = %v", terms)
	}
	// "solar" occurs twice (title and body) and is rarer than grid/power,
	// so it must lead.
	if terms[0] != "solar" {
		t.Errorf("top term = %q, want solar", terms[0])
	}
}

func TestDocFreq(t *testing.T) {
	ix := testIndex()
	if df := ix.DocFreq("power"); df != 2 {
		t.Errorf("df(power) = %d, want 2", df)
	}
	if df := ix.DocFreq("solar"); df != 1 {
		t.Errorf("df(solar) = %d, want 1", df)
	}
	if df := ix.DocFreq("zeppelin"); df != 0 {
		t.Errorf("df(zeppelin) = %d, want 0", df)
	}
}

func TestWeightZeroForAbsentToken(t *testing.T) {
	ix := testIndex()
	if w := ix.Weight("solar", "turbine"); w != 0 {
		t.Errorf("weight = %v, want 0", w)
	}
	if w := ix.Weight("solar", "solar"); w <= 0 {
		t.Errorf("weight = %v, want > 0", w)
	}
}

func TestIDsSorted(t *testing.T) {
	ix := testIndex()
	want := []string{"predictions", "solar", "wind"}
	if !reflect.DeepEqual(ix.IDs(), want) {
		t.Errorf("ids = %v, want %v", ix.IDs(), want)
	}
	if ix.DocCount() != 3 {
		t.Errorf("docs = %d", ix.DocCount())
	}
}
