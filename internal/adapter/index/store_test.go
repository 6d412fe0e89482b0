package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docreview/internal/domain"
)

func testFragments() ([]domain.Fragment, [][]float32) {
	fragments := []domain.Fragment{
		{Seq: 0, Source: "adgm_courts.txt", Text: "ADGM Courts have exclusive jurisdiction."},
		{Seq: 1, Source: "employment.txt", Text: "Employment contracts must comply with ADGM regulations."},
		{Seq: 2, Source: "companies.pdf", Page: 3, Text: "A company must maintain a registered office in ADGM."},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	return fragments, vectors
}

func TestSaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	fragments, vectors := testFragments()

	if err := Save(dir, "test-model", 3, fragments, vectors); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	store, err := Open(dir, "test-model")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if store.Len() != 3 {
		t.Errorf("expected 3 fragments, got %d", store.Len())
	}
	info := store.Info()
	if info.Model != "test-model" {
		t.Errorf("expected model test-model, got %s", info.Model)
	}
	if info.Dimension != 3 {
		t.Errorf("expected dimension 3, got %d", info.Dimension)
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nowhere"), "test-model")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenModelMismatch(t *testing.T) {
	dir := t.TempDir()
	fragments, vectors := testFragments()

	if err := Save(dir, "model-a", 3, fragments, vectors); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	_, err := Open(dir, "model-b")
	if !errors.Is(err, domain.ErrConfigMismatch) {
		t.Errorf("expected ErrConfigMismatch, got %v", err)
	}
}

func TestSaveMismatchedLengths(t *testing.T) {
	fragments, vectors := testFragments()
	err := Save(t.TempDir(), "test-model", 3, fragments, vectors[:2])
	if !errors.Is(err, domain.ErrPersist) {
		t.Errorf("expected ErrPersist, got %v", err)
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	fragments, vectors := testFragments()

	if err := Save(dir, "test-model", 3, fragments, vectors); err != nil {
		t.Fatal(err)
	}
	// Rebuild with fewer fragments over the same location.
	if err := Save(dir, "test-model", 3, fragments[:1], vectors[:1]); err != nil {
		t.Fatal(err)
	}

	store, err := Open(dir, "test-model")
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 1 {
		t.Errorf("expected rebuilt index with 1 fragment, got %d", store.Len())
	}

	if _, err := os.Stat(filepath.Join(dir, tempFileName)); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}

func TestBuildLockSerializes(t *testing.T) {
	dir := t.TempDir()
	fragments, vectors := testFragments()

	unlock, err := acquireBuildLock(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := Save(dir, "test-model", 3, fragments, vectors); err == nil {
		t.Error("expected save to fail while lock is held")
	}

	unlock()
	if err := Save(dir, "test-model", 3, fragments, vectors); err != nil {
		t.Errorf("save after unlock failed: %v", err)
	}
}

func TestSearchOrdering(t *testing.T) {
	fragments, vectors := testFragments()
	store := FromParts("test-model", 3, fragments, vectors)

	results, err := store.Search([]float32{0.9, 0.4, 0.1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not in descending order at %d: %f > %f",
				i, results[i].Score, results[i-1].Score)
		}
	}
	if results[0].Fragment.Seq != 0 {
		t.Errorf("expected fragment 0 first, got %d", results[0].Fragment.Seq)
	}
}

func TestSearchTopK(t *testing.T) {
	fragments, vectors := testFragments()
	store := FromParts("test-model", 3, fragments, vectors)

	for _, k := range []int{1, 2, 3, 10} {
		results, err := store.Search([]float32{1, 1, 1}, k)
		if err != nil {
			t.Fatal(err)
		}
		want := k
		if want > 3 {
			want = 3
		}
		if len(results) != want {
			t.Errorf("k=%d: expected %d results, got %d", k, want, len(results))
		}
	}
}

func TestSearchInvalidK(t *testing.T) {
	fragments, vectors := testFragments()
	store := FromParts("test-model", 3, fragments, vectors)

	for _, k := range []int{0, -1} {
		if _, err := store.Search([]float32{1, 0, 0}, k); err == nil {
			t.Errorf("expected error for k=%d", k)
		}
	}
}

func TestSearchTieBreaksByInsertionOrder(t *testing.T) {
	fragments := []domain.Fragment{
		{Seq: 0, Source: "a.txt", Text: "first"},
		{Seq: 1, Source: "b.txt", Text: "second"},
		{Seq: 2, Source: "c.txt", Text: "third"},
	}
	// Identical vectors produce identical scores.
	vectors := [][]float32{{1, 0}, {1, 0}, {1, 0}}
	store := FromParts("test-model", 2, fragments, vectors)

	results, err := store.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if r.Fragment.Seq != i {
			t.Errorf("tie at position %d broken out of insertion order: seq %d", i, r.Fragment.Seq)
		}
	}
}

func TestSearchEmptyStore(t *testing.T) {
	store := FromParts("test-model", 2, nil, nil)

	results, err := store.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results from empty store, got %d", len(results))
	}
}

func TestRoundTripStability(t *testing.T) {
	dir := t.TempDir()
	fragments, vectors := testFragments()

	if err := Save(dir, "test-model", 3, fragments, vectors); err != nil {
		t.Fatal(err)
	}

	query := []float32{0.5, 0.5, 0}
	var first []domain.ScoredFragment

	for i := 0; i < 3; i++ {
		store, err := Open(dir, "test-model")
		if err != nil {
			t.Fatal(err)
		}
		results, err := store.Search(query, 2)
		if err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = results
			continue
		}
		for j := range results {
			if results[j].Fragment.Seq != first[j].Fragment.Seq || results[j].Score != first[j].Score {
				t.Errorf("load %d: result %d differs from first load", i, j)
			}
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineSimilarity(tc.a, tc.b)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("expected %f, got %f", tc.want, got)
			}
		})
	}
}
