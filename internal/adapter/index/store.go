package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"docreview/internal/domain"
)

var (
	bucketMeta      = []byte("meta")
	bucketFragments = []byte("fragments")
	bucketVectors   = []byte("vectors")
	keyMeta         = []byte("index_meta")
)

const (
	indexFileName = "index.db"
	tempFileName  = "index.db.tmp"
	lockFileName  = ".build.lock"
)

type indexMeta struct {
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
	Fragments int    `json:"fragments"`
	BuiltAt   int64  `json:"built_at"`
}

type storedFragment struct {
	Source string `json:"source"`
	Page   int    `json:"page,omitempty"`
	Text   string `json:"text"`
}

// Store is an immutable vector index over reference fragments. All
// fragments and vectors are held in memory in insertion order, so
// concurrent searches need no locking.
type Store struct {
	info      domain.IndexInfo
	fragments []domain.Fragment
	vectors   [][]float32
}

// Save persists fragments and their vectors to dir as a single unit,
// tagged with the embedding model that produced the vectors. The index is
// written to a temporary file and renamed over any previous index only
// after the write succeeds, so a failed build never clobbers a good index.
// A lock file serializes concurrent builds against the same directory.
func Save(dir, model string, dimension int, fragments []domain.Fragment, vectors [][]float32) error {
	if len(fragments) != len(vectors) {
		return fmt.Errorf("%w: %d fragments but %d vectors", domain.ErrPersist, len(fragments), len(vectors))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersist, err)
	}

	unlock, err := acquireBuildLock(dir)
	if err != nil {
		return err
	}
	defer unlock()

	tmpPath := filepath.Join(dir, tempFileName)
	os.Remove(tmpPath)

	if err := writeIndexFile(tmpPath, model, dimension, fragments, vectors); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrPersist, err)
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, indexFileName)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrPersist, err)
	}

	return nil
}

func acquireBuildLock(dir string) (func(), error) {
	lockPath := filepath.Join(dir, lockFileName)
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: another build holds %s", domain.ErrPersist, lockPath)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersist, err)
	}
	f.Close()
	return func() { os.Remove(lockPath) }, nil
}

func writeIndexFile(path, model string, dimension int, fragments []domain.Fragment, vectors [][]float32) error {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		frags, err := tx.CreateBucketIfNotExists(bucketFragments)
		if err != nil {
			return err
		}
		vecs, err := tx.CreateBucketIfNotExists(bucketVectors)
		if err != nil {
			return err
		}

		for i, frag := range fragments {
			key := seqKey(frag.Seq)

			fragData, err := json.Marshal(storedFragment{
				Source: frag.Source,
				Page:   frag.Page,
				Text:   frag.Text,
			})
			if err != nil {
				return err
			}
			if err := frags.Put(key, fragData); err != nil {
				return err
			}

			vecData, err := json.Marshal(vectors[i])
			if err != nil {
				return err
			}
			if err := vecs.Put(key, vecData); err != nil {
				return err
			}
		}

		metaData, err := json.Marshal(indexMeta{
			Model:     model,
			Dimension: dimension,
			Fragments: len(fragments),
			BuiltAt:   time.Now().Unix(),
		})
		if err != nil {
			return err
		}
		return meta.Put(keyMeta, metaData)
	})
}

// Open loads a persisted index from dir. It fails with domain.ErrNotFound
// when no index exists and with domain.ErrConfigMismatch when the index
// was built with a different embedding model than requested; similarity
// scores across mismatched models are meaningless, so such loads are
// rejected rather than silently permitted.
func Open(dir, model string) (*Store, error) {
	path := filepath.Join(dir, indexFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: index at %s (build it first)", domain.ErrNotFound, dir)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer db.Close()

	store := &Store{}

	err = db.View(func(tx *bbolt.Tx) error {
		metaBucket := tx.Bucket(bucketMeta)
		if metaBucket == nil {
			return fmt.Errorf("index has no meta bucket")
		}
		var meta indexMeta
		if err := json.Unmarshal(metaBucket.Get(keyMeta), &meta); err != nil {
			return fmt.Errorf("corrupt index meta: %w", err)
		}
		if meta.Model != model {
			return fmt.Errorf("%w: built with %q, requested %q", domain.ErrConfigMismatch, meta.Model, model)
		}
		store.info = domain.IndexInfo{
			Model:     meta.Model,
			Dimension: meta.Dimension,
			Fragments: meta.Fragments,
			BuiltAt:   time.Unix(meta.BuiltAt, 0),
		}

		frags := tx.Bucket(bucketFragments)
		vecs := tx.Bucket(bucketVectors)
		if frags == nil || vecs == nil {
			return fmt.Errorf("index is missing data buckets")
		}

		// Keys are big-endian sequence numbers, so cursor order is
		// insertion order.
		return frags.ForEach(func(k, v []byte) error {
			var sf storedFragment
			if err := json.Unmarshal(v, &sf); err != nil {
				return fmt.Errorf("corrupt fragment: %w", err)
			}

			vecData := vecs.Get(k)
			if vecData == nil {
				return fmt.Errorf("fragment %d has no vector", seqFromKey(k))
			}
			var vec []float32
			if err := json.Unmarshal(vecData, &vec); err != nil {
				return fmt.Errorf("corrupt vector: %w", err)
			}

			store.fragments = append(store.fragments, domain.Fragment{
				Seq:    seqFromKey(k),
				Source: sf.Source,
				Page:   sf.Page,
				Text:   sf.Text,
			})
			store.vectors = append(store.vectors, vec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

// Search returns the top-k fragments by cosine similarity to the query
// vector, strictly descending by score with ties broken by insertion
// order. Safe for concurrent use.
func (s *Store) Search(query []float32, k int) ([]domain.ScoredFragment, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be a positive integer, got %d", k)
	}
	if len(s.fragments) == 0 {
		return nil, nil
	}

	scored := make([]domain.ScoredFragment, 0, len(s.fragments))
	for i, frag := range s.fragments {
		scored = append(scored, domain.ScoredFragment{
			Fragment: frag,
			Score:    cosineSimilarity(query, s.vectors[i]),
		})
	}

	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Len returns the number of indexed fragments.
func (s *Store) Len() int {
	return len(s.fragments)
}

// Info returns the index metadata recorded at build time.
func (s *Store) Info() domain.IndexInfo {
	return s.info
}

// FromParts constructs an in-memory store from already-embedded
// fragments. The caller is responsible for the fragments/vectors pairing.
func FromParts(model string, dimension int, fragments []domain.Fragment, vectors [][]float32) *Store {
	return &Store{
		info: domain.IndexInfo{
			Model:     model,
			Dimension: dimension,
			Fragments: len(fragments),
			BuiltAt:   time.Now(),
		},
		fragments: fragments,
		vectors:   vectors,
	}
}

func seqKey(seq int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(seq))
	return key
}

func seqFromKey(key []byte) int {
	return int(binary.BigEndian.Uint64(key))
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
