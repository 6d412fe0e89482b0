package domain

import "errors"

// Build/load failures propagate as typed errors so the calling layer can
// decide whether to warn and continue without an index. Judgment-time
// failures are never returned as errors; they are absorbed into the
// Judgment's Issue field.
var (
	ErrNotFound              = errors.New("not found")
	ErrEmptyCorpus           = errors.New("no reference documents found")
	ErrEmbeddingInit         = errors.New("failed to initialize embeddings")
	ErrIndexBuild            = errors.New("failed to build vector index")
	ErrPersist               = errors.New("failed to persist vector index")
	ErrConfigMismatch        = errors.New("index was built with a different embedding model")
	ErrGenerationUnavailable = errors.New("generation backend unavailable")
)
