package usecase

import (
	"fmt"

	"docreview/internal/adapter/index"
	"docreview/internal/adapter/loader"
	"docreview/internal/adapter/splitter"
	"docreview/internal/domain"
	"docreview/internal/port"
)

// BuildUseCase builds the reference index: load documents, split them
// into overlapping fragments, embed every fragment, and persist vectors
// and fragment metadata together.
type BuildUseCase struct {
	loader      *loader.Loader
	splitter    *splitter.Splitter
	newEmbedder func() (port.Embedder, error)
	indexDir    string
	progress    func(done, total int)
}

// NewBuildUseCase creates a build use case. newEmbedder is called once
// per build so embedding initialization failures surface as build
// failures, not construction failures. progress may be nil.
func NewBuildUseCase(
	loader *loader.Loader,
	splitter *splitter.Splitter,
	newEmbedder func() (port.Embedder, error),
	indexDir string,
	progress func(done, total int),
) *BuildUseCase {
	return &BuildUseCase{
		loader:      loader,
		splitter:    splitter,
		newEmbedder: newEmbedder,
		indexDir:    indexDir,
		progress:    progress,
	}
}

// BuildResult summarizes an index build.
type BuildResult struct {
	DocumentsLoaded   int
	FragmentsIndexed  int
	FragmentsExcluded int
	SkippedFiles      []string
}

// Build builds and persists the index, returning the loaded store.
// Nothing is written unless the whole in-memory build succeeds.
func (u *BuildUseCase) Build(folder string) (*index.Store, *BuildResult, error) {
	docs, skipped, err := u.loader.Load(folder)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := u.newEmbedder()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingInit, err)
	}

	var fragments []domain.Fragment
	var texts []string
	for _, doc := range docs {
		for _, piece := range u.splitter.Split(doc.Text) {
			fragments = append(fragments, domain.Fragment{
				Seq:    len(fragments),
				Source: doc.Source,
				Page:   doc.Page,
				Text:   piece,
			})
			texts = append(texts, piece)
		}
	}
	if len(fragments) == 0 {
		return nil, nil, fmt.Errorf("%w: documents contained no text", domain.ErrEmptyCorpus)
	}

	vectors, err := u.embedAll(embedder, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrIndexBuild, err)
	}

	// Drop fragments the embedder could not vectorize, renumbering so
	// sequence stays dense.
	kept := make([]domain.Fragment, 0, len(fragments))
	keptVectors := make([][]float32, 0, len(vectors))
	excluded := 0
	for i, vec := range vectors {
		if len(vec) == 0 {
			excluded++
			continue
		}
		frag := fragments[i]
		frag.Seq = len(kept)
		kept = append(kept, frag)
		keptVectors = append(keptVectors, vec)
	}
	if len(kept) == 0 {
		return nil, nil, fmt.Errorf("%w: no fragment produced an embedding", domain.ErrIndexBuild)
	}

	if err := index.Save(u.indexDir, embedder.ModelName(), embedder.Dimension(), kept, keptVectors); err != nil {
		return nil, nil, err
	}

	store, err := index.Open(u.indexDir, embedder.ModelName())
	if err != nil {
		return nil, nil, err
	}

	result := &BuildResult{
		DocumentsLoaded:   len(docs),
		FragmentsIndexed:  len(kept),
		FragmentsExcluded: excluded,
		SkippedFiles:      skipped,
	}
	return store, result, nil
}

// embedAll embeds fragment texts in batches, reporting progress per
// batch.
func (u *BuildUseCase) embedAll(embedder port.Embedder, texts []string) ([][]float32, error) {
	const batchSize = 64

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := embedder.Embed(texts[i:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-i {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-i)
		}
		vectors = append(vectors, batch...)

		if u.progress != nil {
			u.progress(end, len(texts))
		}
	}
	return vectors, nil
}
