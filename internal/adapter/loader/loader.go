package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"docreview/internal/domain"
)

// Loader reads reference material from a directory into raw documents.
// Plain-text files load as a single document; PDFs load one document per
// page so each fragment keeps a page-accurate source locator. Files with
// other extensions are ignored by the walker patterns.
type Loader struct {
	walker *Walker
}

func New(includes, excludes []string) *Loader {
	return &Loader{walker: NewWalker(includes, excludes)}
}

// Load reads every loadable file under dir. It returns
// domain.ErrNotFound when dir does not exist and domain.ErrEmptyCorpus
// when no document yields any text. Unreadable files are skipped and
// reported alongside the loaded documents.
func (l *Loader) Load(dir string) ([]domain.RawDocument, []string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: reference folder %s", domain.ErrNotFound, dir)
	}

	files, err := l.walker.Walk(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan reference folder: %w", err)
	}

	var docs []domain.RawDocument
	var skipped []string

	for _, path := range files {
		source := filepath.Base(path)
		var loaded []domain.RawDocument
		var loadErr error

		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf":
			loaded, loadErr = loadPDF(path, source)
		case ".txt":
			loaded, loadErr = loadText(path, source)
		}

		if loadErr != nil {
			skipped = append(skipped, fmt.Sprintf("%s: %v", source, loadErr))
			continue
		}
		docs = append(docs, loaded...)
	}

	if len(docs) == 0 {
		return nil, skipped, fmt.Errorf("%w in %s", domain.ErrEmptyCorpus, dir)
	}

	return docs, skipped, nil
}

func loadText(path, source string) ([]domain.RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []domain.RawDocument{{Source: source, Text: text}}, nil
}

func loadPDF(path, source string) ([]domain.RawDocument, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []domain.RawDocument
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		docs = append(docs, domain.RawDocument{Source: source, Page: i, Text: text})
	}
	return docs, nil
}
