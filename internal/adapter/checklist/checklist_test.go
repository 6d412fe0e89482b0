package checklist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docreview/internal/domain"
)

func writeChecklist(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "company_incorp.json")
	content := `{
  "Company Incorporation": [
    "Articles of Association",
    "Memorandum of Association",
    "Board Resolution",
    "Register of Members"
  ]
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIdentifyProcess(t *testing.T) {
	lists, err := Load(writeChecklist(t))
	if err != nil {
		t.Fatal(err)
	}

	process, matched := IdentifyProcess([]string{
		"/tmp/uploads/Articles_of_Association.docx",
		"/tmp/uploads/board_resolution_v2.docx",
	}, lists)

	if process != "Company Incorporation" {
		t.Errorf("expected Company Incorporation, got %q", process)
	}

	want := map[string]bool{"Articles of Association": true, "Board Resolution": true}
	if len(matched) != 2 {
		t.Fatalf("expected 2 matched documents, got %v", matched)
	}
	for _, m := range matched {
		if !want[m] {
			t.Errorf("unexpected match %q", m)
		}
	}
}

func TestIdentifyProcessFallback(t *testing.T) {
	lists, err := Load(writeChecklist(t))
	if err != nil {
		t.Fatal(err)
	}

	process, matched := IdentifyProcess([]string{"random_contract.docx"}, lists)
	if process != "Company Incorporation" {
		t.Errorf("expected fallback to Company Incorporation, got %q", process)
	}
	if len(matched) != 0 {
		t.Errorf("expected no matches, got %v", matched)
	}
}

func TestIdentifyProcessEmpty(t *testing.T) {
	lists, err := Load(writeChecklist(t))
	if err != nil {
		t.Fatal(err)
	}

	process, _ := IdentifyProcess(nil, lists)
	if process != "" {
		t.Errorf("expected no process for empty upload, got %q", process)
	}
}

func TestReport(t *testing.T) {
	lists, err := Load(writeChecklist(t))
	if err != nil {
		t.Fatal(err)
	}

	report := Report("Company Incorporation", []string{"Articles of Association"}, lists)

	if report.DocumentsUploaded != 1 {
		t.Errorf("expected 1 uploaded, got %d", report.DocumentsUploaded)
	}
	if report.RequiredDocuments != 4 {
		t.Errorf("expected 4 required, got %d", report.RequiredDocuments)
	}
	if len(report.MissingDocuments) != 3 {
		t.Errorf("expected 3 missing, got %v", report.MissingDocuments)
	}
	for _, m := range report.MissingDocuments {
		if m == "Articles of Association" {
			t.Error("matched document listed as missing")
		}
	}
}
