package checklist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docreview/internal/domain"
)

// Checklists maps a process name to its required document titles.
type Checklists map[string][]string

const defaultProcess = "Company Incorporation"

// Load reads a checklist file. The format is a JSON object of
// process name -> required document titles.
func Load(path string) (Checklists, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: checklist file %s", domain.ErrNotFound, path)
		}
		return nil, err
	}

	var lists Checklists
	if err := json.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("invalid checklist file %s: %w", path, err)
	}
	return lists, nil
}

// IdentifyProcess guesses the legal process from uploaded filenames and
// returns the process name plus the required documents matched by name.
// The heuristics are deliberately simple: articles/AoA or memorandum/MoA
// in a filename indicate incorporation, and a non-empty upload defaults
// to incorporation when nothing matches.
func IdentifyProcess(filenames []string, lists Checklists) (string, []string) {
	lower := make([]string, len(filenames))
	for i, fn := range filenames {
		lower[i] = strings.ToLower(filepath.Base(fn))
	}

	process := ""
	var matched []string

	if containsAny(lower, "articles", "aoa") || containsAny(lower, "memorandum", "moa") {
		process = defaultProcess
		for _, required := range lists[process] {
			words := strings.Fields(required)
			if len(words) == 0 {
				continue
			}
			firstWord := strings.ToLower(words[0])
			for _, name := range lower {
				if strings.Contains(name, firstWord) {
					matched = append(matched, required)
					break
				}
			}
		}
	}

	if process == "" && len(filenames) > 0 {
		process = defaultProcess
	}
	return process, matched
}

// Report compares matched documents against the process requirements.
func Report(process string, matched []string, lists Checklists) domain.ChecklistReport {
	required := lists[process]

	matchedSet := make(map[string]bool, len(matched))
	for _, m := range matched {
		matchedSet[m] = true
	}

	var missing []string
	for _, r := range required {
		if !matchedSet[r] {
			missing = append(missing, r)
		}
	}

	return domain.ChecklistReport{
		Process:           process,
		DocumentsUploaded: len(matched),
		RequiredDocuments: len(required),
		MissingDocuments:  missing,
	}
}

func containsAny(names []string, substrings ...string) bool {
	for _, name := range names {
		for _, sub := range substrings {
			if strings.Contains(name, sub) {
				return true
			}
		}
	}
	return false
}
