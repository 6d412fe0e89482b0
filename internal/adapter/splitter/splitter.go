package splitter

import "strings"

// Splitter cuts document text into overlapping character windows. Window
// boundaries fall on whitespace so each fragment stays readable; sizes are
// therefore approximate, never exceeding the window by more than one word.
type Splitter struct {
	windowChars  int
	overlapChars int
}

func New(windowChars, overlapChars int) *Splitter {
	if windowChars <= 0 {
		windowChars = 800
	}
	if overlapChars < 0 || overlapChars >= windowChars {
		overlapChars = windowChars / 8
	}
	return &Splitter{
		windowChars:  windowChars,
		overlapChars: overlapChars,
	}
}

// Split returns the overlapping windows of text, in order. Whitespace runs
// collapse to single spaces; empty input yields no windows.
func (s *Splitter) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var pieces []string
	start := 0

	for start < len(words) {
		end := start
		size := 0

		for end < len(words) {
			add := len(words[end])
			if size > 0 {
				add++ // joining space
			}
			if size > 0 && size+add > s.windowChars {
				break
			}
			size += add
			end++
		}

		pieces = append(pieces, strings.Join(words[start:end], " "))
		if end >= len(words) {
			break
		}

		start = s.overlapStart(words, start, end)
	}

	return pieces
}

// overlapStart backs up from end over whole words until overlapChars is
// spent, always advancing past the previous start.
func (s *Splitter) overlapStart(words []string, start, end int) int {
	back := end
	size := 0

	for back > start {
		add := len(words[back-1]) + 1
		if size+add > s.overlapChars {
			break
		}
		size += add
		back--
	}

	if back <= start {
		back = start + 1
	}
	return back
}
