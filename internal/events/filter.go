package events

import (
	"slices"
	"strings"
)

// EventFilter is a conjunctive subscription predicate over three
// dimensions. An empty dimension means "don't care", not "match nothing".
type EventFilter struct {
	// EventTypes to receive (empty = all).
	EventTypes []EventType `json:"event_types"`
	// Repositories to filter on (empty = all).
	Repositories []string `json:"repositories"`
	// Branch glob patterns to match (empty = all).
	Branches []string `json:"branches"`
}

// Matches reports whether an envelope satisfies the filter. Checks
// short-circuit on the first failing dimension.
//
// Events that carry no repository pass a repository filter unchecked, and
// events that carry no branch pass a branch filter unchecked. The
// permissiveness is intentional: a filter dimension only constrains events
// that actually expose that dimension.
func (f EventFilter) Matches(envelope EventEnvelope) bool {
	if len(f.EventTypes) > 0 {
		if !slices.Contains(f.EventTypes, Classify(envelope.Event)) {
			return false
		}
	}

	if len(f.Repositories) > 0 {
		if repo, ok := ExtractRepository(envelope.Event); ok {
			if !slices.Contains(f.Repositories, repo) {
				return false
			}
		}
	}

	if len(f.Branches) > 0 {
		if branch, ok := ExtractBranch(envelope.Event); ok {
			matched := false
			for _, pattern := range f.Branches {
				if globMatch(pattern, branch) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}

	return true
}

// globMatch implements the deliberately restricted glob subset used for
// branch patterns: "*" matches everything, "*x*" matches by containment,
// "*x" by suffix, "x*" by prefix, anything else by equality. No character
// classes, no escaping, no multiple wildcards.
func globMatch(pattern, text string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		return strings.Contains(text, pattern[1:len(pattern)-1])
	}
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(text, pattern[1:])
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(text, pattern[:len(pattern)-1])
	}
	return pattern == text
}
