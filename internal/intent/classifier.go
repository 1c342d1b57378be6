// Package intent routes incoming text to the appointment or general branch.
package intent

import (
	"strings"

	"receptionist/internal/domain"
)

// defaultCues are the substrings that mark a message as an appointment
// request. Matching is deliberately naive: "tell me about my last
// appointment" routes to the appointment branch too. Known limitation.
var defaultCues = []string{"appointment", "schedule"}

// Classifier picks the branch for a message by case-insensitive
// substring matching. Stateless and safe for concurrent use.
type Classifier struct {
	cues []string // pre-lowered
}

// New builds a classifier from the given cue words. Empty input falls
// back to the canonical cues.
func New(cues []string) *Classifier {
	if len(cues) == 0 {
		cues = defaultCues
	}
	lowered := make([]string, len(cues))
	for i, c := range cues {
		lowered[i] = strings.ToLower(c)
	}
	return &Classifier{cues: lowered}
}

// Classify returns IntentAppointment when any cue occurs in the text,
// IntentGeneral otherwise.
func (c *Classifier) Classify(text string) domain.Intent {
	lower := strings.ToLower(text)
	for _, cue := range c.cues {
		if strings.Contains(lower, cue) {
			return domain.IntentAppointment
		}
	}
	return domain.IntentGeneral
}
