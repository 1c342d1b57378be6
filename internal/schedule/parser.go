// Package schedule extracts an appointment slot from free text.
package schedule

import (
	"time"

	"github.com/markusmobius/go-dateparser"
)

// Parser turns natural-language date phrases into concrete slots. Ambiguous
// phrases resolve toward the future: "Tuesday at 3pm" means the next Tuesday,
// not the last one.
type Parser struct {
	location *time.Location
	duration time.Duration
	now      func() time.Time
}

// NewParser builds a parser producing slots of the given duration in the
// given timezone.
func NewParser(loc *time.Location, duration time.Duration) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	if duration <= 0 {
		duration = time.Hour
	}
	return &Parser{location: loc, duration: duration, now: time.Now}
}

// Slot is one candidate appointment window.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Extract scans text for a date/time phrase. The second return is false when
// no usable instant could be recovered; that is not an error, the caller is
// expected to ask the user for a date.
//
// Parse handles messages that are nothing but a date ("tomorrow at 10am");
// real requests bury the phrase in a sentence, so Search is the main path.
func (p *Parser) Extract(text string) (Slot, bool) {
	cfg := &dateparser.Configuration{
		CurrentTime:         p.now().In(p.location),
		DefaultTimezone:     p.location,
		PreferredDateSource: dateparser.Future,
	}

	dt, err := dateparser.Parse(cfg, text)
	if err != nil || dt.IsZero() {
		_, results, serr := dateparser.Search(cfg, text)
		if serr != nil || len(results) == 0 {
			return Slot{}, false
		}
		dt = results[0].Date
		if dt.IsZero() {
			return Slot{}, false
		}
	}

	start := dt.Time.In(p.location)
	return Slot{Start: start, End: start.Add(p.duration)}, true
}
