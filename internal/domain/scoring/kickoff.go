package scoring

import (
	"fmt"
	"strings"
	"time"
)

// KeyLayout is the comparable form of a kickoff moment.
const KeyLayout = "2006-01-02 15:04"

// Kickoff is a normalized kickoff moment. Key sorts lexicographically in
// chronological order.
type Kickoff struct {
	Key  string
	Time time.Time
}

// Date layouts, with and without a clock part. Day-first layouts use the
// unpadded verbs so both "1/3/2025" and "01/03/2025" parse.
var dateLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006 15h04",
	"2/1/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"15h04",
	"15h",
}

// ParseKickoff normalizes a kickoff date and an optional separate clock into
// a Kickoff. The date may be day-first (DD/MM/YYYY) or ISO, with or without
// a clock of its own; a non-empty clock argument overrides the date's clock.
// Offsets are ignored: the wall clock as written is what gets compared.
func ParseKickoff(date, clock string) (Kickoff, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return Kickoff{}, fmt.Errorf("%w: empty date", ErrUnparseableKickoff)
	}

	day, ok := parseFirst(dateLayouts, date)
	if !ok {
		return Kickoff{}, fmt.Errorf("%w: date %q", ErrUnparseableKickoff, date)
	}
	hour, minute := day.Hour(), day.Minute()

	if clock != "" {
		c, ok := parseFirst(clockLayouts, strings.ToLower(clock))
		if !ok {
			return Kickoff{}, fmt.Errorf("%w: time %q", ErrUnparseableKickoff, clock)
		}
		hour, minute = c.Hour(), c.Minute()
	}

	t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
	return Kickoff{Key: t.Format(KeyLayout), Time: t}, nil
}

func parseFirst(layouts []string, value string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
