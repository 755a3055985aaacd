package chat

import (
	"sort"
	"time"

	"github.com/12305/devTinder-Frontend/internal/models"
)

// timeline is the merged message view of one conversation: the fetched
// history plus live-pushed messages, ascending by timestamp. Entries are
// append-only; nothing is ever removed or reordered after the initial load.
type timeline struct {
	messages []models.Message
	seen     map[string]struct{}
}

func newTimeline() *timeline {
	return &timeline{seen: make(map[string]struct{})}
}

// load installs the fetched history, sorted ascending. Called once, before
// any live event is merged.
func (t *timeline) load(msgs []models.Message) {
	t.messages = append(t.messages[:0], msgs...)
	sort.SliceStable(t.messages, func(i, j int) bool {
		return t.messages[i].CreatedAt.Before(t.messages[j].CreatedAt)
	})
	for i := range t.messages {
		if id := t.messages[i].ID; id != "" {
			t.seen[id] = struct{}{}
		}
	}
}

// append adds one message, deduplicated by server-assigned id: a message that
// arrives both in a history fetch and over the live channel lands once. It
// reports whether the message was actually added.
func (t *timeline) append(m models.Message) bool {
	if m.ID != "" {
		if _, dup := t.seen[m.ID]; dup {
			return false
		}
		t.seen[m.ID] = struct{}{}
	}
	t.messages = append(t.messages, m)
	return true
}

func (t *timeline) snapshot() []models.Message {
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Row is one rendered timeline entry: either a day separator or a message.
type Row struct {
	Separator string
	Message   *models.Message
}

// Rows groups messages by calendar day: a separator labeled "Today",
// "Yesterday" or a date precedes the first message of each distinct day,
// judged against the viewer's clock (now).
func Rows(msgs []models.Message, now time.Time) []Row {
	rows := make([]Row, 0, len(msgs))
	var lastDay time.Time
	for i := range msgs {
		day := startOfDay(msgs[i].CreatedAt.In(now.Location()))
		if i == 0 || !day.Equal(lastDay) {
			rows = append(rows, Row{Separator: dayLabel(day, now)})
			lastDay = day
		}
		rows = append(rows, Row{Message: &msgs[i]})
	}
	return rows
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayLabel(day, now time.Time) string {
	today := startOfDay(now)
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return day.Format("January 2, 2006")
	}
}
