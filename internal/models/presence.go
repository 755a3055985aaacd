package models

import (
	"fmt"
	"time"
)

// Presence is a per-identity online flag plus an optional last-seen
// timestamp. It is mutated only by realtime events.
type Presence struct {
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// StatusLabel renders presence as the status string shown next to a user:
// "Online" while connected, a staleness bucket ("10m ago", "1h ago",
// "2d ago") when a last-seen time is known, "Offline" otherwise.
func (p Presence) StatusLabel(now time.Time) string {
	if p.IsOnline {
		return "Online"
	}
	if p.LastSeen == nil || p.LastSeen.IsZero() {
		return "Offline"
	}

	minutes := int(now.Sub(*p.LastSeen).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case minutes < 1440:
		return fmt.Sprintf("%dh ago", minutes/60)
	default:
		return fmt.Sprintf("%dd ago", minutes/1440)
	}
}
