package session

import "github.com/edgescan/edgescan/internal/snapshot"

// Mode selects between the strict regular-hours threshold set and the relaxed
// weekend/extended-hours set.
type Mode int

const (
	RegularHours Mode = iota
	Weekend
)

func (m Mode) String() string {
	if m == Weekend {
		return "weekend"
	}
	return "regular_hours"
}

// Classify derives the session mode from the snapshot's explicit session
// flag. Only an explicit false selects weekend mode; an absent flag defaults
// to regular hours. Defaulting absence to weekend silently relaxed every
// threshold in production once, so the fallback direction is load-bearing.
func Classify(s *snapshot.Snapshot) Mode {
	if s.Session.IsRegularHours.Valid && !s.Session.IsRegularHours.Value {
		return Weekend
	}
	return RegularHours
}
