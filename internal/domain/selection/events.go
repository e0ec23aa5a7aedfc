package selection

import "time"

type SessionStarted struct {
	SessionID  string
	PropertyID string
	At         time.Time
}

func (e SessionStarted) EventName() string     { return "selection.session_started" }
func (e SessionStarted) AggregateID() string   { return e.SessionID }
func (e SessionStarted) OccurredAt() time.Time { return e.At }

type SearchChanged struct {
	SessionID  string
	Generation int64
	At         time.Time
}

func (e SearchChanged) EventName() string     { return "selection.search_changed" }
func (e SearchChanged) AggregateID() string   { return e.SessionID }
func (e SearchChanged) OccurredAt() time.Time { return e.At }
