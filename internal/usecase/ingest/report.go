package ingest

import "time"

// Outcome classifies what happened to one source item.
type Outcome string

const (
	OutcomeCreated    Outcome = "created"
	OutcomeUpdated    Outcome = "updated"
	OutcomeDegraded   Outcome = "degraded"
	OutcomeConflict   Outcome = "conflict"
	OutcomeUnreadable Outcome = "unreadable"
	OutcomeFailed     Outcome = "failed"
)

// ItemResult describes one source item of a run.
type ItemResult struct {
	Name    string  `json:"name"`
	Slug    string  `json:"slug,omitempty"`
	Outcome Outcome `json:"outcome"`
	// Reason explains degraded, conflict, unreadable and failed outcomes.
	Reason string `json:"reason,omitempty"`
	// Winner names the source that kept the slug when Outcome is conflict.
	Winner string `json:"winner,omitempty"`
	// Written reports whether the article reached the store. Degraded items are written.
	Written bool `json:"written"`
}

// Report summarizes one ingestion run of a channel.
type Report struct {
	ChannelID  string        `json:"channel_id"`
	Items      []ItemResult  `json:"items"`
	Created    int           `json:"created"`
	Updated    int           `json:"updated"`
	Degraded   int           `json:"degraded"`
	Conflicts  int           `json:"conflicts"`
	Unreadable int           `json:"unreadable"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration_ns"`
	// Aborted is set when the store became unavailable mid-run.
	Aborted bool `json:"aborted"`
}

func (r *Report) add(res ItemResult) {
	r.Items = append(r.Items, res)
	switch res.Outcome {
	case OutcomeCreated:
		r.Created++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeDegraded:
		r.Degraded++
	case OutcomeConflict:
		r.Conflicts++
	case OutcomeUnreadable:
		r.Unreadable++
	case OutcomeFailed:
		r.Failed++
	}
}

// Written returns the number of articles stored by the run.
func (r *Report) Written() int {
	n := 0
	for _, it := range r.Items {
		if it.Written {
			n++
		}
	}
	return n
}

// Item returns the result for the named source, if present.
func (r *Report) Item(name string) (ItemResult, bool) {
	for _, it := range r.Items {
		if it.Name == name {
			return it, true
		}
	}
	return ItemResult{}, false
}
