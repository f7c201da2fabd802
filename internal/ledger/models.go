package ledger

import (
	"fmt"
	"time"
)

// Outcome classifies how a track left the processing pipeline.
type Outcome string

const (
	// OutcomeBaseline marks tracks covered by baseline initialization;
	// classification never ran for them.
	OutcomeBaseline Outcome = "baseline"
	// OutcomeSorted means the track was added to its matched playlist.
	OutcomeSorted Outcome = "sorted"
	// OutcomeDuplicate means the matched playlist already contained the track.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeSkipped means no genres resolved or no rule matched.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeError means the playlist write failed. The track still counts as
	// processed; clearing its entry is the manual retry path.
	OutcomeError Outcome = "error"
)

var allOutcomes = []Outcome{
	OutcomeBaseline,
	OutcomeSorted,
	OutcomeDuplicate,
	OutcomeSkipped,
	OutcomeError,
}

// ParseOutcome validates a string outcome value.
func ParseOutcome(value string) (Outcome, error) {
	for _, outcome := range allOutcomes {
		if string(outcome) == value {
			return outcome, nil
		}
	}
	return "", fmt.Errorf("ledger: unknown outcome %q", value)
}

// Entry is the durable record for one processed track.
type Entry struct {
	TrackID     string
	ProcessedAt time.Time
	Outcome     Outcome
	PlaylistID  string
	Reason      string
	TrackName   string
	Artists     []string
}

// Validate enforces the outcome/playlist pairing rules.
func (e Entry) Validate() error {
	if e.TrackID == "" {
		return fmt.Errorf("ledger: entry requires a track id")
	}
	if _, err := ParseOutcome(string(e.Outcome)); err != nil {
		return err
	}
	switch e.Outcome {
	case OutcomeSorted:
		if e.PlaylistID == "" {
			return fmt.Errorf("ledger: sorted entry for %s requires a playlist id", e.TrackID)
		}
	case OutcomeBaseline, OutcomeSkipped:
		if e.PlaylistID != "" {
			return fmt.Errorf("ledger: %s entry for %s must not carry a playlist id", e.Outcome, e.TrackID)
		}
	}
	return nil
}

// Meta holds run bookkeeping and the baseline marker. At most one of
// BaselineDate and BaselineIndex is ever set, and only once per ledger.
type Meta struct {
	LastRun       *time.Time
	TotalRuns     int
	BaselineDate  string
	BaselineIndex *int
}

// HasBaseline reports whether baseline initialization already happened.
func (m Meta) HasBaseline() bool {
	return m.BaselineDate != "" || m.BaselineIndex != nil
}

// State is the exported logical ledger shape. Marshalling then re-importing
// it reproduces the same set of processed ids and outcomes.
type State struct {
	ProcessedItems map[string]StateEntry `json:"processedItems"`
	LastRun        *time.Time            `json:"lastRun"`
	TotalRuns      int                   `json:"totalRuns"`
	BaselineDate   *string               `json:"baselineDate"`
	BaselineIndex  *int                  `json:"baselineIndex"`
}

// StateEntry mirrors Entry in the exported state.
type StateEntry struct {
	ProcessedAt time.Time `json:"processedAt"`
	Outcome     Outcome   `json:"outcome"`
	PlaylistID  *string   `json:"playlistId"`
	Reason      string    `json:"reason"`
	TrackName   string    `json:"trackName"`
	Artists     []string  `json:"artists"`
}
