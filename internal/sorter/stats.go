package sorter

import "time"

// Stats summarizes a single run for logs, notifications, and CLI output.
type Stats struct {
	RunID       string
	TotalLiked  int
	NewTracks   int
	Baseline    int
	Sorted      int
	Duplicates  int
	Skipped     int
	Errors      int
	RuleMatches map[string]int
	Duration    time.Duration
}

// Processed returns the number of new tracks that went through the per-item
// pipeline this run. Baseline markings are not counted.
func (s Stats) Processed() int {
	return s.Sorted + s.Duplicates + s.Skipped + s.Errors
}
