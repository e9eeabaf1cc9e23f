package download

import "context"

// Downloader is the interface for the integrity-verified bulk downloader.
// Entries are independent: a failed entry never aborts the batch, and
// completion order carries no meaning.
type Downloader interface {
	// FetchAll downloads all items under opts.Dir and returns one outcome per
	// item, in input order.
	FetchAll(ctx context.Context, items []Item, opts Options) []Outcome
}

// Item represents one downloadable unit from the catalog.
type Item struct {
	Name string // logical name, unique within its category
	URL  string // remote content URL
	Path string // output path relative to Options.Dir
	Size int64  // declared size; informational, verification uses the probed size
	CRC  uint32 // declared CRC-32 (IEEE); authoritative together with size
}

// Options control the behavior of a download batch.
type Options struct {
	Dir         string // destination root directory
	Concurrency int    // max simultaneous transfers; <=0 removes the cap
	Retries     int    // attempts per item; <=0 uses DefaultRetries
}

// Status is the terminal state of one item.
type Status int

const (
	// StatusSkipped means the local file already existed with a matching CRC.
	StatusSkipped Status = iota
	// StatusSucceeded means the transfer completed and verified.
	StatusSucceeded
	// StatusFailed means all attempts were exhausted or the size probe failed.
	StatusFailed
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the per-item result of a batch.
type Outcome struct {
	Item     Item
	Status   Status
	Attempts int
	Err      error // terminal error for StatusFailed, nil otherwise
}

// Summary aggregates a batch's outcomes for reporting.
type Summary struct {
	Skipped   int
	Succeeded int
	Failed    int
}

// Summarize counts outcomes by status.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		switch o.Status {
		case StatusSkipped:
			s.Skipped++
		case StatusSucceeded:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
