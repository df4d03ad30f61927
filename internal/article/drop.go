package article

import "fmt"

// DropReason explains why a URL was left out of a stage's output.
type DropReason string

const (
	DropInvalidURL        DropReason = "invalid_url"
	DropDuplicateURL      DropReason = "duplicate_url"
	DropPolicyUnavailable DropReason = "policy_unavailable"
	DropPolicyDisallowed  DropReason = "policy_disallowed"
	DropDownloadFailed    DropReason = "download_failed"
	DropHTTPStatus        DropReason = "http_status"
	DropParseFailed       DropReason = "parse_failed"
	DropEmptyContent      DropReason = "empty_content"
)

// Drop records a URL that failed closed in the filter or scraper.
type Drop struct {
	URL    string
	Reason DropReason
	Err    error
}

func (d Drop) String() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", d.URL, d.Reason, d.Err)
	}
	return fmt.Sprintf("%s: %s", d.URL, d.Reason)
}

// Result is the output of a parallel stage: every input URL is either kept or dropped.
type Result[T any] struct {
	Kept    []T
	Dropped []Drop
}

// DropCounts groups drops by reason.
func (r Result[T]) DropCounts() map[DropReason]int {
	counts := make(map[DropReason]int, len(r.Dropped))
	for _, d := range r.Dropped {
		counts[d.Reason]++
	}
	return counts
}
