package pdfops

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SplitMethod selects how a document is cut into files
type SplitMethod int

const (
	// SplitByRanges writes one file per comma separated range, e.g. "1-3, 5"
	SplitByRanges SplitMethod = 0
	// SplitOnePagePerFile writes every page to its own file
	SplitOnePagePerFile SplitMethod = 1
	// SplitEveryNPages writes consecutive chunks of N pages
	SplitEveryNPages SplitMethod = 2
)

func (m SplitMethod) String() string {
	switch m {
	case SplitByRanges:
		return "ranges"
	case SplitOnePagePerFile:
		return "one page per file"
	case SplitEveryNPages:
		return "every N pages"
	default:
		return fmt.Sprintf("SplitMethod(%d)", int(m))
	}
}

var (
	// ErrInvalidRange is returned for malformed or out of bounds page ranges
	ErrInvalidRange = errors.New("pdfops: invalid page range")
	// ErrInvalidMethod is returned for unknown split methods
	ErrInvalidMethod = errors.New("pdfops: unknown split method")
)

// PageRange is an inclusive, 1-based range of pages
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Pages is the number of pages in the range
func (r PageRange) Pages() int {
	return r.End - r.Start + 1
}

// String renders the range the way pdfcpu page selections expect it
func (r PageRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// ParseRanges parses text like "1-3, 5, 8-10" against a document of pageCount pages
func ParseRanges(text string, pageCount int) ([]PageRange, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no ranges given", ErrInvalidRange)
	}

	var ranges []PageRange
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var r PageRange
		startText, endText, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(startText))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRange, part)
		}
		r.Start, r.End = start, start
		if isRange {
			end, err := strconv.Atoi(strings.TrimSpace(endText))
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidRange, part)
			}
			r.End = end
		}

		if r.Start < 1 || r.End > pageCount {
			return nil, fmt.Errorf("%w: %q is outside 1-%d", ErrInvalidRange, part, pageCount)
		}
		if r.Start > r.End {
			return nil, fmt.Errorf("%w: %q starts after it ends", ErrInvalidRange, part)
		}
		ranges = append(ranges, r)
	}

	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: no ranges given", ErrInvalidRange)
	}
	return ranges, nil
}

// OnePagePerFile plans a file for every page
func OnePagePerFile(pageCount int) []PageRange {
	ranges := make([]PageRange, 0, pageCount)
	for page := 1; page <= pageCount; page++ {
		ranges = append(ranges, PageRange{Start: page, End: page})
	}
	return ranges
}

// EveryNPages plans chunks of n pages; the last chunk may be shorter and
// n beyond pageCount means one chunk
func EveryNPages(pageCount, n int) ([]PageRange, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: pages per file must be at least 1, got %d", ErrInvalidRange, n)
	}
	n = min(n, max(pageCount, 1))
	var ranges []PageRange
	for start := 1; start <= pageCount; start += n {
		ranges = append(ranges, PageRange{Start: start, End: min(start+n-1, pageCount)})
	}
	return ranges, nil
}

// ParsePagesPerFile reads the "every N pages" text field
func ParsePagesPerFile(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: pages per file %q", ErrInvalidRange, text)
	}
	return n, nil
}

// Plan builds the list of output ranges for a split
func Plan(method SplitMethod, rangesText, pagesPerFileText string, pageCount int) ([]PageRange, error) {
	if pageCount < 1 {
		return nil, fmt.Errorf("%w: document has no pages", ErrInvalidRange)
	}
	switch method {
	case SplitByRanges:
		return ParseRanges(rangesText, pageCount)
	case SplitOnePagePerFile:
		return OnePagePerFile(pageCount), nil
	case SplitEveryNPages:
		n, err := ParsePagesPerFile(pagesPerFileText)
		if err != nil {
			return nil, err
		}
		return EveryNPages(pageCount, n)
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidMethod, int(method))
	}
}
