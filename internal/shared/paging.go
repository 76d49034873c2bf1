package shared

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPageNumber is used when the client omits pageNumber or sends a value below 1.
	DefaultPageNumber = 1
	// DefaultPageSize is used when the client omits pageSize or sends a value below 1.
	DefaultPageSize = 10
	// DefaultMaxPageSize bounds pageSize when no explicit maximum is configured.
	DefaultMaxPageSize = 100
)

// Page holds the paging parameters of one list request.
type Page struct {
	Number int
	Size   int
}

// NewPage normalizes number and size: values below 1 fall back to the
// defaults and size is clamped to maxSize.
func NewPage(number, size, maxSize int) Page {
	if maxSize <= 0 {
		maxSize = DefaultMaxPageSize
	}
	if number < 1 {
		number = DefaultPageNumber
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > maxSize {
		size = maxSize
	}
	return Page{Number: number, Size: size}
}

// Offset returns the number of records skipped before this page. Offsets
// that do not fit in an int saturate at math.MaxInt.
func (p Page) Offset() int {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// ParsePage reads pageNumber and pageSize from query values. Non-integer
// values are reported as a validation failure.
func ParsePage(values url.Values, maxSize int) (Page, error) {
	var messages []string
	number, ok := parseQueryInt(values, "pageNumber")
	if !ok {
		messages = append(messages, "pageNumber must be an integer.")
	}
	size, ok := parseQueryInt(values, "pageSize")
	if !ok {
		messages = append(messages, "pageSize must be an integer.")
	}
	if len(messages) > 0 {
		return Page{}, NewValidationError(messages...)
	}
	return NewPage(number, size, maxSize), nil
}

func parseQueryInt(values url.Values, key string) (int, bool) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
