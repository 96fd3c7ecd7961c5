package task

import "strings"

// Filter narrows a task listing. Empty fields do not filter.
type Filter struct {
	Search    string
	Frequency Frequency
}

// NewFilter builds a filter from raw query values. The frequency is
// trimmed and lowercased but not validated, so an unknown value matches
// nothing.
func NewFilter(search, frequency string) Filter {
	return Filter{
		Search:    search,
		Frequency: Frequency(strings.ToLower(strings.TrimSpace(frequency))),
	}
}

// IsEmpty reports whether the filter matches every task.
func (f Filter) IsEmpty() bool {
	return f.Search == "" && f.Frequency == ""
}
