// Package selector derives the option sets offered by the console's dropdowns:
// the algorithm cascade driven by the selected trend and the watch-list selector
// populated from the listing service.
package selector

import "strings"

const (
	// SentinelValue is the wire value of the "nothing chosen" option.
	SentinelValue = "unselected"
	// SentinelLabel is the display label of the "nothing chosen" option.
	SentinelLabel = "Select"
)

// Option is one entry of a dropdown.
type Option struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Sentinel returns the fixed leading option of the trend and algorithm selectors.
func Sentinel() Option {
	return Option{Label: SentinelLabel, Value: SentinelValue}
}

// IsUnselected reports whether a submitted selector value means "nothing chosen".
func IsUnselected(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || v == SentinelValue
}

// Slug normalizes an algorithm label into its wire identifier: lower case with
// all whitespace removed. Slug(Slug(s)) == Slug(s).
func Slug(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), "")
}
