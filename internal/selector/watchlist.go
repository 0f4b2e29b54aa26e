package selector

const (
	// NoListsLabel is the placeholder shown when the listing is empty.
	NoListsLabel = "No lists available"
	// ErrorLoadingLabel is the placeholder shown when the listing could not be fetched.
	ErrorLoadingLabel = "Error loading"
)

// WatchlistOptions builds the watch-list selector from the listing service
// response. A failed fetch collapses to a single "Error loading" placeholder,
// an empty listing to a single "No lists available" placeholder.
func WatchlistOptions(names []string, fetchErr error) []Option {
	if fetchErr != nil {
		return []Option{{Label: ErrorLoadingLabel, Disabled: true}}
	}
	if len(names) == 0 {
		return []Option{{Label: NoListsLabel, Disabled: true}}
	}
	out := make([]Option, 0, len(names))
	for _, n := range names {
		out = append(out, Option{Label: n, Value: n})
	}
	return out
}
