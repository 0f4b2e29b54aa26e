package selector

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Algorithm is a screening rule offered under a trend.
type Algorithm struct {
	Label string `yaml:"label"`
	// Endpoint is the screening service path for this algorithm. Empty means
	// the console's default screening path.
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Value returns the algorithm's wire identifier.
func (a Algorithm) Value() string { return Slug(a.Label) }

// Trend groups the algorithms offered for one market direction.
type Trend struct {
	Name       string      `yaml:"name"`
	Algorithms []Algorithm `yaml:"algorithms"`
}

// Catalog is the trend -> algorithms mapping table. Trend order and algorithm
// order are preserved as written.
type Catalog struct {
	Trends []Trend `yaml:"trends"`
}

// DefaultCatalog returns the built-in mapping used when no catalog file is configured.
func DefaultCatalog() *Catalog {
	return &Catalog{Trends: []Trend{
		{Name: "Bullish", Algorithms: []Algorithm{{Label: "Algorithm X"}, {Label: "Algorithm Y"}}},
		{Name: "Bearish", Algorithms: []Algorithm{{Label: "Shooting Star", Endpoint: "/api/shooting_star"}}},
	}}
}

// LoadCatalog reads and validates a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("algorithm catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("algorithm catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate enforces that every trend is named once and offers at least one
// algorithm with a distinct, non-empty wire value.
func (c *Catalog) Validate() error {
	if len(c.Trends) == 0 {
		return fmt.Errorf("algorithm catalog: no trends defined")
	}
	seenTrends := make(map[string]bool, len(c.Trends))
	for i, t := range c.Trends {
		if t.Name == "" {
			return fmt.Errorf("algorithm catalog: trend[%d] missing name", i)
		}
		if t.Name == SentinelValue {
			return fmt.Errorf("algorithm catalog: trend[%d] uses reserved name %q", i, t.Name)
		}
		if seenTrends[t.Name] {
			return fmt.Errorf("algorithm catalog: duplicate trend %q", t.Name)
		}
		seenTrends[t.Name] = true
		if len(t.Algorithms) == 0 {
			return fmt.Errorf("algorithm catalog: trend %q has no algorithms", t.Name)
		}
		seenValues := make(map[string]bool, len(t.Algorithms))
		for j, a := range t.Algorithms {
			v := a.Value()
			switch {
			case a.Label == "":
				return fmt.Errorf("algorithm catalog: trend %q algorithm[%d] missing label", t.Name, j)
			case v == "":
				return fmt.Errorf("algorithm catalog: trend %q algorithm[%d] has a blank label", t.Name, j)
			case v == SentinelValue:
				return fmt.Errorf("algorithm catalog: trend %q algorithm %q collides with the sentinel", t.Name, a.Label)
			case seenValues[v]:
				return fmt.Errorf("algorithm catalog: trend %q has duplicate algorithm %q", t.Name, v)
			}
			seenValues[v] = true
		}
	}
	return nil
}

func (c *Catalog) trend(name string) (Trend, bool) {
	for _, t := range c.Trends {
		if t.Name == name {
			return t, true
		}
	}
	return Trend{}, false
}

// TrendOptions returns the trend selector: the sentinel followed by every trend.
func (c *Catalog) TrendOptions() []Option {
	out := make([]Option, 0, len(c.Trends)+1)
	out = append(out, Sentinel())
	for _, t := range c.Trends {
		out = append(out, Option{Label: t.Name, Value: t.Name})
	}
	return out
}

// AlgorithmOptions returns the algorithm selector for the given trend: the
// sentinel followed by the trend's algorithms in catalog order. An unknown or
// unselected trend yields the sentinel alone.
func (c *Catalog) AlgorithmOptions(trend string) []Option {
	t, ok := c.trend(trend)
	out := make([]Option, 0, len(t.Algorithms)+1)
	out = append(out, Sentinel())
	if !ok {
		return out
	}
	for _, a := range t.Algorithms {
		out = append(out, Option{Label: a.Label, Value: a.Value()})
	}
	return out
}

// Algorithm resolves a submitted algorithm value under a trend.
func (c *Catalog) Algorithm(trend, value string) (Algorithm, bool) {
	t, ok := c.trend(trend)
	if !ok {
		return Algorithm{}, false
	}
	for _, a := range t.Algorithms {
		if a.Value() == value {
			return a, true
		}
	}
	return Algorithm{}, false
}
