//go:build integration

package integration

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestListTrends(t *testing.T) {
	resp := env.GET(t, "/api/v1/trends")
	requireStatus(t, resp, http.StatusOK)
	result := decodeJSON[struct {
		Trends []option `json:"trends"`
	}](t, resp)
	if len(result.Trends) < 2 {
		t.Fatalf("expected sentinel plus at least one trend, got %d", len(result.Trends))
	}
	requireField(t, result.Trends[0].Value, "unselected", "trends[0].value")
}

func TestListAlgorithmsForEveryTrend(t *testing.T) {
	resp := env.GET(t, "/api/v1/trends")
	requireStatus(t, resp, http.StatusOK)
	trends := decodeJSON[struct {
		Trends []option `json:"trends"`
	}](t, resp).Trends

	for _, trend := range trends[1:] {
		t.Run(trend.Value, func(t *testing.T) {
			resp := env.GET(t, "/api/v1/trends/"+url.PathEscape(trend.Value)+"/algorithms")
			requireStatus(t, resp, http.StatusOK)
			algos := decodeJSON[struct {
				Algorithms []option `json:"algorithms"`
			}](t, resp).Algorithms
			if len(algos) < 2 {
				t.Fatalf("trend %s has %d options, want sentinel plus algorithms", trend.Value, len(algos))
			}
			requireField(t, algos[0].Label, "Select", "algorithms[0].label")
			for _, a := range algos[1:] {
				if a.Value != strings.ToLower(strings.Join(strings.Fields(a.Label), "")) {
					t.Fatalf("algorithm %q has value %q", a.Label, a.Value)
				}
			}
		})
	}
}

func TestUnknownTrendYieldsSentinelOnly(t *testing.T) {
	resp := env.GET(t, "/api/v1/trends/Sideways/algorithms")
	requireStatus(t, resp, http.StatusOK)
	algos := decodeJSON[struct {
		Algorithms []option `json:"algorithms"`
	}](t, resp).Algorithms
	requireField(t, len(algos), 1, "len(algorithms)")
}

func TestAlgorithmsFragment(t *testing.T) {
	resp := env.GET(t, "/ui/algorithms?trend=Bearish")
	requireStatus(t, resp, http.StatusOK)
	if body := readBody(t, resp); !strings.Contains(body, `value="unselected"`) {
		t.Fatal("fragment missing sentinel option")
	}
}

func TestListsFragment(t *testing.T) {
	resp := env.GET(t, "/ui/lists")
	requireStatus(t, resp, http.StatusOK)
	body := readBody(t, resp)
	if strings.Count(body, "<option") == 0 {
		t.Fatal("lists fragment has no options")
	}
}
