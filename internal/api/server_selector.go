package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/bullion_console/internal/selector"
)

func registerHealthHandlers(api huma.API) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})
}

func registerSelectorHandlers(api huma.API, svc Service) {
	type trendsOutput struct {
		Body struct {
			Trends []selector.Option `json:"trends"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-trends", Method: http.MethodGet, Path: "/api/v1/trends", Summary: "List trend options", Tags: []string{"Selectors"}},
		func(ctx context.Context, input *struct{}) (*trendsOutput, error) {
			out := &trendsOutput{}
			out.Body.Trends = svc.TrendOptions()
			return out, nil
		})

	type algorithmsInput struct {
		Trend string `path:"trend" doc:"Trend name as listed by list-trends."`
	}
	type algorithmsOutput struct {
		Body struct {
			Algorithms []selector.Option `json:"algorithms"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-algorithms", Method: http.MethodGet, Path: "/api/v1/trends/{trend}/algorithms", Summary: "List algorithm options for a trend", Description: "The first option is always the \"Select\" sentinel. Unknown trends return only the sentinel.", Tags: []string{"Selectors"}},
		func(ctx context.Context, input *algorithmsInput) (*algorithmsOutput, error) {
			out := &algorithmsOutput{}
			out.Body.Algorithms = svc.AlgorithmOptions(input.Trend)
			return out, nil
		})

	type watchlistsOutput struct {
		Body struct {
			Watchlists []selector.Option `json:"watchlists"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-watchlists", Method: http.MethodGet, Path: "/api/v1/watchlists", Summary: "List watch-list options", Description: "Fetch failures and empty listings yield a single disabled placeholder option.", Tags: []string{"Selectors"}},
		func(ctx context.Context, input *struct{}) (*watchlistsOutput, error) {
			opts, err := svc.WatchlistOptions(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &watchlistsOutput{}
			out.Body.Watchlists = opts
			return out, nil
		})
}
