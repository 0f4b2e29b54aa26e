package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/bullion_console/internal/console"
	"github.com/dgnsrekt/bullion_console/internal/report"
)

func registerScreenHandlers(api huma.API, svc Service) {
	type screenInput struct {
		Body console.ScreenRequest
	}
	type screenOutput struct {
		Body report.Report
	}
	huma.Register(api, huma.Operation{OperationID: "run-screen", Method: http.MethodPost, Path: "/api/v1/screen", Summary: "Run a screening algorithm over a watch-list", Description: "Upstream failures are reported in the body with state \"error\" or \"unexpected\". A missing selection is a 400.", Tags: []string{"Screening"}},
		func(ctx context.Context, input *screenInput) (*screenOutput, error) {
			rep, err := svc.Screen(ctx, input.Body)
			if err != nil {
				return nil, mapErr(err)
			}
			if rep.State == report.StateInvalid {
				return nil, huma.Error400BadRequest(rep.Message)
			}
			out := &screenOutput{}
			out.Body = rep
			return out, nil
		})
}
