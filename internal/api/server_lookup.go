package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/bullion_console/internal/lookup"
)

func registerLookupHandlers(api huma.API, svc Service) {
	type lookupInput struct {
		Body struct {
			Stock string `json:"stock" doc:"Stock name or symbol. Blank input returns the prompt card."`
		}
	}
	type lookupOutput struct {
		Body lookup.Card
	}
	huma.Register(api, huma.Operation{OperationID: "lookup-stock", Method: http.MethodPost, Path: "/api/v1/lookup", Summary: "Look up one stock", Tags: []string{"Lookup"}},
		func(ctx context.Context, input *lookupInput) (*lookupOutput, error) {
			card, err := svc.Lookup(ctx, input.Body.Stock)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &lookupOutput{}
			out.Body = card
			return out, nil
		})
}
