package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/bullion_console/internal/console"
	"github.com/dgnsrekt/bullion_console/internal/lookup"
	"github.com/dgnsrekt/bullion_console/internal/report"
	"github.com/dgnsrekt/bullion_console/internal/selector"
	"github.com/dgnsrekt/bullion_console/internal/ui"
	"github.com/dgnsrekt/bullion_console/internal/upstream"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Service interface {
	TrendOptions() []selector.Option
	AlgorithmOptions(trend string) []selector.Option
	WatchlistOptions(ctx context.Context) ([]selector.Option, error)
	Lookup(ctx context.Context, term string) (lookup.Card, error)
	Screen(ctx context.Context, req console.ScreenRequest) (report.Report, error)
}

func NewServer(svc Service, views *ui.Renderer) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Bullion Console API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(ui.Static()))))

	registerPageHandlers(router, svc, views)
	registerHealthHandlers(api)
	registerSelectorHandlers(api, svc)
	registerLookupHandlers(api, svc)
	registerScreenHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *upstream.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case upstream.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case upstream.CodeSuperseded:
			return huma.Error409Conflict(coded.Message)
		case upstream.CodeTimeout:
			return huma.Error504GatewayTimeout(coded.Message)
		case upstream.CodeUnavailable, upstream.CodeStatus, upstream.CodeMalformed:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}

func isSuperseded(err error) bool {
	var coded *upstream.CodedError
	return errors.As(err, &coded) && coded.Code == upstream.CodeSuperseded
}
