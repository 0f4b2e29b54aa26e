package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/dgnsrekt/bullion_console/internal/console"
	"github.com/dgnsrekt/bullion_console/internal/report"
	"github.com/dgnsrekt/bullion_console/internal/selector"
	"github.com/dgnsrekt/bullion_console/internal/ui"
	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"
)

// AlertHeader carries a message the binder shows with alert() instead of
// swapping the fragment in.
const AlertHeader = "X-Console-Alert"

const maxJSONBytes = 64 << 10

// pageListAttempts bounds how often the page load refetches a watch-list
// fetch that a concurrent one superseded.
const pageListAttempts = 3

func registerPageHandlers(router chi.Router, svc Service, views *ui.Renderer) {
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		lists, err := pageLists(r.Context(), svc)
		if err != nil {
			lists = selector.WatchlistOptions(nil, err)
		}
		page := ui.Page{
			Trends:     svc.TrendOptions(),
			Algorithms: svc.AlgorithmOptions(selector.SentinelValue),
			Lists:      lists,
		}
		writeHTML(w, func(buf io.Writer) error { return views.Page(buf, page) })
	})

	router.Route("/ui", func(r chi.Router) {
		r.Get("/algorithms", func(w http.ResponseWriter, r *http.Request) {
			opts := svc.AlgorithmOptions(r.URL.Query().Get("trend"))
			writeHTML(w, func(buf io.Writer) error { return views.Options(buf, opts) })
		})

		r.Get("/lists", func(w http.ResponseWriter, r *http.Request) {
			opts, err := svc.WatchlistOptions(r.Context())
			if fragmentErr(w, err) {
				return
			}
			writeHTML(w, func(buf io.Writer) error { return views.Options(buf, opts) })
		})

		r.Post("/lookup", func(w http.ResponseWriter, r *http.Request) {
			fields, err := readFields(r, "stock")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			card, err := svc.Lookup(r.Context(), fields[0])
			if fragmentErr(w, err) {
				return
			}
			writeHTML(w, func(buf io.Writer) error { return views.Card(buf, card) })
		})

		r.Post("/screen", func(w http.ResponseWriter, r *http.Request) {
			fields, err := readFields(r, "trend", "algorithm", "list")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rep, err := svc.Screen(r.Context(), console.ScreenRequest{Trend: fields[0], Algorithm: fields[1], List: fields[2]})
			if fragmentErr(w, err) {
				return
			}
			if rep.State == report.StateInvalid {
				w.Header().Set(AlertHeader, rep.Message)
			}
			writeHTML(w, func(buf io.Writer) error { return views.Report(buf, rep) })
		})
	})
}

// pageLists fetches the list selector for a full page render, retrying a
// superseded fetch up to pageListAttempts times.
func pageLists(ctx context.Context, svc Service) ([]selector.Option, error) {
	var err error
	for attempt := 0; attempt < pageListAttempts; attempt++ {
		var opts []selector.Option
		opts, err = svc.WatchlistOptions(ctx)
		if err == nil || !isSuperseded(err) || ctx.Err() != nil {
			return opts, err
		}
		slog.Debug("page watch-list fetch superseded, refetching")
	}
	return nil, err
}

// readFields reads named string fields from a JSON object or a form body.
func readFields(r *http.Request, names ...string) ([]string, error) {
	out := make([]string, len(names))
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		for i, name := range names {
			out[i] = r.PostForm.Get(name)
		}
		return out, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, fmt.Errorf("body must be a JSON object")
	}
	for i, res := range gjson.GetManyBytes(body, names...) {
		if res.Type == gjson.String {
			out[i] = res.Str
		}
	}
	return out, nil
}

// fragmentErr answers a failed fragment request. A superseded request gets
// 204 so the binder leaves the region alone.
func fragmentErr(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	if isSuperseded(err) {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	slog.Error("fragment request failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
	return true
}

func writeHTML(w http.ResponseWriter, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		slog.Error("render failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("html response write failed", "error", err)
	}
}
