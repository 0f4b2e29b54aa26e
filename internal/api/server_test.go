package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgnsrekt/bullion_console/internal/console"
	"github.com/dgnsrekt/bullion_console/internal/lookup"
	"github.com/dgnsrekt/bullion_console/internal/report"
	"github.com/dgnsrekt/bullion_console/internal/selector"
	"github.com/dgnsrekt/bullion_console/internal/ui"
	"github.com/dgnsrekt/bullion_console/internal/upstream"
)

type stubService struct {
	lists    []selector.Option
	listsErr error
	// listsSuperseded fails that many watch-list fetches before listsErr applies.
	listsSuperseded int
	listsCalls      int

	card      lookup.Card
	lookupErr error
	gotTerm   string

	rep       report.Report
	screenErr error
	gotScreen console.ScreenRequest
}

func (s *stubService) TrendOptions() []selector.Option {
	return selector.DefaultCatalog().TrendOptions()
}

func (s *stubService) AlgorithmOptions(trend string) []selector.Option {
	return selector.DefaultCatalog().AlgorithmOptions(trend)
}

func (s *stubService) WatchlistOptions(ctx context.Context) ([]selector.Option, error) {
	s.listsCalls++
	if s.listsCalls <= s.listsSuperseded {
		return nil, supersededErr()
	}
	if s.listsErr != nil {
		return nil, s.listsErr
	}
	if s.lists == nil {
		return selector.WatchlistOptions([]string{"bull", "bear"}, nil), nil
	}
	return s.lists, nil
}

func (s *stubService) Lookup(ctx context.Context, term string) (lookup.Card, error) {
	s.gotTerm = term
	return s.card, s.lookupErr
}

func (s *stubService) Screen(ctx context.Context, req console.ScreenRequest) (report.Report, error) {
	s.gotScreen = req
	return s.rep, s.screenErr
}

func newTestServer(t *testing.T, svc Service) http.Handler {
	t.Helper()
	views, err := ui.New()
	if err != nil {
		t.Fatalf("ui.New() error = %v", err)
	}
	return NewServer(svc, views)
}

func serve(h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func supersededErr() error {
	return &upstream.CodedError{Code: upstream.CodeSuperseded, Message: "lookup superseded by a newer request"}
}

func TestIndexPage(t *testing.T) {
	h := newTestServer(t, &stubService{})
	w := serve(h, http.MethodGet, "/", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Find("#list option").Length(); got != 2 {
		t.Fatalf("list options = %d; want 2", got)
	}
	if got := doc.Find("#algorithm option").AttrOr("value", ""); got != selector.SentinelValue {
		t.Fatalf("algorithm option = %q", got)
	}
}

func TestIndexPageListsFailure(t *testing.T) {
	h := newTestServer(t, &stubService{listsErr: supersededErr()})
	w := serve(h, http.MethodGet, "/", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Find("#list option").Text(); got != selector.ErrorLoadingLabel {
		t.Fatalf("list option = %q", got)
	}
}

func TestIndexPageRefetchesSupersededLists(t *testing.T) {
	svc := &stubService{listsSuperseded: 1}
	h := newTestServer(t, svc)
	w := serve(h, http.MethodGet, "/", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opts := doc.Find("#list option")
	if opts.Length() != 2 || opts.First().AttrOr("value", "") != "bull" {
		t.Fatalf("list options = %q; want the refetched listing", opts.Text())
	}
	if svc.listsCalls != 2 {
		t.Fatalf("watch-list fetches = %d; want 2", svc.listsCalls)
	}
}

func TestIndexPageGivesUpAfterRepeatedSupersede(t *testing.T) {
	svc := &stubService{listsSuperseded: pageListAttempts}
	h := newTestServer(t, svc)
	w := serve(h, http.MethodGet, "/", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.listsCalls != pageListAttempts {
		t.Fatalf("watch-list fetches = %d; want %d", svc.listsCalls, pageListAttempts)
	}
}

func TestAlgorithmsFragment(t *testing.T) {
	h := newTestServer(t, &stubService{})
	w := serve(h, http.MethodGet, "/ui/algorithms?trend=Bearish", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if strings.Count(body, "<option") != 2 || !strings.Contains(body, `value="shootingstar"`) {
		t.Fatalf("body = %s", body)
	}
}

func TestListsFragmentSuperseded(t *testing.T) {
	h := newTestServer(t, &stubService{listsErr: supersededErr()})
	w := serve(h, http.MethodGet, "/ui/lists", "", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want 204", w.Code)
	}
}

func TestLookupFragment(t *testing.T) {
	svc := &stubService{card: lookup.Card{State: lookup.StateFound, Name: "Foo", Price: "₹100", LastClose: "₹90", Tone: lookup.TonePositive}}
	h := newTestServer(t, svc)

	t.Run("json", func(t *testing.T) {
		w := serve(h, http.MethodPost, "/ui/lookup", "application/json", `{"stock":"Foo"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if svc.gotTerm != "Foo" {
			t.Fatalf("term = %q", svc.gotTerm)
		}
		if !strings.Contains(w.Body.String(), `class="add-btn"`) {
			t.Fatalf("body = %s", w.Body.String())
		}
	})

	t.Run("form", func(t *testing.T) {
		form := url.Values{"stock": {"Bar"}}
		w := serve(h, http.MethodPost, "/ui/lookup", "application/x-www-form-urlencoded", form.Encode())
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if svc.gotTerm != "Bar" {
			t.Fatalf("term = %q", svc.gotTerm)
		}
	})

	t.Run("bad_json", func(t *testing.T) {
		w := serve(h, http.MethodPost, "/ui/lookup", "application/json", `["Foo"]`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}
	})
}

func TestLookupFragmentSuperseded(t *testing.T) {
	h := newTestServer(t, &stubService{lookupErr: supersededErr()})
	w := serve(h, http.MethodPost, "/ui/lookup", "application/json", `{"stock":"Foo"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want 204", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("body = %q; want empty", w.Body.String())
	}
}

func TestScreenFragment(t *testing.T) {
	svc := &stubService{rep: report.Build(report.Result{Count: report.Counts{Total: "0", Eligible: "0", Rejected: "0"}}, report.SchemaUnion)}
	h := newTestServer(t, svc)
	w := serve(h, http.MethodPost, "/ui/screen", "application/json", `{"trend":"Bearish","algorithm":"shootingstar","list":"bull"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	want := console.ScreenRequest{Trend: "Bearish", Algorithm: "shootingstar", List: "bull"}
	if svc.gotScreen != want {
		t.Fatalf("request = %+v", svc.gotScreen)
	}
	if w.Header().Get(AlertHeader) != "" {
		t.Fatal("unexpected alert header")
	}
	if strings.Count(w.Body.String(), "<h3>") != 2 {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestScreenFragmentInvalidAlerts(t *testing.T) {
	h := newTestServer(t, &stubService{rep: report.Notice(report.StateInvalid, report.MsgSelectAll)})
	w := serve(h, http.MethodPost, "/ui/screen", "application/json", `{"trend":"unselected","algorithm":"unselected","list":"bull"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get(AlertHeader); got != report.MsgSelectAll {
		t.Fatalf("alert = %q", got)
	}
}

func TestAPIListTrends(t *testing.T) {
	h := newTestServer(t, &stubService{})
	w := serve(h, http.MethodGet, "/api/v1/trends", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Trends []selector.Option `json:"trends"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Trends) != 3 || body.Trends[0].Value != selector.SentinelValue {
		t.Fatalf("trends = %+v", body.Trends)
	}
}

func TestAPIListAlgorithms(t *testing.T) {
	h := newTestServer(t, &stubService{})
	w := serve(h, http.MethodGet, "/api/v1/trends/Bullish/algorithms", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Algorithms []selector.Option `json:"algorithms"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Algorithms) != 3 || body.Algorithms[2].Value != "algorithmy" {
		t.Fatalf("algorithms = %+v", body.Algorithms)
	}
}

func TestAPILookup(t *testing.T) {
	svc := &stubService{card: lookup.Card{State: lookup.StateNotFound, Message: lookup.MsgNotFound}}
	h := newTestServer(t, svc)
	w := serve(h, http.MethodPost, "/api/v1/lookup", "application/json", `{"stock":"ZZZ"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var card lookup.Card
	if err := json.Unmarshal(w.Body.Bytes(), &card); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if card.State != lookup.StateNotFound || svc.gotTerm != "ZZZ" {
		t.Fatalf("card = %+v term = %q", card, svc.gotTerm)
	}
}

func TestAPIScreenInvalid(t *testing.T) {
	h := newTestServer(t, &stubService{rep: report.Notice(report.StateInvalid, report.MsgSelectAll)})
	w := serve(h, http.MethodPost, "/api/v1/screen", "application/json", `{"trend":"unselected","algorithm":"unselected","list":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), report.MsgSelectAll) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestAPIScreenReport(t *testing.T) {
	rep := report.Build(report.Result{
		Count:    report.Counts{Total: "1", Eligible: "1", Rejected: "0"},
		Eligible: []report.Record{{Fields: []report.Field{{Key: "symbol", Value: "TCS-EQ"}}}},
	}, report.SchemaUnion)
	h := newTestServer(t, &stubService{rep: rep})
	w := serve(h, http.MethodPost, "/api/v1/screen", "application/json", `{"trend":"Bearish","algorithm":"shootingstar","list":"bull"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got report.Report
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != rep.RunID || got.Sections[0].Table.Rows[0][0] != "TCS-EQ" {
		t.Fatalf("report = %+v", got)
	}
}

func TestMapErr(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{upstream.CodeValidation, http.StatusBadRequest},
		{upstream.CodeSuperseded, http.StatusConflict},
		{upstream.CodeTimeout, http.StatusGatewayTimeout},
		{upstream.CodeUnavailable, http.StatusBadGateway},
		{upstream.CodeStatus, http.StatusBadGateway},
		{upstream.CodeMalformed, http.StatusBadGateway},
		{upstream.CodeCanceled, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			err := mapErr(&upstream.CodedError{Code: tc.code, Message: "boom"})
			se, ok := err.(interface{ GetStatus() int })
			if !ok {
				t.Fatalf("mapErr returned %T", err)
			}
			if se.GetStatus() != tc.status {
				t.Fatalf("status = %d; want %d", se.GetStatus(), tc.status)
			}
		})
	}
}

func TestAPIWatchlistsSuperseded(t *testing.T) {
	h := newTestServer(t, &stubService{listsErr: supersededErr()})
	w := serve(h, http.MethodGet, "/api/v1/watchlists", "", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d; want 409", w.Code)
	}
}

func TestStaticScriptServed(t *testing.T) {
	h := newTestServer(t, &stubService{})
	w := serve(h, http.MethodGet, "/static/console.js", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "startBtn") {
		t.Fatal("script body missing binder")
	}
}
