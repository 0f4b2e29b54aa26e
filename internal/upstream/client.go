// Package upstream talks to the screening, search and listing services.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dgnsrekt/bullion_console/internal/lookup"
	"github.com/dgnsrekt/bullion_console/internal/report"
	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
)

const (
	maxResponseBytes = 32 << 20
	// Invalid bodies above this size are rejected without a repair attempt.
	maxRepairBytes = 64 << 10
)

// Endpoints locates the upstream services.
type Endpoints struct {
	SearchURL         string
	ScreenBaseURL     string
	ScreenDefaultPath string
	ListsURL          string
}

// Client issues one request per call. It never retries.
type Client struct {
	http        *http.Client
	ep          Endpoints
	logMaxBytes int
	maxBody     int64
	maxRepair   int
}

// NewClient builds a client. Deadlines come from the caller's context.
func NewClient(httpClient *http.Client, ep Endpoints, logMaxBytes int) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:        httpClient,
		ep:          ep,
		logMaxBytes: logMaxBytes,
		maxBody:     maxResponseBytes,
		maxRepair:   maxRepairBytes,
	}
}

// Search looks up one stock by name. A 404 from the search service means the
// stock is unknown.
func (c *Client) Search(ctx context.Context, term string) (lookup.Quote, error) {
	status, body, err := c.do(ctx, "search", http.MethodPost, c.ep.SearchURL, map[string]string{"stock": term})
	if err != nil {
		return lookup.Quote{}, err
	}
	if status == http.StatusNotFound {
		return lookup.Quote{Found: false}, nil
	}
	if err := checkStatus("search", status); err != nil {
		return lookup.Quote{}, err
	}
	if body, err = c.normalize(ctx, "search", body); err != nil {
		return lookup.Quote{}, err
	}
	q, err := lookup.DecodeQuote(body)
	if err != nil {
		return lookup.Quote{}, newError(CodeMalformed, "search response could not be decoded", err)
	}
	return q, nil
}

// Screen runs a screening algorithm over a watch-list.
func (c *Client) Screen(ctx context.Context, endpoint, list string) (report.Result, error) {
	status, body, err := c.do(ctx, "screen", http.MethodPost, c.ScreenURL(endpoint), map[string]string{"list": list})
	if err != nil {
		return report.Result{}, err
	}
	if err := checkStatus("screen", status); err != nil {
		return report.Result{}, err
	}
	if body, err = c.normalize(ctx, "screen", body); err != nil {
		return report.Result{}, err
	}
	res, err := report.Decode(body)
	if err != nil {
		return report.Result{}, newError(CodeMalformed, "screening response has an unexpected shape", err)
	}
	return res, nil
}

// Lists returns the names of the persisted watch-lists in listing order.
func (c *Client) Lists(ctx context.Context) ([]string, error) {
	status, body, err := c.do(ctx, "lists", http.MethodGet, c.ep.ListsURL, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("lists", status); err != nil {
		return nil, err
	}
	if body, err = c.normalize(ctx, "lists", body); err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, newError(CodeMalformed, "listing response is not an array", nil)
	}
	names := make([]string, 0)
	for i, item := range root.Array() {
		name := item.Get("list_name")
		if name.Type != gjson.String {
			slog.Debug("skipping listing entry without list_name", "index", i, "entry", item.Raw)
			continue
		}
		names = append(names, name.Str)
	}
	return names, nil
}

// ScreenURL resolves an algorithm endpoint against the screening service.
// Absolute URLs are used as-is; an empty endpoint selects the default path.
func (c *Client) ScreenURL(endpoint string) string {
	if endpoint == "" {
		endpoint = c.ep.ScreenDefaultPath
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return strings.TrimRight(c.ep.ScreenBaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) do(ctx context.Context, op, method, url string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, newError(CodeValidation, op+": encode request", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, newError(CodeUnavailable, op+": build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, transportError(ctx, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return 0, nil, transportError(ctx, op, err)
	}
	if int64(len(body)) > c.maxBody {
		return 0, nil, newError(CodeMalformed, fmt.Sprintf("%s: response exceeds %d bytes", op, c.maxBody), nil)
	}

	logged, truncated, size, sum := clipForLog(body, c.logMaxBytes)
	slog.Debug("upstream response",
		"op", op,
		"url", url,
		"status", resp.StatusCode,
		"bytes", size,
		"body", string(logged),
		"truncated", truncated,
		"sha256", sum,
	)
	return resp.StatusCode, body, nil
}

// normalize returns valid JSON, repairing small near-JSON bodies such as
// trailing commas or Python literals. The caller's deadline still applies
// once the body has been read.
func (c *Client) normalize(ctx context.Context, op string, body []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportError(ctx, op, err)
	}
	if gjson.ValidBytes(body) {
		return body, nil
	}
	if len(body) > c.maxRepair {
		return nil, newError(CodeMalformed, fmt.Sprintf("%s: invalid JSON response of %d bytes is too large to repair", op, len(body)), nil)
	}
	repaired, err := repairJSON(ctx, body)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, transportError(ctx, op, ctxErr)
	}
	if err != nil || !gjson.Valid(repaired) {
		return nil, newError(CodeMalformed, op+": response is not valid JSON", err)
	}
	slog.Warn("repaired malformed upstream JSON", "op", op, "bytes", len(body))
	return []byte(repaired), nil
}

// repairJSON runs jsonrepair until it finishes or ctx is done. An abandoned
// repair is bounded by maxRepair.
func repairJSON(ctx context.Context, body []byte) (string, error) {
	type result struct {
		out string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		out, err := jsonrepair.JSONRepair(string(body))
		ch <- result{out: out, err: err}
	}()
	select {
	case r := <-ch:
		return r.out, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func checkStatus(op string, status int) error {
	if status < 200 || status >= 300 {
		return newError(CodeStatus, fmt.Sprintf("%s: HTTP %d", op, status), nil)
	}
	return nil
}

func transportError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return newError(CodeTimeout, op+": timed out", err)
	case errors.Is(ctx.Err(), context.Canceled):
		return newError(CodeCanceled, op+": canceled", err)
	default:
		return newError(CodeUnavailable, op+": request failed", err)
	}
}
