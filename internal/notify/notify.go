// Package notify posts short plain-text messages to an ntfy-style endpoint.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dgnsrekt/bullion_console/internal/report"
)

// Notifier delivers messages to a fixed endpoint.
type Notifier struct {
	Endpoint string
	Client   *http.Client
}

// New returns nil when endpoint is empty so callers can treat notifications as disabled.
func New(endpoint string, client *http.Client) *Notifier {
	if strings.TrimSpace(endpoint) == "" {
		return nil
	}
	return &Notifier{Endpoint: endpoint, Client: client}
}

// Notify sends message to the notifier's endpoint.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	return Send(ctx, n.Client, n.Endpoint, message)
}

// ScreenSummary formats the one-line message sent after a screening run.
func ScreenSummary(algorithm, list string, c report.Counts) string {
	return fmt.Sprintf("Screening %s on %s finished: %s eligible, %s rejected of %s stocks",
		algorithm, list, c.Eligible, c.Rejected, c.Total)
}

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", "Bullion screener")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
