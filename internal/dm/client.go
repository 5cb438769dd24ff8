// Package dm talks to the external narrative generator. The generator's
// reasoning is a black box; only the request/response contract matters here.
package dm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/models"
)

// ErrTransport marks a failed or timed-out generator call. It is the only
// error that aborts a turn.
var ErrTransport = errors.NewSentinel("narrative generator call failed")

// DefaultTimeout bounds a single generator round trip. Narrative generation
// is slow so the bound is generous.
const DefaultTimeout = 120 * time.Second

type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("source", "dm.Client"),
	}
}

// Action sends one player turn to the generator and returns its response.
// The caller's context applies on top of the client timeout.
func (c *Client) Action(ctx context.Context, turn models.TurnRequest) (*models.TurnResponse, error) {
	body, err := json.Marshal(turn)
	if err != nil {
		return nil, errors.Wrap(err, "marshal turn request")
	}

	url := c.baseURL + "/api/action"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build turn request", slog.String("url", url))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.Join(ErrTransport, err), "call narrative generator",
			slog.String("url", url))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Wrap(ErrTransport, "narrative generator rejected turn",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(snippet)))
	}

	var turnResponse models.TurnResponse
	if err = json.NewDecoder(resp.Body).Decode(&turnResponse); err != nil {
		return nil, errors.Wrap(errors.Join(ErrTransport, err), "decode turn response")
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "turn completed",
		slog.Duration("duration", time.Since(start)),
		slog.Int("narrativeLength", len(turnResponse.Narrative)))
	return &turnResponse, nil
}
