// Package backend talks to the hosted persistence API: PostgREST tables for
// calendar data and the coach API for program rows.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"coach-hub/internal/circuitbreaker"
	"coach-hub/internal/common/errors"
	commonhttp "coach-hub/internal/common/http"
	"coach-hub/internal/common/logging"
)

const restPrefix = "/rest/v1/"

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Config configures the client
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout and APIKey.
	HTTPClient *http.Client
	Breaker    circuitbreaker.Config
}

// Client implements notifications.Store and upload.ProgramStore over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.Breaker
	logger  logging.Logger
}

// New creates a client
func New(config Config, logger logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	base := strings.TrimRight(config.BaseURL, "/")
	if base == "" {
		return nil, errors.ConfigError("backend base URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("invalid backend base URL: %v", err))
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = commonhttp.NewAPIClient(commonhttp.ClientConfig{
			Timeout: config.Timeout,
			APIKey:  config.APIKey,
		})
	}

	breakerConfig := config.Breaker
	if breakerConfig == (circuitbreaker.Config{}) {
		breakerConfig = circuitbreaker.DefaultConfig()
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		breaker: circuitbreaker.New("persistence-api", breakerConfig, logger),
		logger:  logger,
	}, nil
}

// BreakerStats exposes the circuit breaker for health reporting.
func (c *Client) BreakerStats() circuitbreaker.Stats {
	return c.breaker.Stats()
}

// Health fails while the circuit breaker rejects calls.
func (c *Client) Health(ctx context.Context) error {
	if c.breaker.State() == circuitbreaker.StateOpen {
		return errors.UpstreamError("persistence API circuit is open", nil).WithContext("breaker", "persistence-api")
	}
	return ctx.Err()
}

// request describes one call. Body is JSON-encoded when set, and the
// response is decoded into Out when set.
type request struct {
	method string
	path   string
	query  url.Values
	body   interface{}
	out    interface{}
	prefer string
}

func (c *Client) do(ctx context.Context, r request) error {
	var payload []byte
	if r.body != nil {
		var err error
		payload, err = json.Marshal(r.body)
		if err != nil {
			return errors.InternalError("failed to encode request body", err)
		}
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + encodeQuery(r.query)
	}

	start := time.Now()
	err := c.breaker.Execute(ctx, func() error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, target, body)
		if err != nil {
			return errors.InternalError("failed to create request", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if r.prefer != "" {
			req.Header.Set("Prefer", r.prefer)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return errors.UpstreamError("No se pudo contactar con el servidor", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return errors.UpstreamError(serverMessage(resp.StatusCode, raw), nil).
				WithCode(fmt.Sprintf("http_%d", resp.StatusCode))
		}

		if r.out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil && err != io.EOF {
			return errors.UpstreamError("Respuesta inválida del servidor", err)
		}
		return nil
	})

	fields := []logging.Field{
		logging.String("method", r.method),
		logging.String("path", r.path),
		logging.Duration("duration", time.Since(start)),
	}
	if err != nil {
		c.logger.Error("Persistence API call failed", err, fields...)
		return err
	}
	c.logger.Debug("Persistence API call", fields...)
	return nil
}

// serverMessage extracts the error text the API sent, so it can be shown
// verbatim. PostgREST uses "message", the coach API "error".
func serverMessage(status int, raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Message != "":
			return body.Message
		case body.Error != "":
			return body.Error
		case body.Details != "":
			return body.Details
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 500 {
		return text
	}
	return fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
}

// encodeQuery keeps PostgREST operators readable: values are escaped but
// the parentheses and commas of in.(...) filters survive.
func encodeQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(escapeFilterValue(v))
		}
	}
	return b.String()
}

var filterUnescape = strings.NewReplacer("%28", "(", "%29", ")", "%2C", ",")

func escapeFilterValue(v string) string {
	return filterUnescape.Replace(url.QueryEscape(v))
}

func eq(value string) string {
	return "eq." + value
}

// in builds an in.(...) filter with every value double-quoted.
func in(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}
