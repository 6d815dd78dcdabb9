package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"codeberg.org/mutker/powerctl/internal/errors"
)

const (
	DefaultAddress   = "127.0.0.1:44443"
	callPath         = "/usdpl/call"
	defaultUserAgent = "powerctl/0.1"
)

// Ensure HTTPInvoker implements Invoker at compile time.
var _ Invoker = (*HTTPInvoker)(nil)

type callRequest struct {
	ID         uint64 `json:"id"`
	Function   string `json:"function"`
	Parameters []any  `json:"parameters"`
}

type callResponse struct {
	ID     uint64 `json:"id"`
	Result []any  `json:"result"`
}

// HTTPInvoker posts calls to the backend's call endpoint. It sets no
// client timeout; a hung call blocks until ctx is cancelled.
type HTTPInvoker struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	nextID    atomic.Uint64
}

// NewHTTPInvoker builds an invoker for a host:port or URL. An empty address
// selects DefaultAddress.
func NewHTTPInvoker(addr string, client *http.Client) (*HTTPInvoker, error) {
	base, err := parseBaseURL(addr)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{}
	}

	return &HTTPInvoker{
		baseURL:   base,
		http:      client,
		userAgent: defaultUserAgent,
	}, nil
}

// Address returns the resolved base URL.
func (c *HTTPInvoker) Address() string {
	return c.baseURL.String()
}

func (c *HTTPInvoker) Invoke(ctx context.Context, name string, args []any) ([]any, error) {
	errFactory := errors.New()

	if args == nil {
		args = []any{}
	}
	id := c.nextID.Add(1)
	body, err := json.Marshal(callRequest{ID: id, Function: name, Parameters: args})
	if err != nil {
		return nil, errFactory.Wrap(ErrTransport, err).WithMessage("Failed to encode call " + name)
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: callPath})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errFactory.Wrap(ErrTransport, err).WithMessage("Failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errFactory.Wrap(ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, errFactory.WithData(ErrRemoteStatus,
			fmt.Sprintf("%s returned status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var payload callResponse
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, errFactory.Wrap(ErrDecode, err).WithMessage("Failed to decode response to " + name)
	}
	if payload.ID != id {
		return nil, errFactory.WithData(ErrMismatchedID, fmt.Sprintf("sent %d, got %d", id, payload.ID))
	}
	if payload.Result == nil {
		payload.Result = []any{}
	}

	return payload.Result, nil
}

func parseBaseURL(addr string) (*url.URL, error) {
	errFactory := errors.New()

	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		trimmed = DefaultAddress
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, errFactory.Wrap(ErrInvalidAddress, err).WithMessage(fmt.Sprintf("Invalid backend address %q", addr))
	}
	if u.Host == "" {
		return nil, errFactory.WithData(ErrInvalidAddress, addr)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""

	return u, nil
}
