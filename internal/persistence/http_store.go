package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/petrijr/flowkit/pkg/api"
)

// HTTPDoer is the subset of *http.Client used by HTTPFlowStore.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPTimeout bounds every request made by the default client.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPOptions configures an HTTPFlowStore.
type HTTPOptions struct {
	// BaseURL is the API root, e.g. "https://api.example.com/api". The
	// store appends "/flows".
	BaseURL string

	// Client defaults to an *http.Client with DefaultHTTPTimeout.
	Client HTTPDoer

	// Retry applies to idempotent requests (GET, PUT, DELETE) that fail
	// with api.ErrNetwork. The zero value performs a single attempt.
	Retry api.RetryPolicy

	// Header is added to every request (authorization, tenant, ...).
	Header http.Header
}

// HTTPFlowStore is a FlowStore talking to the remote flow service over
// REST. Documents travel in a {"data": {...}} envelope; resources carry
// their fields under "attributes".
type HTTPFlowStore struct {
	base   string
	client HTTPDoer
	retry  api.RetryPolicy
	header http.Header
	sleep  func(ctx context.Context, d time.Duration) error
}

var _ FlowStore = (*HTTPFlowStore)(nil)

// NewHTTPFlowStore creates a REST client for the flow service.
func NewHTTPFlowStore(opts HTTPOptions) (*HTTPFlowStore, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("http flow store: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("http flow store: %w", err)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &HTTPFlowStore{
		base:   base,
		client: client,
		retry:  opts.Retry,
		header: opts.Header.Clone(),
		sleep:  sleepContext,
	}, nil
}

type flowResource struct {
	ID         string             `json:"id"`
	Attributes flowAttributesWire `json:"attributes"`
}

type flowAttributesWire struct {
	Name      string     `json:"name"`
	Status    api.Status `json:"status"`
	Published bool       `json:"published"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Data      api.Graph  `json:"data"`
}

func (r flowResource) flow() *api.Flow {
	return &api.Flow{
		ID:        r.ID,
		Name:      r.Attributes.Name,
		Status:    r.Attributes.Status,
		Published: r.Attributes.Published,
		CreatedAt: r.Attributes.CreatedAt,
		UpdatedAt: r.Attributes.UpdatedAt,
		Data:      r.Attributes.Data.Clone(),
	}
}

type envelope[T any] struct {
	Data T `json:"data"`
}

func (s *HTTPFlowStore) ListFlows(ctx context.Context) ([]*api.Flow, error) {
	var out envelope[[]flowResource]
	if err := s.do(ctx, http.MethodGet, "/flows", nil, &out, true); err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	flows := make([]*api.Flow, 0, len(out.Data))
	for _, r := range out.Data {
		flows = append(flows, r.flow())
	}
	return flows, nil
}

func (s *HTTPFlowStore) FetchFlow(ctx context.Context, id string) (*api.Flow, error) {
	var out envelope[flowResource]
	if err := s.do(ctx, http.MethodGet, "/flows/"+url.PathEscape(id), nil, &out, true); err != nil {
		return nil, fmt.Errorf("fetch flow %q: %w", id, err)
	}
	return out.Data.flow(), nil
}

// CreateFlow is not retried: a lost response could otherwise create the
// flow twice.
func (s *HTTPFlowStore) CreateFlow(ctx context.Context, name string) (*api.Flow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create flow: %w", api.ErrEmptyInput)
	}
	body := envelope[api.FlowAttributes]{Data: api.FlowAttributes{
		Name:   name,
		Status: api.StatusDraft,
		Data:   api.Graph{}.Clone(),
	}}
	var out envelope[flowResource]
	if err := s.do(ctx, http.MethodPost, "/flows", body, &out, false); err != nil {
		return nil, fmt.Errorf("create flow: %w", err)
	}
	return out.Data.flow(), nil
}

func (s *HTTPFlowStore) PersistFlow(ctx context.Context, id string, attrs api.FlowAttributes) (*api.Flow, error) {
	attrs.Data = attrs.Data.Clone()
	body := envelope[api.FlowAttributes]{Data: attrs}
	var out envelope[flowResource]
	if err := s.do(ctx, http.MethodPut, "/flows/"+url.PathEscape(id), body, &out, true); err != nil {
		return nil, fmt.Errorf("persist flow %q: %w", id, err)
	}
	return out.Data.flow(), nil
}

func (s *HTTPFlowStore) DeleteFlow(ctx context.Context, id string) error {
	if err := s.do(ctx, http.MethodDelete, "/flows/"+url.PathEscape(id), nil, nil, true); err != nil {
		return fmt.Errorf("delete flow %q: %w", id, err)
	}
	return nil
}

// do sends one logical request, retrying network failures of idempotent
// calls according to the store's policy.
func (s *HTTPFlowStore) do(ctx context.Context, method, path string, in, out any, idempotent bool) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}

	attempts := 1
	if idempotent {
		attempts = s.retry.Attempts()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := s.sleep(ctx, s.retry.Delay(attempt-1)); err != nil {
				return err
			}
		}
		lastErr = s.roundTrip(ctx, method, path, payload, out)
		if lastErr == nil || !errors.Is(lastErr, api.ErrNetwork) {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (s *HTTPFlowStore) roundTrip(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base+path, body)
	if err != nil {
		return err
	}
	for k, vs := range s.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", api.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", api.ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return api.ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s: status %d", api.ErrNetwork, method, path, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
