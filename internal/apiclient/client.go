package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"framereel/internal/api"
)

// ErrAPIUnavailable reports that no daemon address is configured.
var ErrAPIUnavailable = errors.New("daemon API unavailable")

// DefaultTimeout bounds CLI requests that do not run a pipeline.
const DefaultTimeout = 15 * time.Second

// Error is a non-2xx response from the daemon.
type Error struct {
	Status  int
	Message string
	Kind    string
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Kind != "" {
		return fmt.Sprintf("daemon returned %d (%s): %s", e.Status, e.Kind, msg)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.Status, msg)
}

// Client issues requests against the daemon API.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// JobQuery filters the job history listing.
type JobQuery struct {
	Status  string
	Dataset string
	Limit   int
}

// New returns a client for the daemon listening on bind. An empty bind
// returns a nil client.
func New(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		// Pipeline runs are synchronous; callers bound them with ctx.
		http:  &http.Client{},
		token: strings.TrimSpace(token),
	}, nil
}

// Generate triggers a GIF run for the dataset and waits for it to finish.
func (c *Client) Generate(ctx context.Context, id string) (api.GenerateResponse, error) {
	var resp api.GenerateResponse
	err := c.get(ctx, "/gif/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// Analyze runs the R analysis for the dataset.
func (c *Client) Analyze(ctx context.Context, id string) (api.AnalysisResponse, error) {
	var resp api.AnalysisResponse
	err := c.get(ctx, "/r/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// Result fetches the parsed result view for the dataset.
func (c *Client) Result(ctx context.Context, id string) (api.ResultView, error) {
	var resp api.ResultView
	err := c.get(ctx, "/api/results/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// Status fetches daemon status.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var resp api.DaemonStatus
	err := c.get(ctx, "/api/status", nil, &resp)
	return resp, err
}

// Jobs lists job history.
func (c *Client) Jobs(ctx context.Context, q JobQuery) ([]api.Job, error) {
	values := url.Values{}
	if strings.TrimSpace(q.Status) != "" {
		values.Set("status", q.Status)
	}
	if strings.TrimSpace(q.Dataset) != "" {
		values.Set("dataset", q.Dataset)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	var resp api.JobListResponse
	if err := c.get(ctx, "/api/jobs", values, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Job fetches one job by id.
func (c *Client) Job(ctx context.Context, id string) (api.Job, error) {
	var resp api.JobResponse
	err := c.get(ctx, "/api/jobs/"+url.PathEscape(id), nil, &resp)
	return resp.Job, err
}

func (c *Client) get(ctx context.Context, path string, values url.Values, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	ref := &url.URL{Path: path}
	if len(values) > 0 {
		ref.RawQuery = values.Encode()
	}
	endpoint := c.base.ResolveReference(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &Error{Status: resp.StatusCode}
	var payload api.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Kind = payload.Kind
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// StatusCode returns the HTTP status of an *Error, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsAPIUnavailable reports whether err means the daemon could not be reached.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
