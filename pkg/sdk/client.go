package transparencia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	collectPath    = "/api/portal_transparencia"
	defaultTimeout = 5 * time.Minute
)

// Client is the transparencia SDK entry point.
type Client struct {
	http  *resty.Client
	token string
	obs   *observer
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.baseURL == "" {
		return nil, errors.New("transparencia: base URL required (use WithBaseURL)")
	}
	if cfg.token == "" {
		return nil, errors.New("transparencia: token required (use WithToken)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var hc *resty.Client
	if cfg.httpClient != nil {
		hc = resty.NewWithClient(cfg.httpClient)
	} else {
		hc = resty.New()
	}
	hc.SetBaseURL(strings.TrimRight(cfg.baseURL, "/"))
	hc.SetTimeout(cfg.timeout)
	hc.SetHeader("Accept", "application/json")
	if cfg.retries > 0 {
		hc.SetRetryCount(cfg.retries)
		hc.AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	}

	return &Client{http: hc, token: cfg.token, obs: obs}, nil
}

// Collect asks the service for the benefits of term (a CPF/NIS or a name),
// optionally refined by filter. A search without results, or a filter that
// matches nothing, returns a *ValidationError.
func (c *Client) Collect(ctx context.Context, term, filter string) (result *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("collect", start, err) }()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetHeader("Content-Type", "application/json").
		SetBody(collectRequest{Term: term, Filter: filter}).
		Post(collectPath)
	if err != nil {
		return nil, fmt.Errorf("transparencia: collect: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apiError(resp.StatusCode(), resp.Body())
	}

	var body collectResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("transparencia: decode collect response: %w", err)
	}
	if body.Message != nil {
		return nil, &ValidationError{Message: *body.Message}
	}
	if body.Benefits == nil {
		body.Benefits = []Benefit{}
	}
	return &body.Result, nil
}

func apiError(status int, raw []byte) error {
	var body errorBody
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		msg = body.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
