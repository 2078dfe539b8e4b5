package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/pkg/logger"
	"github.com/okian/covidboard/pkg/metrics"
)

const (
	historicalPath        = "/v3/covid-19/historical/all"
	historicalSourceLabel = "live"
	// historicalDateLayout matches keys such as "7/27/20".
	historicalDateLayout = "1/2/06"
)

// BreakerConfig tunes the circuit breaker in front of the historical API.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig trips after three failed requests out of three and
// probes again after a minute.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "historical",
		MaxRequests:      1,
		Interval:         5 * time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 1.0,
		MinRequests:      3,
	}
}

// HistoricalOption configures a Historical client.
type HistoricalOption func(*Historical)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) HistoricalOption {
	return func(h *Historical) {
		if c != nil {
			h.client = c
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) HistoricalOption {
	return func(h *Historical) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithBreaker sets the circuit breaker configuration.
func WithBreaker(cfg BreakerConfig) HistoricalOption {
	return func(h *Historical) { h.breakerCfg = cfg }
}

// WithHistoricalLogger sets the logger.
func WithHistoricalLogger(l logger.Logger) HistoricalOption {
	return func(h *Historical) {
		if l != nil {
			h.log = l
		}
	}
}

// Historical fetches the global cumulative timeline.
// One request per Load; there are no retries.
type Historical struct {
	baseURL    string
	lastDays   string
	client     *http.Client
	timeout    time.Duration
	breakerCfg BreakerConfig
	breaker    *gobreaker.CircuitBreaker
	log        logger.Logger
}

// NewHistorical returns a client for baseURL. lastDays is passed through
// as the lastdays query value ("30", "all").
func NewHistorical(baseURL, lastDays string, opts ...HistoricalOption) *Historical {
	h := &Historical{
		baseURL:    strings.TrimRight(baseURL, "/"),
		lastDays:   lastDays,
		client:     http.DefaultClient,
		timeout:    2 * time.Second,
		breakerCfg: DefaultBreakerConfig(),
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.Named("historical")
	h.breaker = newBreaker(h.breakerCfg, h.log)
	return h
}

func newBreaker(cfg BreakerConfig, log logger.Logger) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		// A caller abandoning the request says nothing about the endpoint.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.UpdateCircuitBreakerState(name, int(to))
			log.Warn(context.Background(), "circuit breaker state changed",
				logger.String("circuit", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	}
	metrics.UpdateCircuitBreakerState(cfg.Name, int(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(settings)
}

// URL returns the request URL.
func (h *Historical) URL() string {
	q := url.Values{}
	q.Set("lastdays", h.lastDays)
	return h.baseURL + historicalPath + "?" + q.Encode()
}

// BreakerState returns the current breaker state.
func (h *Historical) BreakerState() gobreaker.State { return h.breaker.State() }

// Load performs one GET and returns the merged timeline.
func (h *Historical) Load(ctx context.Context) (model.Timeline, error) {
	if h.baseURL == "" {
		return model.Timeline{}, &LoadError{Source: historicalSourceLabel, Err: ErrDisabled}
	}

	start := time.Now()
	v, err := h.breaker.Execute(func() (interface{}, error) {
		return h.fetch(ctx)
	})
	metrics.RecordDatasetLoadLatency(historicalSourceLabel, float64(time.Since(start).Milliseconds()))
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.RecordDatasetLoad(historicalSourceLabel, outcome)
		h.log.Warn(ctx, "timeline load failed", logger.String("url", h.URL()), logger.Error(err))
		return model.Timeline{}, &LoadError{Source: h.URL(), Err: err}
	}

	tl := v.(model.Timeline)
	metrics.RecordDatasetLoad(historicalSourceLabel, "ok")
	metrics.UpdateDatasetRecords(historicalSourceLabel, tl.Len())
	h.log.Info(ctx, "timeline loaded", logger.String("url", h.URL()), logger.Int("points", tl.Len()))
	return tl, nil
}

// historicalBody is the subset of the response we read.
type historicalBody struct {
	Cases  map[string]int64 `json:"cases"`
	Deaths map[string]int64 `json:"deaths"`
}

func (h *Historical) fetch(ctx context.Context) (model.Timeline, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL(), nil)
	if err != nil {
		return model.Timeline{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return model.Timeline{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return model.Timeline{}, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	var body historicalBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Timeline{}, fmt.Errorf("decode: %w", err)
	}
	return MergeTimeline(h.URL(), body.Cases, body.Deaths)
}

// MergeTimeline joins date-keyed case and death counts on the date key.
// A date present in only one mapping gets zero for the other.
func MergeTimeline(src string, cases, deaths map[string]int64) (model.Timeline, error) {
	byDay := make(map[time.Time]*model.TimelinePoint, len(cases))
	get := func(key string) (*model.TimelinePoint, error) {
		d, err := time.Parse(historicalDateLayout, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadDate, key)
		}
		p, ok := byDay[d]
		if !ok {
			p = &model.TimelinePoint{Date: d}
			byDay[d] = p
		}
		return p, nil
	}

	for k, n := range cases {
		p, err := get(k)
		if err != nil {
			return model.Timeline{}, err
		}
		p.Cases = n
	}
	for k, n := range deaths {
		p, err := get(k)
		if err != nil {
			return model.Timeline{}, err
		}
		p.Deaths = n
	}

	points := make([]model.TimelinePoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, *p)
	}
	return model.NewTimeline(src, model.ProvenanceLive, points)
}
