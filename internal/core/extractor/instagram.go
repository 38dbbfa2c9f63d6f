package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Outcome is the result class of one strategy attempt
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
)

// AttemptEvent is emitted once per strategy attempt
type AttemptEvent struct {
	Strategy  string
	Shortcode string
	Outcome   Outcome
	Status    int // upstream HTTP status, 0 when no response was received
	Latency   time.Duration
	Err       error
}

// Observer consumes attempt events. It is called synchronously with the
// context of the request being resolved.
type Observer func(ctx context.Context, ev AttemptEvent)

// Step is a strategy bound to its own timeout
type Step struct {
	Strategy Strategy
	Timeout  time.Duration
}

// InstagramExtractor resolves Instagram URLs by trying its steps in order
// until one yields a result
type InstagramExtractor struct {
	steps   []Step
	observe Observer
}

// Options configures New. Zero values fall back to the defaults.
type Options struct {
	Strategies []string
	Timeouts   map[string]time.Duration
	UserAgent  string
	AppID      string
	DocID      string
	Endpoints  *Endpoints
	HTTPClient *http.Client
}

// NewInstagramExtractor creates an extractor over prebuilt steps
func NewInstagramExtractor(steps []Step, observe Observer) *InstagramExtractor {
	return &InstagramExtractor{steps: steps, observe: observe}
}

// New builds the strategy chain described by opts
func New(opts Options, observe Observer) (*InstagramExtractor, error) {
	c := NewClient()
	if opts.HTTPClient != nil {
		c.HTTP = opts.HTTPClient
	}
	if opts.Endpoints != nil {
		c.Endpoints = *opts.Endpoints
	}
	if opts.UserAgent != "" {
		c.UserAgent = opts.UserAgent
	}
	if opts.AppID != "" {
		c.AppID = opts.AppID
	}
	if opts.DocID != "" {
		c.DocID = opts.DocID
	}

	names := opts.Strategies
	if len(names) == 0 {
		names = DefaultOrder
	}
	strategies, err := Build(c, names)
	if err != nil {
		return nil, err
	}

	steps := make([]Step, len(strategies))
	for i, s := range strategies {
		timeout, ok := opts.Timeouts[s.Name()]
		if !ok || timeout <= 0 {
			timeout = DefaultTimeouts[s.Name()]
		}
		steps[i] = Step{Strategy: s, Timeout: timeout}
	}
	return NewInstagramExtractor(steps, observe), nil
}

func (e *InstagramExtractor) Name() string {
	return "instagram"
}

// Match reports whether u is an Instagram post URL
func (e *InstagramExtractor) Match(u *url.URL) bool {
	_, err := Identify(u.String())
	return err == nil
}

// Extract identifies rawURL and resolves it. Unrecognized input fails with
// ErrNotRecognized before any upstream call.
func (e *InstagramExtractor) Extract(ctx context.Context, rawURL string) (*Result, error) {
	id, err := Identify(rawURL)
	if err != nil {
		return nil, err
	}
	return e.Resolve(ctx, id)
}

// Resolve tries the steps sequentially and returns the first result. It
// returns ErrExhausted when every step failed, or the context error when
// ctx ended first.
func (e *InstagramExtractor) Resolve(ctx context.Context, id Identifier) (*Result, error) {
	for _, step := range e.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := e.attempt(ctx, step, id)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, ErrExhausted
}

func (e *InstagramExtractor) attempt(ctx context.Context, step Step, id Identifier) (*Result, error) {
	sctx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	name := step.Strategy.Name()
	start := time.Now()
	res, err := step.Strategy.Attempt(sctx, id)
	if err == nil && res == nil {
		err = errNoPayload
	}

	ev := AttemptEvent{
		Strategy:  name,
		Shortcode: id.Shortcode,
		Outcome:   OutcomeSuccess,
		Latency:   time.Since(start),
	}
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			ev.Status = se.Status
		}
		ev.Outcome = OutcomeFailure
		if ctx.Err() == nil && errors.Is(sctx.Err(), context.DeadlineExceeded) {
			ev.Outcome = OutcomeTimeout
			err = fmt.Errorf("timed out after %s: %w", step.Timeout, err)
		}
		err = &StrategyError{Strategy: name, Status: ev.Status, Err: err}
		ev.Err = err
	}
	if e.observe != nil {
		e.observe(ctx, ev)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
