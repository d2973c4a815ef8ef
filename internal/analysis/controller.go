// Package analysis implements the request controller that drives a single
// analysis workflow: it issues at most one live request at a time, discards
// responses from superseded requests, and exposes soft cancellation.
//
// The anti-race invariant: at most one analysis outcome is ever observable,
// and it is always the outcome of the most recently started request. Request
// ids are a monotonically increasing generation counter; a completion whose
// id no longer matches the current sentinel is dropped silently.
package analysis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/averios/go-style-studio/internal/domain"
)

// Analyzer is the opaque backend analysis function pair. Implementations are
// expected to be slow (AI inference) and must honor the provided context.
type Analyzer interface {
	// AnalyzeImage runs a style analysis of an uploaded image reference.
	AnalyzeImage(ctx context.Context, imageRef string) (json.RawMessage, error)

	// AnalyzeCatalogItem runs a style analysis of a catalog item.
	AnalyzeCatalogItem(ctx context.Context, itemID string) (json.RawMessage, error)
}

// Outcome is the terminal result of one analysis request. Exactly one of
// Payload/Err is meaningful. Outcomes for superseded requests are never
// delivered.
type Outcome struct {
	Request domain.AnalysisRequest
	Payload json.RawMessage
	Err     error
}

// Sink receives outcomes of current (non-superseded) requests. It is invoked
// from the completion goroutine without any controller lock held; callers
// that also mutate the controller concurrently should re-check IsCurrent
// under their own serialization before applying the outcome.
type Sink func(Outcome)

// Controller issues analysis requests and filters their completions. It is
// safe for concurrent use.
type Controller struct {
	analyzer Analyzer
	sink     Sink
	now      func() time.Time

	mu      sync.Mutex
	seq     int64 // last issued request id
	current int64 // sentinel: id whose outcome may be observed; 0 = none
}

// NewController constructs a Controller delivering outcomes to sink.
func NewController(a Analyzer, sink Sink) *Controller {
	return &Controller{analyzer: a, sink: sink, now: time.Now}
}

// Start records a new current request and invokes the backend asynchronously.
// It never blocks on the backend call. Calling Start while a request is in
// flight supersedes the previous request: its response will be discarded on
// arrival. The created request is returned for correlation.
func (c *Controller) Start(ctx context.Context, kind domain.SourceKind, ref, image, label string) domain.AnalysisRequest {
	c.mu.Lock()
	c.seq++
	id := c.seq
	c.current = id
	c.mu.Unlock()

	req := domain.AnalysisRequest{
		ID:          id,
		SourceKind:  kind,
		SourceRef:   ref,
		SourceImage: image,
		SourceLabel: label,
		StartedAt:   c.now().UTC(),
	}

	go c.run(ctx, req)
	return req
}

// run performs the backend call and delivers the outcome unless the request
// was superseded or cancelled while in flight.
func (c *Controller) run(ctx context.Context, req domain.AnalysisRequest) {
	tr := otel.Tracer("analysis/Controller")
	ctx, span := tr.Start(ctx, "run",
		trace.WithAttributes(
			attribute.Int64("analysis.request_id", req.ID),
			attribute.String("analysis.source_kind", string(req.SourceKind)),
		),
	)
	defer span.End()

	var (
		payload json.RawMessage
		err     error
	)
	switch req.SourceKind {
	case domain.SourceImageUpload:
		payload, err = c.analyzer.AnalyzeImage(ctx, req.SourceRef)
	default:
		payload, err = c.analyzer.AnalyzeCatalogItem(ctx, req.SourceRef)
	}

	if !c.IsCurrent(req.ID) {
		// Stale response: a newer request was started or the user cancelled
		// while this one was in flight. Not an error; no state mutation.
		supersededTotal.Inc()
		return
	}
	if c.sink != nil {
		c.sink(Outcome{Request: req, Payload: payload, Err: err})
	}
}

// Cancel advances the current-id sentinel without starting a new request, so
// any in-flight response is discarded when it arrives. Cancellation is soft:
// the transport-level call is not necessarily aborted, only its effects are
// suppressed.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.current != 0 {
		c.seq++
		c.current = 0
	}
	c.mu.Unlock()
}

// IsCurrent reports whether id is still the observable request id.
func (c *Controller) IsCurrent(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return id != 0 && id == c.current
}

// Current returns the current request id, or 0 when none is live.
func (c *Controller) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}
