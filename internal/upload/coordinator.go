// Package upload persists finished profiles and decorates the HTTP response
// that triggered them: profile headers always, a redirect to the hosted view
// when configured.
//
// Storage, profiler and notification failures are logged and absorbed. Losing
// the uploaded copy must never break the request that produced the profile.
package upload

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/appprofiler/internal/metrics"
	"github.com/JakeFAU/appprofiler/internal/profile"
	"github.com/JakeFAU/appprofiler/internal/settings"
	"github.com/JakeFAU/appprofiler/internal/storage"
)

var tracer = otel.Tracer("github.com/JakeFAU/appprofiler/internal/upload")

// Publisher pushes upload notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// UploadedEvent is published after every successful upload.
type UploadedEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Coordinator uploads profiles and builds the resulting response.
type Coordinator struct {
	store     storage.Provider
	profiler  profile.Profiler
	settings  *settings.Store
	publisher Publisher
	topic     string
	logger    *zap.Logger
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithPublisher publishes an UploadedEvent to topic after each successful upload.
func WithPublisher(pub Publisher, topic string) Option {
	return func(c *Coordinator) {
		c.publisher = pub
		c.topic = topic
	}
}

// WithProfiler sets the collaborator drained by Cleanup.
func WithProfiler(p profile.Profiler) Option {
	return func(c *Coordinator) {
		c.profiler = p
	}
}

// NewCoordinator wires a Coordinator.
func NewCoordinator(store storage.Provider, cfg *settings.Store, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = settings.NewStore(settings.Defaults())
	}
	c := &Coordinator{
		store:    store,
		settings: cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cleanup drains the active profiling result. Any failure to obtain it is
// logged and reported as a nil record.
func (c *Coordinator) Cleanup(ctx context.Context) (rec *profile.Record) {
	if c.profiler == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("profiler results panicked", zap.Any("panic", r))
			rec = nil
		}
	}()
	rec, err := c.profiler.Results(ctx)
	if err != nil {
		c.logger.Warn("failed to collect profiler results", zap.Error(err))
		return nil
	}
	return rec
}

// Call uploads rec and decorates resp, or a fresh 200 response when resp is nil.
// A nil autoredirect defers to the configured default. Call never fails: a
// storage error leaves the data header empty and suppresses the redirect.
func (c *Coordinator) Call(ctx context.Context, rec *profile.Record, resp *Response, autoredirect *bool) *Response {
	if resp == nil {
		resp = NewResponse()
	}
	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	if rec == nil {
		c.logger.Warn("no profile to upload")
		return resp
	}

	cfg := c.settings.Load()
	redirect := cfg.Autoredirect
	if autoredirect != nil {
		redirect = *autoredirect
	}

	upload, err := c.upload(ctx, rec)
	uploaded := err == nil
	if uploaded {
		metrics.ObserveUpload(metrics.OutcomeSuccess, len(rec.Raw))
		c.notify(ctx, rec, upload)
	} else {
		metrics.ObserveUpload(metrics.OutcomeFailure, len(rec.Raw))
		c.logger.Warn("profile upload failed",
			zap.String("profile_id", rec.ID),
			zap.Error(err),
		)
	}

	resp.Headers[cfg.ProfileHeader] = rec.ID
	if uploaded {
		resp.Headers[cfg.ProfileDataHeader] = EncodeProfileData(rec.Raw)
	} else {
		resp.Headers[cfg.ProfileDataHeader] = ""
	}

	if redirect && cfg.URLFormatter != nil && uploaded {
		resp.Headers["Location"] = cfg.URLFormatter(upload)
		resp.Status = http.StatusSeeOther
		metrics.ObserveRedirect()
	}
	return resp
}

// upload converts storage panics into errors.
func (c *Coordinator) upload(ctx context.Context, rec *profile.Record) (up profile.Upload, err error) {
	ctx, span := tracer.Start(ctx, "profile.upload", trace.WithAttributes(
		attribute.String("profile.id", rec.ID),
		attribute.Int("profile.bytes", len(rec.Raw)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "upload failed")
		}
		span.End()
	}()
	if c.store == nil {
		return profile.Upload{}, fmt.Errorf("no storage configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("storage upload panicked: %v", r)
		}
	}()
	up, err = c.store.Upload(ctx, rec)
	if err != nil {
		return profile.Upload{}, fmt.Errorf("upload %s: %w", rec.ID, err)
	}
	return up, nil
}

func (c *Coordinator) notify(ctx context.Context, rec *profile.Record, up profile.Upload) {
	if c.publisher == nil {
		return
	}
	event := UploadedEvent{ID: rec.ID, Name: up.Name, URL: up.URL}
	if _, err := c.publisher.Publish(ctx, c.topic, event); err != nil {
		metrics.ObserveNotification(metrics.OutcomeFailure)
		c.logger.Warn("upload notification failed", zap.String("profile_id", rec.ID), zap.Error(err))
		return
	}
	metrics.ObserveNotification(metrics.OutcomeSuccess)
}
