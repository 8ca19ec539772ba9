// Package controller binds user interactions to order sessions: every event
// mutates one session, re-renders it and publishes the new view.
package controller

import (
	"context"
	"errors"

	"diner/internal/catalog"
	"diner/internal/metrics"
	"diner/internal/models"
	"diner/internal/monitoring"
	"diner/internal/order"
	"diner/internal/render"
	"diner/internal/session"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "diner/controller"

// Publisher receives the view of a session after every successful change.
// Publish runs while the session is locked and must not call back into the
// controller.
type Publisher interface {
	Publish(sessionID string, view render.PageView)
}

// Options configures a Controller. Catalog, Store and Processor are required.
type Options struct {
	Catalog   *catalog.Catalog
	Store     *session.Store
	Processor order.PaymentProcessor
	Publisher Publisher
	Metrics   *metrics.MetricsCollector
	Monitor   *monitoring.Monitor
	Logger    *log.Logger
}

// Controller is the interaction controller shared by all transports
type Controller struct {
	catalog   *catalog.Catalog
	menuRows  []render.CatalogRow
	store     *session.Store
	processor order.PaymentProcessor
	publisher Publisher
	metrics   *metrics.MetricsCollector
	monitor   *monitoring.Monitor
	logger    *log.Logger
	tracer    trace.Tracer
}

// New creates a controller; the catalog is rendered once here
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Controller{
		catalog:   opts.Catalog,
		menuRows:  render.Catalog(opts.Catalog.Entries()),
		store:     opts.Store,
		processor: opts.Processor,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		monitor:   opts.Monitor,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Menu returns the rendered catalog rows
func (c *Controller) Menu() []render.CatalogRow {
	out := make([]render.CatalogRow, len(c.menuRows))
	copy(out, c.menuRows)
	return out
}

// Start opens a new session and returns its id with the initial view
func (c *Controller) Start(ctx context.Context) (string, render.PageView, error) {
	_, span := c.tracer.Start(ctx, "order.start")
	defer span.End()

	id := c.store.Create()
	span.SetAttributes(attribute.String("session.id", id))
	c.sessionsChanged()
	if c.monitor != nil {
		c.monitor.Increment("sessions_started")
	}
	c.logger.WithField("session", id).Debug("session started")

	snap, err := c.store.Snapshot(id)
	if err != nil {
		return "", render.PageView{}, err
	}
	return id, render.Page(c.Menu(), snap), nil
}

// View renders the current state of a session
func (c *Controller) View(ctx context.Context, sessionID string) (render.PageView, error) {
	snap, err := c.store.Snapshot(sessionID)
	if err != nil {
		return render.PageView{}, err
	}
	return render.Page(c.Menu(), snap), nil
}

// Add appends the item named by rawID to the session's order
func (c *Controller) Add(ctx context.Context, sessionID, rawID string) (render.PageView, error) {
	id, err := c.parseID(rawID)
	if err != nil {
		return c.viewWithError(ctx, sessionID, err)
	}
	return c.mutate(ctx, sessionID, "add", []attribute.KeyValue{attribute.Int("item.id", int(id))}, func(s *order.Session) error {
		line, err := s.Add(id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				c.recordMiss("add")
			}
			return err
		}
		if c.metrics != nil {
			c.metrics.RecordItemAdded(line.Name)
		}
		return nil
	})
}

// Remove drops one line for the item named by rawID
func (c *Controller) Remove(ctx context.Context, sessionID, rawID string) (render.PageView, error) {
	id, err := c.parseID(rawID)
	if err != nil {
		return c.viewWithError(ctx, sessionID, err)
	}
	return c.mutate(ctx, sessionID, "remove", []attribute.KeyValue{attribute.Int("item.id", int(id))}, func(s *order.Session) error {
		line, err := s.Remove(id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, order.ErrNotInOrder) {
				c.recordMiss("remove")
			}
			return err
		}
		if c.metrics != nil {
			c.metrics.RecordItemRemoved(line.Name)
		}
		return nil
	})
}

// Complete opens the payment prompt
func (c *Controller) Complete(ctx context.Context, sessionID string) (render.PageView, error) {
	return c.mutate(ctx, sessionID, "complete", nil, func(s *order.Session) error {
		return s.Complete()
	})
}

// Cancel closes the payment prompt
func (c *Controller) Cancel(ctx context.Context, sessionID string) (render.PageView, error) {
	return c.mutate(ctx, sessionID, "cancel", nil, func(s *order.Session) error {
		return s.Cancel()
	})
}

// Pay submits the payment form
func (c *Controller) Pay(ctx context.Context, sessionID string, details order.PaymentDetails) (render.PageView, error) {
	return c.mutate(ctx, sessionID, "pay", nil, func(s *order.Session) error {
		conf, err := s.Submit(ctx, c.processor, details)
		if err != nil {
			return err
		}
		if c.metrics != nil {
			c.metrics.RecordCheckout(conf.Total)
		}
		if c.monitor != nil {
			c.monitor.RecordCheckout(conf.Reference, conf.Total)
		}
		c.logger.WithFields(log.Fields{
			"session":   sessionID,
			"reference": conf.Reference,
			"total":     conf.Total.String(),
		}).Info("order submitted")
		return nil
	})
}

// Expired updates bookkeeping for sessions dropped by the store
func (c *Controller) Expired(ids []string) {
	c.sessionsChanged()
	c.logger.WithField("count", len(ids)).Info("idle sessions expired")
}

// End drops a session on request of its owner
func (c *Controller) End(ctx context.Context, sessionID string) {
	c.store.Delete(sessionID)
	c.sessionsChanged()
	c.logger.WithField("session", sessionID).Debug("session ended")
}

func (c *Controller) mutate(ctx context.Context, sessionID, op string, attrs []attribute.KeyValue, fn func(s *order.Session) error) (render.PageView, error) {
	ctx, span := c.tracer.Start(ctx, "order."+op, trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()
	span.SetAttributes(attrs...)

	var (
		before order.State
		snap   order.Snapshot
		view   render.PageView
		opErr  error
	)
	// publishing happens under the session lock so subscribers see views
	// in mutation order
	err := c.store.Do(sessionID, func(s *order.Session) error {
		before = s.State()
		opErr = fn(s)
		snap = s.Snapshot()
		view = render.Page(c.Menu(), snap)
		if opErr == nil && c.publisher != nil {
			c.publisher.Publish(sessionID, view)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return render.PageView{}, err
	}

	span.SetAttributes(
		attribute.String("order.state", string(snap.State)),
		attribute.Int("order.lines", len(snap.Lines)),
		attribute.Int64("order.total_cents", int64(snap.Total)),
	)

	entry := c.logger.WithFields(log.Fields{"session": sessionID, "op": op, "state": snap.State})
	if opErr != nil {
		span.RecordError(opErr)
		span.SetStatus(codes.Error, opErr.Error())
		entry.WithError(opErr).Info("order action rejected")
		return view, opErr
	}

	if snap.State != before && c.metrics != nil {
		c.metrics.RecordTransition(string(snap.State))
	}
	entry.WithField("total", snap.Total.String()).Debug("order updated")
	return view, nil
}

func (c *Controller) parseID(rawID string) (models.ItemID, error) {
	id, err := models.ParseItemID(rawID)
	if err != nil && c.metrics != nil {
		c.metrics.RecordInvalidID()
	}
	return id, err
}

// viewWithError returns the unchanged view together with err, unless the
// session itself is unknown
func (c *Controller) viewWithError(ctx context.Context, sessionID string, err error) (render.PageView, error) {
	view, viewErr := c.View(ctx, sessionID)
	if viewErr != nil {
		return render.PageView{}, viewErr
	}
	return view, err
}

func (c *Controller) recordMiss(op string) {
	if c.metrics != nil {
		c.metrics.RecordLookupMiss(op)
	}
}

func (c *Controller) sessionsChanged() {
	n := c.store.Len()
	if c.metrics != nil {
		c.metrics.SetActiveSessions(n)
	}
	if c.monitor != nil {
		c.monitor.RecordMetric("active_sessions", n)
	}
}
