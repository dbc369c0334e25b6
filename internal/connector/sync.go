package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ArpitKhatri1/docusign-connector/internal/auth"
	"github.com/ArpitKhatri1/docusign-connector/internal/config"
	"github.com/ArpitKhatri1/docusign-connector/internal/docusign"
	"github.com/ArpitKhatri1/docusign-connector/internal/metrics"
)

// api is the DocuSign client surface the orchestrator consumes (allows
// mocking in tests). *docusign.Client satisfies it.
type api interface {
	ListEnvelopes(ctx context.Context, fromDate string) ([]docusign.Envelope, error)
	Recipients(ctx context.Context, envelopeID string) ([]docusign.Recipient, error)
	AuditEvents(ctx context.Context, envelopeID string) ([]docusign.AuditEvent, error)
	Notifications(ctx context.Context, envelopeID string) ([]docusign.Notification, error)
	Documents(ctx context.Context, envelopeID string) ([]docusign.Document, error)
	DocumentContent(ctx context.Context, envelopeID, documentID string) ([]byte, error)
	Tabs(ctx context.Context, envelopeID string) ([]docusign.Tab, error)
	CustomFields(ctx context.Context, envelopeID string) ([]docusign.CustomField, error)
	ListTemplates(ctx context.Context) ([]docusign.Template, error)
}

// Connector drives incremental syncs against the DocuSign API.
type Connector struct {
	logger  Logger
	workers int

	// Test seams.
	now    func() time.Time
	newAPI func(ctx context.Context, configuration map[string]string) (api, error)
}

// Option configures the connector.
type Option func(*Connector)

// WithWorkers enables bounded parallelism across envelopes. The default is
// sequential processing (one worker).
func WithWorkers(n int) Option {
	return func(c *Connector) {
		if n > 1 {
			c.workers = n
		}
	}
}

// New creates a connector that logs through the given host logger.
func New(logger Logger, opts ...Option) *Connector {
	c := &Connector{
		logger:  logger,
		workers: 1,
		now:     time.Now,
	}
	c.newAPI = c.buildAPI
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// buildAPI validates the configuration, performs the initial token
// exchange, and returns an authenticated API client.
func (c *Connector) buildAPI(ctx context.Context, configuration map[string]string) (api, error) {
	cfg, err := config.FromMap(configuration)
	if err != nil {
		return nil, err
	}

	authn := auth.New(cfg, auth.WithLogger(c.slog()))
	if _, err := authn.Token(ctx); err != nil {
		return nil, err
	}

	return docusign.NewClient(cfg.BaseURL, cfg.AccountID, authn,
		docusign.WithLogger(c.slog())), nil
}

// slog unwraps the host logger back to *slog.Logger for subcomponents.
func (c *Connector) slog() *slog.Logger {
	if sl, ok := c.logger.(SlogLogger); ok {
		return sl.L
	}
	return slog.Default()
}

// Update runs one sync: envelopes since the watermark with their child
// resources, then the full template list, then exactly one checkpoint.
// Configuration and authentication failures abort before any row is
// emitted; a 401 anywhere aborts without a checkpoint.
func (c *Connector) Update(ctx context.Context, configuration map[string]string, state *State, ops Operations) error {
	start := time.Now()
	runID := uuid.NewString()
	c.logger.Info("starting DocuSign connector sync", "run_id", runID)

	client, err := c.newAPI(ctx, configuration)
	if err != nil {
		c.logger.Severe("sync aborted", "run_id", runID, "error", err.Error())
		metrics.SyncsTotal.WithLabelValues("error").Inc()
		return err
	}

	st := seedState(state)
	// The next watermark is captured before traversal so records changed
	// mid-sync are picked up again on the following run.
	next := c.now().UTC().Format(watermarkLayout)

	sink := ops
	if c.workers > 1 {
		sink = &serializedOps{ops: ops}
	}

	envelopes, err := client.ListEnvelopes(ctx, st.LastEnvelopeSync)
	if err != nil {
		if fatal(err) {
			metrics.SyncsTotal.WithLabelValues("error").Inc()
			return err
		}
		// Envelope phase is lost, but templates and the checkpoint still
		// proceed.
		c.logger.Severe("failed to fetch envelopes", "error", err.Error())
		envelopes = nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, env := range envelopes {
		env := env
		g.Go(func() error {
			return c.syncEnvelope(gctx, client, env, sink)
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Severe("sync aborted", "run_id", runID, "error", err.Error())
		metrics.SyncsTotal.WithLabelValues("error").Inc()
		return err
	}
	c.logger.Info("processed envelopes and related data", "count", len(envelopes))

	templates, err := client.ListTemplates(ctx)
	if err != nil {
		if fatal(err) {
			metrics.SyncsTotal.WithLabelValues("error").Inc()
			return err
		}
		c.logger.Severe("failed to fetch templates", "error", err.Error())
		templates = nil
	}
	for _, t := range templates {
		row, ok := normalizeTemplate(t, c.logger)
		if !ok {
			continue
		}
		if err := c.upsert(sink, TableTemplates, row); err != nil {
			return err
		}
	}
	c.logger.Info("upserted templates", "count", len(templates))

	// Never checkpoint a cancelled sync.
	if err := ctx.Err(); err != nil {
		metrics.SyncsTotal.WithLabelValues("cancelled").Inc()
		return err
	}

	if err := sink.Checkpoint(State{LastEnvelopeSync: next, LastTemplateSync: next}); err != nil {
		metrics.SyncsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("checkpoint failed: %w", err)
	}

	metrics.SyncsTotal.WithLabelValues("success").Inc()
	metrics.SyncDuration.Observe(time.Since(start).Seconds())
	c.logger.Info("DocuSign connector sync completed", "run_id", runID,
		"envelopes", len(envelopes), "templates", len(templates))
	return nil
}

// syncEnvelope emits the envelope row and then its child resources. Child
// fetcher failures degrade to empty lists; only auth failures and
// cancellation propagate.
func (c *Connector) syncEnvelope(ctx context.Context, client api, env docusign.Envelope, ops Operations) error {
	row, ok := normalizeEnvelope(env, c.logger)
	if !ok {
		return nil
	}
	if err := c.upsert(ops, TableEnvelopes, row); err != nil {
		return err
	}
	id := env.EnvelopeID

	// One fetch of the shared recipients endpoint feeds both recipient
	// tables.
	recipients, err := client.Recipients(ctx, id)
	if err != nil {
		if fatal(err) {
			return err
		}
		c.logger.Warning("could not fetch recipients", "envelope_id", id, "error", err.Error())
		recipients = nil
	}
	for _, r := range recipients {
		if row, ok := normalizeRecipient(id, r, c.logger); ok {
			if err := c.upsert(ops, TableRecipients, row); err != nil {
				return err
			}
		}
	}
	for _, r := range recipients {
		if row, ok := normalizeEnhancedRecipient(id, r, c.logger); ok {
			if err := c.upsert(ops, TableEnhancedRecipients, row); err != nil {
				return err
			}
		}
	}

	events, err := client.AuditEvents(ctx, id)
	if err != nil {
		if fatal(err) {
			return err
		}
		c.logger.Warning("could not fetch audit events", "envelope_id", id, "error", err.Error())
		events = nil
	}
	for _, ev := range events {
		if row, ok := normalizeAuditEvent(id, ev, c.logger); ok {
			if err := c.upsert(ops, TableAuditEvents, row); err != nil {
				return err
			}
		}
	}

	notifications, err := client.Notifications(ctx, id)
	if err != nil {
		if fatal(err) {
			return err
		}
		c.logger.Warning("could not fetch notifications", "envelope_id", id, "error", err.Error())
		notifications = nil
	}
	for _, n := range notifications {
		if row, ok := normalizeNotification(id, n, c.logger); ok {
			if err := c.upsert(ops, TableEnvelopeNotifications, row); err != nil {
				return err
			}
		}
	}

	documents, err := client.Documents(ctx, id)
	if err != nil {
		if fatal(err) {
			return err
		}
		c.logger.Warning("could not fetch documents", "envelope_id", id, "error", err.Error())
		documents = nil
	}
	for _, d := range documents {
		row, ok := normalizeDocument(id, d, c.logger)
		if !ok {
			continue
		}
		if err := c.upsert(ops, TableDocuments, row); err != nil {
			return err
		}

		content, err := client.DocumentContent(ctx, id, d.DocumentID)
		if err != nil || content == nil {
			// Binary downloads never fail the sync; the document row
			// stands without its content row.
			c.logger.Warning("could not fetch document content",
				"envelope_id", id, "document_id", d.DocumentID)
			continue
		}
		contentRow := normalizeDocumentContent(id, d.DocumentID, content)
		if err := c.upsert(ops, TableDocumentContents, contentRow); err != nil {
			return err
		}
	}

	fields, err := client.CustomFields(ctx, id)
	if err != nil {
		if fatal(err) {
			return err
		}
		c.logger.Warning("could not fetch custom fields", "envelope_id", id, "error", err.Error())
		fields = nil
	}
	for _, f := range fields {
		if row, ok := normalizeCustomField(id, f, c.logger); ok {
			if err := c.upsert(ops, TableCustomFields, row); err != nil {
				return err
			}
		}
	}

	tabs, err := client.Tabs(ctx, id)
	if err != nil {
		if fatal(err) {
			return err
		}
		c.logger.Warning("could not fetch tabs", "envelope_id", id, "error", err.Error())
		tabs = nil
	}
	for _, tab := range tabs {
		if row, ok := normalizeTab(id, tab, c.logger); ok {
			if err := c.upsert(ops, TableDocumentTabs, row); err != nil {
				return err
			}
		}
	}

	return nil
}

// upsert pushes one row to the sink and records it.
func (c *Connector) upsert(ops Operations, table string, row Row) error {
	if err := ops.Upsert(table, row); err != nil {
		return fmt.Errorf("upsert into %s failed: %w", table, err)
	}
	metrics.RowsUpsertedTotal.WithLabelValues(table).Inc()
	return nil
}

// seedState fills missing watermarks with the initial cursor.
func seedState(state *State) State {
	st := State{
		LastEnvelopeSync: initialWatermark,
		LastTemplateSync: initialWatermark,
	}
	if state != nil {
		if state.LastEnvelopeSync != "" {
			st.LastEnvelopeSync = state.LastEnvelopeSync
		}
		if state.LastTemplateSync != "" {
			st.LastTemplateSync = state.LastTemplateSync
		}
	}
	return st
}

// fatal reports whether an error must abort the sync without a checkpoint:
// authentication failures and cancellation.
func fatal(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if auth.IsAuthError(err) {
		return true
	}
	var apiErr *docusign.Error
	return errors.As(err, &apiErr) && apiErr.IsAuth()
}

// serializedOps guards a host sink that is not safe for concurrent use.
type serializedOps struct {
	mu  sync.Mutex
	ops Operations
}

func (s *serializedOps) Upsert(table string, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ops.Upsert(table, row)
}

func (s *serializedOps) Checkpoint(state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ops.Checkpoint(state)
}
