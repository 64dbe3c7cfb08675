package document

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-facture/internal/cache"
	"github.com/noah-isme/backend-facture/internal/common"
	"github.com/noah-isme/backend-facture/internal/events"
	"github.com/noah-isme/backend-facture/internal/obs"
	"github.com/noah-isme/backend-facture/internal/tenant"
	"github.com/noah-isme/backend-facture/internal/totals"
)

const expireBatchSize = 100

// Emitter records domain events.
type Emitter interface {
	Emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) (events.Event, error)
}

// HistoryReader lists the events recorded for one document.
type HistoryReader interface {
	ListByAggregate(ctx context.Context, tenantID string, aggregateID uuid.UUID) ([]events.Event, error)
}

// Service implements the invoice and quote use cases on top of the totals engine.
type Service struct {
	store         Store
	cache         *cache.JSON
	memo          *cache.Memo
	events        Emitter
	history       HistoryReader
	validate      *validator.Validate
	logger        zerolog.Logger
	currency      string
	quoteValidity time.Duration
	paymentTerms  time.Duration
	defaultLimit  int
	maxLimit      int
	exportMaxRows int
	clock         func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store         Store
	Cache         *cache.JSON
	Memo          *cache.Memo
	Events        Emitter
	History       HistoryReader
	Validator     *validator.Validate
	Logger        zerolog.Logger
	Currency      string
	QuoteValidity time.Duration
	PaymentTerms  time.Duration
	DefaultLimit  int
	MaxLimit      int
	ExportMaxRows int
	Clock         func() time.Time
}

// NewService constructs a Service, filling defaults for unset options.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		store:         cfg.Store,
		cache:         cfg.Cache,
		memo:          cfg.Memo,
		events:        cfg.Events,
		history:       cfg.History,
		validate:      cfg.Validator,
		logger:        cfg.Logger,
		currency:      strings.ToUpper(strings.TrimSpace(cfg.Currency)),
		quoteValidity: cfg.QuoteValidity,
		paymentTerms:  cfg.PaymentTerms,
		defaultLimit:  cfg.DefaultLimit,
		maxLimit:      cfg.MaxLimit,
		exportMaxRows: cfg.ExportMaxRows,
		clock:         cfg.Clock,
	}
	if s.validate == nil {
		s.validate = NewValidator()
	}
	if s.currency == "" {
		s.currency = "EUR"
	}
	if s.quoteValidity <= 0 {
		s.quoteValidity = 30 * 24 * time.Hour
	}
	if s.paymentTerms <= 0 {
		s.paymentTerms = 30 * 24 * time.Hour
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = 20
	}
	if s.maxLimit <= 0 {
		s.maxLimit = 100
	}
	if s.exportMaxRows <= 0 {
		s.exportMaxRows = 5000
	}
	return s
}

func (s *Service) now() time.Time {
	if s.clock != nil {
		return s.clock().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) defaults(now time.Time) dateDefaults {
	return dateDefaults{
		now:           now,
		currency:      s.currency,
		quoteValidity: s.quoteValidity,
		paymentTerms:  s.paymentTerms,
	}
}

// Create validates the input, computes totals and stores a new draft. Quotes are numbered
// immediately, invoices when they are issued.
func (s *Service) Create(ctx context.Context, tenantID string, in Input) (Document, error) {
	ctx, span := obs.Start(ctx, "document.Create", attribute.String("document.kind", string(in.Kind)))
	doc, err := s.create(ctx, tenantID, in)
	obs.End(span, err)
	return doc, err
}

func (s *Service) create(ctx context.Context, tenantID string, in Input) (Document, error) {
	if !in.Kind.Valid() {
		return Document{}, common.ValidationError("invalid payload", ErrInvalidInput, map[string]string{"kind": "oneof=invoice quote"})
	}
	if err := s.validate.Struct(in); err != nil {
		return Document{}, validationError(err)
	}
	now := s.now()
	doc := Document{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Kind:      in.Kind,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(&doc, s.defaults(now))

	err := s.store.WithTx(ctx, func(tx Store) error {
		if doc.Kind == KindQuote {
			if err := s.assignNumber(ctx, tx, &doc, now); err != nil {
				return err
			}
		}
		return tx.Insert(ctx, doc)
	})
	if err != nil {
		return Document{}, err
	}
	obs.IncTotalsCalculation(string(doc.Kind))
	obs.IncDocumentMutation(string(doc.Kind), "create")
	s.remember(ctx, doc)
	s.emit(ctx, tenantID, events.TopicDocumentCreated, doc.ID, documentPayload(doc))
	return doc, nil
}

// Get returns one document, reading through the Redis cache.
func (s *Service) Get(ctx context.Context, tenantID string, id uuid.UUID) (Document, error) {
	key := cache.KeyDocument(tenantID, id)
	var cached Document
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		obs.IncDocumentCache("hit")
		return cached, nil
	} else if err != nil {
		log := obs.Log(ctx, s.logger)
		log.Warn().Err(err).Str("key", key).Msg("document cache read failed")
	}
	obs.IncDocumentCache("miss")
	doc, err := s.store.Get(ctx, tenantID, id)
	if err != nil {
		return Document{}, err
	}
	s.remember(ctx, doc)
	return doc, nil
}

// ListResult is one page of documents.
type ListResult struct {
	Items   []Document
	Total   int
	Page    int
	PerPage int
}

// List returns a page of documents, newest first.
func (s *Service) List(ctx context.Context, tenantID string, f Filter) (ListResult, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return ListResult{}, common.NewAppError("BAD_REQUEST", "unknown kind", http.StatusBadRequest, ErrInvalidInput)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = s.defaultLimit
	}
	if f.PerPage > s.maxLimit {
		f.PerPage = s.maxLimit
	}
	items, total, err := s.store.List(ctx, tenantID, f)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total, Page: f.Page, PerPage: f.PerPage}, nil
}

// Update replaces the editable content of a draft and recomputes its totals.
func (s *Service) Update(ctx context.Context, tenantID string, id uuid.UUID, in Input) (Document, error) {
	if err := s.validate.Struct(in); err != nil {
		return Document{}, validationError(err)
	}
	now := s.now()
	var doc Document
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		doc, err = tx.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if in.Kind != "" && in.Kind != doc.Kind {
			return common.NewAppError("BAD_REQUEST", "kind cannot change", http.StatusBadRequest, ErrInvalidInput)
		}
		if !doc.Editable() {
			return ErrNotEditable
		}
		in.apply(&doc, s.defaults(now))
		doc.UpdatedAt = now
		return tx.Update(ctx, doc)
	})
	if err != nil {
		return Document{}, err
	}
	obs.IncTotalsCalculation(string(doc.Kind))
	obs.IncDocumentMutation(string(doc.Kind), "update")
	s.forget(ctx, tenantID, id)
	s.emit(ctx, tenantID, events.TopicDocumentUpdated, doc.ID, documentPayload(doc))
	return doc, nil
}

// Delete removes a draft.
func (s *Service) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	var doc Document
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		doc, err = tx.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if !doc.Editable() {
			return ErrNotEditable
		}
		return tx.Delete(ctx, tenantID, id)
	})
	if err != nil {
		return err
	}
	obs.IncDocumentMutation(string(doc.Kind), "delete")
	s.forget(ctx, tenantID, id)
	s.emit(ctx, tenantID, events.TopicDocumentDeleted, id, map[string]any{"kind": doc.Kind, "number": doc.Number})
	return nil
}

// Transition moves a document along its lifecycle. Issuing an invoice assigns its number.
// Conversion is only reachable through ConvertQuote.
func (s *Service) Transition(ctx context.Context, tenantID string, id uuid.UUID, to Status) (Document, error) {
	ctx, span := obs.Start(ctx, "document.Transition",
		attribute.String("document.id", id.String()),
		attribute.String("document.status_to", string(to)),
	)
	doc, err := s.transition(ctx, tenantID, id, to)
	obs.End(span, err)
	return doc, err
}

func (s *Service) transition(ctx context.Context, tenantID string, id uuid.UUID, to Status) (Document, error) {
	if to == StatusConverted {
		return Document{}, fmt.Errorf("%w: use convert", ErrInvalidTransition)
	}
	now := s.now()
	var (
		doc  Document
		from Status
	)
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		doc, err = tx.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		from = doc.Status
		if !CanTransition(doc.Kind, from, to) {
			return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, doc.Kind, from, to)
		}
		if doc.Kind == KindInvoice && to == StatusIssued && doc.Number == "" {
			if err := s.assignNumber(ctx, tx, &doc, now); err != nil {
				return err
			}
		}
		doc.Status = to
		doc.UpdatedAt = now
		return tx.Update(ctx, doc)
	})
	if err != nil {
		return Document{}, err
	}
	obs.IncDocumentMutation(string(doc.Kind), "transition")
	s.forget(ctx, tenantID, id)
	s.emit(ctx, tenantID, events.TopicDocumentStatusChanged, id, map[string]any{
		"kind":   doc.Kind,
		"from":   from,
		"to":     to,
		"number": doc.Number,
	})
	return doc, nil
}

// ConvertQuote turns an accepted quote into a new draft invoice carrying the same lines and
// discount. The quote becomes converted in the same transaction.
func (s *Service) ConvertQuote(ctx context.Context, tenantID string, quoteID uuid.UUID) (Document, error) {
	ctx, span := obs.Start(ctx, "document.ConvertQuote", attribute.String("document.id", quoteID.String()))
	invoice, err := s.convertQuote(ctx, tenantID, quoteID)
	obs.End(span, err)
	return invoice, err
}

func (s *Service) convertQuote(ctx context.Context, tenantID string, quoteID uuid.UUID) (Document, error) {
	now := s.now()
	var invoice Document
	err := s.store.WithTx(ctx, func(tx Store) error {
		quote, err := tx.GetForUpdate(ctx, tenantID, quoteID)
		if err != nil {
			return err
		}
		if quote.Kind != KindQuote {
			return fmt.Errorf("%w: only quotes can be converted", ErrInvalidTransition)
		}
		if !CanTransition(KindQuote, quote.Status, StatusConverted) {
			return fmt.Errorf("%w: quote is %s", ErrInvalidTransition, quote.Status)
		}
		invoice = invoiceFromQuote(quote, now, s.paymentTerms)
		if err := tx.Insert(ctx, invoice); err != nil {
			return err
		}
		quote.Status = StatusConverted
		quote.UpdatedAt = now
		return tx.Update(ctx, quote)
	})
	if err != nil {
		return Document{}, err
	}
	obs.IncTotalsCalculation(string(KindInvoice))
	obs.IncDocumentMutation(string(KindQuote), "convert")
	obs.IncDocumentMutation(string(KindInvoice), "create")
	s.forget(ctx, tenantID, quoteID)
	s.remember(ctx, invoice)
	s.emit(ctx, tenantID, events.TopicQuoteConverted, quoteID, map[string]any{"invoiceId": invoice.ID})
	s.emit(ctx, tenantID, events.TopicDocumentCreated, invoice.ID, documentPayload(invoice))
	return invoice, nil
}

func invoiceFromQuote(quote Document, now time.Time, terms time.Duration) Document {
	issue := dateOnly(now)
	due := issue.Add(terms)
	sourceID := quote.ID
	invoice := Document{
		ID:            uuid.New(),
		TenantID:      quote.TenantID,
		Kind:          KindInvoice,
		Status:        StatusDraft,
		ClientName:    quote.ClientName,
		ClientEmail:   quote.ClientEmail,
		Currency:      quote.Currency,
		IssueDate:     issue,
		DueDate:       &due,
		Notes:         quote.Notes,
		Lines:         append([]Line(nil), quote.Lines...),
		Discount:      quote.Discount,
		SourceQuoteID: &sourceID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	invoice.Recalculate()
	return invoice
}

// ExpireQuotes marks sent quotes whose validity ended before the day of now as expired, across
// all tenants. It returns how many quotes changed.
func (s *Service) ExpireQuotes(ctx context.Context, now time.Time) (int, error) {
	ctx, span := obs.Start(ctx, "document.ExpireQuotes")
	n, err := s.expireQuotes(ctx, now)
	span.SetAttributes(attribute.Int("quotes.expired", n))
	obs.End(span, err)
	obs.AddQuotesExpired(n)
	return n, err
}

func (s *Service) expireQuotes(ctx context.Context, now time.Time) (int, error) {
	cutoff := dateOnly(now)
	expired := 0
	for {
		batch, err := s.store.ListExpirable(ctx, cutoff, expireBatchSize)
		if err != nil {
			return expired, err
		}
		for _, candidate := range batch {
			changed, err := s.expireOne(ctx, candidate, cutoff, now)
			if err != nil {
				return expired, err
			}
			if changed {
				expired++
			}
		}
		if len(batch) < expireBatchSize {
			return expired, nil
		}
	}
}

func (s *Service) expireOne(ctx context.Context, candidate Document, cutoff, now time.Time) (bool, error) {
	ctx = tenant.With(ctx, candidate.TenantID)
	changed := false
	err := s.store.WithTx(ctx, func(tx Store) error {
		doc, err := tx.GetForUpdate(ctx, candidate.TenantID, candidate.ID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if doc.Kind != KindQuote || doc.Status != StatusSent || doc.ValidUntil == nil || !doc.ValidUntil.Before(cutoff) {
			return nil
		}
		doc.Status = StatusExpired
		doc.UpdatedAt = now.UTC()
		changed = true
		return tx.Update(ctx, doc)
	})
	if err != nil || !changed {
		return false, err
	}
	s.forget(ctx, candidate.TenantID, candidate.ID)
	s.emit(ctx, candidate.TenantID, events.TopicQuoteExpired, candidate.ID, map[string]any{
		"number":     candidate.Number,
		"validUntil": candidate.ValidUntil,
	})
	return true, nil
}

// Preview computes totals for an unsaved form. Identical requests within the memo TTL reuse
// the previous result.
func (s *Service) Preview(kind Kind, items []totals.LineItem, discount totals.Discount) totals.Result {
	if !kind.Valid() {
		kind = KindInvoice
	}
	key := ""
	if fp, err := common.Fingerprint(struct {
		Items    []totals.LineItem `json:"i"`
		Discount totals.Discount   `json:"d"`
	}{items, discount}); err == nil {
		key = cache.KeyPreview(string(kind), fp)
	}
	if key != "" {
		if v, ok := s.memo.Get(key); ok {
			if res, ok := v.(totals.Result); ok {
				return res
			}
		}
	}
	res := totals.Calculate(items, discount)
	obs.IncTotalsCalculation(string(kind))
	if key != "" {
		s.memo.Set(key, res)
	}
	return res
}

// ExportList returns the documents matching f for spreadsheet export, capped at the configured
// row limit.
func (s *Service) ExportList(ctx context.Context, tenantID string, f Filter) ([]Document, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, common.NewAppError("BAD_REQUEST", "unknown kind", http.StatusBadRequest, ErrInvalidInput)
	}
	f.Page = 1
	f.PerPage = s.exportMaxRows
	items, _, err := s.store.List(ctx, tenantID, f)
	return items, err
}

// History returns the recorded events of a document, oldest first.
func (s *Service) History(ctx context.Context, tenantID string, id uuid.UUID) ([]events.Event, error) {
	if s.history == nil {
		return nil, errors.New("document history not configured")
	}
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}
	out, err := s.history.ListByAggregate(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []events.Event{}
	}
	return out, nil
}

func (s *Service) assignNumber(ctx context.Context, tx Store, doc *Document, now time.Time) error {
	seq, err := tx.NextNumber(ctx, doc.TenantID, doc.Kind, now.Year())
	if err != nil {
		return err
	}
	doc.Number = FormatNumber(doc.Kind, now.Year(), seq)
	return nil
}

func (s *Service) remember(ctx context.Context, doc Document) {
	key := cache.KeyDocument(doc.TenantID, doc.ID)
	if err := s.cache.SetJSON(ctx, key, doc); err != nil {
		log := obs.Log(ctx, s.logger)
		log.Warn().Err(err).Str("key", key).Msg("document cache write failed")
	}
}

func (s *Service) forget(ctx context.Context, tenantID string, id uuid.UUID) {
	key := cache.KeyDocument(tenantID, id)
	if err := s.cache.Delete(ctx, key); err != nil {
		log := obs.Log(ctx, s.logger)
		log.Warn().Err(err).Str("key", key).Msg("document cache invalidation failed")
	}
}

// emit records an event after the change committed. Failures are logged only.
func (s *Service) emit(ctx context.Context, tenantID, topic string, id uuid.UUID, payload any) {
	if s.events == nil {
		return
	}
	ctx = tenant.With(ctx, tenantID)
	if _, err := s.events.Emit(ctx, topic, id, payload); err != nil {
		log := obs.Log(ctx, s.logger)
		log.Error().Err(err).Str("topic", topic).Str("aggregate_id", id.String()).Msg("emit domain event")
	}
}

func documentPayload(doc Document) map[string]any {
	return map[string]any{
		"kind":         doc.Kind,
		"number":       doc.Number,
		"status":       doc.Status,
		"currency":     doc.Currency,
		"totalWithVAT": doc.Totals.TotalWithVAT,
	}
}
