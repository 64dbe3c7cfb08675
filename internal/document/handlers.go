package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-facture/internal/common"
	"github.com/noah-isme/backend-facture/internal/obs"
	"github.com/noah-isme/backend-facture/internal/tenant"
	"github.com/noah-isme/backend-facture/internal/totals"
)

// Handler exposes document and totals endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Routes mounts the document endpoints on r. Tenant resolution happens upstream; writes wraps
// the mutating endpoints only (idempotency keys).
func (h *Handler) Routes(r chi.Router, writes ...func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/export.xlsx", h.ExportXLSX)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/pdf", h.PDF)
	r.Get("/{id}/events", h.Events)
	r.Group(func(w chi.Router) {
		w.Use(writes...)
		w.Post("/", h.Create)
		w.Put("/{id}", h.Update)
		w.Delete("/{id}", h.Delete)
		w.Post("/{id}/status", h.Transition)
		w.Post("/{id}/convert", h.Convert)
	})
}

type previewRequest struct {
	Kind     Kind              `json:"kind"`
	Items    []json.RawMessage `json:"items"`
	Discount struct {
		Amount json.RawMessage `json:"amount"`
		Type   string          `json:"type"`
	} `json:"discount"`
}

// Preview handles POST /api/v1/totals/preview. Rows are decoded leniently; incomplete rows are
// ignored while out of range discounts are rejected.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "document service not configured", nil)
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, badRequest("body", "invalid payload", err))
		return
	}
	if req.Kind != "" && !req.Kind.Valid() {
		h.writeError(w, badRequest("kind", "kind must be invoice or quote", nil))
		return
	}
	items := totals.ParseLineItems(req.Items)
	discount := totals.Discount{Type: totals.ParseDiscountType(req.Discount.Type)}
	if amount := totals.ParseNumber(req.Discount.Amount); amount.Valid {
		discount.Amount = amount.Decimal
	}

	details := map[string]string{}
	if err := totals.ValidateDiscount(discount.Amount, discount.Type); err != nil {
		details["discount.amount"] = err.Error()
	}
	for i, item := range items {
		if err := totals.ValidateDiscount(item.Discount, item.DiscountType); err != nil {
			details[fmt.Sprintf("items[%d].discount", i)] = err.Error()
		}
	}
	if len(details) > 0 {
		h.writeError(w, common.ValidationError("invalid discount", ErrInvalidInput, details))
		return
	}
	common.Data(w, http.StatusOK, h.service.Preview(req.Kind, items, discount))
}

// List handles GET /api/v1/documents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 0)
	result, err := h.service.List(r.Context(), tenantID, filterFrom(r, page, perPage))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Page(w, result.Items, common.Pagination{Page: result.Page, PerPage: result.PerPage, TotalItems: result.Total})
}

// Create handles POST /api/v1/documents.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, badRequest("body", "invalid payload", err))
		return
	}
	doc, err := h.service.Create(r.Context(), tenantID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Created(w, documentPath(doc.ID), doc)
}

// Get handles GET /api/v1/documents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(r.Context(), tenantID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, doc)
}

// Update handles PUT /api/v1/documents/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, badRequest("body", "invalid payload", err))
		return
	}
	doc, err := h.service.Update(r.Context(), tenantID, id, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, doc)
}

// Delete handles DELETE /api/v1/documents/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), tenantID, id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transition handles POST /api/v1/documents/{id}/status.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var body struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, badRequest("body", "invalid payload", err))
		return
	}
	to := Status(strings.ToLower(strings.TrimSpace(string(body.Status))))
	if to == "" {
		h.writeError(w, badRequest("status", "status is required", nil))
		return
	}
	doc, err := h.service.Transition(r.Context(), tenantID, id, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, doc)
}

// Convert handles POST /api/v1/documents/{id}/convert.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	invoice, err := h.service.ConvertQuote(r.Context(), tenantID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Created(w, documentPath(invoice.ID), invoice)
}

// Events handles GET /api/v1/documents/{id}/events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	history, err := h.service.History(r.Context(), tenantID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, history)
}

// PDF handles GET /api/v1/documents/{id}/pdf.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(r.Context(), tenantID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	start := time.Now()
	data, err := RenderPDF(doc)
	if err != nil {
		h.writeError(w, common.NewAppError("EXPORT_FAILED", "failed to render pdf", http.StatusInternalServerError, err))
		return
	}
	obs.ObserveExport("pdf", obs.DurationMillis(time.Since(start)))
	common.Attachment(w, "application/pdf", exportName(doc)+".pdf", true, data)
}

// ExportXLSX handles GET /api/v1/documents/export.xlsx.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	docs, err := h.service.ExportList(r.Context(), tenantID, filterFrom(r, 1, 0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	start := time.Now()
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, docs); err != nil {
		h.writeError(w, common.NewAppError("EXPORT_FAILED", "failed to build spreadsheet", http.StatusInternalServerError, err))
		return
	}
	obs.ObserveExport("xlsx", obs.DurationMillis(time.Since(start)))
	common.Attachment(w, xlsxContentType, "documents-"+time.Now().UTC().Format("20060102")+".xlsx", false, buf.Bytes())
}

func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "document service not configured", nil)
		return "", false
	}
	tenantID, ok := tenant.From(r.Context())
	if !ok || tenantID == "" {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant is required", nil)
		return "", false
	}
	return tenantID, true
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, badRequest("id", "invalid document id", err))
		return "", uuid.Nil, false
	}
	return tenantID, id, true
}

func filterFrom(r *http.Request, page, perPage int) Filter {
	q := r.URL.Query()
	return Filter{
		Kind:    Kind(strings.ToLower(strings.TrimSpace(q.Get("kind")))),
		Status:  Status(strings.ToLower(strings.TrimSpace(q.Get("status")))),
		Search:  strings.TrimSpace(q.Get("q")),
		Page:    page,
		PerPage: perPage,
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func documentPath(id uuid.UUID) string {
	return "/api/v1/documents/" + id.String()
}

func exportName(doc Document) string {
	if doc.Number != "" {
		return doc.Number
	}
	return string(doc.Kind) + "-" + doc.ID.String()
}

func badRequest(field, msg string, err error) *common.AppError {
	appErr := common.NewAppError("BAD_REQUEST", msg, http.StatusBadRequest, err)
	appErr.Details = map[string]string{"field": field}
	return appErr
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if common.WriteAppError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "document not found", nil)
	case errors.Is(err, ErrNotEditable):
		common.JSONError(w, http.StatusConflict, "NOT_EDITABLE", "only draft documents can be changed", nil)
	case errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
