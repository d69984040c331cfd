package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bartab/backend/internal/ledger"
	"github.com/bartab/backend/internal/logger"
	"github.com/bartab/backend/internal/services"
	"github.com/bartab/backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type TabHandler struct {
	service   *services.TabService
	validator *services.ValidationHelper
	log       zerolog.Logger
}

func NewTabHandler(service *services.TabService, log zerolog.Logger) *TabHandler {
	return &TabHandler{
		service:   service,
		validator: services.NewValidationHelper(),
		log:       log.With().Str("component", "TabHandler").Logger(),
	}
}

// Routes mounts the customer endpoints on r.
func (h *TabHandler) Routes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.ListCustomers)
		r.Post("/", h.CreateCustomer)
		r.Delete("/", h.ClearAll)

		r.Route("/{customerId}", func(r chi.Router) {
			r.Get("/", h.GetStatement)
			r.Put("/", h.RenameCustomer)
			r.Delete("/", h.DeleteCustomer)
			r.Post("/charges", h.AddCharge)
			r.Post("/charges/quick", h.QuickCharge)
			r.Post("/payments", h.AddPayment)
			r.Post("/pending/confirm", h.ConfirmAllPending)
			r.Post("/pending/{index}/confirm", h.ConfirmPending)
			r.Delete("/pending/{index}", h.CancelPending)
			r.Post("/reset", h.ResetLedger)
		})
	})
}

type customerRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type chargeRequest struct {
	Title     string           `json:"title" validate:"max=100"`
	UnitPrice *decimal.Decimal `json:"unitPrice" validate:"required"`
	Quantity  *int             `json:"quantity" validate:"omitempty,gte=1,lte=1000"`
}

type paymentRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

// ListCustomers lists customer statements
// @Summary List customers
// @Description List every customer with totals, optionally filtered by name
// @Tags customers
// @Produce json
// @Param q query string false "Case-insensitive name filter"
// @Success 200 {object} object{customers=[]models.Statement}
// @Failure 503 {object} services.ErrorResponse
// @Router /customers [get]
func (h *TabHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	statements, err := h.service.ListCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": statements})
}

// CreateCustomer registers a customer with an empty tab
// @Summary Create customer
// @Tags customers
// @Accept json
// @Produce json
// @Param request body object{name=string} true "Customer"
// @Success 201 {object} models.Statement
// @Failure 400 {object} services.ErrorResponse
// @Router /customers [post]
func (h *TabHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !h.decode(w, r, &req) {
		return
	}

	statement, err := h.service.CreateCustomer(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, statement)
}

// ClearAll deletes every customer
// @Summary Delete all customers
// @Tags customers
// @Success 204
// @Failure 503 {object} services.ErrorResponse
// @Router /customers [delete]
func (h *TabHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStatement returns a customer's ledger and totals
// @Summary Customer statement
// @Tags customers
// @Produce json
// @Param customerId path string true "Customer ID"
// @Success 200 {object} models.Statement
// @Failure 404 {object} services.ErrorResponse
// @Router /customers/{customerId} [get]
func (h *TabHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	statement, err := h.service.Statement(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

// RenameCustomer changes a customer's display name
// @Summary Rename customer
// @Tags customers
// @Accept json
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param request body object{name=string} true "New name"
// @Success 200 {object} models.Statement
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /customers/{customerId} [put]
func (h *TabHandler) RenameCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !h.decode(w, r, &req) {
		return
	}

	statement, err := h.service.RenameCustomer(r.Context(), chi.URLParam(r, "customerId"), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

// DeleteCustomer removes a customer and their tab
// @Summary Delete customer
// @Tags customers
// @Param customerId path string true "Customer ID"
// @Success 204
// @Router /customers/{customerId} [delete]
func (h *TabHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCustomer(r.Context(), chi.URLParam(r, "customerId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddCharge queues a pending charge
// @Summary Add pending charge
// @Tags ledger
// @Accept json
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param request body object{title=string,unitPrice=string,quantity=int} true "Charge"
// @Success 200 {object} models.Statement
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /customers/{customerId}/charges [post]
func (h *TabHandler) AddCharge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if !h.decode(w, r, &req) {
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	statement, err := h.service.AddCharge(r.Context(), chi.URLParam(r, "customerId"), ledger.ChargeInput{
		Title:     req.Title,
		UnitPrice: *req.UnitPrice,
		Quantity:  quantity,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

// QuickCharge queues one house item
// @Summary Add house item
// @Description Queue one unit of the configured house item (a beer by default)
// @Tags ledger
// @Produce json
// @Param customerId path string true "Customer ID"
// @Success 200 {object} models.Statement
// @Failure 404 {object} services.ErrorResponse
// @Router /customers/{customerId}/charges/quick [post]
func (h *TabHandler) QuickCharge(w http.ResponseWriter, r *http.Request) {
	statement, err := h.service.QuickCharge(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

// AddPayment records a payment against the tab
// @Summary Add payment
// @Tags ledger
// @Accept json
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param request body object{amount=string} true "Payment"
// @Success 200 {object} models.Statement
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /customers/{customerId}/payments [post]
func (h *TabHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	statement, err := h.service.AddPayment(r.Context(), chi.URLParam(r, "customerId"), *req.Amount, "")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

// ConfirmAllPending moves every pending item into purchases
// @Summary Confirm all pending
// @Tags ledger
// @Produce json
// @Param customerId path string true "Customer ID"
// @Success 200 {object} models.Statement
// @Failure 404 {object} services.ErrorResponse
// @Router /customers/{customerId}/pending/confirm [post]
func (h *TabHandler) ConfirmAllPending(w http.ResponseWriter, r *http.Request) {
	statement, err := h.service.ConfirmAllPending(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

// ConfirmPending moves one pending item into purchases
// @Summary Confirm pending item
// @Tags ledger
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param index path int true "Position in the pending list"
// @Success 200 {object} models.Statement
// @Failure 400 {object} services.ErrorResponse
// @Router /customers/{customerId}/pending/{index}/confirm [post]
func (h *TabHandler) ConfirmPending(w http.ResponseWriter, r *http.Request) {
	index, ok := h.pendingIndex(w, r)
	if !ok {
		return
	}

	statement, err := h.service.ConfirmPending(r.Context(), chi.URLParam(r, "customerId"), index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

// CancelPending discards one pending item
// @Summary Cancel pending item
// @Tags ledger
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param index path int true "Position in the pending list"
// @Success 200 {object} models.Statement
// @Failure 400 {object} services.ErrorResponse
// @Router /customers/{customerId}/pending/{index} [delete]
func (h *TabHandler) CancelPending(w http.ResponseWriter, r *http.Request) {
	index, ok := h.pendingIndex(w, r)
	if !ok {
		return
	}

	statement, err := h.service.CancelPending(r.Context(), chi.URLParam(r, "customerId"), index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

// ResetLedger clears purchases, payments and pending items
// @Summary Reset tab
// @Tags ledger
// @Produce json
// @Param customerId path string true "Customer ID"
// @Success 200 {object} models.Statement
// @Failure 404 {object} services.ErrorResponse
// @Router /customers/{customerId}/reset [post]
func (h *TabHandler) ResetLedger(w http.ResponseWriter, r *http.Request) {
	statement, err := h.service.ResetLedger(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

func (h *TabHandler) pendingIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		services.SendErrorResponse(w, "Pending index must be an integer", http.StatusBadRequest, nil)
		return 0, false
	}
	return index, true
}

func (h *TabHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := h.validator.ValidateStruct(dst); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

func (h *TabHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, ledger.ErrInvalidName):
		status, message = http.StatusBadRequest, "Customer name must not be empty"
	case errors.Is(err, ledger.ErrInvalidAmount):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, ledger.ErrIndexOutOfRange):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrNotFound):
		status, message = http.StatusNotFound, "Customer not found"
	case errors.Is(err, store.ErrVersionConflict):
		status, message = http.StatusConflict, "Customer was modified concurrently, reload and retry"
	case errors.Is(err, store.ErrStorageUnavailable):
		status, message = http.StatusServiceUnavailable, "Storage unavailable"
	}

	if status >= http.StatusInternalServerError {
		log := h.log
		if reqLog, ok := r.Context().Value(logger.LoggerKey).(zerolog.Logger); ok {
			log = reqLog
		}
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	services.SendErrorResponse(w, message, status, nil)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
