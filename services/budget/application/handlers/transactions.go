package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/budgetly/pkg/errhttp"
	"github.com/ghuser/budgetly/pkg/httpx"
	pkgvalidator "github.com/ghuser/budgetly/pkg/validator"
	appsvcs "github.com/ghuser/budgetly/services/budget/application/services"
	"github.com/ghuser/budgetly/services/budget/domain/models"
	"github.com/ghuser/budgetly/services/budget/domain/repositories"
)

const (
	dateLayout       = "2006-01-02"
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// CreateTransactionRequest is the request body for POST /transactions.
type CreateTransactionRequest struct {
	CategoryID  string  `json:"categoryId" validate:"required,uuid"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Type        string  `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	Description string  `json:"description" validate:"max=500"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
}

// TransactionResponse is a transaction as returned by the API.
type TransactionResponse struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"categoryId"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		CategoryID:  t.CategoryID,
		Amount:      t.Amount,
		Type:        string(t.Type),
		Description: t.Description,
		Date:        t.Date.Format(dateLayout),
		CreatedAt:   t.CreatedAt,
	}
}

// TransactionHandler handles /transactions requests.
type TransactionHandler struct {
	svc *appsvcs.Services
}

// NewTransactionHandler returns a TransactionHandler backed by the given services.
func NewTransactionHandler(svc *appsvcs.Services) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

// Create handles POST /transactions.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[CreateTransactionRequest](w, r)
	if !ok {
		return
	}

	date, _ := time.Parse(dateLayout, req.Date) // validated above
	typ, _ := models.ParseTransactionType(req.Type)

	t, err := h.svc.Transaction.Create(r.Context(), userID, appsvcs.CreateTransactionInput{
		CategoryID:  uuid.MustParse(req.CategoryID),
		Amount:      req.Amount,
		Type:        typ,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(t))
}

// List handles GET /transactions?limit=&offset=.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	txs, err := h.svc.Transaction.List(r.Context(), userID, pageOpts(r))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	out := make([]TransactionResponse, len(txs))
	for i, t := range txs {
		out[i] = toTransactionResponse(t)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func pageOpts(r *http.Request) repositories.QueryOpts {
	opts := repositories.QueryOpts{Limit: defaultPageLimit}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		opts.Limit = min(v, maxPageLimit)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		opts.Offset = v
	}
	return opts
}
