package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/budgetly/pkg/errhttp"
	"github.com/ghuser/budgetly/pkg/httpx"
	pkgvalidator "github.com/ghuser/budgetly/pkg/validator"
	appsvcs "github.com/ghuser/budgetly/services/budget/application/services"
	"github.com/ghuser/budgetly/services/budget/domain/models"
)

// SetLimitRequest is the request body for PUT /budgets/{year}/{month}/limits.
type SetLimitRequest struct {
	CategoryID  string  `json:"categoryId" validate:"required,uuid"`
	LimitAmount float64 `json:"limitAmount" validate:"gt=0"`
}

// BudgetLimitResponse is one category limit.
type BudgetLimitResponse struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"categoryId"`
	LimitAmount float64   `json:"limitAmount"`
}

// BudgetResponse is a month's budget with its limits.
type BudgetResponse struct {
	ID     uuid.UUID             `json:"id"`
	Month  int                   `json:"month"`
	Year   int                   `json:"year"`
	Limits []BudgetLimitResponse `json:"limits"`
}

// BudgetHandler handles /budgets requests.
type BudgetHandler struct {
	svc *appsvcs.Services
}

// NewBudgetHandler returns a BudgetHandler backed by the given services.
func NewBudgetHandler(svc *appsvcs.Services) *BudgetHandler {
	return &BudgetHandler{svc: svc}
}

// SetLimit handles PUT /budgets/{year}/{month}/limits.
func (h *BudgetHandler) SetLimit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	period, ok := periodParam(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[SetLimitRequest](w, r)
	if !ok {
		return
	}

	limit, err := h.svc.Budget.SetLimit(r.Context(), userID, period, uuid.MustParse(req.CategoryID), req.LimitAmount)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, BudgetLimitResponse{
		ID:          limit.ID,
		CategoryID:  limit.CategoryID,
		LimitAmount: limit.LimitAmount,
	})
}

// Get handles GET /budgets/{year}/{month}.
func (h *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	b, err := h.svc.Budget.Get(r.Context(), userID, period)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	resp := BudgetResponse{
		ID:     b.ID,
		Month:  b.Period.Month,
		Year:   b.Period.Year,
		Limits: make([]BudgetLimitResponse, len(b.Limits)),
	}
	for i, l := range b.Limits {
		resp.Limits[i] = BudgetLimitResponse{ID: l.ID, CategoryID: l.CategoryID, LimitAmount: l.LimitAmount}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func periodParam(w http.ResponseWriter, r *http.Request) (models.Period, bool) {
	year, yErr := strconv.Atoi(chi.URLParam(r, "year"))
	month, mErr := strconv.Atoi(chi.URLParam(r, "month"))
	if yErr != nil || mErr != nil {
		httpx.JSONError(w, http.StatusBadRequest, "year and month must be integers")
		return models.Period{}, false
	}
	p, err := models.NewPeriod(month, year)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error())
		return models.Period{}, false
	}
	return p, true
}
