package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/budgetly/pkg/errhttp"
	"github.com/ghuser/budgetly/pkg/httpx"
	pkgvalidator "github.com/ghuser/budgetly/pkg/validator"
	appsvcs "github.com/ghuser/budgetly/services/budget/application/services"
	"github.com/ghuser/budgetly/services/budget/domain/models"
)

// CreateGoalRequest is the request body for POST /goals.
type CreateGoalRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=255"`
	TargetAmount float64 `json:"targetAmount" validate:"gt=0"`
	Deadline     string  `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

// DepositRequest is the request body for POST /goals/{id}/deposit.
type DepositRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

// GoalResponse is a goal as returned by the API.
type GoalResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	TargetAmount  float64   `json:"targetAmount"`
	CurrentAmount float64   `json:"currentAmount"`
	Deadline      string    `json:"deadline,omitempty"`
	Reached       bool      `json:"reached"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toGoalResponse(g *models.Goal) GoalResponse {
	resp := GoalResponse{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Reached:       g.Reached(),
		CreatedAt:     g.CreatedAt,
	}
	if g.Deadline != nil {
		resp.Deadline = g.Deadline.Format(dateLayout)
	}
	return resp
}

// GoalHandler handles /goals requests.
type GoalHandler struct {
	svc *appsvcs.Services
}

// NewGoalHandler returns a GoalHandler backed by the given services.
func NewGoalHandler(svc *appsvcs.Services) *GoalHandler {
	return &GoalHandler{svc: svc}
}

// Create handles POST /goals.
func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[CreateGoalRequest](w, r)
	if !ok {
		return
	}

	var deadline *time.Time
	if req.Deadline != "" {
		d, _ := time.Parse(dateLayout, req.Deadline) // validated above
		deadline = &d
	}

	g, err := h.svc.Goal.Create(r.Context(), userID, req.Name, req.TargetAmount, deadline)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toGoalResponse(g))
}

// List handles GET /goals.
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	goals, err := h.svc.Goal.List(r.Context(), userID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	out := make([]GoalResponse, len(goals))
	for i, g := range goals {
		out[i] = toGoalResponse(g)
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Deposit handles POST /goals/{id}/deposit.
func (h *GoalHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	goalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "goal id must be a UUID")
		return
	}
	req, ok := pkgvalidator.ValidateRequest[DepositRequest](w, r)
	if !ok {
		return
	}

	g, err := h.svc.Goal.Deposit(r.Context(), userID, goalID, req.Amount)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toGoalResponse(g))
}
