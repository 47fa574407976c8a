package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/budgetly/pkg/errhttp"
	"github.com/ghuser/budgetly/pkg/httpx"
	pkgvalidator "github.com/ghuser/budgetly/pkg/validator"
	appsvcs "github.com/ghuser/budgetly/services/budget/application/services"
	"github.com/ghuser/budgetly/services/budget/domain/models"
)

// CreateCategoryRequest is the request body for POST /categories.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
	Icon string `json:"icon" validate:"max=16"`
}

// CategoryResponse is a category as returned by the API.
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

func toCategoryResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name.String(),
		Icon:      c.Icon,
		IsDefault: c.IsDefault,
		CreatedAt: c.CreatedAt,
	}
}

// CategoryHandler handles /categories requests.
type CategoryHandler struct {
	svc *appsvcs.Services
}

// NewCategoryHandler returns a CategoryHandler backed by the given services.
func NewCategoryHandler(svc *appsvcs.Services) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// Create handles POST /categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[CreateCategoryRequest](w, r)
	if !ok {
		return
	}

	c, err := h.svc.Category.Create(r.Context(), userID, req.Name, req.Icon)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toCategoryResponse(c))
}

// List handles GET /categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	categories, err := h.svc.Category.List(r.Context(), userID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	out := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		out[i] = toCategoryResponse(c)
	}
	httpx.JSON(w, http.StatusOK, out)
}
