package services

import (
	"context"
	"fmt"

	"github.com/ghuser/budgetly/pkg/logger"
	budgetdomain "github.com/ghuser/budgetly/services/budget/domain"
	"github.com/ghuser/budgetly/services/budget/domain/models"
	"github.com/ghuser/budgetly/services/budget/domain/repositories"
	domainsvcs "github.com/ghuser/budgetly/services/budget/domain/services"
)

// CategoryService orchestrates creation and listing of a user's categories.
type CategoryService struct {
	repo repositories.CategoryRepository
	log  logger.Logger
}

// NewCategoryService returns a CategoryService wired with the given repository.
func NewCategoryService(repo repositories.CategoryRepository, log logger.Logger) *CategoryService {
	return &CategoryService{repo: repo, log: log}
}

// Create validates and persists a Category. Names are unique per user.
func (s *CategoryService) Create(ctx context.Context, userID, name, icon string) (*models.Category, error) {
	categoryName, err := models.NewCategoryName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", budgetdomain.ErrInvalidCategoryName, err)
	}

	category := models.NewCategory(userID, categoryName, icon)
	if err := domainsvcs.ValidateCategoryForCreation(category); err != nil {
		return nil, fmt.Errorf("%w: %w", budgetdomain.ErrInvalidCategoryName, err)
	}

	if err := s.repo.Save(ctx, category); err != nil {
		return nil, fmt.Errorf("save category: %w", err)
	}

	s.log.InfoContext(ctx, "category created", "category_id", category.ID, "user_id", userID)
	return category, nil
}

// List returns all of the user's categories.
func (s *CategoryService) List(ctx context.Context, userID string) ([]*models.Category, error) {
	categories, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
