package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/budgetly/pkg/logger"
	budgetdomain "github.com/ghuser/budgetly/services/budget/domain"
	domainevents "github.com/ghuser/budgetly/services/budget/domain/events"
	"github.com/ghuser/budgetly/services/budget/domain/models"
	"github.com/ghuser/budgetly/services/budget/domain/repositories"
)

// GoalService manages savings goals and raises GOAL_DEPOSIT when a deposit
// takes a goal to or over its target.
type GoalService struct {
	repo      repositories.GoalRepository
	publisher EventPublisher
	log       logger.Logger
}

// NewGoalService returns a GoalService. publisher may be nil, in which case
// no events are raised.
func NewGoalService(repo repositories.GoalRepository, publisher EventPublisher, log logger.Logger) *GoalService {
	return &GoalService{repo: repo, publisher: publisher, log: log}
}

// Create persists a new goal with nothing saved yet.
func (s *GoalService) Create(ctx context.Context, userID, name string, target float64, deadline *time.Time) (*models.Goal, error) {
	if !validAmount(target) {
		return nil, budgetdomain.ErrInvalidAmount
	}
	goal := models.NewGoal(userID, strings.TrimSpace(name), target, deadline)
	if err := s.repo.Save(ctx, goal); err != nil {
		return nil, fmt.Errorf("save goal: %w", err)
	}
	s.log.InfoContext(ctx, "goal created", "goal_id", goal.ID)
	return goal, nil
}

// List returns all of the user's goals.
func (s *GoalService) List(ctx context.Context, userID string) ([]*models.Goal, error) {
	goals, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// Deposit adds amount to the user's goal. A goal owned by someone else is
// reported as ErrGoalNotFound.
func (s *GoalService) Deposit(ctx context.Context, userID string, goalID uuid.UUID, amount float64) (*models.Goal, error) {
	if !validAmount(amount) {
		return nil, budgetdomain.ErrInvalidAmount
	}

	goal, err := s.repo.AddDeposit(ctx, userID, goalID, amount)
	if err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}
	s.log.InfoContext(ctx, "deposit made to goal", "goal_id", goal.ID, "amount", amount)

	if goal.Reached() && s.publisher != nil {
		event := domainevents.NewGoalDepositEvent(domainevents.GoalDepositPayload{
			UserID:        userID,
			GoalID:        goal.ID.String(),
			GoalName:      goal.Name,
			CurrentAmount: goal.CurrentAmount,
			TargetAmount:  goal.TargetAmount,
		}, logger.CorrelationID(ctx))
		if s.publisher.PublishEvent(ctx, event) {
			s.log.InfoContext(ctx, "goal reached event published", "goal_id", goal.ID)
		}
	}
	return goal, nil
}
