package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/budgetly/pkg/auth"
	"github.com/ghuser/budgetly/pkg/events"
	"github.com/ghuser/budgetly/pkg/logger"
	appsvcs "github.com/ghuser/budgetly/services/budget/application/services"
	budgetdomain "github.com/ghuser/budgetly/services/budget/domain"
	domainevents "github.com/ghuser/budgetly/services/budget/domain/events"
	"github.com/ghuser/budgetly/services/budget/domain/models"
)

type memGoals struct{ goals map[uuid.UUID]*models.Goal }

func (m *memGoals) Save(_ context.Context, g *models.Goal) error {
	m.goals[g.ID] = g
	return nil
}

func (m *memGoals) FindByUserID(context.Context, string) ([]*models.Goal, error) {
	return nil, nil
}

func (m *memGoals) AddDeposit(_ context.Context, userID string, id uuid.UUID, amount float64) (*models.Goal, error) {
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return nil, budgetdomain.ErrGoalNotFound
	}
	g.CurrentAmount += amount
	cp := *g
	return &cp, nil
}

type router struct {
	http.Handler
	goal *models.Goal
	msgs <-chan domainevents.Envelope
}

func newRouter(t *testing.T) *router {
	t.Helper()
	ctx := context.Background()

	broker := events.NewInMemoryBroker(logger.Discard())
	require.NoError(t, broker.Connect(ctx))
	t.Cleanup(func() { _ = broker.Close() })

	sub, err := broker.Subscribe(ctx, events.ExchangeName)
	require.NoError(t, err)
	out := make(chan domainevents.Envelope, 4)
	go func() {
		for msg := range sub {
			var env domainevents.Envelope
			if err := json.Unmarshal(msg.Payload, &env); err == nil {
				out <- env
			}
			msg.Ack()
		}
	}()

	goal := models.NewGoal("u1", "Holiday", 5000, nil)
	goal.CurrentAmount = 4500
	svcs := &appsvcs.Services{
		Goal: appsvcs.NewGoalService(&memGoals{goals: map[uuid.UUID]*models.Goal{goal.ID: goal}},
			events.NewPublisher(broker, logger.Discard()), logger.Discard()),
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if u := req.Header.Get("X-Test-User"); u != "" {
				req = req.WithContext(auth.WithUserID(req.Context(), u))
			}
			next.ServeHTTP(w, req)
		})
	})
	Routes(r, svcs)
	return &router{Handler: r, goal: goal, msgs: out}
}

func (rt *router) do(method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rr := httptest.NewRecorder()
	rt.ServeHTTP(rr, req)
	return rr
}

func TestRoutes_RequireUser(t *testing.T) {
	rt := newRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/categories"},
		{http.MethodPost, "/transactions"},
		{http.MethodGet, "/budgets/2025/3"},
		{http.MethodPost, "/goals/" + rt.goal.ID.String() + "/deposit"},
	} {
		rr := rt.do(tc.method, tc.path, "", `{}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRoutes_BadInput(t *testing.T) {
	rt := newRouter(t)

	rr := rt.do(http.MethodPost, "/goals/not-a-uuid/deposit", "u1", `{"amount":10}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = rt.do(http.MethodPost, "/goals/"+rt.goal.ID.String()+"/deposit", "u1", `{"amount":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = rt.do(http.MethodPost, "/goals/"+rt.goal.ID.String()+"/deposit", "u1", `{"amount":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = rt.do(http.MethodGet, "/budgets/2025/13", "u1", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = rt.do(http.MethodPost, "/transactions", "u1", `{"categoryId":"x","amount":5,"type":"EXPENSE","date":"2025-03-01"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRoutes_DepositOnForeignGoalIsNotFound(t *testing.T) {
	rt := newRouter(t)

	rr := rt.do(http.MethodPost, "/goals/"+rt.goal.ID.String()+"/deposit", "intruder", `{"amount":10}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRoutes_DepositReachingTargetPublishes(t *testing.T) {
	rt := newRouter(t)

	rr := rt.do(http.MethodPost, "/goals/"+rt.goal.ID.String()+"/deposit", "u1", `{"amount":500}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		CurrentAmount float64 `json:"currentAmount"`
		Reached       bool    `json:"reached"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.InDelta(t, 5000, body.CurrentAmount, 1e-9)
	assert.True(t, body.Reached)

	select {
	case env := <-rt.msgs:
		assert.Equal(t, domainevents.TypeGoalDeposit, env.Type)
		p, err := env.GoalDeposit()
		require.NoError(t, err)
		assert.Equal(t, rt.goal.ID.String(), p.GoalID)
	case <-time.After(2 * time.Second):
		t.Fatalf("no %s event published", domainevents.TypeGoalDeposit)
	}
}
