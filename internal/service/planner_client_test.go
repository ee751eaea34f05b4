package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/pkg/circuitbreaker"
	"github.com/piccolojnr/planning-platform/pkg/config"
	"github.com/piccolojnr/planning-platform/pkg/trace"
)

func newTestPlanner(t *testing.T, handler http.HandlerFunc) *PlannerClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPlannerClient(config.PlannerConfig{BaseURL: srv.URL, APIKey: "test-key"})
}

func TestGenerateResponse(t *testing.T) {
	var gotPath, gotAuth, gotTrace string
	planner := newTestPlanner(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotTrace = r.Header.Get(trace.HeaderName())

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)

		json.NewEncoder(w).Encode(ChatResponse{Content: "tell me more"})
	})

	ctx := trace.WithContext(context.Background(), "trace-123")
	resp, err := planner.GenerateResponse(ctx, []model.ChatMessage{
		{Role: model.ChatRoleUser, Content: "I want to build a web shop"},
	})
	require.NoError(t, err)

	assert.Equal(t, "tell me more", resp.Content)
	assert.Nil(t, resp.Plan)
	assert.Equal(t, "/generate-ai-response", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "trace-123", gotTrace)
}

func TestGenerateResponse_UpstreamError(t *testing.T) {
	planner := newTestPlanner(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{Error: "model overloaded"})
	})

	_, err := planner.GenerateResponse(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestGeneratePlan(t *testing.T) {
	planner := newTestPlanner(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-project-plan", r.URL.Path)
		json.NewEncoder(w).Encode(model.ProjectPlan{
			ProjectName:      "Web Shop",
			DevelopmentModel: model.ModelAgile,
			Tasks: []model.PlanTask{
				{Name: "Setup", Duration: 2},
				{Name: "Checkout", Duration: 5, Dependencies: []string{"Setup"}},
			},
			Requirements: []string{"payments"},
		})
	})

	plan, err := planner.GeneratePlan(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 2)
	assert.Equal(t, []string{"Setup"}, plan.Tasks[1].Dependencies)
}

func TestGenerateSubtasks(t *testing.T) {
	planner := newTestPlanner(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-subtasks", r.URL.Path)
		var req subtaskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Checkout", req.TaskName)

		json.NewEncoder(w).Encode(model.SubtaskPlan{
			Subtasks: []model.PlanSubtask{{Name: "Cart page"}, {Name: "Payment flow"}},
		})
	})

	plan, err := planner.GenerateSubtasks(context.Background(), "Checkout", "build checkout", []string{"payments"})
	require.NoError(t, err)
	assert.Len(t, plan.Subtasks, 2)
}

func TestPlannerCircuitBreakerOpensOn5xx(t *testing.T) {
	planner := newTestPlanner(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := planner.GeneratePlan(ctx, nil)
		require.Error(t, err)
	}

	// Threshold reached; the next call is rejected without a request.
	_, err := planner.GeneratePlan(ctx, nil)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitBreakerOpen)
}
