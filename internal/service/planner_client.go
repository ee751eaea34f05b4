package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/pkg/circuitbreaker"
	"github.com/piccolojnr/planning-platform/pkg/config"
	"github.com/piccolojnr/planning-platform/pkg/metrics"
	"github.com/piccolojnr/planning-platform/pkg/trace"
)

// PlannerClient calls the hosted AI functions that generate chat responses,
// project plans, and subtask lists. One circuit breaker guards all three
// endpoints; the upstream is a single deployment.
type PlannerClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

func NewPlannerClient(cfg config.PlannerConfig) *PlannerClient {
	// trip faster than the defaults: planner calls are slow and user-facing
	cbConfig := circuitbreaker.DefaultConfig()
	cbConfig.FailureThreshold = 3
	cbConfig.HalfOpenMaxRequests = 2

	return &PlannerClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			// Plan generation is slow; chat responses ride the same client.
			Timeout: 60 * time.Second,
		},
		cb: circuitbreaker.NewCircuitBreaker(cbConfig),
	}
}

type chatRequest struct {
	Messages []model.ChatMessage `json:"messages"`
}

// ChatResponse is the planner's answer to one conversation turn. Plan is
// non-nil when the model decided the conversation has enough detail to
// propose a full plan.
type ChatResponse struct {
	Content string             `json:"content"`
	Plan    *model.ProjectPlan `json:"plan,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type planRequest struct {
	Messages []model.ChatMessage `json:"messages"`
}

type subtaskRequest struct {
	TaskName        string   `json:"task_name"`
	TaskDescription string   `json:"task_description"`
	Requirements    []string `json:"requirements"`
}

// GenerateResponse sends the conversation and returns the assistant's reply,
// possibly carrying a proposed plan.
func (c *PlannerClient) GenerateResponse(ctx context.Context, messages []model.ChatMessage) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.post(ctx, "/generate-ai-response", chatRequest{Messages: messages}, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("planner error: %s", out.Error)
	}
	return &out, nil
}

// GeneratePlan asks for a full project plan derived from the conversation.
func (c *PlannerClient) GeneratePlan(ctx context.Context, messages []model.ChatMessage) (*model.ProjectPlan, error) {
	var out model.ProjectPlan
	if err := c.post(ctx, "/generate-project-plan", planRequest{Messages: messages}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateSubtasks asks for a subtask breakdown of one task.
func (c *PlannerClient) GenerateSubtasks(ctx context.Context, taskName, taskDescription string, requirements []string) (*model.SubtaskPlan, error) {
	req := subtaskRequest{
		TaskName:        taskName,
		TaskDescription: taskDescription,
		Requirements:    requirements,
	}
	var out model.SubtaskPlan
	if err := c.post(ctx, "/generate-subtasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// post runs one JSON round trip through the circuit breaker, recording
// per-endpoint latency with the outcome as the status label.
func (c *PlannerClient) post(ctx context.Context, endpoint string, body, out any) error {
	return c.cb.Execute(func() error {
		start := time.Now()
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(b))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		if traceID := trace.FromContext(ctx); traceID != "" {
			req.Header.Set(trace.HeaderName(), traceID)
		}

		resp, err := c.httpClient.Do(req)
		latency := time.Since(start)
		if err != nil {
			metrics.RecordPlannerCallLatency(endpoint, "error", latency)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			metrics.RecordPlannerCallLatency(endpoint, "5xx", latency)
			return fmt.Errorf("planner 5xx: %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			metrics.RecordPlannerCallLatency(endpoint, fmt.Sprintf("%d", resp.StatusCode), latency)
			return fmt.Errorf("planner error: %d", resp.StatusCode)
		}

		metrics.RecordPlannerCallLatency(endpoint, "success", latency)
		return json.NewDecoder(resp.Body).Decode(out)
	})
}
