package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
)

type fakeTasks struct {
	tasks map[int64]*model.Task
}

func (f *fakeTasks) GetByID(_ context.Context, id int64) (*model.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return t, nil
}

type fakeRequirements struct {
	byTask      map[int64][]model.Requirement
	listedTasks []int64 // task ids ListByTask was asked for
}

func (f *fakeRequirements) Insert(context.Context, *model.Requirement) error { return nil }
func (f *fakeRequirements) ListByProject(context.Context, int64) ([]model.Requirement, error) {
	return nil, nil
}
func (f *fakeRequirements) ListByTask(_ context.Context, taskID int64) ([]model.Requirement, error) {
	f.listedTasks = append(f.listedTasks, taskID)
	return f.byTask[taskID], nil
}
func (f *fakeRequirements) Update(context.Context, *model.Requirement) error { return nil }
func (f *fakeRequirements) Delete(context.Context, int64) error              { return nil }
func (f *fakeRequirements) Link(context.Context, int64, int64) error         { return nil }
func (f *fakeRequirements) Unlink(context.Context, int64, int64) error       { return nil }

// Routes the handler under /projects/1 with access already resolved, the way
// the project middleware leaves it.
func requirementTestRouter(requirements *fakeRequirements, tasks *fakeTasks) *gin.Engine {
	h := NewRequirementHandler(requirements, tasks, nil, zap.NewNop())
	r := gin.New()
	r.GET("/projects/:projectID/tasks/:taskID/requirements", func(c *gin.Context) {
		c.Set(ctxProjectID, int64(1))
	}, h.ListByTask)
	return r
}

func TestListRequirementsByTask(t *testing.T) {
	requirements := &fakeRequirements{byTask: map[int64][]model.Requirement{
		7: {{ID: 1, ProjectID: 1, Content: "supports login"}},
	}}
	tasks := &fakeTasks{tasks: map[int64]*model.Task{
		7: {ID: 7, ProjectID: 1, Title: "auth"},
	}}
	r := requirementTestRouter(requirements, tasks)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/1/tasks/7/requirements", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "supports login")
	assert.Equal(t, []int64{7}, requirements.listedTasks)
}

// A task id from a different project must 404 without touching the
// requirements table, even though the caller can read project 1.
func TestListRequirementsByTask_ForeignTask(t *testing.T) {
	requirements := &fakeRequirements{byTask: map[int64][]model.Requirement{
		9: {{ID: 2, ProjectID: 2, Content: "secret"}},
	}}
	tasks := &fakeTasks{tasks: map[int64]*model.Task{
		9: {ID: 9, ProjectID: 2, Title: "other project's task"},
	}}
	r := requirementTestRouter(requirements, tasks)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/1/tasks/9/requirements", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
	assert.Empty(t, requirements.listedTasks)
}

func TestListRequirementsByTask_UnknownTask(t *testing.T) {
	requirements := &fakeRequirements{}
	tasks := &fakeTasks{tasks: map[int64]*model.Task{}}
	r := requirementTestRouter(requirements, tasks)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/1/tasks/404/requirements", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, requirements.listedTasks)
}
