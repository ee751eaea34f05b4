package engine

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
)

var errNotFound = errors.New("not found")

// memTaskStore keeps tasks in memory and records writes so tests can assert
// which store operations actually ran.
type memTaskStore struct {
	tasks          map[int64]*model.Task
	orderWrites    int
	statusWrites   int
	bulkStatusRows []int64
}

func newMemTaskStore(tasks ...model.Task) *memTaskStore {
	s := &memTaskStore{tasks: map[int64]*model.Task{}}
	for i := range tasks {
		t := tasks[i]
		s.tasks[t.ID] = &t
	}
	return s
}

func (s *memTaskStore) GetByID(_ context.Context, id int64) (*model.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTaskStore) GetByIDs(_ context.Context, ids []int64) ([]model.Task, error) {
	out := []model.Task{}
	for _, id := range ids {
		if t, ok := s.tasks[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *memTaskStore) ListByProject(_ context.Context, projectID int64) ([]model.Task, error) {
	out := []model.Task{}
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memTaskStore) UpdateStatus(_ context.Context, id int64, status string) error {
	t, ok := s.tasks[id]
	if !ok {
		return errNotFound
	}
	t.Status = status
	s.statusWrites++
	return nil
}

func (s *memTaskStore) BulkUpdateOrder(_ context.Context, _ int64, tasks []model.Task) error {
	for _, t := range tasks {
		if stored, ok := s.tasks[t.ID]; ok {
			stored.Order = t.Order
		}
	}
	s.orderWrites++
	return nil
}

func (s *memTaskStore) BulkSetStatus(_ context.Context, _ int64, taskIDs []int64, status string) error {
	for _, id := range taskIDs {
		if t, ok := s.tasks[id]; ok {
			t.Status = status
		}
	}
	s.bulkStatusRows = append(s.bulkStatusRows, taskIDs...)
	return nil
}

type memSubtaskStore struct {
	subtasks       map[int64]*model.Subtask
	projectOf      map[int64]int64 // task id -> project id
	orderWrites    int
	statusWrites   int
	bulkStatusRows []int64
}

func newMemSubtaskStore(projectOf map[int64]int64, subtasks ...model.Subtask) *memSubtaskStore {
	s := &memSubtaskStore{subtasks: map[int64]*model.Subtask{}, projectOf: projectOf}
	for i := range subtasks {
		st := subtasks[i]
		s.subtasks[st.ID] = &st
	}
	return s
}

func (s *memSubtaskStore) GetByID(_ context.Context, id int64) (*model.Subtask, error) {
	st, ok := s.subtasks[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *memSubtaskStore) ListByTask(_ context.Context, taskID int64) ([]model.Subtask, error) {
	out := []model.Subtask{}
	for _, st := range s.subtasks {
		if st.TaskID == taskID {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memSubtaskStore) ListByProject(_ context.Context, projectID int64) ([]model.Subtask, error) {
	out := []model.Subtask{}
	for _, st := range s.subtasks {
		if s.projectOf[st.TaskID] == projectID {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memSubtaskStore) UpdateStatus(_ context.Context, id int64, status string) error {
	st, ok := s.subtasks[id]
	if !ok {
		return errNotFound
	}
	st.Status = status
	s.statusWrites++
	return nil
}

func (s *memSubtaskStore) BulkUpdateOrder(_ context.Context, _ int64, subtasks []model.Subtask) error {
	for _, in := range subtasks {
		if st, ok := s.subtasks[in.ID]; ok {
			st.Order = in.Order
		}
	}
	s.orderWrites++
	return nil
}

func (s *memSubtaskStore) BulkSetStatus(_ context.Context, subtaskIDs []int64, status string) error {
	for _, id := range subtaskIDs {
		if st, ok := s.subtasks[id]; ok {
			st.Status = status
		}
	}
	s.bulkStatusRows = append(s.bulkStatusRows, subtaskIDs...)
	return nil
}

func newTestEngine(tasks *memTaskStore, subtasks *memSubtaskStore) *Engine {
	if subtasks == nil {
		subtasks = newMemSubtaskStore(map[int64]int64{})
	}
	return New(tasks, subtasks, zap.NewNop())
}

func task(id, projectID int64, title string, order int) model.Task {
	return model.Task{ID: id, ProjectID: projectID, Title: title, Order: order, Status: model.StatusPending}
}

func TestReorderTasks_MoveFirstToLast(t *testing.T) {
	store := newMemTaskStore(
		task(1, 10, "T1", 0),
		task(2, 10, "T2", 1),
		task(3, 10, "T3", 2),
	)
	e := newTestEngine(store, nil)

	got, err := e.ReorderTasks(context.Background(), 10, 0, 2)
	require.NoError(t, err)

	titles := []string{}
	orders := []int{}
	for _, tk := range got {
		titles = append(titles, tk.Title)
		orders = append(orders, tk.Order)
	}
	assert.Equal(t, []string{"T2", "T3", "T1"}, titles)
	assert.Equal(t, []int{0, 1, 2}, orders)
	assert.Equal(t, 1, store.orderWrites)

	// Persisted order must survive a reload.
	reloaded, err := store.ListByProject(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "T2", reloaded[0].Title)
	assert.Equal(t, "T1", reloaded[2].Title)
}

func TestReorderTasks_RenumbersSparseOrders(t *testing.T) {
	// Orders are sparse and duplicated; position is what matters, and a
	// reorder densifies to 0..n-1. Ties sort by id.
	store := newMemTaskStore(
		task(7, 10, "A", 5),
		task(3, 10, "B", 5),
		task(9, 10, "C", 40),
	)
	e := newTestEngine(store, nil)

	got, err := e.ReorderTasks(context.Background(), 10, 2, 0)
	require.NoError(t, err)

	titles := []string{}
	for _, tk := range got {
		titles = append(titles, tk.Title)
	}
	// Sorted list is [B(id3), A(id7), C]; moving C to the front.
	assert.Equal(t, []string{"C", "B", "A"}, titles)
	for i, tk := range got {
		assert.Equal(t, i, tk.Order)
	}
}

func TestReorderTasks_IndexOutOfRange(t *testing.T) {
	store := newMemTaskStore(task(1, 10, "T1", 0), task(2, 10, "T2", 1))
	e := newTestEngine(store, nil)

	for _, tc := range []struct{ from, to int }{
		{-1, 0}, {0, -1}, {2, 0}, {0, 2}, {5, 5},
	} {
		_, err := e.ReorderTasks(context.Background(), 10, tc.from, tc.to)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "from=%d to=%d", tc.from, tc.to)
	}
	assert.Equal(t, 0, store.orderWrites)
}

func TestReorderTasks_SamePositionSkipsWrite(t *testing.T) {
	store := newMemTaskStore(task(1, 10, "T1", 0), task(2, 10, "T2", 1))
	e := newTestEngine(store, nil)

	got, err := e.ReorderTasks(context.Background(), 10, 1, 1)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 0, store.orderWrites)
}

func TestReorderSubtasks(t *testing.T) {
	subs := newMemSubtaskStore(map[int64]int64{1: 10},
		model.Subtask{ID: 1, TaskID: 1, Title: "S1", Order: 0, Status: model.StatusPending},
		model.Subtask{ID: 2, TaskID: 1, Title: "S2", Order: 1, Status: model.StatusPending},
		model.Subtask{ID: 3, TaskID: 1, Title: "S3", Order: 2, Status: model.StatusPending},
	)
	e := newTestEngine(newMemTaskStore(), subs)

	got, err := e.ReorderSubtasks(context.Background(), 1, 2, 0)
	require.NoError(t, err)

	titles := []string{}
	for _, st := range got {
		titles = append(titles, st.Title)
	}
	assert.Equal(t, []string{"S3", "S1", "S2"}, titles)
	assert.Equal(t, 1, subs.orderWrites)
}

func TestSetTaskStatus_DependencyGate(t *testing.T) {
	a := task(1, 10, "A", 0)
	b := task(2, 10, "B", 1)
	b.Dependencies = []int64{1}
	store := newMemTaskStore(a, b)
	e := newTestEngine(store, nil)
	ctx := context.Background()

	// B cannot complete while A is pending.
	_, err := e.SetTaskStatus(ctx, 2, model.StatusCompleted)
	assert.ErrorIs(t, err, ErrDependencyBlocked)
	assert.Equal(t, 0, store.statusWrites)

	// Complete A, then B is allowed.
	_, err = e.SetTaskStatus(ctx, 1, model.StatusCompleted)
	require.NoError(t, err)
	got, err := e.SetTaskStatus(ctx, 2, model.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)

	// Reverting A to pending is allowed even though B depends on it.
	got, err = e.SetTaskStatus(ctx, 1, model.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestSetTaskStatus_UnresolvedDependencyBlocks(t *testing.T) {
	b := task(2, 10, "B", 0)
	b.Dependencies = []int64{999} // deleted task
	store := newMemTaskStore(b)
	e := newTestEngine(store, nil)

	_, err := e.SetTaskStatus(context.Background(), 2, model.StatusCompleted)
	assert.ErrorIs(t, err, ErrDependencyBlocked)
}

func TestSetTaskStatus_SameStatusIsNoop(t *testing.T) {
	// Re-completing a completed task must not re-run the gate: its own
	// dependency was deleted after completion, and the no-op must not
	// demote or reject it.
	done := task(1, 10, "done", 0)
	done.Status = model.StatusCompleted
	done.Dependencies = []int64{999}
	store := newMemTaskStore(done)
	e := newTestEngine(store, nil)

	got, err := e.SetTaskStatus(context.Background(), 1, model.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 0, store.statusWrites)
}

func TestSetTaskStatus_InvalidStatus(t *testing.T) {
	store := newMemTaskStore(task(1, 10, "T1", 0))
	e := newTestEngine(store, nil)

	_, err := e.SetTaskStatus(context.Background(), 1, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetSubtaskStatus_Ungated(t *testing.T) {
	subs := newMemSubtaskStore(map[int64]int64{1: 10},
		model.Subtask{ID: 5, TaskID: 1, Title: "S", Status: model.StatusPending},
	)
	e := newTestEngine(newMemTaskStore(), subs)
	ctx := context.Background()

	got, err := e.SetSubtaskStatus(ctx, 5, model.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)

	// And back again, no questions asked.
	got, err = e.SetSubtaskStatus(ctx, 5, model.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, 2, subs.statusWrites)
}

func TestResolveDependencies(t *testing.T) {
	a := task(1, 10, "A", 0)
	a.Status = model.StatusCompleted
	b := task(2, 10, "B", 1)
	c := task(3, 10, "C", 2)
	c.Dependencies = []int64{1, 2, 999}
	store := newMemTaskStore(a, b, c)
	e := newTestEngine(store, nil)

	target, err := store.GetByID(context.Background(), 3)
	require.NoError(t, err)
	res, err := e.ResolveDependencies(context.Background(), target)
	require.NoError(t, err)

	require.Len(t, res.Statuses, 3)
	assert.True(t, res.Blocked)

	assert.Equal(t, DependencyStatus{ID: 1, Title: "A", Completed: true, Resolved: true}, res.Statuses[0])
	assert.Equal(t, DependencyStatus{ID: 2, Title: "B", Completed: false, Resolved: true}, res.Statuses[1])
	assert.Equal(t, DependencyStatus{ID: 999, Completed: false, Resolved: false}, res.Statuses[2])
}

func TestResolveDependencies_NoDependencies(t *testing.T) {
	a := task(1, 10, "A", 0)
	store := newMemTaskStore(a)
	e := newTestEngine(store, nil)

	res, err := e.ResolveDependencies(context.Background(), &a)
	require.NoError(t, err)
	assert.False(t, res.Blocked)
	assert.Empty(t, res.Statuses)
}

func TestCheckCompletion(t *testing.T) {
	done := task(1, 10, "done", 0)
	done.Status = model.StatusCompleted
	open := task(2, 10, "open", 1)
	doneWithOpenSub := task(3, 10, "lagging", 2)
	doneWithOpenSub.Status = model.StatusCompleted

	store := newMemTaskStore(done, open, doneWithOpenSub)
	subs := newMemSubtaskStore(map[int64]int64{1: 10, 2: 10, 3: 10},
		model.Subtask{ID: 1, TaskID: 1, Title: "s-done", Status: model.StatusCompleted},
		model.Subtask{ID: 2, TaskID: 3, Title: "s-open", Status: model.StatusPending},
	)
	e := newTestEngine(store, subs)

	report, err := e.CheckCompletion(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, report, 2)

	assert.Equal(t, int64(2), report[0].TaskID)
	assert.True(t, report[0].Pending)
	assert.Empty(t, report[0].Subtasks)

	assert.Equal(t, int64(3), report[1].TaskID)
	assert.False(t, report[1].Pending)
	require.Len(t, report[1].Subtasks, 1)
	assert.Equal(t, "s-open", report[1].Subtasks[0].Title)
}

func TestCheckCompletion_EmptyProject(t *testing.T) {
	e := newTestEngine(newMemTaskStore(), nil)

	report, err := e.CheckCompletion(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestMarkAllComplete(t *testing.T) {
	t1 := task(1, 10, "T1", 0)
	t2 := task(2, 10, "T2", 1)
	t2.Status = model.StatusCompleted
	store := newMemTaskStore(t1, t2)
	subs := newMemSubtaskStore(map[int64]int64{1: 10, 2: 10},
		model.Subtask{ID: 1, TaskID: 1, Title: "S1", Status: model.StatusPending},
		model.Subtask{ID: 2, TaskID: 2, Title: "S2", Status: model.StatusCompleted},
	)
	e := newTestEngine(store, subs)

	require.NoError(t, e.MarkAllComplete(context.Background(), 10))

	// Only the pending rows were in the batches.
	assert.Equal(t, []int64{1}, store.bulkStatusRows)
	assert.Equal(t, []int64{1}, subs.bulkStatusRows)

	report, err := e.CheckCompletion(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestMarkAllComplete_AlreadyComplete(t *testing.T) {
	t1 := task(1, 10, "T1", 0)
	t1.Status = model.StatusCompleted
	store := newMemTaskStore(t1)
	e := newTestEngine(store, nil)

	require.NoError(t, e.MarkAllComplete(context.Background(), 10))
	assert.Empty(t, store.bulkStatusRows)
}

func TestDependencyBatching(t *testing.T) {
	// More dependencies than one lookup batch; all completed, so the task
	// may complete.
	deps := []int64{}
	tasks := []model.Task{}
	for i := int64(1); i <= int64(dependencyBatchSize)+5; i++ {
		dep := task(i, 10, "dep", int(i))
		dep.Status = model.StatusCompleted
		tasks = append(tasks, dep)
		deps = append(deps, i)
	}
	target := task(500, 10, "target", 999)
	target.Dependencies = deps
	tasks = append(tasks, target)

	store := newMemTaskStore(tasks...)
	e := newTestEngine(store, nil)

	got, err := e.SetTaskStatus(context.Background(), 500, model.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
}
