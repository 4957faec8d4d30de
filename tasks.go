package taskmate

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TaskManager is the business surface over the task store. Change events go
// out through the Notifier best-effort; a failed push never fails the write.
type TaskManager struct {
	repo     RepositoryManager
	notifier Notifier
	logger   Logger
}

func NewTaskManager(repo RepositoryManager) *TaskManager {
	return &TaskManager{
		repo:     repo,
		notifier: noopNotifier{},
		logger:   defLogger{},
	}
}

func (t *TaskManager) WithNotifier(n Notifier) *TaskManager {
	t.notifier = normalizeNotifier(n)
	return t
}

func (t *TaskManager) WithLogger(l Logger) *TaskManager {
	t.logger = l
	return t
}

// Create assigns the task to the given user and forces its status to
// pending before persisting.
func (t *TaskManager) Create(ctx context.Context, task *Task, userID uuid.UUID) (*Task, error) {
	user, err := t.repo.Users().GetByID(ctx, userID.String())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve assignee")
	}

	task.ID = uuid.New()
	task.AssignedToID = user.ID
	task.AssignedTo = user
	task.Status = TaskStatusPending

	created, err := t.repo.Tasks().Create(ctx, task)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not create task")
	}

	t.notify(ctx, created, t.notifier.TaskCreated)

	return created, nil
}

// CreateForAssignee creates a task on behalf of another user. The assignee
// is resolved by id when one is given, by email otherwise.
func (t *TaskManager) CreateForAssignee(ctx context.Context, task *Task, assigneeID, assigneeEmail string) (*Task, error) {
	if assigneeID != "" {
		id, err := uuid.Parse(assigneeID)
		if err != nil {
			return nil, errors.New("invalid assignee id", errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest).
				WithMetadata(map[string]any{"assignee_id": assigneeID})
		}
		return t.Create(ctx, task, id)
	}

	user, err := t.repo.Users().GetByEmail(ctx, assigneeEmail)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve assignee")
	}

	return t.Create(ctx, task, user.ID)
}

// ListForUser returns the tasks assigned to a user.
func (t *TaskManager) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Task, error) {
	return t.repo.Tasks().ListForUser(ctx, userID)
}

// ListAll returns every task. Callers gate this behind admin authorization.
func (t *TaskManager) ListAll(ctx context.Context) ([]*Task, error) {
	return t.repo.Tasks().ListAll(ctx)
}

// UpdateStatus moves a task to a new workflow state.
func (t *TaskManager) UpdateStatus(ctx context.Context, taskID uuid.UUID, status string) (*Task, error) {
	newStatus, ok := ParseTaskStatus(status)
	if !ok {
		return nil, errors.New("unknown task status", errors.CategoryBadInput).
			WithMetadata(map[string]any{"status": status})
	}

	task, err := t.repo.Tasks().GetByID(ctx, taskID.String())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.New("task not found", errors.CategoryNotFound).
				WithCode(errors.CodeNotFound)
		}
		return nil, err
	}

	task.Status = newStatus

	updated, err := t.repo.Tasks().Update(ctx, task)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not update task status")
	}

	if updated.AssignedTo == nil {
		if assignee, err := t.repo.Users().GetByID(ctx, updated.AssignedToID.String()); err == nil {
			updated.AssignedTo = assignee
		}
	}

	t.notify(ctx, updated, t.notifier.TaskStatusChanged)

	return updated, nil
}

func (t *TaskManager) notify(ctx context.Context, task *Task, emit func(context.Context, *Task) error) {
	if err := emit(ctx, task); err != nil {
		t.logger.Warn("task notification failed", "task_id", task.ID.String(), "error", err)
	}
}
