package taskmate_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	taskmate "github.com/taskmate/go-taskmate"
)

func seedUser(t *testing.T, repo *stubRepo, email string) *taskmate.User {
	t.Helper()
	user, err := repo.users.Register(context.Background(), &taskmate.User{
		Name:  "Seeded User",
		Email: email,
		Role:  taskmate.RoleUser,
	})
	require.NoError(t, err)
	return user
}

func TestTaskManagerCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("forces pending status and notifies", func(t *testing.T) {
		repo := newStubRepo()
		user := seedUser(t, repo, "assignee@example.com")

		notifier := new(MockNotifier)
		notifier.On("TaskCreated", ctx, mock.AnythingOfType("*taskmate.Task")).
			Return(nil).Once()

		manager := taskmate.NewTaskManager(repo).WithNotifier(notifier)

		created, err := manager.Create(ctx, &taskmate.Task{
			Title:  "Write report",
			Status: taskmate.TaskStatusCompleted, // client-supplied status is ignored
		}, user.ID)
		require.NoError(t, err)

		assert.Equal(t, taskmate.TaskStatusPending, created.Status)
		assert.Equal(t, user.ID, created.AssignedToID)
		assert.NotEqual(t, uuid.Nil, created.ID)

		notifier.AssertExpectations(t)
	})

	t.Run("unknown assignee", func(t *testing.T) {
		repo := newStubRepo()
		manager := taskmate.NewTaskManager(repo)

		_, err := manager.Create(ctx, &taskmate.Task{Title: "Orphan"}, uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, taskmate.ErrIdentityNotFound)
	})

	t.Run("notifier failure does not fail the write", func(t *testing.T) {
		repo := newStubRepo()
		user := seedUser(t, repo, "flaky@example.com")

		notifier := new(MockNotifier)
		notifier.On("TaskCreated", ctx, mock.AnythingOfType("*taskmate.Task")).
			Return(assert.AnError).Once()

		manager := taskmate.NewTaskManager(repo).WithNotifier(notifier)

		created, err := manager.Create(ctx, &taskmate.Task{Title: "Still works"}, user.ID)
		require.NoError(t, err)
		require.NotNil(t, created)

		// the task is persisted despite the failed push
		stored, err := repo.tasks.GetByID(ctx, created.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "Still works", stored.Title)

		notifier.AssertExpectations(t)
	})
}

func TestTaskManagerCreateForAssignee(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the assignee by id", func(t *testing.T) {
		repo := newStubRepo()
		user := seedUser(t, repo, "by-id@example.com")

		manager := taskmate.NewTaskManager(repo)

		created, err := manager.CreateForAssignee(ctx, &taskmate.Task{Title: "Delegated"}, user.ID.String(), "")
		require.NoError(t, err)
		assert.Equal(t, user.ID, created.AssignedToID)
		assert.Equal(t, taskmate.TaskStatusPending, created.Status)
	})

	t.Run("resolves the assignee by email", func(t *testing.T) {
		repo := newStubRepo()
		user := seedUser(t, repo, "by-email@example.com")

		manager := taskmate.NewTaskManager(repo)

		created, err := manager.CreateForAssignee(ctx, &taskmate.Task{Title: "Delegated"}, "", "by-email@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, created.AssignedToID)
	})

	t.Run("rejects a malformed assignee id", func(t *testing.T) {
		repo := newStubRepo()
		manager := taskmate.NewTaskManager(repo)

		_, err := manager.CreateForAssignee(ctx, &taskmate.Task{Title: "Nope"}, "not-a-uuid", "")
		require.Error(t, err)
	})

	t.Run("unknown assignee email", func(t *testing.T) {
		repo := newStubRepo()
		manager := taskmate.NewTaskManager(repo)

		_, err := manager.CreateForAssignee(ctx, &taskmate.Task{Title: "Ghost"}, "", "ghost@example.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, taskmate.ErrIdentityNotFound)
	})
}

func TestTaskManagerUpdateStatus(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*taskmate.TaskManager, *stubRepo, *taskmate.Task, *MockNotifier) {
		repo := newStubRepo()
		user := seedUser(t, repo, "worker@example.com")

		notifier := new(MockNotifier)
		notifier.On("TaskCreated", ctx, mock.Anything).Return(nil)

		manager := taskmate.NewTaskManager(repo).WithNotifier(notifier)
		task, err := manager.Create(ctx, &taskmate.Task{Title: "Job"}, user.ID)
		require.NoError(t, err)

		return manager, repo, task, notifier
	}

	t.Run("moves the task through the workflow", func(t *testing.T) {
		manager, _, task, notifier := setup(t)
		notifier.On("TaskStatusChanged", ctx, mock.Anything).Return(nil).Once()

		updated, err := manager.UpdateStatus(ctx, task.ID, taskmate.TaskStatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, taskmate.TaskStatusInProgress, updated.Status)

		notifier.AssertExpectations(t)
	})

	t.Run("rejects unknown status strings", func(t *testing.T) {
		manager, _, task, _ := setup(t)

		_, err := manager.UpdateStatus(ctx, task.ID, "shipped")
		require.Error(t, err)
	})

	t.Run("unknown task", func(t *testing.T) {
		manager, _, _, _ := setup(t)

		_, err := manager.UpdateStatus(ctx, uuid.New(), taskmate.TaskStatusCompleted)
		require.Error(t, err)
	})
}

func TestTaskManagerListing(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	alice := seedUser(t, repo, "alice@example.com")
	bob := seedUser(t, repo, "bob@example.com")

	manager := taskmate.NewTaskManager(repo)

	_, err := manager.Create(ctx, &taskmate.Task{Title: "Alice one"}, alice.ID)
	require.NoError(t, err)
	_, err = manager.Create(ctx, &taskmate.Task{Title: "Alice two"}, alice.ID)
	require.NoError(t, err)
	_, err = manager.Create(ctx, &taskmate.Task{Title: "Bob one"}, bob.ID)
	require.NoError(t, err)

	t.Run("per user", func(t *testing.T) {
		tasks, err := manager.ListForUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})

	t.Run("all", func(t *testing.T) {
		tasks, err := manager.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, tasks, 3)
	})
}
