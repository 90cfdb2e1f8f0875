package service

import (
	"context"
	"testing"
	"time"

	"projecthub/internal/model"
	"projecthub/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTaskService(repo *fakeRepo) (*TaskService, *token.Issuer) {
	tokens := token.NewIssuer("test-secret", time.Hour)
	return NewTaskService(repo, tokens, discardLogger()), tokens
}

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc, _ := newTaskService(repo)
	project := seedProject(t, repo, "Apollo")
	alice := seedMember(t, repo, "alice")

	t.Run("defaults_to_pending", func(t *testing.T) {
		task, err := svc.Create(ctx, CreateTaskParams{
			Description:         "Write the launch checklist",
			ProjectID:           project.ID,
			ResponsibleMemberID: alice.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, model.TaskPending, task.Status)
		assert.Nil(t, task.CompletedDate)
		assert.NotNil(t, task.Comments)
	})

	t.Run("unknown_project_fails", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateTaskParams{
			Description:         "Orphan",
			ProjectID:           primitive.NewObjectID(),
			ResponsibleMemberID: alice.ID,
		})
		assert.ErrorIs(t, err, ErrProjectNotFound)
	})
}

func TestTaskService_CompletedDateStamping(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc, _ := newTaskService(repo)
	project := seedProject(t, repo, "Apollo")
	alice := seedMember(t, repo, "alice")

	task, err := svc.Create(ctx, CreateTaskParams{
		Description:         "Draft report",
		ProjectID:           project.ID,
		ResponsibleMemberID: alice.ID,
	})
	require.NoError(t, err)

	completed := model.TaskCompleted
	inProgress := model.TaskInProgress

	updated, err := svc.Update(ctx, task.ID, UpdateTaskParams{Status: &completed})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedDate)
	firstStamp := *updated.CompletedDate

	// Moving back out of completed keeps the stamp.
	updated, err = svc.Update(ctx, task.ID, UpdateTaskParams{Status: &inProgress})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedDate)
	assert.Equal(t, firstStamp, *updated.CompletedDate)

	// Completing while already completed does not restamp.
	_, err = svc.Update(ctx, task.ID, UpdateTaskParams{Status: &completed})
	require.NoError(t, err)
	again, err := svc.Update(ctx, task.ID, UpdateTaskParams{Status: &completed})
	require.NoError(t, err)
	assert.NotEqual(t, firstStamp, *again.CompletedDate) // re-entered completed after in-progress
}

func TestTaskService_AddComment(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc, _ := newTaskService(repo)
	project := seedProject(t, repo, "Apollo")
	alice := seedMember(t, repo, "alice")

	task, err := svc.Create(ctx, CreateTaskParams{
		Description:         "Draft report",
		ProjectID:           project.ID,
		ResponsibleMemberID: alice.ID,
	})
	require.NoError(t, err)

	t.Run("blank_text_rejected", func(t *testing.T) {
		_, err := svc.AddComment(ctx, task.ID, alice.ID, "   ")
		assert.ErrorIs(t, err, ErrEmptyComment)
	})

	t.Run("comment_carries_author_name", func(t *testing.T) {
		comment, err := svc.AddComment(ctx, task.ID, alice.ID, "Looks good")
		require.NoError(t, err)
		assert.Equal(t, "Looks good", comment.Text)
		assert.Equal(t, "alice", comment.AuthorName)
		assert.False(t, comment.CreatedAt.IsZero())

		stored, err := repo.GetTaskByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Comments, 1)
	})
}

func TestTaskService_CompleteViaToken(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc, tokens := newTaskService(repo)
	project := seedProject(t, repo, "Apollo")
	alice := seedMember(t, repo, "alice")

	task, err := svc.Create(ctx, CreateTaskParams{
		Description:         "Draft report",
		ProjectID:           project.ID,
		ResponsibleMemberID: alice.ID,
	})
	require.NoError(t, err)

	t.Run("invalid_token_rejected_before_lookup", func(t *testing.T) {
		_, err := svc.CompleteViaToken(ctx, task.ID, "bogus")
		assert.ErrorIs(t, err, ErrInvalidCompletionToken)

		// Same error for an unknown task ID, so the endpoint leaks nothing.
		_, err = svc.CompleteViaToken(ctx, primitive.NewObjectID(), "bogus")
		assert.ErrorIs(t, err, ErrInvalidCompletionToken)
	})

	t.Run("valid_token_completes_and_is_replayable", func(t *testing.T) {
		link := tokens.CompletionToken(task.ID)

		done, err := svc.CompleteViaToken(ctx, task.ID, link)
		require.NoError(t, err)
		assert.Equal(t, model.TaskCompleted, done.Status)
		require.NotNil(t, done.CompletedDate)
		stamp := *done.CompletedDate

		// The link is not single use; replaying it is accepted and does not
		// restamp the completion date.
		again, err := svc.CompleteViaToken(ctx, task.ID, link)
		require.NoError(t, err)
		assert.Equal(t, stamp, *again.CompletedDate)
	})
}

func TestTaskService_BulkCloseCompleted(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc, _ := newTaskService(repo)
	project := seedProject(t, repo, "Apollo")
	alice := seedMember(t, repo, "alice")

	meetingID, err := repo.CreateMeeting(ctx, model.Meeting{ProjectID: project.ID, Title: "Review", Date: time.Now()})
	require.NoError(t, err)
	otherMeetingID, err := repo.CreateMeeting(ctx, model.Meeting{ProjectID: project.ID, Title: "Other", Date: time.Now()})
	require.NoError(t, err)

	mk := func(meeting primitive.ObjectID, status model.TaskStatus) primitive.ObjectID {
		id, err := repo.CreateTask(ctx, model.Task{
			Description:         "t",
			ProjectID:           project.ID,
			MeetingID:           &meeting,
			ResponsibleMemberID: alice.ID,
			Status:              status,
		})
		require.NoError(t, err)
		return id
	}

	completedA := mk(meetingID, model.TaskCompleted)
	completedB := mk(meetingID, model.TaskCompleted)
	pending := mk(meetingID, model.TaskPending)
	otherCompleted := mk(otherMeetingID, model.TaskCompleted)

	count, err := svc.BulkCloseCompleted(ctx, meetingID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	for _, id := range []primitive.ObjectID{completedA, completedB} {
		task, err := repo.GetTaskByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.TaskClosed, task.Status)
	}

	task, err := repo.GetTaskByID(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, task.Status)

	task, err = repo.GetTaskByID(ctx, otherCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, task.Status)

	t.Run("unknown_meeting_fails", func(t *testing.T) {
		_, err := svc.BulkCloseCompleted(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrMeetingNotFound)
	})
}

func TestTaskService_Views(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc, _ := newTaskService(repo)
	project := seedProject(t, repo, "Apollo")
	alice := seedMember(t, repo, "alice")

	due := func(days int) *time.Time {
		d := time.Now().Add(time.Duration(days) * 24 * time.Hour)
		return &d
	}

	_, err := svc.Create(ctx, CreateTaskParams{Description: "later", ProjectID: project.ID, ResponsibleMemberID: alice.ID, DueDate: due(5)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateTaskParams{Description: "sooner", ProjectID: project.ID, ResponsibleMemberID: alice.ID, DueDate: due(1)})
	require.NoError(t, err)
	closedTask, err := svc.Create(ctx, CreateTaskParams{Description: "done", ProjectID: project.ID, ResponsibleMemberID: alice.ID, Status: model.TaskClosed})
	require.NoError(t, err)

	t.Run("list_resolves_names_and_sorts_by_due_date", func(t *testing.T) {
		views, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, views, 3)
		assert.Equal(t, "sooner", views[0].Description)
		assert.Equal(t, "later", views[1].Description)
		assert.Equal(t, "Apollo", views[0].ProjectName)
		assert.Equal(t, "alice", views[0].ResponsibleName)
	})

	t.Run("my_tasks_excludes_closed", func(t *testing.T) {
		views, err := svc.ListByResponsible(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, views, 2)
		for _, view := range views {
			assert.NotEqual(t, closedTask.ID, view.ID)
		}
	})

	t.Run("get_resolves_comment_authors", func(t *testing.T) {
		views, err := svc.List(ctx)
		require.NoError(t, err)
		_, err = svc.AddComment(ctx, views[0].ID, alice.ID, "note")
		require.NoError(t, err)

		detail, err := svc.Get(ctx, views[0].ID)
		require.NoError(t, err)
		require.Len(t, detail.Comments, 1)
		assert.Equal(t, "alice", detail.Comments[0].AuthorName)
	})
}
