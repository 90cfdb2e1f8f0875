package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"projecthub/internal/model"
	"projecthub/internal/repository"
	"projecthub/internal/token"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskService owns the task lifecycle: pending → in-progress → completed →
// closed. Backward transitions are allowed, but CompletedDate is stamped on
// the first move into completed and never cleared.
type TaskService struct {
	repo   repository.Repository
	tokens *token.Issuer
	logger *slog.Logger
}

func NewTaskService(repo repository.Repository, tokens *token.Issuer, logger *slog.Logger) *TaskService {
	return &TaskService{repo: repo, tokens: tokens, logger: logger}
}

// TaskView is a task with its referenced documents' display names resolved.
type TaskView struct {
	model.Task
	ProjectName     string `json:"projectName,omitempty"`
	MeetingTitle    string `json:"meetingTitle,omitempty"`
	ResponsibleName string `json:"responsibleName,omitempty"`
}

// CommentView is a comment with its author's name resolved.
type CommentView struct {
	model.Comment
	AuthorName string `json:"authorName,omitempty"`
}

// TaskDetail is the single-task view: resolved names plus resolved comment
// authors. The flat Comments field shadows the embedded one for JSON.
type TaskDetail struct {
	TaskView
	ResponsibleEmail string        `json:"responsibleEmail,omitempty"`
	Comments         []CommentView `json:"comments"`
}

type CreateTaskParams struct {
	Description         string
	ProjectID           primitive.ObjectID
	MeetingID           *primitive.ObjectID
	ResponsibleMemberID primitive.ObjectID
	DueDate             *time.Time
	Status              model.TaskStatus
}

// Create stores a new task. The project must exist; the status defaults to
// pending.
func (s *TaskService) Create(ctx context.Context, params CreateTaskParams) (model.Task, error) {
	if _, err := s.repo.GetProjectByID(ctx, params.ProjectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Task{}, ErrProjectNotFound
		}
		return model.Task{}, err
	}

	status := params.Status
	if status == "" {
		status = model.TaskPending
	}

	task := model.Task{
		Description:         params.Description,
		ProjectID:           params.ProjectID,
		MeetingID:           params.MeetingID,
		ResponsibleMemberID: params.ResponsibleMemberID,
		DueDate:             params.DueDate,
		Status:              status,
		Comments:            []model.Comment{},
		CreatedAt:           time.Now(),
	}
	if status == model.TaskCompleted {
		now := time.Now()
		task.CompletedDate = &now
	}

	id, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return model.Task{}, err
	}
	task.ID = id
	return task, nil
}

type UpdateTaskParams struct {
	Description         *string
	ResponsibleMemberID *primitive.ObjectID
	DueDate             *time.Time
	Status              *model.TaskStatus
}

// Update applies a partial edit. Moving into completed from any other status
// stamps CompletedDate; moving back out leaves it in place.
func (s *TaskService) Update(ctx context.Context, taskID primitive.ObjectID, params UpdateTaskParams) (model.Task, error) {
	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Task{}, ErrTaskNotFound
		}
		return model.Task{}, err
	}

	if params.Description != nil {
		task.Description = *params.Description
	}
	if params.ResponsibleMemberID != nil {
		task.ResponsibleMemberID = *params.ResponsibleMemberID
	}
	if params.DueDate != nil {
		task.DueDate = params.DueDate
	}
	if params.Status != nil {
		if *params.Status == model.TaskCompleted && task.Status != model.TaskCompleted {
			now := time.Now()
			task.CompletedDate = &now
		}
		task.Status = *params.Status
	}

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// AddComment appends a comment with a server-assigned timestamp and returns
// it with the author's name resolved.
func (s *TaskService) AddComment(ctx context.Context, taskID, authorID primitive.ObjectID, text string) (CommentView, error) {
	if strings.TrimSpace(text) == "" {
		return CommentView{}, ErrEmptyComment
	}

	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return CommentView{}, ErrTaskNotFound
		}
		return CommentView{}, err
	}

	comment := model.Comment{
		Text:      text,
		CreatedBy: authorID,
		CreatedAt: time.Now(),
	}
	task.Comments = append(task.Comments, comment)
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return CommentView{}, err
	}

	view := CommentView{Comment: comment}
	if author, err := s.repo.GetMemberByID(ctx, authorID); err == nil {
		view.AuthorName = author.Name
	}
	return view, nil
}

// CompleteViaToken marks a task completed through the emailed link. The
// token is checked before the task is looked up, so probing task IDs without
// a valid token yields the same error either way.
func (s *TaskService) CompleteViaToken(ctx context.Context, taskID primitive.ObjectID, presented string) (model.Task, error) {
	if !s.tokens.VerifyCompletionToken(taskID, presented) {
		return model.Task{}, ErrInvalidCompletionToken
	}

	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Task{}, ErrTaskNotFound
		}
		return model.Task{}, err
	}

	if task.Status != model.TaskCompleted {
		now := time.Now()
		task.Status = model.TaskCompleted
		task.CompletedDate = &now
		if err := s.repo.UpdateTask(ctx, task); err != nil {
			return model.Task{}, err
		}
	}

	s.logger.InfoContext(ctx, "Task completed via link", "task_id", taskID.Hex())
	return task, nil
}

// BulkCloseCompleted closes every completed task of a meeting and returns
// how many were closed. Tasks in other statuses are untouched.
func (s *TaskService) BulkCloseCompleted(ctx context.Context, meetingID primitive.ObjectID) (int64, error) {
	if _, err := s.repo.GetMeetingByID(ctx, meetingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrMeetingNotFound
		}
		return 0, err
	}
	return s.repo.CloseCompletedTasks(ctx, meetingID)
}

// List returns every task sorted by due date, with names resolved.
func (s *TaskService) List(ctx context.Context) ([]TaskView, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolveViews(ctx, tasks)
}

// ListByResponsible returns a member's open (non-closed) tasks sorted by due
// date.
func (s *TaskService) ListByResponsible(ctx context.Context, memberID primitive.ObjectID) ([]TaskView, error) {
	tasks, err := s.repo.ListOpenTasksByResponsible(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return s.resolveViews(ctx, tasks)
}

// Get returns one task with comment authors resolved.
func (s *TaskService) Get(ctx context.Context, taskID primitive.ObjectID) (TaskDetail, error) {
	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TaskDetail{}, ErrTaskNotFound
		}
		return TaskDetail{}, err
	}

	views, err := s.resolveViews(ctx, []model.Task{task})
	if err != nil {
		return TaskDetail{}, err
	}
	detail := TaskDetail{TaskView: views[0], Comments: make([]CommentView, 0, len(task.Comments))}

	if member, err := s.repo.GetMemberByID(ctx, task.ResponsibleMemberID); err == nil {
		detail.ResponsibleEmail = member.Email
	}

	names := map[primitive.ObjectID]string{}
	for _, comment := range task.Comments {
		name, ok := names[comment.CreatedBy]
		if !ok {
			if author, err := s.repo.GetMemberByID(ctx, comment.CreatedBy); err == nil {
				name = author.Name
			}
			names[comment.CreatedBy] = name
		}
		detail.Comments = append(detail.Comments, CommentView{Comment: comment, AuthorName: name})
	}

	return detail, nil
}

// resolveViews attaches display names for each task's project, meeting and
// responsible member. References that no longer resolve leave the name empty.
func (s *TaskService) resolveViews(ctx context.Context, tasks []model.Task) ([]TaskView, error) {
	projects := map[primitive.ObjectID]string{}
	meetings := map[primitive.ObjectID]string{}
	members := map[primitive.ObjectID]string{}

	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		view := TaskView{Task: task}

		if name, ok := projects[task.ProjectID]; ok {
			view.ProjectName = name
		} else {
			if project, err := s.repo.GetProjectByID(ctx, task.ProjectID); err == nil {
				view.ProjectName = project.Name
			}
			projects[task.ProjectID] = view.ProjectName
		}

		if task.MeetingID != nil {
			if title, ok := meetings[*task.MeetingID]; ok {
				view.MeetingTitle = title
			} else {
				if meeting, err := s.repo.GetMeetingByID(ctx, *task.MeetingID); err == nil {
					view.MeetingTitle = meeting.Title
				}
				meetings[*task.MeetingID] = view.MeetingTitle
			}
		}

		if name, ok := members[task.ResponsibleMemberID]; ok {
			view.ResponsibleName = name
		} else {
			if member, err := s.repo.GetMemberByID(ctx, task.ResponsibleMemberID); err == nil {
				view.ResponsibleName = member.Name
			}
			members[task.ResponsibleMemberID] = view.ResponsibleName
		}

		views = append(views, view)
	}
	return views, nil
}
