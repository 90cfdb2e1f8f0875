package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"projecthub/internal/model"
	"projecthub/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const upcomingMeetingLimit = 10

// NotesDocument is everything the PDF renderer needs for one meeting's
// notes: the meeting itself, its project name, resolved attendees, and the
// meeting's open tasks.
type NotesDocument struct {
	Meeting     model.Meeting
	ProjectName string
	Attendees   []model.Member
	Tasks       []TaskView
}

// NotesRenderer turns a notes document into a distributable file.
type NotesRenderer interface {
	Render(doc NotesDocument) ([]byte, error)
}

// MeetingService owns meetings and their follow-up flows: the task list that
// comes out of a meeting, and the notes PDF mailed to the project.
type MeetingService struct {
	repo     repository.Repository
	tasks    *TaskService
	mailer   Mailer
	renderer NotesRenderer
	logger   *slog.Logger
}

func NewMeetingService(repo repository.Repository, tasks *TaskService, mailer Mailer, renderer NotesRenderer, logger *slog.Logger) *MeetingService {
	return &MeetingService{
		repo:     repo,
		tasks:    tasks,
		mailer:   mailer,
		renderer: renderer,
		logger:   logger,
	}
}

// MeetingView is a meeting with its project name resolved.
type MeetingView struct {
	model.Meeting
	ProjectName string `json:"projectName,omitempty"`
}

// MemberRef is a resolved attendee reference.
type MemberRef struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// MeetingDetail is the single-meeting view: resolved attendees plus the
// meeting's open tasks. The flat Attendees field shadows the embedded ID
// list for JSON.
type MeetingDetail struct {
	MeetingView
	Attendees []MemberRef `json:"attendees"`
	Tasks     []TaskView  `json:"tasks"`
}

type CreateMeetingParams struct {
	ProjectID primitive.ObjectID
	Title     string
	Date      time.Time
	Location  string
	Notes     string
	Attendees []primitive.ObjectID
	Recurring model.Recurrence
}

// Create stores a new meeting. The project must exist.
func (s *MeetingService) Create(ctx context.Context, creatorID primitive.ObjectID, params CreateMeetingParams) (model.Meeting, error) {
	if _, err := s.repo.GetProjectByID(ctx, params.ProjectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Meeting{}, ErrProjectNotFound
		}
		return model.Meeting{}, err
	}

	attendees := params.Attendees
	if attendees == nil {
		attendees = []primitive.ObjectID{}
	}

	meeting := model.Meeting{
		ProjectID: params.ProjectID,
		Title:     params.Title,
		Date:      params.Date,
		Location:  params.Location,
		Notes:     params.Notes,
		Attendees: attendees,
		Recurring: params.Recurring,
		CreatedBy: creatorID,
		CreatedAt: time.Now(),
	}

	id, err := s.repo.CreateMeeting(ctx, meeting)
	if err != nil {
		return model.Meeting{}, err
	}
	meeting.ID = id
	return meeting, nil
}

type UpdateMeetingParams struct {
	Title     *string
	Date      *time.Time
	Location  *string
	Notes     *string
	Attendees []primitive.ObjectID
	Recurring *model.Recurrence
}

// Update applies a partial edit to a meeting.
func (s *MeetingService) Update(ctx context.Context, meetingID primitive.ObjectID, params UpdateMeetingParams) (model.Meeting, error) {
	meeting, err := s.repo.GetMeetingByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Meeting{}, ErrMeetingNotFound
		}
		return model.Meeting{}, err
	}

	if params.Title != nil {
		meeting.Title = *params.Title
	}
	if params.Date != nil {
		meeting.Date = *params.Date
	}
	if params.Location != nil {
		meeting.Location = *params.Location
	}
	if params.Notes != nil {
		meeting.Notes = *params.Notes
	}
	if params.Attendees != nil {
		meeting.Attendees = params.Attendees
	}
	if params.Recurring != nil {
		meeting.Recurring = *params.Recurring
	}

	if err := s.repo.UpdateMeeting(ctx, meeting); err != nil {
		return model.Meeting{}, err
	}
	return meeting, nil
}

// List returns every meeting, newest first, with project names resolved.
func (s *MeetingService) List(ctx context.Context) ([]MeetingView, error) {
	meetings, err := s.repo.ListMeetings(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolveViews(ctx, meetings)
}

// Upcoming returns the next meetings from now on, soonest first, capped at
// ten.
func (s *MeetingService) Upcoming(ctx context.Context) ([]MeetingView, error) {
	meetings, err := s.repo.ListUpcomingMeetings(ctx, time.Now(), upcomingMeetingLimit)
	if err != nil {
		return nil, err
	}
	return s.resolveViews(ctx, meetings)
}

// Get returns one meeting with resolved attendees and its open tasks.
func (s *MeetingService) Get(ctx context.Context, meetingID primitive.ObjectID) (MeetingDetail, error) {
	meeting, err := s.repo.GetMeetingByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return MeetingDetail{}, ErrMeetingNotFound
		}
		return MeetingDetail{}, err
	}

	detail := MeetingDetail{
		MeetingView: MeetingView{Meeting: meeting},
		Attendees:   make([]MemberRef, 0, len(meeting.Attendees)),
	}
	if project, err := s.repo.GetProjectByID(ctx, meeting.ProjectID); err == nil {
		detail.ProjectName = project.Name
	}

	for _, attendeeID := range meeting.Attendees {
		member, err := s.repo.GetMemberByID(ctx, attendeeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return MeetingDetail{}, err
		}
		detail.Attendees = append(detail.Attendees, MemberRef{ID: member.ID, Name: member.Name, Email: member.Email})
	}

	tasks, err := s.repo.ListOpenTasksByMeeting(ctx, meetingID)
	if err != nil {
		return MeetingDetail{}, err
	}
	detail.Tasks, err = s.tasks.resolveViews(ctx, tasks)
	if err != nil {
		return MeetingDetail{}, err
	}

	return detail, nil
}

type AddMeetingTaskParams struct {
	Description         string
	ResponsibleMemberID primitive.ObjectID
	DueDate             *time.Time
	Status              model.TaskStatus
}

// AddTask creates a task out of a meeting. The task inherits the meeting's
// project.
func (s *MeetingService) AddTask(ctx context.Context, meetingID primitive.ObjectID, params AddMeetingTaskParams) (TaskView, error) {
	meeting, err := s.repo.GetMeetingByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TaskView{}, ErrMeetingNotFound
		}
		return TaskView{}, err
	}

	task, err := s.tasks.Create(ctx, CreateTaskParams{
		Description:         params.Description,
		ProjectID:           meeting.ProjectID,
		MeetingID:           &meetingID,
		ResponsibleMemberID: params.ResponsibleMemberID,
		DueDate:             params.DueDate,
		Status:              params.Status,
	})
	if err != nil {
		return TaskView{}, err
	}

	views, err := s.tasks.resolveViews(ctx, []model.Task{task})
	if err != nil {
		return TaskView{}, err
	}
	return views[0], nil
}

// ComposeNotes gathers the notes document for a meeting: project name,
// resolved attendees, and the meeting's open tasks.
func (s *MeetingService) ComposeNotes(ctx context.Context, meetingID primitive.ObjectID) (NotesDocument, error) {
	meeting, err := s.repo.GetMeetingByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotesDocument{}, ErrMeetingNotFound
		}
		return NotesDocument{}, err
	}

	doc := NotesDocument{Meeting: meeting}
	if project, err := s.repo.GetProjectByID(ctx, meeting.ProjectID); err == nil {
		doc.ProjectName = project.Name
	}

	for _, attendeeID := range meeting.Attendees {
		member, err := s.repo.GetMemberByID(ctx, attendeeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return NotesDocument{}, err
		}
		doc.Attendees = append(doc.Attendees, member)
	}

	tasks, err := s.repo.ListOpenTasksByMeeting(ctx, meetingID)
	if err != nil {
		return NotesDocument{}, err
	}
	doc.Tasks, err = s.tasks.resolveViews(ctx, tasks)
	if err != nil {
		return NotesDocument{}, err
	}

	return doc, nil
}

// DistributeNotes renders the meeting notes once and mails the PDF to every
// project member. A failed send is logged and the remaining recipients still
// get theirs.
func (s *MeetingService) DistributeNotes(ctx context.Context, meetingID primitive.ObjectID) error {
	doc, err := s.ComposeNotes(ctx, meetingID)
	if err != nil {
		return err
	}

	pdfBytes, err := s.renderer.Render(doc)
	if err != nil {
		return fmt.Errorf("failed to render meeting notes: %w", err)
	}

	project, err := s.repo.GetProjectByID(ctx, doc.Meeting.ProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}

	filename := fmt.Sprintf("meeting-notes-%s.pdf", meetingID.Hex())
	body := fmt.Sprintf("Please find attached the meeting notes for %s held on %s.",
		doc.Meeting.Title, doc.Meeting.Date.Format("1/2/2006"))

	for _, pm := range project.Members {
		member, err := s.repo.GetMemberByID(ctx, pm.MemberID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return err
		}

		msg := Message{
			To:      member.Email,
			ToName:  member.Name,
			Kind:    "meeting-notes",
			Subject: fmt.Sprintf("Meeting Notes: %s", doc.Meeting.Title),
			Text:    body,
			Attachments: []Attachment{
				{Filename: filename, Content: pdfBytes},
			},
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "Failed to send meeting notes",
				"meeting_id", meetingID.Hex(), "member_id", member.ID.Hex(), "error", err)
		}
	}

	return nil
}

func (s *MeetingService) resolveViews(ctx context.Context, meetings []model.Meeting) ([]MeetingView, error) {
	projects := map[primitive.ObjectID]string{}

	views := make([]MeetingView, 0, len(meetings))
	for _, meeting := range meetings {
		view := MeetingView{Meeting: meeting}
		if name, ok := projects[meeting.ProjectID]; ok {
			view.ProjectName = name
		} else {
			if project, err := s.repo.GetProjectByID(ctx, meeting.ProjectID); err == nil {
				view.ProjectName = project.Name
			}
			projects[meeting.ProjectID] = view.ProjectName
		}
		views = append(views, view)
	}
	return views, nil
}
