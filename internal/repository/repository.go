package repository

import (
	"context"
	"errors"
	"time"

	"projecthub/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("document not found")

// StatusCount is one bucket of a task aggregation, grouped by an owning
// document (project or member) and task status.
type StatusCount struct {
	OwnerID primitive.ObjectID `bson:"ownerId"`
	Status  model.TaskStatus   `bson:"status"`
	Count   int                `bson:"count"`
}

// OwnerCount is a plain per-owner count (overdue aggregation).
type OwnerCount struct {
	OwnerID primitive.ObjectID `bson:"_id"`
	Count   int                `bson:"count"`
}

// Repository defines the persistence contract. The mongo implementation is
// the only production one; tests use an in-memory fake.
type Repository interface {
	// Member operations
	CreateMember(ctx context.Context, member model.Member) (primitive.ObjectID, error)
	GetMemberByID(ctx context.Context, id primitive.ObjectID) (model.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (model.Member, error)
	GetMemberByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.Member, error)
	ListMembers(ctx context.Context) ([]model.Member, error)
	UpdateMember(ctx context.Context, member model.Member) error
	DeleteMember(ctx context.Context, id primitive.ObjectID) error
	CountMembers(ctx context.Context) (int64, error)
	AddProjectToMember(ctx context.Context, memberID, projectID primitive.ObjectID) error
	RemoveProjectFromMember(ctx context.Context, memberID, projectID primitive.ObjectID) error
	RemoveProjectFromAllMembers(ctx context.Context, projectID primitive.ObjectID) error

	// Project operations
	CreateProject(ctx context.Context, project model.Project) (primitive.ObjectID, error)
	GetProjectByID(ctx context.Context, id primitive.ObjectID) (model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	UpdateProject(ctx context.Context, project model.Project) error
	DeleteProject(ctx context.Context, id primitive.ObjectID) error
	AddProjectMember(ctx context.Context, projectID primitive.ObjectID, entry model.ProjectMember) error
	UpdateProjectMemberRole(ctx context.Context, projectID, memberID primitive.ObjectID, role string) error
	RemoveProjectMember(ctx context.Context, projectID, memberID primitive.ObjectID) error
	RemoveMemberFromAllProjects(ctx context.Context, memberID primitive.ObjectID) error
	SetProjectManager(ctx context.Context, projectID, managerID primitive.ObjectID) error

	// Meeting operations
	CreateMeeting(ctx context.Context, meeting model.Meeting) (primitive.ObjectID, error)
	GetMeetingByID(ctx context.Context, id primitive.ObjectID) (model.Meeting, error)
	ListMeetings(ctx context.Context) ([]model.Meeting, error)
	ListUpcomingMeetings(ctx context.Context, after time.Time, limit int64) ([]model.Meeting, error)
	UpdateMeeting(ctx context.Context, meeting model.Meeting) error
	DeleteMeetingsByProject(ctx context.Context, projectID primitive.ObjectID) error

	// Task operations
	CreateTask(ctx context.Context, task model.Task) (primitive.ObjectID, error)
	GetTaskByID(ctx context.Context, id primitive.ObjectID) (model.Task, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
	ListOpenTasksByResponsible(ctx context.Context, memberID primitive.ObjectID) ([]model.Task, error)
	ListOpenTasksByMeeting(ctx context.Context, meetingID primitive.ObjectID) ([]model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) error
	DeleteTasksByProject(ctx context.Context, projectID primitive.ObjectID) error
	CloseCompletedTasks(ctx context.Context, meetingID primitive.ObjectID) (int64, error)
	CountTasksByProjectStatus(ctx context.Context) ([]StatusCount, error)
	CountTasksByMemberStatus(ctx context.Context) ([]StatusCount, error)
	CountOverdueTasksByMember(ctx context.Context, now time.Time) ([]OwnerCount, error)

	// Database operations
	HealthCheck(ctx context.Context) error
}
