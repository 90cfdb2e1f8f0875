package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"projecthub/internal/model"
	"projecthub/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectService covers project CRUD. Roster and manager changes are
// delegated to the membership service so the bidirectional invariant stays
// in one place.
type ProjectService struct {
	repo       repository.Repository
	membership *MembershipService
	logger     *slog.Logger
}

func NewProjectService(repo repository.Repository, membership *MembershipService, logger *slog.Logger) *ProjectService {
	return &ProjectService{repo: repo, membership: membership, logger: logger}
}

type CreateProjectParams struct {
	Name        string
	Description string
	Client      string
	StartDate   time.Time
	EndDate     *time.Time
	Status      model.ProjectStatus
}

// Create stores a new project with an empty roster. The creating member
// becomes the project manager.
func (s *ProjectService) Create(ctx context.Context, creatorID primitive.ObjectID, params CreateProjectParams) (model.Project, error) {
	status := params.Status
	if status == "" {
		status = model.ProjectPlanning
	}

	project := model.Project{
		Name:        params.Name,
		Description: params.Description,
		Client:      params.Client,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		Status:      status,
		Members:     []model.ProjectMember{},
		CreatedAt:   time.Now(),
	}

	id, err := s.repo.CreateProject(ctx, project)
	if err != nil {
		return model.Project{}, err
	}
	project.ID = id

	if err := s.membership.TransferProjectManager(ctx, id, creatorID); err != nil {
		return model.Project{}, err
	}
	project.ProjectManager = creatorID

	s.logger.InfoContext(ctx, "Project created", "project_id", id.Hex(), "name", project.Name)
	return project, nil
}

type UpdateProjectParams struct {
	Name        *string
	Description *string
	Client      *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *model.ProjectStatus
}

// Update applies a partial edit to the project's own fields. Roster and
// manager are out of scope here.
func (s *ProjectService) Update(ctx context.Context, projectID primitive.ObjectID, params UpdateProjectParams) (model.Project, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Project{}, ErrProjectNotFound
		}
		return model.Project{}, err
	}

	if params.Name != nil {
		project.Name = *params.Name
	}
	if params.Description != nil {
		project.Description = *params.Description
	}
	if params.Client != nil {
		project.Client = *params.Client
	}
	if params.StartDate != nil {
		project.StartDate = *params.StartDate
	}
	if params.EndDate != nil {
		project.EndDate = params.EndDate
	}
	if params.Status != nil {
		project.Status = *params.Status
	}

	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return model.Project{}, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, projectID primitive.ObjectID) (model.Project, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Project{}, ErrProjectNotFound
	}
	return project, err
}

func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	return s.repo.ListProjects(ctx)
}

// RosterEntry is one project member with their account details resolved.
type RosterEntry struct {
	MemberID primitive.ObjectID `json:"memberId"`
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Role     string             `json:"role,omitempty"`
}

// Roster returns the project's members with names and emails resolved.
// Roster entries whose member no longer resolves are skipped.
func (s *ProjectService) Roster(ctx context.Context, projectID primitive.ObjectID) ([]RosterEntry, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	entries := make([]RosterEntry, 0, len(project.Members))
	for _, pm := range project.Members {
		member, err := s.repo.GetMemberByID(ctx, pm.MemberID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, RosterEntry{
			MemberID: member.ID,
			Name:     member.Name,
			Email:    member.Email,
			Role:     pm.Role,
		})
	}
	return entries, nil
}
