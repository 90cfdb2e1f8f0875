package service

import (
	"context"
	"errors"
	"log/slog"

	"projecthub/internal/model"
	"projecthub/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipService is the only component allowed to touch the two sides of
// the project/member relation: a project's roster and a member's project
// list. Every mutation writes the project document first, then the member
// document; each single-sided write is idempotent, so a retried call
// converges on a consistent pair.
type MembershipService struct {
	repo   repository.Repository
	logger *slog.Logger
}

func NewMembershipService(repo repository.Repository, logger *slog.Logger) *MembershipService {
	return &MembershipService{repo: repo, logger: logger}
}

// AddMemberToProject puts the member on the project roster and mirrors the
// project onto the member. Adding an existing roster member only updates the
// project role; it never creates a duplicate entry.
func (s *MembershipService) AddMemberToProject(ctx context.Context, projectID, memberID primitive.ObjectID, role string) error {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	if _, err := s.repo.GetMemberByID(ctx, memberID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	if project.HasMember(memberID) {
		if err := s.repo.UpdateProjectMemberRole(ctx, projectID, memberID, role); err != nil {
			return err
		}
	} else {
		entry := model.ProjectMember{MemberID: memberID, Role: role}
		if err := s.repo.AddProjectMember(ctx, projectID, entry); err != nil {
			return err
		}
	}

	// Member side second; $addToSet keeps this idempotent.
	return s.repo.AddProjectToMember(ctx, memberID, projectID)
}

// RemoveMemberFromProject removes the edge from both sides. Removing an
// absent member is a no-op.
func (s *MembershipService) RemoveMemberFromProject(ctx context.Context, projectID, memberID primitive.ObjectID) error {
	if err := s.repo.RemoveProjectMember(ctx, projectID, memberID); err != nil {
		return err
	}
	return s.repo.RemoveProjectFromMember(ctx, memberID, projectID)
}

// ReplaceProjectMembers rewrites a project's roster to exactly the given
// entries, applying removals before additions so both sides of the relation
// end up mirroring the new list.
func (s *MembershipService) ReplaceProjectMembers(ctx context.Context, projectID primitive.ObjectID, entries []model.ProjectMember) error {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}

	desired := make(map[primitive.ObjectID]model.ProjectMember, len(entries))
	for _, entry := range entries {
		desired[entry.MemberID] = entry
	}

	for _, current := range project.Members {
		if _, keep := desired[current.MemberID]; !keep {
			if err := s.RemoveMemberFromProject(ctx, projectID, current.MemberID); err != nil {
				return err
			}
		}
	}

	for _, entry := range entries {
		if err := s.AddMemberToProject(ctx, projectID, entry.MemberID, entry.Role); err != nil {
			return err
		}
	}

	return nil
}

// ReplaceMemberProjects is the inverse-direction replace used by member
// edits: the member ends up referencing exactly the given projects.
func (s *MembershipService) ReplaceMemberProjects(ctx context.Context, memberID primitive.ObjectID, projectIDs []primitive.ObjectID) error {
	member, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	desired := make(map[primitive.ObjectID]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		desired[id] = struct{}{}
	}

	for _, current := range member.Projects {
		if _, keep := desired[current]; !keep {
			if err := s.RemoveMemberFromProject(ctx, current, memberID); err != nil {
				return err
			}
		}
	}

	for _, projectID := range projectIDs {
		if member.HasProject(projectID) {
			continue
		}
		if err := s.AddMemberToProject(ctx, projectID, memberID, ""); err != nil {
			return err
		}
	}

	return nil
}

// TransferProjectManager moves the manager field to a new member, mirroring
// the project reference on both managers' documents. The old manager keeps
// the reference when they remain on the roster.
func (s *MembershipService) TransferProjectManager(ctx context.Context, projectID, newManagerID primitive.ObjectID) error {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	if _, err := s.repo.GetMemberByID(ctx, newManagerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	oldManagerID := project.ProjectManager
	if oldManagerID == newManagerID {
		return nil
	}

	if err := s.repo.SetProjectManager(ctx, projectID, newManagerID); err != nil {
		return err
	}
	if err := s.repo.AddProjectToMember(ctx, newManagerID, projectID); err != nil {
		return err
	}
	if !oldManagerID.IsZero() && !project.HasMember(oldManagerID) {
		if err := s.repo.RemoveProjectFromMember(ctx, oldManagerID, projectID); err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "Project manager transferred",
		"project_id", projectID.Hex(), "new_manager_id", newManagerID.Hex())
	return nil
}

// DeleteProject removes every membership edge, the project's meetings and
// tasks, and finally the project itself.
func (s *MembershipService) DeleteProject(ctx context.Context, projectID primitive.ObjectID) error {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}

	if err := s.repo.RemoveProjectFromAllMembers(ctx, projectID); err != nil {
		return err
	}
	if !project.ProjectManager.IsZero() {
		if err := s.repo.RemoveProjectFromMember(ctx, project.ProjectManager, projectID); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteMeetingsByProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.repo.DeleteTasksByProject(ctx, projectID); err != nil {
		return err
	}

	return s.repo.DeleteProject(ctx, projectID)
}

// DeleteMember removes the member from every project roster before deleting
// the account. Tasks assigned to the member are left in place.
func (s *MembershipService) DeleteMember(ctx context.Context, memberID primitive.ObjectID) error {
	if _, err := s.repo.GetMemberByID(ctx, memberID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	if err := s.repo.RemoveMemberFromAllProjects(ctx, memberID); err != nil {
		return err
	}

	return s.repo.DeleteMember(ctx, memberID)
}
