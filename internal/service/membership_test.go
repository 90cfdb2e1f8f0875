package service

import (
	"context"
	"testing"
	"time"

	"projecthub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedMember(t *testing.T, repo *fakeRepo, name string) model.Member {
	t.Helper()
	member := model.Member{
		Name:     name,
		Email:    name + "@example.com",
		Role:     model.RoleMember,
		Projects: []primitive.ObjectID{},
	}
	id, err := repo.CreateMember(context.Background(), member)
	require.NoError(t, err)
	member.ID = id
	return member
}

func seedProject(t *testing.T, repo *fakeRepo, name string) model.Project {
	t.Helper()
	project := model.Project{
		Name:      name,
		StartDate: time.Now(),
		Status:    model.ProjectActive,
		Members:   []model.ProjectMember{},
	}
	id, err := repo.CreateProject(context.Background(), project)
	require.NoError(t, err)
	project.ID = id
	return project
}

func TestMembershipService_AddAndRemove(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewMembershipService(repo, discardLogger())

	project := seedProject(t, repo, "Apollo")
	member := seedMember(t, repo, "alice")

	t.Run("add_updates_both_sides", func(t *testing.T) {
		require.NoError(t, svc.AddMemberToProject(ctx, project.ID, member.ID, "developer"))

		gotProject, err := repo.GetProjectByID(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, gotProject.Members, 1)
		assert.Equal(t, member.ID, gotProject.Members[0].MemberID)
		assert.Equal(t, "developer", gotProject.Members[0].Role)

		gotMember, err := repo.GetMemberByID(ctx, member.ID)
		require.NoError(t, err)
		assert.True(t, gotMember.HasProject(project.ID))
	})

	t.Run("re_add_updates_role_without_duplicate", func(t *testing.T) {
		require.NoError(t, svc.AddMemberToProject(ctx, project.ID, member.ID, "lead"))

		gotProject, err := repo.GetProjectByID(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, gotProject.Members, 1)
		assert.Equal(t, "lead", gotProject.Members[0].Role)

		gotMember, err := repo.GetMemberByID(ctx, member.ID)
		require.NoError(t, err)
		assert.Len(t, gotMember.Projects, 1)
	})

	t.Run("remove_clears_both_sides", func(t *testing.T) {
		require.NoError(t, svc.RemoveMemberFromProject(ctx, project.ID, member.ID))

		gotProject, err := repo.GetProjectByID(ctx, project.ID)
		require.NoError(t, err)
		assert.Empty(t, gotProject.Members)

		gotMember, err := repo.GetMemberByID(ctx, member.ID)
		require.NoError(t, err)
		assert.False(t, gotMember.HasProject(project.ID))
	})

	t.Run("remove_absent_member_is_noop", func(t *testing.T) {
		assert.NoError(t, svc.RemoveMemberFromProject(ctx, project.ID, member.ID))
	})

	t.Run("add_unknown_member_fails", func(t *testing.T) {
		err := svc.AddMemberToProject(ctx, project.ID, primitive.NewObjectID(), "developer")
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})

	t.Run("add_to_unknown_project_fails", func(t *testing.T) {
		err := svc.AddMemberToProject(ctx, primitive.NewObjectID(), member.ID, "developer")
		assert.ErrorIs(t, err, ErrProjectNotFound)
	})
}

func TestMembershipService_ReplaceProjectMembers(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewMembershipService(repo, discardLogger())

	project := seedProject(t, repo, "Apollo")
	alice := seedMember(t, repo, "alice")
	bob := seedMember(t, repo, "bob")
	carol := seedMember(t, repo, "carol")

	require.NoError(t, svc.AddMemberToProject(ctx, project.ID, alice.ID, "developer"))
	require.NoError(t, svc.AddMemberToProject(ctx, project.ID, bob.ID, "designer"))

	// Replace {alice, bob} with {bob (new role), carol}.
	err := svc.ReplaceProjectMembers(ctx, project.ID, []model.ProjectMember{
		{MemberID: bob.ID, Role: "lead"},
		{MemberID: carol.ID, Role: "qa"},
	})
	require.NoError(t, err)

	gotProject, err := repo.GetProjectByID(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, gotProject.Members, 2)
	assert.False(t, gotProject.HasMember(alice.ID))
	assert.True(t, gotProject.HasMember(bob.ID))
	assert.True(t, gotProject.HasMember(carol.ID))
	for _, entry := range gotProject.Members {
		if entry.MemberID == bob.ID {
			assert.Equal(t, "lead", entry.Role)
		}
	}

	gotAlice, err := repo.GetMemberByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, gotAlice.HasProject(project.ID))

	gotCarol, err := repo.GetMemberByID(ctx, carol.ID)
	require.NoError(t, err)
	assert.True(t, gotCarol.HasProject(project.ID))
}

func TestMembershipService_ReplaceMemberProjects(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewMembershipService(repo, discardLogger())

	apollo := seedProject(t, repo, "Apollo")
	gemini := seedProject(t, repo, "Gemini")
	mercury := seedProject(t, repo, "Mercury")
	alice := seedMember(t, repo, "alice")

	require.NoError(t, svc.AddMemberToProject(ctx, apollo.ID, alice.ID, "developer"))
	require.NoError(t, svc.AddMemberToProject(ctx, gemini.ID, alice.ID, "developer"))

	err := svc.ReplaceMemberProjects(ctx, alice.ID, []primitive.ObjectID{gemini.ID, mercury.ID})
	require.NoError(t, err)

	gotAlice, err := repo.GetMemberByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []primitive.ObjectID{gemini.ID, mercury.ID}, gotAlice.Projects)

	gotApollo, err := repo.GetProjectByID(ctx, apollo.ID)
	require.NoError(t, err)
	assert.False(t, gotApollo.HasMember(alice.ID))

	gotMercury, err := repo.GetProjectByID(ctx, mercury.ID)
	require.NoError(t, err)
	assert.True(t, gotMercury.HasMember(alice.ID))
}

func TestMembershipService_TransferProjectManager(t *testing.T) {
	ctx := context.Background()

	t.Run("moves_reference_between_managers", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewMembershipService(repo, discardLogger())
		project := seedProject(t, repo, "Apollo")
		old := seedMember(t, repo, "alice")
		next := seedMember(t, repo, "bob")

		require.NoError(t, svc.TransferProjectManager(ctx, project.ID, old.ID))
		require.NoError(t, svc.TransferProjectManager(ctx, project.ID, next.ID))

		gotProject, err := repo.GetProjectByID(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, next.ID, gotProject.ProjectManager)

		gotOld, err := repo.GetMemberByID(ctx, old.ID)
		require.NoError(t, err)
		assert.False(t, gotOld.HasProject(project.ID))

		gotNext, err := repo.GetMemberByID(ctx, next.ID)
		require.NoError(t, err)
		assert.True(t, gotNext.HasProject(project.ID))
	})

	t.Run("old_manager_on_roster_keeps_reference", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewMembershipService(repo, discardLogger())
		project := seedProject(t, repo, "Apollo")
		old := seedMember(t, repo, "alice")
		next := seedMember(t, repo, "bob")

		require.NoError(t, svc.TransferProjectManager(ctx, project.ID, old.ID))
		require.NoError(t, svc.AddMemberToProject(ctx, project.ID, old.ID, "developer"))
		require.NoError(t, svc.TransferProjectManager(ctx, project.ID, next.ID))

		gotOld, err := repo.GetMemberByID(ctx, old.ID)
		require.NoError(t, err)
		assert.True(t, gotOld.HasProject(project.ID))
	})

	t.Run("unknown_manager_fails", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewMembershipService(repo, discardLogger())
		project := seedProject(t, repo, "Apollo")

		err := svc.TransferProjectManager(ctx, project.ID, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})
}

func TestMembershipService_DeleteCascades(t *testing.T) {
	ctx := context.Background()

	t.Run("delete_project_removes_edges_meetings_tasks", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewMembershipService(repo, discardLogger())
		project := seedProject(t, repo, "Apollo")
		alice := seedMember(t, repo, "alice")
		require.NoError(t, svc.AddMemberToProject(ctx, project.ID, alice.ID, "developer"))

		meetingID, err := repo.CreateMeeting(ctx, model.Meeting{ProjectID: project.ID, Title: "Kickoff", Date: time.Now()})
		require.NoError(t, err)
		_, err = repo.CreateTask(ctx, model.Task{ProjectID: project.ID, MeetingID: &meetingID, ResponsibleMemberID: alice.ID, Status: model.TaskPending})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteProject(ctx, project.ID))

		_, err = repo.GetProjectByID(ctx, project.ID)
		assert.Error(t, err)

		gotAlice, err := repo.GetMemberByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.False(t, gotAlice.HasProject(project.ID))

		meetings, err := repo.ListMeetings(ctx)
		require.NoError(t, err)
		assert.Empty(t, meetings)

		tasks, err := repo.ListTasks(ctx)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("delete_member_removes_roster_entries", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewMembershipService(repo, discardLogger())
		project := seedProject(t, repo, "Apollo")
		alice := seedMember(t, repo, "alice")
		require.NoError(t, svc.AddMemberToProject(ctx, project.ID, alice.ID, "developer"))

		require.NoError(t, svc.DeleteMember(ctx, alice.ID))

		gotProject, err := repo.GetProjectByID(ctx, project.ID)
		require.NoError(t, err)
		assert.False(t, gotProject.HasMember(alice.ID))

		_, err = repo.GetMemberByID(ctx, alice.ID)
		assert.Error(t, err)
	})
}
