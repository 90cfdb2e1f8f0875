package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"projecthub/internal/model"
	"projecthub/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeRepo is an in-memory repository.Repository used by the service tests.
// It mirrors the mongo implementation's semantics: sorted list results,
// set-like edge writes, and ErrNotFound/ErrDuplicate sentinels.
type fakeRepo struct {
	mu       sync.Mutex
	members  map[primitive.ObjectID]model.Member
	projects map[primitive.ObjectID]model.Project
	meetings map[primitive.ObjectID]model.Meeting
	tasks    map[primitive.ObjectID]model.Task
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		members:  map[primitive.ObjectID]model.Member{},
		projects: map[primitive.ObjectID]model.Project{},
		meetings: map[primitive.ObjectID]model.Meeting{},
		tasks:    map[primitive.ObjectID]model.Task{},
	}
}

func (r *fakeRepo) CreateMember(ctx context.Context, member model.Member) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.members {
		if existing.Email == member.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	member.ID = primitive.NewObjectID()
	r.members[member.ID] = member
	return member.ID, nil
}

func (r *fakeRepo) GetMemberByID(ctx context.Context, id primitive.ObjectID) (model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[id]
	if !ok {
		return model.Member{}, repository.ErrNotFound
	}
	return member, nil
}

func (r *fakeRepo) GetMemberByEmail(ctx context.Context, email string) (model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, member := range r.members {
		if member.Email == email {
			return member, nil
		}
	}
	return model.Member{}, repository.ErrNotFound
}

func (r *fakeRepo) GetMemberByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, member := range r.members {
		if member.ResetPasswordToken == tokenHash && member.ResetPasswordExpires.After(now) {
			return member, nil
		}
	}
	return model.Member{}, repository.ErrNotFound
}

func (r *fakeRepo) ListMembers(ctx context.Context) ([]model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := make([]model.Member, 0, len(r.members))
	for _, member := range r.members {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members, nil
}

func (r *fakeRepo) UpdateMember(ctx context.Context, member model.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[member.ID]; !ok {
		return repository.ErrNotFound
	}
	r.members[member.ID] = member
	return nil
}

func (r *fakeRepo) DeleteMember(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.members, id)
	return nil
}

func (r *fakeRepo) CountMembers(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.members)), nil
}

func (r *fakeRepo) AddProjectToMember(ctx context.Context, memberID, projectID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[memberID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range member.Projects {
		if id == projectID {
			return nil
		}
	}
	member.Projects = append(member.Projects, projectID)
	r.members[memberID] = member
	return nil
}

func (r *fakeRepo) RemoveProjectFromMember(ctx context.Context, memberID, projectID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[memberID]
	if !ok {
		return nil
	}
	kept := member.Projects[:0]
	for _, id := range member.Projects {
		if id != projectID {
			kept = append(kept, id)
		}
	}
	member.Projects = kept
	r.members[memberID] = member
	return nil
}

func (r *fakeRepo) RemoveProjectFromAllMembers(ctx context.Context, projectID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, member := range r.members {
		kept := member.Projects[:0]
		for _, pid := range member.Projects {
			if pid != projectID {
				kept = append(kept, pid)
			}
		}
		member.Projects = kept
		r.members[id] = member
	}
	return nil
}

func (r *fakeRepo) CreateProject(ctx context.Context, project model.Project) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project.ID = primitive.NewObjectID()
	r.projects[project.ID] = project
	return project.ID, nil
}

func (r *fakeRepo) GetProjectByID(ctx context.Context, id primitive.ObjectID) (model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[id]
	if !ok {
		return model.Project{}, repository.ErrNotFound
	}
	return project, nil
}

func (r *fakeRepo) ListProjects(ctx context.Context) ([]model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	projects := make([]model.Project, 0, len(r.projects))
	for _, project := range r.projects {
		projects = append(projects, project)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

func (r *fakeRepo) UpdateProject(ctx context.Context, project model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[project.ID]; !ok {
		return repository.ErrNotFound
	}
	r.projects[project.ID] = project
	return nil
}

func (r *fakeRepo) DeleteProject(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *fakeRepo) AddProjectMember(ctx context.Context, projectID primitive.ObjectID, entry model.ProjectMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[projectID]
	if !ok {
		return repository.ErrNotFound
	}
	project.Members = append(project.Members, entry)
	r.projects[projectID] = project
	return nil
}

func (r *fakeRepo) UpdateProjectMemberRole(ctx context.Context, projectID, memberID primitive.ObjectID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[projectID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, entry := range project.Members {
		if entry.MemberID == memberID {
			project.Members[i].Role = role
		}
	}
	r.projects[projectID] = project
	return nil
}

func (r *fakeRepo) RemoveProjectMember(ctx context.Context, projectID, memberID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[projectID]
	if !ok {
		return nil
	}
	kept := project.Members[:0]
	for _, entry := range project.Members {
		if entry.MemberID != memberID {
			kept = append(kept, entry)
		}
	}
	project.Members = kept
	r.projects[projectID] = project
	return nil
}

func (r *fakeRepo) RemoveMemberFromAllProjects(ctx context.Context, memberID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, project := range r.projects {
		kept := project.Members[:0]
		for _, entry := range project.Members {
			if entry.MemberID != memberID {
				kept = append(kept, entry)
			}
		}
		project.Members = kept
		r.projects[id] = project
	}
	return nil
}

func (r *fakeRepo) SetProjectManager(ctx context.Context, projectID, managerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[projectID]
	if !ok {
		return repository.ErrNotFound
	}
	project.ProjectManager = managerID
	r.projects[projectID] = project
	return nil
}

func (r *fakeRepo) CreateMeeting(ctx context.Context, meeting model.Meeting) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meeting.ID = primitive.NewObjectID()
	r.meetings[meeting.ID] = meeting
	return meeting.ID, nil
}

func (r *fakeRepo) GetMeetingByID(ctx context.Context, id primitive.ObjectID) (model.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meeting, ok := r.meetings[id]
	if !ok {
		return model.Meeting{}, repository.ErrNotFound
	}
	return meeting, nil
}

func (r *fakeRepo) ListMeetings(ctx context.Context) ([]model.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meetings := make([]model.Meeting, 0, len(r.meetings))
	for _, meeting := range r.meetings {
		meetings = append(meetings, meeting)
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].Date.After(meetings[j].Date) })
	return meetings, nil
}

func (r *fakeRepo) ListUpcomingMeetings(ctx context.Context, after time.Time, limit int64) ([]model.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meetings := make([]model.Meeting, 0)
	for _, meeting := range r.meetings {
		if !meeting.Date.Before(after) {
			meetings = append(meetings, meeting)
		}
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].Date.Before(meetings[j].Date) })
	if int64(len(meetings)) > limit {
		meetings = meetings[:limit]
	}
	return meetings, nil
}

func (r *fakeRepo) UpdateMeeting(ctx context.Context, meeting model.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[meeting.ID]; !ok {
		return repository.ErrNotFound
	}
	r.meetings[meeting.ID] = meeting
	return nil
}

func (r *fakeRepo) DeleteMeetingsByProject(ctx context.Context, projectID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, meeting := range r.meetings {
		if meeting.ProjectID == projectID {
			delete(r.meetings, id)
		}
	}
	return nil
}

func (r *fakeRepo) CreateTask(ctx context.Context, task model.Task) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = primitive.NewObjectID()
	r.tasks[task.ID] = task
	return task.ID, nil
}

func (r *fakeRepo) GetTaskByID(ctx context.Context, id primitive.ObjectID) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return model.Task{}, repository.ErrNotFound
	}
	return task, nil
}

func (r *fakeRepo) ListTasks(ctx context.Context) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := make([]model.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		tasks = append(tasks, task)
	}
	sortTasksByDueDate(tasks)
	return tasks, nil
}

func (r *fakeRepo) ListOpenTasksByResponsible(ctx context.Context, memberID primitive.ObjectID) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := make([]model.Task, 0)
	for _, task := range r.tasks {
		if task.ResponsibleMemberID == memberID && task.Status != model.TaskClosed {
			tasks = append(tasks, task)
		}
	}
	sortTasksByDueDate(tasks)
	return tasks, nil
}

func (r *fakeRepo) ListOpenTasksByMeeting(ctx context.Context, meetingID primitive.ObjectID) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := make([]model.Task, 0)
	for _, task := range r.tasks {
		if task.MeetingID != nil && *task.MeetingID == meetingID && task.Status != model.TaskClosed {
			tasks = append(tasks, task)
		}
	}
	sortTasksByDueDate(tasks)
	return tasks, nil
}

func (r *fakeRepo) UpdateTask(ctx context.Context, task model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return repository.ErrNotFound
	}
	r.tasks[task.ID] = task
	return nil
}

func (r *fakeRepo) DeleteTasksByProject(ctx context.Context, projectID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, task := range r.tasks {
		if task.ProjectID == projectID {
			delete(r.tasks, id)
		}
	}
	return nil
}

func (r *fakeRepo) CloseCompletedTasks(ctx context.Context, meetingID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for id, task := range r.tasks {
		if task.MeetingID != nil && *task.MeetingID == meetingID && task.Status == model.TaskCompleted {
			task.Status = model.TaskClosed
			r.tasks[id] = task
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) CountTasksByProjectStatus(ctx context.Context) ([]repository.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buckets := map[primitive.ObjectID]map[model.TaskStatus]int{}
	for _, task := range r.tasks {
		if buckets[task.ProjectID] == nil {
			buckets[task.ProjectID] = map[model.TaskStatus]int{}
		}
		buckets[task.ProjectID][task.Status]++
	}
	return flattenBuckets(buckets), nil
}

func (r *fakeRepo) CountTasksByMemberStatus(ctx context.Context) ([]repository.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buckets := map[primitive.ObjectID]map[model.TaskStatus]int{}
	for _, task := range r.tasks {
		if buckets[task.ResponsibleMemberID] == nil {
			buckets[task.ResponsibleMemberID] = map[model.TaskStatus]int{}
		}
		buckets[task.ResponsibleMemberID][task.Status]++
	}
	return flattenBuckets(buckets), nil
}

func (r *fakeRepo) CountOverdueTasksByMember(ctx context.Context, now time.Time) ([]repository.OwnerCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[primitive.ObjectID]int{}
	for _, task := range r.tasks {
		open := task.Status == model.TaskPending || task.Status == model.TaskInProgress
		if open && task.DueDate != nil && task.DueDate.Before(now) {
			counts[task.ResponsibleMemberID]++
		}
	}
	result := make([]repository.OwnerCount, 0, len(counts))
	for id, count := range counts {
		result = append(result, repository.OwnerCount{OwnerID: id, Count: count})
	}
	return result, nil
}

func (r *fakeRepo) HealthCheck(ctx context.Context) error { return nil }

func sortTasksByDueDate(tasks []model.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].DueDate == nil {
			return false
		}
		if tasks[j].DueDate == nil {
			return true
		}
		return tasks[i].DueDate.Before(*tasks[j].DueDate)
	})
}

func flattenBuckets(buckets map[primitive.ObjectID]map[model.TaskStatus]int) []repository.StatusCount {
	counts := make([]repository.StatusCount, 0)
	for ownerID, statuses := range buckets {
		for status, count := range statuses {
			counts = append(counts, repository.StatusCount{OwnerID: ownerID, Status: status, Count: count})
		}
	}
	return counts
}

// fakeMailer records outgoing messages and can be told to fail for specific
// recipients.
type fakeMailer struct {
	mu     sync.Mutex
	sent   []Message
	failTo map[string]error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failTo: map[string]error{}}
}

func (m *fakeMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failTo[msg.To]; ok {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) sentTo(email string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []Message
	for _, msg := range m.sent {
		if msg.To == email {
			matches = append(matches, msg)
		}
	}
	return matches
}

// fakeTelemetry satisfies monitoring.Telemetry without exporting anything.
type fakeTelemetry struct{}

func (fakeTelemetry) RecordRegistration(ctx context.Context, role string, success bool)   {}
func (fakeTelemetry) RecordEmailDispatch(ctx context.Context, kind string, success bool) {}
func (fakeTelemetry) Logger() *slog.Logger                                                { return discardLogger() }
func (fakeTelemetry) Shutdown(ctx context.Context) error                                  { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
