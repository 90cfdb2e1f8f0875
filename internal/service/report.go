package service

import (
	"context"
	"math"
	"time"

	"projecthub/internal/model"
	"projecthub/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportService computes cross-entity aggregations. Reports are pure reads,
// recomputed from the live collections on every call.
type ReportService struct {
	repo repository.Repository
}

func NewReportService(repo repository.Repository) *ReportService {
	return &ReportService{repo: repo}
}

// ProjectTaskStats is the per-project task breakdown. Completed and closed
// both count toward the completion percentage.
type ProjectTaskStats struct {
	Total                int `json:"total"`
	Pending              int `json:"pending"`
	InProgress           int `json:"inProgress"`
	Completed            int `json:"completed"`
	Closed               int `json:"closed"`
	CompletionPercentage int `json:"completionPercentage"`
}

type ProjectReport struct {
	ProjectID primitive.ObjectID  `json:"projectId"`
	Name      string              `json:"name"`
	Status    model.ProjectStatus `json:"status"`
	StartDate time.Time           `json:"startDate"`
	EndDate   *time.Time          `json:"endDate,omitempty"`
	Client    string              `json:"client,omitempty"`
	Tasks     ProjectTaskStats    `json:"tasks"`
}

// MemberTaskStats is the per-member workload summary. Overdue counts open
// tasks whose due date has passed.
type MemberTaskStats struct {
	TotalActive    int `json:"totalActive"`
	Pending        int `json:"pending"`
	InProgress     int `json:"inProgress"`
	Completed      int `json:"completed"`
	Closed         int `json:"closed"`
	Total          int `json:"total"`
	CompletionRate int `json:"completionRate"`
	Overdue        int `json:"overdue"`
}

type MemberReport struct {
	MemberID primitive.ObjectID `json:"memberId"`
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Role     model.Role         `json:"role"`
	Company  string             `json:"company,omitempty"`
	Position string             `json:"position,omitempty"`
	Tasks    MemberTaskStats    `json:"tasks"`
}

// ProjectStatus returns one report row per project, including projects with
// no tasks at all (zero counts, zero percentage).
func (s *ReportService) ProjectStatus(ctx context.Context) ([]ProjectReport, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountTasksByProjectStatus(ctx)
	if err != nil {
		return nil, err
	}

	buckets := map[primitive.ObjectID]map[model.TaskStatus]int{}
	for _, c := range counts {
		if buckets[c.OwnerID] == nil {
			buckets[c.OwnerID] = map[model.TaskStatus]int{}
		}
		buckets[c.OwnerID][c.Status] = c.Count
	}

	reports := make([]ProjectReport, 0, len(projects))
	for _, project := range projects {
		b := buckets[project.ID]
		stats := ProjectTaskStats{
			Pending:    b[model.TaskPending],
			InProgress: b[model.TaskInProgress],
			Completed:  b[model.TaskCompleted],
			Closed:     b[model.TaskClosed],
		}
		stats.Total = stats.Pending + stats.InProgress + stats.Completed + stats.Closed
		stats.CompletionPercentage = percentage(stats.Completed+stats.Closed, stats.Total)

		reports = append(reports, ProjectReport{
			ProjectID: project.ID,
			Name:      project.Name,
			Status:    project.Status,
			StartDate: project.StartDate,
			EndDate:   project.EndDate,
			Client:    project.Client,
			Tasks:     stats,
		})
	}
	return reports, nil
}

// MemberTasks returns one report row per member, including members with no
// tasks assigned.
func (s *ReportService) MemberTasks(ctx context.Context) ([]MemberReport, error) {
	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountTasksByMemberStatus(ctx)
	if err != nil {
		return nil, err
	}
	overdue, err := s.repo.CountOverdueTasksByMember(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	buckets := map[primitive.ObjectID]map[model.TaskStatus]int{}
	for _, c := range counts {
		if buckets[c.OwnerID] == nil {
			buckets[c.OwnerID] = map[model.TaskStatus]int{}
		}
		buckets[c.OwnerID][c.Status] = c.Count
	}
	overdueByMember := map[primitive.ObjectID]int{}
	for _, c := range overdue {
		overdueByMember[c.OwnerID] = c.Count
	}

	reports := make([]MemberReport, 0, len(members))
	for _, member := range members {
		b := buckets[member.ID]
		stats := MemberTaskStats{
			Pending:    b[model.TaskPending],
			InProgress: b[model.TaskInProgress],
			Completed:  b[model.TaskCompleted],
			Closed:     b[model.TaskClosed],
			Overdue:    overdueByMember[member.ID],
		}
		stats.TotalActive = stats.Pending + stats.InProgress
		stats.Total = stats.TotalActive + stats.Completed + stats.Closed
		stats.CompletionRate = percentage(stats.Completed+stats.Closed, stats.Total)

		reports = append(reports, MemberReport{
			MemberID: member.ID,
			Name:     member.Name,
			Email:    member.Email,
			Role:     member.Role,
			Company:  member.Company,
			Position: member.Position,
			Tasks:    stats,
		})
	}
	return reports, nil
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
