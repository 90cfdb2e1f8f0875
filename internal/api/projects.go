package api

import (
	"time"

	"projecthub/internal/middleware"
	"projecthub/internal/model"
	"projecthub/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(projects)
}

func (h *Handler) GetProject(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid project id")
	}

	project, err := h.projects.Get(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(project)
}

type createProjectRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Client      string     `json:"client"`
	StartDate   time.Time  `json:"startDate" validate:"required"`
	EndDate     *time.Time `json:"endDate"`
	Status      string     `json:"status" validate:"omitempty,project_status"`
}

func (h *Handler) CreateProject(c *fiber.Ctx) error {
	var req createProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "Name and start date are required")
	}

	project, err := h.projects.Create(c.Context(), middleware.MemberID(c), service.CreateProjectParams{
		Name:        req.Name,
		Description: req.Description,
		Client:      req.Client,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      model.ProjectStatus(req.Status),
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(project)
}

type updateProjectRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Client      *string    `json:"client"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Status      *string    `json:"status" validate:"omitempty,project_status"`
}

func (h *Handler) UpdateProject(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid project id")
	}

	var req updateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid project fields")
	}

	params := service.UpdateProjectParams{
		Name:        req.Name,
		Description: req.Description,
		Client:      req.Client,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if req.Status != nil {
		status := model.ProjectStatus(*req.Status)
		params.Status = &status
	}

	project, err := h.projects.Update(c.Context(), id, params)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(project)
}

func (h *Handler) DeleteProject(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid project id")
	}

	if err := h.membership.DeleteProject(c.Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Project removed"})
}

func (h *Handler) GetProjectRoster(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid project id")
	}

	roster, err := h.projects.Roster(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(roster)
}

type rosterEntryRequest struct {
	MemberID string `json:"memberId" validate:"required"`
	Role     string `json:"role"`
}

type replaceMembersRequest struct {
	Members []rosterEntryRequest `json:"members" validate:"required,dive"`
}

func (h *Handler) ReplaceProjectMembers(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid project id")
	}

	var req replaceMembersRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "A members list is required")
	}

	entries := make([]model.ProjectMember, 0, len(req.Members))
	for _, entry := range req.Members {
		memberID, err := primitive.ObjectIDFromHex(entry.MemberID)
		if err != nil {
			return message(c, fiber.StatusBadRequest, "Invalid member id")
		}
		entries = append(entries, model.ProjectMember{MemberID: memberID, Role: entry.Role})
	}

	if err := h.membership.ReplaceProjectMembers(c.Context(), id, entries); err != nil {
		return h.fail(c, err)
	}

	roster, err := h.projects.Roster(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(roster)
}

type transferManagerRequest struct {
	ManagerID string `json:"managerId" validate:"required"`
}

func (h *Handler) TransferProjectManager(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid project id")
	}

	var req transferManagerRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "A manager id is required")
	}

	managerID, err := primitive.ObjectIDFromHex(req.ManagerID)
	if err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid manager id")
	}

	if err := h.membership.TransferProjectManager(c.Context(), id, managerID); err != nil {
		return h.fail(c, err)
	}

	project, err := h.projects.Get(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(project)
}
