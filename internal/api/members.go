package api

import (
	"projecthub/internal/model"
	"projecthub/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) ListMembers(c *fiber.Ctx) error {
	members, err := h.auth.ListMembers(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(members)
}

func (h *Handler) GetMember(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid member id")
	}

	member, err := h.auth.CurrentMember(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(member)
}

type createMemberRequest struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Phone    string   `json:"phone"`
	Company  string   `json:"company"`
	Position string   `json:"position"`
	Role     string   `json:"role" validate:"omitempty,member_role"`
	Projects []string `json:"projects"`
}

// CreateMember is the admin path: the generated password is emailed, and any
// initial projects go through the membership ledger.
func (h *Handler) CreateMember(c *fiber.Ctx) error {
	var req createMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "Name and a valid email are required")
	}

	projectIDs, ok := parseObjectIDs(req.Projects)
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid project id")
	}

	member, err := h.auth.CreateMember(c.Context(), service.CreateMemberParams{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Company:  req.Company,
		Position: req.Position,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		return h.fail(c, err)
	}

	for _, projectID := range projectIDs {
		if err := h.membership.AddMemberToProject(c.Context(), projectID, member.ID, ""); err != nil {
			return h.fail(c, err)
		}
		member.Projects = append(member.Projects, projectID)
	}

	return c.Status(fiber.StatusCreated).JSON(member)
}

type updateMemberRequest struct {
	Name     *string  `json:"name"`
	Email    *string  `json:"email" validate:"omitempty,email"`
	Phone    *string  `json:"phone"`
	Company  *string  `json:"company"`
	Position *string  `json:"position"`
	Role     *string  `json:"role" validate:"omitempty,member_role"`
	Projects []string `json:"projects"`
}

func (h *Handler) UpdateMember(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid member id")
	}

	var req updateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid member fields")
	}

	params := service.UpdateProfileParams{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Company:  req.Company,
		Position: req.Position,
	}
	if req.Role != nil {
		role := model.Role(*req.Role)
		params.Role = &role
	}

	member, err := h.auth.UpdateProfile(c.Context(), id, params)
	if err != nil {
		return h.fail(c, err)
	}

	if req.Projects != nil {
		projectIDs, ok := parseObjectIDs(req.Projects)
		if !ok {
			return message(c, fiber.StatusBadRequest, "Invalid project id")
		}
		if err := h.membership.ReplaceMemberProjects(c.Context(), id, projectIDs); err != nil {
			return h.fail(c, err)
		}
		member.Projects = projectIDs
	}

	return c.JSON(member)
}

func (h *Handler) DeleteMember(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid member id")
	}

	if err := h.membership.DeleteMember(c.Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}

func (h *Handler) AdminResetPassword(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid member id")
	}

	if err := h.auth.AdminResetPassword(c.Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password has been reset and emailed to the member"})
}

func parseObjectIDs(hexes []string) ([]primitive.ObjectID, bool) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, hex := range hexes {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
