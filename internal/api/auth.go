package api

import (
	"projecthub/internal/middleware"
	"projecthub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Position string `json:"position"`
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "Name, email and a password of at least 6 characters are required")
	}

	member, authToken, err := h.auth.Register(c.Context(), service.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Company:  req.Company,
		Position: req.Position,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":  authToken,
		"member": member,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "Email and password are required")
	}

	member, authToken, err := h.auth.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"token":  authToken,
		"member": member,
	})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	member, err := h.auth.CurrentMember(c.Context(), middleware.MemberID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(member)
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "A valid email is required")
	}

	if err := h.auth.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password reset email sent"})
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "A password of at least 6 characters is required")
	}

	if err := h.auth.ResetPassword(c.Context(), c.Params("token"), req.Password); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password has been reset"})
}
