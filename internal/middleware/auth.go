package middleware

import (
	"errors"
	"log/slog"

	"projecthub/internal/model"
	"projecthub/internal/repository"
	"projecthub/internal/token"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// HeaderAuthToken carries the bearer token on every authenticated call.
	HeaderAuthToken = "x-auth-token"

	localMemberID = "memberID"
	localRole     = "role"
)

// Authenticate verifies the x-auth-token header and stashes the caller's
// member ID and role in the request locals.
func Authenticate(tokens *token.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(HeaderAuthToken)
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "No token, authorization denied",
			})
		}

		claims, err := tokens.Parse(header)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Token is not valid",
			})
		}

		memberID, err := primitive.ObjectIDFromHex(claims.MemberID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Token is not valid",
			})
		}

		c.Locals(localMemberID, memberID)
		c.Locals(localRole, claims.Role)
		return c.Next()
	}
}

// MemberID returns the authenticated caller's ID from the request locals.
func MemberID(c *fiber.Ctx) primitive.ObjectID {
	if id, ok := c.Locals(localMemberID).(primitive.ObjectID); ok {
		return id
	}
	return primitive.NilObjectID
}

// Role returns the authenticated caller's account role.
func Role(c *fiber.Ctx) model.Role {
	if role, ok := c.Locals(localRole).(model.Role); ok {
		return role
	}
	return ""
}

// RequireAdmin gates a route to admin accounts.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Role(c) != model.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Access denied",
			})
		}
		return c.Next()
	}
}

// RequireManagerOrAdmin gates a route to project managers and admins.
func RequireManagerOrAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := Role(c)
		if role != model.RoleAdmin && role != model.RoleProjectManager {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Access denied",
			})
		}
		return c.Next()
	}
}

// RequireProjectAccess gates a project-scoped route: admins and project
// managers pass, plain members must be the project's manager or on its
// roster. The project ID is read from the named route parameter.
func RequireProjectAccess(repo repository.Repository, param string, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := Role(c)
		if role == model.RoleAdmin || role == model.RoleProjectManager {
			return c.Next()
		}

		projectID, err := primitive.ObjectIDFromHex(c.Params(param))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid project id",
			})
		}

		project, err := repo.GetProjectByID(c.Context(), projectID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"message": "Project not found",
				})
			}
			logger.ErrorContext(c.Context(), "Failed to load project for access check", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Server error",
			})
		}

		memberID := MemberID(c)
		if project.ProjectManager != memberID && !project.HasMember(memberID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Access denied",
			})
		}
		return c.Next()
	}
}
