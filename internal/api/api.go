package api

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"projecthub/internal/middleware"
	"projecthub/internal/repository"
	"projecthub/internal/service"
	"projecthub/internal/token"
	"projecthub/internal/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Handler carries the service layer into the fiber routes.
type Handler struct {
	auth       *service.AuthService
	membership *service.MembershipService
	projects   *service.ProjectService
	meetings   *service.MeetingService
	tasks      *service.TaskService
	reports    *service.ReportService
	repo       repository.Repository
	validate   *validator.Validator
	logger     *slog.Logger
	baseURL    string
}

type Services struct {
	Auth       *service.AuthService
	Membership *service.MembershipService
	Projects   *service.ProjectService
	Meetings   *service.MeetingService
	Tasks      *service.TaskService
	Reports    *service.ReportService
}

func NewHandler(services Services, repo repository.Repository, validate *validator.Validator, logger *slog.Logger, baseURL string) *Handler {
	return &Handler{
		auth:       services.Auth,
		membership: services.Membership,
		projects:   services.Projects,
		meetings:   services.Meetings,
		tasks:      services.Tasks,
		reports:    services.Reports,
		repo:       repo,
		validate:   validate,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// RegisterRoutes mounts the full API under /api.
func (h *Handler) RegisterRoutes(app *fiber.App, tokens *token.Issuer) {
	api := app.Group("/api")

	api.Get("/health", h.Health)

	authLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	})

	auth := api.Group("/auth")
	auth.Post("/register", authLimiter, h.Register)
	auth.Post("/login", authLimiter, h.Login)
	auth.Post("/forgot-password", h.ForgotPassword)
	auth.Post("/reset-password/:token", h.ResetPassword)
	auth.Get("/me", middleware.Authenticate(tokens), h.Me)

	// Token-gated completion link from the task emails; no session needed.
	api.Get("/tasks/:id/complete", h.CompleteTaskByToken)

	authed := api.Group("", middleware.Authenticate(tokens))

	members := authed.Group("/members")
	members.Get("/", h.ListMembers)
	members.Post("/", middleware.RequireAdmin(), h.CreateMember)
	members.Get("/:id", h.GetMember)
	members.Put("/:id", middleware.RequireAdmin(), h.UpdateMember)
	members.Delete("/:id", middleware.RequireAdmin(), h.DeleteMember)
	members.Post("/:id/reset-password", middleware.RequireAdmin(), h.AdminResetPassword)

	projects := authed.Group("/projects")
	projects.Get("/", h.ListProjects)
	projects.Post("/", middleware.RequireManagerOrAdmin(), h.CreateProject)
	projectAccess := middleware.RequireProjectAccess(h.repo, "id", h.logger)
	projects.Get("/:id", projectAccess, h.GetProject)
	projects.Put("/:id", middleware.RequireManagerOrAdmin(), h.UpdateProject)
	projects.Delete("/:id", middleware.RequireAdmin(), h.DeleteProject)
	projects.Get("/:id/members", projectAccess, h.GetProjectRoster)
	projects.Put("/:id/members", middleware.RequireManagerOrAdmin(), h.ReplaceProjectMembers)
	projects.Put("/:id/manager", middleware.RequireManagerOrAdmin(), h.TransferProjectManager)

	meetings := authed.Group("/meetings")
	meetings.Get("/", h.ListMeetings)
	meetings.Get("/upcoming", h.UpcomingMeetings)
	meetings.Post("/", middleware.RequireManagerOrAdmin(), h.CreateMeeting)
	meetings.Get("/:id", h.GetMeeting)
	meetings.Put("/:id", middleware.RequireManagerOrAdmin(), h.UpdateMeeting)
	meetings.Post("/:id/tasks", h.AddMeetingTask)
	meetings.Post("/:id/send-notes", middleware.RequireManagerOrAdmin(), h.SendMeetingNotes)
	meetings.Post("/:id/close-completed-tasks", middleware.RequireManagerOrAdmin(), h.CloseCompletedTasks)

	tasks := authed.Group("/tasks")
	tasks.Get("/", h.ListTasks)
	tasks.Get("/my-tasks", h.MyTasks)
	tasks.Get("/:id", h.GetTask)
	tasks.Patch("/:id", h.UpdateTask)
	tasks.Post("/:id/comments", h.AddTaskComment)

	reports := authed.Group("/reports")
	reports.Get("/projects", h.ProjectStatusReport)
	reports.Get("/members", h.MemberTaskReport)
}

// fail translates service errors into the API's error responses. Anything
// without a mapping is a 500 with the detail kept out of the body.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrMeetingNotFound),
		errors.Is(err, service.ErrTaskNotFound):
		return message(c, fiber.StatusNotFound, capitalize(err.Error()))
	case errors.Is(err, service.ErrMemberExists),
		errors.Is(err, service.ErrInvalidResetToken),
		errors.Is(err, service.ErrEmptyComment):
		return message(c, fiber.StatusBadRequest, capitalize(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidCompletionToken):
		return message(c, fiber.StatusUnauthorized, capitalize(err.Error()))
	default:
		h.logger.ErrorContext(c.Context(), "Request failed", "path", c.Path(), "error", err)
		return message(c, fiber.StatusInternalServerError, "Server error")
	}
}

func message(c *fiber.Ctx, status int, text string) error {
	return c.Status(status).JSON(fiber.Map{"message": text})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// objectIDParam parses a route parameter as an ObjectID.
func objectIDParam(c *fiber.Ctx, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Params(param))
	return id, err == nil
}
