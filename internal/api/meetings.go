package api

import (
	"time"

	"projecthub/internal/middleware"
	"projecthub/internal/model"
	"projecthub/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) ListMeetings(c *fiber.Ctx) error {
	meetings, err := h.meetings.List(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(meetings)
}

func (h *Handler) UpcomingMeetings(c *fiber.Ctx) error {
	meetings, err := h.meetings.Upcoming(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(meetings)
}

func (h *Handler) GetMeeting(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid meeting id")
	}

	meeting, err := h.meetings.Get(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(meeting)
}

type recurrenceRequest struct {
	IsRecurring bool       `json:"isRecurring"`
	Frequency   string     `json:"frequency"`
	EndDate     *time.Time `json:"endDate"`
}

type createMeetingRequest struct {
	ProjectID string            `json:"projectId" validate:"required"`
	Title     string            `json:"title" validate:"required"`
	Date      time.Time         `json:"date" validate:"required"`
	Location  string            `json:"location"`
	Notes     string            `json:"notes"`
	Attendees []string          `json:"attendees"`
	Recurring *recurrenceRequest `json:"recurring"`
}

func (h *Handler) CreateMeeting(c *fiber.Ctx) error {
	var req createMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "Project ID, title, and date are required")
	}

	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid project id")
	}
	attendees, ok := parseObjectIDs(req.Attendees)
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid attendee id")
	}

	params := service.CreateMeetingParams{
		ProjectID: projectID,
		Title:     req.Title,
		Date:      req.Date,
		Location:  req.Location,
		Notes:     req.Notes,
		Attendees: attendees,
	}
	if req.Recurring != nil {
		params.Recurring = model.Recurrence{
			IsRecurring: req.Recurring.IsRecurring,
			Frequency:   model.RecurrenceFrequency(req.Recurring.Frequency),
			EndDate:     req.Recurring.EndDate,
		}
	}

	meeting, err := h.meetings.Create(c.Context(), middleware.MemberID(c), params)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(meeting)
}

type updateMeetingRequest struct {
	Title     *string            `json:"title"`
	Date      *time.Time         `json:"date"`
	Location  *string            `json:"location"`
	Notes     *string            `json:"notes"`
	Attendees []string           `json:"attendees"`
	Recurring *recurrenceRequest `json:"recurring"`
}

func (h *Handler) UpdateMeeting(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid meeting id")
	}

	var req updateMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}

	params := service.UpdateMeetingParams{
		Title:    req.Title,
		Date:     req.Date,
		Location: req.Location,
		Notes:    req.Notes,
	}
	if req.Attendees != nil {
		attendees, ok := parseObjectIDs(req.Attendees)
		if !ok {
			return message(c, fiber.StatusBadRequest, "Invalid attendee id")
		}
		params.Attendees = attendees
	}
	if req.Recurring != nil {
		params.Recurring = &model.Recurrence{
			IsRecurring: req.Recurring.IsRecurring,
			Frequency:   model.RecurrenceFrequency(req.Recurring.Frequency),
			EndDate:     req.Recurring.EndDate,
		}
	}

	meeting, err := h.meetings.Update(c.Context(), id, params)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(meeting)
}

type addMeetingTaskRequest struct {
	Description         string     `json:"description" validate:"required"`
	ResponsibleMemberID string     `json:"responsibleMemberId" validate:"required"`
	DueDate             *time.Time `json:"dueDate"`
	Status              string     `json:"status" validate:"omitempty,task_status"`
}

func (h *Handler) AddMeetingTask(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid meeting id")
	}

	var req addMeetingTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "Description and responsible member are required")
	}

	responsibleID, err := primitive.ObjectIDFromHex(req.ResponsibleMemberID)
	if err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid member id")
	}

	task, err := h.meetings.AddTask(c.Context(), id, service.AddMeetingTaskParams{
		Description:         req.Description,
		ResponsibleMemberID: responsibleID,
		DueDate:             req.DueDate,
		Status:              model.TaskStatus(req.Status),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *Handler) SendMeetingNotes(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid meeting id")
	}

	if err := h.meetings.DistributeNotes(c.Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Meeting notes sent successfully"})
}

func (h *Handler) CloseCompletedTasks(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid meeting id")
	}

	count, err := h.tasks.BulkCloseCompleted(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Tasks marked as closed",
		"count":   count,
	})
}
