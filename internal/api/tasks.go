package api

import (
	"fmt"
	"time"

	"projecthub/internal/middleware"
	"projecthub/internal/model"
	"projecthub/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.List(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(tasks)
}

func (h *Handler) MyTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.ListByResponsible(c.Context(), middleware.MemberID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(tasks)
}

func (h *Handler) GetTask(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid task id")
	}

	task, err := h.tasks.Get(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(task)
}

type updateTaskRequest struct {
	Description         *string    `json:"description"`
	ResponsibleMemberID *string    `json:"responsibleMemberId"`
	DueDate             *time.Time `json:"dueDate"`
	Status              *string    `json:"status" validate:"omitempty,task_status"`
}

func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid task id")
	}

	var req updateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Validate(req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid task fields")
	}

	params := service.UpdateTaskParams{
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.ResponsibleMemberID != nil {
		responsibleID, err := primitive.ObjectIDFromHex(*req.ResponsibleMemberID)
		if err != nil {
			return message(c, fiber.StatusBadRequest, "Invalid member id")
		}
		params.ResponsibleMemberID = &responsibleID
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		params.Status = &status
	}

	task, err := h.tasks.Update(c.Context(), id, params)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(task)
}

type addCommentRequest struct {
	Text string `json:"text"`
}

func (h *Handler) AddTaskComment(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid task id")
	}

	var req addCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}

	comment, err := h.tasks.AddComment(c.Context(), id, middleware.MemberID(c), req.Text)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// CompleteTaskByToken serves the emailed completion link. It is the one
// browser-facing route, so it answers with a small HTML page instead of
// JSON.
func (h *Handler) CompleteTaskByToken(c *fiber.Ctx) error {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid task id")
	}

	task, err := h.tasks.CompleteViaToken(c.Context(), id, c.Query("token"))
	if err != nil {
		return h.fail(c, err)
	}

	c.Type("html", "utf-8")
	return c.SendString(completionPage(task, h.baseURL))
}

func completionPage(task model.Task, baseURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <title>Task Completed</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 0; padding: 20px; text-align: center; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px; }
    .success { color: #4CAF50; font-size: 24px; margin-bottom: 20px; }
    .task-details { text-align: left; margin: 20px 0; padding: 10px; background-color: #f9f9f9; border-radius: 5px; }
    .button { background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block; margin-top: 20px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="success">&#10003; Task Completed!</div>
    <div class="task-details">
      <p><strong>Task:</strong> %s</p>
      <p><strong>Completed on:</strong> %s</p>
    </div>
    <p>The task has been marked as completed successfully.</p>
    <a href="%s" class="button">Go to Project Manager</a>
  </div>
</body>
</html>`, task.Description, time.Now().Format("1/2/2006, 3:04:05 PM"), baseURL)
}
