package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"negarai/internal/middleware"
	"negarai/internal/pkg/utils"
)

// TaskHandler serves generation task status and history.
type TaskHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewTaskHandler(repos *Repos, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{repos: repos, logger: logger}
}

// Get handles GET /api/tasks/:id.
func (h *TaskHandler) Get(c echo.Context) error {
	userID := middleware.UserID(c)

	task, err := h.repos.Task.FindByID(c.Param("id"))
	if err != nil {
		return errorResponse(c, "درخواست یافت نشد")
	}
	if task.UserID != userID {
		return errorResponse(c, "درخواست یافت نشد")
	}
	return successResponse(c, "", task)
}

// List handles GET /api/tasks. The limit parameter accepts Persian digits,
// as the frontend sends them.
func (h *TaskHandler) List(c echo.Context) error {
	userID := middleware.UserID(c)

	limit := utils.ParseInt(c.QueryParam("limit"), 30)
	tasks, err := h.repos.Task.FindByUserID(userID, limit)
	if err != nil {
		return errorResponse(c, "خطا در دریافت تاریخچه")
	}
	return successResponse(c, "", tasks)
}

// Models handles GET /api/models: the purchasable model catalog with prices.
func (h *TaskHandler) Models(c echo.Context) error {
	prices, err := h.repos.Price.FindAll()
	if err != nil {
		return errorResponse(c, "خطا در دریافت فهرست مدل‌ها")
	}
	return successResponse(c, "", prices)
}
