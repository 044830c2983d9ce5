package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"negarai/internal/middleware"
)

// ProfileHandler serves account profile reads and edits. Profile edits
// never touch the token balance.
type ProfileHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewProfileHandler(repos *Repos, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{repos: repos, logger: logger}
}

// Get handles GET /api/profile. The account row is materialized on the first
// authenticated request; identity itself comes from the auth service.
func (h *ProfileHandler) Get(c echo.Context) error {
	userID := middleware.UserID(c)

	acc, err := h.repos.Account.FindOrCreate(userID, middleware.UserEmail(c))
	if err != nil {
		h.logger.Error("account lookup failed",
			zap.String("user_id", userID), zap.Error(err))
		return errorResponse(c, "حساب کاربری یافت نشد")
	}
	return successResponse(c, "", acc)
}

type profileUpdateRequest struct {
	Name  string `json:"name"`
	Theme string `json:"theme"`
}

// Update handles POST /api/profile.
func (h *ProfileHandler) Update(c echo.Context) error {
	userID := middleware.UserID(c)

	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "درخواست نامعتبر است")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Theme != "" {
		updates["theme"] = req.Theme
	}
	if err := h.repos.Account.UpdateProfile(userID, updates); err != nil {
		h.logger.Error("profile update failed",
			zap.String("user_id", userID), zap.Error(err))
		return errorResponse(c, "خطا در به‌روزرسانی پروفایل")
	}
	return successResponse(c, "پروفایل به‌روزرسانی شد", nil)
}
