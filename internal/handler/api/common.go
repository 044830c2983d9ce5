package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"negarai/internal/models"
	"negarai/internal/repository"
)

// Repos bundles the repositories the API handlers run on.
type Repos struct {
	Account *repository.AccountRepository
	Usage   *repository.UsageRepository
	Payment *repository.PaymentRepository
	Task    *repository.TaskRepository
	Price   *repository.PriceRepository
}

// Response helpers shared by all API handlers.
func successResponse(c echo.Context, msg string, obj interface{}) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Status: true,
		Msg:    msg,
		Obj:    obj,
	})
}

func errorResponse(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Status: false,
		Msg:    msg,
		Obj:    nil,
	})
}
