package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"negarai/internal/billing"
	"negarai/internal/middleware"
	"negarai/internal/models"
	"negarai/internal/pkg/utils"
	"negarai/internal/provider"
)

// GenerateHandler accepts generation requests: it resolves the model price,
// charges the tokens, and only on a reconciled debit dispatches the task to
// the provider.
type GenerateHandler struct {
	repos     *Repos
	consumer  *billing.Consumer
	providers *provider.Registry
	poller    *provider.Poller
	logger    *zap.Logger
}

func NewGenerateHandler(repos *Repos, consumer *billing.Consumer, providers *provider.Registry, poller *provider.Poller, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{
		repos:     repos,
		consumer:  consumer,
		providers: providers,
		poller:    poller,
		logger:    logger,
	}
}

type generateRequest struct {
	Model   string            `json:"model"`
	Prompt  string            `json:"prompt"`
	Options map[string]string `json:"options,omitempty"`
}

type generateResponse struct {
	models.ConsumeResult
	TaskID string `json:"task_id,omitempty"`
}

// Handle processes POST /api/generate.
func (h *GenerateHandler) Handle(c echo.Context) error {
	userID := middleware.UserID(c)

	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "درخواست نامعتبر است")
	}
	if req.Prompt == "" || req.Model == "" {
		return errorResponse(c, "مدل و متن درخواست الزامی است")
	}

	price, err := h.repos.Price.FindByModel(req.Model)
	if err != nil {
		return errorResponse(c, "مدل انتخاب‌شده در دسترس نیست")
	}

	outcome := h.consumer.Consume(c.Request().Context(), userID, req.Model, price.Price)
	if !outcome.Success {
		return c.JSON(http.StatusOK, generateResponse{
			ConsumeResult: models.ConsumeResult{
				Success: false,
				Error:   consumeErrorMessage(outcome.Err),
			},
		})
	}

	// Debit is final from here on: a provider failure does not refund the
	// charge.
	taskID, dispatchErr := h.dispatch(userID, price.Provider, req)
	resp := generateResponse{
		ConsumeResult: models.ConsumeResult{
			Success:    true,
			NewBalance: outcome.NewBalance,
		},
		TaskID: taskID,
	}
	if dispatchErr != nil {
		h.logger.Error("dispatch failed after successful debit",
			zap.String("user_id", userID),
			zap.String("model", req.Model),
			zap.Error(dispatchErr))
	}
	return c.JSON(http.StatusOK, resp)
}

// dispatch creates the task row, starts the provider task, and hands it to
// the poller. The returned task ID is always usable for status lookups even
// when the provider call failed (the row then carries the failure).
func (h *GenerateHandler) dispatch(userID, providerName string, req generateRequest) (string, error) {
	task := &models.GenerationTask{
		ID:       utils.GenerateUUID(),
		UserID:   userID,
		Model:    req.Model,
		Provider: providerName,
		Prompt:   req.Prompt,
		Status:   models.TaskPending,
	}
	if err := h.repos.Task.Create(task); err != nil {
		return "", err
	}

	client, err := h.providers.Get(providerName)
	if err != nil {
		_ = h.repos.Task.MarkFailed(task.ID, err.Error())
		return task.ID, err
	}

	go h.run(client, task, req)
	return task.ID, nil
}

func (h *GenerateHandler) run(client provider.Client, task *models.GenerationTask, req generateRequest) {
	ctx := context.Background()

	providerTaskID, err := client.Create(ctx, provider.CreateRequest{
		Model:   task.Model,
		Prompt:  req.Prompt,
		Options: req.Options,
	})
	if err != nil {
		if markErr := h.repos.Task.MarkFailed(task.ID, err.Error()); markErr != nil {
			h.logger.Error("failed to mark task failed",
				zap.String("task_id", task.ID), zap.Error(markErr))
		}
		return
	}

	if err := h.repos.Task.SetProviderTaskID(task.ID, providerTaskID); err != nil {
		h.logger.Error("failed to store provider task id",
			zap.String("task_id", task.ID), zap.Error(err))
	}

	h.poller.Watch(ctx, client, task.ID, providerTaskID, task.Model)
}

func consumeErrorMessage(err error) string {
	switch {
	case errors.Is(err, billing.ErrInsufficientTokens):
		return "Insufficient tokens"
	case errors.Is(err, billing.ErrAccountNotFound):
		return "Account not found"
	case errors.Is(err, billing.ErrInvalidParameters):
		return "Invalid parameters"
	case errors.Is(err, billing.ErrConsumeInFlight):
		return "Another request is already in progress"
	default:
		return "Debit failed, no charge was applied"
	}
}
