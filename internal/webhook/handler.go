package webhook

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mediareport/internal/constants"
	"mediareport/internal/ingress"
	"mediareport/internal/logger"
	"mediareport/internal/pipeline"
	apperrors "mediareport/pkg/errors"
	"mediareport/pkg/logging"
	"mediareport/pkg/metrics"
	"mediareport/pkg/models"
)

const (
	messageActive    = "Webhook endpoint is active"
	messageProcessed = "Media coverage report processed successfully"
	messageFailed    = "Internal server error while processing webhook"
	messageInvalid   = "Invalid webhook payload"
)

type Evaluator interface {
	Evaluate(ctx context.Context, event models.IncomingEvent) ingress.Decision
}

type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Summary, error)
}

// StatusResponse is returned by the liveness probe.
type StatusResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"Webhook endpoint is active"`
}

// SuccessData is the body of a completed report.
type SuccessData struct {
	pipeline.Summary
	Request models.WebhookMailData `json:"request"`
}

type SuccessResponse struct {
	Status  string      `json:"status" example:"success"`
	Message string      `json:"message"`
	Data    SuccessData `json:"data"`
}

type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Stage   string `json:"stage,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

type Handler struct {
	filter      Evaluator
	runner      Runner
	logger      logger.Logger
	exposeStack bool
}

// NewHandler builds the webhook handler. Stacks are included in error
// responses when exposeStack is set.
func NewHandler(filter Evaluator, runner Runner, log logger.Logger, exposeStack bool) *Handler {
	return &Handler{filter: filter, runner: runner, logger: log, exposeStack: exposeStack}
}

func (h *Handler) RegisterRoutes(router gin.IRouter, path string) {
	router.POST(path, h.Receive)
	router.GET(path, h.Status)
}

// Status godoc
// @Summary      Webhook liveness
// @Description  Reports that the webhook endpoint is reachable
// @Tags         webhook
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /composio/webhook [get]
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: constants.ResponseStatusSuccess, Message: messageActive})
}

// Receive godoc
// @Summary      Handle a new-email webhook
// @Description  Filters the event and, when it is a report request, runs the full report pipeline before responding
// @Tags         webhook
// @Accept       json
// @Produce      json
// @Param        payload  body      models.WebhookPayload  true  "New email event"
// @Success      200      {object}  SuccessResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /composio/webhook [post]
func (h *Handler) Receive(c *gin.Context) {
	start := time.Now()
	// The report keeps running if the caller disconnects.
	ctx := context.WithoutCancel(c.Request.Context())

	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		invalid := apperrors.ErrInvalidPayload.WithCause(err)
		h.logger.WarnwCtx(ctx, "Rejected malformed webhook payload", "error", invalid)
		metrics.ObserveWebhook("invalid", time.Since(start))
		c.JSON(apperrors.ToHTTPStatus(invalid), ErrorResponse{
			Status:  constants.ResponseStatusError,
			Message: messageInvalid,
			Error:   err.Error(),
		})
		return
	}

	event := payload.Event()
	ctx = logging.WithThreadID(ctx, event.ThreadID)
	h.logger.InfowCtx(ctx, "Webhook received", "type", event.Type, "subject", event.Subject)

	decision := h.filter.Evaluate(ctx, event)
	switch decision.Outcome {
	case ingress.Skip:
		h.logger.InfowCtx(ctx, "Webhook skipped", "reason", decision.Reason)
		metrics.ObserveWebhook("skipped", time.Since(start))
		c.JSON(http.StatusOK, skipBody(decision))
		return
	case ingress.Abort:
		h.logger.ErrorwCtx(ctx, "Webhook aborted", "reason", decision.Reason)
		metrics.ObserveWebhook("failed", time.Since(start))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Status:  constants.ResponseStatusError,
			Message: decision.Message,
			Error:   decision.Reason,
			Stage:   constants.StageIngress,
		})
		return
	}

	summary, err := h.run(ctx, pipeline.Request{
		Event:   event,
		Params:  decision.Params,
		ReplyTo: decision.SenderAddress,
	})
	if err != nil {
		h.logger.ErrorwCtx(ctx, "Error processing webhook", "error", err, "stage", apperrors.StageOf(err))
		metrics.ObserveWebhook("failed", time.Since(start))
		c.JSON(http.StatusInternalServerError, h.errorBody(err))
		return
	}

	h.logger.InfowCtx(ctx, "Report delivered",
		"sources", summary.SourcesFound,
		"screenshots", summary.ScreenshotsCaptured,
		"pdf", summary.PDFFileName,
		"final_email_confirmed", summary.FinalEmailConfirmed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	metrics.ObserveWebhook("success", time.Since(start))
	c.JSON(http.StatusOK, SuccessResponse{
		Status:  constants.ResponseStatusSuccess,
		Message: messageProcessed,
		Data:    SuccessData{Summary: summary, Request: payload.Data},
	})
}

func (h *Handler) run(ctx context.Context, req pipeline.Request) (summary pipeline.Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.RecoverPanic(r)
		}
	}()
	return h.runner.Run(ctx, req)
}

func (h *Handler) errorBody(err error) ErrorResponse {
	body := ErrorResponse{
		Status:  constants.ResponseStatusError,
		Message: messageFailed,
		Error:   apperrors.RootMessage(err),
		Stage:   apperrors.StageOf(err),
	}
	if h.exposeStack {
		body.Stack = apperrors.StackOf(err)
	}
	return body
}

func skipBody(d ingress.Decision) gin.H {
	body := gin.H{
		"status":  constants.ResponseStatusSkipped,
		"message": d.Message,
		"reason":  d.Reason,
	}
	for k, v := range d.Details {
		if _, taken := body[k]; !taken {
			body[k] = v
		}
	}
	return body
}
