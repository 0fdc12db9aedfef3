package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediareport/internal/constants"
	"mediareport/internal/ingress"
	"mediareport/internal/logger"
	"mediareport/internal/pipeline"
	apperrors "mediareport/pkg/errors"
	"mediareport/pkg/models"
)

const path = "/api/composio/webhook"

type stubFilter struct {
	decision ingress.Decision
	got      models.IncomingEvent
}

func (f *stubFilter) Evaluate(_ context.Context, event models.IncomingEvent) ingress.Decision {
	f.got = event
	return f.decision
}

type stubRunner struct {
	summary pipeline.Summary
	err     error
	panics  bool
	calls   int
	req     pipeline.Request
	ctxErr  error
}

func (r *stubRunner) Run(ctx context.Context, req pipeline.Request) (pipeline.Summary, error) {
	r.calls++
	r.req = req
	r.ctxErr = ctx.Err()
	if r.panics {
		panic("renderer crashed")
	}
	return r.summary, r.err
}

func setup(filter *stubFilter, runner *stubRunner, exposeStack bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(filter, runner, logger.NopLogger(), exposeStack).RegisterRoutes(router, path)
	return router
}

func post(router *gin.Engine, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

const validPayload = `{"type":"gmail_new_gmail_message","data":{
	"sender":"Alice <alice@example.com>","to":"agent@example.com",
	"subject":"Media Coverage Report Request 7, 3","message_text":"Acme launch",
	"thread_id":"t-1","message_id":"m-1"}}`

func TestStatus(t *testing.T) {
	router := setup(&stubFilter{}, &stubRunner{}, false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","message":"Webhook endpoint is active"}`, w.Body.String())
}

func TestReceiveSuccess(t *testing.T) {
	filter := &stubFilter{decision: ingress.Decision{
		Outcome:       ingress.Proceed,
		Params:        models.RequestParameters{WindowDays: 7, MaxResults: 3},
		SenderAddress: "alice@example.com",
	}}
	runner := &stubRunner{summary: pipeline.Summary{
		SourcesFound:        3,
		ScreenshotsCaptured: 2,
		PDFFileName:         "pr-report.pdf",
		FinalEmailConfirmed: true,
	}}
	router := setup(filter, runner, false)

	w, body := post(router, validPayload)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Media coverage report processed successfully", body["message"])
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 3, data["sourcesFound"])
	assert.EqualValues(t, 2, data["screenshotsCaptured"])
	assert.Equal(t, "pr-report.pdf", data["pdfFileName"])
	assert.Equal(t, true, data["finalEmailConfirmed"])
	assert.Equal(t, "t-1", data["request"].(map[string]interface{})["thread_id"])

	assert.Equal(t, "Alice <alice@example.com>", filter.got.Sender)
	assert.Equal(t, "alice@example.com", runner.req.ReplyTo)
	assert.Equal(t, 7, runner.req.Params.WindowDays)
	assert.Equal(t, "t-1", runner.req.Event.ThreadID)
	assert.NoError(t, runner.ctxErr)
}

func TestReceiveSkip(t *testing.T) {
	filter := &stubFilter{decision: ingress.Decision{
		Outcome: ingress.Skip,
		Reason:  ingress.ReasonSelfSent,
		Message: "Self-sent emails are not processed",
		Details: map[string]interface{}{"sender": "a@b.c", "recipient": "a@b.c", "status": "ignored"},
	}}
	runner := &stubRunner{}
	router := setup(filter, runner, false)

	w, body := post(router, validPayload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "skipped", body["status"])
	assert.Equal(t, "self-sent", body["reason"])
	assert.Equal(t, "a@b.c", body["sender"])
	assert.Zero(t, runner.calls)
}

func TestReceiveRejectsBadInput(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		runner := &stubRunner{}
		w, body := post(setup(&stubFilter{}, runner, false), `{"type":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "error", body["status"])
		assert.Zero(t, runner.calls)
	})

	t.Run("ingress abort", func(t *testing.T) {
		filter := &stubFilter{decision: ingress.Decision{
			Outcome: ingress.Abort,
			Reason:  ingress.ReasonMissingThread,
			Message: "webhook event has no thread id",
		}}
		runner := &stubRunner{}
		w, body := post(setup(filter, runner, false), validPayload)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "missing thread id", body["error"])
		assert.Equal(t, constants.StageIngress, body["stage"])
		assert.Zero(t, runner.calls)
	})
}

func TestReceiveStageFailure(t *testing.T) {
	proceed := ingress.Decision{Outcome: ingress.Proceed, SenderAddress: "alice@example.com"}
	stageErr := apperrors.NewStageError(constants.StageCapture, errors.New("failed to render PDF: chrome crashed"))

	tests := []struct {
		name        string
		exposeStack bool
	}{
		{name: "production hides stack"},
		{name: "development shows stack", exposeStack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setup(&stubFilter{decision: proceed}, &stubRunner{err: stageErr}, tt.exposeStack)

			w, body := post(router, validPayload)
			require.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, "Internal server error while processing webhook", body["message"])
			assert.Equal(t, "failed to render PDF: chrome crashed", body["error"])
			assert.Equal(t, "capture", body["stage"])
			_, hasStack := body["stack"]
			assert.Equal(t, tt.exposeStack, hasStack)
		})
	}
}

func TestReceiveRecoversPanic(t *testing.T) {
	proceed := ingress.Decision{Outcome: ingress.Proceed, SenderAddress: "alice@example.com"}
	router := setup(&stubFilter{decision: proceed}, &stubRunner{panics: true}, true)

	w, body := post(router, validPayload)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, body["error"], "panic: renderer crashed")
	assert.Contains(t, body["stack"], "goroutine")
}
