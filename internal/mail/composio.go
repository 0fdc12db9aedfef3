package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"mediareport/internal/composio"
	"mediareport/internal/constants"
	"mediareport/internal/logger"
	apperrors "mediareport/pkg/errors"
	"mediareport/pkg/models"
)

// ErrUnconfirmed means the provider may or may not have sent the message.
var ErrUnconfirmed = apperrors.ErrDeliveryUnconfirmed

type ToolExecutor interface {
	ExecuteTool(ctx context.Context, tool string, arguments interface{}) (*composio.ExecuteResult, error)
}

type replyArguments struct {
	UserID         string           `json:"user_id"`
	RecipientEmail string           `json:"recipient_email"`
	MessageBody    string           `json:"message_body"`
	ThreadID       string           `json:"thread_id"`
	IsHTML         bool             `json:"is_html"`
	Attachment     *replyAttachment `json:"attachment,omitempty"`
}

type replyAttachment struct {
	S3Key    string `json:"s3key"`
	MimeType string `json:"mimetype"`
	Name     string `json:"name"`
}

// ComposioMailer replies in the Gmail thread through the
// GMAIL_REPLY_TO_THREAD tool.
type ComposioMailer struct {
	tools  ToolExecutor
	logger logger.Logger
}

func NewComposioMailer(tools ToolExecutor, log logger.Logger) *ComposioMailer {
	return &ComposioMailer{tools: tools, logger: log}
}

func (m *ComposioMailer) Reply(ctx context.Context, msg models.ReplyMessage) error {
	args := replyArguments{
		UserID:         "me",
		RecipientEmail: msg.To,
		MessageBody:    msg.HTMLBody,
		ThreadID:       msg.ThreadID,
		IsHTML:         true,
	}
	if a := msg.Attachment; a != nil {
		args.Attachment = &replyAttachment{S3Key: a.StorageKey, MimeType: a.MimeType, Name: a.FileName}
	}

	result, err := m.tools.ExecuteTool(ctx, composio.ToolReplyToThread, args)
	if err != nil {
		var statusErr *composio.StatusError
		if errors.As(err, &statusErr) && !mayHaveSent(msg, statusErr.Status) {
			return apperrors.Upstream(constants.CollaboratorMail, err)
		}
		m.logger.WarnwCtx(ctx, "Reply outcome unknown", "thread_id", msg.ThreadID, "error", err)
		return ErrUnconfirmed.WithCause(err)
	}
	if !result.Successful {
		reason := "tool execution unsuccessful"
		if result.Error != nil && *result.Error != "" {
			reason = *result.Error
		}
		rejected := fmt.Errorf("gmail reply rejected: %s", reason)
		if msg.Attachment != nil {
			m.logger.WarnwCtx(ctx, "Report reply not confirmed by tool", "thread_id", msg.ThreadID, "reason", reason)
			return ErrUnconfirmed.WithCause(rejected)
		}
		return apperrors.Upstream(constants.CollaboratorMail, rejected)
	}

	m.logger.InfowCtx(ctx, "Reply sent", "thread_id", msg.ThreadID, "attachment", msg.Attachment != nil)
	return nil
}

// mayHaveSent reports whether an HTTP failure on msg could hide a completed
// send. Only the report reply is treated that way.
func mayHaveSent(msg models.ReplyMessage, status int) bool {
	return msg.Attachment != nil && status >= http.StatusInternalServerError
}
