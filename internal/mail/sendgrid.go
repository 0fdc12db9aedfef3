package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"mediareport/internal/config"
	"mediareport/internal/constants"
	"mediareport/internal/logger"
	apperrors "mediareport/pkg/errors"
	"mediareport/pkg/metrics"
	"mediareport/pkg/models"
)

// SendGridMailer replies by sending a new message that threads onto the
// original through In-Reply-To and References. The attachment travels
// inline, so StorageKey is ignored.
type SendGridMailer struct {
	cfg    config.SendGridConfig
	client *sendgrid.Client
	logger logger.Logger
}

func NewSendGridMailer(cfg config.SendGridConfig, log logger.Logger) *SendGridMailer {
	client := sendgrid.NewSendClient(cfg.APIKey)
	if cfg.Host != "" {
		client.BaseURL = strings.TrimRight(cfg.Host, "/") + "/v3/mail/send"
	}
	return &SendGridMailer{cfg: cfg, client: client, logger: log}
}

func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

func messageID(id string) string {
	if id == "" || strings.HasPrefix(id, "<") {
		return id
	}
	return "<" + id + ">"
}

func (m *SendGridMailer) build(msg models.ReplyMessage) *sgmail.SGMailV3 {
	message := sgmail.NewV3Mail()
	message.SetFrom(sgmail.NewEmail(m.cfg.FromName, m.cfg.FromEmail))
	message.Subject = replySubject(msg.Subject)

	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail("", msg.To))
	message.AddPersonalizations(p)
	message.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))

	if id := messageID(msg.InReplyTo); id != "" {
		message.SetHeader("In-Reply-To", id)
		message.SetHeader("References", id)
	}

	if a := msg.Attachment; a != nil && len(a.Content) > 0 {
		att := sgmail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Content))
		att.SetType(a.MimeType)
		att.SetFilename(a.FileName)
		att.SetDisposition("attachment")
		message.AddAttachment(att)
	}
	return message
}

func (m *SendGridMailer) Reply(ctx context.Context, msg models.ReplyMessage) error {
	start := time.Now()
	resp, err := m.client.SendWithContext(ctx, m.build(msg))
	if err != nil {
		metrics.ObserveCollaborator(constants.CollaboratorMail, "error", time.Since(start))
		m.logger.WarnwCtx(ctx, "SendGrid outcome unknown", "thread_id", msg.ThreadID, "error", err)
		return ErrUnconfirmed.WithCause(err)
	}
	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		metrics.ObserveCollaborator(constants.CollaboratorMail, "error", time.Since(start))
		statusErr := fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
		if mayHaveSent(msg, resp.StatusCode) {
			m.logger.WarnwCtx(ctx, "SendGrid outcome unknown", "thread_id", msg.ThreadID, "status", resp.StatusCode)
			return ErrUnconfirmed.WithCause(statusErr)
		}
		return apperrors.Upstream(constants.CollaboratorMail, statusErr)
	}
	metrics.ObserveCollaborator(constants.CollaboratorMail, "ok", time.Since(start))
	m.logger.InfowCtx(ctx, "Reply sent via SendGrid", "thread_id", msg.ThreadID, "status", resp.StatusCode)
	return nil
}
