package models

import "strings"

// WebhookPayload is the body the email integration posts for a new message.
type WebhookPayload struct {
	Type string          `json:"type"`
	Data WebhookMailData `json:"data"`
}

type WebhookMailData struct {
	Sender           string                   `json:"sender"`
	To               string                   `json:"to"`
	Subject          string                   `json:"subject"`
	MessageText      string                   `json:"message_text"`
	ThreadID         string                   `json:"thread_id"`
	MessageID        string                   `json:"message_id,omitempty"`
	MessageTimestamp string                   `json:"message_timestamp,omitempty"`
	LabelIDs         []string                 `json:"label_ids,omitempty"`
	AttachmentList   []map[string]interface{} `json:"attachment_list,omitempty"`
	Preview          map[string]interface{}   `json:"preview,omitempty"`
	Payload          map[string]interface{}   `json:"payload,omitempty"`
}

// IncomingEvent is the normalized view of one inbound email.
type IncomingEvent struct {
	Type             string
	Sender           string
	RecipientAddress string
	Subject          string
	BodyText         string
	ThreadID         string
	MessageID        string
	LabelIDs         []string
	AttachmentCount  int
}

func (p WebhookPayload) Event() IncomingEvent {
	return IncomingEvent{
		Type:             p.Type,
		Sender:           strings.TrimSpace(p.Data.Sender),
		RecipientAddress: strings.TrimSpace(p.Data.To),
		Subject:          p.Data.Subject,
		BodyText:         p.Data.MessageText,
		ThreadID:         strings.TrimSpace(p.Data.ThreadID),
		MessageID:        strings.TrimSpace(p.Data.MessageID),
		LabelIDs:         p.Data.LabelIDs,
		AttachmentCount:  len(p.Data.AttachmentList),
	}
}

// RequestParameters are the knobs parsed from the subject line.
type RequestParameters struct {
	WindowDays int `json:"windowDays"`
	MaxResults int `json:"maxResults"`
}

const (
	DefaultWindowDays = 30
	DefaultMaxResults = 5
)

func DefaultRequestParameters() RequestParameters {
	return RequestParameters{WindowDays: DefaultWindowDays, MaxResults: DefaultMaxResults}
}
