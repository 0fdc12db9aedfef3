package constants

import "time"

const (
	ServiceName = "report-service"
)

const (
	DefaultHTTPTimeout = 10 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

const (
	CacheKeyPrefixDedup     = "dedup:webhook:"
	CacheKeyPrefixAnalytics = "analytics:domain:"
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)

const (
	FallbackAllow = "allow"
	FallbackDeny  = "deny"
)

const (
	MailProviderComposio = "composio"
	MailProviderSendGrid = "sendgrid"
)

const (
	MimeTypePDF = "application/pdf"
	MimeTypePNG = "image/png"
)

const (
	ResponseStatusSuccess = "success"
	ResponseStatusSkipped = "skipped"
	ResponseStatusError   = "error"
)

const (
	StageIngress     = "ingress"
	StageAcknowledge = "acknowledge"
	StageDiscover    = "discover"
	StageCapture     = "capture"
	StageEnrich      = "enrich"
	StageDeliver     = "deliver"
)

const (
	CollaboratorSearch      = "search"
	CollaboratorReadability = "readability"
	CollaboratorLLM         = "llm"
	CollaboratorBrowser     = "browser"
	CollaboratorStorage     = "storage"
	CollaboratorMail        = "mail"
	CollaboratorAnalytics   = "analytics"
)
