package models

// ReplyMessage is a reply on an existing email thread.
type ReplyMessage struct {
	To       string
	ThreadID string
	Subject  string
	HTMLBody string
	// InReplyTo is the provider message id of the email being answered, when known.
	InReplyTo  string
	Attachment *Attachment
}

// Attachment references an uploaded file. Content is kept for providers
// that embed the bytes instead of referencing StorageKey.
type Attachment struct {
	StorageKey string
	FileName   string
	MimeType   string
	Content    []byte
}
