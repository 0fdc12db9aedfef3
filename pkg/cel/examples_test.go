package cel

// FilterExpressionExamples are admission rules an operator might configure.
var FilterExpressionExamples = map[string]string{
	"sender_domain":    `sender.endsWith("@example.com")`,
	"inbox_only":       `"INBOX" in labels`,
	"not_spam":         `!("SPAM" in labels)`,
	"body_required":    `size(body) > 0`,
	"subject_prefix":   `subject.lowerAscii().startsWith("media coverage")`,
	"combined":         `sender.endsWith("@example.com") && "INBOX" in labels`,
	"thread_present":   `thread_id != ""`,
	"recipient_exact":  `recipient == "reports@example.com"`,
	"body_keyword_any": `body.contains("launch") || body.contains("release")`,
}
