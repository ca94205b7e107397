package domain

// MailOptions contains optional mail parameters.
type MailOptions struct {
	ReplyTo  string
	Cc       []string
	Bcc      []string
	HtmlBody string
}
