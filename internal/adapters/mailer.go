package adapters

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	mail "github.com/xhit/go-simple-mail/v2"

	"github.com/medinfohub/med-portal/internal/config"
	"github.com/medinfohub/med-portal/internal/domain"
)

type MailRepo struct {
	cfg *config.MailConfig
}

// NewSmtpMailRepo creates a new MailRepo instance.
func NewSmtpMailRepo(cfg config.MailConfig) MailRepo {
	return MailRepo{cfg: &cfg}
}

// Send sends a mail using SMTP.
func (r MailRepo) Send(_ context.Context, subject, body string, to []string, options *domain.MailOptions) error {
	if options == nil {
		options = &domain.MailOptions{}
	}
	if options.ReplyTo == "" {
		options.ReplyTo = r.cfg.From
	}

	if len(to) == 0 {
		return errors.New("missing email recipient")
	}

	email := mail.NewMSG()
	email.SetFrom(r.cfg.From).
		AddTo(to...).
		SetReplyTo(options.ReplyTo).
		SetSubject(subject).
		SetBody(mail.TextPlain, body)

	if len(options.Cc) > 0 {
		email.AddCc(options.Cc...)
	}
	if len(options.Bcc) > 0 {
		email.AddBcc(options.Bcc...)
	}
	if options.HtmlBody != "" {
		email.AddAlternative(mail.TextHTML, options.HtmlBody)
	}

	srv := r.getMailServer()
	client, err := srv.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	if err := email.Send(client); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (r MailRepo) getMailServer() *mail.SMTPServer {
	srv := mail.NewSMTPClient()

	srv.ConnectTimeout = 30 * time.Second
	srv.SendTimeout = 30 * time.Second
	srv.Host = r.cfg.Host
	srv.Port = r.cfg.Port
	srv.Username = r.cfg.Username
	srv.Password = string(r.cfg.Password)

	switch r.cfg.Encryption {
	case config.MailEncryptionTLS:
		srv.Encryption = mail.EncryptionSSLTLS
	case config.MailEncryptionStartTLS:
		srv.Encryption = mail.EncryptionSTARTTLS
	default: // MailEncryptionNone
		srv.Encryption = mail.EncryptionNone
	}
	srv.TLSConfig = &tls.Config{ServerName: srv.Host, InsecureSkipVerify: !r.cfg.CertValidation}

	switch r.cfg.AuthType {
	case config.MailAuthPlain:
		srv.Authentication = mail.AuthPlain
	case config.MailAuthLogin:
		srv.Authentication = mail.AuthLogin
	case config.MailAuthCramMD5:
		srv.Authentication = mail.AuthCRAMMD5
	default:
		srv.Authentication = mail.AuthNone
	}

	return srv
}
