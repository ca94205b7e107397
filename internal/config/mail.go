package config

import "github.com/medinfohub/med-portal/internal/domain"

type MailEncryption string

const (
	MailEncryptionNone     MailEncryption = "none"
	MailEncryptionTLS      MailEncryption = "tls"
	MailEncryptionStartTLS MailEncryption = "starttls"
)

type MailAuthType string

const (
	MailAuthPlain   MailAuthType = "plain"
	MailAuthLogin   MailAuthType = "login"
	MailAuthCramMD5 MailAuthType = "crammd5"
)

// MailConfig contains the configuration for the SMTP server that is used to
// send compliance alert mails. If Host is empty, no mails are sent.
type MailConfig struct {
	Host           string               `yaml:"host"`
	Port           int                  `yaml:"port" validate:"min=0,max=65535"`
	Encryption     MailEncryption       `yaml:"encryption"`
	CertValidation bool                 `yaml:"cert_validation"`
	Username       string               `yaml:"username"`
	Password       domain.PrivateString `yaml:"password"`
	AuthType       MailAuthType         `yaml:"auth_type"`

	From string `yaml:"from" validate:"omitempty,email"`
}
