package email

import (
	"context"

	"github.com/rosterbot/roster-server/config"
	mail "github.com/xhit/go-simple-mail/v2"
)

// Mailer sends plain informational mails over the shared SMTP connection.
type Mailer struct {
	client *mail.SMTPClient
	from   string
}

func NewMailer(c *config.Config, client *mail.SMTPClient) *Mailer {
	return &Mailer{
		client: client,
		from:   c.EmailConfig.SmtpUser,
	}
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMSG()
	msg.SetFrom(m.from).AddTo(to).SetSubject(subject).SetBody(mail.TextPlain, body)

	if msg.Error != nil {
		return msg.Error
	}

	return msg.Send(m.client)
}
