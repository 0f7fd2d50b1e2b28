package notify

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"eadshop_back_end/internal/config"
	"eadshop_back_end/internal/models"
	"eadshop_back_end/internal/utils"

	"github.com/wneessen/go-mail"
)

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer envoie la confirmation de commande par SMTP (SendGrid par défaut)
type Mailer struct {
	from          string
	publicBaseURL string
	sender        mailSender
}

func NewMailer(cfg *config.Config) (*Mailer, error) {
	m := &Mailer{from: cfg.MailFrom, publicBaseURL: cfg.PublicBaseURL}
	if cfg.EmailAPIKey == "" {
		log.Println("⚠️ EMAIL_API_KEY absent : e-mails désactivés")
		return m, nil
	}

	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(cfg.SMTPUsername),
		mail.WithPassword(cfg.EmailAPIKey),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, err
	}
	m.sender = client
	return m, nil
}

func (m *Mailer) Name() string { return "email" }

func (m *Mailer) Send(ctx context.Context, customerEmail string, order *models.Order) error {
	if m.sender == nil {
		return &config.ConfigurationError{Key: "EMAIL_API_KEY"}
	}

	msg, err := m.buildMessage(customerEmail, order)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", customerEmail)
	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("envoi SMTP: %w", err)
	}
	return nil
}

func (m *Mailer) buildMessage(customerEmail string, order *models.Order) (*mail.Msg, error) {
	view := newOrderView(order, m.publicBaseURL)
	htmlBody, err := renderHTML(view)
	if err != nil {
		return nil, err
	}
	textBody, err := renderText(view)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, err
	}
	if err := msg.To(customerEmail); err != nil {
		return nil, err
	}
	msg.Subject(confirmationSubject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	msg.AddAlternativeString(mail.TypeTextPlain, textBody)

	qr, err := utils.OrderQRCode(m.publicBaseURL, order.OrderID)
	if err != nil {
		log.Printf("⚠️ QR code non généré pour la commande %s: %v", order.OrderID, err)
	} else {
		msg.AttachReader(fmt.Sprintf("ordine-%s.png", order.OrderID), bytes.NewReader(qr))
	}
	return msg, nil
}
