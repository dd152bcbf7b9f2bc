package service

import (
	"fmt"

	"wallmotion-backend/internal/model"

	gomail "gopkg.in/gomail.v2"
)

// Mailer 购买回执邮件，发送失败只记录不重试
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(host string, port int, user, password, from string) *Mailer {
	if host == "" {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (m *Mailer) SendPurchaseReceipt(to string, licenseType model.LicenseType, licensesCount int) error {
	if m == nil {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your WallMotion purchase")
	msg.SetBody("text/html", fmt.Sprintf(
		"<h2>Thank you for your purchase!</h2>"+
			"<p>Your %s license is now active. You have %d device slot(s) in total.</p>"+
			"<p>Open WallMotion on your Mac and sign in to activate this device.</p>",
		licenseType, licensesCount))

	return m.dialer.DialAndSend(msg)
}
