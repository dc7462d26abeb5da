package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/gomail.v2"
)

// SendEmail delivers an HTML mail through the SMTP relay named by the SMTP_*
// env vars. Attachments that do not exist on disk are skipped with a warning
// rather than failing the whole send.
func SendEmail(to, subject, body string, attachments ...string) error {
	sender := os.Getenv("SMTP_EMAIL")
	password := os.Getenv("SMTP_PASS")
	host := os.Getenv("SMTP_HOST")

	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		return fmt.Errorf("invalid SMTP_PORT: %v", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	for _, attachment := range attachments {
		if _, err := os.Stat(attachment); err != nil {
			Logger.Warnf("Attachment not found, skipping: %s", attachment)
			continue
		}
		msg.Attach(attachment, gomail.Rename(filepath.Base(attachment)))
	}

	dialer := gomail.NewDialer(host, port, sender, password)
	if err := dialer.DialAndSend(msg); err != nil {
		Logger.Errorf("failed to send email to %s", to)
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}
