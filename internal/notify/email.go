package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// EmailChannel delivers over SMTP with plain auth.
type EmailChannel struct {
	Host       string // host:port
	Username   string
	Password   string
	Sender     string
	SenderName string
	Recipient  string

	// sendMail is swapped in tests; defaults to smtp.SendMail.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(_ context.Context, title, content string) Result {
	if c.Host == "" || c.Recipient == "" {
		return errResult("smtp host or recipient is not set")
	}

	host, _, err := net.SplitHostPort(c.Host)
	if err != nil {
		// Bare hostname without a port, default to submission port.
		host = c.Host
		c.Host = net.JoinHostPort(c.Host, "587")
	}

	from := c.Sender
	if c.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", c.SenderName, c.Sender)
	}

	var msg strings.Builder

	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + c.Recipient + "\r\n")
	msg.WriteString("Subject: " + title + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(content)

	send := c.sendMail
	if send == nil {
		send = smtp.SendMail
	}

	auth := smtp.PlainAuth("", c.Username, c.Password, host)
	if err := send(c.Host, auth, c.Sender, []string{c.Recipient}, []byte(msg.String())); err != nil {
		return errResult("failed to send mail: %v", err)
	}

	return okResult()
}
