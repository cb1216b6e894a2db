package service

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/utils"
)

type emailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewEmailService(host string, port int, username, password, from string) EmailService {
	return &emailService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *emailService) SendOverdueReturnDigest(ctx context.Context, to string, shopID int32, overdue []domain.Booking) error {
	if len(overdue) == 0 {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello,\n\n%d issued booking(s) are past their return time:\n\n", len(overdue))
	for _, b := range overdue {
		fmt.Fprintf(&sb, "  - booking %d (order %d): due back %s, outstanding %s\n",
			b.ID, b.OrderID, b.ToDateTime.Format("2006-01-02 15:04"), utils.FormatCents(b.RemainingCents))
	}
	sb.WriteString("\nPlease follow up with the customers.\n")

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Overdue returns digest - shop %d", shopID))
	m.SetBody("text/plain", sb.String())

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send overdue digest: %w", err)
	}
	return nil
}
