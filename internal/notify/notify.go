// Package notify delivers best-effort account state change notices.
package notify

import (
	"fmt"
	"net/smtp"

	"github.com/rumaak/bank-app/internal/domain"
)

// Notifier informs an account owner that the account state changed.
// Implementations are called synchronously; callers log failures and move
// on, they never retry or propagate them.
type Notifier interface {
	StateChanged(email, account string, state domain.State) error
}

// Mailer sends notices over SMTP.
type Mailer struct {
	Addr string // host:port of the SMTP relay
	From string
}

func NewMailer(addr, from string) *Mailer {
	return &Mailer{Addr: addr, From: from}
}

func (m *Mailer) StateChanged(email, account string, state domain.State) error {
	stateStr := "ok"
	if state == domain.StateBlocked {
		stateStr = "blocked"
	}

	body := "Dear user,\n"
	body += "The status of your account " + account + " has changed to: " + stateStr + "\n"

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Account state changed\r\n\r\n%s",
		m.From, email, body)

	if err := smtp.SendMail(m.Addr, nil, m.From, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", email, err)
	}
	return nil
}

// Discard drops every notice. Used when no SMTP relay is configured.
type Discard struct{}

func (Discard) StateChanged(string, string, domain.State) error { return nil }
