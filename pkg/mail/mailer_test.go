package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

type recordingClient struct {
	from   string
	rcpts  []string
	body   bytes.Buffer
	quit   bool
	closed bool
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (c *recordingClient) Mail(from string) error { c.from = from; return nil }
func (c *recordingClient) Rcpt(to string) error   { c.rcpts = append(c.rcpts, to); return nil }
func (c *recordingClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&c.body}, nil
}
func (c *recordingClient) Quit() error                     { c.quit = true; return nil }
func (c *recordingClient) Close() error                    { c.closed = true; return nil }
func (c *recordingClient) StartTLS(*tls.Config) error      { return nil }
func (c *recordingClient) Auth(smtp.Auth) error            { return nil }
func (c *recordingClient) Extension(string) (bool, string) { return false, "" }

func newRecordingMailer(t *testing.T, cfg SMTPSettings) (*smtpMailer, *recordingClient) {
	t.Helper()

	m, err := NewSMTPMailer(cfg)
	if err != nil {
		t.Fatalf("unexpected error creating mailer: %v", err)
	}
	sm := m.(*smtpMailer)
	client := &recordingClient{}
	sm.dialFn = func(ctx context.Context, _ SMTPSettings) (net.Conn, smtpClient, error) {
		local, remote := net.Pipe()
		t.Cleanup(func() { _ = remote.Close() })
		return local, client, nil
	}
	return sm, client
}

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	if err == nil || !strings.Contains(err.Error(), "host is required") {
		t.Fatalf("expected host validation error, got %v", err)
	}

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com"})
	if err == nil || !strings.Contains(err.Error(), "port is required") {
		t.Fatalf("expected port validation error, got %v", err)
	}

	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	if err != nil {
		t.Fatalf("expected disabled configuration to succeed: %v", err)
	}
	if mailer == nil {
		t.Fatal("expected mailer to be returned")
	}
}

func TestSMTPMailerSendDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error creating mailer: %v", err)
	}

	err = mailer.Send(context.Background(), Message{
		To:      []string{"volunteer@example.com"},
		Subject: "Assigned",
		Body:    "Hello",
	})
	if err != ErrSMTPDisabled {
		t.Fatalf("expected ErrSMTPDisabled, got %v", err)
	}
}

func TestSMTPMailerDefaultTimeout(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "no-reply@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error creating mailer: %v", err)
	}

	sm := mailer.(*smtpMailer)
	if sm.cfg.Timeout != 10*time.Second {
		t.Fatalf("expected timeout to be 10s, got %v", sm.cfg.Timeout)
	}
}

func TestSMTPMailerSendRequiresRecipients(t *testing.T) {
	sm, _ := newRecordingMailer(t, SMTPSettings{Enabled: true, Host: "smtp.example.com", Port: 587, From: "no-reply@example.com"})

	err := sm.Send(context.Background(), Message{To: []string{"   ", "\t"}, Subject: "x", Body: "y"})
	if err == nil || !strings.Contains(err.Error(), "at least one recipient") {
		t.Fatalf("expected missing recipient error, got %v", err)
	}
}

func TestSMTPMailerSendValidatesAddresses(t *testing.T) {
	sm, _ := newRecordingMailer(t, SMTPSettings{Enabled: true, Host: "smtp.example.com", Port: 587})

	err := sm.Send(context.Background(), Message{From: "invalid-from", To: []string{"user@example.com"}})
	if err == nil || !strings.Contains(err.Error(), "invalid from address") {
		t.Fatalf("expected invalid from error, got %v", err)
	}

	err = sm.Send(context.Background(), Message{From: "no-reply@example.com", To: []string{"user@example.com", "bad-address"}})
	if err == nil || !strings.Contains(err.Error(), "invalid recipient address") {
		t.Fatalf("expected invalid recipient error, got %v", err)
	}
}

func TestSMTPMailerSendWritesMessage(t *testing.T) {
	sm, client := newRecordingMailer(t, SMTPSettings{
		Enabled:       true,
		Host:          "smtp.example.com",
		Port:          587,
		From:          "hub@example.com",
		SubjectPrefix: "[Volunteer Hub]",
	})

	err := sm.Send(context.Background(), Message{
		To:      []string{"ana@example.com", "ANA@example.com"},
		Subject: "New assignment",
		Body:    "You have been assigned to Food Drive on 2025-07-02.",
	})
	if err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	if client.from != "hub@example.com" {
		t.Fatalf("unexpected sender %q", client.from)
	}
	if len(client.rcpts) != 1 {
		t.Fatalf("expected duplicate recipients to collapse, got %v", client.rcpts)
	}
	if !strings.Contains(client.body.String(), "Subject: [Volunteer Hub] New assignment") {
		t.Fatalf("expected prefixed subject, got %q", client.body.String())
	}
	if !client.quit || !client.closed {
		t.Fatal("expected client to quit and close")
	}
}

func TestFormatMessage(t *testing.T) {
	content := formatMessage("from@example.com", []string{"to@example.com"}, "Subject\r\nBreak", "Body")
	if !strings.Contains(content, "From: from@example.com") {
		t.Fatalf("expected from header, got %q", content)
	}
	if !strings.Contains(content, "Subject: Subject  Break") {
		t.Fatalf("expected sanitised subject, got %q", content)
	}
	if !strings.HasSuffix(content, "\r\n\r\nBody") {
		t.Fatalf("expected blank line before body, got %q", content)
	}
}

func TestUniqueAddresses(t *testing.T) {
	result := uniqueAddresses([]string{"alice@example.com", "bob@example.com", " alice@example.com ", "", "BOB@example.com"})
	if len(result) != 2 {
		t.Fatalf("expected 2 unique addresses, got %d: %v", len(result), result)
	}
	if result[0] != "alice@example.com" || result[1] != "bob@example.com" {
		t.Fatalf("unexpected result order/content: %v", result)
	}
}
