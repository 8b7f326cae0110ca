// Package mail はメール送信の実装（SMTP / ログ出力）を提供します。
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"pricing_backend/internal/platform/config"
	"pricing_backend/internal/platform/templates"
)

// Config はSMTP接続設定です。Host が空の場合はログ出力のみのメーラーを使います。
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// LoadConfig は環境変数からメール設定を読み込みます。
func LoadConfig() Config {
	return Config{
		Host:     config.GetEnv("SMTP_HOST", ""),
		Port:     config.GetEnv("SMTP_PORT", "587"),
		Username: config.GetEnv("SMTP_USERNAME", ""),
		Password: config.GetEnv("SMTP_PASSWORD", ""),
		From:     config.GetEnv("EMAIL_FROM", "no-reply@localhost"),
	}
}

// Message は送信する1通のHTMLメールです。
type Message struct {
	To      string
	Subject string
	HTML    string
}

// sender はメッセージの配送手段を抽象化します。
type sender interface {
	send(ctx context.Context, msg Message) error
}

// Mailer はテンプレートからメールを組み立てて送信します。
type Mailer struct {
	tmpl   *template.Template
	sender sender
}

// New は設定に応じたMailerを生成します。
func New(cfg Config) *Mailer {
	var s sender
	if cfg.Host == "" {
		slog.Warn("SMTP_HOST is not set; verification emails will only be logged")
		s = logSender{}
	} else {
		s = &smtpSender{cfg: cfg}
	}
	return &Mailer{tmpl: templates.Parse(), sender: s}
}

// SendVerification は認証リンク付きのメールを送信します。
func (m *Mailer) SendVerification(ctx context.Context, to, username, link string) error {
	var body bytes.Buffer
	if err := m.tmpl.ExecuteTemplate(&body, templates.EmailVerification, map[string]string{
		"Username": username,
		"Link":     link,
	}); err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}
	return m.sender.send(ctx, Message{
		To:      to,
		Subject: "Verify Your Email Address",
		HTML:    body.String(),
	})
}

// logSender は送信せずに内容をログに出力します（開発環境用）。
type logSender struct{}

func (logSender) send(_ context.Context, msg Message) error {
	slog.Info("email (not sent)", "to", msg.To, "subject", msg.Subject, "body", msg.HTML)
	return nil
}

// smtpSender は net/smtp で配送します。
type smtpSender struct {
	cfg Config
}

func (s *smtpSender) send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, buildMIME(s.cfg.From, msg, time.Now()))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buildMIME はHTML本文のメールをRFC 5322形式で組み立てます。
func buildMIME(from string, msg Message, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}
