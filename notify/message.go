package notify

import (
	"bytes"
	"context"
	"html/template"
)

// Message is a single outbound mail.
type Message struct {
	To       []string
	Subject  string
	HTMLBody string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

var (
	verificationTmpl = template.Must(template.New("verify").Parse(
		`<h1>Verify your Email</h1>
<p>Please click this <a href="{{.}}">link</a> to verify your email</p>
`))
	passwordResetTmpl = template.Must(template.New("reset").Parse(
		`<h1>Reset Your Password</h1>
<p>Please click this <a href="{{.}}">link</a> to Reset Your Password</p>
`))
)

// VerificationMessage builds the account verification mail for email.
func VerificationMessage(email, link string) (Message, error) {
	body, err := render(verificationTmpl, link)
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{email}, Subject: "Verify your email", HTMLBody: body}, nil
}

// PasswordResetMessage builds the password reset mail for email.
func PasswordResetMessage(email, link string) (Message, error) {
	body, err := render(passwordResetTmpl, link)
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{email}, Subject: "Reset Your Password", HTMLBody: body}, nil
}

func render(t *template.Template, link string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, link); err != nil {
		return "", err
	}
	return buf.String(), nil
}
