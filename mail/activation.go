package mail

import (
	"bytes"
	"context"
	"html/template"
	"net/url"
	"strings"
)

var activationTemplate = template.Must(template.New("activation").Parse(`<div style="font-family:Arial,sans-serif;line-height:1.6;color:#0f172a">
  <h2>Activate your {{.SiteName}} account</h2>
  <p>Hello {{.Name}},</p>
  <p>An administrator of {{.SiteName}} created an account for you. Follow the link below to choose a password.</p>
  <p style="margin:24px 0"><a href="{{.URL}}" style="background-color:#0ea5e9;color:#ffffff;text-decoration:none;padding:12px 20px;border-radius:8px;display:inline-block">Activate account</a></p>
  <p>If the button does not work, copy this address into your browser:</p>
  <p><a href="{{.URL}}">{{.URL}}</a></p>
  <hr style="margin:32px 0;border:none;border-top:1px solid #cbd5f5" />
  <p style="color:#94a3b8;font-size:12px">This email was sent automatically by {{.SiteName}}. If you did not expect it, you can ignore it.</p>
</div>`))

type Activation struct {
	SiteName string
	AppURL   string
	Name     string
	Email    string
	Token    string
}

// ActivationURL is the dashboard address that accepts the token
func (a Activation) ActivationURL() string {
	return strings.TrimRight(a.AppURL, "/") + "/activate?token=" + url.QueryEscape(a.Token)
}

func (a Activation) Message() (Message, error) {
	var html bytes.Buffer
	err := activationTemplate.Execute(&html, map[string]string{
		"SiteName": a.SiteName,
		"Name":     a.Name,
		"URL":      a.ActivationURL(),
	})
	if err != nil {
		return Message{}, err
	}
	text := "Hello " + a.Name + ",\n\nAn administrator of " + a.SiteName +
		" created an account for you. Choose your password at " + a.ActivationURL() + "\n\n" + a.SiteName
	return Message{
		To:       a.Email,
		Subject:  "Activate your " + a.SiteName + " account",
		HTMLBody: html.String(),
		TextBody: text,
	}, nil
}

func SendActivation(ctx context.Context, sender Sender, a Activation) error {
	msg, err := a.Message()
	if err != nil {
		return err
	}
	return sender.Send(ctx, msg)
}
