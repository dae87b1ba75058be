// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"html/template"
	"strings"
)

// NotificationData holds data for festival notification emails.
type NotificationData struct {
	SiteName  string
	Recipient string
	Title     string
	Body      string // plain text, newlines kept
	Link      string // optional
}

// BuildNotificationEmail creates a notification email with both HTML and text bodies.
func BuildNotificationEmail(to string, data NotificationData) Email {
	return Email{
		To:       to,
		Subject:  "[" + data.SiteName + "] " + data.Title,
		TextBody: buildNotificationText(data),
		HTMLBody: buildNotificationHTML(data),
	}
}

func buildNotificationText(data NotificationData) string {
	var buf bytes.Buffer
	if data.Recipient != "" {
		buf.WriteString("Bonjour " + data.Recipient + ",\n\n")
	}
	buf.WriteString(data.Body + "\n")
	if data.Link != "" {
		buf.WriteString("\n" + data.Link + "\n")
	}
	buf.WriteString("\n-- \n" + data.SiteName + "\n")
	return buf.String()
}

var notificationTmpl = template.Must(template.New("notification").Funcs(template.FuncMap{
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}).Parse(notificationHTMLTemplate))

func buildNotificationHTML(data NotificationData) string {
	var buf bytes.Buffer
	_ = notificationTmpl.Execute(&buf, data)
	return buf.String()
}

const notificationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 560px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 24px 32px; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 20px; color: #b91c1c;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; font-size: 15px; color: #374151;">
              {{if .Recipient}}<p>Bonjour {{.Recipient}},</p>{{end}}
              <h2 style="font-size: 17px;">{{.Title}}</h2>
              <p>{{range $i, $l := lines .Body}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>
              {{if .Link}}<p><a href="{{.Link}}" style="color: #b91c1c;">Voir sur le site</a></p>{{end}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`
