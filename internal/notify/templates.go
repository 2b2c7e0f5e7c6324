package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Field is one labelled line appended below the message body.
type Field struct {
	Label string
	Value string
}

type Branding struct {
	Company string
	Address string
	Phone   string
	Website string
}

var DefaultBranding = Branding{
	Company: "MH Construction LLC",
	Address: "3111 N. Capital Ave., Pasco, WA 99301",
	Phone:   "(509) 308-6489",
	Website: "https://www.mhc-gc.com",
}

var htmlTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <div style="background: #386851; color: #ffffff; padding: 16px;"><h2 style="margin: 0;">{{.Subject}}</h2></div>
  <div style="padding: 16px;">
{{- range .Paragraphs}}
    <p>{{.}}</p>
{{- end}}
{{- if .Fields}}
    <table style="border-collapse: collapse; width: 100%;">
{{- range .Fields}}
      <tr><td style="padding: 8px; border-bottom: 1px solid #e5e5e5;"><strong>{{.Label}}:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e5e5;">{{.Value}}</td></tr>
{{- end}}
    </table>
{{- end}}
  </div>
  <div style="padding: 16px; font-size: 12px; color: #6b7280;">{{.Brand.Company}}, {{.Brand.Address}}, {{.Brand.Phone}}<br>{{.Brand.Website}}</div>
</body>
</html>
`))

// Compose renders a branded message. Body is plain text; blank lines separate
// paragraphs in the HTML part. All values are HTML-escaped.
func Compose(to []string, replyTo, subject, body string, fields []Field) (Message, error) {
	return DefaultBranding.Compose(to, replyTo, subject, body, fields)
}

func (b Branding) Compose(to []string, replyTo, subject, body string, fields []Field) (Message, error) {
	var kept []Field
	for _, f := range fields {
		if strings.TrimSpace(f.Value) != "" {
			kept = append(kept, f)
		}
	}

	var text strings.Builder
	text.WriteString(strings.TrimSpace(body))
	if len(kept) > 0 {
		text.WriteString("\n\n")
		for _, f := range kept {
			fmt.Fprintf(&text, "%s: %s\n", f.Label, f.Value)
		}
	} else {
		text.WriteString("\n")
	}
	fmt.Fprintf(&text, "\n--\n%s\n%s\n%s\n", b.Company, b.Address, b.Phone)

	var html bytes.Buffer
	err := htmlTmpl.Execute(&html, struct {
		Subject    string
		Paragraphs []string
		Fields     []Field
		Brand      Branding
	}{subject, paragraphs(body), kept, b})
	if err != nil {
		return Message{}, fmt.Errorf("render email: %w", err)
	}
	return Message{To: to, ReplyTo: replyTo, Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

func paragraphs(body string) []string {
	var out []string
	for _, p := range strings.Split(strings.TrimSpace(body), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
