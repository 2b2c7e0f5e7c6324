package forms

import (
	"fmt"
	"strings"

	"github.com/mhc-gc/mhc-site/backend/go-api/internal/store"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/validate"
)

// Contact is the body of POST /api/contact.
type Contact struct {
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	Subject          string         `json:"subject"`
	Message          string         `json:"message"`
	Urgency          string         `json:"urgency"`
	PreferredContact string         `json:"preferredContact"`
	Type             string         `json:"type"`
	Metadata         map[string]any `json:"metadata"`
}

var (
	urgencies       = []string{"low", "medium", "high"}
	contactChannels = []string{"email", "phone", "either"}
)

func ContactForm() FormConfig[Contact] {
	return FormConfig[Contact]{
		TableName:      "contact_submissions",
		SubmissionType: "Contact message",
		ValidateFields: func(c Contact) validate.Result {
			return validate.First(
				validate.RequireFields(map[string]string{
					"name":    c.Name,
					"email":   c.Email,
					"message": c.Message,
				}, "name", "email", "message"),
				validate.Email(c.Email),
				validate.OptionalPhone(c.Phone),
				validate.OneOf("urgency", c.Urgency, urgencies...),
				validate.OneOf("preferredContact", c.PreferredContact, contactChannels...),
			)
		},
		TransformData: func(c Contact) store.Record {
			meta := map[string]any{}
			for k, v := range c.Metadata {
				meta[k] = v
			}
			if c.Type != "" {
				meta["formType"] = c.Type
			}
			return store.Record{
				"name":              strings.TrimSpace(c.Name),
				"email":             strings.ToLower(strings.TrimSpace(c.Email)),
				"phone":             optional(c.Phone),
				"subject":           optional(c.Subject),
				"message":           strings.TrimSpace(c.Message),
				"urgency":           orDefault(c.Urgency, "medium"),
				"preferred_contact": orDefault(c.PreferredContact, "either"),
				"metadata":          meta,
			}
		},
		EmailSubject: func(c Contact) string {
			if s := strings.TrimSpace(c.Subject); s != "" {
				return s
			}
			if c.Urgency == "high" {
				return fmt.Sprintf("URGENT: New Contact Form Submission - %s", c.Name)
			}
			return fmt.Sprintf("New Contact Form Submission - %s", c.Name)
		},
		EmailMessage: func(c Contact) string {
			l := &lines{}
			l.title("New Contact Form Submission").
				field("Name", c.Name).
				field("Email", c.Email).
				field("Phone", c.Phone).
				field("Urgency", orDefault(c.Urgency, "medium")).
				field("Preferred Contact", orDefault(c.PreferredContact, "either")).
				block("Message", c.Message)
			return l.String()
		},
		ReplyTo:        func(c Contact) string { return strings.TrimSpace(c.Email) },
		Statuses:       []string{"new", "in_progress", "resolved", "closed"},
		SuccessMessage: "Message sent successfully",
	}
}
