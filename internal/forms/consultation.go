package forms

import (
	"fmt"
	"strings"

	"github.com/mhc-gc/mhc-site/backend/go-api/internal/store"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/validate"
)

// Consultation is the body of POST /api/consultations.
type Consultation struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	ProjectType        string `json:"projectType"`
	ProjectDescription string `json:"projectDescription"`
	Location           string `json:"location"`
	Budget             string `json:"budget"`
	SelectedDate       string `json:"selectedDate"`
	SelectedTime       string `json:"selectedTime"`
	AdditionalNotes    string `json:"additionalNotes"`
	Source             string `json:"source"`
}

func ConsultationForm() FormConfig[Consultation] {
	return FormConfig[Consultation]{
		TableName:      "consultations",
		SubmissionType: "Consultation request",
		ValidateFields: func(c Consultation) validate.Result {
			return validate.First(
				validate.RequireFields(map[string]string{
					"name":        c.Name,
					"email":       c.Email,
					"projectType": c.ProjectType,
				}, "name", "email", "projectType"),
				validate.Email(c.Email),
				validate.OptionalPhone(c.Phone),
			)
		},
		TransformData: func(c Consultation) store.Record {
			rec := store.Record{
				"client_name":         strings.TrimSpace(c.Name),
				"email":               strings.ToLower(strings.TrimSpace(c.Email)),
				"phone":               optional(c.Phone),
				"project_type":        strings.TrimSpace(c.ProjectType),
				"project_description": optional(c.ProjectDescription),
				"location":            optional(c.Location),
				"budget":              optional(c.Budget),
				"selected_date":       optional(c.SelectedDate),
				"selected_time":       optional(c.SelectedTime),
				"additional_notes":    optional(c.AdditionalNotes),
			}
			if c.Source != "" {
				rec["metadata"] = map[string]any{"source": c.Source}
			}
			return rec
		},
		EmailSubject: func(c Consultation) string {
			return fmt.Sprintf("New Consultation Request: %s - %s", c.ProjectType, c.Name)
		},
		EmailMessage: func(c Consultation) string {
			l := &lines{}
			l.title("New Consultation Request Received").
				field("Name", c.Name).
				field("Email", c.Email).
				field("Phone", c.Phone).
				field("Project Type", c.ProjectType).
				field("Location", c.Location).
				field("Budget", c.Budget).
				field("Preferred Date", c.SelectedDate).
				field("Preferred Time", c.SelectedTime).
				block("Project Description", c.ProjectDescription).
				block("Additional Notes", c.AdditionalNotes)
			return l.String()
		},
		ReplyTo:        func(c Consultation) string { return strings.TrimSpace(c.Email) },
		Statuses:       []string{"new", "contacted", "scheduled", "completed", "cancelled"},
		SuccessMessage: "Consultation request received successfully",
	}
}
