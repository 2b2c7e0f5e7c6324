package forms

import (
	"fmt"
	"strings"

	"github.com/mhc-gc/mhc-site/backend/go-api/internal/store"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/validate"
)

// JobApplication is the body of POST /api/job-applications. ResumeURL is the
// object key returned by the resume upload endpoint.
type JobApplication struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	ZipCode        string `json:"zipCode"`
	Position       string `json:"position"`
	Experience     string `json:"experience"`
	Availability   string `json:"availability"`
	CoverLetter    string `json:"coverLetter"`
	ResumeURL      string `json:"resumeUrl"`
	ResumeFileName string `json:"resumeFileName"`
	VeteranStatus  string `json:"veteranStatus"`
	ReferralSource string `json:"referralSource"`
}

func (j JobApplication) fullName() string {
	return strings.TrimSpace(strings.TrimSpace(j.FirstName) + " " + strings.TrimSpace(j.LastName))
}

func JobApplicationForm() FormConfig[JobApplication] {
	return FormConfig[JobApplication]{
		TableName:      "job_applications",
		SubmissionType: "Job application",
		ValidateFields: func(j JobApplication) validate.Result {
			return validate.First(
				validate.RequireFields(map[string]string{
					"firstName": j.FirstName,
					"lastName":  j.LastName,
					"email":     j.Email,
					"position":  j.Position,
				}, "firstName", "lastName", "email", "position"),
				validate.Email(j.Email),
				validate.OptionalPhone(j.Phone),
			)
		},
		TransformData: func(j JobApplication) store.Record {
			rec := store.Record{
				"first_name":      strings.TrimSpace(j.FirstName),
				"last_name":       strings.TrimSpace(j.LastName),
				"email":           strings.ToLower(strings.TrimSpace(j.Email)),
				"phone":           optional(j.Phone),
				"address":         optional(j.Address),
				"city":            optional(j.City),
				"state":           optional(j.State),
				"zip_code":        optional(j.ZipCode),
				"position":        strings.TrimSpace(j.Position),
				"experience":      optional(j.Experience),
				"availability":    optional(j.Availability),
				"cover_letter":    optional(j.CoverLetter),
				"resume_url":      optional(j.ResumeURL),
				"veteran_status":  optional(j.VeteranStatus),
				"referral_source": optional(j.ReferralSource),
			}
			if j.ResumeFileName != "" {
				rec["metadata"] = map[string]any{"resumeFileName": j.ResumeFileName}
			}
			return rec
		},
		EmailSubject: func(j JobApplication) string {
			return fmt.Sprintf("New Job Application: %s - %s", j.Position, j.fullName())
		},
		EmailMessage: func(j JobApplication) string {
			loc := strings.TrimSpace(strings.TrimSpace(j.State) + " " + strings.TrimSpace(j.ZipCode))
			if city := strings.TrimSpace(j.City); city != "" && loc != "" {
				loc = city + ", " + loc
			} else if city != "" {
				loc = city
			}
			address := strings.TrimSpace(strings.TrimSpace(j.Address) + "\n" + loc)

			l := &lines{}
			l.title("New Job Application Received").
				field("Position", j.Position).
				field("Name", j.fullName()).
				field("Email", j.Email).
				field("Phone", j.Phone).
				field("Experience", j.Experience).
				field("Availability", j.Availability).
				field("Veteran Status", orDefault(j.VeteranStatus, "Not specified")).
				block("Address", address).
				block("Cover Letter", j.CoverLetter).
				field("Resume", orDefault(j.ResumeFileName, orDefault(j.ResumeURL, "Not uploaded"))).
				field("Referral Source", j.ReferralSource)
			return l.String()
		},
		ReplyTo:        func(j JobApplication) string { return strings.TrimSpace(j.Email) },
		Statuses:       []string{"new", "reviewing", "interviewed", "hired", "rejected"},
		SuccessMessage: "Application submitted successfully",
	}
}
