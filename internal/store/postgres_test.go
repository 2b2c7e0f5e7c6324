package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresSQL_QuotesIdentifiers(t *testing.T) {
	assert.Equal(t,
		`INSERT INTO "consultations" ("email", "id", "name") VALUES ($1, $2, $3) RETURNING id`,
		insertSQL("consultations", []string{"email", "id", "name"}))
	assert.Equal(t,
		`UPDATE "job_applications" SET "status" = $1, "updated_at" = $2 WHERE id = $3`,
		updateSQL("job_applications", []string{"status", "updated_at"}))
	assert.Equal(t,
		`SELECT * FROM "users" WHERE "email" = $1 LIMIT 1`,
		selectOneSQL("users", "email"))
	assert.Equal(t,
		`SELECT * FROM "contact_submissions" ORDER BY "created_at" DESC LIMIT $1`,
		listSQL("contact_submissions", "created_at"))
}

func TestPostgresSQL_EscapesQuotes(t *testing.T) {
	assert.Equal(t, `"we""ird"`, quote(`we"ird`))
}
