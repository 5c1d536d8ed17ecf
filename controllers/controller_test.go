package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"classhub/config"
	"classhub/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func seedSection(t *testing.T, db *gorm.DB, name string) models.Section {
	t.Helper()
	section := models.Section{Name: name}
	if err := db.Create(&section).Error; err != nil {
		t.Fatalf("seed section: %v", err)
	}
	return section
}

func seedStudent(t *testing.T, db *gorm.DB, email string, sectionID uint) models.User {
	t.Helper()
	user := models.User{
		Email:        email,
		Name:         "Student " + email,
		PasswordHash: "x",
		Role:         models.RoleStudent,
		SectionID:    &sectionID,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed student %s: %v", email, err)
	}
	return user
}

func seedSubject(t *testing.T, db *gorm.DB, name string) models.Subject {
	t.Helper()
	subject := models.Subject{Name: name}
	if err := db.Create(&subject).Error; err != nil {
		t.Fatalf("seed subject: %v", err)
	}
	return subject
}

// seedAssignment fans out an assignment to every student in the section
// through the real distribution path.
func seedAssignment(t *testing.T, db *gorm.DB, subjectID, sectionID uint, minMembers, maxMembers int) models.Assignment {
	t.Helper()

	ac := NewAssignmentController(db, nil, testLogger())
	assignment, _, err := ac.distribute(CreateAssignmentRequest{
		Title:          "Test Assignment",
		Description:    "desc",
		DueDate:        time.Now().AddDate(0, 0, 14),
		SubjectID:      subjectID,
		CreatedBy:      "teacher@example.com",
		MinTeamMembers: minMembers,
		MaxTeamMembers: maxMembers,
		SectionID:      sectionID,
		Reviews: []ReviewSpec{
			{ReviewNumber: 1, ReviewName: "Review 1", Marks: 20},
		},
	})
	if err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
	return assignment
}

// newTestApp mounts a handler behind a middleware that injects the given
// user, mirroring what Protected() does in production.
func newTestApp(user *models.User, method, path string, handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", user)
		return c.Next()
	})
	app.Add(method, path, handler)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body []byte) (*http.Response, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, path, jsonBody(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	var parsed map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			t.Fatalf("parse response %q: %v", raw, err)
		}
	}
	return resp, parsed
}

func jsonBody(b []byte) io.Reader {
	if b == nil {
		return http.NoBody
	}
	return bytes.NewReader(b)
}

func mustCount(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	tx := db.Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	if err := tx.Count(&count).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return count
}

func seedEmails(n int) []string {
	emails := make([]string, n)
	for i := range emails {
		emails[i] = fmt.Sprintf("student%d@example.com", i+1)
	}
	return emails
}
