package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent = "Student"
	RoleTeacher = "Teacher"
)

// User represents a student or teacher account. Email is the natural key
// the rest of the schema links against.
type User struct {
	gorm.Model

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Name         string `gorm:"not null" json:"name"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null" json:"role"` // Student, Teacher

	// Students belong to exactly one section; teachers have none.
	SectionID *uint `gorm:"index" json:"section_id,omitempty"`

	// TokenVersion invalidates previously issued session tokens when bumped.
	// A login always bumps it, so at most one session validates per user.
	TokenVersion uint `gorm:"default:1" json:"-"`

	EmailVerified bool `gorm:"default:false" json:"email_verified"`
	OTP           string
	OTPExpiresAt  time.Time
	OTPVerified   bool `gorm:"default:false"`

	// Relations
	Section *Section `json:"section,omitempty"`
}

// Section is a fixed cohort of students sharing the same roster.
type Section struct {
	gorm.Model
	Name string `gorm:"not null;uniqueIndex" json:"name"`
}

// Subject is a course a teacher creates assignments under.
type Subject struct {
	gorm.Model
	Name string `gorm:"not null" json:"name"`
}

// TeacherSubject links a teacher to a subject they own.
type TeacherSubject struct {
	gorm.Model
	TeacherEmail string `gorm:"not null;index" json:"teacher_email"`
	SubjectID    uint   `gorm:"not null;index" json:"subject_id"`

	// Relations
	Subject Subject `json:"-"`
}
