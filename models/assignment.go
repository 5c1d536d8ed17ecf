package models

import (
	"time"

	"gorm.io/gorm"
)

// StudentAssignment.Status values
const (
	AssignmentStatusPending = "Pending"
)

// StudentAssignment.SubmissionStatus values
const (
	SubmissionStatusSubmitted    = "Submitted"
	SubmissionStatusNotSubmitted = "Not Submitted"
)

// StudentAssignment.TeamStatus values
const (
	TeamStatusNotJoined = "Not Joined"
	TeamStatusForming   = "Forming Team"
	TeamStatusComplete  = "Team Complete"
)

// StudentAssignmentReview.ReviewStatus values
const (
	ReviewStatusPending = "Pending"
	ReviewStatusGraded  = "Graded"
)

// Assignment is immutable after creation. CreatedBy is the teacher's email.
type Assignment struct {
	gorm.Model
	Title          string    `gorm:"not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	DueDate        time.Time `gorm:"not null" json:"due_date"`
	SubjectID      uint      `gorm:"not null;index" json:"subject_id"`
	CreatedBy      string    `gorm:"not null;index" json:"created_by"`
	MinTeamMembers int       `gorm:"not null" json:"min_team_members"`
	MaxTeamMembers int       `gorm:"not null" json:"max_team_members"`

	// Relations
	Subject Subject        `json:"-"`
	Reviews []ReviewConfig `gorm:"foreignKey:AssignmentID" json:"reviews,omitempty"`
}

// AssignmentSection targets an assignment at one section; the fan-out
// creates tracking rows for every student in it.
type AssignmentSection struct {
	gorm.Model
	AssignmentID uint `gorm:"not null;index" json:"assignment_id"`
	SectionID    uint `gorm:"not null;index" json:"section_id"`
}

// ReviewConfig is the rubric for one review round of an assignment.
type ReviewConfig struct {
	gorm.Model
	AssignmentID uint    `gorm:"not null;uniqueIndex:idx_assignment_review" json:"assignment_id"`
	ReviewNumber int     `gorm:"not null;uniqueIndex:idx_assignment_review" json:"review_number"`
	ReviewName   string  `json:"review_name"`
	TotalMarks   float64 `gorm:"not null" json:"total_marks"`
	Description  string  `gorm:"type:text" json:"description"`
}

// StudentAssignment is the per-student tracking row fanned out when an
// assignment is created. Exactly one per (student, assignment).
type StudentAssignment struct {
	gorm.Model
	StudentEmail string `gorm:"not null;uniqueIndex:idx_student_assignment" json:"student_email"`
	AssignmentID uint   `gorm:"not null;uniqueIndex:idx_student_assignment" json:"assignment_id"`

	Status           string `gorm:"default:'Pending'" json:"status"`
	Progress         int    `gorm:"default:0" json:"progress"` // 0-100
	SubmissionStatus string `gorm:"default:'Not Submitted'" json:"submission_status"`
	TeamStatus       string `gorm:"default:'Not Joined'" json:"team_status"`

	// Relations
	Assignment Assignment `json:"-"`
}

// StudentAssignmentReview mirrors ReviewConfig per fanned-out student.
// Created in the same transaction as the StudentAssignment row.
type StudentAssignmentReview struct {
	gorm.Model
	AssignmentID uint   `gorm:"not null;uniqueIndex:idx_student_review" json:"assignment_id"`
	StudentEmail string `gorm:"not null;uniqueIndex:idx_student_review" json:"student_email"`
	ReviewNumber int    `gorm:"not null;uniqueIndex:idx_student_review" json:"review_number"`

	ObtainedMarks *float64   `json:"obtained_marks"`
	ReviewStatus  string     `gorm:"default:'Pending'" json:"review_status"`
	ReviewDate    *time.Time `json:"review_date"`
}
