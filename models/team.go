package models

import "gorm.io/gorm"

// Invitation.Status values. Accepted and Rejected are terminal.
const (
	InvitationStatusPending  = "Pending"
	InvitationStatusAccepted = "Accepted"
	InvitationStatusRejected = "Rejected"
)

// Team is a project team for one assignment, created when the first
// student forms it.
type Team struct {
	gorm.Model
	AssignmentID uint   `gorm:"not null;index" json:"assignment_id"`
	Name         string `gorm:"not null" json:"name"`
	ProjectName  string `json:"project_name"`

	// Relations
	Assignment Assignment   `json:"-"`
	Members    []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// TeamMember joins a student to a team. A student belongs to at most one
// team per assignment; the join/accept paths check that before inserting.
type TeamMember struct {
	gorm.Model
	TeamID       uint   `gorm:"not null;uniqueIndex:idx_team_student" json:"team_id"`
	StudentEmail string `gorm:"not null;uniqueIndex:idx_team_student" json:"student_email"`

	// Relations
	Team Team `json:"-"`
}

// Invitation asks a non-member to join a team.
type Invitation struct {
	gorm.Model
	SenderEmail   string `gorm:"not null;index" json:"sender_email"`
	ReceiverEmail string `gorm:"not null;index" json:"receiver_email"`
	TeamID        uint   `gorm:"not null;index" json:"team_id"`
	Status        string `gorm:"default:'Pending'" json:"status"`

	// Relations
	Team Team `json:"-"`
}

// Repository links a team to its project repository. Read-only here.
type Repository struct {
	gorm.Model
	TeamID   uint   `gorm:"not null;index" json:"team_id"`
	RepoName string `json:"repo_name"`
	Status   string `json:"status"`
}
