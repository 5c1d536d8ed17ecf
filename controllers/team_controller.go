package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"classhub/models"
	"classhub/utils"
)

type TeamController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTeamController(db *gorm.DB, logger *log.Logger) *TeamController {
	return &TeamController{
		DB:     db,
		Logger: logger,
	}
}

type CreateTeamRequest struct {
	AssignmentID uint   `json:"assignmentId" validate:"required"`
	TeamName     string `json:"teamName" validate:"required,max=100"`
	ProjectName  string `json:"projectName" validate:"omitempty,max=200"`
}

// CreateTeam forms a new team for an assignment with the calling student as
// its first member, then recomputes their team status.
func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// The student must be part of the assignment's fan-out
	var tracking models.StudentAssignment
	err := tc.DB.Where("student_email = ? AND assignment_id = ?", user.Email, req.AssignmentID).
		First(&tracking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Assignment not found for this student",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up assignment",
		})
	}

	member, err := memberTeamForAssignment(tc.DB, user.Email, req.AssignmentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check team membership",
		})
	}
	if member != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Already a member of a team for this assignment",
		})
	}

	tx := tc.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team",
		})
	}

	team := models.Team{
		AssignmentID: req.AssignmentID,
		Name:         req.TeamName,
		ProjectName:  req.ProjectName,
	}
	if err := tx.Create(&team).Error; err != nil {
		tx.Rollback()
		tc.Logger.Printf("Failed to create team: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team",
		})
	}

	if err := tx.Create(&models.TeamMember{
		TeamID:       team.ID,
		StudentEmail: user.Email,
	}).Error; err != nil {
		tx.Rollback()
		tc.Logger.Printf("Failed to add founding member: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team",
		})
	}

	if err := refreshTeamStatus(tx, team.ID); err != nil {
		tx.Rollback()
		tc.Logger.Printf("Failed to refresh team status: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team",
		})
	}

	if err := tx.Commit().Error; err != nil {
		tc.Logger.Printf("Transaction commit failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"teamId": team.ID,
	})
}

// DeriveTeamStatus maps a team's member count onto the assignment's team
// size window. Exceeding the maximum is a caller-side concern, so counts
// above it still report complete.
func DeriveTeamStatus(memberCount, minTeamMembers int) string {
	switch {
	case memberCount == 0:
		return models.TeamStatusNotJoined
	case memberCount < minTeamMembers:
		return models.TeamStatusForming
	default:
		return models.TeamStatusComplete
	}
}

// refreshTeamStatus recomputes and persists the team status for every
// current member of the team, not just whoever changed the membership.
// Leaving other members stale would make their dashboards lie.
func refreshTeamStatus(tx *gorm.DB, teamID uint) error {
	var team models.Team
	if err := tx.First(&team, teamID).Error; err != nil {
		return err
	}

	var assignment models.Assignment
	if err := tx.First(&assignment, team.AssignmentID).Error; err != nil {
		return err
	}

	var memberEmails []string
	if err := tx.Model(&models.TeamMember{}).
		Where("team_id = ?", teamID).
		Pluck("student_email", &memberEmails).Error; err != nil {
		return err
	}
	if len(memberEmails) == 0 {
		return nil
	}

	status := DeriveTeamStatus(len(memberEmails), assignment.MinTeamMembers)

	return tx.Model(&models.StudentAssignment{}).
		Where("assignment_id = ? AND student_email IN ?", team.AssignmentID, memberEmails).
		Update("team_status", status).Error
}

// memberTeamForAssignment returns the team the student belongs to for the
// assignment, or nil when they have none.
func memberTeamForAssignment(db *gorm.DB, studentEmail string, assignmentID uint) (*models.Team, error) {
	var team models.Team
	err := db.Joins("JOIN team_members ON team_members.team_id = teams.id AND team_members.deleted_at IS NULL").
		Where("teams.assignment_id = ? AND team_members.student_email = ?", assignmentID, studentEmail).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}
