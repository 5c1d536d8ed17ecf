package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"classhub/models"
	"classhub/utils"
)

type InvitationController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewInvitationController(db *gorm.DB, logger *log.Logger) *InvitationController {
	return &InvitationController{
		DB:     db,
		Logger: logger,
	}
}

type SendInvitationRequest struct {
	TeamID        uint   `json:"teamId" validate:"required"`
	ReceiverEmail string `json:"receiverEmail" validate:"required,email"`
}

type RespondInvitationRequest struct {
	InvitationID uint   `json:"invitationId" validate:"required"`
	Action       string `json:"action" validate:"required,oneof=accept reject"`
}

// SendInvitation lets a team member invite another student to their team.
func (ic *InvitationController) SendInvitation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req SendInvitationRequest
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

	var team models.Team
	if err := ic.DB.First(&team, req.TeamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Team not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up team",
		})
	}

	var senderMembership models.TeamMember
	err := ic.DB.Where("team_id = ? AND student_email = ?", req.TeamID, user.Email).
		First(&senderMembership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Only team members can send invitations",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check team membership",
		})
	}

	// Receiver must be assigned the same work and not already teamed up
	var receiverTracking models.StudentAssignment
	err = ic.DB.Where("student_email = ? AND assignment_id = ?", req.ReceiverEmail, team.AssignmentID).
		First(&receiverTracking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Student is not assigned this work",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up student",
		})
	}

	receiverTeam, err := memberTeamForAssignment(ic.DB, req.ReceiverEmail, team.AssignmentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check team membership",
		})
	}
	if receiverTeam != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Student is already in a team for this assignment",
		})
	}

	// Duplicate pending invitations are allowed; the membership check on
	// accept resolves whichever lands first.
	invitation := models.Invitation{
		SenderEmail:   user.Email,
		ReceiverEmail: req.ReceiverEmail,
		TeamID:        req.TeamID,
		Status:        models.InvitationStatusPending,
	}
	if err := ic.DB.Create(&invitation).Error; err != nil {
		ic.Logger.Printf("Failed to create invitation: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send invitation",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"invitationId": invitation.ID,
	})
}

// RespondInvitation accepts or rejects a pending invitation. Either
// response is terminal. Accepting joins the team and refreshes the team
// status of every member inside one transaction.
func (ic *InvitationController) RespondInvitation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req RespondInvitationRequest
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

	var invitation models.Invitation
	err := ic.DB.Where("id = ? AND receiver_email = ?", req.InvitationID, user.Email).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Invitation not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up invitation",
		})
	}

	if invitation.Status != models.InvitationStatusPending {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Invitation has already been responded to",
		})
	}

	if req.Action == "reject" {
		if err := ic.DB.Model(&invitation).
			Update("status", models.InvitationStatusRejected).Error; err != nil {
			ic.Logger.Printf("Failed to reject invitation %d: %v", invitation.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to respond to invitation",
			})
		}
		return c.JSON(fiber.Map{
			"status": models.InvitationStatusRejected,
		})
	}

	var team models.Team
	if err := ic.DB.First(&team, invitation.TeamID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up team",
		})
	}

	// The receiver may have joined another team since the invite was sent
	existingTeam, err := memberTeamForAssignment(ic.DB, user.Email, team.AssignmentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check team membership",
		})
	}
	if existingTeam != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Already in a team for this assignment",
		})
	}

	var assignment models.Assignment
	if err := ic.DB.First(&assignment, team.AssignmentID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up assignment",
		})
	}

	var memberCount int64
	if err := ic.DB.Model(&models.TeamMember{}).
		Where("team_id = ?", team.ID).
		Count(&memberCount).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count team members",
		})
	}
	if assignment.MaxTeamMembers > 0 && int(memberCount) >= assignment.MaxTeamMembers {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Team is already full",
		})
	}

	tx := ic.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to respond to invitation",
		})
	}

	if err := tx.Create(&models.TeamMember{
		TeamID:       team.ID,
		StudentEmail: user.Email,
	}).Error; err != nil {
		tx.Rollback()
		ic.Logger.Printf("Failed to add team member: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to respond to invitation",
		})
	}

	if err := tx.Model(&models.Invitation{}).
		Where("id = ?", invitation.ID).
		Update("status", models.InvitationStatusAccepted).Error; err != nil {
		tx.Rollback()
		ic.Logger.Printf("Failed to accept invitation %d: %v", invitation.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to respond to invitation",
		})
	}

	if err := refreshTeamStatus(tx, team.ID); err != nil {
		tx.Rollback()
		ic.Logger.Printf("Failed to refresh team status: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to respond to invitation",
		})
	}

	if err := tx.Commit().Error; err != nil {
		ic.Logger.Printf("Transaction commit failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to respond to invitation",
		})
	}

	return c.JSON(fiber.Map{
		"status": models.InvitationStatusAccepted,
		"teamId": team.ID,
	})
}

type invitationRow struct {
	ID              uint   `json:"id"`
	SenderName      string `json:"senderName"`
	SenderEmail     string `json:"senderEmail"`
	TeamName        string `json:"teamName"`
	AssignmentTitle string `json:"assignmentTitle"`
	SubjectName     string `json:"subjectName"`
	SentAt          string `json:"sentAt"`
}

// ListInvitations returns the caller's pending invitations enriched with
// sender, team and assignment details.
func (ic *InvitationController) ListInvitations(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var invitations []models.Invitation
	if err := ic.DB.
		Where("receiver_email = ? AND status = ?", user.Email, models.InvitationStatusPending).
		Order("created_at DESC").
		Find(&invitations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load invitations",
		})
	}

	rows := make([]invitationRow, 0, len(invitations))
	for _, inv := range invitations {
		row := invitationRow{
			ID:          inv.ID,
			SenderEmail: inv.SenderEmail,
			SentAt:      utils.TimeAgo(inv.CreatedAt),
		}

		var sender models.User
		if err := ic.DB.Select("name").Where("email = ?", inv.SenderEmail).
			First(&sender).Error; err == nil {
			row.SenderName = sender.Name
		}

		var team models.Team
		if err := ic.DB.First(&team, inv.TeamID).Error; err == nil {
			row.TeamName = team.Name

			var assignment models.Assignment
			if err := ic.DB.First(&assignment, team.AssignmentID).Error; err == nil {
				row.AssignmentTitle = assignment.Title

				var subject models.Subject
				if err := ic.DB.First(&subject, assignment.SubjectID).Error; err == nil {
					row.SubjectName = subject.Name
				}
			}
		}

		rows = append(rows, row)
	}

	return c.JSON(fiber.Map{
		"invitations": rows,
	})
}
