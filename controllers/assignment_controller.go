package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"classhub/models"
	"classhub/utils"
)

type AssignmentController struct {
	DB     *gorm.DB
	Mailer *utils.Mailer
	Logger *log.Logger
}

func NewAssignmentController(db *gorm.DB, mailer *utils.Mailer, logger *log.Logger) *AssignmentController {
	return &AssignmentController{
		DB:     db,
		Mailer: mailer,
		Logger: logger,
	}
}

type ReviewSpec struct {
	ReviewNumber int     `json:"reviewNo" validate:"required,gte=1"`
	ReviewName   string  `json:"reviewName"`
	Description  string  `json:"description"`
	Marks        float64 `json:"reviewMarks" validate:"gte=0"`
}

type CreateAssignmentRequest struct {
	Title          string       `json:"title" validate:"required,max=200"`
	Description    string       `json:"description"`
	DueDate        time.Time    `json:"dueDate" validate:"required"`
	SubjectID      uint         `json:"subjectId" validate:"required"`
	CreatedBy      string       `json:"createdBy" validate:"required,email"`
	CreatedByName  string       `json:"createdByName"`
	MinTeamMembers int          `json:"minMembers" validate:"required,gte=1"`
	MaxTeamMembers int          `json:"maxMembers" validate:"required,gtefield=MinTeamMembers"`
	SectionID      uint         `json:"sectionId" validate:"required"`
	Reviews        []ReviewSpec `json:"reviews" validate:"required,min=1,dive"`
	SendMail       bool         `json:"sendMail"`
}

// CreateAssignment creates an assignment and fans it out to every student
// in the target section, all inside one transaction. Mail notifications
// happen after commit and never affect the result.
func (ac *AssignmentController) CreateAssignment(c *fiber.Ctx) error {
	var req CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		ac.Logger.Printf("Error parsing request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	assignment, students, err := ac.distribute(req)
	if err != nil {
		utils.LogError("assignment_distribution_failed", err, map[string]interface{}{
			"title":      req.Title,
			"section_id": req.SectionID,
			"created_by": req.CreatedBy,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create assignment",
		})
	}

	// Fire-and-forget: the assignment is durably created at this point, so
	// a slow or failing SMTP server must not affect the response.
	if req.SendMail && len(students) > 0 {
		go ac.notifyStudents(assignment, students)
	}

	return c.JSON(fiber.Map{
		"assignmentId": assignment.ID,
	})
}

// distribute runs the distribution transaction: assignment, section link,
// review configs, then batched per-student tracking rows. Either every row
// commits or none do.
func (ac *AssignmentController) distribute(req CreateAssignmentRequest) (models.Assignment, []models.User, error) {
	assignment := models.Assignment{
		Title:          req.Title,
		Description:    req.Description,
		DueDate:        req.DueDate,
		SubjectID:      req.SubjectID,
		CreatedBy:      req.CreatedBy,
		MinTeamMembers: req.MinTeamMembers,
		MaxTeamMembers: req.MaxTeamMembers,
	}

	tx := ac.DB.Begin()
	if tx.Error != nil {
		return assignment, nil, tx.Error
	}

	if err := tx.Create(&assignment).Error; err != nil {
		tx.Rollback()
		return assignment, nil, err
	}

	if err := tx.Create(&models.AssignmentSection{
		AssignmentID: assignment.ID,
		SectionID:    req.SectionID,
	}).Error; err != nil {
		tx.Rollback()
		return assignment, nil, err
	}

	configs := make([]models.ReviewConfig, 0, len(req.Reviews))
	for _, review := range req.Reviews {
		configs = append(configs, models.ReviewConfig{
			AssignmentID: assignment.ID,
			ReviewNumber: review.ReviewNumber,
			ReviewName:   review.ReviewName,
			TotalMarks:   review.Marks,
			Description:  review.Description,
		})
	}
	if err := tx.Create(&configs).Error; err != nil {
		tx.Rollback()
		return assignment, nil, err
	}

	// Fan-out target set. An empty section is accepted: the assignment
	// commits with zero tracking rows.
	var students []models.User
	if err := tx.Where("role = ? AND section_id = ?", models.RoleStudent, req.SectionID).
		Find(&students).Error; err != nil {
		tx.Rollback()
		return assignment, nil, err
	}

	if len(students) > 0 {
		tracking := make([]models.StudentAssignment, 0, len(students))
		reviews := make([]models.StudentAssignmentReview, 0, len(students)*len(req.Reviews))
		for _, student := range students {
			tracking = append(tracking, models.StudentAssignment{
				StudentEmail:     student.Email,
				AssignmentID:     assignment.ID,
				Status:           models.AssignmentStatusPending,
				Progress:         0,
				SubmissionStatus: models.SubmissionStatusNotSubmitted,
				TeamStatus:       models.TeamStatusNotJoined,
			})
			for _, review := range req.Reviews {
				reviews = append(reviews, models.StudentAssignmentReview{
					AssignmentID: assignment.ID,
					StudentEmail: student.Email,
					ReviewNumber: review.ReviewNumber,
					ReviewStatus: models.ReviewStatusPending,
				})
			}
		}

		if err := tx.CreateInBatches(tracking, 200).Error; err != nil {
			tx.Rollback()
			return assignment, nil, err
		}
		if err := tx.CreateInBatches(reviews, 200).Error; err != nil {
			tx.Rollback()
			return assignment, nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return assignment, nil, err
	}

	return assignment, students, nil
}

// notifyStudents emails every fanned-out student. Failures are logged only.
func (ac *AssignmentController) notifyStudents(assignment models.Assignment, students []models.User) {
	var subject models.Subject
	if err := ac.DB.First(&subject, assignment.SubjectID).Error; err != nil {
		ac.Logger.Printf("Failed to load subject %d for notification: %v", assignment.SubjectID, err)
	}

	var teacher models.User
	createdBy := assignment.CreatedBy
	if err := ac.DB.Where("email = ?", assignment.CreatedBy).First(&teacher).Error; err == nil {
		createdBy = teacher.Name
	}

	data := utils.AssignmentEmailData{
		CreatedBy:   createdBy,
		Subject:     subject.Name,
		Title:       assignment.Title,
		Description: assignment.Description,
		DueDate:     assignment.DueDate.Format("January 02, 2006"),
	}

	for _, student := range students {
		if err := ac.Mailer.SendAssignmentCreated(student.Email, data); err != nil {
			utils.LogError("assignment_mail_failed", err, map[string]interface{}{
				"assignment_id": assignment.ID,
				"student":       student.Email,
			})
		}
	}

	utils.LogEvent("assignment_distributed", map[string]interface{}{
		"assignment_id": assignment.ID,
		"students":      len(students),
		"mailed":        true,
	})
}
