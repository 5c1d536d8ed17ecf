package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"classhub/models"
	"classhub/utils"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{
		DB:     db,
		Logger: logger,
	}
}

type studentAssignmentRow struct {
	AssignmentID     uint      `json:"assignmentId"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	DueDate          time.Time `json:"dueDate"`
	SubjectName      string    `json:"subjectName"`
	Status           string    `json:"status"`
	Progress         int       `json:"progress"`
	SubmissionStatus string    `json:"submissionStatus"`
	TeamStatus       string    `json:"teamStatus"`
	TeamID           *uint     `json:"teamId"`
}

// StudentAssignments lists everything fanned out to the calling student,
// joined with assignment details and the team they belong to, if any.
func (dc *DashboardController) StudentAssignments(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var rows []studentAssignmentRow
	err := dc.DB.Model(&models.StudentAssignment{}).
		Select(`student_assignments.assignment_id,
			assignments.title,
			assignments.description,
			assignments.due_date,
			subjects.name AS subject_name,
			student_assignments.status,
			student_assignments.progress,
			student_assignments.submission_status,
			student_assignments.team_status,
			(SELECT team_members.team_id FROM team_members
				JOIN teams ON teams.id = team_members.team_id
				WHERE team_members.student_email = student_assignments.student_email
				AND teams.assignment_id = student_assignments.assignment_id
				AND team_members.deleted_at IS NULL
				LIMIT 1) AS team_id`).
		Joins("JOIN assignments ON assignments.id = student_assignments.assignment_id").
		Joins("JOIN subjects ON subjects.id = assignments.subject_id").
		Where("student_assignments.student_email = ?", user.Email).
		Order("assignments.due_date ASC").
		Scan(&rows).Error
	if err != nil {
		dc.Logger.Printf("Failed to load student assignments: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load assignments",
		})
	}

	return c.JSON(fiber.Map{
		"assignments": rows,
	})
}

// StudentStats summarizes the student's dashboard counters.
func (dc *DashboardController) StudentStats(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var activeAssignments int64
	if err := dc.DB.Model(&models.StudentAssignment{}).
		Joins("JOIN assignments ON assignments.id = student_assignments.assignment_id").
		Where("student_assignments.student_email = ? AND student_assignments.submission_status = ?",
			user.Email, models.SubmissionStatusNotSubmitted).
		Where("assignments.due_date >= ?", time.Now()).
		Count(&activeAssignments).Error; err != nil {
		dc.Logger.Printf("Failed to count active assignments: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load stats",
		})
	}

	var upcomingDeadlines int64
	if err := dc.DB.Model(&models.StudentAssignment{}).
		Joins("JOIN assignments ON assignments.id = student_assignments.assignment_id").
		Where("student_assignments.student_email = ?", user.Email).
		Where("assignments.due_date BETWEEN ? AND ?", time.Now(), time.Now().AddDate(0, 0, 7)).
		Count(&upcomingDeadlines).Error; err != nil {
		dc.Logger.Printf("Failed to count upcoming deadlines: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load stats",
		})
	}

	var pendingInvitations int64
	if err := dc.DB.Model(&models.Invitation{}).
		Where("receiver_email = ? AND status = ?", user.Email, models.InvitationStatusPending).
		Count(&pendingInvitations).Error; err != nil {
		dc.Logger.Printf("Failed to count pending invitations: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load stats",
		})
	}

	return c.JSON(fiber.Map{
		"activeAssignments":  activeAssignments,
		"upcomingDeadlines":  upcomingDeadlines,
		"pendingInvitations": pendingInvitations,
	})
}

type teamMemberRow struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type studentTeamRow struct {
	TeamID          uint            `json:"teamId"`
	TeamName        string          `json:"teamName"`
	ProjectName     string          `json:"projectName"`
	AssignmentTitle string          `json:"assignmentTitle"`
	TeamStatus      string          `json:"teamStatus"`
	Members         []teamMemberRow `json:"members"`
	RepoName        string          `json:"repoName,omitempty"`
	RepoStatus      string          `json:"repoStatus,omitempty"`
}

// StudentTeams lists the teams the caller belongs to, with members and
// repository status where one is linked.
func (dc *DashboardController) StudentTeams(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var teams []models.Team
	err := dc.DB.
		Joins("JOIN team_members ON team_members.team_id = teams.id AND team_members.deleted_at IS NULL").
		Where("team_members.student_email = ?", user.Email).
		Find(&teams).Error
	if err != nil {
		dc.Logger.Printf("Failed to load teams: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load teams",
		})
	}

	rows := make([]studentTeamRow, 0, len(teams))
	for _, team := range teams {
		row := studentTeamRow{
			TeamID:      team.ID,
			TeamName:    team.Name,
			ProjectName: team.ProjectName,
		}

		var assignment models.Assignment
		if err := dc.DB.First(&assignment, team.AssignmentID).Error; err == nil {
			row.AssignmentTitle = assignment.Title
		}

		var tracking models.StudentAssignment
		if err := dc.DB.
			Where("student_email = ? AND assignment_id = ?", user.Email, team.AssignmentID).
			First(&tracking).Error; err == nil {
			row.TeamStatus = tracking.TeamStatus
		}

		err := dc.DB.Model(&models.TeamMember{}).
			Select("team_members.student_email AS email, users.name").
			Joins("LEFT JOIN users ON users.email = team_members.student_email").
			Where("team_members.team_id = ?", team.ID).
			Scan(&row.Members).Error
		if err != nil {
			dc.Logger.Printf("Failed to load team members: %v", err)
		}

		var repo models.Repository
		if err := dc.DB.Where("team_id = ?", team.ID).First(&repo).Error; err == nil {
			row.RepoName = repo.RepoName
			row.RepoStatus = repo.Status
		}

		rows = append(rows, row)
	}

	return c.JSON(fiber.Map{
		"teams": rows,
	})
}

type deadlineRow struct {
	AssignmentID uint      `json:"assignmentId"`
	Title        string    `json:"title"`
	SubjectName  string    `json:"subjectName"`
	DueDate      time.Time `json:"dueDate"`
}

// UpcomingDeadlines returns the next three unfinished assignments by due date.
func (dc *DashboardController) UpcomingDeadlines(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var rows []deadlineRow
	err := dc.DB.Model(&models.StudentAssignment{}).
		Select(`student_assignments.assignment_id,
			assignments.title,
			subjects.name AS subject_name,
			assignments.due_date`).
		Joins("JOIN assignments ON assignments.id = student_assignments.assignment_id").
		Joins("JOIN subjects ON subjects.id = assignments.subject_id").
		Where("student_assignments.student_email = ? AND student_assignments.status = ?",
			user.Email, models.AssignmentStatusPending).
		Where("assignments.due_date >= ?", time.Now()).
		Order("assignments.due_date ASC").
		Limit(3).
		Scan(&rows).Error
	if err != nil {
		dc.Logger.Printf("Failed to load upcoming deadlines: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load deadlines",
		})
	}

	return c.JSON(fiber.Map{
		"deadlines": rows,
	})
}

type calendarEvent struct {
	AssignmentID uint      `json:"assignmentId"`
	Title        string    `json:"title"`
	SubjectName  string    `json:"subjectName"`
	DueDate      time.Time `json:"dueDate"`
}

// CalendarEvents groups the student's assignment due dates by year-month
// for the dashboard calendar.
func (dc *DashboardController) CalendarEvents(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var rows []calendarEvent
	err := dc.DB.Model(&models.StudentAssignment{}).
		Select(`student_assignments.assignment_id,
			assignments.title,
			subjects.name AS subject_name,
			assignments.due_date`).
		Joins("JOIN assignments ON assignments.id = student_assignments.assignment_id").
		Joins("JOIN subjects ON subjects.id = assignments.subject_id").
		Where("student_assignments.student_email = ?", user.Email).
		Order("assignments.due_date ASC").
		Scan(&rows).Error
	if err != nil {
		dc.Logger.Printf("Failed to load calendar events: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load calendar",
		})
	}

	grouped := make(map[string][]calendarEvent)
	for _, ev := range rows {
		key := ev.DueDate.Format("2006-01")
		grouped[key] = append(grouped[key], ev)
	}

	return c.JSON(fiber.Map{
		"events": grouped,
	})
}

// TeacherSubjects lists the subjects owned by the calling teacher.
func (dc *DashboardController) TeacherSubjects(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var subjects []models.Subject
	err := dc.DB.
		Joins("JOIN teacher_subjects ON teacher_subjects.subject_id = subjects.id AND teacher_subjects.deleted_at IS NULL").
		Where("teacher_subjects.teacher_email = ?", user.Email).
		Find(&subjects).Error
	if err != nil {
		dc.Logger.Printf("Failed to load teacher subjects: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load subjects",
		})
	}

	return c.JSON(fiber.Map{
		"subjects": subjects,
	})
}

// Sections lists every section, for the assignment creation form.
func (dc *DashboardController) Sections(c *fiber.Ctx) error {
	var sections []models.Section
	if err := dc.DB.Order("name ASC").Find(&sections).Error; err != nil {
		dc.Logger.Printf("Failed to load sections: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load sections",
		})
	}

	return c.JSON(fiber.Map{
		"sections": sections,
	})
}

type teacherAssignmentRow struct {
	AssignmentID   uint      `json:"assignmentId"`
	Title          string    `json:"title"`
	SubjectName    string    `json:"subjectName"`
	DueDate        time.Time `json:"dueDate"`
	TotalStudents  int64     `json:"totalStudents"`
	SubmittedCount int64     `json:"submittedCount"`
	Status         string    `json:"status"`
}

// TeacherAssignments lists assignments created by the teacher with
// submission progress across the fanned-out students.
func (dc *DashboardController) TeacherAssignments(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var rows []teacherAssignmentRow
	err := dc.DB.Model(&models.Assignment{}).
		Select(`assignments.id AS assignment_id,
			assignments.title,
			subjects.name AS subject_name,
			assignments.due_date,
			(SELECT COUNT(*) FROM student_assignments
				WHERE student_assignments.assignment_id = assignments.id
				AND student_assignments.deleted_at IS NULL) AS total_students,
			(SELECT COUNT(*) FROM student_assignments
				WHERE student_assignments.assignment_id = assignments.id
				AND student_assignments.submission_status = ?
				AND student_assignments.deleted_at IS NULL) AS submitted_count`,
			models.SubmissionStatusSubmitted).
		Joins("JOIN subjects ON subjects.id = assignments.subject_id").
		Where("assignments.created_by = ?", user.Email).
		Order("assignments.due_date DESC").
		Scan(&rows).Error
	if err != nil {
		dc.Logger.Printf("Failed to load teacher assignments: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load assignments",
		})
	}

	now := time.Now()
	for i := range rows {
		if rows[i].DueDate.Before(now) {
			rows[i].Status = "Completed"
		} else {
			rows[i].Status = "Active"
		}
	}

	return c.JSON(fiber.Map{
		"assignments": rows,
	})
}

type AddSubjectRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// AddSubject creates a subject and links it to the calling teacher.
func (dc *DashboardController) AddSubject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req AddSubjectRequest
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

	tx := dc.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add subject",
		})
	}

	subject := models.Subject{Name: req.Name}
	if err := tx.Create(&subject).Error; err != nil {
		tx.Rollback()
		dc.Logger.Printf("Failed to create subject: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add subject",
		})
	}

	if err := tx.Create(&models.TeacherSubject{
		TeacherEmail: user.Email,
		SubjectID:    subject.ID,
	}).Error; err != nil {
		tx.Rollback()
		dc.Logger.Printf("Failed to link subject to teacher: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add subject",
		})
	}

	if err := tx.Commit().Error; err != nil {
		dc.Logger.Printf("Transaction commit failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add subject",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"subjectId": subject.ID,
	})
}
