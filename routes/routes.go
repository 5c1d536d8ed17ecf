package routes

import (
	"log"
	"os"

	controller "classhub/controllers"
	"classhub/middleware"
	"classhub/models"
	"classhub/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB, mailer *utils.Mailer) {
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints
	auth.Post("/sign-up", controller.SignUp)
	auth.Post("/login", middleware.LoginRateLimiter(), controller.Login)
	auth.Post("/authenticate", controller.Authenticate)

	// Protected auth endpoints (require valid session token)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.GetCurrentUser)

	// OTP routes group
	otpController := controller.NewOTPController(db, mailer, log.New(os.Stdout, "OTP: ", log.LstdFlags))
	otp := app.Group("/otp", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	otp.Post("/send", otpController.SendOTP)
	otp.Post("/verify", otpController.VerifyOTP)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, mailer *utils.Mailer) {
	assignmentController := controller.NewAssignmentController(db, mailer, log.New(os.Stdout, "ASSIGNMENT: ", log.LstdFlags))
	teamController := controller.NewTeamController(db, log.New(os.Stdout, "TEAM: ", log.LstdFlags))
	invitationController := controller.NewInvitationController(db, log.New(os.Stdout, "INVITATION: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Student dashboard routes
	dashboard := api.Group("/dashboard", middleware.RequireRole(models.RoleStudent))
	dashboard.Get("/assignments", dashboardController.StudentAssignments)
	dashboard.Get("/stats", dashboardController.StudentStats)
	dashboard.Get("/teams", dashboardController.StudentTeams)
	dashboard.Get("/deadlines", dashboardController.UpcomingDeadlines)
	dashboard.Get("/calendar", dashboardController.CalendarEvents)

	// Team routes
	team := api.Group("/teams", middleware.RequireRole(models.RoleStudent))
	team.Post("/", teamController.CreateTeam)

	// Invitation routes
	invitation := api.Group("/invitations", middleware.RequireRole(models.RoleStudent))
	invitation.Get("/", invitationController.ListInvitations)
	invitation.Post("/", invitationController.SendInvitation)
	invitation.Post("/respond", invitationController.RespondInvitation)

	// Teacher routes
	teacher := api.Group("/teacher", middleware.RequireRole(models.RoleTeacher))
	teacher.Post("/assignments", assignmentController.CreateAssignment)
	teacher.Get("/assignments", dashboardController.TeacherAssignments)
	teacher.Get("/subjects", dashboardController.TeacherSubjects)
	teacher.Post("/subjects", dashboardController.AddSubject)
	teacher.Get("/sections", dashboardController.Sections)

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, mailer *utils.Mailer) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Setup auth routes
	SetupAuthRoutes(app, db, mailer)

	// Setup API routes
	SetupAPIRoutes(app, db, mailer)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
