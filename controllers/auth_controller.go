package controller

import (
	"errors"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"classhub/config"
	"classhub/models"
	"classhub/utils"
)

type SignUpRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required,oneof=Student Teacher"`
	SectionID *uint  `json:"sectionId"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthenticateRequest struct {
	Email        string `json:"email" validate:"required,email"`
	UserName     string `json:"userName" validate:"required"`
	SessionToken string `json:"sessionToken" validate:"required"`
	Role         string `json:"role" validate:"required"`
}

// SignUp registers a student or teacher. To keep the sign-up form contract,
// a constraint violation is reported inside a 200 body rather than as an
// HTTP error.
func SignUp(c *fiber.Ctx) error {
	var req SignUpRequest
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

	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email must be a valid email",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user := models.User{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.FirstName + " " + req.LastName),
		PasswordHash: string(hashedPassword),
		Role:         req.Role,
		SectionID:    req.SectionID,
	}
	if req.Role == models.RoleTeacher {
		user.SectionID = nil
	}

	if err := config.DB.Create(&user).Error; err != nil {
		utils.LogError("sign_up_failed", err, map[string]interface{}{
			"email": req.Email,
		})
		return c.JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	return c.JSON(fiber.Map{
		"email":     user.Email,
		"name":      user.Name,
		"role":      user.Role,
		"sectionId": user.SectionID,
	})
}

// Login checks credentials and issues a fresh session token. Issuing bumps
// the user's token version, so any earlier session stops validating.
// Credential failures are soft results with validity 0, not HTTP errors.
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var user models.User
	if err := config.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{
				"validity": 0,
				"message":  "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.JSON(fiber.Map{
			"validity": 0,
			"message":  "Invalid password",
		})
	}

	// Two concurrent logins race to last-write-wins here, which is the
	// intent: only the most recent login stays valid.
	user.TokenVersion++
	if err := config.DB.Model(&user).Update("token_version", user.TokenVersion).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to refresh session",
		})
	}

	sessionToken, err := utils.GenerateSessionToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate session token",
		})
	}

	validity := 2
	if user.Role == models.RoleStudent {
		validity = 1
	}

	return c.JSON(fiber.Map{
		"validity":     validity,
		"userName":     user.Name,
		"sessionToken": sessionToken,
		"email":        user.Email,
		"role":         user.Role,
	})
}

// Authenticate is the stateless session check used by private views:
// signature and expiry must hold, and email, name, role and token version
// must all still match the user row.
func Authenticate(c *fiber.Ctx) error {
	var req AuthenticateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	claims, err := utils.ParseSessionToken(req.SessionToken)
	if err != nil {
		return c.JSON(fiber.Map{"authenticated": false})
	}

	if claims.Email != req.Email || claims.Role != req.Role {
		return c.JSON(fiber.Map{"authenticated": false})
	}

	var user models.User
	err = config.DB.Where("email = ? AND name = ? AND role = ?", req.Email, req.UserName, req.Role).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"authenticated": false})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":         "Server error",
			"authenticated": false,
		})
	}

	return c.JSON(fiber.Map{
		"authenticated": claims.TokenVersion == user.TokenVersion,
	})
}

func GetCurrentUser(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return c.JSON(user)
}
