package utils

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"classhub/config"
	"classhub/models"
)

func setupOTPDB(t *testing.T) {
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
	config.DB = db

	if err := db.Create(&models.User{
		Email:        "student@example.com",
		Name:         "Test Student",
		PasswordHash: "x",
		Role:         models.RoleStudent,
	}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		if len(otp) != OTPLength {
			t.Fatalf("otp length = %d, want %d", len(otp), OTPLength)
		}
		for _, ch := range otp {
			if ch < '0' || ch > '9' {
				t.Fatalf("otp %q contains non-digit", otp)
			}
		}
	}
}

func TestSaveAndVerifyOTP(t *testing.T) {
	setupOTPDB(t)

	if err := SaveOTP("student@example.com", "123456"); err != nil {
		t.Fatalf("SaveOTP: %v", err)
	}

	ok, err := VerifyOTP("student@example.com", "000000")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if ok {
		t.Error("wrong code should not verify")
	}

	ok, err = VerifyOTP("student@example.com", "123456")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if !ok {
		t.Fatal("correct code should verify")
	}

	var user models.User
	if err := config.DB.Where("email = ?", "student@example.com").First(&user).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !user.EmailVerified {
		t.Error("EmailVerified should be set after verification")
	}
	if user.OTP != "" {
		t.Error("OTP should be cleared after verification")
	}

	// The code is consumed, a replay must fail
	ok, err = VerifyOTP("student@example.com", "123456")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if ok {
		t.Error("consumed code should not verify again")
	}
}

func TestVerifyOTPExpired(t *testing.T) {
	setupOTPDB(t)

	if err := SaveOTP("student@example.com", "123456"); err != nil {
		t.Fatalf("SaveOTP: %v", err)
	}
	if err := config.DB.Model(&models.User{}).
		Where("email = ?", "student@example.com").
		Update("otp_expires_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("expire otp: %v", err)
	}

	ok, err := VerifyOTP("student@example.com", "123456")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if ok {
		t.Error("expired code should not verify")
	}
}

func TestCanResendOTP(t *testing.T) {
	setupOTPDB(t)

	ok, wait, err := CanResendOTP("student@example.com")
	if err != nil {
		t.Fatalf("CanResendOTP: %v", err)
	}
	if !ok || wait != 0 {
		t.Errorf("fresh user should be allowed to request a code, got ok=%v wait=%v", ok, wait)
	}

	if err := SaveOTP("student@example.com", "123456"); err != nil {
		t.Fatalf("SaveOTP: %v", err)
	}

	ok, wait, err = CanResendOTP("student@example.com")
	if err != nil {
		t.Fatalf("CanResendOTP: %v", err)
	}
	if ok {
		t.Error("resend should be blocked inside the cooldown")
	}
	if wait <= 0 || wait > OTPResendCooldown {
		t.Errorf("wait = %v, want within (0, %v]", wait, OTPResendCooldown)
	}
}
