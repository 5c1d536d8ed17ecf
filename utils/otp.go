package utils

import (
	"crypto/rand"
	"math/big"
	"time"

	"classhub/config"
	"classhub/models"
)

const (
	OTPLength         = 6
	OTPExpiry         = 15 * time.Minute
	OTPResendCooldown = 1 * time.Minute
)

func GenerateOTP() (string, error) {
	const digits = "0123456789"
	otp := make([]byte, OTPLength)

	for i := range otp {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		otp[i] = digits[num.Int64()]
	}

	return string(otp), nil
}

// SaveOTP stores a fresh code with its expiry on the user row.
func SaveOTP(email, otp string) error {
	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return err
	}

	user.OTP = otp
	user.OTPExpiresAt = time.Now().Add(OTPExpiry)
	user.OTPVerified = false

	return config.DB.Save(&user).Error
}

// VerifyOTP consumes the stored code if it matches and hasn't expired.
func VerifyOTP(email, otp string) (bool, error) {
	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return false, err
	}

	if user.OTP == otp && time.Now().Before(user.OTPExpiresAt) {
		user.OTP = ""
		user.OTPVerified = true
		user.EmailVerified = true
		if err := config.DB.Save(&user).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

func CanResendOTP(email string) (bool, time.Duration, error) {
	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return false, 0, err
	}

	if user.OTPExpiresAt.IsZero() {
		return true, 0, nil
	}

	sentAt := user.OTPExpiresAt.Add(-OTPExpiry)
	wait := time.Until(sentAt.Add(OTPResendCooldown))
	if wait <= 0 {
		return true, 0, nil
	}

	return false, wait, nil
}
