// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// # Time-based One-Time Passwords

// TOTPEnrollment holds everything a client needs to enroll an authenticator app.
type TOTPEnrollment struct {
	// Secret is the base32-encoded shared secret for manual entry.
	Secret string `json:"secret"`

	// OtpauthURL is the otpauth:// provisioning URI.
	OtpauthURL string `json:"otpauth_url"`

	// QRCodeDataURL is a data:image/png;base64 URL rendering the provisioning URI.
	QRCodeDataURL string `json:"qr_code_data_url"`
}

// qrCodeSizePixels is the edge length of the generated QR image.
const qrCodeSizePixels = 200

// GenerateTOTPEnrollment creates a fresh TOTP secret for an account.
//
// # Defaults
//
// Standard authenticator parameters are used: 30-second period, 6 digits,
// SHA-1. The secret must not be persisted until the user proves possession
// by submitting one valid code.
func GenerateTOTPEnrollment(issuer, accountName string) (*TOTPEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
	})
	if err != nil {
		return nil, fmt.Errorf("sec: failed to generate totp secret: %w", err)
	}

	dataURL, err := renderQRCodeDataURL(key)
	if err != nil {
		return nil, err
	}

	return &TOTPEnrollment{
		Secret:        key.Secret(),
		OtpauthURL:    key.URL(),
		QRCodeDataURL: dataURL,
	}, nil
}

// ValidateTOTP reports whether the code is valid for the base32 secret
// within the current 30-second window (± one window of clock skew, per the
// underlying library's default tolerance).
func ValidateTOTP(code, secret string) bool {
	return totp.Validate(code, secret)
}

// renderQRCodeDataURL converts a provisioning key into an inline PNG data URL.
func renderQRCodeDataURL(key *otp.Key) (string, error) {
	image, err := key.Image(qrCodeSizePixels, qrCodeSizePixels)
	if err != nil {
		return "", fmt.Errorf("sec: failed to render totp qr code: %w", err)
	}

	var buffer bytes.Buffer
	if err := png.Encode(&buffer, image); err != nil {
		return "", fmt.Errorf("sec: failed to encode totp qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buffer.Bytes()), nil
}
