package models

import "time"

// OTPPurpose scopes a one-time password to a flow.
type OTPPurpose string

const (
	OTPPurposePasswordReset OTPPurpose = "password-reset"
)

// OTP is a hashed one-time password for an identifier.
type OTP struct {
	Identifier string     `json:"identifier" db:"identifier" bson:"identifier"`
	CodeHash   string     `json:"-" db:"code_hash" bson:"codeHash"`
	Purpose    OTPPurpose `json:"purpose" db:"purpose" bson:"purpose"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at" bson:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt" db:"expires_at" bson:"expiresAt"`
	// Failed verification attempts against this code
	Attempts int `json:"attempts" db:"attempts" bson:"attempts"`
}

// Expired reports whether the code is past its expiry at now.
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
