package domain

import "time"

// AccountType distinguishes the two account tables of the marketplace.
type AccountType string

const (
	AccountUser     AccountType = "user"
	AccountPromotor AccountType = "promotor"
)

// Valid reports whether t names a known account table.
func (t AccountType) Valid() bool {
	return t == AccountUser || t == AccountPromotor
}

// Account is a User or Promotor credential record. Promotors keep their
// display name in Username.
type Account struct {
	ID           int64       `json:"id"`
	Type         AccountType `json:"type"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	IsVerified   bool        `json:"isVerified"`
	RefCode      string      `json:"refCode,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Sanitized returns a copy without the password hash.
func (a *Account) Sanitized() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.PasswordHash = ""
	return &clone
}
