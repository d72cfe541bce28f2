package model

import "time"

// User is the sole persisted account entity. Email is the login identifier
// and PasswordHash only ever holds the bcrypt form of the password.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash   string    `gorm:"size:255;not null" json:"-"`
	FirstName      string    `gorm:"size:64;not null" json:"first_name"`
	LastName       string    `gorm:"size:64;not null" json:"last_name"`
	AccountCreated time.Time `gorm:"column:account_created;autoCreateTime" json:"account_created"`
	AccountUpdated time.Time `gorm:"column:account_updated;autoCreateTime" json:"account_updated"`
}

// Safe returns the client-facing projection of the record. The password
// hash is excluded here and by the json:"-" tag above.
func (u *User) Safe() map[string]any {
	return map[string]any{
		"id":              u.ID,
		"email":           u.Email,
		"first_name":      u.FirstName,
		"last_name":       u.LastName,
		"account_created": u.AccountCreated,
		"account_updated": u.AccountUpdated,
	}
}
