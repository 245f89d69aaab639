package entity

import "time"

type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}
