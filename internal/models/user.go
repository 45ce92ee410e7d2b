package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	FullName string    `json:"fullName"`

	Bio              string `json:"bio"`
	ProfilePic       string `json:"profilePic"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
	Location         string `json:"location"`
	IsOnboarded      bool   `json:"isOnboarded"`

	CreatedAt time.Time `json:"createdAt"`
}

// UserSummary is the reduced profile projection used wherever a full user
// record would leak more than the UI needs (friend cards, request lists).
type UserSummary struct {
	ID               uuid.UUID `json:"id"`
	FullName         string    `json:"fullName"`
	ProfilePic       string    `json:"profilePic"`
	NativeLanguage   string    `json:"nativeLanguage,omitempty"`
	LearningLanguage string    `json:"learningLanguage,omitempty"`
}
