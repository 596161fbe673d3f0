package users

import "time"

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"

	PlanFree = "free"
	PlanPro  = "pro"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PictureURL   string    `json:"pictureUrl"`
	PasswordHash string    `json:"-"`
	Plan         string    `json:"plan"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
