package domain

import "time"

// Account is a player account and the identities linked to it.
type Account struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
	LangTag     string
	Location    string
	Timezone    string
	Metadata    string

	Email        string
	PasswordHash string // argon2id
	CustomID     string
	DeviceIDs    []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountUpdate carries the profile fields to change. Nil means unchanged.
type AccountUpdate struct {
	Username    *string
	DisplayName *string
	AvatarURL   *string
	LangTag     *string
	Location    *string
	Timezone    *string
}
