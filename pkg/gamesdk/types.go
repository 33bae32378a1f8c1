package gamesdk

import "time"

// ============================================================================
// Authentication
// ============================================================================

// AccountDevice authenticates with a device identifier.
type AccountDevice struct {
	ID   string            `json:"id" validate:"required,min=10,max=128"`
	Vars map[string]string `json:"vars,omitempty"`
}

// AccountEmail authenticates with an email and password.
type AccountEmail struct {
	Email    string            `json:"email" validate:"required,email,max=255"`
	Password string            `json:"password" validate:"required,min=8,max=128"`
	Vars     map[string]string `json:"vars,omitempty"`
}

// AccountCustom authenticates with an identifier from an external system.
type AccountCustom struct {
	ID   string            `json:"id" validate:"required,min=6,max=128"`
	Vars map[string]string `json:"vars,omitempty"`
}

// sessionResponse is returned by authenticate and refresh calls.
type sessionResponse struct {
	Created      bool   `json:"created"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type sessionRefreshRequest struct {
	Token string            `json:"token" validate:"required"`
	Vars  map[string]string `json:"vars,omitempty"`
}

type sessionLogoutRequest struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ============================================================================
// Accounts
// ============================================================================

// User is the public profile of an account.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	LangTag     string    `json:"lang_tag,omitempty"`
	Location    string    `json:"location,omitempty"`
	Timezone    string    `json:"timezone,omitempty"`
	Metadata    string    `json:"metadata,omitempty"`
	Online      bool      `json:"online"`
	CreateTime  time.Time `json:"create_time"`
	UpdateTime  time.Time `json:"update_time"`
}

// Account is the full record of the authenticated user.
type Account struct {
	User     User     `json:"user"`
	Wallet   string   `json:"wallet,omitempty"`
	Email    string   `json:"email,omitempty"`
	CustomID string   `json:"custom_id,omitempty"`
	Devices  []string `json:"devices,omitempty"`
}

// UpdateAccountRequest changes profile fields. Nil fields are left as they
// are.
type UpdateAccountRequest struct {
	Username    *string `json:"username,omitempty" validate:"omitempty,min=1,max=128"`
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=255"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url,max=512"`
	LangTag     *string `json:"lang_tag,omitempty" validate:"omitempty,bcp47_language_tag"`
	Location    *string `json:"location,omitempty" validate:"omitempty,max=255"`
	Timezone    *string `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// ============================================================================
// RPC
// ============================================================================

// RPCResult is the response of a server function.
type RPCResult struct {
	ID      string `json:"id"`
	Payload string `json:"payload,omitempty"`
}

// ============================================================================
// Storage
// ============================================================================

// Storage permissions.
const (
	ReadNone   = 0
	ReadOwner  = 1
	ReadPublic = 2

	WriteNone  = 0
	WriteOwner = 1
)

// WriteStorageObject is an object to store. Value must be a JSON object.
type WriteStorageObject struct {
	Collection      string `json:"collection" validate:"required,max=128"`
	Key             string `json:"key" validate:"required,max=128"`
	Value           string `json:"value" validate:"required,json"`
	Version         string `json:"version,omitempty"`
	PermissionRead  int    `json:"permission_read" validate:"min=0,max=2"`
	PermissionWrite int    `json:"permission_write" validate:"min=0,max=1"`
}

// StorageObjectID addresses a stored object.
type StorageObjectID struct {
	Collection string `json:"collection" validate:"required,max=128"`
	Key        string `json:"key" validate:"required,max=128"`
	UserID     string `json:"user_id,omitempty"`
	Version    string `json:"version,omitempty"`
}

// StorageObjectAck confirms a write.
type StorageObjectAck struct {
	Collection string `json:"collection"`
	Key        string `json:"key"`
	Version    string `json:"version"`
	UserID     string `json:"user_id"`
}

// StorageObject is a stored object.
type StorageObject struct {
	Collection      string    `json:"collection"`
	Key             string    `json:"key"`
	UserID          string    `json:"user_id"`
	Value           string    `json:"value"`
	Version         string    `json:"version"`
	PermissionRead  int       `json:"permission_read"`
	PermissionWrite int       `json:"permission_write"`
	CreateTime      time.Time `json:"create_time"`
	UpdateTime      time.Time `json:"update_time"`
}

type writeStorageObjectsRequest struct {
	Objects []WriteStorageObject `json:"objects" validate:"required,min=1,max=100,dive"`
}

type storageObjectAcks struct {
	Acks []StorageObjectAck `json:"acks"`
}

type storageObjectIDsRequest struct {
	ObjectIDs []StorageObjectID `json:"object_ids" validate:"required,min=1,max=100,dive"`
}

type storageObjects struct {
	Objects []StorageObject `json:"objects"`
}
