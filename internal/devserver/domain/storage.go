package domain

import "time"

// Read permissions.
const (
	ReadNone   = 0
	ReadOwner  = 1
	ReadPublic = 2
)

// Write permissions.
const (
	WriteNone  = 0
	WriteOwner = 1
)

// VersionAbsent as an expected version only lets a write create an object.
const VersionAbsent = "*"

// StorageObject is a JSON document owned by a user.
type StorageObject struct {
	Collection      string
	Key             string
	UserID          string
	Value           string
	Version         string
	PermissionRead  int
	PermissionWrite int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StorageObjectID addresses an object. Version, when set, must match the
// stored object for the operation to apply.
type StorageObjectID struct {
	Collection string
	Key        string
	UserID     string
	Version    string
}

// StorageWrite is an object to persist with an optional version check.
type StorageWrite struct {
	Object        StorageObject
	ExpectVersion string
}
