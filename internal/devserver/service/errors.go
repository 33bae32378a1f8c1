package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountNotFound    = errors.New("account_not_found")
	ErrUsernameTaken      = errors.New("username_taken")
	ErrInvalidSession     = errors.New("invalid_session")
	ErrVersionMismatch    = errors.New("version_mismatch")
	ErrPermissionDenied   = errors.New("permission_denied")
	ErrRPCNotFound        = errors.New("rpc_not_found")
)
