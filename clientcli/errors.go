package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// ErrConfigRequired is returned by New when no config is given.
var ErrConfigRequired = errors.New("config is required")

// Errors for input validation.
var (
	ErrNoPaths   = errors.New("no paths provided")
	ErrEmptyPath = errors.New("path is required")
	ErrEmptyFile = errors.New("empty files cannot be uploaded")
)

// Errors for responses that do not match the requested operation.
var (
	ErrIsDirectory  = errors.New("remote path is a directory")
	ErrNotDirectory = errors.New("remote path is not a directory")
)

// ErrNotShelfServer is returned by Client.CheckServer.
var ErrNotShelfServer = errors.New("endpoint is not a shelf server")
