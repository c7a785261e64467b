package credentials

import "errors"

var (
	ErrConfigFileNotFound     = errors.New("API config file not found")
	ErrFailedToReadConfigFile = errors.New("failed to read API config file")
	ErrProfileNotFound        = errors.New("API profile not found")
	ErrMissingProfileKeys     = errors.New("API profile is missing required keys")
)
