package service

import "errors"

var (
	ErrNoLicense           = errors.New("no valid license")
	ErrDeviceLimit         = errors.New("active device limit reached")
	ErrFingerprintConflict = errors.New("device already registered to another user")
	ErrDeviceRemoved       = errors.New("device was removed and cannot be registered again")
	ErrNotFound            = errors.New("record not found")
	ErrNotOwner            = errors.New("caller does not own this device")
	ErrInvalidInput        = errors.New("invalid input")
)
