package peak

import "errors"

// Peak model errors.
var (
	ErrDuplicateName    = errors.New("peak: duplicate peak list name")
	ErrEmptyName        = errors.New("peak: empty peak list name")
	ErrUnknownList      = errors.New("peak: unknown peak list")
	ErrInvalidDimension = errors.New("peak: invalid dimension")
	ErrInvalidRegion    = errors.New("peak: invalid region")
	ErrPeakIDInUse      = errors.New("peak: peak id already used")
	ErrListRemoved      = errors.New("peak: peak list no longer registered")
)
