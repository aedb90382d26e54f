package services

import "errors"

// Dataset service errors
var (
	ErrNoBuild        = errors.New("no deck build has completed yet")
	ErrBuildCancelled = errors.New("deck build cancelled")
)
