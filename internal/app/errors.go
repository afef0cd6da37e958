package app

import "errors"

var (
	ErrNotFound        = errors.New("resource not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrExternalService = errors.New("external service failure")
	ErrNoChunks        = errors.New("no chunks found for retrieval")
)
