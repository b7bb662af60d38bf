package blob_service

import "errors"

var (
	ErrBlobNotFound = errors.New("blob not found")
)
