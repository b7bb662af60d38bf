package blob_store

import "errors"

var (
	ErrBlobNotFound = errors.New("blob content not found")
)
