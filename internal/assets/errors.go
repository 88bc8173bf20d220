package assets

import "errors"

var (
	errEmptyModel  = errors.New("model has no nodes")
	ErrUnsupported = errors.New("unsupported asset type")
)
