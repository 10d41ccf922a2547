package nm

import "errors"

var (
	// ErrNotFound reports that the locator matched nothing. Wrapped values
	// name what was asked for.
	ErrNotFound = errors.New("not found")
	// ErrDecode reports a remote value that did not have the expected shape.
	ErrDecode = errors.New("unexpected wire value")
)
