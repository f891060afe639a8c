package repository

import "errors"

// ErrDBNotReady is returned by every repository built without a connection.
var ErrDBNotReady = errors.New("database not initialized")
