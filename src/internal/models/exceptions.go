package models

import "errors"

var (
	ErrRedisConnection = errors.New("redis connection error")
	ErrRedisGet        = errors.New("redis get error")
	ErrRedisSet        = errors.New("redis set error")
	ErrRedisDelete     = errors.New("redis delete error")
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInvalid  = errors.New("session invalid")
	ErrSessionUpdating = errors.New("error updating session")
	ErrSessionDeleting = errors.New("error deleting session")
	ErrTokenMalformed  = errors.New("malformed session token")
)

var (
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
)

var (
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrInvalidResponse    = errors.New("invalid backend response")
	ErrInvalidParams      = errors.New("invalid parameters")
)
