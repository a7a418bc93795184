package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a session id resolves to nothing.
	ErrSessionNotFound = errors.New("session not found")

	// ErrJobNotFound is returned when a job cannot be found in the database.
	ErrJobNotFound = errors.New("job not found")

	// ErrUnresolvableSource is returned when a media URL yields no usable
	// title, duration or audio stream. Fatal to the job.
	ErrUnresolvableSource = errors.New("source could not be resolved")
)
