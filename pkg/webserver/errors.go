package webserver

import "errors"

var (
	// ErrHeadersSent is returned when headers are changed after they were sent.
	ErrHeadersSent = errors.New("headers already sent")

	// ErrResponseFinished is returned when writing to a closed response.
	ErrResponseFinished = errors.New("response already finished")

	// ErrInvalidStatus is returned for status codes outside 100-999.
	ErrInvalidStatus = errors.New("invalid status code")

	// ErrUnknownEncoding is returned by SetEncoding for unknown encoding names.
	ErrUnknownEncoding = errors.New("unknown encoding")

	// ErrServerRunning is returned when Listen is called on a running server.
	ErrServerRunning = errors.New("server is already running")

	// ErrInvalidAddress is returned when a listen address cannot be parsed.
	ErrInvalidAddress = errors.New("invalid listen address")
)
