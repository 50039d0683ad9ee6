package recording

import "errors"

var (
	// ErrAlreadyRecording is returned by Start while a session exists
	ErrAlreadyRecording = errors.New("already recording")

	// ErrUnsupportedFormat is returned when the requested format cannot be resolved
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrAcquisitionFailed is returned when the device cannot be set up for recording
	ErrAcquisitionFailed = errors.New("cannot record on this device")

	// ErrNotRecording is returned by Stop when no session exists
	ErrNotRecording = errors.New("recording has not started")

	// ErrFetchFailed is returned by Stop when the capture left no output file
	ErrFetchFailed = errors.New("failed to fetch recording")

	// ErrEmptyRecording is returned by Stop when the output is unreadable or has no duration
	ErrEmptyRecording = errors.New("recording is empty")
)
