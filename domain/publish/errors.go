package publish

import "errors"

var (
	// ErrNoCreationID is returned when the create step response has no container id
	ErrNoCreationID = errors.New("create response has no creation id")

	// ErrContainerNotReady is returned when the container is still processing after the last poll
	ErrContainerNotReady = errors.New("media container not ready")

	// ErrContainerFailed is returned when the platform reports the container as failed or expired
	ErrContainerFailed = errors.New("media container processing failed")

	// ErrPublishRejected is returned when the publish step response has no post id
	ErrPublishRejected = errors.New("publish response has no post id")
)
