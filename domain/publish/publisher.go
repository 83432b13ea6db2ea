package publish

import "context"

// MediaTypeReels is the Graph API media type for short-form video posts
const MediaTypeReels = "REELS"

// DefaultCaption credits the source account on every republished video
const DefaultCaption = "Автор: @_from_tiktok"

// Result contains the identifiers returned by a successful publish
type Result struct {
	CreationID string // Media container ID returned by the create step
	PostID     string // Published media ID returned by the publish step
}

// Publisher defines the interface for posting a local video as a Reel
// This is a port that can be implemented by different infrastructure adapters
type Publisher interface {
	// Publish uploads the video, waits for the container and publishes it
	Publish(ctx context.Context, path, caption string) (*Result, error)
}

// ContainerStatus is the processing state of an uploaded media container
type ContainerStatus string

const (
	StatusInProgress ContainerStatus = "IN_PROGRESS"
	StatusFinished   ContainerStatus = "FINISHED"
	StatusPublished  ContainerStatus = "PUBLISHED"
	StatusError      ContainerStatus = "ERROR"
	StatusExpired    ContainerStatus = "EXPIRED"
)

// Ready reports whether a container in this state can be published
func (s ContainerStatus) Ready() bool {
	return s == StatusFinished || s == StatusPublished
}

// Failed reports whether the container can never become publishable
func (s ContainerStatus) Failed() bool {
	return s == StatusError || s == StatusExpired
}
