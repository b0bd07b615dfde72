package port

import "context"

// Store is the contract for the external asset store holding attachments and
// avatars. Keys double as the locators persisted inside message content and
// chat avatar fields; serving the bytes back to browsers is not this
// service's concern.
type Store interface {
	// Put writes the object under key. The write must complete before any
	// record referencing the key is created.
	Put(ctx context.Context, key string, contentType string, data []byte) error

	// Remove releases the object. Missing keys are not an error.
	Remove(ctx context.Context, key string) error
}
