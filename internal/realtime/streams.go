package realtime

// Named realtime streams.
const (
	StreamNotifications = "notifications"
	StreamAssignments   = "assignments"
	StreamEvents        = "events"
)

// KnownStreams lists every stream a client may subscribe to.
var KnownStreams = []string{StreamNotifications, StreamAssignments, StreamEvents}
