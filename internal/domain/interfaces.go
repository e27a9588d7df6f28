package domain

import "context"

// VenueWorker defines the lifecycle of a venue connection.
type VenueWorker interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// NotificationSink receives notifications produced by the event loop.
type NotificationSink interface {
	Notify(n Notification)
}

// NotificationSinkFunc adapts a function to NotificationSink.
type NotificationSinkFunc func(Notification)

func (f NotificationSinkFunc) Notify(n Notification) { f(n) }
