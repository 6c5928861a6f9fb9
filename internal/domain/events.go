package domain

// EventKind names a class of change broadcast to connected viewers.
type EventKind string

const (
	OrdersUpdated EventKind = "orders_updated"
	MenuUpdated   EventKind = "menu_updated"
)

// Event is the wire envelope for a change notification. It carries no
// payload: receivers re-fetch the resource named by Kind.
type Event struct {
	Kind EventKind `json:"event"`
}
