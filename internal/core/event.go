package core

// EventKind is a notification the core emits to room members.
type EventKind int

const (
	// EventMessageSent announces a new message.
	EventMessageSent EventKind = iota
	// EventMessageEdited announces new content for an existing message.
	EventMessageEdited
	// EventMessageDeleted announces that a message is gone. Only Message.ID is set.
	EventMessageDeleted
)

func (k EventKind) String() string {
	switch k {
	case EventMessageSent:
		return "send"
	case EventMessageEdited:
		return "edit"
	case EventMessageDeleted:
		return "delete"
	default:
		return "unknown"
	}
}

// Event is fanned out to every client of a room.
type Event struct {
	Kind    EventKind
	Room    string
	Message Message
}

func sentEvent(msg Message) *Event {
	msg.Edited = false
	return &Event{Kind: EventMessageSent, Room: msg.Room, Message: msg}
}

func editedEvent(msg Message) *Event {
	msg.Edited = true
	return &Event{Kind: EventMessageEdited, Room: msg.Room, Message: msg}
}

func deletedEvent(room string, id int64) *Event {
	return &Event{Kind: EventMessageDeleted, Room: room, Message: Message{ID: id, Room: room}}
}
