package core

// ActionKind describes what a streaming client wants to do.
type ActionKind int

const (
	// ActionUnknown is ignored.
	ActionUnknown ActionKind = iota
	// ActionSend posts a new message.
	ActionSend
	// ActionEdit replaces the content of the client's own message.
	ActionEdit
	// ActionDelete removes the client's own message.
	ActionDelete
)

// ParseActionKind maps the wire name; an empty name means send.
func ParseActionKind(name string) ActionKind {
	switch name {
	case "", "send":
		return ActionSend
	case "edit":
		return ActionEdit
	case "delete":
		return ActionDelete
	default:
		return ActionUnknown
	}
}

func (k ActionKind) String() string {
	switch k {
	case ActionSend:
		return "send"
	case ActionEdit:
		return "edit"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Action is one inbound request on a live connection.
type Action struct {
	Kind      ActionKind
	MessageID int64
	Content   string
}
