package domain

type MessageKind string

const (
	MessageKindText   MessageKind = "TEXT"
	MessageKindImage  MessageKind = "IMAGE"
	MessageKindFile   MessageKind = "FILE"
	MessageKindSystem MessageKind = "SYSTEM"
)

func (k MessageKind) Valid() bool {
	switch k {
	case MessageKindText, MessageKindImage, MessageKindFile, MessageKindSystem:
		return true
	}
	return false
}

// TombstoneContent replaces the content of a soft-deleted message. The
// message itself stays in history as a deletion marker.
const TombstoneContent = "This message was deleted"
