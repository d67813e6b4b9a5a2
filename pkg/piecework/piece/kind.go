package piece

import (
	"fmt"
	"strings"
)

// Kind tags the variant a piece belongs to.
type Kind int

// Piece kinds.
const (
	KindCommand Kind = iota + 1
	KindEventHandler
	KindMonitor
	KindTask
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindEventHandler:
		return "event"
	case KindMonitor:
		return "monitor"
	case KindTask:
		return "task"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name as written in piece definitions.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "command":
		return KindCommand, nil
	case "event", "event-handler", "eventhandler":
		return KindEventHandler, nil
	case "monitor":
		return KindMonitor, nil
	case "task":
		return KindTask, nil
	default:
		return 0, fmt.Errorf("unknown piece kind %q", s)
	}
}
