package events

import "encoding/json"

// Event name constants
const (
	// DisplayUpdate carries the full engine state after every action.
	DisplayUpdate = "display.update"
	// DisplayBlink blanks the display. It is followed by DisplayRestore unless
	// a newer DisplayUpdate comes first.
	DisplayBlink = "display.blink"
	// DisplayRestore puts the computed text back after a blink.
	DisplayRestore = "display.restore"
	// UIFocus moves keyboard focus to a control.
	UIFocus = "ui.focus"
	// OperationHighlight marks an operation button as active.
	OperationHighlight = "operation.highlight"
	// OperationRelease removes any operation highlight.
	OperationRelease = "operation.release"
	// KeyPress and KeyRelease flash the pressed button.
	KeyPress   = "key.press"
	KeyRelease = "key.release"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// DisplayEvent is the payload of display.blink and display.restore.
type DisplayEvent struct {
	Text string `json:"text"`
}

// FocusEvent is the payload of ui.focus.
type FocusEvent struct {
	Target string `json:"target"`
}

// OperationEvent is the payload of operation.highlight and operation.release.
type OperationEvent struct {
	Operation string `json:"operation,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
}

// KeyEvent is the payload of key.press and key.release.
type KeyEvent struct {
	Key string `json:"key"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.DisplayEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Text)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
