package protocol

import "fmt"

// Code identifies a command (client to server) or an event (server to client)
type Code int32

// Commands
const (
	CmdHello Code = iota + 1
	CmdTerminate
	CmdStepContinue
	CmdStepPause
	CmdStepIn
	CmdStepOver
	CmdStepOut

	CmdLocationUpdate Code = 11

	// WParam is the file id
	CmdSource Code = 21

	CmdListUpdate Code = 31
	// WParam is the object id
	CmdListToggleExpand Code = 32
	// WParam is the object id
	CmdListDetails Code = 33
	// The client dropped its rows; the next list update inserts every row
	CmdListReset Code = 34
)

// Events
const (
	// Text is the protocol version
	EvHelloOK Code = iota + 1001
	EvShutdown
	// Text is the appended log text
	EvLogMessage
	// WParam is the file id, LParam the 0-based line
	EvStopped
	// WParam is the file id, LParam the 0-based line
	EvLocation

	// WParam is the file id, Text the full path
	EvSourcePath Code = 1021
	// WParam is the file id, Text the content
	EvSourceCode Code = 1022

	// Text is the encoded delta list
	EvListUpdateOK Code = 1031
	// WParam is the object id, Text the rendered details
	EvListDetailsOK Code = 1032
)

var codeNames = map[Code]string{
	CmdHello:            "hello",
	CmdTerminate:        "terminate",
	CmdStepContinue:     "step_continue",
	CmdStepPause:        "step_pause",
	CmdStepIn:           "step_in",
	CmdStepOver:         "step_over",
	CmdStepOut:          "step_out",
	CmdLocationUpdate:   "location_update",
	CmdSource:           "source",
	CmdListUpdate:       "list_update",
	CmdListToggleExpand: "list_toggle_expand",
	CmdListDetails:      "list_details",
	CmdListReset:        "list_reset",

	EvHelloOK:       "hello_ok",
	EvShutdown:      "shutdown",
	EvLogMessage:    "logmes",
	EvStopped:       "stopped",
	EvLocation:      "location",
	EvSourcePath:    "source_path",
	EvSourceCode:    "source_code",
	EvListUpdateOK:  "list_update_ok",
	EvListDetailsOK: "list_details_ok",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int32(c))
}

func (c Code) Known() bool {
	_, ok := codeNames[c]
	return ok
}

func (c Code) IsEvent() bool {
	return c > 1000
}

// Message is one command or event
type Message struct {
	Code   Code
	WParam int32
	LParam int32
	Text   string
}

func (m Message) String() string {
	return fmt.Sprintf("%s(%d, %d, %d bytes)", m.Code, m.WParam, m.LParam, len(m.Text))
}

func Command(code Code, wparam int32) Message {
	return Message{Code: code, WParam: wparam}
}

func Event(code Code, wparam, lparam int32, text string) Message {
	return Message{Code: code, WParam: wparam, LParam: lparam, Text: text}
}
