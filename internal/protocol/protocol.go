package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MethodMessage is the single JSON-RPC method every request travels on.
// The action inside the message selects the operation.
const MethodMessage = "sendMessage"

// Request actions
const (
	ActionGetStorage                    = "getStorage"
	ActionSetStorage                    = "setStorage"
	ActionRemoveStorage                 = "removeStorage"
	ActionGetCurrentLocale              = "getCurrentLocale"
	ActionSetLocale                     = "setLocale"
	ActionCacheNovelForSession          = "cacheNovelForSession"
	ActionGetNovelLinesFromSessionCache = "getNovelLinesFromSessionCache"
	ActionClearNovelSessionCache        = "clearNovelSessionCache"
)

// Broadcast actions, sent as notifications with no response
const (
	ActionLocaleChanged     = "localeChanged"
	ActionNovelLinesUpdated = "novelLinesUpdated"
)

// Persisted keys in the durable store
const (
	KeyPreferredLocale = "preferredLocale"
	KeyIsVisible       = "isVisible"
	KeyReaderSettings  = "readerSettings"
	KeyCurrentLine     = "currentLine"
	KeyReaderPosition  = "readerPosition"
	KeyFileName        = "fileName"
	KeyFileEncoding    = "fileEncoding"
)

// Message is a tagged request. Action selects the operation, the other
// fields are operation specific payload.
type Message struct {
	Action   string          `json:"action"`
	Key      string          `json:"key,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	Lines    []string        `json:"lines"`
	FileName *string         `json:"fileName,omitempty"`
}

// Response answers exactly one Message.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// OK builds a successful response carrying data.
func OK(data any) (Response, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Response{}, fmt.Errorf("encode response data: %w", err)
	}
	return Response{Success: true, Data: raw}, nil
}

// Fail builds an error response. The error text is carried verbatim.
func Fail(err error) Response {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Response{Success: false, Error: msg}
}

// Decode unmarshals the response data into v. A missing or null payload
// leaves v untouched and reports false.
func (r Response) Decode(v any) (bool, error) {
	if !r.Success {
		return false, errors.New(r.Error)
	}
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return false, fmt.Errorf("decode response data: %w", err)
	}
	return true, nil
}

// SessionLines is the session cache snapshot. Both fields are null when
// nothing is loaded.
type SessionLines struct {
	Lines    []string `json:"lines"`
	FileName *string  `json:"fileName"`
}

// Loaded reports whether the snapshot carries a document.
func (s SessionLines) Loaded() bool {
	return s.Lines != nil
}

// Notification is an unsolicited broadcast from the owning process.
type Notification struct {
	Action   string   `json:"action"`
	Locale   string   `json:"locale,omitempty"`
	Lines    []string `json:"lines,omitempty"`
	FileName string   `json:"fileName,omitempty"`
}

// MarshalJSON writes lines only for novelLinesUpdated, where an empty
// document goes out as [] rather than being left off
func (n Notification) MarshalJSON() ([]byte, error) {
	type plain Notification
	if n.Action != ActionNovelLinesUpdated {
		n.Lines = nil
		return json.Marshal(plain(n))
	}
	lines := n.Lines
	if lines == nil {
		lines = []string{}
	}
	return json.Marshal(struct {
		plain
		Lines []string `json:"lines"`
	}{plain(n), lines})
}

// Position is the overlay offset stored under KeyReaderPosition.
type Position struct {
	Left int `json:"left"`
	Top  int `json:"top"`
}

// UnmarshalJSON accepts numbers or CSS pixel strings ("10px")
func (p *Position) UnmarshalJSON(b []byte) error {
	var raw struct {
		Left json.RawMessage `json:"left"`
		Top  json.RawMessage `json:"top"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	left, err := pixels(raw.Left)
	if err != nil {
		return fmt.Errorf("left: %w", err)
	}
	top, err := pixels(raw.Top)
	if err != nil {
		return fmt.Errorf("top: %w", err)
	}
	p.Left, p.Top = left, top
	return nil
}

func pixels(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(math.Round(f)), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a pixel value: %q", s)
	}
	return int(math.Round(f)), nil
}
