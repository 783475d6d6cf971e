package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/TimelordUK/novelreader/internal/protocol"
)

// Record is the presentation record stored under readerSettings
type Record struct {
	FontFamily           string     `json:"fontFamily"`
	FontSize             FontSize   `json:"fontSize"`
	LineHeight           LineHeight `json:"lineHeight"`
	TextColor            string     `json:"textColor"`
	Opacity              float64    `json:"opacity"`
	HoverOpacity         float64    `json:"hoverOpacity"`
	TextShadow           bool       `json:"textShadow"`
	MaxWidth             int        `json:"maxWidth"` // percent of the screen
	BackgroundColor      string     `json:"backgroundColor"`
	HoverBackgroundColor string     `json:"hoverBackgroundColor"`
}

// Defaults returns the record used when nothing is stored
func Defaults() Record {
	return Record{
		FontFamily:           "Arial",
		FontSize:             14,
		LineHeight:           1.5,
		TextColor:            "#000000",
		Opacity:              0.85,
		HoverOpacity:         0.95,
		TextShadow:           true,
		MaxWidth:             50,
		BackgroundColor:      "rgba(255, 255, 255, 0.85)",
		HoverBackgroundColor: "rgba(255, 255, 255, 0.95)",
	}
}

// Validate checks ranges and colours
func (r Record) Validate() error {
	if r.FontSize < 1 || r.FontSize > 200 {
		return fmt.Errorf("fontSize %d out of range", r.FontSize)
	}
	if r.LineHeight <= 0 {
		return fmt.Errorf("lineHeight must be positive")
	}
	if r.Opacity < 0 || r.Opacity > 1 || r.HoverOpacity < 0 || r.HoverOpacity > 1 {
		return fmt.Errorf("opacity must be between 0 and 1")
	}
	if r.MaxWidth < 1 || r.MaxWidth > 100 {
		return fmt.Errorf("maxWidth %d out of range", r.MaxWidth)
	}
	for name, c := range map[string]string{
		"textColor":            r.TextColor,
		"backgroundColor":      r.BackgroundColor,
		"hoverBackgroundColor": r.HoverBackgroundColor,
	} {
		if _, err := ParseColor(c); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// FontSize is in pixels. Stored as a number; "14px" is accepted on read.
type FontSize int

func (f *FontSize) UnmarshalJSON(b []byte) error {
	v, err := flexibleNumber(b, "px")
	if err != nil {
		return fmt.Errorf("fontSize: %w", err)
	}
	if v != nil {
		*f = FontSize(int(*v))
	}
	return nil
}

// LineHeight is a multiplier. Stored as a number; "1.5" is accepted on read.
type LineHeight float64

func (l *LineHeight) UnmarshalJSON(b []byte) error {
	v, err := flexibleNumber(b, "")
	if err != nil {
		return fmt.Errorf("lineHeight: %w", err)
	}
	if v != nil {
		*l = LineHeight(*v)
	}
	return nil
}

// flexibleNumber reads a JSON number or numeric string. null leaves the
// value alone.
func flexibleNumber(b []byte, unit string) (*float64, error) {
	if string(b) == "null" {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if unit != "" {
		s = strings.TrimSpace(strings.TrimSuffix(s, unit))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return &f, nil
}

// Storage is the part of the router client settings need
type Storage interface {
	GetStorage(ctx context.Context, key string, out any) (bool, error)
	SetStorage(ctx context.Context, key string, value any) error
}

// Load returns the stored record merged over the defaults
func Load(ctx context.Context, s Storage) (Record, error) {
	rec := Defaults()
	if _, err := s.GetStorage(ctx, protocol.KeyReaderSettings, &rec); err != nil {
		return Defaults(), err
	}
	return rec, nil
}

// Save validates and stores the record
func Save(ctx context.Context, s Storage, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return s.SetStorage(ctx, protocol.KeyReaderSettings, rec)
}
