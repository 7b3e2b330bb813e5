// Package model defines the data structures shared by the client and the host.
//
// The wire format follows the host's JSON contract: categories travel as a single
// comma-joined string, ids may arrive as numbers or strings, and timestamps are
// RFC 3339 with millisecond precision.
package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DeviceSourceTerminal is the provenance tag stamped on snippets created by this client.
const DeviceSourceTerminal = "terminal"

// TimeLayout is the timestamp layout used on the wire.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ID identifies a snippet on the host. The zero value means "not created yet".
//
// Hosts key snippets either by integer or by opaque string. ID accepts both and
// echoes digit-only ids back as JSON numbers so integer-keyed hosts accept them.
type ID string

// IsZero reports whether the snippet has never been created on the host.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

func (id ID) String() string { return string(id) }

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if isNumericID(s) {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func isNumericID(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 63)
	return err == nil
}

// Snippet is the sole persisted entity.
//
// Description is the short title; FullDescription is the long-form text. The
// naming mirrors the host contract.
type Snippet struct {
	ID                   ID
	Description          string
	FullDescription      string
	CodeContent          string
	MediaPaths           []string
	FirstMediaURL        string // derived by the host, read-only
	Categories           []string
	CreationDate         time.Time
	LastModificationDate time.Time
	DeviceSource         string
}

// Blank returns the payload used to obtain an id for a brand-new snippet.
func Blank(now time.Time) Snippet {
	now = now.UTC()
	return Snippet{
		MediaPaths:           []string{},
		CreationDate:         now,
		LastModificationDate: now,
		DeviceSource:         DeviceSourceTerminal,
	}
}

// Clone returns a deep copy so callers never share slices with the owner.
func (s Snippet) Clone() Snippet {
	out := s
	out.MediaPaths = append([]string(nil), s.MediaPaths...)
	if out.MediaPaths == nil {
		out.MediaPaths = []string{}
	}
	out.Categories = append([]string(nil), s.Categories...)
	return out
}

// HasMedia reports whether at least one attachment exists.
func (s Snippet) HasMedia() bool { return len(s.MediaPaths) > 0 }

// IsBlank reports whether every user-editable part of the snippet is empty.
// A snippet with media is never blank, even with no text.
func (s Snippet) IsBlank() bool {
	return s.Description == "" &&
		s.FullDescription == "" &&
		s.CodeContent == "" &&
		!s.HasMedia()
}

// wireSnippet is the JSON shape exchanged with the host.
type wireSnippet struct {
	ID                   ID       `json:"id,omitempty"`
	Description          string   `json:"description"`
	FullDescription      *string  `json:"fullDescription"`
	CodeContent          *string  `json:"codeContent"`
	MediaPaths           []string `json:"mediaPaths"`
	FirstMediaURL        string   `json:"firstMediaUrl,omitempty"`
	Categories           string   `json:"categories"`
	CreationDate         wireTime `json:"creationDate"`
	LastModificationDate wireTime `json:"lastModificationDate"`
	DeviceSource         string   `json:"deviceSource"`
}

// MarshalJSON implements json.Marshaler.
func (s Snippet) MarshalJSON() ([]byte, error) {
	media := s.MediaPaths
	if media == nil {
		media = []string{}
	}
	full, code := s.FullDescription, s.CodeContent
	return json.Marshal(wireSnippet{
		ID:                   s.ID,
		Description:          s.Description,
		FullDescription:      &full,
		CodeContent:          &code,
		MediaPaths:           media,
		FirstMediaURL:        s.FirstMediaURL,
		Categories:           JoinCategories(s.Categories),
		CreationDate:         wireTime(s.CreationDate),
		LastModificationDate: wireTime(s.LastModificationDate),
		DeviceSource:         s.DeviceSource,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Snippet) UnmarshalJSON(data []byte) error {
	var w wireSnippet
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Snippet{
		ID:                   w.ID,
		Description:          w.Description,
		MediaPaths:           w.MediaPaths,
		FirstMediaURL:        w.FirstMediaURL,
		Categories:           SplitCategories(w.Categories),
		CreationDate:         time.Time(w.CreationDate),
		LastModificationDate: time.Time(w.LastModificationDate),
		DeviceSource:         w.DeviceSource,
	}
	if w.FullDescription != nil {
		s.FullDescription = *w.FullDescription
	}
	if w.CodeContent != nil {
		s.CodeContent = *w.CodeContent
	}
	if s.MediaPaths == nil {
		s.MediaPaths = []string{}
	}
	return nil
}

// SplitCategories turns the wire form "a, b,,c" into ["a" "b" "c"].
func SplitCategories(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinCategories is the inverse of SplitCategories.
func JoinCategories(cats []string) string {
	clean := make([]string, 0, len(cats))
	for _, c := range cats {
		if c = strings.TrimSpace(c); c != "" {
			clean = append(clean, c)
		}
	}
	return strings.Join(clean, ",")
}

// wireTime encodes as TimeLayout and decodes RFC 3339 with or without fractions.
type wireTime time.Time

func (t wireTime) MarshalJSON() ([]byte, error) {
	tt := time.Time(t)
	if tt.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(tt.UTC().Format(TimeLayout))
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = wireTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Some hosts send epoch milliseconds.
		var ms int64
		if errNum := json.Unmarshal(data, &ms); errNum != nil {
			return err
		}
		*t = wireTime(time.UnixMilli(ms).UTC())
		return nil
	}
	if s == "" {
		*t = wireTime{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = wireTime(parsed.UTC())
	return nil
}
