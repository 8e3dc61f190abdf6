package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Line is a phone line assigned to a user.
type Line struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Number string `json:"number,omitempty"`
}

// User is an account member as returned by the users API.
type User struct {
	UserKey string `json:"userKey"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Lines   []Line `json:"lines,omitempty"`
}

// DisplayName is the label used in the nurse selector: the first line name,
// then the user name, then a short form of the user key.
func (u User) DisplayName() string {
	if len(u.Lines) > 0 && u.Lines[0].Name != "" {
		return u.Lines[0].Name
	}
	if u.Name != "" {
		return u.Name
	}
	key := u.UserKey
	if len(key) > 6 {
		key = key[:6]
	}
	return "User " + key
}

// Label is the nurse name attached to calls in the all-nurses view.
func (u User) Label() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return "Unknown"
	}
}

// HasLines reports whether the user has at least one phone line.
func (u User) HasLines() bool {
	return len(u.Lines) > 0
}

// Matches reports whether q appears, case-insensitively, in any of the
// user's identifying fields.
func (u User) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return false
	}
	fields := []string{u.UserKey, u.Name, u.Email}
	for _, l := range u.Lines {
		fields = append(fields, l.Name, l.Number)
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Party is one end of a call. The provider sometimes sends a bare string
// instead of an object; those decode to an empty Party.
type Party struct {
	Number string `json:"number,omitempty"`
	Name   string `json:"name,omitempty"`
}

func (p *Party) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		*p = Party{}
		return nil
	}
	type alias Party
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		*p = Party{}
		return nil
	}
	*p = Party(a)
	return nil
}

// Millis is a call duration in milliseconds. Non-numeric values decode as
// invalid rather than failing the whole page.
type Millis struct {
	Value float64
	Valid bool
}

func (m *Millis) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*m = Millis{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*m = Millis{}
		return nil
	}
	*m = Millis{Value: v, Valid: true}
	return nil
}

func (m Millis) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, m.Value, 'f', -1, 64), nil
}

// Call is a single call-history record.
type Call struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime,omitempty"`
	Duration  Millis `json:"duration"`
	Direction string `json:"direction,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Caller    *Party `json:"caller,omitempty"`
	Callee    *Party `json:"callee,omitempty"`
}

const (
	DirectionInbound  = "INBOUND"
	DirectionOutbound = "OUTBOUND"
	DirectionUnknown  = "UNKNOWN"
)
