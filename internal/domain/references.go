package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// FlexibleID accepts identifiers encoded as JSON strings or numbers and keeps
// their string form.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be string or number: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

// String returns the identifier in string form.
func (id FlexibleID) String() string {
	return string(id)
}

// FlexibleIDFromInt formats a numeric identifier.
func FlexibleIDFromInt(n int64) FlexibleID {
	return FlexibleID(strconv.FormatInt(n, 10))
}

// ClientRef is a customer linked to a draft, together with the profile used to
// seed the contact fields.
type ClientRef struct {
	ID               FlexibleID `json:"id"`
	FirstName        string     `json:"firstName,omitempty"`
	LastName         string     `json:"lastName,omitempty"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	MembershipID     string     `json:"membershipId,omitempty"`
	MembershipStatus string     `json:"membershipStatus,omitempty"`
}

// FullName joins first and last name.
func (c ClientRef) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// SessionRef is a class session linked to a draft.
type SessionRef struct {
	ID       FlexibleID `json:"id"`
	Name     string     `json:"name,omitempty"`
	Trainer  string     `json:"trainer,omitempty"`
	StartsAt *time.Time `json:"startsAt,omitempty"`
}

// Attachment references an uploaded file.
type Attachment struct {
	FileName   string `json:"fileName"`
	MimeType   string `json:"mimeType,omitempty"`
	SizeBytes  int64  `json:"sizeBytes,omitempty"`
	StorageKey string `json:"storageKey,omitempty"`
}
