package event

import (
	"strings"
)

// UpdateType is the kind of change reported for an object
type UpdateType string

const (
	UpdateTypeCreate UpdateType = "CREATE"
	UpdateTypeUpdate UpdateType = "UPDATE"
	UpdateTypeDelete UpdateType = "DELETE"
)

// String returns the string representation of the update type
func (t UpdateType) String() string {
	return string(t)
}

// IsValid checks if the update type is one of the defined constants
func (t UpdateType) IsValid() bool {
	switch t {
	case UpdateTypeCreate, UpdateTypeUpdate, UpdateTypeDelete:
		return true
	default:
		return false
	}
}

// Update describes a single object change for a merchant
type Update struct {
	ObjectRef string     `json:"objectId"` // "<ObjectTypeCode>:<objectId>"
	Type      UpdateType `json:"type"`
	Timestamp string     `json:"ts"` // milliseconds since epoch
}

// Event is a parsed webhook notification.
// Handlers receive it by pointer but must treat it as read-only.
type Event struct {
	// DeliveryID is assigned on receipt and only used for log correlation
	DeliveryID       string              `json:"-"`
	AppID            string              `json:"appId"`
	VerificationCode string              `json:"verificationCode,omitempty"`
	Merchants        map[string][]Update `json:"merchants"`
}

// HasVerificationCode reports whether the event carries a verification code
func (e *Event) HasVerificationCode() bool {
	return e.VerificationCode != ""
}

// HasMerchants reports whether the event carries any merchant updates
func (e *Event) HasMerchants() bool {
	return len(e.Merchants) > 0
}

// UpdateCount returns the total number of updates across all merchants
func (e *Event) UpdateCount() int {
	n := 0
	for _, updates := range e.Merchants {
		n += len(updates)
	}
	return n
}

// ObjectRef is a decoded "<ObjectTypeCode>:<objectId>" reference
type ObjectRef struct {
	Type ObjectType
	ID   string
}

// ParseObjectRef splits raw on its first colon into a type code and object id.
// Both parts must be non-empty and the type code must be a known ObjectType.
func ParseObjectRef(raw string) (ObjectRef, error) {
	code, id, found := strings.Cut(raw, ":")
	if !found || code == "" || id == "" {
		return ObjectRef{}, &ObjectRefError{Ref: raw, Err: ErrInvalidObjectRef}
	}

	objectType := ObjectType(code)
	if !objectType.IsValid() {
		return ObjectRef{}, &ObjectRefError{Ref: raw, Err: ErrUnknownObjectType}
	}

	return ObjectRef{Type: objectType, ID: id}, nil
}

// String returns the reference in its wire form
func (r ObjectRef) String() string {
	return string(r.Type) + ":" + r.ID
}
