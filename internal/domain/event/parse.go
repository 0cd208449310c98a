package event

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Parse decodes a raw webhook body into an Event.
// Unknown fields are ignored and a missing merchants object yields an empty map.
func Parse(raw []byte) (*Event, error) {
	raw = bytes.TrimSpace(raw)
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}

	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if evt.Merchants == nil {
		evt.Merchants = make(map[string][]Update)
	}
	evt.DeliveryID = uuid.NewString()

	return &evt, nil
}

// PeekVerificationCode extracts the verification code without decoding the whole body
func PeekVerificationCode(raw []byte) (string, bool) {
	r := gjson.GetBytes(raw, "verificationCode")
	if !r.Exists() || r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}
