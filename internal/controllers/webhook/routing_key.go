package webhook

import (
	"github.com/tidwall/gjson"
)

// RoutingKey extracts entry[0].changes[0].value.metadata.phone_number_id.
// Numbers are returned as their literal text. Invalid JSON, a missing or
// mistyped segment, or an empty id all report ok == false.
func RoutingKey(body []byte) (phoneID string, ok bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return "", false
	}
	entries := root.Get("entry")
	if !entries.IsArray() {
		return "", false
	}
	entry := entries.Get("0")
	if !entry.IsObject() {
		return "", false
	}
	changes := entry.Get("changes")
	if !changes.IsArray() {
		return "", false
	}
	change := changes.Get("0")
	if !change.IsObject() {
		return "", false
	}
	value := change.Get("value")
	if !value.IsObject() {
		return "", false
	}
	metadata := value.Get("metadata")
	if !metadata.IsObject() {
		return "", false
	}

	id := metadata.Get("phone_number_id")
	switch id.Type {
	case gjson.String:
		phoneID = id.Str
	case gjson.Number:
		phoneID = id.Raw
	default:
		return "", false
	}
	return phoneID, phoneID != ""
}
