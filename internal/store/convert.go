package store

import "encoding/json"

// ToDoc marshals v into the map[string]interface{} shape Store persists.
// This is the document-store equivalent of the teacher's sqlcXToDomain
// converters: one boundary function translating a typed domain value into
// the store's wire shape, except here the "wire shape" is JSON, not a
// generated SQL row type.
func ToDoc(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromDoc unmarshals a document's data into dst, a pointer to a domain type.
func FromDoc(data map[string]interface{}, dst interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
