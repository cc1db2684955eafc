package model

// FormField is a single detected field on an application form.
type FormField struct {
	ID          string `json:"id"`
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Kind        string `json:"kind,omitempty"` // input element kind: text, file, select...
	Required    bool   `json:"required"`
}

// FormSchema is the detected structure of one application form.
type FormSchema struct {
	Fields []FormField `json:"fields"`
}

// MappedField is one (field → value) assignment in a FieldMapping.
// Resolved is false when the field type was unknown or below the
// confidence threshold; such fields carry no value.
type MappedField struct {
	FieldID    string  `json:"field_id"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Value      string  `json:"value,omitempty"`
	Resolved   bool    `json:"resolved"`
}

// FieldMapping is the ordered set of assignments for one submission
// attempt. It is transient and never persisted.
type FieldMapping struct {
	Fields []MappedField `json:"fields"`
}

// ResolvedValues returns the field_id → value pairs ready for submission.
func (m FieldMapping) ResolvedValues() map[string]string {
	out := make(map[string]string, len(m.Fields))
	for _, f := range m.Fields {
		if f.Resolved {
			out[f.FieldID] = f.Value
		}
	}
	return out
}
