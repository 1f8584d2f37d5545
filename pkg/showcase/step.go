package showcase

// Field describes a single input of a form template.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Type     string `json:"type,omitempty"`
	Value    string `json:"value,omitempty"`
	Required bool   `json:"required,omitempty"`
	ReadOnly bool   `json:"readonly,omitempty"`
}

// FieldError is a validation message attached to a field by the server.
type FieldError struct {
	Name  string `json:"name"`
	Alert string `json:"alert,omitempty"`
}

// Form is a page template as produced by a Codec. Raw holds the server's
// template verbatim; the other fields are extracted from it.
type Form struct {
	Title  string            `json:"title,omitempty"`
	Raw    []byte            `json:"raw,omitempty"`
	Fields []Field           `json:"fields,omitempty"`
	Hidden map[string]string `json:"hidden,omitempty"`
	Errors []FieldError      `json:"errors,omitempty"`
}

// Field returns the field with the given name.
func (f *Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Step is one page of a showcase: a form and the URL to submit it to.
type Step struct {
	Form      Form              `json:"form"`
	SubmitURL string            `json:"submit_url,omitempty"`
	Values    map[string]string `json:"values,omitempty"`
}

// NewStep creates a step for the given form and submit URL
func NewStep(form Form, submitURL string) *Step {
	return &Step{Form: form, SubmitURL: submitURL}
}

// Submittable reports whether the step has somewhere to be posted to.
func (s *Step) Submittable() bool {
	return s != nil && s.SubmitURL != ""
}

// Set records a value for a field.
func (s *Step) Set(name, value string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[name] = value
}

// Params returns the parameters to post for this step: hidden fields,
// overlaid by field defaults, overlaid by values set with Set.
func (s *Step) Params() map[string]string {
	params := make(map[string]string, len(s.Form.Hidden)+len(s.Form.Fields)+len(s.Values))
	for k, v := range s.Form.Hidden {
		params[k] = v
	}
	for _, field := range s.Form.Fields {
		if field.Name == "" {
			continue
		}
		params[field.Name] = field.Value
	}
	for k, v := range s.Values {
		params[k] = v
	}
	return params
}
