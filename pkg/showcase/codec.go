package showcase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
)

// Codec turns response bodies into forms and answer bundles.
type Codec interface {
	DecodeForm(body []byte) (Form, error)
	DecodeAnswers(body []byte) (map[string]string, error)
}

// WireAPI decodes payment service bodies. It keeps numeric literals intact
// so "10.00" style amounts survive.
var WireAPI = sonic.Config{UseNumber: true}.Froze()

// JSONCodec decodes the payment service's showcase JSON.
//
// A page body looks like:
//
//	{
//	  "title": "Mobile top-up",
//	  "hidden_fields": {"pattern_id": "5551"},
//	  "form": [
//	    {"type": "text", "name": "phone", "label": "Phone", "required": true},
//	    {"type": "group", "items": [{"type": "amount", "name": "sum", "value": "100.00"}]}
//	  ],
//	  "error": [{"name": "phone", "alert": "Unknown operator"}]
//	}
type JSONCodec struct{}

type wireForm struct {
	Title        string         `json:"title"`
	HiddenFields map[string]any `json:"hidden_fields"`
	Form         []any          `json:"form"`
	Errors       []FieldError   `json:"error"`
}

// DecodeForm decodes a page body.
func (JSONCodec) DecodeForm(body []byte) (Form, error) {
	if len(body) == 0 {
		return Form{}, errors.New("empty page body")
	}
	var w wireForm
	if err := WireAPI.Unmarshal(body, &w); err != nil {
		return Form{}, fmt.Errorf("failed to parse page: %w", err)
	}

	form := Form{
		Title: w.Title,
		Raw:   append([]byte(nil), body...),
	}
	// Empty collections stay nil so a stored form restores to the same value.
	if len(w.Errors) > 0 {
		form.Errors = w.Errors
	}
	if len(w.HiddenFields) > 0 {
		form.Hidden = make(map[string]string, len(w.HiddenFields))
		for k, v := range w.HiddenFields {
			s, ok := scalarString(v)
			if !ok {
				return Form{}, fmt.Errorf("hidden field %q is not a scalar", k)
			}
			form.Hidden[k] = s
		}
	}
	fields, err := collectFields(nil, w.Form)
	if err != nil {
		return Form{}, err
	}
	form.Fields = fields
	return form, nil
}

// DecodeAnswers decodes a flat object of scalar values.
func (JSONCodec) DecodeAnswers(body []byte) (map[string]string, error) {
	var raw map[string]any
	if err := WireAPI.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse answers: %w", err)
	}
	if raw == nil {
		return nil, errors.New("answers are not an object")
	}
	answers := make(map[string]string, len(raw))
	for k, v := range raw {
		s, ok := scalarString(v)
		if !ok {
			return nil, fmt.Errorf("answer %q is not a scalar", k)
		}
		answers[k] = s
	}
	return answers, nil
}

// collectFields walks form components depth first. Containers carry their
// children in "items"; anything with a name is a field.
func collectFields(fields []Field, items []any) ([]Field, error) {
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("form item %d is not an object", i)
		}
		if children, ok := obj["items"].([]any); ok {
			var err error
			if fields, err = collectFields(fields, children); err != nil {
				return nil, err
			}
			continue
		}
		name, _ := obj["name"].(string)
		if name == "" {
			continue
		}
		field := Field{Name: name}
		field.Label, _ = obj["label"].(string)
		field.Type, _ = obj["type"].(string)
		field.Required, _ = obj["required"].(bool)
		field.ReadOnly, _ = obj["readonly"].(bool)
		if v, ok := obj["value"]; ok && v != nil {
			s, ok := scalarString(v)
			if !ok {
				return nil, fmt.Errorf("field %q has a non-scalar value", name)
			}
			field.Value = s
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case nil:
		return "", true
	}
	return "", false
}
