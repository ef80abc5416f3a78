package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Validate checks raw against shape and returns the cleaned JSON payload,
// ready to be decoded into the stage's typed value.
func Validate(raw string, shape Shape) (json.RawMessage, error) {
	payload := stripCodeFence(raw)
	var n int
	switch shape.Kind {
	case ShapeStringArray:
		items, err := validateStringArray(payload, shape.Name)
		if err != nil {
			return nil, withRaw(err, raw)
		}
		n = len(items)
	case ShapeRecordArray:
		records, err := validateRecordArray(payload, shape.Name, shape.Fields)
		if err != nil {
			return nil, withRaw(err, raw)
		}
		n = len(records)
	case ShapeObject:
		if _, err := validateObject(payload, shape.Name, shape.Fields); err != nil {
			return nil, withRaw(err, raw)
		}
		n = 1
	default:
		return nil, &SchemaError{Shape: shape.Name, Reason: fmt.Sprintf("unsupported shape kind %d", shape.Kind), Raw: raw}
	}
	if shape.NonEmpty && n == 0 {
		return nil, &SchemaError{Shape: shape.Name, Reason: "empty array", Raw: raw}
	}
	return json.RawMessage(payload), nil
}

// ValidateArrayOfStrings parses raw as a JSON array whose elements are all strings.
func ValidateArrayOfStrings(raw string) ([]string, error) {
	out, err := validateStringArray(stripCodeFence(raw), "array of strings")
	return out, withRaw(err, raw)
}

// ValidateArrayOfRecords parses raw as a JSON array of objects that all carry
// the required fields. Extra fields are ignored.
func ValidateArrayOfRecords(raw string, required []Field) ([]gjson.Result, error) {
	out, err := validateRecordArray(stripCodeFence(raw), "array of records", required)
	return out, withRaw(err, raw)
}

// ValidateObjectShape parses raw as a single JSON object carrying the required fields.
func ValidateObjectShape(raw string, required []Field) (gjson.Result, error) {
	out, err := validateObject(stripCodeFence(raw), "object", required)
	return out, withRaw(err, raw)
}

func validateStringArray(payload, name string) ([]string, error) {
	root, err := parseRoot(payload, name)
	if err != nil {
		return nil, err
	}
	if !root.IsArray() {
		return nil, &SchemaError{Shape: name, Reason: "expected a JSON array"}
	}
	items := root.Array()
	out := make([]string, 0, len(items))
	for i, item := range items {
		if item.Type != gjson.String {
			return nil, &SchemaError{Shape: name, Path: fmt.Sprintf("[%d]", i), Reason: "expected a string"}
		}
		out = append(out, item.Str)
	}
	return out, nil
}

func validateRecordArray(payload, name string, required []Field) ([]gjson.Result, error) {
	root, err := parseRoot(payload, name)
	if err != nil {
		return nil, err
	}
	if !root.IsArray() {
		return nil, &SchemaError{Shape: name, Reason: "expected a JSON array"}
	}
	items := root.Array()
	for i, item := range items {
		if err := checkRecord(item, name, fmt.Sprintf("[%d]", i), required); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func validateObject(payload, name string, required []Field) (gjson.Result, error) {
	root, err := parseRoot(payload, name)
	if err != nil {
		return gjson.Result{}, err
	}
	if err := checkRecord(root, name, "", required); err != nil {
		return gjson.Result{}, err
	}
	return root, nil
}

func parseRoot(payload, name string) (gjson.Result, error) {
	if payload == "" || !gjson.Valid(payload) {
		return gjson.Result{}, &SchemaError{Shape: name, Reason: "payload is not valid JSON"}
	}
	return gjson.Parse(payload), nil
}

func checkRecord(rec gjson.Result, name, path string, required []Field) error {
	if !rec.IsObject() {
		return &SchemaError{Shape: name, Path: orRoot(path), Reason: "expected a JSON object"}
	}
	for _, f := range required {
		fieldPath := joinPath(path, f.Name)
		v := rec.Get(gjsonKey(f.Name))
		if !v.Exists() || v.Type == gjson.Null {
			return &SchemaError{Shape: name, Path: fieldPath, Reason: "missing required field"}
		}
		switch f.Kind {
		case FieldString:
			if v.Type != gjson.String {
				return &SchemaError{Shape: name, Path: fieldPath, Reason: "expected a string"}
			}
		case FieldStringArray:
			if !v.IsArray() {
				return &SchemaError{Shape: name, Path: fieldPath, Reason: "expected an array of strings"}
			}
			for i, item := range v.Array() {
				if item.Type != gjson.String {
					return &SchemaError{Shape: name, Path: fmt.Sprintf("%s[%d]", fieldPath, i), Reason: "expected a string"}
				}
			}
		case FieldRecordArray:
			if !v.IsArray() {
				return &SchemaError{Shape: name, Path: fieldPath, Reason: "expected an array of objects"}
			}
			for i, item := range v.Array() {
				if err := checkRecord(item, name, fmt.Sprintf("%s[%d]", fieldPath, i), f.Fields); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// stripCodeFence removes a surrounding ``` or ```json fence that models
// occasionally wrap JSON in even when asked not to.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// gjsonKey escapes path metacharacters so a field name is matched literally.
func gjsonKey(name string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)
	return r.Replace(name)
}

func joinPath(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "." + field
}

func orRoot(path string) string {
	if path == "" {
		return "$"
	}
	return path
}

func withRaw(err error, raw string) error {
	if se, ok := err.(*SchemaError); ok && se.Raw == "" {
		se.Raw = raw
	}
	return err
}
