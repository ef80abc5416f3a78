package generator

import (
	"fmt"
	"strings"
)

// ShapeKind is the top-level structure a model response must have.
type ShapeKind int

const (
	ShapeStringArray ShapeKind = iota + 1
	ShapeRecordArray
	ShapeObject
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeStringArray:
		return "array of strings"
	case ShapeRecordArray:
		return "array of objects"
	case ShapeObject:
		return "object"
	default:
		return "unknown"
	}
}

// FieldKind is the JSON kind of a required field.
type FieldKind int

const (
	FieldString FieldKind = iota + 1
	FieldStringArray
	FieldRecordArray
)

func (k FieldKind) String() string {
	switch k {
	case FieldString:
		return "string"
	case FieldStringArray:
		return "array of strings"
	case FieldRecordArray:
		return "array of objects"
	default:
		return "unknown"
	}
}

// Field is a required field of a record or object shape. Fields is only
// used by FieldRecordArray and lists the fields of each nested record.
type Field struct {
	Name        string
	Kind        FieldKind
	Description string
	Fields      []Field
}

// Shape describes an expected response. The same value is used to phrase the
// prompt, to build provider response schemas and to validate the payload, so
// the three never disagree on field names.
type Shape struct {
	Name     string
	Kind     ShapeKind
	Fields   []Field
	NonEmpty bool
}

// FieldNames returns the top-level required field names in declaration order.
func (s Shape) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Instruction renders the output-format directive embedded in prompts.
func (s Shape) Instruction() string {
	var sb strings.Builder
	sb.WriteString("Respond with JSON only, no prose and no markdown code fences.\n")
	switch s.Kind {
	case ShapeStringArray:
		sb.WriteString("The response must be a JSON array of strings.")
		if s.NonEmpty {
			sb.WriteString(" The array must not be empty.")
		}
	case ShapeRecordArray:
		sb.WriteString("The response must be a JSON array of objects.")
		if s.NonEmpty {
			sb.WriteString(" The array must not be empty.")
		}
		sb.WriteString(" Every object must have these string fields:\n")
		writeFields(&sb, s.Fields, "")
	case ShapeObject:
		sb.WriteString("The response must be a single JSON object with these fields:\n")
		writeFields(&sb, s.Fields, "")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeFields(sb *strings.Builder, fields []Field, indent string) {
	for _, f := range fields {
		if f.Description != "" {
			fmt.Fprintf(sb, "%s- %s (%s, required): %s\n", indent, f.Name, f.Kind, f.Description)
		} else {
			fmt.Fprintf(sb, "%s- %s (%s, required)\n", indent, f.Name, f.Kind)
		}
		if f.Kind == FieldRecordArray && len(f.Fields) > 0 {
			fmt.Fprintf(sb, "%s  each element has:\n", indent)
			writeFields(sb, f.Fields, indent+"  ")
		}
	}
}

var (
	MainKeywordsShape = Shape{
		Name:     "main keywords",
		Kind:     ShapeStringArray,
		NonEmpty: true,
	}

	SeedKeywordsShape = Shape{
		Name:     "seed keywords",
		Kind:     ShapeRecordArray,
		NonEmpty: true,
		Fields: []Field{
			{Name: "keyword", Kind: FieldString, Description: "the related keyword"},
			{Name: "searchVolume", Kind: FieldString, Description: "estimated monthly search volume"},
			{Name: "rankingDifficulty", Kind: FieldString, Description: "estimated ranking difficulty"},
			{Name: "cpc", Kind: FieldString, Description: "estimated cost per click"},
			{Name: "blogPostTopic", Kind: FieldString, Description: "a possible blog post topic"},
		},
	}

	ExpansionShape = Shape{
		Name: "keyword expansion",
		Kind: ShapeObject,
		Fields: []Field{
			{Name: "faqs", Kind: FieldStringArray, Description: "frequently asked questions"},
			{Name: "coreKeywords", Kind: FieldStringArray, Description: "primary keywords"},
			{Name: "secondaryKeywords", Kind: FieldStringArray, Description: "secondary or long-tail keywords"},
			{Name: "productRecommendations", Kind: FieldRecordArray, Description: "relevant products", Fields: []Field{
				{Name: "name", Kind: FieldString},
				{Name: "link", Kind: FieldString},
				{Name: "description", Kind: FieldString},
			}},
		},
	}
)
