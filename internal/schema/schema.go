package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Type is the semantic type of an extracted field
type Type string

const (
	TypeString Type = "string"
	TypeNumber Type = "number"
	TypeObject Type = "object"
	TypeArray  Type = "array"
)

// Field describes one field the extraction may populate. The same
// descriptors drive both the model request schema and the local validator,
// so the two can never disagree about what a well-formed record looks like.
type Field struct {
	Name     string
	Type     Type
	Nullable bool
	Required bool    // required on the parent object for the record to be valid
	Items    []Field // element fields, when Type is TypeArray
	Children []Field // child fields, when Type is TypeObject
}

// Fields returns the full extraction contract.
func Fields() []Field {
	return []Field{
		// Merchant / provider
		{Name: "merchantName", Type: TypeString, Required: true},
		{Name: "merchantAddress", Type: TypeString, Nullable: true},
		{Name: "merchantPhone", Type: TypeString, Nullable: true},

		// Transaction
		{Name: "date", Type: TypeString, Required: true},
		{Name: "time", Type: TypeString, Nullable: true},
		{Name: "invoiceNumber", Type: TypeString, Nullable: true},

		// Client / customer
		{Name: "clientName", Type: TypeString, Nullable: true},
		{Name: "clientPassport", Type: TypeString, Nullable: true},
		{Name: "clientCountry", Type: TypeString, Nullable: true},
		{Name: "clientBirthDate", Type: TypeString, Nullable: true},
		{Name: "serviceDate", Type: TypeString, Nullable: true},

		// Financials
		{Name: "items", Type: TypeArray, Required: true, Items: []Field{
			{Name: "description", Type: TypeString, Required: true},
			{Name: "quantity", Type: TypeNumber, Required: true},
			{Name: "unitPrice", Type: TypeNumber, Required: true},
			{Name: "totalPrice", Type: TypeNumber, Required: true},
		}},
		{Name: "subtotal", Type: TypeNumber, Required: true},
		{Name: "tax", Type: TypeNumber, Required: true},
		{Name: "discount", Type: TypeNumber, Nullable: true},
		{Name: "tip", Type: TypeNumber, Nullable: true},
		{Name: "total", Type: TypeNumber, Required: true},
		{Name: "currency", Type: TypeString, Required: true},

		// Payment
		{Name: "bankDetails", Type: TypeObject, Nullable: true, Children: []Field{
			{Name: "bankName", Type: TypeString, Nullable: true},
			{Name: "location", Type: TypeString, Nullable: true},
			{Name: "accountName", Type: TypeString, Nullable: true},
			{Name: "accountNumber", Type: TypeString, Nullable: true},
			{Name: "iban", Type: TypeString, Nullable: true},
			{Name: "swift", Type: TypeString, Nullable: true},
		}},

		// Medical extension
		{Name: "medicalDetails", Type: TypeObject, Nullable: true, Children: []Field{
			{Name: "ourRefNo", Type: TypeString, Nullable: true},
			{Name: "yourRefNo", Type: TypeString, Nullable: true},
			{Name: "hotel", Type: TypeString, Nullable: true},
			{Name: "roomNo", Type: TypeString, Nullable: true},
			{Name: "patientPhone", Type: TypeString, Nullable: true},
			{Name: "insurance", Type: TypeString, Nullable: true},
			{Name: "policyNumber", Type: TypeString, Nullable: true},
			{Name: "admissionDate", Type: TypeString, Nullable: true},
			{Name: "dischargeDate", Type: TypeString, Nullable: true},
			{Name: "travelDates", Type: TypeString, Nullable: true},
			{Name: "diagnosis", Type: TypeString, Nullable: true},
			{Name: "complaint", Type: TypeString, Nullable: true},
			{Name: "history", Type: TypeString, Nullable: true},
			{Name: "physicalExamination", Type: TypeString, Nullable: true},
			{Name: "treatment", Type: TypeString, Nullable: true},
			{Name: "prognosis", Type: TypeString, Nullable: true},
		}},

		// Meta
		{Name: "category", Type: TypeString, Required: true},
		{Name: "confidence", Type: TypeNumber, Nullable: true},
		{Name: "summary", Type: TypeString, Nullable: true},
	}
}

// RequiredRootFields returns the names of fields the record cannot be
// considered valid without.
func RequiredRootFields() []string {
	var required []string
	for _, f := range Fields() {
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return required
}

// JSONSchema returns the extraction contract as a JSON-Schema
// (draft 2020-12 subset) generic map. It is validated against locally and
// embedded in prompts for providers without native schema support.
func JSONSchema() map[string]any {
	return objectSchema(Fields())
}

func objectSchema(fields []Field) map[string]any {
	props := make(map[string]any, len(fields))
	var required []string
	for _, f := range fields {
		props[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func fieldSchema(f Field) map[string]any {
	var s map[string]any
	switch f.Type {
	case TypeArray:
		s = map[string]any{
			"type":  "array",
			"items": objectSchema(f.Items),
		}
	case TypeObject:
		s = objectSchema(f.Children)
	default:
		s = map[string]any{"type": string(f.Type)}
	}
	if f.Nullable {
		s["type"] = []any{s["type"], "null"}
	}
	return s
}

// GenaiSchema returns the extraction contract as a Gemini response schema,
// used to request strictly schema-conformant structured output.
func GenaiSchema() *genai.Schema {
	return genaiObject(Fields())
}

func genaiObject(fields []Field) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	var required []string
	for _, f := range fields {
		props[f.Name] = genaiField(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   required,
	}
}

func genaiField(f Field) *genai.Schema {
	var s *genai.Schema
	switch f.Type {
	case TypeArray:
		s = &genai.Schema{
			Type:  genai.TypeArray,
			Items: genaiObject(f.Items),
		}
	case TypeObject:
		s = genaiObject(f.Children)
	case TypeNumber:
		s = &genai.Schema{Type: genai.TypeNumber}
	default:
		s = &genai.Schema{Type: genai.TypeString}
	}
	s.Nullable = f.Nullable
	return s
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Validate checks raw model output against the extraction contract. It
// guarantees structural well-formedness only; individual values remain
// untrusted.
func Validate(raw []byte) error {
	compileOnce.Do(func() {
		b, err := json.Marshal(JSONSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("record.json")
	})
	if compileErr != nil {
		return compileErr
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshaling candidate: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("candidate does not match schema: %w", err)
	}
	return nil
}
