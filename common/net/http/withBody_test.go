package http

import (
	"encoding/json"
	"testing"
)

type SimpleStruct struct {
	Name string
	Age  int
}

type ComplexStruct struct {
	Enable bool
	Simple SimpleStruct
}

func TestNewOfTypeWithSimpleStruct(t *testing.T) {
	s := newOfType(new(SimpleStruct))

	if err := json.Unmarshal([]byte(`{"Name":"Bruce", "Age": 18}`), s); err != nil {
		t.Error(err)
	}

	sPtr := s.(*SimpleStruct)

	if sPtr.Name != "Bruce" || sPtr.Age != 18 {
		t.Error("wrong data")
	}
}

func TestNewOfTypeWithComplexStruct(t *testing.T) {
	s := newOfType(new(ComplexStruct))

	if err := json.Unmarshal([]byte(`{"Simple": {"Name":"Bruce", "Age": 18}}`), s); err != nil {
		t.Error(err)
	}

	sPtr := s.(*ComplexStruct)

	if sPtr.Simple.Name != "Bruce" || sPtr.Simple.Age != 18 {
		t.Error("wrong data")
	}
}

func TestValidateMetadataKeyMaxLength(t *testing.T) {
	type withMetadata struct {
		Metadata map[string]any `validate:"dive,keys,keymax=4,endkeys,nonested,valuemax=10"`
	}

	ok := withMetadata{Metadata: map[string]any{"team": "platform"}}
	if err := ValidateStruct(&ok); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	tooLong := withMetadata{Metadata: map[string]any{"department": "platform"}}
	if err := ValidateStruct(&tooLong); err == nil {
		t.Error("expected a validation error for an over-length key")
	}
}
