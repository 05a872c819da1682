package http

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
)

type validationSample struct {
	Text    *string `binding:"required"`
	Persona *string `binding:"omitempty,persona"`
	Code    string  `binding:"omitempty,len=2"`
}

func TestParseValidationErrorsMessages(t *testing.T) {
	registerValidators()

	persona := "Critic"
	err := binding.Validator.ValidateStruct(&validationSample{Persona: &persona, Code: "abc"})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	got := map[string]string{}
	for _, ve := range ParseValidationErrors(err) {
		got[ve.Field] = ve.Message
	}
	want := map[string]string{
		"Text":    "Text is required",
		"Persona": "Persona must be one of: Recruiter, Brand, Creator",
		"Code":    "Code is invalid",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d field errors, got %v", len(want), got)
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Fatalf("field %s: expected %q, got %q", field, msg, got[field])
		}
	}
}

func TestParseValidationErrorsIgnoresOtherErrors(t *testing.T) {
	if out := ParseValidationErrors(errors.New("EOF")); len(out) != 0 {
		t.Fatalf("expected no field errors, got %v", out)
	}
}
