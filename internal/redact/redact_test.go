package redact

import (
	"strings"
	"testing"
)

func TestMask_PersonalData(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"email", "contact me at jane.doe@example.com for details"},
		{"phone with dashes", "call 010-1234-5678 if it breaks"},
		{"phone international", "support line +82 10 1234 5678 never answers"},
		{"url", "photos at https://myblog.example.com/unboxing"},
		{"social handle", "I posted about it, follow @review_junkie77"},
		{"order number", "order 1234-5678-9012 arrived two weeks late"},
		{"ip address", "the smart plug sits at 192.168.0.42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Mask(tt.input)
			if !strings.Contains(result, placeholder) {
				t.Errorf("expected masking for %s, got: %s", tt.name, result)
			}
		})
	}
}

func TestMask_NoFalsePositives(t *testing.T) {
	inputs := []string{
		"great product, arrived fast",
		"the battery lasts 3 days on a single charge",
		"bought it on 2026-04-01 and it still works",
		"paid 45.99 and it was worth every cent",
		"rated 5 out of 5",
	}
	for _, input := range inputs {
		result := Mask(input)
		if result != input {
			t.Errorf("false positive masking:\n  input:  %s\n  output: %s", input, result)
		}
	}
}

func TestMask_KeepsSurroundingText(t *testing.T) {
	input := "email me at bob@example.com, otherwise a solid blender"
	result := Mask(input)
	if strings.Contains(result, "bob@example.com") {
		t.Error("email survived masking")
	}
	if !strings.Contains(result, "a solid blender") {
		t.Error("masking removed unrelated review text")
	}
}

func TestMask_MultipleMatches(t *testing.T) {
	input := "a@b.com wrote to c@d.org"
	result := Mask(input)
	if strings.Count(result, placeholder) != 2 {
		t.Errorf("expected both emails masked, got: %s", result)
	}
}
