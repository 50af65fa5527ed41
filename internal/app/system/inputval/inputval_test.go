package inputval_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/dalemusser/codeswitch/internal/app/system/inputval"
)

func TestIsValidEmail(t *testing.T) {
	good := []string{
		"ada@example.com",
		"grace.hopper@navy.mil",
		"learner+go@codeswitch.dev",
		"admin@localhost",
		"  padded@example.com  ",
	}
	bad := []string{
		"",
		"ada",
		"ada@",
		"@example.com",
		".ada@example.com",
		"ada.@example.com",
		"ada..l@example.com",
		"ada@example..com",
		"Ada Lovelace <ada@example.com>",
		"ada @example.com",
	}
	for _, s := range good {
		if !inputval.IsValidEmail(s) {
			t.Errorf("IsValidEmail(%q) = false, want true", s)
		}
	}
	for _, s := range bad {
		if inputval.IsValidEmail(s) {
			t.Errorf("IsValidEmail(%q) = true, want false", s)
		}
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	tests := map[string]bool{
		"https://github.com/ada/gophers": true,
		"http://localhost:8080/demo":     true,
		"  https://ada.dev  ":            true,
		"//ada.dev":                      false,
		"ftp://files.example.com":        false,
		"github.com/ada":                 false,
		"https://":                       false,
		"javascript:alert(1)":            false,
		"":                               false,
	}
	for in, want := range tests {
		if got := inputval.IsValidHTTPURL(in); got != want {
			t.Errorf("IsValidHTTPURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		min, max int
		wantErr  bool
	}{
		{"within bounds", "hello", 1, 10, false},
		{"empty below min", "", 1, 10, true},
		{"over max", strings.Repeat("x", 11), 1, 10, true},
		{"runes not bytes", strings.Repeat("é", 10), 1, 10, false},
		{"no upper bound", strings.Repeat("x", 5000), 1, 0, false},
		{"no upper bound below min", "ab", 3, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := inputval.Length("content", tt.s, tt.min, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperr.ErrBadRequest) {
				t.Errorf("expected BadRequest, got %v", err)
			}
		})
	}
}

func TestLength_Message(t *testing.T) {
	err := inputval.Length("title", "", 3, 200)
	if got := apperr.Message(err); got != "title must be 3-200 characters" {
		t.Errorf("message = %q", got)
	}
}

func TestRange(t *testing.T) {
	if err := inputval.Range("max_members", 5, 5, 100); err != nil {
		t.Errorf("lower bound rejected: %v", err)
	}
	if err := inputval.Range("max_members", 100, 5, 100); err != nil {
		t.Errorf("upper bound rejected: %v", err)
	}
	for _, v := range []int{4, 101} {
		if err := inputval.Range("max_members", v, 5, 100); !errors.Is(err, apperr.ErrBadRequest) {
			t.Errorf("Range(%d): expected BadRequest, got %v", v, err)
		}
	}
}

func TestOneOf(t *testing.T) {
	if err := inputval.OneOf("difficulty", "beginner", "beginner", "intermediate", "advanced"); err != nil {
		t.Errorf("allowed value rejected: %v", err)
	}
	err := inputval.OneOf("difficulty", "Beginner", "beginner", "intermediate")
	if !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if got := apperr.Message(err); got != "difficulty must be one of beginner, intermediate" {
		t.Errorf("message = %q", got)
	}
}

func TestOptionalURL(t *testing.T) {
	for _, ok := range []string{"", "   ", "https://ada.dev"} {
		if err := inputval.OptionalURL("website", ok); err != nil {
			t.Errorf("OptionalURL(%q): %v", ok, err)
		}
	}
	if err := inputval.OptionalURL("website", "ada.dev"); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("bare host: expected BadRequest, got %v", err)
	}
}
