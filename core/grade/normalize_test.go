package grade

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{label: "Materi Basis Data", want: "materi_basis_data"},
		{label: "Sub-aspek 1", want: "subaspek_1"},
		{label: "Penguasaan Materi", want: "penguasaan_materi"},
		{label: "Celah  \t Keamanan", want: "celah_keamanan"},
		{label: " padded ", want: "_padded_"},
		{label: "already_snake", want: "already_snake"},
		{label: "SQL Injection (XSS)", want: "sql_injection_xss"},
		{label: "Ünïcödé", want: "ncd"},
		{label: "!!!", want: ""},
		{label: "", want: ""},
		{label: "a - b", want: "a__b"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := Normalize(tt.label); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestNormalize_collisions(t *testing.T) {
	if Normalize("Co-op") != Normalize("coop") {
		t.Error("Normalize() should map \"Co-op\" and \"coop\" to the same code")
	}
	if Normalize("Celah Keamanan") != Normalize("celah keamanan") {
		t.Error("Normalize() should be case-insensitive")
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		ident string
		want  string
	}{
		{ident: "penguasaan_materi", want: `"penguasaan_materi"`},
		{ident: `"quoted"`, want: `"quoted"`},
	}
	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			if got := Quote(tt.ident); got != tt.want {
				t.Errorf("Quote(%q) = %s, want %s", tt.ident, got, tt.want)
			}
		})
	}
}

func TestValidateCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{name: "empty", code: "", wantErr: errEmptyCode},
		{name: "too long", code: strings.Repeat("a", 64), wantErr: errCodeTooLong},
		{name: "max length", code: strings.Repeat("a", 63)},
		{name: "valid", code: "materi_basis_data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateCode(tt.code); err != tt.wantErr {
				t.Errorf("ValidateCode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
