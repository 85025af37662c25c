package chat

import (
	"strings"
	"testing"
)

func TestParsePersona(t *testing.T) {
	tests := []struct {
		in   string
		want Persona
	}{
		{"default", PersonaDefault},
		{"lawyer", PersonaLawyer},
		{"legal", PersonaLawyer},
		{"teacher", PersonaTeacher},
		{"educational", PersonaTeacher},
		{"researcher", PersonaResearcher},
		{"student", PersonaStudent},
		{"learner", PersonaStudent},
		{"LAWYER", PersonaLawyer},
		{"  teacher ", PersonaTeacher},
		{"", PersonaDefault},
		{"astronaut", PersonaDefault},
	}
	for _, tt := range tests {
		if got := ParsePersona(tt.in); got != tt.want {
			t.Errorf("ParsePersona(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCompose_SharedConstraints(t *testing.T) {
	chunks := []string{"chunk alpha", "chunk beta"}
	question := "what is alpha?"
	for _, p := range []Persona{PersonaDefault, PersonaLawyer, PersonaTeacher, PersonaResearcher, PersonaStudent} {
		t.Run(p.String(), func(t *testing.T) {
			prompt := Compose(p, chunks, question)
			if !strings.Contains(prompt, RefusalPhrase) {
				t.Error("every persona must carry the refusal phrase")
			}
			if !strings.Contains(prompt, "only the information in the context") {
				t.Error("every persona must restrict answers to the context")
			}
			if !strings.Contains(prompt, "Do not guess or make up answers.") {
				t.Error("every persona must forbid fabrication")
			}
			if !strings.Contains(prompt, "chunk alpha") || !strings.Contains(prompt, "chunk beta") {
				t.Error("context chunks must be embedded")
			}
			if !strings.Contains(prompt, question) {
				t.Error("question must be embedded")
			}
		})
	}
}

func TestCompose_PersonasDiffer(t *testing.T) {
	chunks := []string{"c"}
	d := Compose(PersonaDefault, chunks, "q")
	l := Compose(PersonaLawyer, chunks, "q")
	if d == l {
		t.Error("personas should vary the style instruction")
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"AIza" + strings.Repeat("x", 35), true},
		{"AIza" + strings.Repeat("x", 34), false},
		{"AIza" + strings.Repeat("x", 36), false},
		{"BIza" + strings.Repeat("x", 35), false},
		{"short", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateAPIKey(tt.key); got != tt.want {
			t.Errorf("ValidateAPIKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
