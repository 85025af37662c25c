package chat

import (
	"fmt"
	"strings"
)

// Persona selects the response style applied to the context-constrained
// prompt. The set is closed; unknown inputs map to PersonaDefault. Personas
// vary only the tone and structure of a compliant answer, never the
// refusal policy.
type Persona int

const (
	PersonaDefault Persona = iota
	PersonaLawyer
	PersonaTeacher
	PersonaResearcher
	PersonaStudent
)

// RefusalPhrase is emitted verbatim when the answer is not derivable from
// the supplied context.
const RefusalPhrase = "I'm afraid I don't have that info in the provided context."

// ParsePersona maps a persona key to its Persona. Unknown keys fall back to
// PersonaDefault.
func ParsePersona(s string) Persona {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lawyer", "legal":
		return PersonaLawyer
	case "teacher", "educational":
		return PersonaTeacher
	case "researcher", "research":
		return PersonaResearcher
	case "student", "learner":
		return PersonaStudent
	default:
		return PersonaDefault
	}
}

func (p Persona) String() string {
	switch p {
	case PersonaLawyer:
		return "lawyer"
	case PersonaTeacher:
		return "teacher"
	case PersonaResearcher:
		return "researcher"
	case PersonaStudent:
		return "student"
	default:
		return "default"
	}
}

// style returns the persona-specific closing instruction.
func (p Persona) style() string {
	switch p {
	case PersonaLawyer:
		return "Analyze the information with legal precision and provide a structured, methodical response. " +
			"Use legal terminology where appropriate and cite specific sections from the context. " +
			"Break down complex concepts into clear, actionable points."
	case PersonaTeacher:
		return "Explain the concepts in a clear, educational manner with relatable examples. " +
			"Break down complex ideas into simpler parts and use analogies where helpful. " +
			"Include key takeaways and encourage understanding through questions."
	case PersonaResearcher:
		return "Provide a detailed, analytical response with emphasis on methodology and evidence. " +
			"Highlight key findings, discuss implications, and maintain an academic tone. " +
			"Include relevant data points from the context where applicable."
	case PersonaStudent:
		return "Present the information in an easy-to-understand, engaging way. " +
			"Use simple language, include examples, and break down complex topics into digestible pieces. " +
			"Focus on practical applications and key concepts."
	default:
		return "Explain in a friendly and easy-to-understand way. " +
			"You can also add tips or examples if it helps the user understand better."
	}
}

// Compose builds the persona prompt around the retrieved context and the
// question. Every persona shares the same three constraints: answer only
// from the context, reply with RefusalPhrase when the answer is not there,
// and never fabricate.
func Compose(p Persona, contextChunks []string, question string) string {
	return fmt.Sprintf(`Answer the user's question as clearly and thoroughly as possible using only the information in the context below.
If the answer is not in the context, reply exactly: %q
Do not guess or make up answers.

Context:
%s

Question:
%s

Answer:
%s`, RefusalPhrase, strings.Join(contextChunks, "\n\n"), question, p.style())
}
