package service

import (
	"encoding/base64"
	"fmt"
	"strings"

	"footprint-mirror/internal/domain"
	"footprint-mirror/internal/llm"
)

const postsDelimiter = " | "

// ReflectionPromptBuilder arma la llamada al modelo a partir de una entrega congelada.
type ReflectionPromptBuilder struct{}

func (ReflectionPromptBuilder) SystemInstruction(persona domain.Persona) string {
	return fmt.Sprintf(`You are the "Digital Footprint Mirror," a high-end research AI.
Your task is to reflect a user's digital identity from the specific perspective of a %s.

Guidelines:
- Never be judgmental or absolute.
- Use words like "may", "might", "could be interpreted as".
- Act as a neutral, emotionally intelligent mirror, not a critic.
- Focus on the gap between "Perception vs Intent".
- Provide intelligent, high-quality suggestions for clarity and positioning, not rewriting content.
- Analyze visual aesthetic and consistency if images are provided.
- The output must be a clean, reflective analysis.`, persona)
}

func (ReflectionPromptBuilder) UserPrompt(in domain.UserInput) string {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = "Not provided"
	}
	desired := strings.TrimSpace(in.DesiredPerception)
	if desired == "" {
		desired = "General"
	}

	var b strings.Builder
	b.WriteString("Analyze the following digital footprint fragments:\n\n")
	fmt.Fprintf(&b, "Username: %s\n", username)
	fmt.Fprintf(&b, "Bio: %s\n", in.Bio)
	fmt.Fprintf(&b, "Recent Text Posts: %s\n", strings.Join(in.NonEmptyPosts(), postsDelimiter))
	fmt.Fprintf(&b, "Desired Perception: %s\n\n", desired)
	fmt.Fprintf(&b, "Reflect on how these signals coalesce into a perceived identity for a %s.", in.Persona)
	return b.String()
}

// Build devuelve el request completo. Falla si alguna imagen no es base64 válido.
func (p ReflectionPromptBuilder) Build(in domain.UserInput) (llm.Request, error) {
	images := make([]llm.InlineData, 0, len(in.Images))
	for i, img := range in.Images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return llm.Request{}, fmt.Errorf("image %d: decode base64: %w", i, err)
		}
		images = append(images, llm.InlineData{Data: data, MIMEType: img.MIMEType})
	}
	return llm.Request{
		SystemInstruction: p.SystemInstruction(in.Persona),
		Prompt:            p.UserPrompt(in),
		Images:            images,
		Schema:            ReflectionSchema(),
	}, nil
}

// ReflectionSchema es el esquema estricto de respuesta: siete campos obligatorios.
func ReflectionSchema() *llm.Schema {
	str := func(desc string) *llm.Schema {
		return &llm.Schema{Type: llm.TypeString, Description: desc}
	}
	strList := func(desc string) *llm.Schema {
		return &llm.Schema{Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}, Description: desc}
	}

	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"observedSignals":      strList("Factual, neutral observations from the text and images provided."),
			"likelyInterpretation": str("A thoughtful, human-toned paragraph summarizing the likely overall impression."),
			"possibleMisreadings":  str("Potential misunderstandings described in a gentle, non-confrontational tone."),
			"whatsMissing":         str("Aspects of the user's identity that are not apparent from these signals."),
			"intentVsPerception": {
				Type: llm.TypeArray,
				Items: &llm.Schema{
					Type: llm.TypeObject,
					Properties: map[string]*llm.Schema{
						"intent":     {Type: llm.TypeString},
						"perception": {Type: llm.TypeString},
					},
					Required: []string{"intent", "perception"},
					Order:    []string{"intent", "perception"},
				},
				Description: "A mapping of specific intents to their likely outward perception.",
			},
			"smartSuggestions":   strList("2-3 high-level strategic suggestions for aligning perception with intent."),
			"reflectionQuestion": str("A single, deep, closing question for the user to ponder."),
		},
		Required: append([]string(nil), domain.ReflectionFields...),
		Order:    append([]string(nil), domain.ReflectionFields...),
	}
}
