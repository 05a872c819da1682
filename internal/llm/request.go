package llm

import "context"

// LLMClient define la interfaz para generar respuestas estructuradas con un LLM.
type LLMClient interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request es una única llamada: instrucción de sistema, prompt, imágenes y esquema de salida.
type Request struct {
	SystemInstruction string
	Prompt            string
	Images            []InlineData
	Schema            *Schema
}

// InlineData es un adjunto binario enviado junto al prompt.
type InlineData struct {
	Data     []byte
	MIMEType string
}

const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeInteger = "integer"
)

// Schema es el subconjunto de JSON Schema que entienden ambos proveedores.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	// Order fija el orden de las propiedades en la salida; no se serializa.
	Order []string `json:"-"`
}
