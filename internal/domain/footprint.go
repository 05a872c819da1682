package domain

import (
	"errors"
	"strings"
)

// Persona es el lente con el que el modelo interpreta la huella digital.
type Persona string

const (
	PersonaRecruiter Persona = "Recruiter"
	PersonaBrand     Persona = "Brand"
	PersonaCreator   Persona = "Creator"
)

// DefaultPersona es la persona seleccionada al crear un borrador.
const DefaultPersona = PersonaBrand

var ErrInvalidPersona = errors.New("invalid persona")

// Personas devuelve las personas en el orden en que se ofrecen al usuario.
func Personas() []Persona {
	return []Persona{PersonaRecruiter, PersonaBrand, PersonaCreator}
}

// ParsePersona acepta el nombre de la persona sin distinguir mayúsculas.
func ParsePersona(s string) (Persona, error) {
	v := strings.TrimSpace(s)
	for _, p := range Personas() {
		if strings.EqualFold(v, string(p)) {
			return p, nil
		}
	}
	return "", ErrInvalidPersona
}

func (p Persona) Valid() bool {
	switch p {
	case PersonaRecruiter, PersonaBrand, PersonaCreator:
		return true
	}
	return false
}

func (p Persona) Description() string {
	switch p {
	case PersonaRecruiter:
		return "Focuses on professional reliability, skill signals, and culture fit."
	case PersonaBrand:
		return "Analyzes consistency, aesthetic value, and partnership potential."
	case PersonaCreator:
		return "Looks for voice originality, community resonance, and vision."
	}
	return ""
}

// UserImage guarda el cuerpo base64 (sin cabecera data:) y su MIME type.
type UserImage struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// UserInput es una entrega del usuario: fragmentos de identidad, persona e intención.
type UserInput struct {
	Username          string      `json:"username"`
	Bio               string      `json:"bio"`
	Posts             []string    `json:"posts"`
	Images            []UserImage `json:"images"`
	DesiredPerception string      `json:"desiredPerception"`
	Persona           Persona     `json:"persona"`
}

// NewUserInput devuelve el borrador vacío con un slot de post y la persona por defecto.
func NewUserInput() UserInput {
	return UserInput{
		Posts:   []string{""},
		Images:  []UserImage{},
		Persona: DefaultPersona,
	}
}

// NonEmptyPosts filtra los posts vacíos; solo se usa al construir el prompt.
func (u UserInput) NonEmptyPosts() []string {
	out := make([]string, 0, len(u.Posts))
	for _, p := range u.Posts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// Clone copia los slices para que el snapshot no comparta memoria con el borrador.
func (u UserInput) Clone() UserInput {
	out := u
	out.Posts = append([]string(nil), u.Posts...)
	out.Images = append([]UserImage{}, u.Images...)
	return out
}
