package wizard

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"footprint-mirror/internal/domain"
)

// Step identifica una pantalla del wizard. Empieza en 1.
type Step int

const (
	StepIdentity Step = iota + 1
	StepObserver
	StepIntent
)

// StepCount es la cantidad de pasos; el último habilita el submit.
const StepCount = 3

// minBioLength es el largo mínimo (exclusivo) de la bio, en runas y sin espacios en los bordes.
const minBioLength = 5

var (
	ErrStepIncomplete  = errors.New("step incomplete")
	ErrNotFinalStep    = errors.New("submit is only allowed from the final step")
	ErrSubmitted       = errors.New("draft already submitted")
	ErrIndexOutOfRange = errors.New("index out of range")
)

func (s Step) Title() string {
	switch s {
	case StepIdentity:
		return "Identity Fragments."
	case StepObserver:
		return "The Observer."
	case StepIntent:
		return "Desired Intent."
	}
	return ""
}

func (s Step) Prompt() string {
	switch s {
	case StepIdentity:
		return "Share your handle, bio, recent text posts and images."
	case StepObserver:
		return "Who is looking into the mirror? The reflection changes depending on the eyes of the observer."
	case StepIntent:
		return "What do you want the world to feel when they see you? Defining your intent helps us measure the gap."
	}
	return ""
}

// Wizard mantiene el borrador en curso a lo largo de los pasos.
// No es seguro para uso concurrente; el dueño serializa las operaciones.
type Wizard struct {
	step      Step
	draft     domain.UserInput
	submitted *domain.UserInput
}

// New crea un wizard en el paso 1 con el borrador por defecto.
func New() *Wizard {
	return &Wizard{
		step:  StepIdentity,
		draft: domain.NewUserInput(),
	}
}

func (w *Wizard) Step() Step { return w.step }

func (w *Wizard) IsSubmitted() bool { return w.submitted != nil }

// Draft devuelve una copia del borrador.
func (w *Wizard) Draft() domain.UserInput { return w.draft.Clone() }

// Submission devuelve el snapshot congelado si el wizard ya fue enviado.
func (w *Wizard) Submission() (domain.UserInput, bool) {
	if w.submitted == nil {
		return domain.UserInput{}, false
	}
	return w.submitted.Clone(), true
}

// StepValid evalúa el predicado de validez de un paso sobre el borrador actual.
func (w *Wizard) StepValid(s Step) bool {
	switch s {
	case StepIdentity:
		return utf8.RuneCountInString(strings.TrimSpace(w.draft.Bio)) > minBioLength
	case StepObserver:
		return true
	case StepIntent:
		return w.draft.Persona.Valid()
	}
	return false
}

// CanAdvance indica si el paso actual permite avanzar.
func (w *Wizard) CanAdvance() bool {
	return w.submitted == nil && w.step < StepCount && w.StepValid(w.step)
}

// CanSubmit indica si Submit tendría éxito en el estado actual.
func (w *Wizard) CanSubmit() bool {
	if w.submitted != nil || w.step != StepCount {
		return false
	}
	for s := StepIdentity; s <= StepCount; s++ {
		if !w.StepValid(s) {
			return false
		}
	}
	return true
}

// Advance mueve al siguiente paso. En el último paso no hace nada.
func (w *Wizard) Advance() error {
	if w.submitted != nil {
		return ErrSubmitted
	}
	if !w.StepValid(w.step) {
		return ErrStepIncomplete
	}
	if w.step < StepCount {
		w.step++
	}
	return nil
}

// Retreat vuelve al paso anterior sin tocar el borrador.
func (w *Wizard) Retreat() error {
	if w.submitted != nil {
		return ErrSubmitted
	}
	if w.step > StepIdentity {
		w.step--
	}
	return nil
}

// Submit congela el borrador y lo devuelve por valor.
// Exige estar en el último paso y que todos los predicados se cumplan.
func (w *Wizard) Submit() (domain.UserInput, error) {
	if w.submitted != nil {
		return domain.UserInput{}, ErrSubmitted
	}
	if w.step != StepCount {
		return domain.UserInput{}, ErrNotFinalStep
	}
	if !w.CanSubmit() {
		return domain.UserInput{}, fmt.Errorf("submit: %w", ErrStepIncomplete)
	}
	frozen := w.draft.Clone()
	w.submitted = &frozen
	return frozen.Clone(), nil
}

func (w *Wizard) SetUsername(v string) error {
	if w.submitted != nil {
		return ErrSubmitted
	}
	w.draft.Username = v
	return nil
}

func (w *Wizard) SetBio(v string) error {
	if w.submitted != nil {
		return ErrSubmitted
	}
	w.draft.Bio = v
	return nil
}

func (w *Wizard) SetDesiredPerception(v string) error {
	if w.submitted != nil {
		return ErrSubmitted
	}
	w.draft.DesiredPerception = v
	return nil
}

func (w *Wizard) SetPersona(p domain.Persona) error {
	if w.submitted != nil {
		return ErrSubmitted
	}
	if !p.Valid() {
		return domain.ErrInvalidPersona
	}
	w.draft.Persona = p
	return nil
}

func (w *Wizard) SetPost(i int, text string) error {
	if w.submitted != nil {
		return ErrSubmitted
	}
	if i < 0 || i >= len(w.draft.Posts) {
		return ErrIndexOutOfRange
	}
	w.draft.Posts[i] = text
	return nil
}

// AddPost agrega un slot al final; text puede ser vacío.
func (w *Wizard) AddPost(text string) error {
	if w.submitted != nil {
		return ErrSubmitted
	}
	w.draft.Posts = append(w.draft.Posts, text)
	return nil
}

// RemovePost quita el post i. Si la lista queda vacía vuelve a [""].
func (w *Wizard) RemovePost(i int) error {
	if w.submitted != nil {
		return ErrSubmitted
	}
	if i < 0 || i >= len(w.draft.Posts) {
		return ErrIndexOutOfRange
	}
	posts := append(w.draft.Posts[:i:i], w.draft.Posts[i+1:]...)
	if len(posts) == 0 {
		posts = []string{""}
	}
	w.draft.Posts = posts
	return nil
}

func (w *Wizard) AddImage(img domain.UserImage) error {
	return w.AddImages(img)
}

// AddImages agrega todas las imágenes o ninguna.
func (w *Wizard) AddImages(imgs ...domain.UserImage) error {
	if w.submitted != nil {
		return ErrSubmitted
	}
	w.draft.Images = append(w.draft.Images, imgs...)
	return nil
}

func (w *Wizard) RemoveImage(i int) error {
	if w.submitted != nil {
		return ErrSubmitted
	}
	if i < 0 || i >= len(w.draft.Images) {
		return ErrIndexOutOfRange
	}
	w.draft.Images = append(w.draft.Images[:i:i], w.draft.Images[i+1:]...)
	return nil
}
