package wizard

import (
	"fmt"

	"footprint-mirror/internal/domain"
)

// State es la forma serializable de un Wizard (usada por el draft store).
type State struct {
	Step       Step              `json:"step"`
	Draft      domain.UserInput  `json:"draft"`
	Submission *domain.UserInput `json:"submission,omitempty"`
}

func (w *Wizard) State() State {
	st := State{
		Step:  w.step,
		Draft: w.draft.Clone(),
	}
	if w.submitted != nil {
		frozen := w.submitted.Clone()
		st.Submission = &frozen
	}
	return st
}

// Restore reconstruye un Wizard y repone los invariantes del borrador.
func Restore(st State) (*Wizard, error) {
	draft := st.Draft.Clone()
	if err := normalize(&draft); err != nil {
		return nil, fmt.Errorf("restore draft: %w", err)
	}

	step := st.Step
	if step < StepIdentity {
		step = StepIdentity
	}
	if step > StepCount {
		step = StepCount
	}

	w := &Wizard{step: step, draft: draft}
	if st.Submission != nil {
		frozen := st.Submission.Clone()
		if err := normalize(&frozen); err != nil {
			return nil, fmt.Errorf("restore submission: %w", err)
		}
		w.submitted = &frozen
	}
	return w, nil
}

func normalize(in *domain.UserInput) error {
	if len(in.Posts) == 0 {
		in.Posts = []string{""}
	}
	if in.Images == nil {
		in.Images = []domain.UserImage{}
	}
	if in.Persona == "" {
		in.Persona = domain.DefaultPersona
	}
	if !in.Persona.Valid() {
		return domain.ErrInvalidPersona
	}
	return nil
}
