package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"footprint-mirror/internal/domain"
	"footprint-mirror/internal/metrics"
	"footprint-mirror/internal/wizard"
)

// ErrNoSubmission indica que el borrador todavía no fue enviado.
var ErrNoSubmission = errors.New("draft has no submission")

// Draft es la vista de un borrador que se devuelve al cliente.
type Draft struct {
	ID    string       `json:"id"`
	Token string       `json:"token,omitempty"`
	State wizard.State `json:"state"`
}

// WizardService es el dueño de los borradores mientras dura el wizard.
// Al enviar, el snapshot congelado se entrega por valor a quien lo consuma.
type WizardService struct {
	store  DraftStore
	tokens *DraftTokenService
	logger *zap.Logger
}

func NewWizardService(store DraftStore, tokens *DraftTokenService, logger *zap.Logger) *WizardService {
	return &WizardService{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// Create inicia un borrador nuevo en el paso 1 y emite su token.
func (s *WizardService) Create(ctx context.Context) (Draft, error) {
	id := uuid.NewString()
	st := wizard.New().State()
	if err := s.store.Create(ctx, id, st); err != nil {
		return Draft{}, fmt.Errorf("create draft: %w", err)
	}
	token, err := s.tokens.Issue(id)
	if err != nil {
		return Draft{}, fmt.Errorf("issue draft token: %w", err)
	}
	metrics.DraftsCreated.Inc()
	s.logger.Debug("draft created", zap.String("draft_id", id))
	return Draft{ID: id, Token: token, State: st}, nil
}

// Resolve traduce un token al id del borrador.
func (s *WizardService) Resolve(token string) (string, error) {
	return s.tokens.Parse(token)
}

func (s *WizardService) Get(ctx context.Context, id string) (Draft, error) {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	return Draft{ID: id, State: st}, nil
}

// Update aplica una operación del wizard. Las ediciones se serializan por borrador.
func (s *WizardService) Update(ctx context.Context, id string, fn func(*wizard.Wizard) error) (Draft, error) {
	st, err := s.store.Update(ctx, id, fn)
	if err != nil {
		return Draft{ID: id, State: st}, err
	}
	return Draft{ID: id, State: st}, nil
}

// Submit congela el borrador. Devuelve el snapshot por valor.
func (s *WizardService) Submit(ctx context.Context, id string) (domain.UserInput, error) {
	var frozen domain.UserInput
	_, err := s.store.Update(ctx, id, func(w *wizard.Wizard) error {
		in, err := w.Submit()
		if err != nil {
			return err
		}
		frozen = in
		return nil
	})
	if err != nil {
		return domain.UserInput{}, err
	}
	metrics.DraftsSubmitted.Inc()
	s.logger.Info("draft submitted",
		zap.String("draft_id", id),
		zap.String("persona", string(frozen.Persona)),
		zap.Int("posts", len(frozen.NonEmptyPosts())),
		zap.Int("images", len(frozen.Images)),
	)
	return frozen, nil
}

// Submission devuelve el snapshot congelado o ErrNoSubmission.
func (s *WizardService) Submission(ctx context.Context, id string) (domain.UserInput, error) {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.UserInput{}, err
	}
	if st.Submission == nil {
		return domain.UserInput{}, ErrNoSubmission
	}
	return st.Submission.Clone(), nil
}

func (s *WizardService) Discard(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
