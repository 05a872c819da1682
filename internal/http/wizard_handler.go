package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"footprint-mirror/internal/domain"
	"footprint-mirror/internal/ingest"
	"footprint-mirror/internal/metrics"
	"footprint-mirror/internal/service"
	"footprint-mirror/internal/wizard"
)

// WizardHandler expone las operaciones del wizard sobre un borrador.
type WizardHandler struct {
	logger            *zap.Logger
	wizards           *service.WizardService
	ingestConcurrency int
	draftTTL          time.Duration
}

func NewWizardHandler(logger *zap.Logger, wizards *service.WizardService, ingestConcurrency int, draftTTL time.Duration) *WizardHandler {
	return &WizardHandler{
		logger:            logger,
		wizards:           wizards,
		ingestConcurrency: ingestConcurrency,
		draftTTL:          draftTTL,
	}
}

type draftResponse struct {
	ID         string           `json:"id"`
	Token      string           `json:"token,omitempty"`
	Step       int              `json:"step"`
	StepCount  int              `json:"step_count"`
	StepTitle  string           `json:"step_title"`
	StepPrompt string           `json:"step_prompt"`
	CanAdvance bool             `json:"can_advance"`
	CanSubmit  bool             `json:"can_submit"`
	Submitted  bool             `json:"submitted"`
	Draft      domain.UserInput `json:"draft"`
	Next       string           `json:"next,omitempty"`
}

func newDraftResponse(d service.Draft) (draftResponse, error) {
	w, err := wizard.Restore(d.State)
	if err != nil {
		return draftResponse{}, err
	}
	step := w.Step()
	return draftResponse{
		ID:         d.ID,
		Token:      d.Token,
		Step:       int(step),
		StepCount:  wizard.StepCount,
		StepTitle:  step.Title(),
		StepPrompt: step.Prompt(),
		CanAdvance: w.CanAdvance(),
		CanSubmit:  w.CanSubmit(),
		Submitted:  w.IsSubmitted(),
		Draft:      w.Draft(),
	}, nil
}

type updateFieldsRequest struct {
	Username          *string `json:"username"`
	Bio               *string `json:"bio"`
	DesiredPerception *string `json:"desired_perception"`
	Persona           *string `json:"persona" binding:"omitempty,persona"`
}

type postRequest struct {
	Text *string `json:"text" binding:"required"`
}

type addPostRequest struct {
	Text string `json:"text"`
}

type failedFile struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type uploadResponse struct {
	draftResponse
	Added  int          `json:"added"`
	Failed []failedFile `json:"failed"`
}

// Open maneja GET /input: devuelve el borrador del token o crea uno nuevo.
func (h *WizardHandler) Open(c *gin.Context) {
	if id, ok := resolveDraftID(c, h.wizards); ok {
		d, err := h.wizards.Get(c.Request.Context(), id)
		if err == nil {
			h.respondDraft(c, http.StatusOK, d)
			return
		}
		if !errors.Is(err, service.ErrDraftNotFound) {
			respondError(c, h.logger, "get draft", err)
			return
		}
	}
	h.create(c)
}

// Restart maneja POST /input: descarta el borrador presentado y empieza otro.
func (h *WizardHandler) Restart(c *gin.Context) {
	if id, ok := resolveDraftID(c, h.wizards); ok {
		if err := h.wizards.Discard(c.Request.Context(), id); err != nil && !errors.Is(err, service.ErrDraftNotFound) {
			respondError(c, h.logger, "discard draft", err)
			return
		}
	}
	h.create(c)
}

func (h *WizardHandler) create(c *gin.Context) {
	d, err := h.wizards.Create(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "create draft", err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(draftCookieName, d.Token, int(h.draftTTL.Seconds()), "/", "", false, true)
	h.respondDraft(c, http.StatusCreated, d)
}

// UpdateFields maneja PATCH /input/fields.
func (h *WizardHandler) UpdateFields(c *gin.Context) {
	var req updateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "update fields", err)
		return
	}

	h.apply(c, "update fields", func(w *wizard.Wizard) error {
		if req.Username != nil {
			if err := w.SetUsername(*req.Username); err != nil {
				return err
			}
		}
		if req.Bio != nil {
			if err := w.SetBio(*req.Bio); err != nil {
				return err
			}
		}
		if req.DesiredPerception != nil {
			if err := w.SetDesiredPerception(*req.DesiredPerception); err != nil {
				return err
			}
		}
		if req.Persona != nil {
			p, err := domain.ParsePersona(*req.Persona)
			if err != nil {
				return err
			}
			if err := w.SetPersona(p); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddPost maneja POST /input/posts. El body es opcional.
func (h *WizardHandler) AddPost(c *gin.Context) {
	var req addPostRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, h.logger, "add post", err)
		return
	}
	h.apply(c, "add post", func(w *wizard.Wizard) error {
		return w.AddPost(req.Text)
	})
}

// SetPost maneja PUT /input/posts/:index.
func (h *WizardHandler) SetPost(c *gin.Context) {
	idx, ok := indexParam(c)
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "set post", err)
		return
	}
	h.apply(c, "set post", func(w *wizard.Wizard) error {
		return w.SetPost(idx, *req.Text)
	})
}

// RemovePost maneja DELETE /input/posts/:index.
func (h *WizardHandler) RemovePost(c *gin.Context) {
	idx, ok := indexParam(c)
	if !ok {
		return
	}
	h.apply(c, "remove post", func(w *wizard.Wizard) error {
		return w.RemovePost(idx)
	})
}

// UploadImages maneja POST /input/images (multipart, campo "images").
// Cada archivo se reporta por separado; los exitosos se agregan juntos y en orden.
func (h *WizardHandler) UploadImages(c *gin.Context) {
	id, ok := GetDraftID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing draft token"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		h.logger.Warn("invalid multipart upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no images provided"})
		return
	}

	ctx := c.Request.Context()
	results := ingest.Ingest(ctx, ingest.FromMultipart(files), h.ingestConcurrency)

	failed := make([]failedFile, 0)
	for _, r := range results {
		metrics.ObserveImageIngest(r.OK())
		if !r.OK() {
			h.logger.Warn("image ingestion failed", zap.String("draft_id", id), zap.String("file", r.Name), zap.Error(r.Err))
			failed = append(failed, failedFile{Name: r.Name, Error: r.Err.Error()})
		}
	}

	images := ingest.Images(results)
	var d service.Draft
	if len(images) > 0 {
		d, err = h.wizards.Update(ctx, id, func(w *wizard.Wizard) error {
			return w.AddImages(images...)
		})
	} else {
		d, err = h.wizards.Get(ctx, id)
	}
	if err != nil {
		respondError(c, h.logger, "upload images", err)
		return
	}

	resp, err := newDraftResponse(d)
	if err != nil {
		respondError(c, h.logger, "upload images", err)
		return
	}
	c.JSON(http.StatusOK, uploadResponse{draftResponse: resp, Added: len(images), Failed: failed})
}

// RemoveImage maneja DELETE /input/images/:index.
func (h *WizardHandler) RemoveImage(c *gin.Context) {
	idx, ok := indexParam(c)
	if !ok {
		return
	}
	h.apply(c, "remove image", func(w *wizard.Wizard) error {
		return w.RemoveImage(idx)
	})
}

// Advance maneja POST /input/advance.
func (h *WizardHandler) Advance(c *gin.Context) {
	h.apply(c, "advance", func(w *wizard.Wizard) error {
		return w.Advance()
	})
}

// Retreat maneja POST /input/retreat.
func (h *WizardHandler) Retreat(c *gin.Context) {
	h.apply(c, "retreat", func(w *wizard.Wizard) error {
		return w.Retreat()
	})
}

// Submit maneja POST /input/submit y apunta al cliente a /reflection.
func (h *WizardHandler) Submit(c *gin.Context) {
	id, ok := GetDraftID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing draft token"})
		return
	}
	ctx := c.Request.Context()
	if _, err := h.wizards.Submit(ctx, id); err != nil {
		respondError(c, h.logger, "submit", err)
		return
	}
	d, err := h.wizards.Get(ctx, id)
	if err != nil {
		respondError(c, h.logger, "submit", err)
		return
	}
	resp, err := newDraftResponse(d)
	if err != nil {
		respondError(c, h.logger, "submit", err)
		return
	}
	resp.Next = reflectionPath
	c.JSON(http.StatusOK, resp)
}

// apply ejecuta una operación del wizard sobre el borrador del token.
func (h *WizardHandler) apply(c *gin.Context, op string, fn func(*wizard.Wizard) error) {
	id, ok := GetDraftID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing draft token"})
		return
	}
	d, err := h.wizards.Update(c.Request.Context(), id, fn)
	if err != nil {
		respondError(c, h.logger, op, err)
		return
	}
	h.respondDraft(c, http.StatusOK, d)
}

func (h *WizardHandler) respondDraft(c *gin.Context, status int, d service.Draft) {
	resp, err := newDraftResponse(d)
	if err != nil {
		respondError(c, h.logger, "render draft", err)
		return
	}
	c.JSON(status, resp)
}

func indexParam(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return 0, false
	}
	return idx, true
}
