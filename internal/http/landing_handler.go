package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"footprint-mirror/internal/domain"
	"footprint-mirror/internal/wizard"
)

// LandingHandler sirve la vista raíz: qué hace el espejo y cómo se recorre.
type LandingHandler struct{}

func NewLandingHandler() *LandingHandler {
	return &LandingHandler{}
}

type personaView struct {
	Name        domain.Persona `json:"name"`
	Description string         `json:"description"`
	Default     bool           `json:"default,omitempty"`
}

type stepView struct {
	Step   int    `json:"step"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

type phaseView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var phases = []phaseView{
	{Title: "Signal Capture", Description: "Consolidate the fragments of your identity: bios, snippets, and artifacts."},
	{Title: "Lens Calibration", Description: "Select the observer. Recruiter, Brand, or Creator. Every lens sees a new truth."},
	{Title: "Synthesis", Description: "A calm, intelligent report on your digital aura and how to align it with intent."},
}

// Landing maneja GET /.
func (h *LandingHandler) Landing(c *gin.Context) {
	personas := make([]personaView, 0, len(domain.Personas()))
	for _, p := range domain.Personas() {
		personas = append(personas, personaView{
			Name:        p,
			Description: p.Description(),
			Default:     p == domain.DefaultPersona,
		})
	}

	steps := make([]stepView, 0, wizard.StepCount)
	for s := wizard.StepIdentity; s <= wizard.StepCount; s++ {
		steps = append(steps, stepView{Step: int(s), Title: s.Title(), Prompt: s.Prompt()})
	}

	c.JSON(http.StatusOK, gin.H{
		"name":     "Digital Footprint Mirror",
		"tagline":  "Your digital echo. A reflection of the space between personal intent and public perception.",
		"personas": personas,
		"steps":    steps,
		"phases":   phases,
		"start":    inputPath,
	})
}
