package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"footprint-mirror/internal/config"
	"footprint-mirror/internal/domain"
	"footprint-mirror/internal/ingest"
	"footprint-mirror/internal/llm"
	"footprint-mirror/internal/service"
	"footprint-mirror/internal/wizard"
)

const reflectionTimeout = 2 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()
	// El CLI no emite tokens de borrador.
	if os.Getenv("DRAFT_TOKEN_SECRET") == "" {
		_ = os.Setenv("DRAFT_TOKEN_SECRET", "cli")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	llmClient, err := llm.New(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	reflectionSvc := service.NewReflectionService(llmClient, service.ReflectionPromptBuilder{}, logger)

	for {
		fmt.Println("===== Digital Footprint Mirror =====")
		w := wizard.New()
		input, err := runWizard(ctx, reader, w, cfg.IngestConcurrency)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Fatalf("wizard: %v", err)
		}

		fmt.Println("\nAnalizando señales...")
		reflectCtx, cancel := context.WithTimeout(ctx, reflectionTimeout)
		result, err := reflectionSvc.Reflect(reflectCtx, input)
		cancel()
		if err != nil {
			var rerr *service.ReflectionError
			if errors.As(err, &rerr) {
				fmt.Printf("\n%s\n", rerr.Message)
			} else {
				fmt.Printf("\nError: %v\n", err)
			}
		} else {
			printReflection(input, result)
		}

		fmt.Print("\n¿Otra reflexión? [s/N]: ")
		again, _ := reader.ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(again), "s") {
			return
		}
	}
}

// runWizard recorre los tres pasos sobre el mismo Wizard que usa el servidor.
func runWizard(ctx context.Context, reader *bufio.Reader, w *wizard.Wizard, concurrency int) (domain.UserInput, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.UserInput{}, err
		}
		step := w.Step()
		fmt.Printf("\n--- Paso %d/%d: %s ---\n%s\n", step, wizard.StepCount, step.Title(), step.Prompt())

		switch step {
		case wizard.StepIdentity:
			identityStep(ctx, reader, w, concurrency)
		case wizard.StepObserver:
			observerStep(reader, w)
		case wizard.StepIntent:
			intentStep(reader, w)
		}

		if step == wizard.StepCount {
			if !confirm(reader, "¿Enviar? [S/n/v=volver]: ", w) {
				continue
			}
			return w.Submit()
		}
		if err := w.Advance(); err != nil {
			if errors.Is(err, wizard.ErrStepIncomplete) {
				fmt.Println("La bio necesita más de 5 caracteres.")
				continue
			}
			return domain.UserInput{}, err
		}
	}
}

func identityStep(ctx context.Context, reader *bufio.Reader, w *wizard.Wizard, concurrency int) {
	draft := w.Draft()
	_ = w.SetUsername(prompt(reader, fmt.Sprintf("Usuario [%s]: ", draft.Username), draft.Username))
	_ = w.SetBio(prompt(reader, "Bio: ", draft.Bio))

	fmt.Println("Posts recientes (línea vacía para terminar):")
	idx := 0
	for {
		line := prompt(reader, fmt.Sprintf("  post %d > ", idx+1), "")
		if line == "" {
			break
		}
		if idx < len(w.Draft().Posts) {
			_ = w.SetPost(idx, line)
		} else {
			_ = w.AddPost(line)
		}
		idx++
	}

	paths := prompt(reader, "Imágenes (rutas separadas por coma, vacío para omitir): ", "")
	if paths == "" {
		return
	}
	var sources []ingest.Source
	for _, p := range strings.Split(paths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			sources = append(sources, ingest.FileSource{Path: p})
		}
	}
	results := ingest.Ingest(ctx, sources, concurrency)
	for _, r := range results {
		if !r.OK() {
			fmt.Printf("  no se pudo leer %s: %v\n", r.Name, r.Err)
		}
	}
	if imgs := ingest.Images(results); len(imgs) > 0 {
		_ = w.AddImages(imgs...)
		fmt.Printf("  %d imagen(es) agregada(s)\n", len(imgs))
	}
}

func observerStep(reader *bufio.Reader, w *wizard.Wizard) {
	current := w.Draft().Persona
	for i, p := range domain.Personas() {
		marker := " "
		if p == current {
			marker = "*"
		}
		fmt.Printf("[%d]%s %s: %s\n", i+1, marker, p, p.Description())
	}
	choice := prompt(reader, "Observador: ", "")
	if choice == "" {
		return
	}
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(domain.Personas()) {
		_ = w.SetPersona(domain.Personas()[n-1])
		return
	}
	p, err := domain.ParsePersona(choice)
	if err != nil {
		fmt.Println("Selección inválida, se mantiene", current)
		return
	}
	_ = w.SetPersona(p)
}

func intentStep(reader *bufio.Reader, w *wizard.Wizard) {
	draft := w.Draft()
	_ = w.SetDesiredPerception(prompt(reader, "Percepción deseada: ", draft.DesiredPerception))
}

// confirm devuelve true para enviar; "v" vuelve al paso anterior.
func confirm(reader *bufio.Reader, label string, w *wizard.Wizard) bool {
	answer := strings.ToLower(prompt(reader, label, "s"))
	switch answer {
	case "v":
		_ = w.Retreat()
		return false
	case "n":
		return false
	}
	if !w.CanSubmit() {
		fmt.Println("Faltan datos para enviar; volviendo al inicio.")
		for w.Step() > wizard.StepIdentity {
			_ = w.Retreat()
		}
		return false
	}
	return true
}

func prompt(reader *bufio.Reader, label, fallback string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}
	return line
}

func printReflection(in domain.UserInput, r domain.ReflectionResult) {
	fmt.Printf("\n===== Synthesized Reflection (%s) =====\n", in.Persona)

	fmt.Println("\nCore Interpretation")
	fmt.Println("  " + r.LikelyInterpretation)

	fmt.Println("\nBroadcasted Signals")
	for _, s := range r.ObservedSignals {
		fmt.Println("  - " + s)
	}

	fmt.Println("\nIntent Convergence")
	for _, ip := range r.IntentVsPerception {
		fmt.Printf("  Latent Intent:       %s\n  Public Manifestation: %s\n", ip.Intent, ip.Perception)
	}

	fmt.Println("\nPotential Misreadings")
	fmt.Println("  " + r.PossibleMisreadings)

	fmt.Println("\nPerceptual Gaps")
	fmt.Println("  " + r.WhatsMissing)

	fmt.Println("\nStrategic Adjustments")
	for i, s := range r.SmartSuggestions {
		fmt.Printf("  %d. %s\n", i+1, s)
	}

	fmt.Printf("\n\"%s\"\n", r.ReflectionQuestion)
}
