package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"footprint-mirror/internal/config"
	"footprint-mirror/internal/domain"
	"footprint-mirror/internal/llm"
	"footprint-mirror/internal/service"
)

const (
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

// Scenario es un input fijo con lo que se espera ver en la reflexión.
type Scenario struct {
	Name     string
	Input    domain.UserInput
	Expected string
}

func scenarios() []Scenario {
	base := domain.UserInput{
		Username:          "@ex",
		Bio:               "Loves hiking and open source",
		Posts:             []string{"Shipped v2 today"},
		Images:            []domain.UserImage{},
		DesiredPerception: "reliable",
	}
	out := make([]Scenario, 0, len(domain.Personas()))
	for _, p := range domain.Personas() {
		in := base.Clone()
		in.Persona = p
		out = append(out, Scenario{
			Name:     "@ex / " + string(p),
			Input:    in,
			Expected: "Lectura desde el lente " + string(p) + "; debe contrastar 'reliable' con lo que proyectan los posts.",
		})
	}
	out = append(out, Scenario{
		Name: "sin posts / Brand",
		Input: domain.UserInput{
			Bio:               "Designer. Coffee. Typography nerd.",
			Posts:             []string{""},
			Images:            []domain.UserImage{},
			DesiredPerception: "premium and calm",
			Persona:           domain.PersonaBrand,
		},
		Expected: "Debe notar la ausencia de contenido publicado como hueco principal.",
	})
	return out
}

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewNop()
	llmClient, err := llm.New(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	reflectionSvc := service.NewReflectionService(llmClient, service.ReflectionPromptBuilder{}, logger)

	var totalLens, totalGap, totalGround, n int
	for _, sc := range scenarios() {
		fmt.Printf("%s[Escenario]%s %s\n", colorCyan, colorReset, sc.Name)

		callCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		result, err := reflectionSvc.Reflect(callCtx, sc.Input)
		cancel()
		if err != nil {
			fmt.Printf("reflection failed: %v\n\n", err)
			continue
		}
		fmt.Printf("%s[Espejo]%s %s\n", colorGreen, colorReset, result.LikelyInterpretation)

		jr, err := evaluateReflection(ctx, llmClient, sc, result)
		if err != nil {
			log.Fatalf("judge failed: %v", err)
		}

		fmt.Printf("%sJuez%s %q\n", colorCyan, colorReset, jr.Reasoning)
		fmt.Printf("Scores: Lente %d/5 | Brecha %d/5 | Sustento %d/5\n\n", jr.LensScore, jr.GapScore, jr.GroundingScore)

		totalLens += jr.LensScore
		totalGap += jr.GapScore
		totalGround += jr.GroundingScore
		n++
	}

	if n == 0 {
		log.Fatal("no scenario produced a reflection")
	}
	fmt.Println("==== Promedios ====")
	fmt.Printf("Lente: %.2f/5 | Brecha: %.2f/5 | Sustento: %.2f/5\n",
		float64(totalLens)/float64(n), float64(totalGap)/float64(n), float64(totalGround)/float64(n))
}
