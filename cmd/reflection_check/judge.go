package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"footprint-mirror/internal/domain"
	"footprint-mirror/internal/llm"
	"footprint-mirror/internal/service"
)

// judgeResponse representa la evaluación estructurada del juez.
type judgeResponse struct {
	Reasoning      string `json:"reasoning"`
	LensScore      int    `json:"lens_score"`
	GapScore       int    `json:"gap_score"`
	GroundingScore int    `json:"grounding_score"`
}

func judgeSchema() *llm.Schema {
	score := func(desc string) *llm.Schema {
		return &llm.Schema{Type: llm.TypeInteger, Description: desc}
	}
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"reasoning":       {Type: llm.TypeString, Description: "Short justification."},
			"lens_score":      score("1-5: alignment with the observer persona."),
			"gap_score":       score("1-5: how well the intent/perception gap is addressed."),
			"grounding_score": score("1-5: signals are grounded in the provided input."),
		},
		Required: []string{"reasoning", "lens_score", "gap_score", "grounding_score"},
		Order:    []string{"reasoning", "lens_score", "gap_score", "grounding_score"},
	}
}

func evaluateReflection(ctx context.Context, judge llm.LLMClient, sc Scenario, result domain.ReflectionResult) (judgeResponse, error) {
	ungrounded := detectUngroundedSignals(sc.Input, result)
	heuristicLine := fmt.Sprintf("Indicadores heurísticos: señales_sin_sustento=%t", ungrounded)

	raw, err := judge.Generate(ctx, llm.Request{
		Prompt: buildJudgePrompt(sc, result, heuristicLine),
		Schema: judgeSchema(),
	})
	if err != nil {
		return judgeResponse{}, err
	}

	jsonStr := service.ExtractJSONObject(raw)
	if jsonStr == "" {
		return judgeResponse{}, fmt.Errorf("juez devolvió no-json: %q", raw)
	}

	var loose map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &loose); err != nil {
		return judgeResponse{}, fmt.Errorf("error parseando JSON juez: %w (raw=%q)", err, jsonStr)
	}

	jr := judgeResponse{
		Reasoning:      fmt.Sprint(loose["reasoning"]),
		LensScore:      clamp1to5(toScore(loose["lens_score"])),
		GapScore:       clamp1to5(toScore(loose["gap_score"])),
		GroundingScore: clamp1to5(toScore(loose["grounding_score"])),
	}

	// Penalización dura si ninguna señal se apoya en el input
	if ungrounded && jr.GroundingScore > 2 {
		jr.GroundingScore = 2
	}
	return jr, nil
}

// toScore acepta el puntaje como número o como texto ("4", "4/5").
func toScore(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		var out int
		_, _ = fmt.Sscanf(strings.TrimSpace(n), "%d", &out)
		return out
	}
	return 0
}

func clamp1to5(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

// detectUngroundedSignals es true cuando ninguna señal observada comparte
// una palabra significativa con la bio o los posts.
func detectUngroundedSignals(in domain.UserInput, r domain.ReflectionResult) bool {
	if len(r.ObservedSignals) == 0 {
		return true
	}
	vocab := make(map[string]struct{})
	for _, w := range significantWords(in.Bio + " " + strings.Join(in.NonEmptyPosts(), " ")) {
		vocab[w] = struct{}{}
	}
	if len(vocab) == 0 {
		return false
	}
	for _, s := range r.ObservedSignals {
		for _, w := range significantWords(s) {
			if _, ok := vocab[w]; ok {
				return false
			}
			// "shipping" cuenta como apoyo de "shipped"
			for v := range vocab {
				if len(w) >= 5 && len(v) >= 5 && w[:4] == v[:4] {
					return false
				}
			}
		}
	}
	return true
}

func significantWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(normalizeASCIIString(s)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 3 {
			out = append(out, f)
		}
	}
	return out
}

func normalizeASCIIString(s string) string {
	replacer := strings.NewReplacer(
		"á", "a", "à", "a", "ä", "a", "â", "a",
		"é", "e", "è", "e", "ë", "e", "ê", "e",
		"í", "i", "ì", "i", "ï", "i", "î", "i",
		"ó", "o", "ò", "o", "ö", "o", "ô", "o",
		"ú", "u", "ù", "u", "ü", "u", "û", "u",
		"ñ", "n",
	)
	return replacer.Replace(strings.ToLower(s))
}

func buildJudgePrompt(sc Scenario, r domain.ReflectionResult, heuristicLine string) string {
	pairs := make([]string, 0, len(r.IntentVsPerception))
	for _, p := range r.IntentVsPerception {
		pairs = append(pairs, fmt.Sprintf("%s -> %s", p.Intent, p.Perception))
	}
	return fmt.Sprintf(
		`Eres un juez experto que evalúa reflexiones sobre huellas digitales.

Observador: %s (%s)
Bio: %q
Posts: %q
Percepción deseada: %q
%s

Reflexión:
- Señales: %q
- Interpretación: %q
- Malentendidos: %q
- Lo que falta: %q
- Intención vs percepción: %q
- Sugerencias: %q
- Pregunta: %q
Expectativa del escenario: %s

Evalúa (1-5):
1) Lente: ¿La lectura adopta el punto de vista del observador?
2) Brecha: ¿Compara la percepción deseada con la percibida de forma concreta?
3) Sustento: ¿Las señales salen del input y no se inventan?
   - Si señales_sin_sustento=true => Sustento máximo 2/5.

Responde SOLO JSON (sin markdown):
{
  "reasoning": "...",
  "lens_score": 0,
  "gap_score": 0,
  "grounding_score": 0
}`,
		sc.Input.Persona, sc.Input.Persona.Description(),
		sc.Input.Bio, sc.Input.NonEmptyPosts(), sc.Input.DesiredPerception,
		heuristicLine,
		r.ObservedSignals, r.LikelyInterpretation, r.PossibleMisreadings, r.WhatsMissing,
		pairs, r.SmartSuggestions, r.ReflectionQuestion,
		sc.Expected,
	)
}
