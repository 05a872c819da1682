package main

import (
	"context"
	"strings"
	"testing"

	"footprint-mirror/internal/domain"
	"footprint-mirror/internal/llm"
)

func exampleResult() domain.ReflectionResult {
	return domain.ReflectionResult{
		ObservedSignals:      []string{"mentions shipping"},
		LikelyInterpretation: "A builder who ships.",
		PossibleMisreadings:  "Could read as all work.",
		WhatsMissing:         "Hobbies beyond hiking.",
		IntentVsPerception:   []domain.IntentVsPerception{{Intent: "reliable", Perception: "driven"}},
		SmartSuggestions:     []string{"add portfolio link"},
		ReflectionQuestion:   "What do you want to be known for?",
	}
}

func TestDetectUngroundedSignals(t *testing.T) {
	in := scenarios()[0].Input

	cases := []struct {
		name    string
		signals []string
		expect  bool
	}{
		{name: "shared stem", signals: []string{"mentions shipping"}, expect: false},
		{name: "exact word", signals: []string{"outdoor hiking"}, expect: false},
		{name: "invented", signals: []string{"cooks italian pasta"}, expect: true},
		{name: "no signals", signals: nil, expect: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := exampleResult()
			r.ObservedSignals = tc.signals
			if got := detectUngroundedSignals(in, r); got != tc.expect {
				t.Fatalf("detectUngroundedSignals(%v)=%v want %v", tc.signals, got, tc.expect)
			}
		})
	}
}

func TestClampAndScore(t *testing.T) {
	if clamp1to5(0) != 1 || clamp1to5(9) != 5 || clamp1to5(3) != 3 {
		t.Fatalf("clamp1to5 out of range")
	}
	if toScore(float64(4)) != 4 || toScore(" 4/5") != 4 || toScore(nil) != 0 {
		t.Fatalf("toScore parsing mismatch")
	}
}

func TestEvaluateReflectionParsesWrappedJSON(t *testing.T) {
	judge := &llm.MockClient{Response: "Claro:\n{\"reasoning\": \"ok\", \"lens_score\": 4, \"gap_score\": 7, \"grounding_score\": \"5\"}"}
	sc := scenarios()[0]

	jr, err := evaluateReflection(context.Background(), judge, sc, exampleResult())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if jr.LensScore != 4 || jr.GapScore != 5 || jr.GroundingScore != 5 || jr.Reasoning != "ok" {
		t.Fatalf("unexpected judge response %#v", jr)
	}
	req := judge.LastRequest()
	if req.Schema == nil || !strings.Contains(req.Prompt, "Observador: Recruiter") {
		t.Fatalf("judge request missing schema or persona: %q", req.Prompt)
	}
}

func TestEvaluateReflectionCapsUngroundedScore(t *testing.T) {
	judge := &llm.MockClient{Response: `{"reasoning": "r", "lens_score": 5, "gap_score": 5, "grounding_score": 5}`}
	r := exampleResult()
	r.ObservedSignals = []string{"cooks italian pasta"}

	jr, err := evaluateReflection(context.Background(), judge, scenarios()[0], r)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if jr.GroundingScore != 2 {
		t.Fatalf("expected grounding capped at 2, got %d", jr.GroundingScore)
	}
}

func TestEvaluateReflectionRejectsNonJSON(t *testing.T) {
	judge := &llm.MockClient{Response: "no puedo evaluar"}
	if _, err := evaluateReflection(context.Background(), judge, scenarios()[0], exampleResult()); err == nil {
		t.Fatalf("expected error for non-json judge output")
	}
}

func TestEvaluateReflectionBraceInsideReasoning(t *testing.T) {
	responses := []string{
		"Evaluación:\n{\"reasoning\": \"usa {llaves} y cierra } antes\", \"lens_score\": 3, \"gap_score\": 4, \"grounding_score\": 5} fin",
		"```json\n{\"reasoning\": \"cita \\\"}\\\" literal\", \"lens_score\": 3, \"gap_score\": 4, \"grounding_score\": 5}\n```",
	}
	for _, resp := range responses {
		judge := &llm.MockClient{Response: resp}
		jr, err := evaluateReflection(context.Background(), judge, scenarios()[0], exampleResult())
		if err != nil {
			t.Fatalf("response %q: %v", resp, err)
		}
		if jr.LensScore != 3 || jr.GapScore != 4 || jr.GroundingScore != 5 {
			t.Fatalf("response %q: unexpected scores %#v", resp, jr)
		}
		if !strings.Contains(jr.Reasoning, "}") {
			t.Fatalf("response %q: reasoning truncated %q", resp, jr.Reasoning)
		}
	}
}
