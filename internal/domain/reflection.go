package domain

// ReflectionResult es la respuesta estructurada del modelo generador.
type ReflectionResult struct {
	ObservedSignals      []string             `json:"observedSignals"`
	LikelyInterpretation string               `json:"likelyInterpretation"`
	PossibleMisreadings  string               `json:"possibleMisreadings"`
	WhatsMissing         string               `json:"whatsMissing"`
	IntentVsPerception   []IntentVsPerception `json:"intentVsPerception"`
	SmartSuggestions     []string             `json:"smartSuggestions"`
	ReflectionQuestion   string               `json:"reflectionQuestion"`
}

type IntentVsPerception struct {
	Intent     string `json:"intent"`
	Perception string `json:"perception"`
}

// ReflectionFields lista los campos obligatorios del esquema de respuesta, en orden.
var ReflectionFields = []string{
	"observedSignals",
	"likelyInterpretation",
	"possibleMisreadings",
	"whatsMissing",
	"intentVsPerception",
	"smartSuggestions",
	"reflectionQuestion",
}
