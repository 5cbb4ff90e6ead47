// Package prompt screens shopper messages before they reach the language
// model or the conversation store.
package prompt

import (
	"errors"
	"fmt"
	"regexp"
)

// InjectionType represents different types of prompt injection attempts
type InjectionType string

const (
	InjectionTypeSystemPromptLeak    InjectionType = "system_prompt_leak"
	InjectionTypeRoleManipulation    InjectionType = "role_manipulation"
	InjectionTypeInstructionOverride InjectionType = "instruction_override"
	InjectionTypeJailbreak           InjectionType = "jailbreak"
	InjectionTypeDelimiterAttack     InjectionType = "delimiter_attack"
)

// rejectThreshold is the confidence at which a detection blocks the message
const rejectThreshold = 0.8

// ErrInjection is returned by Screen when a message is rejected
var ErrInjection = errors.New("potential prompt injection")

// InjectionDetection represents a detected injection attempt
type InjectionDetection struct {
	Type       InjectionType
	Confidence float64
	StartPos   int
	EndPos     int
}

type injectionRule struct {
	kind       InjectionType
	confidence float64
	patterns   []*regexp.Regexp
}

var injectionRules = []injectionRule{
	{
		kind:       InjectionTypeSystemPromptLeak,
		confidence: 0.9,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)ignore\s+(previous|all|above|prior)\s+(instructions?|prompts?|commands?)`),
			regexp.MustCompile(`(?i)(show|reveal|print|repeat)\s+(me\s+)?(your|the)\s+(system|original|initial|hidden)\s+(prompt|instructions?)`),
			regexp.MustCompile(`(?i)what\s+(is|are|was|were)\s+(your|the)\s+(system|original|initial)\s+(prompt|instructions?)`),
		},
	},
	{
		kind:       InjectionTypeRoleManipulation,
		confidence: 0.85,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)assume\s+(the\s+)?(role|identity)\s+of`),
			regexp.MustCompile(`(?i)pretend\s+(to\s+)?be\s+(a|an)\s`),
			regexp.MustCompile(`(?i)from\s+now\s+on[,]?\s+(you|your)\s+(are|will)`),
		},
	},
	{
		kind:       InjectionTypeInstructionOverride,
		confidence: 0.9,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)disregard\s+(all|previous|above|any)\s+(instructions?|rules|commands?)`),
			regexp.MustCompile(`(?i)override\s+(all|previous|system)\s+(instructions?|rules|settings?)`),
			regexp.MustCompile(`(?i)forget\s+(everything|all\s+previous|your\s+instructions)`),
		},
	},
	{
		kind:       InjectionTypeJailbreak,
		confidence: 0.95,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bDAN\s+mode`),
			regexp.MustCompile(`(?i)developer\s+mode`),
			regexp.MustCompile(`(?i)\bjailbreak`),
			regexp.MustCompile(`(?i)without\s+(any|ethical|moral)\s+(restrictions?|limitations?|guidelines?)`),
		},
	},
	{
		kind:       InjectionTypeDelimiterAttack,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(\[SYSTEM\]|\[/SYSTEM\]|\[ASSISTANT\]|\[/ASSISTANT\])`),
			regexp.MustCompile(`(<\|system\|>|<\|user\|>|<\|assistant\|>|<\|end\|>)`),
			regexp.MustCompile(`###\s*(SYSTEM|ASSISTANT|INSTRUCTION)`),
		},
	},
}

// DetectInjections returns every injection pattern found in message
func DetectInjections(message string) []InjectionDetection {
	var detections []InjectionDetection
	for _, rule := range injectionRules {
		for _, pattern := range rule.patterns {
			for _, match := range pattern.FindAllStringIndex(message, -1) {
				detections = append(detections, InjectionDetection{
					Type:       rule.kind,
					Confidence: rule.confidence,
					StartPos:   match[0],
					EndPos:     match[1],
				})
			}
		}
	}
	return detections
}

// Screen rejects high-confidence injection attempts and returns message with
// personal data redacted.
func Screen(message string) (string, error) {
	for _, d := range DetectInjections(message) {
		if d.Confidence >= rejectThreshold {
			return "", fmt.Errorf("%w: %s (confidence: %.2f)", ErrInjection, d.Type, d.Confidence)
		}
	}
	return RedactPII(message), nil
}
