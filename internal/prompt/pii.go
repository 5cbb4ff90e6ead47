package prompt

import (
	"regexp"
	"strings"
)

// PIIType represents different types of PII that can be detected
type PIIType string

const (
	PIITypeEmail      PIIType = "email"
	PIITypePhone      PIIType = "phone"
	PIITypeSSN        PIIType = "ssn"
	PIITypeCreditCard PIIType = "credit_card"
)

type piiRule struct {
	kind    PIIType
	pattern *regexp.Regexp
	// accept filters false positives; nil accepts every match
	accept func(string) bool
}

// Rules run in order. Card numbers go first so their digits are not
// mistaken for phone numbers.
var piiRules = []piiRule{
	{
		kind:    PIITypeCreditCard,
		pattern: regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
		accept:  luhnCheck,
	},
	{
		kind:    PIITypeEmail,
		pattern: regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
	},
	{
		kind:    PIITypeSSN,
		pattern: regexp.MustCompile(`\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`),
	},
	{
		// Separators are required so prices and order numbers are left alone
		kind:    PIITypePhone,
		pattern: regexp.MustCompile(`(?:\+?\d{1,3}[-.\s])?\(?\b\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`),
	},
}

// DetectPII returns the kinds of personal data found in message, in rule order
func DetectPII(message string) []PIIType {
	var found []PIIType
	for _, rule := range piiRules {
		for _, m := range rule.pattern.FindAllString(message, -1) {
			if rule.accept == nil || rule.accept(m) {
				found = append(found, rule.kind)
				break
			}
		}
	}
	return found
}

// RedactPII replaces personal data with a typed placeholder
func RedactPII(message string) string {
	for _, rule := range piiRules {
		rule := rule
		message = rule.pattern.ReplaceAllStringFunc(message, func(m string) string {
			if rule.accept != nil && !rule.accept(m) {
				return m
			}
			return redaction(rule.kind)
		})
	}
	return message
}

func redaction(kind PIIType) string {
	switch kind {
	case PIITypeEmail:
		return "[EMAIL_REDACTED]"
	case PIITypePhone:
		return "[PHONE_REDACTED]"
	case PIITypeSSN:
		return "[SSN_REDACTED]"
	case PIITypeCreditCard:
		return "[CC_REDACTED]"
	default:
		return "[REDACTED]"
	}
}

// luhnCheck validates a card number using the Luhn algorithm
func luhnCheck(cardNumber string) bool {
	cardNumber = strings.ReplaceAll(cardNumber, " ", "")
	cardNumber = strings.ReplaceAll(cardNumber, "-", "")

	if len(cardNumber) < 13 || len(cardNumber) > 19 {
		return false
	}

	sum := 0
	isSecond := false
	for i := len(cardNumber) - 1; i >= 0; i-- {
		digit := int(cardNumber[i] - '0')
		if isSecond {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		isSecond = !isSecond
	}

	return sum%10 == 0
}
