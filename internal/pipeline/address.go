package pipeline

import (
	"strings"
)

// MailAddress is a mailing address split into components. A nil field means
// the component could not be found.
type MailAddress struct {
	Street *string `json:"street,omitempty"`
	City   *string `json:"city,omitempty"`
	State  *string `json:"state,omitempty"`
	Zip    *string `json:"zip,omitempty"`
}

// streetSuffixes are the tokens that end the street part of a mailing
// address written without commas.
var streetSuffixes = map[string]bool{
	"st": true, "street": true, "ave": true, "av": true, "avenue": true,
	"rd": true, "road": true, "dr": true, "drive": true, "ln": true, "lane": true,
	"blvd": true, "boulevard": true, "ct": true, "court": true, "way": true,
	"pl": true, "place": true, "cir": true, "circle": true, "ter": true, "terrace": true,
	"pkwy": true, "parkway": true, "hwy": true, "highway": true, "trl": true, "trail": true,
	"loop": true, "sq": true, "plz": true,
}

var unitDesignators = map[string]bool{
	"apt": true, "unit": true, "ste": true, "suite": true, "#": true, "bldg": true, "fl": true,
}

// ParseMailAddress splits a free-text mailing address into street, city,
// state and zip. It accepts "street, city ST ZIP" and "street city ST ZIP".
// A zip is kept only if it is all digits. Malformed input yields nil
// components, never an error.
func ParseMailAddress(raw string) MailAddress {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return MailAddress{}
	}
	if strings.Contains(raw, ",") {
		return parseCommaAddress(raw)
	}
	return parseBareAddress(raw)
}

func parseCommaAddress(raw string) MailAddress {
	parts := strings.Split(raw, ",")
	addr := MailAddress{Street: optional(strings.TrimSpace(parts[0]))}
	if len(parts) < 2 {
		return addr
	}

	rest := strings.TrimSpace(strings.Join(parts[1:], ","))
	if rest == "" {
		return addr
	}

	idx := strings.LastIndex(rest, " ")
	if idx < 0 {
		return addr
	}

	zipCand := strings.TrimSpace(rest[idx+1:])
	stateCity := strings.TrimSpace(rest[:idx])
	if isDigits(zipCand) {
		addr.Zip = optional(zipCand)
	}

	if j := strings.LastIndex(stateCity, " "); j >= 0 {
		addr.State = optional(strings.TrimSpace(stateCity[j+1:]))
		addr.City = optional(strings.TrimSpace(strings.TrimRight(stateCity[:j], ",")))
	} else {
		addr.State = optional(strings.TrimRight(stateCity, ","))
	}
	return addr
}

func parseBareAddress(raw string) MailAddress {
	tokens := strings.Fields(raw)
	n := len(tokens)
	if n < 3 || !isDigits(tokens[n-1]) || !isStateCode(tokens[n-2]) {
		return MailAddress{Street: optional(raw)}
	}

	addr := MailAddress{
		State: optional(tokens[n-2]),
		Zip:   optional(tokens[n-1]),
	}
	body := tokens[:n-2]

	end := streetEnd(body)
	if end < 0 {
		addr.Street = optional(strings.Join(body, " "))
		return addr
	}
	addr.Street = optional(strings.Join(body[:end+1], " "))
	addr.City = optional(strings.Join(body[end+1:], " "))
	return addr
}

// streetEnd returns the index of the last token belonging to the street, or
// -1 when no street suffix is present. A unit designator and its number
// directly after the suffix stay with the street.
func streetEnd(tokens []string) int {
	end := -1
	for i, tok := range tokens {
		if i == 0 {
			continue
		}
		if streetSuffixes[normalizeToken(tok)] {
			end = i
		}
	}
	if end < 0 {
		return -1
	}
	if end+1 < len(tokens) {
		next := normalizeToken(tokens[end+1])
		switch {
		case strings.HasPrefix(tokens[end+1], "#") && len(tokens[end+1]) > 1:
			end++
		case unitDesignators[next] && end+2 < len(tokens):
			end += 2
		}
	}
	return end
}

func normalizeToken(tok string) string {
	return strings.ToLower(strings.TrimRight(tok, ".,"))
}

func isStateCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
