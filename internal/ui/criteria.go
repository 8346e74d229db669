package ui

import (
	"strings"

	"github.com/hookview/dashboard/internal/view"
)

// ParseCriteria turns a filter expression into view criteria. Tokens of the
// form event:Login, key:userid, expected:string, received:int, status:Valid
// add to the matching constraint set (repeat a prefix to OR values); bare
// words join the case-insensitive value substring. Values with spaces can be
// quoted, e.g. status:"Payload value is Empty".
func ParseCriteria(input string) view.Criteria {
	var c view.Criteria
	var free []string

	for _, tok := range splitTokens(input) {
		prefix, value, ok := strings.Cut(tok, ":")
		if !ok {
			free = append(free, tok)
			continue
		}
		value = strings.Trim(value, `"`)
		if value == "" {
			continue
		}
		switch strings.ToLower(prefix) {
		case "event", "events":
			c.Events = append(c.Events, value)
		case "key", "field", "fields":
			c.Fields = append(c.Fields, value)
		case "expected":
			c.ExpectedTypes = append(c.ExpectedTypes, value)
		case "received":
			c.ReceivedTypes = append(c.ReceivedTypes, value)
		case "status", "statuses":
			c.Statuses = append(c.Statuses, value)
		case "value":
			free = append(free, value)
		default:
			free = append(free, tok)
		}
	}

	c.ValueContains = strings.Join(free, " ")
	return c
}

// splitTokens splits on spaces while keeping quoted spans together.
func splitTokens(input string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false

	for _, r := range input {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ' ' && !inQuote:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
