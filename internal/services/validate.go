package services

import (
	"fmt"
	"sort"
	"strings"
)

// FieldErrors maps a field name to its validation messages, one message per
// violated rule. Handlers render it verbatim as a 400 body.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

func (e FieldErrors) add(field, message string) {
	e[field] = append(e[field], message)
}
