// Package transform holds the string operations exposed by the service.
package transform

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Uppercase returns s with every character mapped to its upper case form
// using the locale-independent full Unicode mapping, so "ß" becomes "SS".
func Uppercase(s string) string {
	if s == "" {
		return s
	}
	// Casers carry state and must not be shared across goroutines.
	return cases.Upper(language.Und).String(s)
}
