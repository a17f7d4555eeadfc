// Package validation wraps go-playground/validator with readable,
// json-named messages and a "notblank" rule for free-text input.
package validation
