// Package validator checks request structs with go-playground/validator and
// reports failures keyed by the snake_case JSON field name.
package validator
