package core

import (
	"reflect"
	"strings"
)

const (
	// OrKey introduces a disjunction inside a conjunction unit.
	OrKey = "or"

	// NegatedPrefix prefixes the negated filter generated for every field.
	NegatedPrefix = "not_"
)

// KeyMatcher decides whether a conjunction key introduces a disjunction.
type KeyMatcher func(key string) bool

// ExactOrKey matches the reserved key only.
func ExactOrKey(key string) bool {
	return key == OrKey
}

// ContainsOrKey matches any key containing "or". Fields such as "origin" or
// "ordinal" are then treated as disjunctions, never as field filters.
func ContainsOrKey(key string) bool {
	return strings.Contains(key, OrKey)
}

// modelMethods are the entry points of Model; custom filters may not take them.
var modelMethods = map[string]struct{}{
	"all":           {},
	"apply":         {},
	"apply_to":      {},
	"define_filter": {},
	"fields":        {},
	"filter":        {},
	"filter_from":   {},
	"filters":       {},
	"plan":          {},
}

func isModelMethod(name string) bool {
	_, ok := modelMethods[name]
	return ok
}

// NegatedName returns the filter name of the negated field filter.
func NegatedName(field string) string {
	return NegatedPrefix + field
}

func isZero[Q any](q Q) bool {
	return reflect.ValueOf(&q).Elem().IsZero()
}
