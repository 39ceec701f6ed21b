package repository

import (
	"fmt"
	"strings"
)

// ReferenceType is the closed set of parent kinds that own reference-scoped rows
type ReferenceType string

const (
	ReferenceEnvironment  ReferenceType = "ENVIRONMENT"
	ReferenceOrganization ReferenceType = "ORGANIZATION"
	ReferenceAPI          ReferenceType = "API"
	ReferenceApplication  ReferenceType = "APPLICATION"
	ReferencePlatform     ReferenceType = "PLATFORM"
	ReferenceDefault      ReferenceType = "DEFAULT"
)

// ReferenceTypes lists every valid reference type
func ReferenceTypes() []ReferenceType {
	return []ReferenceType{
		ReferenceEnvironment,
		ReferenceOrganization,
		ReferenceAPI,
		ReferenceApplication,
		ReferencePlatform,
		ReferenceDefault,
	}
}

// Valid reports whether t is one of the enumerated reference types
func (t ReferenceType) Valid() bool {
	switch t {
	case ReferenceEnvironment, ReferenceOrganization, ReferenceAPI,
		ReferenceApplication, ReferencePlatform, ReferenceDefault:
		return true
	}
	return false
}

func (t ReferenceType) String() string {
	return string(t)
}

// ParseReferenceType accepts the enumerated names case-insensitively
func ParseReferenceType(s string) (ReferenceType, error) {
	t := ReferenceType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown reference type %q", ErrInvalidReference, s)
	}
	return t, nil
}

// Reference identifies a parent scope; both fields always participate in lookups
type Reference struct {
	ID   string
	Type ReferenceType
}

// NewReference builds a reference after validating its type
func NewReference(id string, t ReferenceType) (Reference, error) {
	if id == "" {
		return Reference{}, fmt.Errorf("%w: empty reference id", ErrInvalidReference)
	}
	if !t.Valid() {
		return Reference{}, fmt.Errorf("%w: unknown reference type %q", ErrInvalidReference, t)
	}
	return Reference{ID: id, Type: t}, nil
}

func (r Reference) String() string {
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}

func referenceTypeStrings(types []ReferenceType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
