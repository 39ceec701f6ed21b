// Package models - hooks.go holds GORM lifecycle hooks that validate enumerated
// columns. They stand in for CHECK constraints so every dialect rejects the same rows.
package models

import (
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"
)

// ErrInvalidValue is returned by save hooks when an enumerated column holds an unknown value
var ErrInvalidValue = errors.New("invalid column value")

var referenceTypes = []string{"ENVIRONMENT", "ORGANIZATION", "API", "APPLICATION", "PLATFORM", "DEFAULT"}

func validateEnum(column, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%w: %s=%q", ErrInvalidValue, column, value)
}

func validateReferenceType(value string) error {
	return validateEnum("reference_type", value, referenceTypes...)
}

// BeforeSave validates Tag before create or update
func (t *Tag) BeforeSave(*gorm.DB) error { return validateReferenceType(t.ReferenceType) }

// BeforeSave validates Tenant before create or update
func (t *Tenant) BeforeSave(*gorm.DB) error { return validateReferenceType(t.ReferenceType) }

// BeforeSave validates Workflow before create or update
func (w *Workflow) BeforeSave(*gorm.DB) error { return validateReferenceType(w.ReferenceType) }

// BeforeSave validates AlertTrigger before create or update
func (a *AlertTrigger) BeforeSave(*gorm.DB) error { return validateReferenceType(a.ReferenceType) }

// BeforeSave validates License before create or update
func (l *License) BeforeSave(*gorm.DB) error { return validateReferenceType(l.ReferenceType) }

// BeforeSave validates Page before create or update
func (p *Page) BeforeSave(*gorm.DB) error {
	if err := validateReferenceType(p.ReferenceType); err != nil {
		return err
	}
	return validateEnum("visibility", p.Visibility, "", "PUBLIC", "PRIVATE")
}

// BeforeSave validates PortalMenuLink before create or update
func (p *PortalMenuLink) BeforeSave(*gorm.DB) error {
	return validateEnum("visibility", p.Visibility, "PUBLIC", "PRIVATE")
}

// BeforeSave validates PortalNavigationItem before create or update
func (p *PortalNavigationItem) BeforeSave(*gorm.DB) error {
	if err := validateEnum("type", p.Type, "FOLDER", "PAGE", "LINK"); err != nil {
		return err
	}
	return validateEnum("area", p.Area, "HOMEPAGE", "TOP_NAVBAR")
}

// BeforeSave validates AsyncJob before create or update
func (a *AsyncJob) BeforeSave(*gorm.DB) error {
	return validateEnum("status", a.Status, "PENDING", "SUCCESS", "ERROR", "TIMEOUT")
}

// BeforeSave validates Flow before create or update
func (f *Flow) BeforeSave(*gorm.DB) error { return validateReferenceType(f.ReferenceType) }

// BeforeSave validates Dashboard before create or update
func (d *Dashboard) BeforeSave(*gorm.DB) error { return validateReferenceType(d.ReferenceType) }

// BeforeSave validates Theme before create or update
func (t *Theme) BeforeSave(*gorm.DB) error { return validateReferenceType(t.ReferenceType) }

// BeforeSave validates Metadata before create or update
func (m *Metadata) BeforeSave(*gorm.DB) error {
	if err := validateReferenceType(m.ReferenceType); err != nil {
		return err
	}
	return validateEnum("format", m.Format, "STRING", "NUMERIC", "BOOLEAN", "DATE", "MAIL", "URL")
}
