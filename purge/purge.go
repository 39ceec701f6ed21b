// Package purge removes a parent scope and everything it owns in one transaction
package purge

import (
	"context"
	"fmt"
	"sort"

	"github.com/apimgmt/mgmtrepo/db"
	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/apimgmt/mgmtrepo/repository"
	"gorm.io/gorm"
)

// Report lists what a purge removed, by entity. Licenses are listed by owning
// reference (TYPE:ID) since a license has no id of its own.
type Report struct {
	Reference repository.Reference
	Removed   map[string][]string
}

func newReport(ref repository.Reference) *Report {
	return &Report{Reference: ref, Removed: map[string][]string{}}
}

func (r *Report) add(entity string, ids ...string) {
	if len(ids) == 0 {
		return
	}
	r.Removed[entity] = append(r.Removed[entity], ids...)
}

// Total is the number of removed rows across all entities
func (r *Report) Total() int {
	n := 0
	for _, ids := range r.Removed {
		n += len(ids)
	}
	return n
}

// Entities returns the entity names with at least one removal, sorted
func (r *Report) Entities() []string {
	names := make([]string, 0, len(r.Removed))
	for name := range r.Removed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Purger runs cascading deletes
type Purger struct {
	db     *gorm.DB
	retry  db.RetryConfig
	logger *slogging.Logger
}

// NewPurger creates a purger over db. Transient failures retry the whole
// transaction according to retry.
func NewPurger(gdb *gorm.DB, retry db.RetryConfig) *Purger {
	return &Purger{db: gdb, retry: retry, logger: slogging.Get()}
}

// Purge deletes ref and every row it owns. Nothing is removed unless every step succeeds.
func (p *Purger) Purge(ctx context.Context, ref repository.Reference) (*Report, error) {
	if !ref.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", repository.ErrInvalidReference, ref.Type)
	}
	if ref.ID == "" {
		return nil, fmt.Errorf("%w: empty reference id", repository.ErrInvalidReference)
	}

	var report *Report
	err := db.WithRetryableTransaction(ctx, p.db, p.retry, func(tx *gorm.DB) error {
		repos := repository.NewGormRepositories(tx)
		report = newReport(ref)
		switch ref.Type {
		case repository.ReferenceEnvironment:
			return purgeEnvironment(ctx, repos, ref.ID, report)
		case repository.ReferenceOrganization:
			return purgeOrganization(ctx, repos, ref.ID, report)
		case repository.ReferenceAPI:
			return purgeAPI(ctx, repos, ref.ID, report)
		case repository.ReferenceApplication:
			return purgeApplication(ctx, repos, ref.ID, report)
		case repository.ReferencePlatform, repository.ReferenceDefault:
			return purgeScope(ctx, repos, ref, report)
		default:
			return fmt.Errorf("%w: %q", repository.ErrInvalidReference, ref.Type)
		}
	})
	if err != nil {
		p.logger.Error("Purge of %s failed: %v", ref, err)
		return nil, err
	}

	p.logger.Info("Purged %s: %d rows across %d entities", ref, report.Total(), len(report.Removed))
	return report, nil
}

type step struct {
	entity string
	run    func(context.Context) ([]string, error)
}

func runSteps(ctx context.Context, report *Report, steps []step) error {
	for _, s := range steps {
		ids, err := s.run(ctx)
		if err != nil {
			return fmt.Errorf("purge %s: %w", s.entity, err)
		}
		report.add(s.entity, ids...)
	}
	return nil
}

// byReference adapts a reference-scoped bulk delete to a step
func byReference(entity string, del func(context.Context, string, repository.ReferenceType) ([]string, error), id string, t repository.ReferenceType) step {
	return step{entity: entity, run: func(ctx context.Context) ([]string, error) {
		return del(ctx, id, t)
	}}
}

// byID adapts a single-key bulk delete to a step
func byID(entity string, del func(context.Context, string) ([]string, error), id string) step {
	return step{entity: entity, run: func(ctx context.Context) ([]string, error) {
		return del(ctx, id)
	}}
}

func purgeEnvironment(ctx context.Context, repos *repository.Repositories, envID string, report *Report) error {
	env := repository.ReferenceEnvironment
	err := runSteps(ctx, report, []step{
		byReference("tags", repos.Tags.DeleteByReferenceIDAndReferenceType, envID, env),
		byReference("tenants", repos.Tenants.DeleteByReferenceIDAndReferenceType, envID, env),
		byReference("pages", repos.Pages.DeleteByReferenceIDAndReferenceType, envID, env),
		byReference("flows", repos.Flows.DeleteByReferenceIDAndReferenceType, envID, env),
		byReference("dashboards", repos.Dashboards.DeleteByReferenceIDAndReferenceType, envID, env),
		byReference("themes", repos.Themes.DeleteByReferenceIDAndReferenceType, envID, env),
		byReference("alertTriggers", repos.AlertTriggers.DeleteByReferenceIDAndReferenceType, envID, env),
		byReference("metadata", repos.Metadata.DeleteByReferenceIDAndReferenceType, envID, env),
		byID("portalPages", repos.PortalPages.DeleteByEnvironmentID, envID),
		byID("portalMenuLinks", repos.PortalMenuLinks.DeleteByEnvironmentID, envID),
		byID("portalNavigationItems", repos.PortalNavigationItems.DeleteByEnvironmentID, envID),
		byID("subscriptionForms", repos.SubscriptionForms.DeleteByEnvironmentID, envID),
		byID("asyncJobs", repos.AsyncJobs.DeleteByEnvironmentID, envID),
		byID("tickets", repos.Tickets.DeleteByEnvironmentID, envID),
		byID("events", repos.Events.DeleteByEnvironmentID, envID),
		{entity: "licenses", run: func(ctx context.Context) ([]string, error) {
			return deleteLicense(ctx, repos, envID, env)
		}},
	})
	if err != nil {
		return err
	}

	found, err := repos.Environments.FindByID(ctx, envID)
	if err != nil {
		return err
	}
	if found.IsEmpty() {
		return nil
	}
	if err := repos.Environments.Delete(ctx, envID); err != nil {
		return fmt.Errorf("purge environments: %w", err)
	}
	report.add("environments", envID)
	return nil
}

func purgeOrganization(ctx context.Context, repos *repository.Repositories, orgID string, report *Report) error {
	envs, err := repos.Environments.FindByOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	for _, env := range envs {
		if err := purgeEnvironment(ctx, repos, env.ID, report); err != nil {
			return err
		}
	}

	org := repository.ReferenceOrganization
	err = runSteps(ctx, report, []step{
		byReference("tags", repos.Tags.DeleteByReferenceIDAndReferenceType, orgID, org),
		byReference("tenants", repos.Tenants.DeleteByReferenceIDAndReferenceType, orgID, org),
		byReference("pages", repos.Pages.DeleteByReferenceIDAndReferenceType, orgID, org),
		byReference("themes", repos.Themes.DeleteByReferenceIDAndReferenceType, orgID, org),
		byReference("flows", repos.Flows.DeleteByReferenceIDAndReferenceType, orgID, org),
		byID("portalNavigationItems", repos.PortalNavigationItems.DeleteByOrganizationID, orgID),
		{entity: "licenses", run: func(ctx context.Context) ([]string, error) {
			return deleteLicense(ctx, repos, orgID, org)
		}},
	})
	if err != nil {
		return err
	}

	found, err := repos.Organizations.FindByID(ctx, orgID)
	if err != nil {
		return err
	}
	if found.IsEmpty() {
		return nil
	}
	if err := repos.Organizations.Delete(ctx, orgID); err != nil {
		return fmt.Errorf("purge organizations: %w", err)
	}
	report.add("organizations", orgID)
	return nil
}

func purgeAPI(ctx context.Context, repos *repository.Repositories, apiID string, report *Report) error {
	api := repository.ReferenceAPI
	return runSteps(ctx, report, []step{
		byReference("flows", repos.Flows.DeleteByReferenceIDAndReferenceType, apiID, api),
		byReference("pages", repos.Pages.DeleteByReferenceIDAndReferenceType, apiID, api),
		byReference("workflows", repos.Workflows.DeleteByReferenceIDAndReferenceType, apiID, api),
		byReference("metadata", repos.Metadata.DeleteByReferenceIDAndReferenceType, apiID, api),
		byReference("alertTriggers", repos.AlertTriggers.DeleteByReferenceIDAndReferenceType, apiID, api),
		byID("apiQualityRules", repos.ApiQualityRules.DeleteByAPI, apiID),
		byID("apiCategoryOrders", repos.ApiCategoryOrders.DeleteByAPIID, apiID),
	})
}

func purgeApplication(ctx context.Context, repos *repository.Repositories, appID string, report *Report) error {
	app := repository.ReferenceApplication
	return runSteps(ctx, report, []step{
		byReference("metadata", repos.Metadata.DeleteByReferenceIDAndReferenceType, appID, app),
		byReference("workflows", repos.Workflows.DeleteByReferenceIDAndReferenceType, appID, app),
		byReference("alertTriggers", repos.AlertTriggers.DeleteByReferenceIDAndReferenceType, appID, app),
	})
}

// purgeScope handles the PLATFORM and DEFAULT scopes, which own no parent row
func purgeScope(ctx context.Context, repos *repository.Repositories, ref repository.Reference, report *Report) error {
	return runSteps(ctx, report, []step{
		byReference("tags", repos.Tags.DeleteByReferenceIDAndReferenceType, ref.ID, ref.Type),
		byReference("tenants", repos.Tenants.DeleteByReferenceIDAndReferenceType, ref.ID, ref.Type),
		{entity: "licenses", run: func(ctx context.Context) ([]string, error) {
			return deleteLicense(ctx, repos, ref.ID, ref.Type)
		}},
	})
}

func deleteLicense(ctx context.Context, repos *repository.Repositories, id string, t repository.ReferenceType) ([]string, error) {
	found, err := repos.Licenses.FindByID(ctx, id, t)
	if err != nil || found.IsEmpty() {
		return nil, err
	}
	if err := repos.Licenses.Delete(ctx, id, t); err != nil {
		return nil, err
	}
	return []string{repository.Reference{ID: id, Type: t}.String()}, nil
}
