package cache

import (
	"context"
	"time"

	"github.com/apimgmt/mgmtrepo/repository"
)

// Options tune the decorated repositories
type Options struct {
	TTL       time.Duration
	KeyPrefix string
}

// Wrap returns a copy of repos whose environment, organization and license
// repositories read through backend. A nil backend returns repos unchanged.
func Wrap(repos *repository.Repositories, backend Backend, opts Options) *repository.Repositories {
	if backend == nil {
		return repos
	}
	wrapped := *repos
	wrapped.Environments = NewEnvironmentRepository(repos.Environments, backend, opts)
	wrapped.Organizations = NewOrganizationRepository(repos.Organizations, backend, opts)
	wrapped.Licenses = NewLicenseRepository(repos.Licenses, backend, opts)
	return &wrapped
}

// EnvironmentRepository caches FindByID; every other finder goes straight to the database
type EnvironmentRepository struct {
	repository.EnvironmentRepository
	cache *readThrough[repository.Environment]
}

func NewEnvironmentRepository(inner repository.EnvironmentRepository, backend Backend, opts Options) *EnvironmentRepository {
	return &EnvironmentRepository{
		EnvironmentRepository: inner,
		cache:                 newReadThrough[repository.Environment](backend, opts, "environment"),
	}
}

func (r *EnvironmentRepository) FindByID(ctx context.Context, id string) (repository.Optional[repository.Environment], error) {
	return r.cache.get(ctx, id, func(ctx context.Context) (repository.Optional[repository.Environment], error) {
		return r.EnvironmentRepository.FindByID(ctx, id)
	})
}

func (r *EnvironmentRepository) Update(ctx context.Context, env *repository.Environment) (repository.Environment, error) {
	updated, err := r.EnvironmentRepository.Update(ctx, env)
	if err == nil {
		r.cache.evict(ctx, env.ID)
	}
	return updated, err
}

func (r *EnvironmentRepository) Delete(ctx context.Context, id string) error {
	err := r.EnvironmentRepository.Delete(ctx, id)
	r.cache.evict(ctx, id)
	return err
}

// OrganizationRepository caches FindByID
type OrganizationRepository struct {
	repository.OrganizationRepository
	cache *readThrough[repository.Organization]
}

func NewOrganizationRepository(inner repository.OrganizationRepository, backend Backend, opts Options) *OrganizationRepository {
	return &OrganizationRepository{
		OrganizationRepository: inner,
		cache:                  newReadThrough[repository.Organization](backend, opts, "organization"),
	}
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (repository.Optional[repository.Organization], error) {
	return r.cache.get(ctx, id, func(ctx context.Context) (repository.Optional[repository.Organization], error) {
		return r.OrganizationRepository.FindByID(ctx, id)
	})
}

func (r *OrganizationRepository) Update(ctx context.Context, org *repository.Organization) (repository.Organization, error) {
	updated, err := r.OrganizationRepository.Update(ctx, org)
	if err == nil {
		r.cache.evict(ctx, org.ID)
	}
	return updated, err
}

func (r *OrganizationRepository) Delete(ctx context.Context, id string) error {
	err := r.OrganizationRepository.Delete(ctx, id)
	r.cache.evict(ctx, id)
	return err
}

// LicenseRepository caches FindByID, keyed by the owning reference
type LicenseRepository struct {
	repository.LicenseRepository
	cache *readThrough[repository.License]
}

func NewLicenseRepository(inner repository.LicenseRepository, backend Backend, opts Options) *LicenseRepository {
	return &LicenseRepository{
		LicenseRepository: inner,
		cache:             newReadThrough[repository.License](backend, opts, "license"),
	}
}

func licenseKey(referenceID string, referenceType repository.ReferenceType) string {
	return repository.Reference{ID: referenceID, Type: referenceType}.String()
}

func (r *LicenseRepository) FindByID(ctx context.Context, referenceID string, referenceType repository.ReferenceType) (repository.Optional[repository.License], error) {
	return r.cache.get(ctx, licenseKey(referenceID, referenceType), func(ctx context.Context) (repository.Optional[repository.License], error) {
		return r.LicenseRepository.FindByID(ctx, referenceID, referenceType)
	})
}

func (r *LicenseRepository) Update(ctx context.Context, license *repository.License) (repository.License, error) {
	updated, err := r.LicenseRepository.Update(ctx, license)
	if err == nil {
		r.cache.evict(ctx, licenseKey(license.ReferenceID, license.ReferenceType))
	}
	return updated, err
}

func (r *LicenseRepository) Delete(ctx context.Context, referenceID string, referenceType repository.ReferenceType) error {
	err := r.LicenseRepository.Delete(ctx, referenceID, referenceType)
	r.cache.evict(ctx, licenseKey(referenceID, referenceType))
	return err
}

var (
	_ repository.EnvironmentRepository  = (*EnvironmentRepository)(nil)
	_ repository.OrganizationRepository = (*OrganizationRepository)(nil)
	_ repository.LicenseRepository      = (*LicenseRepository)(nil)
)

// Evict drops cached entries for rows removed outside the decorated repositories,
// such as by a purge. entity is "environment", "organization" or "license";
// license keys are TYPE:ID reference strings.
func Evict(ctx context.Context, backend Backend, opts Options, entity string, keys ...string) error {
	if backend == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, opts.KeyPrefix+entity+":"+k)
	}
	return backend.Delete(ctx, full...)
}
