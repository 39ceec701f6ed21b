package repository_test

import (
	"context"
	"testing"

	"github.com/apimgmt/mgmtrepo/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageID(p repository.DocumentationPage) string { return p.ID }

func TestPageSearch(t *testing.T) {
	repos, _ := setup(t, "pages")
	ctx := context.Background()
	api := func(c repository.PageCriteria) *repository.PageCriteria {
		c.ReferenceID = "api-1"
		c.ReferenceType = repository.ReferenceAPI
		return &c
	}

	tests := []struct {
		name     string
		criteria *repository.PageCriteria
		want     []string
	}{
		{name: "whole reference by order", criteria: api(repository.PageCriteria{}), want: []string{"page-child-1", "page-home", "page-child-2", "page-folder"}},
		{name: "homepage", criteria: api(repository.PageCriteria{Homepage: ptr(true)}), want: []string{"page-home"}},
		{name: "roots", criteria: api(repository.PageCriteria{RootParent: ptr(true)}), want: []string{"page-home", "page-folder"}},
		{name: "children", criteria: api(repository.PageCriteria{RootParent: ptr(false)}), want: []string{"page-child-1", "page-child-2"}},
		{name: "published children", criteria: api(repository.PageCriteria{Parent: "page-folder", Published: ptr(true)}), want: []string{"page-child-1"}},
		{name: "type", criteria: api(repository.PageCriteria{Type: "FOLDER"}), want: []string{"page-folder"}},
		{name: "name", criteria: api(repository.PageCriteria{Name: "Advanced usage"}), want: []string{"page-child-2"}},
		{name: "visibility", criteria: api(repository.PageCriteria{Visibility: "PRIVATE"}), want: []string{"page-child-2"}},
		{name: "auto fetch", criteria: api(repository.PageCriteria{UseAutoFetch: ptr(true)}), want: []string{"page-child-1"}},
		{name: "other reference", criteria: &repository.PageCriteria{ReferenceID: "DEFAULT", ReferenceType: repository.ReferenceEnvironment}, want: []string{"page-env"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := repos.Pages.Search(ctx, tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(pages, pageID))
		})
	}
}

func TestPageFindByIDMapsOptionalColumns(t *testing.T) {
	repos, _ := setup(t, "pages")
	ctx := context.Background()

	found, err := repos.Pages.FindByID(ctx, "page-child-1")
	require.NoError(t, err)
	child := found.MustGet()
	assert.Equal(t, "page-folder", child.ParentID)
	assert.Equal(t, 1, child.Order)
	require.NotNil(t, child.UseAutoFetch)
	assert.True(t, *child.UseAutoFetch)
	assert.Equal(t, map[string]string{"fetcher": "github"}, child.Configuration)

	found, err = repos.Pages.FindByID(ctx, "page-home")
	require.NoError(t, err)
	home := found.MustGet()
	assert.Empty(t, home.ParentID)
	assert.Nil(t, home.UseAutoFetch)
	assert.Nil(t, home.Configuration)
	assert.Equal(t, day(2024, 1, 1), home.CreatedAt)
}

func TestPageFindMaxOrder(t *testing.T) {
	repos, _ := setup(t, "pages")
	ctx := context.Background()

	highest, err := repos.Pages.FindMaxOrder(ctx, "api-1", repository.ReferenceAPI)
	require.NoError(t, err)
	assert.Equal(t, 2, highest.MustGet())

	highest, err = repos.Pages.FindMaxOrder(ctx, "DEFAULT", repository.ReferenceEnvironment)
	require.NoError(t, err)
	assert.Equal(t, 5, highest.MustGet())

	highest, err = repos.Pages.FindMaxOrder(ctx, "api-9", repository.ReferenceAPI)
	require.NoError(t, err)
	assert.True(t, highest.IsEmpty())
}

func TestPageCountAndFindAll(t *testing.T) {
	repos, _ := setup(t, "pages")
	ctx := context.Background()

	n, err := repos.Pages.CountByParentIDAndIsPublished(ctx, "page-folder")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repos.Pages.CountByParentIDAndIsPublished(ctx, "page-home")
	require.NoError(t, err)
	assert.Zero(t, n)

	page, err := repos.Pages.FindAll(ctx, &repository.Pageable{PageNumber: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalElements)
	assert.Equal(t, []string{"page-env", "page-folder"}, ids(page.Content, pageID))
}
