package repository_test

import (
	"context"
	"testing"

	"github.com/apimgmt/mgmtrepo/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortalPages(t *testing.T) {
	repos, _ := setup(t, "portal")
	ctx := context.Background()
	pageID := func(p repository.PortalPage) string { return p.ID }

	byIDs, err := repos.PortalPages.FindByIDs(ctx, []string{"portal-page-3", "portal-page-1", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"portal-page-1", "portal-page-3"}, ids(byIDs, pageID))

	none, err := repos.PortalPages.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	byEnv, err := repos.PortalPages.FindByEnvironmentID(ctx, "DEFAULT")
	require.NoError(t, err)
	assert.Equal(t, []string{"portal-page-1", "portal-page-2"}, ids(byEnv, pageID))

	err = repos.PortalPages.Delete(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.True(t, repository.IsNotFound(err))

	require.NoError(t, repos.PortalPages.Delete(ctx, "portal-page-2"))
	err = repos.PortalPages.Delete(ctx, "portal-page-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPortalMenuLinks(t *testing.T) {
	repos, _ := setup(t, "portal")
	ctx := context.Background()
	linkID := func(l repository.PortalMenuLink) string { return l.ID }

	all, err := repos.PortalMenuLinks.FindByEnvironmentIDSortByOrder(ctx, "DEFAULT")
	require.NoError(t, err)
	assert.Equal(t, []string{"link-2", "link-1", "link-3"}, ids(all, linkID))

	public, err := repos.PortalMenuLinks.FindByEnvironmentIDAndVisibilitySortByOrder(ctx, "DEFAULT", repository.MenuLinkPublic)
	require.NoError(t, err)
	assert.Equal(t, []string{"link-1", "link-3"}, ids(public, linkID))

	found, err := repos.PortalMenuLinks.FindByIDAndEnvironmentID(ctx, "link-4", "env-2")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.staging.example.com", found.MustGet().Target)

	found, err = repos.PortalMenuLinks.FindByIDAndEnvironmentID(ctx, "link-4", "DEFAULT")
	require.NoError(t, err)
	assert.True(t, found.IsEmpty())
}

func TestPortalMenuLinkRejectsUnknownVisibility(t *testing.T) {
	repos, _ := setup(t)
	_, err := repos.PortalMenuLinks.Create(context.Background(), &repository.PortalMenuLink{
		ID: "l", EnvironmentID: "DEFAULT", Name: "n", Type: "EXTERNAL", Visibility: "SECRET",
	})
	assert.Error(t, err)
}

func TestPortalNavigationItems(t *testing.T) {
	repos, _ := setup(t, "portal")
	ctx := context.Background()
	navID := func(i repository.PortalNavigationItem) string { return i.ID }
	items := repos.PortalNavigationItems

	t.Run("by organization and environment", func(t *testing.T) {
		got, err := items.FindAllByOrganizationIDAndEnvironmentID(ctx, "DEFAULT", "DEFAULT")
		require.NoError(t, err)
		assert.Equal(t, []string{"nav-guides-link", "nav-home", "nav-guides", "nav-guides-intro"}, ids(got, navID))
	})

	t.Run("by area", func(t *testing.T) {
		got, err := items.FindAllByAreaAndEnvironmentID(ctx, repository.AreaTopNavbar, "DEFAULT")
		require.NoError(t, err)
		assert.Equal(t, []string{"nav-guides-link", "nav-guides", "nav-guides-intro"}, ids(got, navID))
	})

	t.Run("children of a folder", func(t *testing.T) {
		got, err := items.FindAllByParentIDAndEnvironmentID(ctx, "nav-guides", "DEFAULT")
		require.NoError(t, err)
		assert.Equal(t, []string{"nav-guides-link", "nav-guides-intro"}, ids(got, navID))
		assert.Equal(t, map[string]string{"url": "https://community.example.com"}, got[0].Configuration)
		assert.Equal(t, repository.NavigationLink, got[0].Type)
	})

	t.Run("roots", func(t *testing.T) {
		got, err := items.FindRootsByAreaAndEnvironmentID(ctx, repository.AreaTopNavbar, "DEFAULT")
		require.NoError(t, err)
		assert.Equal(t, []string{"nav-guides"}, ids(got, navID))

		got, err = items.FindRootsByAreaAndEnvironmentID(ctx, repository.AreaHomepage, "env-2")
		require.NoError(t, err)
		assert.Equal(t, []string{"nav-staging"}, ids(got, navID))
	})
}

func TestSubscriptionForms(t *testing.T) {
	repos, _ := setup(t, "portal")
	ctx := context.Background()

	found, err := repos.SubscriptionForms.FindByEnvironmentID(ctx, "DEFAULT")
	require.NoError(t, err)
	form := found.MustGet()
	assert.Equal(t, "form-1", form.ID)
	assert.True(t, form.Enabled)

	found, err = repos.SubscriptionForms.FindByIDAndEnvironmentID(ctx, "form-1", "env-2")
	require.NoError(t, err)
	assert.True(t, found.IsEmpty())

	_, err = repos.SubscriptionForms.Create(ctx, &repository.SubscriptionForm{ID: "form-2", EnvironmentID: "DEFAULT"})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	_, err = repos.SubscriptionForms.Update(ctx, &repository.SubscriptionForm{ID: "form-9", EnvironmentID: "env-2"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, repos.SubscriptionForms.Delete(ctx, "form-9"))
}
