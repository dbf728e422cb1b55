package repository

import (
	"context"
	"testing"

	"storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository(t *testing.T) {
	resetTables(t)
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	seedCategory(t, "Phones", true)
	seedCategory(t, "Archive", false)
	seedCategory(t, "Laptops", true)

	t.Run("names are unique", func(t *testing.T) {
		dup, err := domain.NewCategory("Phones", "")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrCategoryAlreadyExists)
	})

	t.Run("list returns every category by name", func(t *testing.T) {
		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Archive", "Laptops", "Phones"}, categoryNames(all))
	})

	t.Run("active categories only", func(t *testing.T) {
		active, err := repo.FetchActiveCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptops", "Phones"}, categoryNames(active))
	})

	t.Run("find by name", func(t *testing.T) {
		found, err := repo.FindByName(ctx, "Archive")
		require.NoError(t, err)
		assert.False(t, found.Active)

		_, err = repo.FindByName(ctx, "Missing")
		assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	})

	t.Run("toggling a category hides its products", func(t *testing.T) {
		require.NoError(t, repo.SetActive(ctx, "Phones", false))
		active, err := repo.FetchActiveCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptops"}, categoryNames(active))

		assert.ErrorIs(t, repo.SetActive(ctx, "Missing", true), domain.ErrCategoryNotFound)
	})
}

func categoryNames(categories []*domain.Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}
