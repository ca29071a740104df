package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/autodetail/internal/models"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
)

func TestFavoritesIdempotentAdd(t *testing.T) {
	f := newListingFixture(t)
	svc, err := NewFavoriteService(f.db)
	require.NoError(t, err)
	ctx := context.Background()

	listing, err := f.svc.Create(ctx, f.owner, sampleListingInput("10", "AZN"), nil)
	require.NoError(t, err)

	require.NoError(t, svc.Add(ctx, f.other, listing.ID))
	require.NoError(t, svc.Add(ctx, f.other, listing.ID))

	var count int64
	require.NoError(t, f.db.Model(&models.Favorite{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	favorites, err := svc.List(ctx, f.other)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	require.Equal(t, listing.ID, favorites[0].ID)

	require.Equal(t, apperrors.CodeNotFound, apperrors.KindOf(svc.Add(ctx, f.other, "missing")))
	require.Equal(t, apperrors.CodeValidation, apperrors.KindOf(svc.Add(ctx, f.other, "")))

	require.NoError(t, svc.Remove(ctx, f.other, listing.ID))
	require.NoError(t, svc.Remove(ctx, f.other, listing.ID))
	favorites, err = svc.List(ctx, f.other)
	require.NoError(t, err)
	require.Empty(t, favorites)
}
