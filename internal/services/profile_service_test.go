package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/autodetail/internal/models"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
)

func TestProfileUpdateAndImages(t *testing.T) {
	db := openServiceTestDB(t)
	images, store := newTestImages(t)
	svc, err := NewProfileService(db, images)
	require.NoError(t, err)
	ctx := context.Background()
	account := createTestAccount(t, db, "me@example.com", models.RoleUser)

	_, err = svc.Update(ctx, account, UpdateProfileInput{Name: "  "})
	require.Equal(t, apperrors.CodeValidation, apperrors.KindOf(err))

	updated, err := svc.Update(ctx, account, UpdateProfileInput{Name: " Me ", Phone: strPtr(" 555 ")})
	require.NoError(t, err)
	require.Equal(t, "Me", updated.DisplayName)
	require.Equal(t, "555", *updated.Phone)

	firstURL, err := svc.SetImage(ctx, updated, []byte("avatar-1"))
	require.NoError(t, err)
	require.True(t, store.has(firstURL))

	var reloaded models.Account
	require.NoError(t, db.Where("id = ?", account.ID).Take(&reloaded).Error)
	require.Equal(t, firstURL, *reloaded.ProfileImageURL)

	secondURL, err := svc.SetImage(ctx, &reloaded, []byte("avatar-2"))
	require.NoError(t, err)
	require.False(t, store.has(firstURL), "previous avatar is removed")

	require.NoError(t, db.Where("id = ?", account.ID).Take(&reloaded).Error)
	require.NoError(t, svc.RemoveImage(ctx, &reloaded))
	require.False(t, store.has(secondURL))

	require.NoError(t, db.Where("id = ?", account.ID).Take(&reloaded).Error)
	require.Nil(t, reloaded.ProfileImageURL)

	_, err = svc.SetImage(ctx, &reloaded, nil)
	require.Equal(t, apperrors.CodeValidation, apperrors.KindOf(err))
}

func TestProfileGetListsOwnListings(t *testing.T) {
	f := newListingFixture(t)
	images, _ := newTestImages(t)
	svc, err := NewProfileService(f.db, images)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = f.svc.Create(ctx, f.owner, sampleListingInput("10", "AZN"), nil)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.other, sampleListingInput("10", "AZN"), nil)
	require.NoError(t, err)

	profile, err := svc.Get(ctx, f.owner)
	require.NoError(t, err)
	require.Equal(t, f.owner.ID, profile.Account.ID)
	require.Len(t, profile.Listings, 1)
}
