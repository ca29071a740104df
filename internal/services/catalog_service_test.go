package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/autodetail/internal/models"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
)

func TestCatalogCarsAndModels(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewCatalogService(db)
	require.NoError(t, err)
	ctx := context.Background()
	admin := createTestAccount(t, db, "admin@example.com", models.RoleAdmin)
	user := createTestAccount(t, db, "user@example.com", models.RoleUser)

	_, err = svc.AddCar(ctx, user, CarInput{Brand: "BMW", Model: "X5", Year: intPtr(2012), Color: "Black"})
	require.Equal(t, apperrors.CodeForbidden, apperrors.KindOf(err))

	_, err = svc.AddCar(ctx, admin, CarInput{Brand: "BMW", Model: "X5", Color: "Black"})
	require.Equal(t, apperrors.CodeValidation, apperrors.KindOf(err))

	second, err := svc.AddCar(ctx, admin, CarInput{Brand: "BMW", Model: "X5", Year: intPtr(2014), Color: "White"})
	require.NoError(t, err)
	_, err = svc.AddCar(ctx, admin, CarInput{Brand: "Audi", Model: "A6", Year: intPtr(2011), Color: "Grey"})
	require.NoError(t, err)

	cars, err := svc.ListCars(ctx)
	require.NoError(t, err)
	require.Len(t, cars, 2)
	require.Equal(t, "Audi", cars[0].Brand)

	require.NoError(t, svc.DeleteCar(ctx, admin, second.ID))
	require.Equal(t, apperrors.CodeNotFound, apperrors.KindOf(svc.DeleteCar(ctx, admin, second.ID)))

	first, err := svc.AddCarModel(ctx, admin, " BMW ", "X5")
	require.NoError(t, err)
	again, err := svc.AddCarModel(ctx, admin, "BMW", "X5")
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	_, err = svc.AddCarModel(ctx, admin, "BMW", "X3")
	require.NoError(t, err)
	_, err = svc.AddCarModel(ctx, admin, "Audi", "A4")
	require.NoError(t, err)

	bmw, err := svc.ListCarModels(ctx, "bmw")
	require.NoError(t, err)
	require.Len(t, bmw, 2)
	require.Equal(t, "X3", bmw[0].Model)

	all, err := svc.ListCarModels(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	require.NoError(t, svc.DeleteCarModel(ctx, admin, first.ID))
}

func TestCatalogParts(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewCatalogService(db)
	require.NoError(t, err)
	ctx := context.Background()
	admin := createTestAccount(t, db, "admin@example.com", models.RoleAdmin)

	_, err = svc.AddPart(ctx, admin, PartInput{Name: "Brake pads"})
	require.Equal(t, apperrors.CodeValidation, apperrors.KindOf(err))

	part, err := svc.AddPart(ctx, admin, PartInput{Name: "Brake pads", Category: strPtr("Brakes")})
	require.NoError(t, err)
	_, err = svc.AddPart(ctx, admin, PartInput{Name: "Brake pads", Category: strPtr("Brakes")})
	require.Equal(t, apperrors.CodeConflict, apperrors.KindOf(err))
	_, err = svc.AddPart(ctx, admin, PartInput{Name: "Air filter", Category: strPtr("Engine")})
	require.NoError(t, err)

	parts, err := svc.ListParts(ctx)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	require.Equal(t, "Brake pads", parts[0].Name)

	require.NoError(t, svc.DeletePart(ctx, admin, part.ID))
	require.Equal(t, apperrors.CodeNotFound, apperrors.KindOf(svc.DeletePart(ctx, admin, part.ID)))
}
