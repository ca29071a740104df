package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/autodetail/internal/models"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
)

// CarInput describes a catalog car created by an administrator.
type CarInput struct {
	Brand string
	Model string
	Year  *int
	Color string
}

// PartInput describes a reference part type.
type PartInput struct {
	Name        string
	Category    *string
	Description *string
}

// CatalogService manages the reference data used by listing forms: cars,
// brand to model mappings and part types.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB) (*CatalogService, error) {
	if db == nil {
		return nil, errors.New("catalog service: db is required")
	}
	return &CatalogService{db: db}, nil
}

// ListCars returns the approved catalog.
func (s *CatalogService) ListCars(ctx context.Context) ([]models.Car, error) {
	ctx = ensureContext(ctx)

	var cars []models.Car
	if err := s.db.WithContext(ctx).
		Order("brand ASC").Order("model ASC").Order("year ASC").Order("color ASC").
		Find(&cars).Error; err != nil {
		return nil, fmt.Errorf("catalog service: list cars: %w", err)
	}
	return cars, nil
}

// AddCar inserts a catalog car verbatim.
func (s *CatalogService) AddCar(ctx context.Context, actor *models.Account, input CarInput) (*models.Car, error) {
	ctx = ensureContext(ctx)

	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	brand := strings.TrimSpace(input.Brand)
	model := strings.TrimSpace(input.Model)
	color := strings.TrimSpace(input.Color)
	if brand == "" || model == "" || color == "" || input.Year == nil {
		return nil, apperrors.NewValidation("Brand, model, year and color are required")
	}

	car := &models.Car{Brand: brand, Model: model, Year: *input.Year, Color: color}
	if err := s.db.WithContext(ctx).Create(car).Error; err != nil {
		return nil, fmt.Errorf("catalog service: add car: %w", err)
	}
	return car, nil
}

// DeleteCar removes a catalog car.
func (s *CatalogService) DeleteCar(ctx context.Context, actor *models.Account, id string) error {
	return s.deleteByID(ctx, actor, &models.Car{}, id, "Car")
}

// ListCarModels returns brand to model mappings, optionally restricted to one brand.
func (s *CatalogService) ListCarModels(ctx context.Context, brand string) ([]models.CarModel, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.CarModel{})
	if brand = strings.TrimSpace(brand); brand != "" {
		query = query.Where("LOWER(brand) = ?", strings.ToLower(brand))
	}

	var rows []models.CarModel
	if err := query.Order("brand ASC").Order("model ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("catalog service: list car models: %w", err)
	}
	return rows, nil
}

// AddCarModel records a brand/model pair. Adding an existing pair is a no-op
// that returns the stored row.
func (s *CatalogService) AddCarModel(ctx context.Context, actor *models.Account, brand, model string) (*models.CarModel, error) {
	ctx = ensureContext(ctx)

	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	brand = strings.TrimSpace(brand)
	model = strings.TrimSpace(model)
	if brand == "" || model == "" {
		return nil, apperrors.NewValidation("Brand and model are required")
	}

	row := &models.CarModel{Brand: brand, Model: model}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, fmt.Errorf("catalog service: add car model: %w", err)
	}

	var stored models.CarModel
	if err := s.db.WithContext(ctx).Where("brand = ? AND model = ?", brand, model).Take(&stored).Error; err != nil {
		return nil, fmt.Errorf("catalog service: load car model: %w", err)
	}
	return &stored, nil
}

// DeleteCarModel removes a brand/model pair.
func (s *CatalogService) DeleteCarModel(ctx context.Context, actor *models.Account, id string) error {
	return s.deleteByID(ctx, actor, &models.CarModel{}, id, "Car model")
}

// ListParts returns reference part types ordered by category and name.
func (s *CatalogService) ListParts(ctx context.Context) ([]models.Part, error) {
	ctx = ensureContext(ctx)

	var parts []models.Part
	if err := s.db.WithContext(ctx).Order("category ASC").Order("name ASC").Find(&parts).Error; err != nil {
		return nil, fmt.Errorf("catalog service: list parts: %w", err)
	}
	return parts, nil
}

// AddPart inserts a reference part type. Part names are unique.
func (s *CatalogService) AddPart(ctx context.Context, actor *models.Account, input PartInput) (*models.Part, error) {
	ctx = ensureContext(ctx)

	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	category := trimmedOrNil(input.Category)
	if name == "" || category == nil {
		return nil, apperrors.NewValidation("Category and name are required")
	}

	part := &models.Part{Name: name, Category: category, Description: trimmedOrNil(input.Description)}
	if err := s.db.WithContext(ctx).Create(part).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("Part already exists")
		}
		return nil, fmt.Errorf("catalog service: add part: %w", err)
	}
	return part, nil
}

// DeletePart removes a reference part type.
func (s *CatalogService) DeletePart(ctx context.Context, actor *models.Account, id string) error {
	return s.deleteByID(ctx, actor, &models.Part{}, id, "Part")
}

func (s *CatalogService) deleteByID(ctx context.Context, actor *models.Account, model any, id, entity string) error {
	ctx = ensureContext(ctx)

	if err := RequireAdmin(actor); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if result.Error != nil {
		return fmt.Errorf("catalog service: delete %s: %w", strings.ToLower(entity), result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound(entity)
	}
	return nil
}
