package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/storage"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
	"github.com/charlesng35/autodetail/pkg/logger"
	"github.com/charlesng35/autodetail/pkg/metrics"
)

// ListingInput carries the editable fields of a listing. CarYear and Price are
// raw form values; values that do not parse to finite numbers are stored as NULL.
type ListingInput struct {
	Title       string
	Description *string
	PartType    string
	CarBrand    string
	CarModel    string
	CarYear     string
	CarColor    string
	Price       string
	Currency    *string
}

// ListingFilters narrows listing queries.
type ListingFilters struct {
	Brand    string
	Model    string
	PartType string
	OwnerID  string
	Query    string
}

// ListListingsOptions controls pagination for listing queries.
type ListListingsOptions struct {
	Page     int
	PageSize int
	Filters  ListingFilters
}

// ListingOption customises the ListingService.
type ListingOption func(*ListingService)

// WithListingClock injects a custom time source used for price history timestamps.
func WithListingClock(clock func() time.Time) ListingOption {
	return func(s *ListingService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// ListingService owns the post lifecycle: creation, edits with price history,
// gallery management and deletion.
type ListingService struct {
	db     *gorm.DB
	images *storage.Images
	audit  *AuditService
	now    func() time.Time
}

// NewListingService constructs a ListingService.
func NewListingService(db *gorm.DB, images *storage.Images, audit *AuditService, opts ...ListingOption) (*ListingService, error) {
	if db == nil {
		return nil, errors.New("listing service: db is required")
	}
	if images == nil {
		return nil, errors.New("listing service: image store is required")
	}
	svc := &ListingService{db: db, images: images, audit: audit, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type listingFields struct {
	title       string
	description *string
	partType    string
	carBrand    string
	carModel    string
	carYear     *int
	carColor    string
	price       *float64
	currency    *string
}

func parseListingInput(input ListingInput) (listingFields, error) {
	fields := listingFields{
		title:       strings.TrimSpace(input.Title),
		description: trimmedOrNil(input.Description),
		partType:    strings.TrimSpace(input.PartType),
		carBrand:    strings.TrimSpace(input.CarBrand),
		carModel:    strings.TrimSpace(input.CarModel),
		carColor:    strings.TrimSpace(input.CarColor),
		currency:    upperOrNil(input.Currency),
	}
	year := strings.TrimSpace(input.CarYear)
	if fields.title == "" || fields.partType == "" || fields.carBrand == "" ||
		fields.carModel == "" || year == "" || fields.carColor == "" {
		return fields, apperrors.NewValidation("Missing required fields")
	}
	fields.carYear = parseYear(year)
	fields.price = parsePrice(input.Price)
	return fields, nil
}

func parseYear(raw string) *int {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	year := int(math.Trunc(value))
	return &year
}

func parsePrice(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return finiteOrNil(&value)
}

// Create stores a listing owned by owner together with its uploaded images.
// The first stored image becomes the primary image and a price history entry
// is recorded when a price was supplied.
func (s *ListingService) Create(ctx context.Context, owner *models.Account, input ListingInput, uploads [][]byte) (*models.Listing, error) {
	ctx = ensureContext(ctx)

	if owner == nil {
		return nil, apperrors.NewNotFound("User")
	}
	fields, err := parseListingInput(input)
	if err != nil {
		return nil, err
	}

	urls, err := s.images.SaveAll(ctx, uploads, storage.ListingVariant)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to store images")
	}

	listing := &models.Listing{
		OwnerID:     owner.ID,
		Title:       fields.title,
		Description: fields.description,
		PartType:    fields.partType,
		CarBrand:    fields.carBrand,
		CarModel:    fields.carModel,
		CarYear:     fields.carYear,
		CarColor:    fields.carColor,
		Price:       fields.price,
		Currency:    fields.currency,
	}
	if len(urls) > 0 {
		primary := urls[0]
		listing.PrimaryImageURL = &primary
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner", "Images").Create(listing).Error; err != nil {
			return err
		}
		if err := insertGallery(tx, listing.ID, urls); err != nil {
			return err
		}
		if listing.Price != nil {
			return s.appendPriceHistory(tx, listing.ID, *listing.Price, listing.Currency)
		}
		return nil
	})
	if err != nil {
		s.images.DeleteBestEffort(ctx, urls...)
		return nil, fmt.Errorf("listing service: create: %w", err)
	}

	metrics.ListingEvents.WithLabelValues("created").Inc()
	return listing, nil
}

// Get returns a listing with its owner and ordered gallery.
func (s *ListingService) Get(ctx context.Context, id string) (*models.Listing, error) {
	ctx = ensureContext(ctx)

	var listing models.Listing
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		Take(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Post")
		}
		return nil, fmt.Errorf("listing service: get: %w", err)
	}
	return &listing, nil
}

// List returns listings newest first.
func (s *ListingService) List(ctx context.Context, opts ListListingsOptions) ([]models.Listing, int64, error) {
	ctx = ensureContext(ctx)

	page, pageSize := normalisePage(opts.Page, opts.PageSize)
	query := applyListingFilters(s.db.WithContext(ctx).Model(&models.Listing{}), opts.Filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("listing service: count: %w", err)
	}

	var listings []models.Listing
	if err := query.
		Preload("Owner").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&listings).Error; err != nil {
		return nil, 0, fmt.Errorf("listing service: list: %w", err)
	}
	return listings, total, nil
}

func applyListingFilters(query *gorm.DB, filters ListingFilters) *gorm.DB {
	if brand := strings.TrimSpace(filters.Brand); brand != "" {
		query = query.Where("LOWER(car_brand) = ?", strings.ToLower(brand))
	}
	if model := strings.TrimSpace(filters.Model); model != "" {
		query = query.Where("LOWER(car_model) = ?", strings.ToLower(model))
	}
	if partType := strings.TrimSpace(filters.PartType); partType != "" {
		query = query.Where("LOWER(part_type) = ?", strings.ToLower(partType))
	}
	if owner := strings.TrimSpace(filters.OwnerID); owner != "" {
		query = query.Where("user_id = ?", owner)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	return query
}

// Update replaces the editable fields of a listing. A price history entry is
// appended only when the (price, currency) pair changed and a price is set.
func (s *ListingService) Update(ctx context.Context, actor *models.Account, id string, input ListingInput) (*models.Listing, error) {
	ctx = ensureContext(ctx)

	listing, err := s.loadAuthorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	fields, err := parseListingInput(input)
	if err != nil {
		return nil, err
	}

	prevPrice := listing.Price
	prevCurrency := listing.Currency
	priceChanged := fields.price != nil &&
		(!sameFloat(prevPrice, fields.price) || stringValue(prevCurrency) != stringValue(fields.currency))

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Listing{}).Where("id = ?", listing.ID).Updates(map[string]any{
			"title":       fields.title,
			"description": fields.description,
			"part_type":   fields.partType,
			"car_brand":   fields.carBrand,
			"car_model":   fields.carModel,
			"car_year":    fields.carYear,
			"car_color":   fields.carColor,
			"price":       fields.price,
			"currency":    fields.currency,
		}).Error; err != nil {
			return err
		}
		if priceChanged {
			return s.appendPriceHistory(tx, listing.ID, *fields.price, fields.currency)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing service: update: %w", err)
	}

	metrics.ListingEvents.WithLabelValues("updated").Inc()
	if priceChanged {
		metrics.ListingEvents.WithLabelValues("price_changed").Inc()
	}
	if actor.ID != listing.OwnerID {
		recordAudit(s.audit, ctx, AuditEntry{
			AccountID: accountIDPtr(actor.ID),
			Email:     actor.Email,
			Action:    "admin.post.update",
			Resource:  "posts",
			Result:    "success",
			Metadata:  map[string]any{"post_id": listing.ID},
		})
	}

	listing.Title = fields.title
	listing.Description = fields.description
	listing.PartType = fields.partType
	listing.CarBrand = fields.carBrand
	listing.CarModel = fields.carModel
	listing.CarYear = fields.carYear
	listing.CarColor = fields.carColor
	listing.Price = fields.price
	listing.Currency = fields.currency
	return listing, nil
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Delete removes a listing with its gallery, price history and favorites.
// Stored blobs are removed afterwards on a best-effort basis.
func (s *ListingService) Delete(ctx context.Context, actor *models.Account, id string) error {
	ctx = ensureContext(ctx)

	listing, err := s.loadAuthorized(ctx, actor, id)
	if err != nil {
		return err
	}

	var gallery []models.ListingImage
	if err := s.db.WithContext(ctx).Where("post_id = ?", listing.ID).Find(&gallery).Error; err != nil {
		return fmt.Errorf("listing service: load gallery: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", listing.ID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", listing.ID).Delete(&models.PriceHistoryEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", listing.ID).Delete(&models.ListingImage{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", listing.ID).Delete(&models.Listing{}).Error
	})
	if err != nil {
		return fmt.Errorf("listing service: delete: %w", err)
	}

	s.images.DeleteBestEffort(ctx, listingBlobURLs(listing.PrimaryImageURL, gallery)...)

	metrics.ListingEvents.WithLabelValues("deleted").Inc()
	if actor.ID != listing.OwnerID {
		recordAudit(s.audit, ctx, AuditEntry{
			AccountID: accountIDPtr(actor.ID),
			Email:     actor.Email,
			Action:    "admin.post.delete",
			Resource:  "posts",
			Result:    "success",
			Metadata:  map[string]any{"post_id": listing.ID, "owner_id": listing.OwnerID},
		})
	}
	return nil
}

func listingBlobURLs(primary *string, gallery []models.ListingImage) []string {
	seen := make(map[string]struct{}, len(gallery)+1)
	urls := make([]string, 0, len(gallery)+1)
	add := func(url string) {
		if url == "" {
			return
		}
		if _, ok := seen[url]; ok {
			return
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}
	add(stringValue(primary))
	for _, img := range gallery {
		add(img.URL)
	}
	return urls
}

// AddImages appends uploads to the gallery. The first new image becomes the
// primary image only when none is set.
func (s *ListingService) AddImages(ctx context.Context, actor *models.Account, id string, uploads [][]byte) ([]string, error) {
	ctx = ensureContext(ctx)

	listing, err := s.loadAuthorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, ErrNoImages
	}

	urls, err := s.images.SaveAll(ctx, uploads, storage.ListingVariant)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to store images")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertGallery(tx, listing.ID, urls); err != nil {
			return err
		}
		return tx.Model(&models.Listing{}).
			Where("id = ?", listing.ID).
			Update("image_url", gorm.Expr("COALESCE(image_url, ?)", urls[0])).Error
	})
	if err != nil {
		s.images.DeleteBestEffort(ctx, urls...)
		return nil, fmt.Errorf("listing service: add images: %w", err)
	}
	return urls, nil
}

// RemoveImage deletes a gallery entry matching url. When no gallery entry
// matches, a primary image equal to url is cleared instead. The blob is
// removed only once nothing on the listing references it: removing the gallery
// copy of the primary image keeps the blob, so the primary URL never dangles.
// A later call with the same url clears the primary field and deletes the blob.
func (s *ListingService) RemoveImage(ctx context.Context, actor *models.Account, id, url string) error {
	ctx = ensureContext(ctx)

	url = strings.TrimSpace(url)
	if url == "" {
		return apperrors.NewValidation("Image URL is required")
	}

	listing, err := s.loadAuthorized(ctx, actor, id)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("post_id = ? AND url = ?", listing.ID, url).Delete(&models.ListingImage{})
	if result.Error != nil {
		return fmt.Errorf("listing service: remove image: %w", result.Error)
	}

	stillReferenced := stringValue(listing.PrimaryImageURL) == url
	if result.RowsAffected == 0 {
		cleared := s.db.WithContext(ctx).Model(&models.Listing{}).
			Where("id = ? AND image_url = ?", listing.ID, url).
			Update("image_url", nil)
		if cleared.Error != nil {
			return fmt.Errorf("listing service: clear primary image: %w", cleared.Error)
		}
		if cleared.RowsAffected == 0 {
			return nil
		}
		stillReferenced = false
	}

	if !stillReferenced {
		s.images.DeleteBestEffort(ctx, url)
	}
	return nil
}

// PriceHistory returns the price history of a listing, newest first.
func (s *ListingService) PriceHistory(ctx context.Context, id string) ([]models.PriceHistoryEntry, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("listing service: check listing: %w", err)
	}
	if count == 0 {
		return nil, apperrors.NewNotFound("Post")
	}

	var entries []models.PriceHistoryEntry
	if err := s.db.WithContext(ctx).
		Where("post_id = ?", id).
		Order("changed_at DESC").Order("id DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing service: price history: %w", err)
	}
	return entries, nil
}

func (s *ListingService) loadAuthorized(ctx context.Context, actor *models.Account, id string) (*models.Listing, error) {
	if actor == nil {
		return nil, apperrors.NewNotFound("User")
	}

	var listing models.Listing
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Post")
		}
		return nil, fmt.Errorf("listing service: load listing: %w", err)
	}
	if err := RequireOwnerOrAdmin(actor, listing.OwnerID); err != nil {
		logger.WithModule("listings").Debug("listing mutation denied",
			zap.String("listing_id", listing.ID),
			zap.String("account_id", actor.ID))
		return nil, err
	}
	return &listing, nil
}

func (s *ListingService) appendPriceHistory(tx *gorm.DB, listingID string, price float64, currency *string) error {
	return tx.Create(&models.PriceHistoryEntry{
		ListingID: listingID,
		Price:     price,
		Currency:  currency,
		ChangedAt: s.now(),
	}).Error
}

func insertGallery(tx *gorm.DB, listingID string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	rows := make([]models.ListingImage, 0, len(urls))
	for _, url := range urls {
		rows = append(rows, models.ListingImage{ListingID: listingID, URL: url})
	}
	return tx.Create(&rows).Error
}
