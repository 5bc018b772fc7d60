package repositories

import (
	"errors"
	"fmt"
	"time"

	"workshop-registration-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkshopFilters struct {
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}

type workshopRepo struct {
	db *gorm.DB
}

func NewWorkshopRepository(db *gorm.DB) WorkshopRepository {
	return &workshopRepo{db: db}
}

func (r *workshopRepo) CreateWorkshop(tx *gorm.DB, workshop *models.Workshop) error {
	if workshop == nil {
		return errors.New("workshop cannot be nil")
	}
	return r.conn(tx).Create(workshop).Error
}

// GetWorkshopByID retrieves a workshop by its ID
func (r *workshopRepo) GetWorkshopByID(id string) (*models.Workshop, error) {
	if id == "" {
		return nil, errors.New("workshop ID cannot be empty")
	}

	var workshop models.Workshop
	if err := r.db.Where("id = ?", id).First(&workshop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get workshop: %w", err)
	}

	return &workshop, nil
}

// GetWorkshopByIDForUpdate locks the workshop row, serializing concurrent
// admissions for the same workshop.
func (r *workshopRepo) GetWorkshopByIDForUpdate(tx *gorm.DB, id string) (*models.Workshop, error) {
	var workshop models.Workshop
	if err := r.conn(tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&workshop).Error; err != nil {
		return nil, err
	}
	return &workshop, nil
}

func (r *workshopRepo) GetActiveWorkshop() (*models.Workshop, error) {
	var workshop models.Workshop
	if err := r.db.Where("status = ?", models.StatusActive).
		Order("date ASC").
		First(&workshop).Error; err != nil {
		return nil, err
	}
	return &workshop, nil
}

func (r *workshopRepo) GetActiveWorkshopExcept(tx *gorm.DB, excludeID string) (*models.Workshop, error) {
	var workshop models.Workshop
	query := r.conn(tx).Where("status = ?", models.StatusActive)
	if excludeID != "" {
		query = query.Where("id != ?", excludeID)
	}
	if err := query.First(&workshop).Error; err != nil {
		return nil, err
	}
	return &workshop, nil
}

func (r *workshopRepo) GetUpcomingWorkshops() ([]models.Workshop, error) {
	var workshops []models.Workshop
	if err := r.db.
		Where("status IN ? AND date >= ?", []string{models.StatusUpcoming, models.StatusActive}, time.Now()).
		Order("date ASC").
		Find(&workshops).Error; err != nil {
		return nil, fmt.Errorf("failed to get upcoming workshops: %w", err)
	}
	return workshops, nil
}

// GetLatestWorkshop prefers the active workshop and falls back to the nearest
// upcoming one.
func (r *workshopRepo) GetLatestWorkshop() (*models.Workshop, error) {
	var workshop models.Workshop
	if err := r.db.Where("status = ?", models.StatusActive).First(&workshop).Error; err == nil {
		return &workshop, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := r.db.
		Where("status = ? AND date >= ?", models.StatusUpcoming, time.Now()).
		Order("date ASC").
		First(&workshop).Error; err != nil {
		return nil, err
	}
	return &workshop, nil
}

func (r *workshopRepo) GetWorkshopBySpotToken(token string) (*models.Workshop, error) {
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}

	var workshop models.Workshop
	if err := r.db.
		Where("spot_registration_qr_token = ? AND spot_registration_enabled = ?", token, true).
		First(&workshop).Error; err != nil {
		return nil, err
	}
	return &workshop, nil
}

func (r *workshopRepo) ListWorkshops(filters *WorkshopFilters) ([]models.Workshop, error) {
	var workshops []models.Workshop

	query := r.db.Model(&models.Workshop{})

	if filters != nil {
		if filters.Status != "" && filters.Status != "all" {
			query = query.Where("status = ?", filters.Status)
		}
		if filters.StartDate != nil {
			query = query.Where("date >= ?", *filters.StartDate)
		}
		if filters.EndDate != nil {
			query = query.Where("date <= ?", *filters.EndDate)
		}
		if filters.Search != "" {
			searchTerm := "%" + filters.Search + "%"
			query = query.Where("title ILIKE ? OR description ILIKE ?", searchTerm, searchTerm)
		}
	}

	if err := query.Order("date DESC").Find(&workshops).Error; err != nil {
		return nil, fmt.Errorf("failed to list workshops: %w", err)
	}

	return workshops, nil
}

func (r *workshopRepo) SaveWorkshop(tx *gorm.DB, workshop *models.Workshop) error {
	if workshop == nil {
		return errors.New("workshop cannot be nil")
	}
	return r.conn(tx).Save(workshop).Error
}

func (r *workshopRepo) DeleteWorkshop(tx *gorm.DB, id string) error {
	result := r.conn(tx).Where("id = ?", id).Delete(&models.Workshop{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete workshop: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *workshopRepo) Transaction(txFunc func(*gorm.DB) error) error {
	return r.db.Transaction(txFunc)
}

func (r *workshopRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
