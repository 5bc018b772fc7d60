package services

import (
	"errors"
	"fmt"
	"time"

	"workshop-registration-backend/internal/config"
	"workshop-registration-backend/internal/models"
	"workshop-registration-backend/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// WorkshopService owns the capacity ledger and the workshop state machine.
type WorkshopService struct {
	repo *repositories.Repository
	cfg  *config.Config
}

func NewWorkshopService(repo *repositories.Repository, cfg *config.Config) *WorkshopService {
	return &WorkshopService{repo: repo, cfg: cfg}
}

type CreateWorkshopRequest struct {
	Title                   string
	Description             string
	Date                    time.Time
	DayOfWeek               string
	Venue                   string
	VenueLink               string
	Fee                     float64
	Credits                 int
	MaxSeats                int
	Status                  string
	RegistrationStartDate   *time.Time
	RegistrationEndDate     *time.Time
	SpotRegistrationEnabled bool
	SpotRegistrationLimit   int
	PaymentQRImage          string
	CreatedBy               string
}

type UpdateWorkshopRequest struct {
	Title                   *string
	Description             *string
	Date                    *time.Time
	DayOfWeek               *string
	Venue                   *string
	VenueLink               *string
	Fee                     *float64
	Credits                 *int
	MaxSeats                *int
	Status                  *string
	RegistrationStartDate   *time.Time
	RegistrationEndDate     *time.Time
	SpotRegistrationEnabled *bool
	SpotRegistrationLimit   *int
}

// SyncResult reports counter values before and after reconciliation.
type SyncResult struct {
	WorkshopID  string       `json:"workshop_id"`
	Before      CounterState `json:"before"`
	After       CounterState `json:"after"`
	Corrected   bool         `json:"corrected"`
	SyncedAt    time.Time    `json:"synced_at"`
}

type CounterState struct {
	Registrations     int `json:"registrations"`
	SpotRegistrations int `json:"spot_registrations"`
}

type RegistrationCount struct {
	Total     int64 `json:"total"`
	Remaining int64 `json:"remaining"`
	MaxSeats  int64 `json:"max_seats"`
	IsFull    bool  `json:"is_full"`
}

var validStatuses = map[string]bool{
	models.StatusDraft:     true,
	models.StatusUpcoming:  true,
	models.StatusActive:    true,
	models.StatusFull:      true,
	models.StatusCompleted: true,
	models.StatusCancelled: true,
	models.StatusSpot:      true,
}

func (s *WorkshopService) CreateWorkshop(req CreateWorkshopRequest) (*models.Workshop, error) {
	if req.MaxSeats < 1 {
		return nil, NewRegistrationError("max seats must be at least 1", ErrValidation, nil)
	}
	if req.SpotRegistrationLimit > req.MaxSeats {
		return nil, NewRegistrationError("spot registration limit cannot exceed max seats", ErrValidation, nil)
	}

	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}
	if !validStatuses[status] {
		return nil, NewRegistrationError(fmt.Sprintf("invalid status: %s", status), ErrValidation, nil)
	}

	workshop := &models.Workshop{
		ID:                      uuid.New(),
		Title:                   req.Title,
		Description:             req.Description,
		Date:                    req.Date,
		DayOfWeek:               req.DayOfWeek,
		Venue:                   req.Venue,
		VenueLink:               req.VenueLink,
		Fee:                     req.Fee,
		Credits:                 req.Credits,
		MaxSeats:                req.MaxSeats,
		Status:                  status,
		RegistrationStartDate:   req.RegistrationStartDate,
		RegistrationEndDate:     req.RegistrationEndDate,
		SpotRegistrationEnabled: req.SpotRegistrationEnabled,
		SpotRegistrationLimit:   req.SpotRegistrationLimit,
		PaymentQRImage:          req.PaymentQRImage,
		CreatedBy:               req.CreatedBy,
	}

	err := s.repo.WorkshopRepo.Transaction(func(tx *gorm.DB) error {
		if status == models.StatusActive {
			if err := s.checkSingleActive(tx, ""); err != nil {
				return err
			}
		}
		return s.repo.WorkshopRepo.CreateWorkshop(tx, workshop)
	})
	if err != nil {
		if IsRegistrationError(err) {
			return nil, err
		}
		return nil, NewRegistrationError("failed to create workshop", ErrDatabase, err)
	}

	return workshop, nil
}

func (s *WorkshopService) UpdateWorkshop(id string, req UpdateWorkshopRequest) (*models.Workshop, error) {
	var updated *models.Workshop

	err := s.repo.WorkshopRepo.Transaction(func(tx *gorm.DB) error {
		workshop, err := s.repo.WorkshopRepo.GetWorkshopByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewRegistrationError("workshop not found", ErrNotFound, err)
			}
			return NewRegistrationError("failed to load workshop", ErrDatabase, err)
		}

		if req.MaxSeats != nil && *req.MaxSeats < workshop.CurrentRegistrations {
			return NewRegistrationError(
				fmt.Sprintf("cannot reduce max seats below current registrations (%d)", workshop.CurrentRegistrations),
				ErrValidation, nil,
			)
		}
		if req.SpotRegistrationLimit != nil && *req.SpotRegistrationLimit < workshop.CurrentSpotRegistrations {
			return NewRegistrationError(
				fmt.Sprintf("cannot set spot limit below current spot registrations (%d)", workshop.CurrentSpotRegistrations),
				ErrValidation, nil,
			)
		}
		if req.Status != nil {
			if !validStatuses[*req.Status] {
				return NewRegistrationError(fmt.Sprintf("invalid status: %s", *req.Status), ErrValidation, nil)
			}
			if *req.Status == models.StatusActive && workshop.Status != models.StatusActive {
				if err := s.checkSingleActive(tx, workshop.ID.String()); err != nil {
					return err
				}
			}
		}

		applyWorkshopUpdates(workshop, req)

		if err := s.repo.WorkshopRepo.SaveWorkshop(tx, workshop); err != nil {
			return NewRegistrationError("failed to update workshop", ErrDatabase, err)
		}
		updated = workshop
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// ChangeStatus performs a manual state transition. Entering the spot state
// carries the spot settings in the same transition.
func (s *WorkshopService) ChangeStatus(id, status string, spotEnabled *bool, spotLimit *int) (*models.Workshop, error) {
	if !validStatuses[status] {
		return nil, NewRegistrationError(fmt.Sprintf("invalid status: %s", status), ErrValidation, nil)
	}

	var updated *models.Workshop

	err := s.repo.WorkshopRepo.Transaction(func(tx *gorm.DB) error {
		workshop, err := s.repo.WorkshopRepo.GetWorkshopByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewRegistrationError("workshop not found", ErrNotFound, err)
			}
			return NewRegistrationError("failed to load workshop", ErrDatabase, err)
		}

		if status == models.StatusActive && workshop.Status != models.StatusActive {
			if err := s.checkSingleActive(tx, workshop.ID.String()); err != nil {
				return err
			}
		}

		workshop.Status = status

		if status == models.StatusSpot {
			if spotEnabled != nil {
				workshop.SpotRegistrationEnabled = *spotEnabled
			}
			if spotLimit != nil {
				if *spotLimit < workshop.CurrentSpotRegistrations {
					return NewRegistrationError(
						fmt.Sprintf("cannot set spot limit below current spot registrations (%d)", workshop.CurrentSpotRegistrations),
						ErrValidation, nil,
					)
				}
				workshop.SpotRegistrationLimit = *spotLimit
			}
		}

		if err := s.repo.WorkshopRepo.SaveWorkshop(tx, workshop); err != nil {
			return NewRegistrationError("failed to update workshop status", ErrDatabase, err)
		}
		updated = workshop
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *WorkshopService) UpdateSpotSettings(id string, enabled *bool, limit *int) (*models.Workshop, error) {
	var updated *models.Workshop

	err := s.repo.WorkshopRepo.Transaction(func(tx *gorm.DB) error {
		workshop, err := s.repo.WorkshopRepo.GetWorkshopByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewRegistrationError("workshop not found", ErrNotFound, err)
			}
			return NewRegistrationError("failed to load workshop", ErrDatabase, err)
		}

		if enabled != nil {
			workshop.SpotRegistrationEnabled = *enabled
		}
		if limit != nil {
			if *limit < workshop.CurrentSpotRegistrations {
				return NewRegistrationError(
					fmt.Sprintf("cannot set spot limit below current spot registrations (%d)", workshop.CurrentSpotRegistrations),
					ErrValidation, nil,
				)
			}
			if *limit > workshop.MaxSeats {
				return NewRegistrationError("spot registration limit cannot exceed max seats", ErrValidation, nil)
			}
			workshop.SpotRegistrationLimit = *limit
		}

		if err := s.repo.WorkshopRepo.SaveWorkshop(tx, workshop); err != nil {
			return NewRegistrationError("failed to update spot settings", ErrDatabase, err)
		}
		updated = workshop
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteWorkshop refuses to delete while registrations exist. The check
// recounts the authoritative registration rows, never the cached counter,
// and repairs the counter if it has drifted.
func (s *WorkshopService) DeleteWorkshop(id string) error {
	return s.repo.WorkshopRepo.Transaction(func(tx *gorm.DB) error {
		workshop, err := s.repo.WorkshopRepo.GetWorkshopByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewRegistrationError("workshop not found", ErrNotFound, err)
			}
			return NewRegistrationError("failed to load workshop", ErrDatabase, err)
		}

		count, err := s.repo.RegistrationRepo.CountByWorkshop(tx, id)
		if err != nil {
			return NewRegistrationError("failed to count registrations", ErrDatabase, err)
		}

		if workshop.CurrentRegistrations != int(count) {
			workshop.CurrentRegistrations = int(count)
			if err := s.repo.WorkshopRepo.SaveWorkshop(tx, workshop); err != nil {
				return NewRegistrationError("failed to repair counter", ErrDatabase, err)
			}
		}

		if count > 0 {
			return NewRegistrationError(
				fmt.Sprintf("cannot delete workshop with %d registration(s); delete the registrations first", count),
				ErrWorkshopHasRecords, nil,
			)
		}

		return s.repo.WorkshopRepo.DeleteWorkshop(tx, id)
	})
}

// SyncCounters recomputes both cached counters from the authoritative
// registration rows and overwrites them. Idempotent; safe to run alongside
// live admissions, though the result may be immediately stale.
func (s *WorkshopService) SyncCounters(id string) (*SyncResult, error) {
	var result *SyncResult

	err := s.repo.WorkshopRepo.Transaction(func(tx *gorm.DB) error {
		workshop, err := s.repo.WorkshopRepo.GetWorkshopByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewRegistrationError("workshop not found", ErrNotFound, err)
			}
			return NewRegistrationError("failed to load workshop", ErrDatabase, err)
		}

		total, err := s.repo.RegistrationRepo.CountByWorkshop(tx, id)
		if err != nil {
			return NewRegistrationError("failed to count registrations", ErrDatabase, err)
		}
		spot, err := s.repo.RegistrationRepo.CountSpotByWorkshop(tx, id)
		if err != nil {
			return NewRegistrationError("failed to count spot registrations", ErrDatabase, err)
		}

		before := CounterState{
			Registrations:     workshop.CurrentRegistrations,
			SpotRegistrations: workshop.CurrentSpotRegistrations,
		}
		after := CounterState{
			Registrations:     int(total),
			SpotRegistrations: int(spot),
		}

		if before != after {
			workshop.CurrentRegistrations = after.Registrations
			workshop.CurrentSpotRegistrations = after.SpotRegistrations
			if err := s.repo.WorkshopRepo.SaveWorkshop(tx, workshop); err != nil {
				return NewRegistrationError("failed to sync counters", ErrDatabase, err)
			}
			logrus.WithFields(logrus.Fields{
				"workshop_id": id,
				"before":      before,
				"after":       after,
			}).Warn("workshop counters drifted; corrected")
		}

		result = &SyncResult{
			WorkshopID: id,
			Before:     before,
			After:      after,
			Corrected:  before != after,
			SyncedAt:   time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetRegistrationCount reports seat usage for one workshop, or aggregated
// across all workshops when id is empty.
func (s *WorkshopService) GetRegistrationCount(id string) (*RegistrationCount, error) {
	if id != "" {
		workshop, err := s.repo.WorkshopRepo.GetWorkshopByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NewRegistrationError("workshop not found", ErrNotFound, err)
			}
			return nil, NewRegistrationError("failed to load workshop", ErrDatabase, err)
		}

		total, err := s.repo.RegistrationRepo.CountByWorkshop(nil, id)
		if err != nil {
			return nil, NewRegistrationError("failed to count registrations", ErrDatabase, err)
		}

		remaining := int64(workshop.MaxSeats) - total
		if remaining < 0 {
			remaining = 0
		}
		return &RegistrationCount{
			Total:     total,
			Remaining: remaining,
			MaxSeats:  int64(workshop.MaxSeats),
			IsFull:    total >= int64(workshop.MaxSeats),
		}, nil
	}

	workshops, err := s.repo.WorkshopRepo.ListWorkshops(nil)
	if err != nil {
		return nil, NewRegistrationError("failed to list workshops", ErrDatabase, err)
	}
	total, err := s.repo.RegistrationRepo.CountAll()
	if err != nil {
		return nil, NewRegistrationError("failed to count registrations", ErrDatabase, err)
	}

	var maxSeats int64
	for _, w := range workshops {
		maxSeats += int64(w.MaxSeats)
	}
	remaining := maxSeats - total
	if remaining < 0 {
		remaining = 0
	}
	return &RegistrationCount{
		Total:     total,
		Remaining: remaining,
		MaxSeats:  maxSeats,
		IsFull:    maxSeats > 0 && total >= maxSeats,
	}, nil
}

func (s *WorkshopService) GetWorkshop(id string) (*models.Workshop, error) {
	workshop, err := s.repo.WorkshopRepo.GetWorkshopByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRegistrationError("workshop not found", ErrNotFound, err)
		}
		return nil, NewRegistrationError("failed to load workshop", ErrDatabase, err)
	}
	return workshop, nil
}

func (s *WorkshopService) GetActiveWorkshop() (*models.Workshop, error) {
	workshop, err := s.repo.WorkshopRepo.GetActiveWorkshop()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, NewRegistrationError("failed to load active workshop", ErrDatabase, err)
	}
	return workshop, nil
}

func (s *WorkshopService) GetUpcomingWorkshops() ([]models.Workshop, error) {
	return s.repo.WorkshopRepo.GetUpcomingWorkshops()
}

func (s *WorkshopService) GetLatestWorkshop() (*models.Workshop, error) {
	workshop, err := s.repo.WorkshopRepo.GetLatestWorkshop()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, NewRegistrationError("failed to load latest workshop", ErrDatabase, err)
	}
	return workshop, nil
}

func (s *WorkshopService) ListWorkshops(filters *repositories.WorkshopFilters) ([]models.Workshop, error) {
	return s.repo.WorkshopRepo.ListWorkshops(filters)
}

// checkSingleActive enforces the one-active-workshop policy inside the
// caller's transaction when enabled.
func (s *WorkshopService) checkSingleActive(tx *gorm.DB, excludeID string) error {
	if !s.cfg.EnforceSingleActive {
		return nil
	}
	existing, err := s.repo.WorkshopRepo.GetActiveWorkshopExcept(tx, excludeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return NewRegistrationError("failed to check active workshops", ErrDatabase, err)
	}
	if existing != nil {
		return NewRegistrationError(
			"another workshop is already active; deactivate it first",
			ErrActiveConflict, nil,
		)
	}
	return nil
}

func applyWorkshopUpdates(workshop *models.Workshop, req UpdateWorkshopRequest) {
	if req.Title != nil {
		workshop.Title = *req.Title
	}
	if req.Description != nil {
		workshop.Description = *req.Description
	}
	if req.Date != nil {
		workshop.Date = *req.Date
	}
	if req.DayOfWeek != nil {
		workshop.DayOfWeek = *req.DayOfWeek
	}
	if req.Venue != nil {
		workshop.Venue = *req.Venue
	}
	if req.VenueLink != nil {
		workshop.VenueLink = *req.VenueLink
	}
	if req.Fee != nil {
		workshop.Fee = *req.Fee
	}
	if req.Credits != nil {
		workshop.Credits = *req.Credits
	}
	if req.MaxSeats != nil {
		workshop.MaxSeats = *req.MaxSeats
	}
	if req.Status != nil {
		workshop.Status = *req.Status
	}
	if req.RegistrationStartDate != nil {
		workshop.RegistrationStartDate = req.RegistrationStartDate
	}
	if req.RegistrationEndDate != nil {
		workshop.RegistrationEndDate = req.RegistrationEndDate
	}
	if req.SpotRegistrationEnabled != nil {
		workshop.SpotRegistrationEnabled = *req.SpotRegistrationEnabled
	}
	if req.SpotRegistrationLimit != nil {
		workshop.SpotRegistrationLimit = *req.SpotRegistrationLimit
	}
}
