package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"workshop-registration-backend/internal/config"
	"workshop-registration-backend/internal/models"
	"workshop-registration-backend/internal/repositories"
	"workshop-registration-backend/internal/tokens"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AttendanceService marks attendance through short-lived, single-use QR
// tokens projected at the venue.
type AttendanceService struct {
	repo  *repositories.Repository
	cfg   *config.Config
	store tokens.Store
}

func NewAttendanceService(repo *repositories.Repository, cfg *config.Config, store tokens.Store) *AttendanceService {
	return &AttendanceService{repo: repo, cfg: cfg, store: store}
}

type ScanRequest struct {
	Token                 string
	MncUID                string
	MncRegistrationNumber string
	MobileNumber          string
	IPAddress             string
	UserAgent             string
}

type ScanResult struct {
	StudentName           string    `json:"student_name"`
	MncUID                string    `json:"mnc_uid"`
	MncRegistrationNumber string    `json:"mnc_registration_number"`
	FormNumber            int       `json:"form_number"`
	WorkshopTitle         string    `json:"workshop_title"`
	MarkedAt              time.Time `json:"marked_at"`
}

type AttendanceTokenResult struct {
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
	WorkshopID    string    `json:"workshop_id"`
	WorkshopTitle string    `json:"workshop_title"`
}

type AttendanceStats struct {
	WorkshopID    string  `json:"workshop_id"`
	WorkshopTitle string  `json:"workshop_title"`
	Registered    int64   `json:"registered"`
	Present       int64   `json:"present"`
	Applied       int64   `json:"applied"`
	Percentage    float64 `json:"percentage"`
}

// IssueToken mints a fresh short-lived attendance token for the workshop.
// The projector at the venue polls this and regenerates the QR, so every
// issued token is independent and the old one simply ages out.
func (s *AttendanceService) IssueToken(workshopID string) (*AttendanceTokenResult, error) {
	workshop, err := s.repo.WorkshopRepo.GetWorkshopByID(workshopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRegistrationError("workshop not found", ErrNotFound, err)
		}
		return nil, NewRegistrationError("failed to load workshop", ErrDatabase, err)
	}

	s.store.PurgeExpired()

	token, err := s.store.Issue(workshop.ID.String())
	if err != nil {
		return nil, NewRegistrationError("failed to mint attendance token", ErrDatabase, err)
	}

	return &AttendanceTokenResult{
		Token:         token.Value,
		ExpiresAt:     token.ExpiresAt,
		WorkshopID:    workshop.ID.String(),
		WorkshopTitle: workshop.Title,
	}, nil
}

// Scan marks a student present. Token failures are reported uniformly so a
// scanner cannot distinguish a forged token from a stale one.
func (s *AttendanceService) Scan(req ScanRequest) (*ScanResult, error) {
	if strings.TrimSpace(req.Token) == "" {
		return nil, NewRegistrationError("QR token is required; please scan the code again", ErrValidation, nil)
	}
	mncUID := strings.TrimSpace(req.MncUID)
	regNumber := strings.ToUpper(strings.TrimSpace(req.MncRegistrationNumber))
	if mncUID == "" && regNumber == "" {
		return nil, NewRegistrationError("MNC UID or registration number is required", ErrValidation, nil)
	}
	if strings.TrimSpace(req.MobileNumber) == "" {
		return nil, NewRegistrationError("mobile number is required", ErrValidation, nil)
	}

	bound, ok := s.store.Resolve(strings.TrimSpace(req.Token))
	if !ok {
		return nil, NewRegistrationError("invalid or expired QR code; please scan the current code", ErrInvalidOrExpiredToken, nil)
	}

	workshop, err := s.repo.WorkshopRepo.GetWorkshopByID(bound.WorkshopID)
	if err != nil {
		return nil, NewRegistrationError("failed to load workshop", ErrDatabase, err)
	}

	registration, err := s.resolveRegistration(bound.WorkshopID, mncUID, regNumber, strings.TrimSpace(req.MobileNumber))
	if err != nil {
		return nil, err
	}

	var result *ScanResult

	err = s.repo.RegistrationRepo.Transaction(func(tx *gorm.DB) error {
		marked, err := s.repo.AttendanceRepo.HasAttendance(tx, bound.WorkshopID, registration.MncUID)
		if err != nil {
			return NewRegistrationError("failed to check attendance", ErrDatabase, err)
		}
		if marked {
			return NewRegistrationError("attendance already marked for this student", ErrAlreadyMarked, nil)
		}

		now := time.Now()
		attendance := &models.Attendance{
			ID:                    uuid.New(),
			WorkshopID:            registration.WorkshopID,
			RegistrationID:        registration.ID,
			MncUID:                registration.MncUID,
			MncRegistrationNumber: registration.MncRegistrationNumber,
			StudentName:           registration.FullName,
			QRToken:               bound.Value,
			MarkedAt:              now,
			IPAddress:             req.IPAddress,
			UserAgent:             req.UserAgent,
			DeviceFingerprint:     fmt.Sprintf("%s_%s", req.UserAgent, req.IPAddress),
		}
		if err := s.repo.AttendanceRepo.CreateAttendance(tx, attendance); err != nil {
			// Two scanners racing on the same student settle on the unique
			// index.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return NewRegistrationError("attendance already marked for this student", ErrAlreadyMarked, err)
			}
			return NewRegistrationError("failed to record attendance", ErrDatabase, err)
		}

		if err := s.repo.RegistrationRepo.UpdateAttendanceStatus(tx, registration.ID.String(), models.AttendancePresent); err != nil {
			return NewRegistrationError("failed to update registration status", ErrDatabase, err)
		}

		result = &ScanResult{
			StudentName:           registration.FullName,
			MncUID:                registration.MncUID,
			MncRegistrationNumber: registration.MncRegistrationNumber,
			FormNumber:            registration.FormNumber,
			WorkshopTitle:         workshop.Title,
			MarkedAt:              now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Single use; a second device must wait for the projector to rotate.
	s.store.Consume(bound.Value)

	logrus.WithFields(logrus.Fields{
		"workshop_id": bound.WorkshopID,
		"mnc_uid":     registration.MncUID,
	}).Info("attendance marked")

	return result, nil
}

// resolveRegistration finds the student within the token's workshop,
// preferring the registration number lookup since spot entries carry a
// synthesized UID the student never sees.
func (s *AttendanceService) resolveRegistration(workshopID, mncUID, regNumber, mobileNumber string) (*models.Registration, error) {
	if regNumber != "" {
		registration, err := s.repo.RegistrationRepo.GetByWorkshopAndRegNumber(nil, workshopID, regNumber)
		if err == nil {
			return registration, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRegistrationError("failed to look up registration", ErrDatabase, err)
		}
	}
	if mncUID != "" {
		registration, err := s.repo.RegistrationRepo.GetByWorkshopUIDAndMobile(workshopID, mncUID, mobileNumber)
		if err == nil {
			return registration, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRegistrationError("failed to look up registration", ErrDatabase, err)
		}
	}
	return nil, NewRegistrationError("no registration found for this workshop with these details", ErrNotFound, nil)
}

// Stats summarizes turnout for one workshop.
func (s *AttendanceService) Stats(workshopID string) (*AttendanceStats, error) {
	workshop, err := s.repo.WorkshopRepo.GetWorkshopByID(workshopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRegistrationError("workshop not found", ErrNotFound, err)
		}
		return nil, NewRegistrationError("failed to load workshop", ErrDatabase, err)
	}

	registered, err := s.repo.RegistrationRepo.CountByWorkshop(nil, workshopID)
	if err != nil {
		return nil, NewRegistrationError("failed to count registrations", ErrDatabase, err)
	}
	present, err := s.repo.AttendanceRepo.CountByWorkshop(workshopID)
	if err != nil {
		return nil, NewRegistrationError("failed to count attendance", ErrDatabase, err)
	}

	stats := &AttendanceStats{
		WorkshopID:    workshop.ID.String(),
		WorkshopTitle: workshop.Title,
		Registered:    registered,
		Present:       present,
		Applied:       registered - present,
	}
	if registered > 0 {
		stats.Percentage = float64(present) / float64(registered) * 100
	}
	return stats, nil
}

func (s *AttendanceService) ListByWorkshop(workshopID string, limit int) ([]models.Attendance, error) {
	if limit <= 0 {
		limit = 50
	}
	records, err := s.repo.AttendanceRepo.ListByWorkshop(workshopID, limit)
	if err != nil {
		return nil, NewRegistrationError("failed to list attendance", ErrDatabase, err)
	}
	return records, nil
}

// StudentStatus reports whether one student has been marked present.
func (s *AttendanceService) StudentStatus(workshopID, mncUID string) (*models.Attendance, error) {
	record, err := s.repo.AttendanceRepo.GetByWorkshopAndUID(workshopID, strings.TrimSpace(mncUID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRegistrationError("attendance not marked for this student", ErrNotFound, err)
		}
		return nil, NewRegistrationError("failed to load attendance", ErrDatabase, err)
	}
	return record, nil
}
