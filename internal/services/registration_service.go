package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"workshop-registration-backend/internal/config"
	"workshop-registration-backend/internal/models"
	"workshop-registration-backend/internal/repositories"
	"workshop-registration-backend/internal/tokens"
	"workshop-registration-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var mobileNumberPattern = regexp.MustCompile(`^[0-9]{10}$`)

// RegistrationService admits registrations against workshop capacity,
// assigning form numbers and keeping the ledger counters in step.
type RegistrationService struct {
	repo *repositories.Repository
	cfg  *config.Config
}

func NewRegistrationService(repo *repositories.Repository, cfg *config.Config) *RegistrationService {
	return &RegistrationService{repo: repo, cfg: cfg}
}

type AdmitOnlineRequest struct {
	WorkshopID            string
	FullName              string
	MncUID                string
	MncRegistrationNumber string
	MobileNumber          string
	PaymentUTR            string
	PaymentScreenshot     string
	IPAddress             string
}

type AdmitSpotRequest struct {
	Token                 string
	FullName              string
	MncRegistrationNumber string
	MobileNumber          string
	PaymentUTR            string
	PaymentScreenshot     string
	IPAddress             string
}

// AdmissionResult echoes the minimal fields a registrant needs.
type AdmissionResult struct {
	FormNumber       int       `json:"form_number"`
	MncUID           string    `json:"mnc_uid"`
	FullName         string    `json:"full_name"`
	WorkshopTitle    string    `json:"workshop_title"`
	RegistrationType string    `json:"registration_type"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

type SpotTokenResult struct {
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
	WorkshopID     string    `json:"workshop_id"`
	WorkshopTitle  string    `json:"workshop_title"`
	SpotLimit      int       `json:"spot_registration_limit"`
	SpotsRemaining int       `json:"spots_remaining"`
	SpotsFull      bool      `json:"spots_full"`
}

// WorkshopPublicSummary is what a spot-registration client may see before
// submitting.
type WorkshopPublicSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Date           time.Time `json:"date"`
	Venue          string    `json:"venue"`
	Fee            float64   `json:"fee"`
	Credits        int       `json:"credits"`
	SpotsRemaining int       `json:"spots_remaining"`
}

// AdmitOnline admits an online self-registration. The workshop row lock
// serializes concurrent admissions; every check and write happens in one
// transaction so a rejected admission leaves no partial state.
func (s *RegistrationService) AdmitOnline(req AdmitOnlineRequest) (*AdmissionResult, error) {
	if err := validateAdmissionFields(req.FullName, req.MncRegistrationNumber, req.MobileNumber, req.PaymentUTR, req.PaymentScreenshot); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.MncUID) == "" {
		return nil, NewRegistrationError("MNC UID is required", ErrValidation, nil)
	}

	var result *AdmissionResult

	err := s.repo.RegistrationRepo.Transaction(func(tx *gorm.DB) error {
		workshop, err := s.repo.WorkshopRepo.GetWorkshopByIDForUpdate(tx, req.WorkshopID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewRegistrationError("workshop not found", ErrNotFound, err)
			}
			return NewRegistrationError("failed to load workshop", ErrDatabase, err)
		}

		if workshop.Status != models.StatusActive {
			return NewRegistrationError(
				fmt.Sprintf("workshop is not accepting registrations (status: %s)", workshop.Status),
				ErrWorkshopNotAccepting, nil,
			)
		}
		if workshop.CurrentRegistrations >= workshop.MaxSeats {
			return NewRegistrationError(
				fmt.Sprintf("registration closed; all %d seats are filled", workshop.MaxSeats),
				ErrCapacityFull, nil,
			)
		}

		mncUID := strings.TrimSpace(req.MncUID)
		if _, err := s.repo.RegistrationRepo.GetByWorkshopAndUID(tx, req.WorkshopID, mncUID); err == nil {
			return NewRegistrationError("this MNC UID is already registered for this workshop", ErrDuplicateStudent, nil)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return NewRegistrationError("failed to check existing registration", ErrDatabase, err)
		}

		formNumber, err := s.repo.RegistrationRepo.NextFormNumber(tx, req.WorkshopID)
		if err != nil {
			return NewRegistrationError("failed to assign form number", ErrDatabase, err)
		}

		registration := &models.Registration{
			ID:                    uuid.New(),
			WorkshopID:            workshop.ID,
			FormNumber:            formNumber,
			MncUID:                mncUID,
			FullName:              strings.TrimSpace(req.FullName),
			MncRegistrationNumber: strings.ToUpper(strings.TrimSpace(req.MncRegistrationNumber)),
			MobileNumber:          strings.TrimSpace(req.MobileNumber),
			PaymentUTR:            strings.TrimSpace(req.PaymentUTR),
			PaymentScreenshot:     req.PaymentScreenshot,
			RegistrationType:      models.RegistrationTypeOnline,
			AttendanceStatus:      models.AttendanceApplied,
			SubmittedAt:           time.Now(),
			IPAddress:             req.IPAddress,
		}

		if err := s.repo.RegistrationRepo.CreateRegistration(tx, registration); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return NewRegistrationError("this MNC UID is already registered for this workshop", ErrDuplicateStudent, err)
			}
			return NewRegistrationError("failed to create registration", ErrDatabase, err)
		}

		workshop.CurrentRegistrations++
		if workshop.CurrentRegistrations >= workshop.MaxSeats {
			workshop.Status = models.StatusFull
		}
		if err := s.repo.WorkshopRepo.SaveWorkshop(tx, workshop); err != nil {
			return NewRegistrationError("failed to update workshop counters", ErrDatabase, err)
		}

		result = &AdmissionResult{
			FormNumber:       registration.FormNumber,
			MncUID:           registration.MncUID,
			FullName:         registration.FullName,
			WorkshopTitle:    workshop.Title,
			RegistrationType: registration.RegistrationType,
			SubmittedAt:      registration.SubmittedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"workshop_id": req.WorkshopID,
		"form_number": result.FormNumber,
		"mnc_uid":     result.MncUID,
	}).Info("online registration admitted")

	return result, nil
}

// AdmitSpot admits a walk-in registration through a live spot token. The
// canonical dedup key is the MNC registration number; the UID is synthesized
// here. Spot admission is gated only by the spot sub-quota, so it proceeds
// even when the workshop status is full or spot.
func (s *RegistrationService) AdmitSpot(req AdmitSpotRequest) (*AdmissionResult, error) {
	if strings.TrimSpace(req.Token) == "" {
		return nil, NewRegistrationError("registration link token is required", ErrInvalidOrExpiredToken, nil)
	}
	if err := validateAdmissionFields(req.FullName, req.MncRegistrationNumber, req.MobileNumber, req.PaymentUTR, req.PaymentScreenshot); err != nil {
		return nil, err
	}

	var result *AdmissionResult

	err := s.repo.RegistrationRepo.Transaction(func(tx *gorm.DB) error {
		bound, err := s.repo.WorkshopRepo.GetWorkshopBySpotToken(strings.TrimSpace(req.Token))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewRegistrationError("invalid or expired registration link", ErrInvalidOrExpiredToken, err)
			}
			return NewRegistrationError("failed to verify registration link", ErrDatabase, err)
		}

		workshop, err := s.repo.WorkshopRepo.GetWorkshopByIDForUpdate(tx, bound.ID.String())
		if err != nil {
			return NewRegistrationError("failed to load workshop", ErrDatabase, err)
		}

		now := time.Now()
		if !workshop.SpotRegistrationEnabled || !workshop.HasLiveSpotToken(now) ||
			*workshop.SpotRegistrationQRToken != strings.TrimSpace(req.Token) {
			return NewRegistrationError("registration link has expired", ErrInvalidOrExpiredToken, nil)
		}

		// Quota check against the authoritative row count, tolerating
		// counter drift.
		spotCount, err := s.repo.RegistrationRepo.CountSpotByWorkshop(tx, workshop.ID.String())
		if err != nil {
			return NewRegistrationError("failed to count spot registrations", ErrDatabase, err)
		}
		if spotCount >= int64(workshop.SpotRegistrationLimit) {
			return NewRegistrationError("spot registration is full for this workshop", ErrSpotQuotaFull, nil)
		}

		regNumber := strings.ToUpper(strings.TrimSpace(req.MncRegistrationNumber))
		if _, err := s.repo.RegistrationRepo.GetByWorkshopAndRegNumber(tx, workshop.ID.String(), regNumber); err == nil {
			return NewRegistrationError("this MNC registration number is already registered for this workshop", ErrDuplicateStudent, nil)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return NewRegistrationError("failed to check existing registration", ErrDatabase, err)
		}

		formNumber, err := s.repo.RegistrationRepo.NextFormNumber(tx, workshop.ID.String())
		if err != nil {
			return NewRegistrationError("failed to assign form number", ErrDatabase, err)
		}

		// Spot entries have no student-supplied UID; synthesize one from the
		// workshop id tail and the admission instant.
		workshopTail := workshop.ID.String()
		workshopTail = workshopTail[len(workshopTail)-6:]
		mncUID := fmt.Sprintf("SPOT-%s-%d", workshopTail, now.UnixMilli())

		attendanceStatus := models.AttendanceApplied
		if s.cfg.SpotAutoPresent {
			attendanceStatus = models.AttendancePresent
		}

		registration := &models.Registration{
			ID:                    uuid.New(),
			WorkshopID:            workshop.ID,
			FormNumber:            formNumber,
			MncUID:                mncUID,
			FullName:              strings.TrimSpace(req.FullName),
			MncRegistrationNumber: regNumber,
			MobileNumber:          strings.TrimSpace(req.MobileNumber),
			PaymentUTR:            strings.TrimSpace(req.PaymentUTR),
			PaymentScreenshot:     req.PaymentScreenshot,
			RegistrationType:      models.RegistrationTypeSpot,
			AttendanceStatus:      attendanceStatus,
			SubmittedAt:           now,
			IPAddress:             req.IPAddress,
		}

		if err := s.repo.RegistrationRepo.CreateRegistration(tx, registration); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return NewRegistrationError("duplicate registration detected", ErrDuplicateStudent, err)
			}
			return NewRegistrationError("failed to create registration", ErrDatabase, err)
		}

		if s.cfg.SpotAutoPresent {
			attendance := &models.Attendance{
				ID:                    uuid.New(),
				WorkshopID:            workshop.ID,
				RegistrationID:        registration.ID,
				MncUID:                registration.MncUID,
				MncRegistrationNumber: registration.MncRegistrationNumber,
				StudentName:           registration.FullName,
				QRToken:               strings.TrimSpace(req.Token),
				MarkedAt:              now,
				IPAddress:             req.IPAddress,
			}
			if err := s.repo.AttendanceRepo.CreateAttendance(tx, attendance); err != nil {
				// An existing attendance row satisfies the invariant already.
				if !errors.Is(err, gorm.ErrDuplicatedKey) {
					return NewRegistrationError("failed to record attendance", ErrDatabase, err)
				}
			}
		}

		workshop.CurrentRegistrations++
		workshop.CurrentSpotRegistrations++
		if workshop.CurrentRegistrations >= workshop.MaxSeats {
			workshop.Status = models.StatusFull
		}
		if err := s.repo.WorkshopRepo.SaveWorkshop(tx, workshop); err != nil {
			return NewRegistrationError("failed to update workshop counters", ErrDatabase, err)
		}

		result = &AdmissionResult{
			FormNumber:       registration.FormNumber,
			MncUID:           registration.MncUID,
			FullName:         registration.FullName,
			WorkshopTitle:    workshop.Title,
			RegistrationType: registration.RegistrationType,
			SubmittedAt:      registration.SubmittedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"form_number": result.FormNumber,
		"mnc_uid":     result.MncUID,
	}).Info("spot registration admitted")

	return result, nil
}

// IssueSpotToken returns the workshop's live spot token, minting a new one
// only when none exists or the current one has expired.
func (s *RegistrationService) IssueSpotToken(workshopID string) (*SpotTokenResult, error) {
	var result *SpotTokenResult

	err := s.repo.WorkshopRepo.Transaction(func(tx *gorm.DB) error {
		workshop, err := s.repo.WorkshopRepo.GetWorkshopByIDForUpdate(tx, workshopID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewRegistrationError("workshop not found", ErrNotFound, err)
			}
			return NewRegistrationError("failed to load workshop", ErrDatabase, err)
		}

		if !workshop.SpotRegistrationEnabled {
			return NewRegistrationError("spot registration is not enabled for this workshop", ErrValidation, nil)
		}

		now := time.Now()
		if !workshop.HasLiveSpotToken(now) {
			token, err := tokens.RandomToken()
			if err != nil {
				return NewRegistrationError("failed to mint token", ErrDatabase, err)
			}
			expiry := now.Add(s.cfg.SpotTokenTTL)
			workshop.SpotRegistrationQRToken = &token
			workshop.SpotRegistrationTokenExpiry = &expiry
			if err := s.repo.WorkshopRepo.SaveWorkshop(tx, workshop); err != nil {
				return NewRegistrationError("failed to store token", ErrDatabase, err)
			}
		}

		remaining := workshop.SpotsRemaining()
		result = &SpotTokenResult{
			Token:          *workshop.SpotRegistrationQRToken,
			ExpiresAt:      *workshop.SpotRegistrationTokenExpiry,
			WorkshopID:     workshop.ID.String(),
			WorkshopTitle:  workshop.Title,
			SpotLimit:      workshop.SpotRegistrationLimit,
			SpotsRemaining: remaining,
			SpotsFull:      remaining <= 0,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// VerifySpotToken is side-effect-free; clients call it repeatedly before
// submission. Expired is reported distinctly from invalid since the token
// gates a link, not a single transaction.
func (s *RegistrationService) VerifySpotToken(token string) (*WorkshopPublicSummary, error) {
	if strings.TrimSpace(token) == "" {
		return nil, NewRegistrationError("token is required", ErrInvalidOrExpiredToken, nil)
	}

	workshop, err := s.repo.WorkshopRepo.GetWorkshopBySpotToken(strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRegistrationError("invalid registration link", ErrInvalidOrExpiredToken, err)
		}
		return nil, NewRegistrationError("failed to verify token", ErrDatabase, err)
	}

	if workshop.SpotRegistrationTokenExpiry == nil || workshop.SpotRegistrationTokenExpiry.Before(time.Now()) {
		return nil, NewRegistrationError("registration link has expired", ErrTokenExpired, nil)
	}

	remaining := workshop.SpotsRemaining()
	if remaining <= 0 {
		return nil, NewRegistrationError("spot registration is full for this workshop", ErrSpotQuotaFull, nil)
	}

	return &WorkshopPublicSummary{
		ID:             workshop.ID.String(),
		Title:          workshop.Title,
		Date:           workshop.Date,
		Venue:          workshop.Venue,
		Fee:            workshop.Fee,
		Credits:        workshop.Credits,
		SpotsRemaining: remaining,
	}, nil
}

// ViewRegistration resolves a registration for self-service display.
func (s *RegistrationService) ViewRegistration(mncUID, mobileNumber string) (*models.Registration, error) {
	if strings.TrimSpace(mncUID) == "" || strings.TrimSpace(mobileNumber) == "" {
		return nil, NewRegistrationError("MNC UID and mobile number are required", ErrValidation, nil)
	}

	registration, err := s.repo.RegistrationRepo.GetByUIDAndMobile(
		strings.TrimSpace(mncUID), strings.TrimSpace(mobileNumber))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewRegistrationError("no registration found with these details", ErrNotFound, err)
		}
		return nil, NewRegistrationError("failed to load registration", ErrDatabase, err)
	}
	return registration, nil
}

// RecordDownload increments the self-service download counter, capped by
// config.
func (s *RegistrationService) RecordDownload(mncUID, mobileNumber string) (int, error) {
	registration, err := s.ViewRegistration(mncUID, mobileNumber)
	if err != nil {
		return 0, err
	}

	if !registration.CanDownload(s.cfg.DownloadLimit) {
		return registration.DownloadCount, NewRegistrationError(
			fmt.Sprintf("download limit reached; already downloaded %d times", registration.DownloadCount),
			ErrDownloadLimit, nil,
		)
	}

	registration.DownloadCount++
	if err := s.repo.RegistrationRepo.SaveRegistration(registration); err != nil {
		return 0, NewRegistrationError("failed to update download count", ErrDatabase, err)
	}
	return registration.DownloadCount, nil
}

// DeleteRegistration removes one registration and decrements the owning
// workshop's counters in the same transaction, so a crash cannot leave the
// ledger ahead of the rows.
func (s *RegistrationService) DeleteRegistration(id string) error {
	var screenshot string

	err := s.repo.RegistrationRepo.Transaction(func(tx *gorm.DB) error {
		registration, err := s.repo.RegistrationRepo.GetRegistrationByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewRegistrationError("registration not found", ErrNotFound, err)
			}
			return NewRegistrationError("failed to load registration", ErrDatabase, err)
		}
		screenshot = registration.PaymentScreenshot

		workshop, err := s.repo.WorkshopRepo.GetWorkshopByIDForUpdate(tx, registration.WorkshopID.String())
		if err != nil {
			return NewRegistrationError("failed to load workshop", ErrDatabase, err)
		}

		if err := s.repo.RegistrationRepo.DeleteRegistration(tx, id); err != nil {
			return NewRegistrationError("failed to delete registration", ErrDatabase, err)
		}

		if workshop.CurrentRegistrations > 0 {
			workshop.CurrentRegistrations--
		}
		if registration.RegistrationType == models.RegistrationTypeSpot && workshop.CurrentSpotRegistrations > 0 {
			workshop.CurrentSpotRegistrations--
		}
		if err := s.repo.WorkshopRepo.SaveWorkshop(tx, workshop); err != nil {
			return NewRegistrationError("failed to update workshop counters", ErrDatabase, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The row is gone; losing the file is recoverable, losing the
	// transaction is not.
	if err := utils.DeleteStoredFile(s.cfg.PaymentDir, screenshot); err != nil {
		logrus.WithError(err).WithField("file", screenshot).Warn("failed to remove payment screenshot")
	}

	return nil
}

func (s *RegistrationService) ListRegistrations(workshopID, search string, page, pageSize int) ([]models.Registration, int64, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	var (
		registrations []models.Registration
		total         int64
		err           error
	)
	if workshopID != "" {
		registrations, total, err = s.repo.RegistrationRepo.ListByWorkshop(workshopID, search, offset, pageSize)
	} else {
		registrations, total, err = s.repo.RegistrationRepo.ListAll(search, offset, pageSize)
	}
	if err != nil {
		return nil, 0, 0, NewRegistrationError("failed to list registrations", ErrDatabase, err)
	}

	totalPages := (int(total) + pageSize - 1) / pageSize
	return registrations, total, totalPages, nil
}

func (s *RegistrationService) RecentRegistrations(workshopID string, limit int) ([]models.Registration, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.RegistrationRepo.ListRecent(workshopID, limit)
}

func validateAdmissionFields(fullName, regNumber, mobileNumber, paymentUTR, screenshot string) error {
	if strings.TrimSpace(fullName) == "" {
		return NewRegistrationError("full name is required", ErrValidation, nil)
	}
	if strings.TrimSpace(regNumber) == "" {
		return NewRegistrationError("MNC registration number is required", ErrValidation, nil)
	}
	if !mobileNumberPattern.MatchString(strings.TrimSpace(mobileNumber)) {
		return NewRegistrationError("invalid mobile number; must be 10 digits", ErrValidation, nil)
	}
	if strings.TrimSpace(paymentUTR) == "" {
		return NewRegistrationError("payment UTR is required", ErrValidation, nil)
	}
	if screenshot == "" {
		return NewRegistrationError("payment screenshot is required", ErrValidation, nil)
	}
	return nil
}
