package services

import (
	"strings"
	"testing"
	"time"

	"workshop-registration-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func activeWorkshop() *models.Workshop {
	return &models.Workshop{
		ID:                   uuid.New(),
		Title:                "Advanced Wound Care",
		Date:                 time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC),
		Venue:                "Nursing College Auditorium",
		MaxSeats:             100,
		CurrentRegistrations: 40,
		Status:               models.StatusActive,
	}
}

func onlineRequest(workshopID string) AdmitOnlineRequest {
	return AdmitOnlineRequest{
		WorkshopID:            workshopID,
		FullName:              "Asha Kumari",
		MncUID:                "MNC-2024-001",
		MncRegistrationNumber: "rn12345",
		MobileNumber:          "9876543210",
		PaymentUTR:            "UTR0001",
		PaymentScreenshot:     "payment_abc.png",
		IPAddress:             "10.0.0.1",
	}
}

func TestAdmitOnline_Success(t *testing.T) {
	workshop := activeWorkshop()
	var created *models.Registration
	var saved *models.Workshop

	workshops := &mockWorkshopRepo{
		getForUpdateFn: func(_ *gorm.DB, id string) (*models.Workshop, error) {
			return workshop, nil
		},
		saveFn: func(_ *gorm.DB, w *models.Workshop) error {
			saved = w
			return nil
		},
	}
	registrations := &mockRegistrationRepo{
		nextFormNumberFn: func(_ *gorm.DB, _ string) (int, error) {
			return 41, nil
		},
		createFn: func(_ *gorm.DB, r *models.Registration) error {
			created = r
			return nil
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, registrations, nil, nil), testConfig())
	result, err := svc.AdmitOnline(onlineRequest(workshop.ID.String()))

	require.NoError(t, err)
	assert.Equal(t, 41, result.FormNumber)
	assert.Equal(t, "MNC-2024-001", result.MncUID)
	assert.Equal(t, models.RegistrationTypeOnline, result.RegistrationType)

	require.NotNil(t, created)
	assert.Equal(t, "RN12345", created.MncRegistrationNumber)
	assert.Equal(t, models.AttendanceApplied, created.AttendanceStatus)

	require.NotNil(t, saved)
	assert.Equal(t, 41, saved.CurrentRegistrations)
	assert.Equal(t, models.StatusActive, saved.Status)
}

func TestAdmitOnline_LastSeatFlipsWorkshopFull(t *testing.T) {
	workshop := activeWorkshop()
	workshop.MaxSeats = 2
	workshop.CurrentRegistrations = 1

	var saved *models.Workshop
	workshops := &mockWorkshopRepo{
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
		saveFn: func(_ *gorm.DB, w *models.Workshop) error {
			saved = w
			return nil
		},
	}
	registrations := &mockRegistrationRepo{
		nextFormNumberFn: func(_ *gorm.DB, _ string) (int, error) { return 2, nil },
	}

	svc := NewRegistrationService(newTestRepo(workshops, registrations, nil, nil), testConfig())
	_, err := svc.AdmitOnline(onlineRequest(workshop.ID.String()))

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 2, saved.CurrentRegistrations)
	assert.Equal(t, models.StatusFull, saved.Status)
}

func TestAdmitOnline_CapacityFull(t *testing.T) {
	workshop := activeWorkshop()
	workshop.CurrentRegistrations = workshop.MaxSeats

	workshops := &mockWorkshopRepo{
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, nil, nil, nil), testConfig())
	_, err := svc.AdmitOnline(onlineRequest(workshop.ID.String()))

	require.Error(t, err)
	assert.Equal(t, ErrCapacityFull, GetErrorCode(err))
}

func TestAdmitOnline_WorkshopNotAccepting(t *testing.T) {
	workshop := activeWorkshop()
	workshop.Status = models.StatusCompleted

	workshops := &mockWorkshopRepo{
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, nil, nil, nil), testConfig())
	_, err := svc.AdmitOnline(onlineRequest(workshop.ID.String()))

	require.Error(t, err)
	assert.Equal(t, ErrWorkshopNotAccepting, GetErrorCode(err))
	assert.Contains(t, err.Error(), "completed")
}

func TestAdmitOnline_DuplicateUID(t *testing.T) {
	workshop := activeWorkshop()

	workshops := &mockWorkshopRepo{
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
	}
	registrations := &mockRegistrationRepo{
		getByUIDFn: func(_ *gorm.DB, _, _ string) (*models.Registration, error) {
			return &models.Registration{MncUID: "MNC-2024-001"}, nil
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, registrations, nil, nil), testConfig())
	_, err := svc.AdmitOnline(onlineRequest(workshop.ID.String()))

	require.Error(t, err)
	assert.Equal(t, ErrDuplicateStudent, GetErrorCode(err))
}

func TestAdmitOnline_DuplicateKeyRace(t *testing.T) {
	workshop := activeWorkshop()

	workshops := &mockWorkshopRepo{
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
	}
	registrations := &mockRegistrationRepo{
		createFn: func(_ *gorm.DB, _ *models.Registration) error {
			return gorm.ErrDuplicatedKey
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, registrations, nil, nil), testConfig())
	_, err := svc.AdmitOnline(onlineRequest(workshop.ID.String()))

	require.Error(t, err)
	assert.Equal(t, ErrDuplicateStudent, GetErrorCode(err))
}

func TestAdmitOnline_InvalidMobile(t *testing.T) {
	svc := NewRegistrationService(newTestRepo(nil, nil, nil, nil), testConfig())

	req := onlineRequest(uuid.New().String())
	req.MobileNumber = "12345"
	_, err := svc.AdmitOnline(req)

	require.Error(t, err)
	assert.Equal(t, ErrValidation, GetErrorCode(err))
}

func spotWorkshop(token string) *models.Workshop {
	expiry := time.Now().Add(2 * time.Hour)
	w := activeWorkshop()
	w.Status = models.StatusSpot
	w.SpotRegistrationEnabled = true
	w.SpotRegistrationLimit = 20
	w.CurrentSpotRegistrations = 5
	w.SpotRegistrationQRToken = &token
	w.SpotRegistrationTokenExpiry = &expiry
	return w
}

func spotRequest(token string) AdmitSpotRequest {
	return AdmitSpotRequest{
		Token:                 token,
		FullName:              "Meena Joshi",
		MncRegistrationNumber: "rn99887",
		MobileNumber:          "9123456780",
		PaymentUTR:            "UTR0002",
		PaymentScreenshot:     "payment_def.png",
		IPAddress:             "10.0.0.2",
	}
}

func TestAdmitSpot_Success(t *testing.T) {
	token := "spot-token-1"
	workshop := spotWorkshop(token)

	var created *models.Registration
	var attendance *models.Attendance
	var saved *models.Workshop

	workshops := &mockWorkshopRepo{
		getBySpotTokenFn: func(_ string) (*models.Workshop, error) { return workshop, nil },
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
		saveFn: func(_ *gorm.DB, w *models.Workshop) error {
			saved = w
			return nil
		},
	}
	registrations := &mockRegistrationRepo{
		countSpotFn: func(_ *gorm.DB, _ string) (int64, error) { return 5, nil },
		nextFormNumberFn: func(_ *gorm.DB, _ string) (int, error) {
			return 46, nil
		},
		createFn: func(_ *gorm.DB, r *models.Registration) error {
			created = r
			return nil
		},
	}
	attendances := &mockAttendanceRepo{
		createFn: func(_ *gorm.DB, a *models.Attendance) error {
			attendance = a
			return nil
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, registrations, attendances, nil), testConfig())
	result, err := svc.AdmitSpot(spotRequest(token))

	require.NoError(t, err)
	assert.Equal(t, 46, result.FormNumber)
	assert.Equal(t, models.RegistrationTypeSpot, result.RegistrationType)
	assert.True(t, strings.HasPrefix(result.MncUID, "SPOT-"))

	require.NotNil(t, created)
	assert.Equal(t, "RN99887", created.MncRegistrationNumber)
	assert.Equal(t, models.AttendancePresent, created.AttendanceStatus)

	require.NotNil(t, attendance)
	assert.Equal(t, created.MncUID, attendance.MncUID)

	require.NotNil(t, saved)
	assert.Equal(t, 41, saved.CurrentRegistrations)
	assert.Equal(t, 6, saved.CurrentSpotRegistrations)
}

func TestAdmitSpot_AutoPresentDisabled(t *testing.T) {
	token := "spot-token-2"
	workshop := spotWorkshop(token)

	var created *models.Registration
	attendanceCreated := false

	workshops := &mockWorkshopRepo{
		getBySpotTokenFn: func(_ string) (*models.Workshop, error) { return workshop, nil },
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
	}
	registrations := &mockRegistrationRepo{
		createFn: func(_ *gorm.DB, r *models.Registration) error {
			created = r
			return nil
		},
	}
	attendances := &mockAttendanceRepo{
		createFn: func(_ *gorm.DB, _ *models.Attendance) error {
			attendanceCreated = true
			return nil
		},
	}

	cfg := testConfig()
	cfg.SpotAutoPresent = false

	svc := NewRegistrationService(newTestRepo(workshops, registrations, attendances, nil), cfg)
	_, err := svc.AdmitSpot(spotRequest(token))

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.AttendanceApplied, created.AttendanceStatus)
	assert.False(t, attendanceCreated)
}

func TestAdmitSpot_QuotaFull(t *testing.T) {
	token := "spot-token-3"
	workshop := spotWorkshop(token)

	workshops := &mockWorkshopRepo{
		getBySpotTokenFn: func(_ string) (*models.Workshop, error) { return workshop, nil },
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
	}
	registrations := &mockRegistrationRepo{
		countSpotFn: func(_ *gorm.DB, _ string) (int64, error) {
			return int64(workshop.SpotRegistrationLimit), nil
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, registrations, nil, nil), testConfig())
	_, err := svc.AdmitSpot(spotRequest(token))

	require.Error(t, err)
	assert.Equal(t, ErrSpotQuotaFull, GetErrorCode(err))
}

func TestAdmitSpot_ExpiredToken(t *testing.T) {
	token := "spot-token-4"
	workshop := spotWorkshop(token)
	expired := time.Now().Add(-time.Minute)
	workshop.SpotRegistrationTokenExpiry = &expired

	workshops := &mockWorkshopRepo{
		getBySpotTokenFn: func(_ string) (*models.Workshop, error) { return workshop, nil },
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, nil, nil, nil), testConfig())
	_, err := svc.AdmitSpot(spotRequest(token))

	require.Error(t, err)
	assert.Equal(t, ErrInvalidOrExpiredToken, GetErrorCode(err))
}

func TestAdmitSpot_DuplicateRegNumber(t *testing.T) {
	token := "spot-token-5"
	workshop := spotWorkshop(token)

	workshops := &mockWorkshopRepo{
		getBySpotTokenFn: func(_ string) (*models.Workshop, error) { return workshop, nil },
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
	}
	registrations := &mockRegistrationRepo{
		getByRegNumberFn: func(_ *gorm.DB, _, regNumber string) (*models.Registration, error) {
			assert.Equal(t, "RN99887", regNumber)
			return &models.Registration{MncRegistrationNumber: regNumber}, nil
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, registrations, nil, nil), testConfig())
	_, err := svc.AdmitSpot(spotRequest(token))

	require.Error(t, err)
	assert.Equal(t, ErrDuplicateStudent, GetErrorCode(err))
}

func TestIssueSpotToken_ReusesLiveToken(t *testing.T) {
	token := "live-token"
	workshop := spotWorkshop(token)

	saveCalled := false
	workshops := &mockWorkshopRepo{
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
		saveFn: func(_ *gorm.DB, _ *models.Workshop) error {
			saveCalled = true
			return nil
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, nil, nil, nil), testConfig())
	result, err := svc.IssueSpotToken(workshop.ID.String())

	require.NoError(t, err)
	assert.Equal(t, token, result.Token)
	assert.False(t, saveCalled)
	assert.Equal(t, 15, result.SpotsRemaining)
}

func TestIssueSpotToken_MintsWhenExpired(t *testing.T) {
	token := "stale-token"
	workshop := spotWorkshop(token)
	expired := time.Now().Add(-time.Hour)
	workshop.SpotRegistrationTokenExpiry = &expired

	var saved *models.Workshop
	workshops := &mockWorkshopRepo{
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
		saveFn: func(_ *gorm.DB, w *models.Workshop) error {
			saved = w
			return nil
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, nil, nil, nil), testConfig())
	result, err := svc.IssueSpotToken(workshop.ID.String())

	require.NoError(t, err)
	assert.NotEqual(t, "stale-token", result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))
	require.NotNil(t, saved)
	assert.Equal(t, result.Token, *saved.SpotRegistrationQRToken)
}

func TestVerifySpotToken_ExpiredDistinctFromInvalid(t *testing.T) {
	token := "verify-token"
	workshop := spotWorkshop(token)
	expired := time.Now().Add(-time.Minute)
	workshop.SpotRegistrationTokenExpiry = &expired

	workshops := &mockWorkshopRepo{
		getBySpotTokenFn: func(value string) (*models.Workshop, error) {
			if value == token {
				return workshop, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, nil, nil, nil), testConfig())

	_, err := svc.VerifySpotToken(token)
	require.Error(t, err)
	assert.Equal(t, ErrTokenExpired, GetErrorCode(err))

	_, err = svc.VerifySpotToken("unknown")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidOrExpiredToken, GetErrorCode(err))
}

func TestRecordDownload_CapEnforced(t *testing.T) {
	registration := &models.Registration{
		ID:            uuid.New(),
		MncUID:        "MNC-2024-007",
		MobileNumber:  "9876543210",
		DownloadCount: 2,
	}

	registrations := &mockRegistrationRepo{
		getAnyUIDAndMobileFn: func(_, _ string) (*models.Registration, error) {
			return registration, nil
		},
	}

	svc := NewRegistrationService(newTestRepo(nil, registrations, nil, nil), testConfig())
	_, err := svc.RecordDownload("MNC-2024-007", "9876543210")

	require.Error(t, err)
	assert.Equal(t, ErrDownloadLimit, GetErrorCode(err))
}

func TestRecordDownload_Increments(t *testing.T) {
	registration := &models.Registration{
		ID:            uuid.New(),
		MncUID:        "MNC-2024-008",
		MobileNumber:  "9876543210",
		DownloadCount: 1,
	}

	var saved *models.Registration
	registrations := &mockRegistrationRepo{
		getAnyUIDAndMobileFn: func(_, _ string) (*models.Registration, error) {
			return registration, nil
		},
		saveFn: func(r *models.Registration) error {
			saved = r
			return nil
		},
	}

	svc := NewRegistrationService(newTestRepo(nil, registrations, nil, nil), testConfig())
	count, err := svc.RecordDownload("MNC-2024-008", "9876543210")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NotNil(t, saved)
	assert.Equal(t, 2, saved.DownloadCount)
}

func TestDeleteRegistration_DecrementsCounters(t *testing.T) {
	workshop := activeWorkshop()
	workshop.CurrentSpotRegistrations = 3

	registration := &models.Registration{
		ID:               uuid.New(),
		WorkshopID:       workshop.ID,
		RegistrationType: models.RegistrationTypeSpot,
	}

	var saved *models.Workshop
	workshops := &mockWorkshopRepo{
		getForUpdateFn: func(_ *gorm.DB, _ string) (*models.Workshop, error) {
			return workshop, nil
		},
		saveFn: func(_ *gorm.DB, w *models.Workshop) error {
			saved = w
			return nil
		},
	}
	registrations := &mockRegistrationRepo{
		getByIDFn: func(_ string) (*models.Registration, error) {
			return registration, nil
		},
	}

	svc := NewRegistrationService(newTestRepo(workshops, registrations, nil, nil), testConfig())
	err := svc.DeleteRegistration(registration.ID.String())

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 39, saved.CurrentRegistrations)
	assert.Equal(t, 2, saved.CurrentSpotRegistrations)
}

func TestDeleteRegistration_NotFound(t *testing.T) {
	svc := NewRegistrationService(newTestRepo(nil, nil, nil, nil), testConfig())
	err := svc.DeleteRegistration(uuid.New().String())

	require.Error(t, err)
	assert.Equal(t, ErrNotFound, GetErrorCode(err))
}
