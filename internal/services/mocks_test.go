package services

import (
	"time"

	"workshop-registration-backend/internal/config"
	"workshop-registration-backend/internal/models"
	"workshop-registration-backend/internal/repositories"

	"gorm.io/gorm"
)

// Function-field mocks for the repository interfaces. Unset getters report
// gorm.ErrRecordNotFound; unset writers succeed; Transaction runs the
// callback with a nil tx, which every mock method ignores.

type mockWorkshopRepo struct {
	createFn          func(tx *gorm.DB, workshop *models.Workshop) error
	getByIDFn         func(id string) (*models.Workshop, error)
	getForUpdateFn    func(tx *gorm.DB, id string) (*models.Workshop, error)
	getActiveFn       func() (*models.Workshop, error)
	getActiveExceptFn func(tx *gorm.DB, excludeID string) (*models.Workshop, error)
	getUpcomingFn     func() ([]models.Workshop, error)
	getLatestFn       func() (*models.Workshop, error)
	getBySpotTokenFn  func(token string) (*models.Workshop, error)
	listFn            func(filters *repositories.WorkshopFilters) ([]models.Workshop, error)
	saveFn            func(tx *gorm.DB, workshop *models.Workshop) error
	deleteFn          func(tx *gorm.DB, id string) error
}

func (m *mockWorkshopRepo) CreateWorkshop(tx *gorm.DB, workshop *models.Workshop) error {
	if m.createFn != nil {
		return m.createFn(tx, workshop)
	}
	return nil
}

func (m *mockWorkshopRepo) GetWorkshopByID(id string) (*models.Workshop, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkshopRepo) GetWorkshopByIDForUpdate(tx *gorm.DB, id string) (*models.Workshop, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(tx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkshopRepo) GetActiveWorkshop() (*models.Workshop, error) {
	if m.getActiveFn != nil {
		return m.getActiveFn()
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkshopRepo) GetActiveWorkshopExcept(tx *gorm.DB, excludeID string) (*models.Workshop, error) {
	if m.getActiveExceptFn != nil {
		return m.getActiveExceptFn(tx, excludeID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkshopRepo) GetUpcomingWorkshops() ([]models.Workshop, error) {
	if m.getUpcomingFn != nil {
		return m.getUpcomingFn()
	}
	return nil, nil
}

func (m *mockWorkshopRepo) GetLatestWorkshop() (*models.Workshop, error) {
	if m.getLatestFn != nil {
		return m.getLatestFn()
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkshopRepo) GetWorkshopBySpotToken(token string) (*models.Workshop, error) {
	if m.getBySpotTokenFn != nil {
		return m.getBySpotTokenFn(token)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkshopRepo) ListWorkshops(filters *repositories.WorkshopFilters) ([]models.Workshop, error) {
	if m.listFn != nil {
		return m.listFn(filters)
	}
	return nil, nil
}

func (m *mockWorkshopRepo) SaveWorkshop(tx *gorm.DB, workshop *models.Workshop) error {
	if m.saveFn != nil {
		return m.saveFn(tx, workshop)
	}
	return nil
}

func (m *mockWorkshopRepo) DeleteWorkshop(tx *gorm.DB, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(tx, id)
	}
	return nil
}

func (m *mockWorkshopRepo) Transaction(txFunc func(*gorm.DB) error) error {
	return txFunc(nil)
}

type mockRegistrationRepo struct {
	createFn             func(tx *gorm.DB, registration *models.Registration) error
	getByIDFn            func(id string) (*models.Registration, error)
	getByUIDFn           func(tx *gorm.DB, workshopID, mncUID string) (*models.Registration, error)
	getByRegNumberFn     func(tx *gorm.DB, workshopID, regNumber string) (*models.Registration, error)
	getByUIDAndMobileFn  func(workshopID, mncUID, mobileNumber string) (*models.Registration, error)
	getAnyUIDAndMobileFn func(mncUID, mobileNumber string) (*models.Registration, error)
	nextFormNumberFn     func(tx *gorm.DB, workshopID string) (int, error)
	countFn              func(tx *gorm.DB, workshopID string) (int64, error)
	countSpotFn          func(tx *gorm.DB, workshopID string) (int64, error)
	countAllFn           func() (int64, error)
	listByWorkshopFn     func(workshopID, search string, offset, limit int) ([]models.Registration, int64, error)
	listAllFn            func(search string, offset, limit int) ([]models.Registration, int64, error)
	listRecentFn         func(workshopID string, limit int) ([]models.Registration, error)
	updateStatusFn       func(tx *gorm.DB, registrationID, status string) error
	saveFn               func(registration *models.Registration) error
	deleteFn             func(tx *gorm.DB, id string) error
}

func (m *mockRegistrationRepo) CreateRegistration(tx *gorm.DB, registration *models.Registration) error {
	if m.createFn != nil {
		return m.createFn(tx, registration)
	}
	return nil
}

func (m *mockRegistrationRepo) GetRegistrationByID(id string) (*models.Registration, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) GetByWorkshopAndUID(tx *gorm.DB, workshopID, mncUID string) (*models.Registration, error) {
	if m.getByUIDFn != nil {
		return m.getByUIDFn(tx, workshopID, mncUID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) GetByWorkshopAndRegNumber(tx *gorm.DB, workshopID, regNumber string) (*models.Registration, error) {
	if m.getByRegNumberFn != nil {
		return m.getByRegNumberFn(tx, workshopID, regNumber)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) GetByWorkshopUIDAndMobile(workshopID, mncUID, mobileNumber string) (*models.Registration, error) {
	if m.getByUIDAndMobileFn != nil {
		return m.getByUIDAndMobileFn(workshopID, mncUID, mobileNumber)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) GetByUIDAndMobile(mncUID, mobileNumber string) (*models.Registration, error) {
	if m.getAnyUIDAndMobileFn != nil {
		return m.getAnyUIDAndMobileFn(mncUID, mobileNumber)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) NextFormNumber(tx *gorm.DB, workshopID string) (int, error) {
	if m.nextFormNumberFn != nil {
		return m.nextFormNumberFn(tx, workshopID)
	}
	return 1, nil
}

func (m *mockRegistrationRepo) CountByWorkshop(tx *gorm.DB, workshopID string) (int64, error) {
	if m.countFn != nil {
		return m.countFn(tx, workshopID)
	}
	return 0, nil
}

func (m *mockRegistrationRepo) CountSpotByWorkshop(tx *gorm.DB, workshopID string) (int64, error) {
	if m.countSpotFn != nil {
		return m.countSpotFn(tx, workshopID)
	}
	return 0, nil
}

func (m *mockRegistrationRepo) CountAll() (int64, error) {
	if m.countAllFn != nil {
		return m.countAllFn()
	}
	return 0, nil
}

func (m *mockRegistrationRepo) ListByWorkshop(workshopID, search string, offset, limit int) ([]models.Registration, int64, error) {
	if m.listByWorkshopFn != nil {
		return m.listByWorkshopFn(workshopID, search, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockRegistrationRepo) ListAll(search string, offset, limit int) ([]models.Registration, int64, error) {
	if m.listAllFn != nil {
		return m.listAllFn(search, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockRegistrationRepo) ListRecent(workshopID string, limit int) ([]models.Registration, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(workshopID, limit)
	}
	return nil, nil
}

func (m *mockRegistrationRepo) UpdateAttendanceStatus(tx *gorm.DB, registrationID, status string) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(tx, registrationID, status)
	}
	return nil
}

func (m *mockRegistrationRepo) SaveRegistration(registration *models.Registration) error {
	if m.saveFn != nil {
		return m.saveFn(registration)
	}
	return nil
}

func (m *mockRegistrationRepo) DeleteRegistration(tx *gorm.DB, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(tx, id)
	}
	return nil
}

func (m *mockRegistrationRepo) Transaction(txFunc func(*gorm.DB) error) error {
	return txFunc(nil)
}

type mockAttendanceRepo struct {
	createFn   func(tx *gorm.DB, attendance *models.Attendance) error
	hasFn      func(tx *gorm.DB, workshopID, mncUID string) (bool, error)
	countFn    func(workshopID string) (int64, error)
	listFn     func(workshopID string, limit int) ([]models.Attendance, error)
	getByUIDFn func(workshopID, mncUID string) (*models.Attendance, error)
}

func (m *mockAttendanceRepo) CreateAttendance(tx *gorm.DB, attendance *models.Attendance) error {
	if m.createFn != nil {
		return m.createFn(tx, attendance)
	}
	return nil
}

func (m *mockAttendanceRepo) HasAttendance(tx *gorm.DB, workshopID, mncUID string) (bool, error) {
	if m.hasFn != nil {
		return m.hasFn(tx, workshopID, mncUID)
	}
	return false, nil
}

func (m *mockAttendanceRepo) CountByWorkshop(workshopID string) (int64, error) {
	if m.countFn != nil {
		return m.countFn(workshopID)
	}
	return 0, nil
}

func (m *mockAttendanceRepo) ListByWorkshop(workshopID string, limit int) ([]models.Attendance, error) {
	if m.listFn != nil {
		return m.listFn(workshopID, limit)
	}
	return nil, nil
}

func (m *mockAttendanceRepo) GetByWorkshopAndUID(workshopID, mncUID string) (*models.Attendance, error) {
	if m.getByUIDFn != nil {
		return m.getByUIDFn(workshopID, mncUID)
	}
	return nil, gorm.ErrRecordNotFound
}

type mockUserRepo struct {
	getByUsernameFn func(username string) (*models.User, error)
	getByIDFn       func(id string) (*models.User, error)
	createFn        func(user *models.User) error
	updateFn        func(user *models.User) error
}

func (m *mockUserRepo) GetUserByUsername(username string) (*models.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(username)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetUserByID(id string) (*models.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) CreateUser(user *models.User) error {
	if m.createFn != nil {
		return m.createFn(user)
	}
	return nil
}

func (m *mockUserRepo) UpdateUser(user *models.User) error {
	if m.updateFn != nil {
		return m.updateFn(user)
	}
	return nil
}

func newTestRepo(workshops *mockWorkshopRepo, registrations *mockRegistrationRepo, attendances *mockAttendanceRepo, users *mockUserRepo) *repositories.Repository {
	if workshops == nil {
		workshops = &mockWorkshopRepo{}
	}
	if registrations == nil {
		registrations = &mockRegistrationRepo{}
	}
	if attendances == nil {
		attendances = &mockAttendanceRepo{}
	}
	if users == nil {
		users = &mockUserRepo{}
	}
	return &repositories.Repository{
		WorkshopRepo:     workshops,
		RegistrationRepo: registrations,
		AttendanceRepo:   attendances,
		UserRepo:         users,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		PaymentDir:          "/tmp/test-payments",
		QRDir:               "/tmp/test-qr",
		MaxUploadSize:       5 * 1024 * 1024,
		AttendanceTokenTTL:  2 * time.Minute,
		SpotTokenTTL:        24 * time.Hour,
		SpotAutoPresent:     true,
		EnforceSingleActive: true,
		DownloadLimit:       2,
	}
}
