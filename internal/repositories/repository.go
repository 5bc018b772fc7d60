package repositories

import (
	"workshop-registration-backend/internal/models"

	"gorm.io/gorm"
)

type Repository struct {
	DB               *gorm.DB
	WorkshopRepo     WorkshopRepository
	RegistrationRepo RegistrationRepository
	AttendanceRepo   AttendanceRepository
	UserRepo         UserRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:               db,
		WorkshopRepo:     NewWorkshopRepository(db),
		RegistrationRepo: NewRegistrationRepository(db),
		AttendanceRepo:   NewAttendanceRepository(db),
		UserRepo:         NewUserRepository(db),
	}
}

func AutoMigrate(db *gorm.DB) error {
	// Enable UUID extension
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return err
	}

	// Migrate models; the composite unique indexes on registrations and
	// attendances back the dedup invariants and settle concurrent races.
	return db.AutoMigrate(
		&models.User{},
		&models.Workshop{},
		&models.Registration{},
		&models.Attendance{},
	)
}

// Interface definitions

type WorkshopRepository interface {
	CreateWorkshop(tx *gorm.DB, workshop *models.Workshop) error
	GetWorkshopByID(id string) (*models.Workshop, error)
	GetWorkshopByIDForUpdate(tx *gorm.DB, id string) (*models.Workshop, error)
	GetActiveWorkshop() (*models.Workshop, error)
	GetActiveWorkshopExcept(tx *gorm.DB, excludeID string) (*models.Workshop, error)
	GetUpcomingWorkshops() ([]models.Workshop, error)
	GetLatestWorkshop() (*models.Workshop, error)
	GetWorkshopBySpotToken(token string) (*models.Workshop, error)
	ListWorkshops(filters *WorkshopFilters) ([]models.Workshop, error)
	SaveWorkshop(tx *gorm.DB, workshop *models.Workshop) error
	DeleteWorkshop(tx *gorm.DB, id string) error
	Transaction(txFunc func(*gorm.DB) error) error
}

type RegistrationRepository interface {
	CreateRegistration(tx *gorm.DB, registration *models.Registration) error
	GetRegistrationByID(id string) (*models.Registration, error)
	GetByWorkshopAndUID(tx *gorm.DB, workshopID, mncUID string) (*models.Registration, error)
	GetByWorkshopAndRegNumber(tx *gorm.DB, workshopID, regNumber string) (*models.Registration, error)
	GetByWorkshopUIDAndMobile(workshopID, mncUID, mobileNumber string) (*models.Registration, error)
	GetByUIDAndMobile(mncUID, mobileNumber string) (*models.Registration, error)
	NextFormNumber(tx *gorm.DB, workshopID string) (int, error)
	CountByWorkshop(tx *gorm.DB, workshopID string) (int64, error)
	CountSpotByWorkshop(tx *gorm.DB, workshopID string) (int64, error)
	CountAll() (int64, error)
	ListByWorkshop(workshopID, search string, offset, limit int) ([]models.Registration, int64, error)
	ListAll(search string, offset, limit int) ([]models.Registration, int64, error)
	ListRecent(workshopID string, limit int) ([]models.Registration, error)
	UpdateAttendanceStatus(tx *gorm.DB, registrationID, status string) error
	SaveRegistration(registration *models.Registration) error
	DeleteRegistration(tx *gorm.DB, id string) error
	Transaction(txFunc func(*gorm.DB) error) error
}

type AttendanceRepository interface {
	CreateAttendance(tx *gorm.DB, attendance *models.Attendance) error
	HasAttendance(tx *gorm.DB, workshopID, mncUID string) (bool, error)
	CountByWorkshop(workshopID string) (int64, error)
	ListByWorkshop(workshopID string, limit int) ([]models.Attendance, error)
	GetByWorkshopAndUID(workshopID, mncUID string) (*models.Attendance, error)
}

type UserRepository interface {
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	CreateUser(user *models.User) error
	UpdateUser(user *models.User) error
}
