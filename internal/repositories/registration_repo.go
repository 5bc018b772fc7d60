package repositories

import (
	"workshop-registration-backend/internal/models"

	"gorm.io/gorm"
)

type registrationRepo struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepo{db: db}
}

func (r *registrationRepo) CreateRegistration(tx *gorm.DB, registration *models.Registration) error {
	return r.conn(tx).Create(registration).Error
}

func (r *registrationRepo) GetRegistrationByID(id string) (*models.Registration, error) {
	var registration models.Registration
	if err := r.db.Where("id = ?", id).First(&registration).Error; err != nil {
		return nil, err
	}
	return &registration, nil
}

// GetByWorkshopAndUID matches the student identifier case-insensitively;
// real-world UID input varies in casing.
func (r *registrationRepo) GetByWorkshopAndUID(tx *gorm.DB, workshopID, mncUID string) (*models.Registration, error) {
	var registration models.Registration
	if err := r.conn(tx).
		Where("workshop_id = ? AND LOWER(mnc_uid) = LOWER(?)", workshopID, mncUID).
		First(&registration).Error; err != nil {
		return nil, err
	}
	return &registration, nil
}

func (r *registrationRepo) GetByWorkshopAndRegNumber(tx *gorm.DB, workshopID, regNumber string) (*models.Registration, error) {
	var registration models.Registration
	if err := r.conn(tx).
		Where("workshop_id = ? AND mnc_registration_number = ?", workshopID, regNumber).
		First(&registration).Error; err != nil {
		return nil, err
	}
	return &registration, nil
}

func (r *registrationRepo) GetByWorkshopUIDAndMobile(workshopID, mncUID, mobileNumber string) (*models.Registration, error) {
	var registration models.Registration
	if err := r.db.
		Where("workshop_id = ? AND LOWER(mnc_uid) = LOWER(?) AND mobile_number = ?",
			workshopID, mncUID, mobileNumber).
		First(&registration).Error; err != nil {
		return nil, err
	}
	return &registration, nil
}

func (r *registrationRepo) GetByUIDAndMobile(mncUID, mobileNumber string) (*models.Registration, error) {
	var registration models.Registration
	if err := r.db.
		Where("LOWER(mnc_uid) = LOWER(?) AND mobile_number = ?", mncUID, mobileNumber).
		Order("submitted_at DESC").
		First(&registration).Error; err != nil {
		return nil, err
	}
	return &registration, nil
}

// NextFormNumber computes 1 + max(form_number) within the workshop. Callers
// must hold the workshop row lock; the (workshop_id, form_number) unique
// index settles anything that slips through.
func (r *registrationRepo) NextFormNumber(tx *gorm.DB, workshopID string) (int, error) {
	var maxFormNumber int
	err := r.conn(tx).
		Model(&models.Registration{}).
		Select("COALESCE(MAX(form_number), 0)").
		Where("workshop_id = ?", workshopID).
		Scan(&maxFormNumber).Error
	if err != nil {
		return 0, err
	}
	return maxFormNumber + 1, nil
}

func (r *registrationRepo) CountByWorkshop(tx *gorm.DB, workshopID string) (int64, error) {
	var count int64
	err := r.conn(tx).
		Model(&models.Registration{}).
		Where("workshop_id = ?", workshopID).
		Count(&count).Error
	return count, err
}

func (r *registrationRepo) CountSpotByWorkshop(tx *gorm.DB, workshopID string) (int64, error) {
	var count int64
	err := r.conn(tx).
		Model(&models.Registration{}).
		Where("workshop_id = ? AND registration_type = ?", workshopID, models.RegistrationTypeSpot).
		Count(&count).Error
	return count, err
}

func (r *registrationRepo) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.Registration{}).Count(&count).Error
	return count, err
}

func (r *registrationRepo) ListByWorkshop(workshopID, search string, offset, limit int) ([]models.Registration, int64, error) {
	query := r.db.Model(&models.Registration{}).Where("workshop_id = ?", workshopID)
	query = applySearch(query, search)
	return r.paginate(query, offset, limit)
}

func (r *registrationRepo) ListAll(search string, offset, limit int) ([]models.Registration, int64, error) {
	query := r.db.Model(&models.Registration{})
	query = applySearch(query, search)
	return r.paginate(query, offset, limit)
}

func (r *registrationRepo) ListRecent(workshopID string, limit int) ([]models.Registration, error) {
	var registrations []models.Registration
	query := r.db.Model(&models.Registration{})
	if workshopID != "" {
		query = query.Where("workshop_id = ?", workshopID)
	}
	if err := query.
		Order("submitted_at DESC").
		Limit(limit).
		Find(&registrations).Error; err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *registrationRepo) UpdateAttendanceStatus(tx *gorm.DB, registrationID, status string) error {
	return r.conn(tx).
		Model(&models.Registration{}).
		Where("id = ?", registrationID).
		Update("attendance_status", status).Error
}

func (r *registrationRepo) SaveRegistration(registration *models.Registration) error {
	return r.db.Save(registration).Error
}

func (r *registrationRepo) DeleteRegistration(tx *gorm.DB, id string) error {
	result := r.conn(tx).Where("id = ?", id).Delete(&models.Registration{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *registrationRepo) Transaction(txFunc func(*gorm.DB) error) error {
	return r.db.Transaction(txFunc)
}

func (r *registrationRepo) paginate(query *gorm.DB, offset, limit int) ([]models.Registration, int64, error) {
	var registrations []models.Registration
	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Offset(offset).Limit(limit).
		Order("submitted_at DESC").
		Find(&registrations).Error; err != nil {
		return nil, 0, err
	}

	return registrations, total, nil
}

func applySearch(query *gorm.DB, search string) *gorm.DB {
	if search == "" {
		return query
	}
	searchTerm := "%" + search + "%"
	return query.Where(
		"full_name ILIKE ? OR mnc_uid ILIKE ? OR mnc_registration_number ILIKE ? OR mobile_number ILIKE ? OR payment_utr ILIKE ?",
		searchTerm, searchTerm, searchTerm, searchTerm, searchTerm,
	)
}

func (r *registrationRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
