package repositories

import (
	"workshop-registration-backend/internal/models"

	"gorm.io/gorm"
)

type attendanceRepo struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) CreateAttendance(tx *gorm.DB, attendance *models.Attendance) error {
	return r.conn(tx).Create(attendance).Error
}

func (r *attendanceRepo) HasAttendance(tx *gorm.DB, workshopID, mncUID string) (bool, error) {
	var count int64
	if err := r.conn(tx).Model(&models.Attendance{}).
		Where("workshop_id = ? AND mnc_uid = ?", workshopID, mncUID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *attendanceRepo) CountByWorkshop(workshopID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Attendance{}).
		Where("workshop_id = ?", workshopID).
		Count(&count).Error
	return count, err
}

func (r *attendanceRepo) ListByWorkshop(workshopID string, limit int) ([]models.Attendance, error) {
	var attendances []models.Attendance
	query := r.db.Where("workshop_id = ?", workshopID).Order("marked_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&attendances).Error; err != nil {
		return nil, err
	}
	return attendances, nil
}

func (r *attendanceRepo) GetByWorkshopAndUID(workshopID, mncUID string) (*models.Attendance, error) {
	var attendance models.Attendance
	if err := r.db.
		Where("workshop_id = ? AND mnc_uid = ?", workshopID, mncUID).
		First(&attendance).Error; err != nil {
		return nil, err
	}
	return &attendance, nil
}

func (r *attendanceRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
