package models

import (
	"time"

	"github.com/google/uuid"
)

// Workshop statuses
const (
	StatusDraft     = "draft"
	StatusUpcoming  = "upcoming"
	StatusActive    = "active"
	StatusFull      = "full"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusSpot      = "spot"
)

// Registration types
const (
	RegistrationTypeOnline = "online"
	RegistrationTypeSpot   = "spot"
)

// Attendance statuses on a registration
const (
	AttendanceApplied = "applied"
	AttendancePresent = "present"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null;default:'desk'" json:"role"` // admin|desk|spot|attendance
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Workshop struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"not null;index:idx_workshops_date,sort:desc" json:"date"`
	DayOfWeek   string    `gorm:"type:varchar(10)" json:"day_of_week"`
	Venue       string    `gorm:"not null" json:"venue"`
	VenueLink   string    `json:"venue_link"`
	Fee         float64   `gorm:"default:0" json:"fee"`
	Credits     int       `gorm:"default:0" json:"credits"`

	MaxSeats             int    `gorm:"not null;default:500" json:"max_seats"`
	CurrentRegistrations int    `gorm:"not null;default:0" json:"current_registrations"`
	Status               string `gorm:"type:varchar(20);not null;default:'draft';index:idx_workshops_status_date" json:"status"`

	RegistrationStartDate *time.Time `json:"registration_start_date"`
	RegistrationEndDate   *time.Time `json:"registration_end_date"`

	// Spot registration sub-quota. Spot seats count against MaxSeats
	// through CurrentRegistrations but are capped separately.
	SpotRegistrationEnabled     bool       `gorm:"default:false" json:"spot_registration_enabled"`
	SpotRegistrationLimit       int        `gorm:"default:0" json:"spot_registration_limit"`
	CurrentSpotRegistrations    int        `gorm:"default:0" json:"current_spot_registrations"`
	SpotRegistrationQRToken     *string    `gorm:"index" json:"-"`
	SpotRegistrationTokenExpiry *time.Time `json:"spot_registration_token_expiry"`

	PaymentQRImage string    `json:"payment_qr_image"`
	CreatedBy      string    `gorm:"default:'admin'" json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Registrations []Registration `gorm:"foreignKey:WorkshopID" json:"registrations,omitempty"`
}

// SeatsRemaining reports the seats left under the cached counter.
func (w *Workshop) SeatsRemaining() int {
	remaining := w.MaxSeats - w.CurrentRegistrations
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SpotsRemaining reports the spot sub-quota left under the cached counter.
func (w *Workshop) SpotsRemaining() int {
	remaining := w.SpotRegistrationLimit - w.CurrentSpotRegistrations
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanAcceptRegistrations is the online-admission gate.
func (w *Workshop) CanAcceptRegistrations() bool {
	return w.Status == StatusActive && w.CurrentRegistrations < w.MaxSeats
}

// HasLiveSpotToken reports whether the workshop carries an unexpired spot token.
func (w *Workshop) HasLiveSpotToken(now time.Time) bool {
	return w.SpotRegistrationQRToken != nil &&
		w.SpotRegistrationTokenExpiry != nil &&
		w.SpotRegistrationTokenExpiry.After(now)
}

type Registration struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkshopID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_registrations_workshop_form;uniqueIndex:idx_registrations_workshop_uid" json:"workshop_id"`

	FormNumber int    `gorm:"not null;uniqueIndex:idx_registrations_workshop_form" json:"form_number"`
	MncUID     string `gorm:"not null;uniqueIndex:idx_registrations_workshop_uid" json:"mnc_uid"`

	FullName              string `gorm:"not null" json:"full_name"`
	MncRegistrationNumber string `gorm:"not null;index" json:"mnc_registration_number"`
	MobileNumber          string `gorm:"type:varchar(10);not null" json:"mobile_number"`
	PaymentUTR            string `gorm:"not null" json:"payment_utr"`
	PaymentScreenshot     string `gorm:"not null" json:"payment_screenshot"`

	DownloadCount    int       `gorm:"not null;default:0" json:"download_count"`
	RegistrationType string    `gorm:"type:varchar(10);not null;default:'online'" json:"registration_type"`
	AttendanceStatus string    `gorm:"type:varchar(10);not null;default:'applied'" json:"attendance_status"`
	SubmittedAt      time.Time `gorm:"index:idx_registrations_workshop_submitted,sort:desc" json:"submitted_at"`
	IPAddress        string    `json:"ip_address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Workshop Workshop `gorm:"foreignKey:WorkshopID" json:"workshop,omitempty"`
}

// CanDownload reports whether the self-service confirmation download is still allowed.
func (r *Registration) CanDownload(limit int) bool {
	return r.DownloadCount < limit
}

type Attendance struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkshopID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendances_workshop_uid" json:"workshop_id"`
	RegistrationID uuid.UUID `gorm:"type:uuid;not null" json:"registration_id"`

	// Denormalized from the registration for fast display at the venue.
	MncUID                string `gorm:"not null;uniqueIndex:idx_attendances_workshop_uid" json:"mnc_uid"`
	MncRegistrationNumber string `gorm:"not null" json:"mnc_registration_number"`
	StudentName           string `gorm:"not null" json:"student_name"`

	QRToken           string    `gorm:"not null;index" json:"-"`
	MarkedAt          time.Time `gorm:"index:idx_attendances_workshop_marked,sort:desc" json:"marked_at"`
	IPAddress         string    `json:"ip_address"`
	UserAgent         string    `json:"user_agent"`
	DeviceFingerprint string    `json:"device_fingerprint"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Registration Registration `gorm:"foreignKey:RegistrationID" json:"registration,omitempty"`
}
