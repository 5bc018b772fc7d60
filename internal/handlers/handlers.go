package handlers

import (
	"workshop-registration-backend/internal/config"
	"workshop-registration-backend/internal/middleware"
	"workshop-registration-backend/internal/services"
	"workshop-registration-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	authSvc         *services.AuthService
	workshopSvc     *services.WorkshopService
	registrationSvc *services.RegistrationService
	attendanceSvc   *services.AttendanceService
	cfg             *config.Config
}

func NewHandler(
	authSvc *services.AuthService,
	workshopSvc *services.WorkshopService,
	registrationSvc *services.RegistrationService,
	attendanceSvc *services.AttendanceService,
	cfg *config.Config,
) *Handler {
	return &Handler{
		authSvc:         authSvc,
		workshopSvc:     workshopSvc,
		registrationSvc: registrationSvc,
		attendanceSvc:   attendanceSvc,
		cfg:             cfg,
	}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	// Public routes
	auth := router.Group("/auth")
	{
		auth.Post("/login", h.Login)
	}

	// Workshop public routes
	workshops := router.Group("/workshops")
	{
		workshops.Get("/active", h.GetActiveWorkshop)
		workshops.Get("/upcoming", h.GetUpcomingWorkshops)
		workshops.Get("/latest", h.GetLatestWorkshop)
		workshops.Get("/:id/count", h.GetRegistrationCount)
		workshops.Get("/:id", h.GetWorkshop)
	}

	// Online self-registration and self-service
	registrations := router.Group("/registrations")
	{
		registrations.Post("/", h.RegisterOnline)
		registrations.Post("/view", h.ViewRegistration)
		registrations.Post("/download", h.RecordDownload)
	}

	// Spot registration through the QR link
	spot := router.Group("/spot")
	{
		spot.Get("/verify/:token", h.VerifySpotToken)
		spot.Post("/register", h.RegisterSpot)
	}

	// Attendance scan hits from student devices
	router.Post("/attendance/scan", h.ScanAttendance)

	// Protected routes (JWT required)
	protected := router.Group("", middleware.JWTMiddleware(h.cfg))
	{
		protected.Get("/profile", h.GetProfile)

		// Workshop management
		workshopsAdmin := protected.Group("/workshops", middleware.AdminOnly)
		{
			workshopsAdmin.Get("/", h.ListWorkshops)
			workshopsAdmin.Post("/", h.CreateWorkshop)
			workshopsAdmin.Put("/:id", h.UpdateWorkshop)
			workshopsAdmin.Patch("/:id/status", h.ChangeWorkshopStatus)
			workshopsAdmin.Patch("/:id/spot-settings", h.UpdateSpotSettings)
			workshopsAdmin.Post("/:id/sync", h.SyncCounters)
			workshopsAdmin.Delete("/:id", h.DeleteWorkshop)
		}

		// Registration desk
		desk := protected.Group("/manage/registrations", middleware.DeskOrAdmin)
		{
			desk.Get("/", h.ListRegistrations)
			desk.Get("/recent", h.RecentRegistrations)
		}
		protected.Delete("/manage/registrations/:id", middleware.AdminOnly, h.DeleteRegistration)

		// Spot desk
		spotDesk := protected.Group("/manage/spot", middleware.SpotStaffOrAdmin)
		{
			spotDesk.Post("/:workshop_id/token", h.IssueSpotToken)
			spotDesk.Get("/:workshop_id/token/qr", h.SpotTokenQR)
		}

		// Attendance desk
		attendance := protected.Group("/manage/attendance", middleware.AttendanceStaffOrAdmin)
		{
			attendance.Post("/:workshop_id/token", h.IssueAttendanceToken)
			attendance.Get("/:workshop_id/token/qr", h.AttendanceTokenQR)
			attendance.Get("/:workshop_id/stats", h.AttendanceStats)
			attendance.Get("/:workshop_id/records", h.ListAttendance)
			attendance.Get("/:workshop_id/students/:mnc_uid", h.StudentAttendanceStatus)
		}

		// Admin only routes
		admin := protected.Group("/admin", middleware.AdminOnly)
		{
			admin.Get("/stats", h.GetStats)
			admin.Post("/users", h.CreateUser)
		}
	}
}

// ErrorHandler handles global errors
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= 500 {
		logrus.WithError(err).WithField("path", c.Path()).Error("unhandled error")
	}

	return utils.Error(c, message, code)
}

// handleServiceError maps typed service errors onto HTTP statuses; the
// machine code rides along so clients can branch without parsing messages.
func (h *Handler) handleServiceError(c *fiber.Ctx, err error) error {
	if rerr, ok := err.(*services.RegistrationError); ok {
		status := fiber.StatusInternalServerError
		switch rerr.Code {
		case services.ErrValidation:
			status = fiber.StatusBadRequest
		case services.ErrNotFound:
			status = fiber.StatusNotFound
		case services.ErrInvalidOrExpiredToken, services.ErrTokenExpired:
			status = fiber.StatusUnauthorized
		case services.ErrPermissionDenied:
			status = fiber.StatusForbidden
		case services.ErrWorkshopNotAccepting, services.ErrCapacityFull, services.ErrSpotQuotaFull,
			services.ErrDuplicateStudent, services.ErrAlreadyMarked, services.ErrActiveConflict,
			services.ErrInvalidTransition, services.ErrWorkshopHasRecords:
			status = fiber.StatusConflict
		case services.ErrDownloadLimit:
			status = fiber.StatusTooManyRequests
		}
		return utils.ErrorWithCode(c, rerr.Message, string(rerr.Code), status)
	}

	logrus.WithError(err).WithField("path", c.Path()).Error("unexpected service error")
	return utils.Error(c, "Internal server error", fiber.StatusInternalServerError)
}
