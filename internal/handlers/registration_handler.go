package handlers

import (
	"strconv"

	"workshop-registration-backend/internal/middleware"
	"workshop-registration-backend/internal/services"
	"workshop-registration-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SelfServiceRequest struct {
	MncUID       string `json:"mnc_uid" validate:"required"`
	MobileNumber string `json:"mobile_number" validate:"required,len=10,numeric"`
}

// RegisterOnline admits an online registration. The payload is multipart
// because the payment screenshot rides along with the form fields.
// @Summary Submit online registration
// @Tags Registrations
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /registrations [post]
func (h *Handler) RegisterOnline(c *fiber.Ctx) error {
	workshopID := c.FormValue("workshop_id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	screenshot, err := h.savePaymentScreenshot(c)
	if err != nil {
		return utils.Error(c, err.Error(), fiber.StatusBadRequest)
	}

	result, err := h.registrationSvc.AdmitOnline(services.AdmitOnlineRequest{
		WorkshopID:            workshopID,
		FullName:              c.FormValue("full_name"),
		MncUID:                c.FormValue("mnc_uid"),
		MncRegistrationNumber: c.FormValue("mnc_registration_number"),
		MobileNumber:          c.FormValue("mobile_number"),
		PaymentUTR:            c.FormValue("payment_utr"),
		PaymentScreenshot:     screenshot,
		IPAddress:             c.IP(),
	})
	if err != nil {
		// The admission never happened; drop the orphaned upload.
		_ = utils.DeleteStoredFile(h.cfg.PaymentDir, screenshot)
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, result, "Registration successful", fiber.StatusCreated)
}

// ViewRegistration resolves a registration for the student
// @Summary View own registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param request body SelfServiceRequest true "Lookup keys"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /registrations/view [post]
func (h *Handler) ViewRegistration(c *fiber.Ctx) error {
	var req SelfServiceRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	registration, err := h.registrationSvc.ViewRegistration(req.MncUID, req.MobileNumber)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, registration, "Registration retrieved successfully")
}

// RecordDownload counts a confirmation download against the cap
// @Summary Record confirmation download
// @Tags Registrations
// @Accept json
// @Produce json
// @Param request body SelfServiceRequest true "Lookup keys"
// @Success 200 {object} utils.Response
// @Failure 429 {object} utils.Response
// @Router /registrations/download [post]
func (h *Handler) RecordDownload(c *fiber.Ctx) error {
	var req SelfServiceRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	count, err := h.registrationSvc.RecordDownload(req.MncUID, req.MobileNumber)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, fiber.Map{"download_count": count}, "Download recorded")
}

// ListRegistrations returns paginated registrations for the desk
// @Summary List registrations
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param workshop_id query string false "Workshop filter"
// @Param search query string false "Search term"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(50)
// @Success 200 {object} utils.Response
// @Router /manage/registrations [get]
func (h *Handler) ListRegistrations(c *fiber.Ctx) error {
	workshopID := c.Query("workshop_id")
	if workshopID != "" {
		if _, err := uuid.Parse(workshopID); err != nil {
			return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
		}
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))

	registrations, total, totalPages, err := h.registrationSvc.ListRegistrations(
		workshopID, c.Query("search"), page, pageSize)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	meta := &utils.Meta{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPages,
	}

	return utils.SuccessWithMeta(c, registrations, meta, "Registrations retrieved successfully")
}

// RecentRegistrations returns the latest submissions
// @Summary Recent registrations
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param workshop_id query string false "Workshop filter"
// @Param limit query int false "Limit" default(10)
// @Success 200 {object} utils.Response
// @Router /manage/registrations/recent [get]
func (h *Handler) RecentRegistrations(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	registrations, err := h.registrationSvc.RecentRegistrations(c.Query("workshop_id"), limit)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, registrations, "Recent registrations retrieved")
}

// DeleteRegistration removes a registration and releases its seat
// @Summary Delete registration
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /manage/registrations/{id} [delete]
func (h *Handler) DeleteRegistration(c *fiber.Ctx) error {
	registrationID := c.Params("id")
	if _, err := uuid.Parse(registrationID); err != nil {
		return utils.Error(c, "Invalid registration ID", fiber.StatusBadRequest)
	}

	if err := h.registrationSvc.DeleteRegistration(registrationID); err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, nil, "Registration deleted successfully")
}

// GetStats returns aggregate numbers for the admin dashboard
// @Summary Admin stats
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /admin/stats [get]
func (h *Handler) GetStats(c *fiber.Ctx) error {
	counts, err := h.workshopSvc.GetRegistrationCount("")
	if err != nil {
		return h.handleServiceError(c, err)
	}

	recent, err := h.registrationSvc.RecentRegistrations("", 10)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"registrations": counts,
		"recent":        recent,
	}, "Stats retrieved successfully")
}

// savePaymentScreenshot validates and stores the uploaded screenshot,
// returning the stored filename.
func (h *Handler) savePaymentScreenshot(c *fiber.Ctx) (string, error) {
	file, err := c.FormFile("payment_screenshot")
	if err != nil || file == nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "payment screenshot is required")
	}

	if err := utils.ValidateImageFile(file, h.cfg.MaxUploadSize); err != nil {
		return "", err
	}

	filename := utils.GenerateUniqueFilename(file.Filename)
	if err := utils.SaveUploadedFile(file, h.cfg.PaymentDir, filename); err != nil {
		return "", err
	}
	return filename, nil
}
