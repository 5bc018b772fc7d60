package handlers

import (
	"fmt"
	"strconv"

	"workshop-registration-backend/internal/middleware"
	"workshop-registration-backend/internal/services"
	"workshop-registration-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ScanAttendanceRequest struct {
	Token                 string `json:"token" validate:"required"`
	MncUID                string `json:"mnc_uid"`
	MncRegistrationNumber string `json:"mnc_registration_number"`
	MobileNumber          string `json:"mobile_number" validate:"required,len=10,numeric"`
}

// IssueAttendanceToken mints a short-lived token for the projector
// @Summary Issue attendance token
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param workshop_id path string true "Workshop ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /manage/attendance/{workshop_id}/token [post]
func (h *Handler) IssueAttendanceToken(c *fiber.Ctx) error {
	workshopID := c.Params("workshop_id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	result, err := h.attendanceSvc.IssueToken(workshopID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"token":          result.Token,
		"expires_at":     result.ExpiresAt,
		"workshop_id":    result.WorkshopID,
		"workshop_title": result.WorkshopTitle,
		"scan_url":       h.attendanceScanURL(result.Token),
	}, "Attendance token issued")
}

// AttendanceTokenQR mints a fresh token and renders it as a PNG; the
// projector polls this endpoint to rotate the code.
// @Summary Attendance QR
// @Tags Attendance
// @Produce png
// @Security BearerAuth
// @Param workshop_id path string true "Workshop ID"
// @Success 200 {file} binary
// @Router /manage/attendance/{workshop_id}/token/qr [get]
func (h *Handler) AttendanceTokenQR(c *fiber.Ctx) error {
	workshopID := c.Params("workshop_id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	result, err := h.attendanceSvc.IssueToken(workshopID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	png, err := utils.GenerateQRCodePNG(h.attendanceScanURL(result.Token), 512)
	if err != nil {
		return utils.Error(c, "Failed to render QR code", fiber.StatusInternalServerError)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(png)
}

// ScanAttendance marks a student present from their own device
// @Summary Scan attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param request body ScanAttendanceRequest true "Scan payload"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /attendance/scan [post]
func (h *Handler) ScanAttendance(c *fiber.Ctx) error {
	var req ScanAttendanceRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	result, err := h.attendanceSvc.Scan(services.ScanRequest{
		Token:                 req.Token,
		MncUID:                req.MncUID,
		MncRegistrationNumber: req.MncRegistrationNumber,
		MobileNumber:          req.MobileNumber,
		IPAddress:             c.IP(),
		UserAgent:             c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, result, "Attendance marked successfully")
}

// AttendanceStats summarizes turnout for a workshop
// @Summary Attendance stats
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param workshop_id path string true "Workshop ID"
// @Success 200 {object} utils.Response
// @Router /manage/attendance/{workshop_id}/stats [get]
func (h *Handler) AttendanceStats(c *fiber.Ctx) error {
	workshopID := c.Params("workshop_id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	stats, err := h.attendanceSvc.Stats(workshopID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, stats, "Attendance stats retrieved")
}

// ListAttendance returns marked attendance records
// @Summary List attendance
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param workshop_id path string true "Workshop ID"
// @Param limit query int false "Limit" default(50)
// @Success 200 {object} utils.Response
// @Router /manage/attendance/{workshop_id}/records [get]
func (h *Handler) ListAttendance(c *fiber.Ctx) error {
	workshopID := c.Params("workshop_id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	records, err := h.attendanceSvc.ListByWorkshop(workshopID, limit)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, records, "Attendance records retrieved")
}

// StudentAttendanceStatus reports whether one student is marked present
// @Summary Student attendance status
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param workshop_id path string true "Workshop ID"
// @Param mnc_uid path string true "MNC UID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /manage/attendance/{workshop_id}/students/{mnc_uid} [get]
func (h *Handler) StudentAttendanceStatus(c *fiber.Ctx) error {
	workshopID := c.Params("workshop_id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	record, err := h.attendanceSvc.StudentStatus(workshopID, c.Params("mnc_uid"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, record, "Attendance status retrieved")
}

func (h *Handler) attendanceScanURL(token string) string {
	return fmt.Sprintf("%s/attendance/scan?token=%s", h.cfg.BaseURL, token)
}
