package handlers

import (
	"fmt"

	"workshop-registration-backend/internal/services"
	"workshop-registration-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IssueSpotToken returns the live walk-in registration token, minting one
// when needed
// @Summary Issue spot registration token
// @Tags Spot
// @Produce json
// @Security BearerAuth
// @Param workshop_id path string true "Workshop ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /manage/spot/{workshop_id}/token [post]
func (h *Handler) IssueSpotToken(c *fiber.Ctx) error {
	workshopID := c.Params("workshop_id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	result, err := h.registrationSvc.IssueSpotToken(workshopID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"token":                   result.Token,
		"expires_at":              result.ExpiresAt,
		"workshop_id":             result.WorkshopID,
		"workshop_title":          result.WorkshopTitle,
		"spot_registration_limit": result.SpotLimit,
		"spots_remaining":         result.SpotsRemaining,
		"spots_full":              result.SpotsFull,
		"registration_url":        h.spotRegistrationURL(result.Token),
	}, "Spot registration token issued")
}

// SpotTokenQR renders the walk-in registration link as a PNG for printing
// or projection
// @Summary Spot registration QR
// @Tags Spot
// @Produce png
// @Security BearerAuth
// @Param workshop_id path string true "Workshop ID"
// @Success 200 {file} binary
// @Router /manage/spot/{workshop_id}/token/qr [get]
func (h *Handler) SpotTokenQR(c *fiber.Ctx) error {
	workshopID := c.Params("workshop_id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	result, err := h.registrationSvc.IssueSpotToken(workshopID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	png, err := utils.GenerateQRCodePNG(h.spotRegistrationURL(result.Token), 512)
	if err != nil {
		return utils.Error(c, "Failed to render QR code", fiber.StatusInternalServerError)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// VerifySpotToken checks a walk-in link before the form is shown
// @Summary Verify spot registration token
// @Tags Spot
// @Produce json
// @Param token path string true "Spot token"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /spot/verify/{token} [get]
func (h *Handler) VerifySpotToken(c *fiber.Ctx) error {
	summary, err := h.registrationSvc.VerifySpotToken(c.Params("token"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, summary, "Token is valid")
}

// RegisterSpot admits a walk-in registration through a live token
// @Summary Submit spot registration
// @Tags Spot
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /spot/register [post]
func (h *Handler) RegisterSpot(c *fiber.Ctx) error {
	screenshot, err := h.savePaymentScreenshot(c)
	if err != nil {
		return utils.Error(c, err.Error(), fiber.StatusBadRequest)
	}

	result, err := h.registrationSvc.AdmitSpot(services.AdmitSpotRequest{
		Token:                 c.FormValue("token"),
		FullName:              c.FormValue("full_name"),
		MncRegistrationNumber: c.FormValue("mnc_registration_number"),
		MobileNumber:          c.FormValue("mobile_number"),
		PaymentUTR:            c.FormValue("payment_utr"),
		PaymentScreenshot:     screenshot,
		IPAddress:             c.IP(),
	})
	if err != nil {
		_ = utils.DeleteStoredFile(h.cfg.PaymentDir, screenshot)
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, result, "Spot registration successful", fiber.StatusCreated)
}

func (h *Handler) spotRegistrationURL(token string) string {
	return fmt.Sprintf("%s/spot/register?token=%s", h.cfg.BaseURL, token)
}
