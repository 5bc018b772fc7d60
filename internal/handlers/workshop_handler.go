package handlers

import (
	"time"

	"workshop-registration-backend/internal/middleware"
	"workshop-registration-backend/internal/repositories"
	"workshop-registration-backend/internal/services"
	"workshop-registration-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateWorkshopRequest struct {
	Title                   string  `json:"title" validate:"required"`
	Description             string  `json:"description"`
	Date                    string  `json:"date" validate:"required"`
	DayOfWeek               string  `json:"day_of_week"`
	Venue                   string  `json:"venue" validate:"required"`
	VenueLink               string  `json:"venue_link"`
	Fee                     float64 `json:"fee" validate:"gte=0"`
	Credits                 int     `json:"credits" validate:"gte=0"`
	MaxSeats                int     `json:"max_seats" validate:"required,gt=0"`
	Status                  string  `json:"status" validate:"omitempty,oneof=draft upcoming active full completed cancelled spot"`
	RegistrationStartDate   string  `json:"registration_start_date"`
	RegistrationEndDate     string  `json:"registration_end_date"`
	SpotRegistrationEnabled bool    `json:"spot_registration_enabled"`
	SpotRegistrationLimit   int     `json:"spot_registration_limit" validate:"gte=0"`
}

type UpdateWorkshopRequest struct {
	Title                   *string  `json:"title"`
	Description             *string  `json:"description"`
	Date                    *string  `json:"date"`
	DayOfWeek               *string  `json:"day_of_week"`
	Venue                   *string  `json:"venue"`
	VenueLink               *string  `json:"venue_link"`
	Fee                     *float64 `json:"fee" validate:"omitempty,gte=0"`
	Credits                 *int     `json:"credits" validate:"omitempty,gte=0"`
	MaxSeats                *int     `json:"max_seats" validate:"omitempty,gt=0"`
	Status                  *string  `json:"status" validate:"omitempty,oneof=draft upcoming active full completed cancelled spot"`
	RegistrationStartDate   *string  `json:"registration_start_date"`
	RegistrationEndDate     *string  `json:"registration_end_date"`
	SpotRegistrationEnabled *bool    `json:"spot_registration_enabled"`
	SpotRegistrationLimit   *int     `json:"spot_registration_limit" validate:"omitempty,gte=0"`
}

type ChangeStatusRequest struct {
	Status                  string `json:"status" validate:"required,oneof=draft upcoming active full completed cancelled spot"`
	SpotRegistrationEnabled *bool  `json:"spot_registration_enabled"`
	SpotRegistrationLimit   *int   `json:"spot_registration_limit" validate:"omitempty,gte=0"`
}

type SpotSettingsRequest struct {
	SpotRegistrationEnabled *bool `json:"spot_registration_enabled"`
	SpotRegistrationLimit   *int  `json:"spot_registration_limit" validate:"omitempty,gte=0"`
}

// CreateWorkshop creates a new workshop
// @Summary Create workshop
// @Tags Workshops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateWorkshopRequest true "Workshop data"
// @Success 201 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Router /workshops [post]
func (h *Handler) CreateWorkshop(c *fiber.Ctx) error {
	var req CreateWorkshopRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return utils.Error(c, "Invalid date format", fiber.StatusBadRequest)
	}

	svcReq := services.CreateWorkshopRequest{
		Title:                   req.Title,
		Description:             req.Description,
		Date:                    date,
		DayOfWeek:               req.DayOfWeek,
		Venue:                   req.Venue,
		VenueLink:               req.VenueLink,
		Fee:                     req.Fee,
		Credits:                 req.Credits,
		MaxSeats:                req.MaxSeats,
		Status:                  req.Status,
		SpotRegistrationEnabled: req.SpotRegistrationEnabled,
		SpotRegistrationLimit:   req.SpotRegistrationLimit,
	}

	if req.RegistrationStartDate != "" {
		start, err := time.Parse(time.RFC3339, req.RegistrationStartDate)
		if err != nil {
			return utils.Error(c, "Invalid registration_start_date format", fiber.StatusBadRequest)
		}
		svcReq.RegistrationStartDate = &start
	}
	if req.RegistrationEndDate != "" {
		end, err := time.Parse(time.RFC3339, req.RegistrationEndDate)
		if err != nil {
			return utils.Error(c, "Invalid registration_end_date format", fiber.StatusBadRequest)
		}
		svcReq.RegistrationEndDate = &end
	}

	// Optional payment QR upload
	if file, err := c.FormFile("payment_qr"); err == nil && file != nil {
		if err := utils.ValidateImageFile(file, h.cfg.MaxUploadSize); err != nil {
			return utils.Error(c, err.Error(), fiber.StatusBadRequest)
		}
		filename := utils.GenerateUniqueFilename(file.Filename)
		if err := utils.SaveUploadedFile(file, h.cfg.QRDir, filename); err != nil {
			return utils.Error(c, "Failed to save payment QR", fiber.StatusInternalServerError)
		}
		svcReq.PaymentQRImage = filename
	}

	workshop, err := h.workshopSvc.CreateWorkshop(svcReq)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, workshop, "Workshop created successfully", fiber.StatusCreated)
}

// UpdateWorkshop applies a partial update
// @Summary Update workshop
// @Tags Workshops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workshop ID"
// @Param request body UpdateWorkshopRequest true "Fields to update"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /workshops/{id} [put]
func (h *Handler) UpdateWorkshop(c *fiber.Ctx) error {
	workshopID := c.Params("id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	var req UpdateWorkshopRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	svcReq := services.UpdateWorkshopRequest{
		Title:                   req.Title,
		Description:             req.Description,
		DayOfWeek:               req.DayOfWeek,
		Venue:                   req.Venue,
		VenueLink:               req.VenueLink,
		Fee:                     req.Fee,
		Credits:                 req.Credits,
		MaxSeats:                req.MaxSeats,
		Status:                  req.Status,
		SpotRegistrationEnabled: req.SpotRegistrationEnabled,
		SpotRegistrationLimit:   req.SpotRegistrationLimit,
	}

	if req.Date != nil {
		date, err := time.Parse(time.RFC3339, *req.Date)
		if err != nil {
			return utils.Error(c, "Invalid date format", fiber.StatusBadRequest)
		}
		svcReq.Date = &date
	}
	if req.RegistrationStartDate != nil {
		start, err := time.Parse(time.RFC3339, *req.RegistrationStartDate)
		if err != nil {
			return utils.Error(c, "Invalid registration_start_date format", fiber.StatusBadRequest)
		}
		svcReq.RegistrationStartDate = &start
	}
	if req.RegistrationEndDate != nil {
		end, err := time.Parse(time.RFC3339, *req.RegistrationEndDate)
		if err != nil {
			return utils.Error(c, "Invalid registration_end_date format", fiber.StatusBadRequest)
		}
		svcReq.RegistrationEndDate = &end
	}

	workshop, err := h.workshopSvc.UpdateWorkshop(workshopID, svcReq)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, workshop, "Workshop updated successfully")
}

// ChangeWorkshopStatus moves the workshop through its lifecycle
// @Summary Change workshop status
// @Tags Workshops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workshop ID"
// @Param request body ChangeStatusRequest true "Target status"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /workshops/{id}/status [patch]
func (h *Handler) ChangeWorkshopStatus(c *fiber.Ctx) error {
	workshopID := c.Params("id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	var req ChangeStatusRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	workshop, err := h.workshopSvc.ChangeStatus(workshopID, req.Status, req.SpotRegistrationEnabled, req.SpotRegistrationLimit)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, workshop, "Workshop status updated")
}

// UpdateSpotSettings changes the spot sub-quota settings
// @Summary Update spot settings
// @Tags Workshops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workshop ID"
// @Param request body SpotSettingsRequest true "Spot settings"
// @Success 200 {object} utils.Response
// @Router /workshops/{id}/spot-settings [patch]
func (h *Handler) UpdateSpotSettings(c *fiber.Ctx) error {
	workshopID := c.Params("id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	var req SpotSettingsRequest
	if err := middleware.ValidateBody(&req)(c); err != nil {
		return err
	}

	workshop, err := h.workshopSvc.UpdateSpotSettings(workshopID, req.SpotRegistrationEnabled, req.SpotRegistrationLimit)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, workshop, "Spot settings updated")
}

// SyncCounters reconciles cached counters against row counts
// @Summary Sync workshop counters
// @Tags Workshops
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workshop ID"
// @Success 200 {object} utils.Response
// @Router /workshops/{id}/sync [post]
func (h *Handler) SyncCounters(c *fiber.Ctx) error {
	workshopID := c.Params("id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	result, err := h.workshopSvc.SyncCounters(workshopID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, result, "Counters synced")
}

// DeleteWorkshop removes a workshop without registrations
// @Summary Delete workshop
// @Tags Workshops
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workshop ID"
// @Success 200 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /workshops/{id} [delete]
func (h *Handler) DeleteWorkshop(c *fiber.Ctx) error {
	workshopID := c.Params("id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	if err := h.workshopSvc.DeleteWorkshop(workshopID); err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, nil, "Workshop deleted successfully")
}

// ListWorkshops returns workshops matching the filters
// @Summary List workshops
// @Tags Workshops
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param search query string false "Search term"
// @Success 200 {object} utils.Response
// @Router /workshops [get]
func (h *Handler) ListWorkshops(c *fiber.Ctx) error {
	filters := &repositories.WorkshopFilters{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}

	if from := c.Query("start_date"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return utils.Error(c, "Invalid start_date format", fiber.StatusBadRequest)
		}
		filters.StartDate = &parsed
	}
	if to := c.Query("end_date"); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return utils.Error(c, "Invalid end_date format", fiber.StatusBadRequest)
		}
		filters.EndDate = &parsed
	}

	workshops, err := h.workshopSvc.ListWorkshops(filters)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, workshops, "Workshops retrieved successfully")
}

// GetWorkshop returns workshop by ID
// @Summary Get workshop
// @Tags Workshops
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /workshops/{id} [get]
func (h *Handler) GetWorkshop(c *fiber.Ctx) error {
	workshopID := c.Params("id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	workshop, err := h.workshopSvc.GetWorkshop(workshopID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, workshop, "Workshop retrieved successfully")
}

// GetActiveWorkshop returns the workshop currently open for registration
func (h *Handler) GetActiveWorkshop(c *fiber.Ctx) error {
	workshop, err := h.workshopSvc.GetActiveWorkshop()
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return utils.Success(c, workshop, "Active workshop retrieved")
}

// GetUpcomingWorkshops returns upcoming and active workshops
func (h *Handler) GetUpcomingWorkshops(c *fiber.Ctx) error {
	workshops, err := h.workshopSvc.GetUpcomingWorkshops()
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return utils.Success(c, workshops, "Upcoming workshops retrieved")
}

// GetLatestWorkshop returns the active workshop or the next upcoming one
func (h *Handler) GetLatestWorkshop(c *fiber.Ctx) error {
	workshop, err := h.workshopSvc.GetLatestWorkshop()
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return utils.Success(c, workshop, "Latest workshop retrieved")
}

// GetRegistrationCount returns seat usage for one workshop
// @Summary Get registration count
// @Tags Workshops
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 200 {object} utils.Response
// @Router /workshops/{id}/count [get]
func (h *Handler) GetRegistrationCount(c *fiber.Ctx) error {
	workshopID := c.Params("id")
	if _, err := uuid.Parse(workshopID); err != nil {
		return utils.Error(c, "Invalid workshop ID", fiber.StatusBadRequest)
	}

	count, err := h.workshopSvc.GetRegistrationCount(workshopID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return utils.Success(c, count, "Registration count retrieved")
}
