package middleware

import (
	"workshop-registration-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// Role gates. The desk handles registration lists and manual corrections,
// spot staff run the walk-in desk, and attendance staff run the scanner.

func AdminOnly(c *fiber.Ctx) error {
	userRole, ok := c.Locals("user_role").(string)
	if !ok || userRole != "admin" {
		return utils.Error(c, "Admin access required", fiber.StatusForbidden)
	}
	return c.Next()
}

func DeskOrAdmin(c *fiber.Ctx) error {
	return requireRole(c, "admin", "desk")
}

func SpotStaffOrAdmin(c *fiber.Ctx) error {
	return requireRole(c, "admin", "spot")
}

func AttendanceStaffOrAdmin(c *fiber.Ctx) error {
	return requireRole(c, "admin", "attendance")
}

func AnyStaff(c *fiber.Ctx) error {
	return requireRole(c, "admin", "desk", "spot", "attendance")
}

func requireRole(c *fiber.Ctx, roles ...string) error {
	userRole, ok := c.Locals("user_role").(string)
	if !ok {
		return utils.Error(c, "Access denied", fiber.StatusForbidden)
	}
	for _, role := range roles {
		if userRole == role {
			return c.Next()
		}
	}
	return utils.Error(c, "Access denied", fiber.StatusForbidden)
}
