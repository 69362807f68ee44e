package handler

import (
	"time"

	"ertib_delivery/constants"
	"ertib_delivery/database"
	"ertib_delivery/helper"
	"ertib_delivery/model"
	"ertib_delivery/utils"

	"github.com/gofiber/fiber/v2"
)

// GetAdminStats trả về số đơn và doanh thu hôm nay (giờ EAT)
func GetAdminStats(c *fiber.Ctx) error {
	start := helper.StartOfToday(time.Now())

	var ordersToday int64
	if err := database.DB.Model(&model.Order{}).
		Where("created_at >= ?", start).
		Count(&ordersToday).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var incomeToday float64
	if err := database.DB.Model(&model.Order{}).
		Where("created_at >= ?", start).
		Select("COALESCE(SUM(total), 0)").
		Scan(&incomeToday).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"ordersToday": ordersToday,
		"incomeToday": incomeToday,
	})
}
