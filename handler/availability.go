package handler

import (
	"errors"
	"strings"
	"time"

	"ertib_delivery/constants"
	"ertib_delivery/database"
	"ertib_delivery/helper"
	"ertib_delivery/model"
	"ertib_delivery/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// loadAvailability trả về nil (không lỗi) khi chưa có bản ghi nào,
// gate sẽ fail-open thay vì chặn toàn bộ đơn
func loadAvailability() (*model.Availability, error) {
	var cfg model.Availability
	if err := database.DB.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// ServiceAvailabilityGate chặn tạo đơn mới ngoài khung phục vụ
func ServiceAvailabilityGate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cfg, err := loadAvailability()
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}

		decision := helper.CheckServiceAvailability(time.Now(), cfg)
		if !decision.Allowed {
			return utils.ErrorResponse(c, fiber.StatusForbidden, decision.Reason, nil)
		}

		return c.Next()
	}
}

func availabilityResponse(cfg *model.Availability) fiber.Map {
	days := []string{}
	if cfg.WeeklyDays != "" {
		days = strings.Split(cfg.WeeklyDays, ",")
	}
	return fiber.Map{
		"weeklyDays":          days,
		"cutoffTime":          cfg.CutoffTime,
		"isTemporarilyClosed": cfg.IsTemporarilyClosed,
		"tempCloseReason":     cfg.TempCloseReason,
	}
}

func GetAvailability(c *fiber.Ctx) error {
	cfg, err := loadAvailability()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if cfg == nil {
		return utils.SuccessResponse(c, fiber.StatusOK, nil)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, availabilityResponse(cfg))
}

// SaveAvailability upsert bản ghi singleton, bản ghi mới nhất thắng.
// Read-modify-write nằm trong transaction để hai admin sửa cùng lúc không đè nửa chừng.
func SaveAvailability(c *fiber.Ctx) error {
	var input model.AvailabilityInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_REQUIRED_FIELDS, err)
	}

	var cfg model.Availability
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cfg).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		cfg.WeeklyDays = strings.ToLower(strings.Join(input.WeeklyDays, ","))
		cfg.CutoffTime = input.CutoffTime
		cfg.IsTemporarilyClosed = input.IsTemporarilyClosed
		cfg.TempCloseReason = input.TempCloseReason

		return tx.Save(&cfg).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_EDIT, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, availabilityResponse(&cfg))
}
