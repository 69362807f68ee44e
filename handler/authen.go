package handler

import (
	"errors"
	"strings"

	"ertib_delivery/constants"
	"ertib_delivery/database"
	"ertib_delivery/helper"
	"ertib_delivery/model"
	"ertib_delivery/utils"

	"github.com/gofiber/fiber/v2"
)

func Register(c *fiber.Ctx) error {
	input, ok := c.Locals("registerInput").(model.RegisterInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_REQUIRED_FIELDS, nil)
	}

	normalized := helper.NormalizePhone(input.Phone)
	if !helper.IsValidPhone(normalized) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_PHONE, nil)
	}

	hash, err := helper.HashPassword(input.Password)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CAN_NOT_HASH_PASSWORD, err)
	}

	// Tự đăng ký chỉ được role user, admin tạo qua endpoint riêng
	user := model.User{
		Name:        input.Name,
		Phone:       normalized,
		Password:    hash,
		BlockNumber: input.BlockNumber,
		Role:        constants.ROLE_USER,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "UNIQUE") {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.PHONE_ALREADY_EXISTS, nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"id":          user.ID,
		"name":        user.Name,
		"phone":       user.Phone,
		"blockNumber": user.BlockNumber,
		"role":        user.Role,
	})
}

func Login(c *fiber.Ctx) error {
	var input model.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_LOGIN_INPUT, err)
	}

	if input.Phone == "" || input.Password == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_LOGIN_INPUT, errors.New("phone and password are required"))
	}

	user, err := helper.GetUserByPhone(helper.NormalizePhone(input.Phone))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if user == nil || !helper.CheckPasswordHash(input.Password, user.Password) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_CREDENTIALS, nil)
	}

	token, err := helper.GenerateAccessToken(model.TokenClaim{
		UserId: user.ID,
		Phone:  user.Phone,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":          user.ID,
			"name":        user.Name,
			"phone":       user.Phone,
			"blockNumber": user.BlockNumber,
			"role":        user.Role,
		},
	})
}

// CreateAdmin chỉ admin hiện có mới gọi được
func CreateAdmin(c *fiber.Ctx) error {
	input, ok := c.Locals("registerInput").(model.RegisterInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_REQUIRED_FIELDS, nil)
	}

	normalized := helper.NormalizePhone(input.Phone)
	if !helper.IsValidPhone(normalized) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_PHONE, nil)
	}

	existing, err := helper.GetUserByPhone(normalized)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if existing != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.PHONE_ALREADY_EXISTS, nil)
	}

	hash, err := helper.HashPassword(input.Password)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CAN_NOT_HASH_PASSWORD, err)
	}

	admin := model.User{
		Name:     input.Name,
		Phone:    normalized,
		Password: hash,
		Role:     constants.ROLE_ADMIN,
	}
	if err := database.DB.Create(&admin).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"message": "Admin created",
		"id":      admin.ID,
	})
}
