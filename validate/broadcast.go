package validate

import (
	"ertib_delivery/constants"
	"ertib_delivery/model"
	"ertib_delivery/utils"

	"github.com/gofiber/fiber/v2"
)

func Broadcast() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.BroadcastInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_REQUIRED_FIELDS, err)
		}

		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_REQUIRED_FIELDS, err)
		}

		c.Locals("broadcastInput", input)
		return c.Next()
	}
}
