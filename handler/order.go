package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"ertib_delivery/config"
	"ertib_delivery/constants"
	"ertib_delivery/database"
	"ertib_delivery/helper"
	"ertib_delivery/model"
	"ertib_delivery/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

func trackingLink(code string) string {
	return config.ConfigDefault("BASE_URL", "http://localhost:5173") + "/track/" + code
}

func smsTextFor(order model.Order, smsType string) (string, bool) {
	switch smsType {
	case constants.SMS_CONFIRMATION:
		return fmt.Sprintf("Hi %s! Your Ertib order is confirmed. Total: %.0f birr. Track it here: %s",
			order.CustomerName, order.Total, trackingLink(order.TrackingCode)), true
	case constants.SMS_ARRIVAL:
		return fmt.Sprintf("Hi %s, your Ertib has arrived. Please come and take it.", order.CustomerName), true
	}
	return "", false
}

// SendOrderSMS gửi SMS cho một đơn và ghi kết quả vào sms history.
// Luôn chạy sau khi transaction tạo/cập nhật đơn đã commit, lỗi gửi
// không bao giờ chạm tới response của khách.
func SendOrderSMS(orderID uint, smsType string) {
	var order model.Order
	if err := database.DB.First(&order, orderID).Error; err != nil {
		log.Printf("SendOrderSMS: không tìm thấy đơn %d: %v", orderID, err)
		return
	}

	text, ok := smsTextFor(order, smsType)
	if !ok {
		log.Printf("SendOrderSMS: loại SMS không hợp lệ %q", smsType)
		return
	}

	result := utils.SendSMS(order.Phone, text)

	// Mỗi lần gửi là một row insert riêng nên các lần gửi đồng thời
	// cho cùng một đơn không ghi đè nhau
	entry := model.SmsHistory{
		OrderID:          order.ID,
		Type:             smsType,
		Provider:         result.Provider,
		ProviderResponse: result.Info,
		Status:           result.Status,
	}
	if err := database.DB.Create(&entry).Error; err != nil {
		log.Printf("SendOrderSMS: lỗi ghi sms history cho đơn %d: %v", order.ID, err)
	}

	PublishOrderEvent(fiber.Map{
		"type":         "sms",
		"orderId":      order.ID,
		"trackingCode": order.TrackingCode,
		"smsType":      smsType,
		"smsStatus":    result.Status,
	})
}

func createOrder(c *fiber.Ctx, source string) error {
	input, ok := c.Locals("orderInput").(model.CreateOrderInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_REQUIRED_FIELDS, nil)
	}

	normalizedPhone := helper.NormalizePhone(input.Phone)
	if !helper.IsValidPhone(normalizedPhone) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_PHONE, nil)
	}

	items, total := helper.BuildOrderItems(input.Items)

	// Chống double-tap: chỉ áp cho đơn tự đặt online
	if source == constants.SOURCE_ONLINE {
		var recent []model.Order
		since := time.Now().Add(-helper.DuplicateWindow)
		if err := database.DB.Preload("Items").
			Where("phone = ? AND created_at >= ?", normalizedPhone, since).
			Find(&recent).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}
		if helper.IsDuplicate(time.Now(), items, recent) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DUPLICATE_ORDER, nil)
		}
	}

	var userID *uint
	if claim, _ := helper.GetInfoUserFromToken(c); claim.UserId != 0 {
		userID = utils.Ptr(claim.UserId)
	}

	order := model.Order{
		CustomerName: input.CustomerName,
		Phone:        normalizedPhone,
		Location:     input.Location,
		Source:       source,
		UserID:       userID,
		Items:        items,
		Total:        total,
		Status:       constants.ORDER_PENDING,
	}

	// Đơn + mã tracking + history đầu tiên phải cùng commit hoặc cùng fail
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		order.TrackingCode = helper.GenerateTrackingCode(tx)
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Create(&model.StatusHistory{
			OrderID: order.ID,
			Status:  constants.ORDER_PENDING,
		}).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	// SMS xác nhận nằm ngoài critical path
	go SendOrderSMS(order.ID, constants.SMS_CONFIRMATION)

	PublishOrderEvent(fiber.Map{
		"type":         "created",
		"orderId":      order.ID,
		"trackingCode": order.TrackingCode,
		"total":        order.Total,
		"source":       order.Source,
	})

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"message":      "Order placed successfully",
		"orderId":      order.ID,
		"trackingCode": order.TrackingCode,
	})
}

// CreateOrder là đơn online tự đặt, đã qua gate availability ở router
func CreateOrder(c *fiber.Ctx) error {
	return createOrder(c, constants.SOURCE_ONLINE)
}

// CreateManualOrder do admin nhập hộ, không check trùng và không qua gate
func CreateManualOrder(c *fiber.Ctx) error {
	return createOrder(c, constants.SOURCE_MANUAL)
}

func GetOrders(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	status := c.Query("status")

	countQuery := database.DB.Model(&model.Order{})
	listQuery := database.DB.Model(&model.Order{})
	if status != "" {
		countQuery = countQuery.Where("status = ?", status)
		listQuery = listQuery.Where("status = ?", status)
	}

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var orders []model.Order
	if err := utils.ApplyPagination(listQuery, &limit, &page).
		Preload("Items").
		Preload("StatusHistory").
		Preload("SmsHistory").
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"data":  orders,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func UpdateOrderStatus(c *fiber.Ctx) error {
	orderID, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ORDER_NOT_FOUND, nil)
	}
	input, ok := c.Locals("statusInput").(model.UpdateStatusInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_STATUS, nil)
	}

	if !helper.IsValidStatus(input.Status) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_STATUS, nil)
	}

	var order model.Order
	if err := database.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	if !helper.CanTransition(order.Status, input.Status) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_TRANSITION, nil)
	}

	// History chỉ append, lặp lại cùng status vẫn ghi thêm một dòng
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).Update("status", input.Status).Error; err != nil {
			return err
		}
		return tx.Create(&model.StatusHistory{
			OrderID: order.ID,
			Status:  input.Status,
		}).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_EDIT, err)
	}

	if input.Status == constants.ORDER_ARRIVED {
		go SendOrderSMS(order.ID, constants.SMS_ARRIVAL)
	}

	PublishOrderEvent(fiber.Map{
		"type":         "status",
		"orderId":      order.ID,
		"trackingCode": order.TrackingCode,
		"status":       input.Status,
	})

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"message": "Status updated",
		"orderId": order.ID,
		"status":  input.Status,
	})
}

func ResendSMS(c *fiber.Ctx) error {
	input, ok := c.Locals("resendInput").(model.ResendSMSInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_REQUIRED_FIELDS, nil)
	}

	if input.Type != constants.SMS_CONFIRMATION && input.Type != constants.SMS_ARRIVAL {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_SMS_TYPE, nil)
	}

	var order model.Order
	if err := database.DB.First(&order, input.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	// Resend là thao tác admin chờ được, gửi đồng bộ để trả kết quả thật
	text, _ := smsTextFor(order, input.Type)
	result := utils.SendSMS(order.Phone, text)

	entry := model.SmsHistory{
		OrderID:          order.ID,
		Type:             input.Type,
		Provider:         result.Provider,
		ProviderResponse: result.Info,
		Status:           result.Status,
	}
	if err := database.DB.Create(&entry).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"message": "SMS resent",
		"status":  result.Status,
	})
}

type trackItemResponse struct {
	ErtibType    string  `json:"ertibType"`
	Ketchup      bool    `json:"ketchup"`
	Spices       bool    `json:"spices"`
	ExtraKetchup bool    `json:"extraKetchup"`
	ExtraFelafil bool    `json:"extraFelafil"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	LineTotal    float64 `json:"lineTotal"`
}

// findOrderByCodeToday chỉ resolve mã của đơn tạo trong ngày (giờ EAT),
// để mã tracking không bị dò vô thời hạn
func findOrderByCodeToday(code string, preloadAll bool) (*model.Order, error) {
	query := database.DB.Where("tracking_code = ? AND created_at >= ?", code, helper.StartOfToday(time.Now()))
	if preloadAll {
		query = query.Preload("Items").Preload("StatusHistory").Preload("SmsHistory")
	} else {
		query = query.Preload("Items")
	}

	var order model.Order
	if err := query.First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func TrackOrderByCode(c *fiber.Ctx) error {
	code := c.Params("code")

	order, err := findOrderByCodeToday(code, true)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
	}

	items := []trackItemResponse{}
	copier.Copy(&items, &order.Items)

	// QR của link tracking để dán lên bao bì / chia sẻ lại
	qrBase64 := ""
	if qrBytes, err := utils.GenerateQRCode(trackingLink(order.TrackingCode), 300); err != nil {
		log.Printf("Lỗi tạo QR cho đơn %s: %v", order.TrackingCode, err)
	} else {
		qrBase64 = "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrBytes)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"trackingCode":  order.TrackingCode,
		"customerName":  order.CustomerName,
		"status":        order.Status,
		"statusHistory": order.StatusHistory,
		"items":         items,
		"total":         order.Total,
		"location":      order.Location,
		"createdAt":     order.CreatedAt,
		"qrCode":        qrBase64,
	})
}

// EditOrderByCode cho khách tự sửa đơn pending khi gate còn mở.
// Total là snapshot nên phải tính lại và ghi đè cùng items mới.
func EditOrderByCode(c *fiber.Ctx) error {
	code := c.Params("code")
	input, ok := c.Locals("editInput").(model.EditOrderInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_REQUIRED_FIELDS, nil)
	}

	// Gate phải check lại tại thời điểm gọi, không tin client
	cfg, err := loadAvailability()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if decision := helper.CheckServiceAvailability(time.Now(), cfg); !decision.Allowed {
		return utils.ErrorResponse(c, fiber.StatusForbidden, decision.Reason, nil)
	}

	order, err := findOrderByCodeToday(code, false)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
	}

	if order.Status != constants.ORDER_PENDING {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ONLY_PENDING_CAN_BE_EDIT, nil)
	}

	items, total := helper.BuildOrderItems(input.Items)
	for i := range items {
		items[i].OrderID = order.ID
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"total": total}
		if input.Location != "" {
			updates["location"] = input.Location
		}
		return tx.Model(order).Updates(updates).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_EDIT, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"message":      "Order updated",
		"trackingCode": order.TrackingCode,
		"total":        total,
	})
}

func CancelOrderByCode(c *fiber.Ctx) error {
	code := c.Params("code")

	cfg, err := loadAvailability()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if decision := helper.CheckServiceAvailability(time.Now(), cfg); !decision.Allowed {
		return utils.ErrorResponse(c, fiber.StatusForbidden, decision.Reason, nil)
	}

	order, err := findOrderByCodeToday(code, false)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
	}

	if !helper.CanTransition(order.Status, constants.ORDER_CANCELED) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.EDIT_NOT_ALLOWED, nil)
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Update("status", constants.ORDER_CANCELED).Error; err != nil {
			return err
		}
		return tx.Create(&model.StatusHistory{
			OrderID: order.ID,
			Status:  constants.ORDER_CANCELED,
		}).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_EDIT, err)
	}

	PublishOrderEvent(fiber.Map{
		"type":         "status",
		"orderId":      order.ID,
		"trackingCode": order.TrackingCode,
		"status":       constants.ORDER_CANCELED,
	})

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"message": "Order canceled",
	})
}

// DeleteOrder xóa cứng, không khôi phục được
func DeleteOrder(c *fiber.Ctx) error {
	orderID, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ORDER_NOT_FOUND, nil)
	}

	var order model.Order
	if err := database.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.StatusHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.SmsHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_DELETE, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"message": "Order deleted",
	})
}
