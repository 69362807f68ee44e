package handler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"ertib_delivery/config"
	"ertib_delivery/constants"
	"ertib_delivery/database"
	"ertib_delivery/helper"
	"ertib_delivery/model"
	"ertib_delivery/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Số lần thử ngay lập tức ở đợt 1
const firstRoundAttempts = 3

// Đợt 2 chạy sau 10 phút cho các số còn fail
const retryDelay = 10 * time.Minute

// collectRecipients gộp số điện thoại từ đơn hàng và user đã đăng ký,
// khử trùng lặp và loại số của chủ quán khỏi tin quảng bá
func collectRecipients() ([]string, error) {
	var orderPhones []string
	if err := database.DB.Model(&model.Order{}).Distinct().Pluck("phone", &orderPhones).Error; err != nil {
		return nil, err
	}

	var userPhones []string
	if err := database.DB.Model(&model.User{}).Distinct().Pluck("phone", &userPhones).Error; err != nil {
		return nil, err
	}

	operator := helper.NormalizePhone(config.Config("OPERATOR_PHONE"))
	seen := make(map[string]bool)
	recipients := []string{}
	for _, phone := range append(orderPhones, userPhones...) {
		if phone == "" || phone == operator || seen[phone] {
			continue
		}
		seen[phone] = true
		recipients = append(recipients, phone)
	}

	return recipients, nil
}

func generateCampaignSlug(tx *gorm.DB, name string) string {
	if name == "" {
		name = "broadcast"
	}
	base := slug.Make(name)
	result := fmt.Sprintf("%s-%s", base, time.Now().In(helper.ServiceLocation).Format("20060102"))

	// Trùng slug thì nối thêm hậu tố ngắn, giống cách sinh mã đơn
	var count int64
	tx.Model(&model.BroadcastCampaign{}).Where("slug = ?", result).Count(&count)
	if count > 0 {
		result = result + "-" + uuid.New().String()[:8]
	}

	return result
}

// BroadcastSMS gửi đợt 1 đồng thời cho mọi số, mỗi số tối đa 3 lần thử liên tiếp.
// Kết quả từng số độc lập nhau, một số fail không chặn các số khác.
// Các số còn fail được ghi lịch retry bền trong DB, cron sweep sẽ chạy đợt 2.
func BroadcastSMS(c *fiber.Ctx) error {
	input, ok := c.Locals("broadcastInput").(model.BroadcastInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_REQUIRED_FIELDS, nil)
	}

	recipients, err := collectRecipients()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	campaign := model.BroadcastCampaign{
		Slug:         generateCampaignSlug(database.DB, input.Name),
		Message:      input.Message,
		TotalNumbers: len(recipients),
	}
	if err := database.DB.Create(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	// Đợt 1: fan-out đồng thời
	results := make([]model.BroadcastRecipient, len(recipients))
	var wg sync.WaitGroup
	for i, phone := range recipients {
		wg.Add(1)
		go func(i int, phone string) {
			defer wg.Done()
			results[i] = attemptDelivery(campaign.ID, phone, input.Message, firstRoundAttempts)
		}(i, phone)
	}
	wg.Wait()

	sent, failed := 0, 0
	now := time.Now()
	for i := range results {
		if results[i].Status == constants.RECIPIENT_SENT {
			sent++
		} else {
			failed++
			results[i].Status = constants.RECIPIENT_RETRYING
			results[i].NextAttemptAt = utils.Ptr(now.Add(retryDelay))
		}
	}

	campaign.SentFirstRound = sent
	campaign.FailedFirstRound = failed
	campaign.RetryScheduled = failed > 0

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if len(results) > 0 {
			if err := tx.Create(&results).Error; err != nil {
				return err
			}
		}
		return tx.Save(&campaign).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	log.Printf("Broadcast %s: đợt 1 xong, sent=%d failed=%d", campaign.Slug, sent, failed)

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"slug":             campaign.Slug,
		"totalNumbers":     campaign.TotalNumbers,
		"sentFirstRound":   sent,
		"failedFirstRound": failed,
		"retryScheduled":   campaign.RetryScheduled,
	})
}

// attemptDelivery thử gửi tối đa maxAttempts lần liên tiếp cho một số
func attemptDelivery(campaignID uint, phone, message string, maxAttempts int) model.BroadcastRecipient {
	recipient := model.BroadcastRecipient{
		CampaignID: campaignID,
		Phone:      phone,
	}

	for i := 0; i < maxAttempts; i++ {
		recipient.Attempts++
		result := utils.SendSMS(phone, message)
		if result.Status == constants.SMS_SENT {
			recipient.Status = constants.RECIPIENT_SENT
			recipient.LastError = ""
			return recipient
		}
		recipient.LastError = result.Info
	}

	recipient.Status = constants.RECIPIENT_FAILED
	return recipient
}

func GetBroadcastCampaign(c *fiber.Ctx) error {
	var campaign model.BroadcastCampaign
	if err := database.DB.Where("slug = ?", c.Params("slug")).First(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", err)
	}

	var recipients []model.BroadcastRecipient
	if err := database.DB.Where("campaign_id = ?", campaign.ID).Find(&recipients).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"campaign":   campaign,
		"recipients": recipients,
	})
}
