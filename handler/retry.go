package handler

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"ertib_delivery/config"
	"ertib_delivery/constants"
	"ertib_delivery/database"
	"ertib_delivery/model"

	"github.com/robfig/cron/v3"
	"gopkg.in/gomail.v2"
)

var retryScheduler *cron.Cron

// Đợt 2 chỉ thử thêm tối đa 2 lần mỗi số
const secondRoundAttempts = 2

// StartBroadcastRetryWorker quét mỗi phút các recipient đến hạn retry.
// Lịch retry nằm trong DB nên restart tiến trình không làm mất đợt 2.
func StartBroadcastRetryWorker() {
	retryScheduler = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := retryScheduler.AddFunc("* * * * *", RunBroadcastRetrySweep)
	if err != nil {
		log.Printf("Lỗi khởi tạo retry scheduler: %v", err)
		return
	}

	retryScheduler.Start()
	log.Println("Broadcast retry worker đã khởi động (mỗi 1 phút)")
}

func StopBroadcastRetryWorker() {
	if retryScheduler != nil {
		retryScheduler.Stop()
		log.Println("Broadcast retry worker đã dừng")
	}
}

// RunBroadcastRetrySweep chạy đợt 2 cho mọi recipient đã đến hạn
func RunBroadcastRetrySweep() {
	now := time.Now()

	var due []model.BroadcastRecipient
	if err := database.DB.
		Where("status = ? AND next_attempt_at IS NOT NULL AND next_attempt_at <= ?", constants.RECIPIENT_RETRYING, now).
		Find(&due).Error; err != nil {
		log.Printf("Lỗi quét broadcast retry: %v", err)
		return
	}

	if len(due) == 0 {
		return
	}

	// Load message theo campaign, tránh query lặp trong vòng gửi
	messages := make(map[uint]string)
	for _, r := range due {
		if _, ok := messages[r.CampaignID]; ok {
			continue
		}
		var campaign model.BroadcastCampaign
		if err := database.DB.First(&campaign, r.CampaignID).Error; err != nil {
			log.Printf("Lỗi load campaign %d: %v", r.CampaignID, err)
			continue
		}
		messages[campaign.ID] = campaign.Message
	}

	var wg sync.WaitGroup
	for i := range due {
		message, ok := messages[due[i].CampaignID]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(r model.BroadcastRecipient) {
			defer wg.Done()
			retryRecipient(r, message)
		}(due[i])
	}
	wg.Wait()

	for campaignID := range messages {
		finishCampaignIfDone(campaignID)
	}
}

func retryRecipient(r model.BroadcastRecipient, message string) {
	result := attemptDelivery(r.CampaignID, r.Phone, message, secondRoundAttempts)

	updates := map[string]interface{}{
		"status":          result.Status,
		"attempts":        r.Attempts + result.Attempts,
		"last_error":      result.LastError,
		"next_attempt_at": nil,
	}
	if err := database.DB.Model(&model.BroadcastRecipient{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
		log.Printf("Lỗi cập nhật recipient %d: %v", r.ID, err)
	}
}

// finishCampaignIfDone đánh dấu campaign xong đợt 2 và gửi mail báo cáo cho chủ quán
func finishCampaignIfDone(campaignID uint) {
	var pending int64
	if err := database.DB.Model(&model.BroadcastRecipient{}).
		Where("campaign_id = ? AND status = ?", campaignID, constants.RECIPIENT_RETRYING).
		Count(&pending).Error; err != nil || pending > 0 {
		return
	}

	var campaign model.BroadcastCampaign
	if err := database.DB.First(&campaign, campaignID).Error; err != nil {
		return
	}
	if campaign.RetryDone {
		return
	}

	if err := database.DB.Model(&campaign).Update("retry_done", true).Error; err != nil {
		log.Printf("Lỗi cập nhật campaign %d: %v", campaignID, err)
		return
	}

	var sent, failed int64
	database.DB.Model(&model.BroadcastRecipient{}).
		Where("campaign_id = ? AND status = ?", campaignID, constants.RECIPIENT_SENT).Count(&sent)
	database.DB.Model(&model.BroadcastRecipient{}).
		Where("campaign_id = ? AND status = ?", campaignID, constants.RECIPIENT_FAILED).Count(&failed)

	log.Printf("Broadcast %s: đợt retry xong, sent=%d failed=%d", campaign.Slug, sent, failed)
	go sendBroadcastReport(campaign, sent, failed)
}

func sendBroadcastReport(campaign model.BroadcastCampaign, sent, failed int64) {
	adminEmail := config.Config("ADMIN_EMAIL")
	if adminEmail == "" {
		return
	}

	body := fmt.Sprintf(
		"Broadcast %s finished.\n\nRecipients: %d\nDelivered: %d\nStill failed: %d\n\nMessage:\n%s\n",
		campaign.Slug, campaign.TotalNumbers, sent, failed, campaign.Message,
	)

	m := gomail.NewMessage()
	m.SetHeader("From", config.ConfigDefault("SMTP_FROM", "Ertib Delivery <no-reply@ertib.local>"))
	m.SetHeader("To", adminEmail)
	m.SetHeader("Subject", fmt.Sprintf("Broadcast report: %s", campaign.Slug))
	m.SetBody("text/plain", body)

	port, _ := strconv.Atoi(config.ConfigDefault("SMTP_PORT", "587"))
	d := gomail.NewDialer(config.Config("SMTP_HOST"), port, config.Config("SMTP_USERNAME"), config.Config("SMTP_PASSWORD"))
	if err := d.DialAndSend(m); err != nil {
		log.Printf("Lỗi gửi mail báo cáo broadcast %s: %v", campaign.Slug, err)
	}
}
