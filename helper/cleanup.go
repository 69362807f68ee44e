package helper

import (
	"log"
	"time"

	"ertib_delivery/constants"
	"ertib_delivery/database"
	"ertib_delivery/model"

	"github.com/go-co-op/gocron/v2"
)

var cleanupScheduler gocron.Scheduler

// Giữ lại bản ghi recipient 30 ngày để còn tra soát, sau đó dọn
const recipientRetention = 30 * 24 * time.Hour

func CleanupOldBroadcastRecipients() {
	log.Println("[CRON] CleanupOldBroadcastRecipients triggered")

	cutoff := time.Now().Add(-recipientRetention)
	result := database.DB.
		Where("created_at < ? AND status <> ?", cutoff, constants.RECIPIENT_RETRYING).
		Delete(&model.BroadcastRecipient{})

	if result.Error != nil {
		log.Printf("Lỗi dọn broadcast recipient: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("Đã dọn %d broadcast recipient cũ", result.RowsAffected)
	}
}

func StartCleanupScheduler() {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(ServiceLocation),
	)
	if err != nil {
		log.Fatal(err)
	}

	cleanupScheduler = s

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(0, 5, 0),
			),
		),
		gocron.NewTask(CleanupOldBroadcastRecipients),
	)
	if err != nil {
		log.Fatal(err)
	}

	s.Start()
	log.Println("Cleanup scheduler đã khởi động (hàng ngày 00:05)")
}

func StopCleanupScheduler() {
	if cleanupScheduler != nil {
		cleanupScheduler.Shutdown()
	}
}
