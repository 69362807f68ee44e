package model

import "time"

type BroadcastCampaign struct {
	DTO
	Slug             string `gorm:"unique;size:80" json:"slug"`
	Message          string `json:"message"`
	TotalNumbers     int    `json:"totalNumbers"`
	SentFirstRound   int    `json:"sentFirstRound"`
	FailedFirstRound int    `json:"failedFirstRound"`
	RetryScheduled   bool   `json:"retryScheduled"`
	RetryDone        bool   `json:"retryDone"`
}

// BroadcastRecipient lưu bền trạng thái retry, cron sweep sẽ quét các bản ghi đến hạn
type BroadcastRecipient struct {
	DTO
	CampaignID    uint       `gorm:"index" json:"campaignId"`
	Phone         string     `json:"phone"`
	Status        string     `json:"status"` // sent | retrying | failed
	Attempts      int        `json:"attempts"`
	LastError     string     `json:"lastError"`
	NextAttemptAt *time.Time `gorm:"index" json:"nextAttemptAt,omitempty"`
}
