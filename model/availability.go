package model

// Availability là bản ghi singleton, bản ghi đầu tiên luôn thắng
type Availability struct {
	DTO
	WeeklyDays          string `json:"-"`          // CSV: "monday,tuesday,..."
	CutoffTime          string `json:"cutoffTime"` // "HH:MM"
	IsTemporarilyClosed bool   `json:"isTemporarilyClosed"`
	TempCloseReason     string `json:"tempCloseReason"`
}
