package helper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ertib_delivery/constants"
	"ertib_delivery/model"
)

// ServiceLocation là múi giờ chuẩn cho mọi quyết định mở/đóng cửa và phạm vi "hôm nay".
// Ethiopia không có DST nên fixed zone là chính xác, không phụ thuộc locale máy chủ.
var ServiceLocation = time.FixedZone("EAT", 3*3600)

type AvailabilityDecision struct {
	Allowed bool
	Reason  string
}

// CheckServiceAvailability là hàm thuần: không đọc DB, không side effect.
// Không có bản ghi cấu hình thì mặc định cho phép (fail-open).
func CheckServiceAvailability(now time.Time, cfg *model.Availability) AvailabilityDecision {
	if cfg == nil {
		return AvailabilityDecision{Allowed: true}
	}

	if cfg.IsTemporarilyClosed {
		reason := cfg.TempCloseReason
		if reason == "" {
			reason = constants.SERVICE_TEMP_CLOSED
		}
		return AvailabilityDecision{Allowed: false, Reason: reason}
	}

	local := now.In(ServiceLocation)

	if cfg.WeeklyDays != "" {
		today := strings.ToLower(local.Weekday().String())
		enabled := false
		for _, day := range strings.Split(cfg.WeeklyDays, ",") {
			if strings.TrimSpace(strings.ToLower(day)) == today {
				enabled = true
				break
			}
		}
		if !enabled {
			return AvailabilityDecision{Allowed: false, Reason: constants.SERVICE_CLOSED_TODAY}
		}
	}

	if cfg.CutoffTime != "" {
		cutoffSec, ok := parseCutoff(cfg.CutoffTime)
		if ok {
			nowSec := local.Hour()*3600 + local.Minute()*60 + local.Second()
			// Đúng giờ cutoff cũng bị từ chối
			if nowSec >= cutoffSec {
				return AvailabilityDecision{
					Allowed: false,
					Reason:  fmt.Sprintf(constants.SERVICE_CUTOFF_PASSED, cfg.CutoffTime),
				}
			}
		}
	}

	return AvailabilityDecision{Allowed: true}
}

func parseCutoff(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*3600 + minute*60, true
}

// StartOfToday trả về 00:00 hôm nay theo múi giờ dịch vụ
func StartOfToday(now time.Time) time.Time {
	local := now.In(ServiceLocation)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, ServiceLocation)
}
