package helper

import (
	"time"

	"ertib_delivery/model"
)

// Cửa sổ chống double-tap từ client mobile chập chờn
const DuplicateWindow = 2 * time.Minute

// itemSignature bỏ qua mọi trường giá, chỉ so phần ngữ nghĩa của món
type itemSignature struct {
	ErtibType    string
	Ketchup      bool
	Spices       bool
	ExtraKetchup bool
	ExtraFelafil bool
	Quantity     int
}

func signatureCounts(items []model.OrderItem) map[itemSignature]int {
	counts := make(map[itemSignature]int, len(items))
	for _, it := range items {
		quantity := it.Quantity
		if quantity < 1 {
			quantity = 1
		}
		counts[itemSignature{
			ErtibType:    it.ErtibType,
			Ketchup:      it.Ketchup,
			Spices:       it.Spices,
			ExtraKetchup: it.ExtraKetchup,
			ExtraFelafil: it.ExtraFelafil,
			Quantity:     quantity,
		}]++
	}
	return counts
}

// SameItems so sánh hai danh sách món theo multiset, không phụ thuộc thứ tự
func SameItems(a, b []model.OrderItem) bool {
	if len(a) != len(b) {
		return false
	}

	counts := signatureCounts(a)
	for sig, n := range signatureCounts(b) {
		if counts[sig] != n {
			return false
		}
	}
	return true
}

// IsDuplicate báo trùng khi có đơn nào trong recent được tạo trong vòng 2 phút
// và có cùng multiset món. recent đã được lọc theo số điện thoại ở tầng gọi.
func IsDuplicate(now time.Time, items []model.OrderItem, recent []model.Order) bool {
	cutoff := now.Add(-DuplicateWindow)

	for _, order := range recent {
		if order.CreatedAt.Before(cutoff) {
			continue
		}
		if SameItems(order.Items, items) {
			return true
		}
	}
	return false
}
