package helper

import "ertib_delivery/model"

// Bảng giá cố định (birr). Giá client gửi lên không bao giờ được tin.
const (
	priceNormal       = 110
	priceSpecial      = 135
	priceExtraKetchup = 10
	priceExtraFelafil = 15
)

func CalcUnitPrice(item model.OrderItemInput) float64 {
	base := float64(priceNormal)
	if item.ErtibType == "special" {
		base = priceSpecial
	}
	if item.ExtraKetchup {
		base += priceExtraKetchup
	}
	if item.ExtraFelafil {
		base += priceExtraFelafil
	}
	return base
}

// BuildOrderItems tính lại đơn giá từng dòng phía server và trả về tổng tiền
func BuildOrderItems(inputs []model.OrderItemInput) ([]model.OrderItem, float64) {
	items := make([]model.OrderItem, 0, len(inputs))
	total := float64(0)

	for _, it := range inputs {
		ertibType := it.ErtibType
		if ertibType == "" {
			ertibType = "normal"
		}

		quantity := it.Quantity
		if quantity < 1 {
			quantity = 1
		}

		// Ketchup và spices mặc định có
		ketchup := true
		if it.Ketchup != nil {
			ketchup = *it.Ketchup
		}
		spices := true
		if it.Spices != nil {
			spices = *it.Spices
		}

		unitPrice := CalcUnitPrice(it)
		lineTotal := unitPrice * float64(quantity)
		total += lineTotal

		items = append(items, model.OrderItem{
			ErtibType:    ertibType,
			Ketchup:      ketchup,
			Spices:       spices,
			ExtraKetchup: it.ExtraKetchup,
			ExtraFelafil: it.ExtraFelafil,
			Quantity:     quantity,
			UnitPrice:    unitPrice,
			LineTotal:    lineTotal,
		})
	}

	return items, total
}
