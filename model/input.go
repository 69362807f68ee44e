package model

type OrderItemInput struct {
	ErtibType    string  `json:"ertibType"`
	Ketchup      *bool   `json:"ketchup"`
	Spices       *bool   `json:"spices"`
	ExtraKetchup bool    `json:"extraKetchup"`
	ExtraFelafil bool    `json:"extraFelafil"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"` // Bị bỏ qua, chỉ nhận để không lỗi parse
}

type CreateOrderInput struct {
	CustomerName string           `json:"customerName" validate:"required"`
	Phone        string           `json:"phone" validate:"required"`
	Location     string           `json:"location" validate:"required"`
	Items        []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

type EditOrderInput struct {
	Location string           `json:"location"`
	Items    []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
}

type ResendSMSInput struct {
	OrderID uint   `json:"orderId" validate:"required"`
	Type    string `json:"type" validate:"required"`
}

type AvailabilityInput struct {
	WeeklyDays          []string `json:"weeklyDays"`
	CutoffTime          string   `json:"cutoffTime"`
	IsTemporarilyClosed bool     `json:"isTemporarilyClosed"`
	TempCloseReason     string   `json:"tempCloseReason"`
}

type BroadcastInput struct {
	Name    string `json:"name"`
	Message string `json:"message" validate:"required"`
}

type RegisterInput struct {
	Name        string `json:"name" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
	BlockNumber string `json:"blockNumber"`
	Role        string `json:"role"`
}

type LoginInput struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
