package helper

import "ertib_delivery/constants"

var orderStatuses = map[string]bool{
	constants.ORDER_PENDING:     true,
	constants.ORDER_IN_PROGRESS: true,
	constants.ORDER_ARRIVED:     true,
	constants.ORDER_DELIVERED:   true,
	constants.ORDER_CANCELED:    true,
	constants.ORDER_NO_SHOW:     true,
}

var terminalStatuses = map[string]bool{
	constants.ORDER_DELIVERED: true,
	constants.ORDER_CANCELED:  true,
	constants.ORDER_NO_SHOW:   true,
}

func IsValidStatus(status string) bool {
	return orderStatuses[status]
}

func IsTerminalStatus(status string) bool {
	return terminalStatuses[status]
}

// CanTransition chặn mọi chuyển trạng thái ra khỏi trạng thái kết thúc.
// Lặp lại cùng một trạng thái không kết thúc vẫn hợp lệ và vẫn ghi history.
func CanTransition(from, to string) bool {
	if !IsValidStatus(to) {
		return false
	}
	return !IsTerminalStatus(from)
}
