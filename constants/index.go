package constants

const (
	ROLE_ADMIN = "admin"
	ROLE_USER  = "user"
)

// Trạng thái đơn hàng
const (
	ORDER_PENDING     = "pending"
	ORDER_IN_PROGRESS = "in_progress"
	ORDER_ARRIVED     = "arrived"
	ORDER_DELIVERED   = "delivered"
	ORDER_CANCELED    = "canceled"
	ORDER_NO_SHOW     = "no_show"
)

// Nguồn đơn hàng
const (
	SOURCE_ONLINE = "online"
	SOURCE_MANUAL = "manual"
)

// Loại SMS
const (
	SMS_CONFIRMATION = "confirmation"
	SMS_ARRIVAL      = "arrival"
)

// Kết quả gửi SMS
const (
	SMS_SENT   = "sent"
	SMS_FAILED = "failed"
)

// Trạng thái người nhận broadcast
const (
	RECIPIENT_SENT     = "sent"
	RECIPIENT_RETRYING = "retrying"
	RECIPIENT_FAILED   = "failed"
)

const (
	MISSING_REQUIRED_FIELDS = "Missing required fields"
	INVALID_PHONE           = "Invalid phone number"
	DUPLICATE_ORDER         = "Duplicate order detected"
	INVALID_STATUS          = "Invalid status"
	INVALID_TRANSITION      = "Order is already in a terminal status"
	ORDER_NOT_FOUND         = "Order not found"
	INVALID_SMS_TYPE        = "Invalid SMS type"
	MISSING_LOGIN_INPUT     = "Please enter both phone and password"
	INVALID_CREDENTIALS     = "Invalid phone or password"
	PHONE_ALREADY_EXISTS    = "Phone number already registered"
	ERROR_INTERNAL_ERROR    = "Server error"
	ERROR_EDIT              = "Failed to update"
	ERROR_DELETE            = "Failed to delete"
	CAN_NOT_HASH_PASSWORD   = "Failed to hash password"
)

// Thông báo từ chối của availability gate
const (
	SERVICE_TEMP_CLOSED      = "Service is temporarily closed"
	SERVICE_CLOSED_TODAY     = "Service not available today"
	SERVICE_CUTOFF_PASSED    = "Service is closed for today. We accept orders before %s"
	EDIT_NOT_ALLOWED         = "Order can no longer be changed"
	ONLY_PENDING_CAN_BE_EDIT = "Only pending orders can be edited"
)
