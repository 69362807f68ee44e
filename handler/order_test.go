package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"ertib_delivery/constants"
	"ertib_delivery/database"
	"ertib_delivery/handler"
	"ertib_delivery/model"
	"ertib_delivery/utils"
	"ertib_delivery/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	// Mỗi test một DB in-memory riêng, cache=shared giữ DB sống theo pool
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	database.Migrate(db)
	database.DB = db
}

func setupOrderApp() *fiber.App {
	app := fiber.New()
	app.Post("/orders", handler.ServiceAvailabilityGate(), validate.CreateOrder(), handler.CreateOrder)
	app.Post("/orders/manual", validate.CreateOrder(), handler.CreateManualOrder)
	app.Get("/orders/track/:code", handler.TrackOrderByCode)
	app.Put("/orders/track/:code", validate.EditOrder(), handler.EditOrderByCode)
	app.Post("/orders/track/:code/cancel", handler.CancelOrderByCode)
	app.Put("/orders/:orderId/status", validate.GetById("orderId"), validate.UpdateStatus(), handler.UpdateOrderStatus)
	app.Post("/orders/resend-sms", validate.ResendSMS(), handler.ResendSMS)
	return app
}

// stubSMS thay provider thật bằng hàm test, tự khôi phục khi test xong
func stubSMS(t *testing.T, fn func(to, body string) utils.SMSResult) {
	orig := utils.SendSMS
	utils.SendSMS = fn
	t.Cleanup(func() { utils.SendSMS = orig })
}

// smsRecorder đếm các lần gửi theo số điện thoại, an toàn khi gọi đồng thời
type smsRecorder struct {
	mu    sync.Mutex
	calls map[string]int
}

func newSMSRecorder() *smsRecorder {
	return &smsRecorder{calls: make(map[string]int)}
}

func (r *smsRecorder) record(to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[to]++
}

func (r *smsRecorder) count(to string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[to]
}

func doJSON(t *testing.T, app *fiber.App, method, target string, payload any) (*http.Response, map[string]any) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	decoded := map[string]any{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func responseData(t *testing.T, body map[string]any) map[string]any {
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "response thiếu data: %v", body)
	return data
}

func seedOrder(t *testing.T, code, phone, status string, createdAt time.Time) model.Order {
	order := model.Order{
		TrackingCode: code,
		CustomerName: "Abel",
		Phone:        phone,
		Location:     "Block 4",
		Source:       constants.SOURCE_ONLINE,
		Status:       status,
		Total:        110,
		Items: []model.OrderItem{
			{ErtibType: "normal", Ketchup: true, Spices: true, Quantity: 1, UnitPrice: 110, LineTotal: 110},
		},
	}
	order.CreatedAt = createdAt
	require.NoError(t, database.DB.Create(&order).Error)
	require.NoError(t, database.DB.Create(&model.StatusHistory{OrderID: order.ID, Status: status}).Error)
	return order
}

func validOrderPayload() map[string]any {
	return map[string]any{
		"customerName": "Abel",
		"phone":        "0912345678",
		"location":     "Block 4, Room 12",
		"items": []map[string]any{
			// unitPrice giả từ client phải bị server bỏ qua
			{"ertibType": "normal", "quantity": 1, "unitPrice": 1},
			{"ertibType": "special", "quantity": 2, "extraKetchup": true},
		},
	}
}

func TestCreateOrderEndToEnd(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	recorder := newSMSRecorder()
	stubSMS(t, func(to, body string) utils.SMSResult {
		recorder.record(to)
		return utils.SMSResult{Status: constants.SMS_SENT, Provider: "mock", Info: body}
	})

	resp, body := doJSON(t, app, http.MethodPost, "/orders", validOrderPayload())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := responseData(t, body)
	code, _ := data["trackingCode"].(string)
	assert.Regexp(t, `^FD-`, code)

	var order model.Order
	require.NoError(t, database.DB.Preload("Items").Where("tracking_code = ?", code).First(&order).Error)

	assert.Equal(t, constants.ORDER_PENDING, order.Status)
	assert.Equal(t, constants.SOURCE_ONLINE, order.Source)
	assert.Equal(t, "+251912345678", order.Phone)

	// Giá tính lại phía server: 110 + 145*2, unitPrice=1 của client bị bỏ qua
	require.Len(t, order.Items, 2)
	assert.Equal(t, float64(400), order.Total)
	prices := []float64{order.Items[0].UnitPrice, order.Items[1].UnitPrice}
	assert.ElementsMatch(t, []float64{110, 145}, prices)

	var historyCount int64
	database.DB.Model(&model.StatusHistory{}).Where("order_id = ?", order.ID).Count(&historyCount)
	assert.Equal(t, int64(1), historyCount)

	// SMS xác nhận chạy trong goroutine sau commit
	assert.Eventually(t, func() bool {
		var smsCount int64
		database.DB.Model(&model.SmsHistory{}).
			Where("order_id = ? AND type = ? AND status = ?", order.ID, constants.SMS_CONFIRMATION, constants.SMS_SENT).
			Count(&smsCount)
		return smsCount == 1
	}, 3*time.Second, 50*time.Millisecond)

	assert.Equal(t, 1, recorder.count("+251912345678"))
}

func TestCreateOrderInvalidPhone(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	payload := validOrderPayload()
	payload["phone"] = "+84912345678"

	resp, body := doJSON(t, app, http.MethodPost, "/orders", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, constants.INVALID_PHONE, body["message"])
}

func TestCreateOrderMissingItems(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	payload := validOrderPayload()
	payload["items"] = []map[string]any{}

	resp, _ := doJSON(t, app, http.MethodPost, "/orders", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrderDuplicateDetection(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()
	stubSMS(t, func(to, body string) utils.SMSResult {
		return utils.SMSResult{Status: constants.SMS_SENT, Provider: "mock"}
	})

	resp, _ := doJSON(t, app, http.MethodPost, "/orders", validOrderPayload())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Cùng số điện thoại, cùng món trong cửa sổ 2 phút
	resp, body := doJSON(t, app, http.MethodPost, "/orders", validOrderPayload())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, constants.DUPLICATE_ORDER, body["message"])

	// Đổi số lượng thì không còn là trùng
	changed := validOrderPayload()
	changed["items"] = []map[string]any{
		{"ertibType": "normal", "quantity": 3},
	}
	resp, _ = doJSON(t, app, http.MethodPost, "/orders", changed)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestManualOrderSkipsDuplicateCheck(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()
	stubSMS(t, func(to, body string) utils.SMSResult {
		return utils.SMSResult{Status: constants.SMS_SENT, Provider: "mock"}
	})

	resp, _ := doJSON(t, app, http.MethodPost, "/orders", validOrderPayload())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Admin nhập hộ cùng một đơn ngay sau đó vẫn được nhận
	resp, body := doJSON(t, app, http.MethodPost, "/orders/manual", validOrderPayload())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	code, _ := responseData(t, body)["trackingCode"].(string)
	var order model.Order
	require.NoError(t, database.DB.Where("tracking_code = ?", code).First(&order).Error)
	assert.Equal(t, constants.SOURCE_MANUAL, order.Source)
}

func TestCreateOrderBlockedAfterCutoff(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	// Cutoff 00:00 thì mọi thời điểm trong ngày đều đã quá giờ
	require.NoError(t, database.DB.Create(&model.Availability{CutoffTime: "00:00"}).Error)

	resp, body := doJSON(t, app, http.MethodPost, "/orders", validOrderPayload())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	message, _ := body["message"].(string)
	assert.Contains(t, message, "00:00")
}

func TestCreateOrderBlockedWhenTemporarilyClosed(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	require.NoError(t, database.DB.Create(&model.Availability{
		IsTemporarilyClosed: true,
		TempCloseReason:     "Out of ingredients",
	}).Error)

	resp, body := doJSON(t, app, http.MethodPost, "/orders", validOrderPayload())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Out of ingredients", body["message"])
}

func TestUpdateOrderStatusAppendsHistory(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()
	stubSMS(t, func(to, body string) utils.SMSResult {
		return utils.SMSResult{Status: constants.SMS_SENT, Provider: "mock"}
	})

	order := seedOrder(t, "FD-100001", "+251912345678", constants.ORDER_PENDING, time.Now())
	target := "/orders/" + itoa(order.ID) + "/status"

	resp, _ := doJSON(t, app, http.MethodPut, target, map[string]any{"status": "in_progress"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Lặp lại cùng status vẫn hợp lệ và vẫn ghi thêm history
	resp, _ = doJSON(t, app, http.MethodPut, target, map[string]any{"status": "in_progress"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var historyCount int64
	database.DB.Model(&model.StatusHistory{}).Where("order_id = ?", order.ID).Count(&historyCount)
	assert.Equal(t, int64(3), historyCount)

	var updated model.Order
	require.NoError(t, database.DB.First(&updated, order.ID).Error)
	assert.Equal(t, constants.ORDER_IN_PROGRESS, updated.Status)
}

func TestUpdateOrderStatusTerminalRejected(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	order := seedOrder(t, "FD-100002", "+251912345678", constants.ORDER_DELIVERED, time.Now())
	target := "/orders/" + itoa(order.ID) + "/status"

	resp, body := doJSON(t, app, http.MethodPut, target, map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, constants.INVALID_TRANSITION, body["message"])

	// Status của đơn không bị chạm tới
	var unchanged model.Order
	require.NoError(t, database.DB.First(&unchanged, order.ID).Error)
	assert.Equal(t, constants.ORDER_DELIVERED, unchanged.Status)
}

func TestUpdateOrderStatusInvalidStatus(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	order := seedOrder(t, "FD-100003", "+251912345678", constants.ORDER_PENDING, time.Now())

	resp, body := doJSON(t, app, http.MethodPut, "/orders/"+itoa(order.ID)+"/status", map[string]any{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, constants.INVALID_STATUS, body["message"])
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	resp, _ := doJSON(t, app, http.MethodPut, "/orders/9999/status", map[string]any{"status": "in_progress"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestArrivedStatusSendsArrivalSMS(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	recorder := newSMSRecorder()
	stubSMS(t, func(to, body string) utils.SMSResult {
		recorder.record(to)
		return utils.SMSResult{Status: constants.SMS_SENT, Provider: "mock", Info: body}
	})

	order := seedOrder(t, "FD-100004", "+251911222333", constants.ORDER_IN_PROGRESS, time.Now())

	resp, _ := doJSON(t, app, http.MethodPut, "/orders/"+itoa(order.ID)+"/status", map[string]any{"status": "arrived"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Eventually(t, func() bool {
		var smsCount int64
		database.DB.Model(&model.SmsHistory{}).
			Where("order_id = ? AND type = ?", order.ID, constants.SMS_ARRIVAL).
			Count(&smsCount)
		return smsCount == 1
	}, 3*time.Second, 50*time.Millisecond)

	assert.Equal(t, 1, recorder.count("+251911222333"))
}

func TestTrackOrderByCode(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	seedOrder(t, "FD-111111", "+251912345678", constants.ORDER_PENDING, time.Now())

	resp, body := doJSON(t, app, http.MethodGet, "/orders/track/FD-111111", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := responseData(t, body)
	assert.Equal(t, "FD-111111", data["trackingCode"])
	assert.Equal(t, constants.ORDER_PENDING, data["status"])

	items, _ := data["items"].([]any)
	require.Len(t, items, 1)

	qr, _ := data["qrCode"].(string)
	assert.True(t, strings.HasPrefix(qr, "data:image/png;base64,"))
}

func TestTrackOrderByCodeOnlyToday(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	// Đơn của hôm qua: mã không còn resolve được
	seedOrder(t, "FD-222222", "+251912345678", constants.ORDER_PENDING, time.Now().Add(-25*time.Hour))

	resp, _ := doJSON(t, app, http.MethodGet, "/orders/track/FD-222222", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTrackOrderByCodeUnknown(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	resp, _ := doJSON(t, app, http.MethodGet, "/orders/track/FD-999999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditOrderByCode(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	order := seedOrder(t, "FD-333333", "+251912345678", constants.ORDER_PENDING, time.Now())

	resp, body := doJSON(t, app, http.MethodPut, "/orders/track/FD-333333", map[string]any{
		"location": "Block 7",
		"items": []map[string]any{
			{"ertibType": "special", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(135), responseData(t, body)["total"])

	var updated model.Order
	require.NoError(t, database.DB.Preload("Items").First(&updated, order.ID).Error)
	assert.Equal(t, "Block 7", updated.Location)
	assert.Equal(t, float64(135), updated.Total)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "special", updated.Items[0].ErtibType)
}

func TestEditOrderByCodeOnlyPending(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	seedOrder(t, "FD-444444", "+251912345678", constants.ORDER_IN_PROGRESS, time.Now())

	resp, body := doJSON(t, app, http.MethodPut, "/orders/track/FD-444444", map[string]any{
		"items": []map[string]any{{"ertibType": "normal"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, constants.ONLY_PENDING_CAN_BE_EDIT, body["message"])
}

func TestCancelOrderByCode(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	order := seedOrder(t, "FD-555555", "+251912345678", constants.ORDER_PENDING, time.Now())

	resp, _ := doJSON(t, app, http.MethodPost, "/orders/track/FD-555555/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated model.Order
	require.NoError(t, database.DB.First(&updated, order.ID).Error)
	assert.Equal(t, constants.ORDER_CANCELED, updated.Status)

	var historyCount int64
	database.DB.Model(&model.StatusHistory{}).Where("order_id = ?", order.ID).Count(&historyCount)
	assert.Equal(t, int64(2), historyCount)

	// Hủy lần hai: canceled là trạng thái kết thúc
	resp, _ = doJSON(t, app, http.MethodPost, "/orders/track/FD-555555/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResendSMSInvalidType(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	order := seedOrder(t, "FD-666666", "+251912345678", constants.ORDER_PENDING, time.Now())

	resp, body := doJSON(t, app, http.MethodPost, "/orders/resend-sms", map[string]any{
		"orderId": order.ID,
		"type":    "promo",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, constants.INVALID_SMS_TYPE, body["message"])
}

func TestResendSMSRecordsFailure(t *testing.T) {
	setupTestDB(t)
	app := setupOrderApp()

	stubSMS(t, func(to, body string) utils.SMSResult {
		return utils.SMSResult{Status: constants.SMS_FAILED, Provider: "mock", Info: "gateway down"}
	})

	order := seedOrder(t, "FD-777777", "+251912345678", constants.ORDER_PENDING, time.Now())

	resp, body := doJSON(t, app, http.MethodPost, "/orders/resend-sms", map[string]any{
		"orderId": order.ID,
		"type":    constants.SMS_CONFIRMATION,
	})
	// Gửi fail vẫn trả 200, kết quả thật nằm trong status
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, constants.SMS_FAILED, responseData(t, body)["status"])

	var entry model.SmsHistory
	require.NoError(t, database.DB.Where("order_id = ?", order.ID).First(&entry).Error)
	assert.Equal(t, constants.SMS_FAILED, entry.Status)
	assert.Equal(t, "gateway down", entry.ProviderResponse)
}

func itoa(id uint) string {
	return strconv.Itoa(int(id))
}
