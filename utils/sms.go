package utils

import (
	"ertib_delivery/config"
	"ertib_delivery/constants"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSResult là kết quả một lần gửi, lỗi transport luôn được chuyển thành Status failed
type SMSResult struct {
	Status   string `json:"status"` // sent | failed
	Provider string `json:"provider"`
	Info     string `json:"info"`
}

// Timeout chặn một provider chậm làm treo cả batch gửi đồng thời
var smsClient = &http.Client{Timeout: 15 * time.Second}

// SendSMS gửi một tin nhắn tới một số điện thoại qua provider cấu hình bởi SMS_PROVIDER.
// "none" là mock: chỉ log và luôn báo sent. Là var để test stub được provider.
var SendSMS = sendSMS

func sendSMS(to, body string) SMSResult {
	provider := config.ConfigDefault("SMS_PROVIDER", "none")

	switch provider {
	case "none":
		log.Printf("[SMS MOCK] -> %s: %s", to, body)
		return SMSResult{Status: constants.SMS_SENT, Provider: "mock", Info: body}
	case "twilio":
		return sendTwilio(to, body)
	case "smsmobileapi":
		return sendMobileSMSAPI(to, body)
	}

	return SMSResult{Status: constants.SMS_FAILED, Provider: provider, Info: "no provider implemented"}
}

func sendTwilio(to, body string) SMSResult {
	sid := config.Config("TWILIO_SID")
	token := config.Config("TWILIO_TOKEN")
	serviceSid := config.Config("TWILIO_MESSAGING_SERVICE_SID")

	if sid == "" || token == "" || serviceSid == "" {
		return SMSResult{Status: constants.SMS_FAILED, Provider: "twilio", Info: "twilio config missing in .env"}
	}

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", sid)
	form := url.Values{
		"To":                  {to},
		"Body":                {body},
		"MessagingServiceSid": {serviceSid},
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SMSResult{Status: constants.SMS_FAILED, Provider: "twilio", Info: err.Error()}
	}
	req.SetBasicAuth(sid, token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := smsClient.Do(req)
	if err != nil {
		log.Printf("Lỗi gửi SMS twilio cho %s: %v", to, err)
		return SMSResult{Status: constants.SMS_FAILED, Provider: "twilio", Info: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		log.Printf("Twilio trả về %d cho %s", resp.StatusCode, to)
		return SMSResult{Status: constants.SMS_FAILED, Provider: "twilio", Info: string(respBody)}
	}

	return SMSResult{Status: constants.SMS_SENT, Provider: "twilio", Info: string(respBody)}
}

func sendMobileSMSAPI(to, body string) SMSResult {
	apiKey := config.Config("MOBILESMS_API_KEY")
	if apiKey == "" {
		return SMSResult{Status: constants.SMS_FAILED, Provider: "smsmobileapi", Info: "MobileSMS API key missing in .env"}
	}

	endpoint := "https://api.smsmobileapi.com/sendsms?apikey=" + url.QueryEscape(apiKey) +
		"&recipients=" + url.QueryEscape(to) +
		"&message=" + url.QueryEscape(body)

	resp, err := smsClient.Get(endpoint)
	if err != nil {
		log.Printf("Lỗi gửi SMS smsmobileapi cho %s: %v", to, err)
		return SMSResult{Status: constants.SMS_FAILED, Provider: "smsmobileapi", Info: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return SMSResult{Status: constants.SMS_FAILED, Provider: "smsmobileapi", Info: string(respBody)}
	}

	// Body chứa GUID của tin nhắn
	return SMSResult{Status: constants.SMS_SENT, Provider: "smsmobileapi", Info: string(respBody)}
}
