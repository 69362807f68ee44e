package helper

import (
	"regexp"
	"strings"
)

var (
	phoneCleanup   = regexp.MustCompile(`[\s()-]`)
	localWithZero  = regexp.MustCompile(`^0[79]\d{8}$`)
	localNoZero    = regexp.MustCompile(`^[79]\d{8}$`)
	ethiopianPhone = regexp.MustCompile(`^\+251[79]\d{8}$`)
)

// NormalizePhone chuẩn hóa số điện thoại Ethiopia về dạng +251...
func NormalizePhone(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	s = phoneCleanup.ReplaceAllString(s, "")

	// 09XXXXXXXX / 07XXXXXXXX -> +2519XXXXXXXX / +2517XXXXXXXX
	if localWithZero.MatchString(s) {
		s = "+251" + s[1:]
	}

	if localNoZero.MatchString(s) {
		s = "+251" + s
	}

	if !strings.HasPrefix(s, "+") {
		s = "+" + s
	}

	return s
}

// IsValidPhone chỉ chấp nhận EthioTel (+2519...) và Safaricom (+2517...)
func IsValidPhone(s string) bool {
	if s == "" {
		return false
	}
	return ethiopianPhone.MatchString(NormalizePhone(s))
}
