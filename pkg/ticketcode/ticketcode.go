package ticketcode

import (
	"crypto/rand"
	"strings"
)

const (
	// Prefix 票券代碼固定前綴
	Prefix = "TKT-"
	// CodeLength 前綴後的隨機字元數
	CodeLength = 8
	// charset 排除易混淆字元 I、O、0、1
	charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Generate 產生一組票券代碼，例如 TKT-ABCD2345
func Generate() (string, error) {
	code := make([]byte, CodeLength)

	if _, err := rand.Read(code); err != nil {
		return "", err
	}

	for i := 0; i < CodeLength; i++ {
		code[i] = charset[int(code[i])%len(charset)]
	}

	var b strings.Builder
	b.WriteString(Prefix)
	b.Write(code)
	return b.String(), nil
}
