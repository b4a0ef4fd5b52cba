package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// создает валидную строку init_data тем же алгоритмом, что и телеграм
func buildInitData(t *testing.T, botToken string, fields map[string]string) string {
	t.Helper()
	var parts []string
	for k, v := range fields {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))
	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(strings.Join(parts, "\n")))

	vals := url.Values{}
	for k, v := range fields {
		vals.Add(k, v)
	}
	vals.Add("hash", hex.EncodeToString(h.Sum(nil)))
	return vals.Encode()
}

func freshFields() map[string]string {
	return map[string]string{
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		"user":      `{"id":1,"username":"u","first_name":"F"}`,
	}
}

func TestValidateTelegramInitData_Valid(t *testing.T) {
	botToken := "test-bot-token"
	vals, ok := ValidateTelegramInitData(buildInitData(t, botToken, freshFields()), botToken)
	require.True(t, ok, "ожидалась валидная init data")

	user, err := UserFromInitData(vals)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.TgID)
	assert.Equal(t, "u", user.DisplayName())
}

func TestValidateTelegramInitData_Tampered(t *testing.T) {
	botToken := "test-bot-token"
	// дополнительное поле ломает хэш
	tampered := buildInitData(t, botToken, freshFields()) + "&x=1"
	_, ok := ValidateTelegramInitData(tampered, botToken)
	assert.False(t, ok)

	_, ok = ValidateTelegramInitData(buildInitData(t, "other-token", freshFields()), botToken)
	assert.False(t, ok)
}

func TestValidateTelegramInitData_Expired(t *testing.T) {
	botToken := "test-bot-token"
	fields := freshFields()
	fields["auth_date"] = strconv.FormatInt(time.Now().Add(-2*time.Hour).Unix(), 10)
	_, ok := ValidateTelegramInitData(buildInitData(t, botToken, fields), botToken)
	assert.False(t, ok)
}

func TestUserFromInitData_Missing(t *testing.T) {
	_, err := UserFromInitData(url.Values{})
	assert.Error(t, err)
}
