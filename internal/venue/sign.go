package venue

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	httpkit "ChainPulse/pkg/http"
)

// sortedParamString joins params as k=v pairs in ascending key order.
// Several venues sign exactly this string.
func sortedParamString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, "&")
}

func hmacSHA256Hex(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

func hmacSHA256Base64(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func hmacSHA512Hex(secret, msg string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

func sha512Hex(payload string) string {
	sum := sha512.Sum512([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// wrapAuth maps 401/403 responses onto ErrAuthRejected so callers can
// take the venue out of rotation.
func wrapAuth(venue string, err error) error {
	if err == nil {
		return nil
	}
	var se *httpkit.StatusError
	if errors.As(err, &se) && (se.Code == 401 || se.Code == 403) {
		return fmt.Errorf("%s: %w", venue, ErrAuthRejected)
	}
	return fmt.Errorf("%s: %w", venue, err)
}
