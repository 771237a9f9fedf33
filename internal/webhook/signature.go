package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

const (
	SignatureHeader = "X-Kiosk-Signature"
	TimestampHeader = "X-Kiosk-Timestamp"
	EventHeader     = "X-Kiosk-Event"
)

// Sign computes the signature over "<unix timestamp>.<payload>" so a
// captured body cannot be replayed with a different timestamp.
func Sign(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func Verify(secret string, timestamp int64, payload []byte, signature string) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(secret, timestamp, payload)))
}
