package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	payload := []byte(`{"type":"face.recognized","data":{"id":"user1"}}`)

	sig := Sign("secret", 1700000000, payload)
	assert.Contains(t, sig, "sha256=")
	assert.Len(t, sig, len("sha256=")+64)
	assert.Equal(t, sig, Sign("secret", 1700000000, payload), "signature must be deterministic")
}

func TestVerify(t *testing.T) {
	secret := "test-secret"
	payload := []byte(`{"test":"data"}`)
	sig := Sign(secret, 1700000000, payload)

	tests := []struct {
		name      string
		secret    string
		timestamp int64
		payload   []byte
		signature string
		want      bool
	}{
		{"valid", secret, 1700000000, payload, sig, true},
		{"wrong secret", "other", 1700000000, payload, sig, false},
		{"replayed with new timestamp", secret, 1700000060, payload, sig, false},
		{"tampered payload", secret, 1700000000, []byte(`{"test":"DATA"}`), sig, false},
		{"empty signature", secret, 1700000000, payload, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verify(tt.secret, tt.timestamp, tt.payload, tt.signature))
		})
	}
}
