package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHeaders_RedactsSensitive(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("X-App-Token", "abc123")
	h.Set("X-App-ID", "mindwave-games")

	out := SanitizeHeaders(h)
	assert.Equal(t, []string{"<redacted>"}, out["Authorization"])
	assert.Equal(t, []string{"<redacted>"}, out["X-App-Token"])
	assert.Equal(t, []string{"mindwave-games"}, out["X-App-Id"])
}

func TestSanitizeHeaders_StripsControlChars(t *testing.T) {
	h := http.Header{}
	h.Set("X-App-Name", "Mind\nWave")

	out := SanitizeHeaders(h)
	assert.Equal(t, []string{"Mind Wave"}, out["X-App-Name"])
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "/api/v1/signal/process", SanitizePath("/api/v1/signal/process?x=1"))
	assert.Equal(t, "/a b", SanitizePath("/a\nb"))
}
