package webserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusText(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{100, "Continue"},
		{200, "OK"},
		{203, "Non-Authoritative Information"},
		{305, "Use Proxy"},
		{307, "Temporary Redirect"},
		{413, "Request Entity Too Large"},
		{414, "Request-URI Too Long"},
		{417, "Expectation Failed"},
		{505, "HTTP Version Not Supported"},
		{306, ""},
		{416, ""},
		{418, ""},
		{599, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusText(tt.code), "code %d", tt.code)
	}
}

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "HTTP/1.1 200 OK", StatusLine(200))
	assert.Equal(t, "HTTP/1.1 404 Not Found", StatusLine(404))
	assert.Equal(t, "HTTP/1.1 799", StatusLine(799))
}

func TestValidStatus(t *testing.T) {
	assert.True(t, validStatus(100))
	assert.True(t, validStatus(999))
	assert.False(t, validStatus(99))
	assert.False(t, validStatus(1000))
	assert.False(t, validStatus(0))
}
