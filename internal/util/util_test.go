package util

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitSlice(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, LimitSlice([]int{1, 2, 3, 4}, 3))
	assert.Equal(t, []int{1}, LimitSlice([]int{1}, 3))
	assert.Nil(t, LimitSlice([]int{1}, 0))
}

func TestTruncateStringRunes(t *testing.T) {
	assert.Equal(t, "你好世界", TruncateStringRunes("你好世界", 4))
	assert.Equal(t, "你好...", TruncateStringRunes("你好世界啊啊", 5))
}

func TestIsDigits(t *testing.T) {
	assert.True(t, IsDigits("12345"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("12a"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")

	assert.Equal(t, "10.0.0.1", ClientIP(r, false))
	assert.Equal(t, "203.0.113.7", ClientIP(r, true))
}
