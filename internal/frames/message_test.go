package frames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Message
		ok   bool
	}{
		{"height", `{"type":"height-report","page":2,"height":640}`, HeightReport{Page: 2, Height: 640}, true},
		{"height default page", `{"type":"height-report","height":10}`, HeightReport{Page: 1, Height: 10}, true},
		{"height negative", `{"type":"height-report","page":1,"height":-1}`, nil, false},
		{"height zero page", `{"type":"height-report","page":0,"height":5}`, nil, false},
		{"height missing", `{"type":"height-report","page":1}`, nil, false},
		{"image click", `{"type":"image-click","images":["a","b"],"index":1}`, ImageClick{Images: []string{"a", "b"}, Index: 1}, true},
		{"image click no images", `{"type":"image-click","images":[],"index":0}`, nil, false},
		{"theme", `{"type":"theme-change","isDark":true}`, ThemeChange{IsDark: true}, true},
		{"theme light", `{"type":"theme-change","isDark":false}`, ThemeChange{IsDark: false}, true},
		{"theme missing flag", `{"type":"theme-change"}`, nil, false},
		{"unknown type", `{"type":"webpackHotUpdate","hash":"x"}`, nil, false},
		{"no type", `{"height":10}`, nil, false},
		{"not json", `hello`, nil, false},
		{"array", `[1,2]`, nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Decode([]byte(tc.in))
			require.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeDecodeWireShape(t *testing.T) {
	data, err := Encode(ImageClick{Images: []string{"x.jpg"}, Index: 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"image-click","images":["x.jpg"],"index":0}`, string(data))

	data, err = Encode(ThemeChange{IsDark: false})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"theme-change","isDark":false}`, string(data))

	data, err = Encode(HeightReport{Page: 3, Height: 0})
	require.NoError(t, err)
	msg, ok := Decode(data)
	require.True(t, ok)
	assert.Equal(t, HeightReport{Page: 3, Height: 0}, msg)
}

func TestDecodeTerminalHeightReport(t *testing.T) {
	msg, ok := Decode([]byte(`{"type":"height-report","page":4,"height":120,"terminal":true}`))
	require.True(t, ok)
	assert.Equal(t, HeightReport{Page: 4, Height: 120, Terminal: true}, msg)

	data, err := Encode(HeightReport{Page: 1, Height: 9})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "terminal")
}
