package web

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedImageMIME(t *testing.T) {
	tests := []struct {
		name         string
		data         []byte
		wantMIME     string
		wantDetected bool
	}{
		{"JPEG", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, "image/jpeg", true},
		{"PNG", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, "image/png", true},
		{"GIF", []byte("GIF89a"), "image/gif", true},
		{"WebP", append([]byte("RIFF\x00\x00\x00\x00WEBP"), make([]byte, 10)...), "image/webp", true},
		{"RIFF but not WebP", append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 10)...), "", false},
		{"PDF disguised as image", []byte("%PDF-1.4 malicious content"), "", false},
		{"HTML", []byte("<html><script>alert(1)</script></html>"), "", false},
		{"empty", []byte{}, "", false},
		{"too short for WebP check", []byte("RIFF"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMIME, gotDetected := allowedImageMIME(tt.data)
			assert.Equal(t, tt.wantDetected, gotDetected)
			assert.Equal(t, tt.wantMIME, gotMIME)
		})
	}
}

func multipartRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		fw, err := w.CreateFormFile("image", "bottle.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/admin/perfumes", body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, parseForm(r))
	return r
}

func TestReadImage(t *testing.T) {
	s := &Server{logger: discardLogger()}
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}

	data, mimeType, err := s.readImage(multipartRequest(t, map[string]string{"name": "Aventus"}, png))
	require.NoError(t, err)
	assert.Equal(t, png, data)
	assert.Equal(t, "image/png", mimeType)

	data, _, err = s.readImage(multipartRequest(t, map[string]string{"name": "Aventus"}, nil))
	require.NoError(t, err)
	assert.Nil(t, data, "no file is not an error")

	data, _, err = s.readImage(multipartRequest(t, nil, []byte{}))
	require.NoError(t, err)
	assert.Nil(t, data, "empty file is treated as absent")

	_, _, err = s.readImage(multipartRequest(t, nil, []byte("%PDF-1.4")))
	assert.ErrorIs(t, err, errUnsupportedImage)
}

func TestReadImageURLEncodedForm(t *testing.T) {
	s := &Server{logger: discardLogger()}
	r := httptest.NewRequest(http.MethodPost, "/admin/perfumes", bytes.NewBufferString("name=Aventus"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, parseForm(r))

	data, _, err := s.readImage(r)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Equal(t, "Aventus", r.FormValue("name"))
}
