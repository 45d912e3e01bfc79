package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"allergy-menu-guard/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoad_DataURI(t *testing.T) {
	s := NewService(1 << 20)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))

	out, err := s.Load(context.Background(), uri)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestLoad_URL(t *testing.T) {
	data := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/menu.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	s := NewService(1 << 20)
	out, err := s.Load(context.Background(), srv.URL+"/menu.png")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = s.Load(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)
}

func TestLoad_URLTooLarge(t *testing.T) {
	const limit = 1024
	chunk := bytes.Repeat([]byte{0xff}, 32<<10)

	tests := []struct {
		name          string
		contentLength bool
	}{
		{"ContentLength", true},
		{"Chunked", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var written atomic.Int64
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.contentLength {
					w.Header().Set("Content-Length", strconv.Itoa(64<<20))
				}
				for i := 0; i < (64<<20)/len(chunk); i++ {
					n, err := w.Write(chunk)
					written.Add(int64(n))
					if err != nil {
						return
					}
					if f, ok := w.(http.Flusher); ok {
						f.Flush()
					}
				}
			}))
			defer srv.Close()

			_, err := NewService(limit).Load(context.Background(), srv.URL+"/huge.png")
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidImageSize), "got %v", err)
			srv.CloseClientConnections()
			assert.Less(t, written.Load(), int64(64<<20))
		})
	}
}

func TestLoad_Rejects(t *testing.T) {
	s := NewService(16)

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"NotDataURI", "hello", common.ErrInvalidImageFormat},
		{"NoComma", "data:image/png;base64", common.ErrInvalidImageFormat},
		{"BadBase64", "data:image/png;base64,@@@", common.ErrInvalidImageFormat},
		{"TooLarge", "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t)), common.ErrInvalidImageSize},
		{"NotAnImage", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("text")), common.ErrInvalidImageFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Load(context.Background(), tt.input)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
