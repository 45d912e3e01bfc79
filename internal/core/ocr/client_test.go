package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"allergy-menu-guard/internal/infrastructure/config"
	"allergy-menu-guard/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/ocr/extract", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if string(data) == "broken" {
			http.Error(w, `{"detail":"OCR 처리 오류"}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":        true,
			"extracted_text": "Cafe Latte\nCroissant",
			"ocr_results": []map[string]interface{}{
				{"text": "Cafe Latte", "confidence": 0.93},
				{"text": "Croissant", "confidence": 0.88},
			},
			"total_detections": 2,
		})
	})

	mux.HandleFunc("/translate", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":         true,
			"original_text":   req["text"],
			"translated_text": req["source"] + ">" + req["target"] + ":" + req["text"],
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(url string) *Client {
	return NewClient(&config.OCRConfig{
		Enabled:        true,
		BaseURL:        url + "/",
		Timeout:        5 * time.Second,
		SourceLanguage: "en",
		TargetLanguage: "zh-TW",
	})
}

func TestExtract(t *testing.T) {
	c := newClient(newServer(t).URL)

	got, err := c.Extract(context.Background(), []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "Cafe Latte\nCroissant", got.Text)
	require.Len(t, got.Detections, 2)
	assert.InDelta(t, 0.93, got.Detections[0].Confidence, 1e-9)
}

func TestExtract_ServerError(t *testing.T) {
	c := newClient(newServer(t).URL)

	_, err := c.Extract(context.Background(), []byte("broken"))
	assert.True(t, errors.Is(err, common.ErrOCRServiceError))
}

func TestExtract_Unreachable(t *testing.T) {
	c := newClient("http://127.0.0.1:1")

	_, err := c.Extract(context.Background(), []byte("jpeg"))
	assert.True(t, errors.Is(err, common.ErrOCRServiceError))
}

func TestTranslate(t *testing.T) {
	c := newClient(newServer(t).URL)

	got, err := c.Translate(context.Background(), "Latte", "", "")
	require.NoError(t, err)
	assert.Equal(t, "en>zh-TW:Latte", got)

	got, err = c.Translate(context.Background(), "Latte", "en", "ko")
	require.NoError(t, err)
	assert.Equal(t, "en>ko:Latte", got)

	got, err = c.Translate(context.Background(), "  ", "", "")
	require.NoError(t, err)
	assert.Equal(t, "  ", got)
}
