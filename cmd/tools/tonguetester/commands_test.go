package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-tongue/backend/internal/analysis/tongue"
	"github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tongue.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		imagePath, direct = "", false
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDataURL(t *testing.T) {
	image, err := dataURL(writeImage(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(image, "data:image/png;base64,"))

	text := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o600))
	_, err = dataURL(text)
	assert.Error(t, err)
}

func TestSynthIsDeterministic(t *testing.T) {
	path := writeImage(t)
	image, err := dataURL(path)
	require.NoError(t, err)

	out, err := execute(t, "synth", "--image", path)
	require.NoError(t, err)

	var got diagnosis.TongueAnalysis
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, tongue.Synthesize(image), got)
}

func TestRecordCallsServer(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"status":"analyzed"}}`))
	}))
	defer server.Close()

	out, err := execute(t, "record", "abc-123", "--server", server.URL)
	require.NoError(t, err)
	assert.Equal(t, "/api/record/abc-123", gotPath)
	assert.Contains(t, out, `"status": "analyzed"`)
}

func TestAnalyzeReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"Bad Request","message":"imageData is required"}`))
	}))
	defer server.Close()

	_, err := execute(t, "analyze", "--image", writeImage(t), "--server", server.URL)
	assert.Error(t, err)
}
