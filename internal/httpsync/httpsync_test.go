package httpsync

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/nodeops/reposync/internal/config"
	"github.com/nodeops/reposync/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLoggerWithWriter(logging.Config{Level: logging.LevelError}, io.Discard)
}

func TestDownloaderWritesBodyVerbatim(t *testing.T) {
	contents := "binary\x00payload"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(contents))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "sub/dir/out.bin")
	cfg := &config.Sync{SourceURL: ts.URL + "/out.bin", TargetPath: dest}

	if err := New(cfg, testLogger()).Execute(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("expected no error while reading file, got: %v", err)
	}
	if !bytes.Equal(data, []byte(contents)) {
		t.Fatal("downloaded data does not match expected contents")
	}
}

func TestDownloaderInfersFilenameForDirectoryTarget(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("archive"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	cfg := &config.Sync{
		SourceURL:  ts.URL + "/a/b/file.tar.gz?token=x",
		TargetPath: dir,
	}

	if err := New(cfg, testLogger()).Execute(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "file.tar.gz")); err != nil {
		t.Fatalf("expected file.tar.gz in target directory: %v", err)
	}
}

func TestDownloaderInfersFilenameForTrailingSeparator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer ts.Close()

	dir := filepath.Join(t.TempDir(), "out")
	cfg := &config.Sync{
		SourceURL:  ts.URL + "/f.bin",
		TargetPath: dir + "/",
	}

	if err := New(cfg, testLogger()).Execute(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "f.bin")); err != nil {
		t.Fatalf("expected f.bin in target directory: %v", err)
	}
}

func TestDownloaderSetsRequestHeaders(t *testing.T) {
	var gotUA, gotAuth string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	cfg := &config.Sync{
		SourceURL:  ts.URL + "/f.bin",
		TargetPath: filepath.Join(t.TempDir(), "f.bin"),
		AuthToken:  "secret",
	}

	if err := New(cfg, testLogger()).Execute(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotUA != "Mozilla/5.0 (compatible; reposync)" {
		t.Fatalf("unexpected user agent: %q", gotUA)
	}
	if gotAuth != "token secret" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
}

func TestDownloaderErrorStatusCode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	cfg := &config.Sync{
		SourceURL:  ts.URL + "/missing",
		TargetPath: filepath.Join(t.TempDir(), "f.bin"),
	}

	err := New(cfg, testLogger()).Execute(context.Background())
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	expected := "download failed, HTTP status code: 404"
	if err.Error() != expected {
		t.Fatalf("expected error %q, got %q", expected, err.Error())
	}
}

func TestDownloaderTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close() // connection refused from here on

	cfg := &config.Sync{
		SourceURL:  ts.URL + "/f.bin",
		TargetPath: filepath.Join(t.TempDir(), "f.bin"),
	}

	err := New(cfg, testLogger()).Execute(context.Background())
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestDownloaderOverwritesExistingFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("new"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "f.bin")
	if err := os.WriteFile(dest, []byte("a much longer previous content"), 0644); err != nil {
		t.Fatalf("failed to seed destination: %v", err)
	}

	cfg := &config.Sync{SourceURL: ts.URL + "/f.bin", TargetPath: dest}
	if err := New(cfg, testLogger()).Execute(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("expected no error while reading file, got: %v", err)
	}
	if string(data) != "new" {
		t.Fatalf("expected destination to be overwritten, got %q", string(data))
	}
}

func TestDownloadToUsesDestinationVerbatim(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("raw file"))
	}))
	defer ts.Close()

	dir := t.TempDir() // an existing directory must NOT trigger filename inference here
	dest := filepath.Join(dir, "nested", "readme.md")
	cfg := &config.Sync{SourceURL: "https://github.com/org/repo", TargetPath: dest}

	if err := New(cfg, testLogger()).DownloadTo(context.Background(), ts.URL+"/raw", dest); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("expected no error while reading file, got: %v", err)
	}
	if string(data) != "raw file" {
		t.Fatalf("unexpected contents: %q", string(data))
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://host/a/b/file.tar.gz?token=x", "file.tar.gz"},
		{"https://host/a/b/file.tar.gz", "file.tar.gz"},
		{"https://host/a/b/", "downloaded_file"},
		{"https://host/?q=1", "downloaded_file"},
	}

	for _, tt := range tests {
		if got := FileName(tt.url); got != tt.expected {
			t.Errorf("FileName(%q) = %q, expected %q", tt.url, got, tt.expected)
		}
	}
}
