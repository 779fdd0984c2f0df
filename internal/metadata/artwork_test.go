package metadata

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetcherCachesDownloads(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(encodeTestJPEG(t, 10, 10))
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.Client(), 800)

	first, err := fetcher.Fetch(context.Background(), srv.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	second, err := fetcher.Fetch(context.Background(), srv.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("Cached Fetch() error = %v", err)
	}

	if requests != 1 {
		t.Errorf("Expected 1 request, got %d", requests)
	}
	if !bytes.Equal(first, second) {
		t.Error("Cached bytes differ from first fetch")
	}
}

func TestFetcherDownscalesLargeImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(encodeTestJPEG(t, 1000, 600))
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.Client(), 100)

	data, err := fetcher.Fetch(context.Background(), srv.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode fetched image: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 100 {
		t.Errorf("Expected width 100, got %d", bounds.Dx())
	}
	if bounds.Dy() != 60 {
		t.Errorf("Expected height 60 (aspect preserved), got %d", bounds.Dy())
	}
}

func TestFetcherKeepsSmallImages(t *testing.T) {
	original := encodeTestJPEG(t, 50, 50)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(original)
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.Client(), 800)

	data, err := fetcher.Fetch(context.Background(), srv.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !bytes.Equal(data, original) {
		t.Error("Small image should pass through unchanged")
	}
}

func TestFetcherPassesThroughUndecodableData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not an image"))
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.Client(), 800)

	data, err := fetcher.Fetch(context.Background(), srv.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "not an image" {
		t.Errorf("Expected passthrough bytes, got %q", data)
	}
}

func TestFetcherEvictsOldestEntry(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(encodeTestJPEG(t, 10, 10))
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.Client(), 800)
	fetcher.capacity = 1

	urls := []string{srv.URL + "/a.jpg", srv.URL + "/b.jpg", srv.URL + "/a.jpg"}
	for _, u := range urls {
		if _, err := fetcher.Fetch(context.Background(), u); err != nil {
			t.Fatalf("Fetch(%s) error = %v", u, err)
		}
	}

	// a was evicted when b arrived, so the third fetch re-downloads
	if requests != 3 {
		t.Errorf("Expected 3 requests, got %d", requests)
	}
}

func TestFetcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.Client(), 800)

	if _, err := fetcher.Fetch(context.Background(), ""); err == nil {
		t.Error("Expected error for empty URL")
	}
	if _, err := fetcher.Fetch(context.Background(), srv.URL+"/missing.jpg"); err == nil {
		t.Error("Expected error for 404 response")
	}
}
