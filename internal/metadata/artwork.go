package metadata

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/nfnt/resize"
)

// artworkCacheCap bounds the in-memory artwork cache. Covers are shared
// across a collection, so a handful of entries serves a whole refresh.
const artworkCacheCap = 32

// Fetcher downloads cover art and downscales it for embedding. Fetched
// bytes are cached in memory so tagging every track of an album does
// not re-download the shared cover.
type Fetcher struct {
	httpClient *http.Client
	maxSize    int

	mu       sync.Mutex
	cache    map[string][]byte
	order    []string
	capacity int
}

// NewFetcher creates an artwork fetcher. maxSize is the maximum pixel
// dimension of returned images; larger covers are downscaled.
func NewFetcher(httpClient *http.Client, maxSize int) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if maxSize <= 0 {
		maxSize = 800
	}
	return &Fetcher{
		httpClient: httpClient,
		maxSize:    maxSize,
		cache:      make(map[string][]byte),
		capacity:   artworkCacheCap,
	}
}

// Fetch downloads the image at url, downscaling it to the configured
// maximum dimension.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("artwork URL cannot be empty")
	}

	f.mu.Lock()
	cached, ok := f.cache[url]
	f.mu.Unlock()
	if ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create artwork request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download artwork: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read artwork data: %w", err)
	}

	imageData = f.downscale(imageData)

	f.store(url, imageData)

	return imageData, nil
}

// store caches the fetched bytes, dropping the oldest entry when full
func (f *Fetcher) store(url string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.cache[url]; !exists {
		if len(f.order) >= f.capacity {
			oldest := f.order[0]
			f.order = f.order[1:]
			delete(f.cache, oldest)
		}
		f.order = append(f.order, url)
	}
	f.cache[url] = data
}

// downscale resizes an image so neither dimension exceeds maxSize,
// preserving aspect ratio. Images that cannot be decoded or already
// fit are returned unchanged.
func (f *Fetcher) downscale(imageData []byte) []byte {
	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return imageData
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= f.maxSize && height <= f.maxSize {
		return imageData
	}

	var resized image.Image
	if width > height {
		resized = resize.Resize(uint(f.maxSize), 0, img, resize.Lanczos3)
	} else {
		resized = resize.Resize(0, uint(f.maxSize), img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, resized)
	default:
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 95})
	}
	if err != nil {
		return imageData
	}

	return buf.Bytes()
}
