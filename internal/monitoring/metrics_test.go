package monitoring

import (
	"testing"
	"time"
)

func TestRecordQueryClassified(t *testing.T) {
	RecordQueryClassified("track")
	RecordQueryClassified("playlist")
	RecordQueryClassified("search")
}

func TestRecordCollectionExpanded(t *testing.T) {
	RecordCollectionExpanded("album", 12)
	RecordCollectionExpanded("playlist", 250)
	RecordCollectionExpanded("saved", 0)
}

func TestRecordRefreshMetrics(t *testing.T) {
	RecordRefreshStart()
	RecordRefreshComplete(150 * time.Millisecond)

	RecordRefreshStart()
	RecordRefreshFailed("not_found")
}

func TestRecordCatalogRequest(t *testing.T) {
	duration := 100 * time.Millisecond
	RecordCatalogRequest("/v1/tracks", "success", duration)
	RecordCatalogRequest("/v1/search", "error", duration)
}

func TestRecordScanMetrics(t *testing.T) {
	RecordScannedFile(ScanSourceTags)
	RecordScannedFile(ScanSourceSearch)
	RecordScannedFile(ScanSourceSkipped)
	RecordScanComplete(3 * time.Second)
}

func TestRecordError(t *testing.T) {
	RecordError("network")
	RecordError("auth")
	RecordError("collection")
}
