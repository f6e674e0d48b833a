package media_test

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"pedalhouse/internal/media"
)

// fakeCMS is a minimal stand-in for the CMS media REST API.
type fakeCMS struct {
	mu       sync.Mutex
	existing []map[string]any
	uploads  []string // filenames, in upload order
	failFile string   // uploads of this filename answer 500
	nextID   int64
	srv      *httptest.Server
}

func newFakeCMS(t *testing.T) *fakeCMS {
	t.Helper()
	f := &fakeCMS{nextID: 100}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wp-json/wp/v2/media", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(f.existing)
	})
	mux.HandleFunc("POST /wp-json/wp/v2/media", func(w http.ResponseWriter, r *http.Request) {
		_, params, _ := mime.ParseMediaType(r.Header.Get("Content-Disposition"))
		name := params["filename"]
		f.mu.Lock()
		defer f.mu.Unlock()
		if name == f.failFile {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.nextID++
		f.uploads = append(f.uploads, name)
		json.NewEncoder(w).Encode(map[string]any{
			"id": f.nextID, "source_url": "https://cms.example/uploads/" + name,
		})
	})
	mux.HandleFunc("POST /wp-json/wp/v2/media/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})
	mux.HandleFunc("GET /wp-json/wp/v2/happyfiles_category", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{"id": 7, "name": "Products"}})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeCMS) addExisting(id int64, filename string) {
	f.existing = append(f.existing, map[string]any{
		"id": id, "source_url": "https://cms.example/uploads/" + filename,
	})
}

// newImageHost serves image/jpeg for every path except those containing "bad".
func newImageHost(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpegbytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newUploader(f *fakeCMS) *media.Uploader {
	return media.NewUploader(media.NewClient(f.srv.URL, "sync", "app-pass"), "Products")
}

func TestFilename(t *testing.T) {
	cases := map[string]string{
		"https://a.example/x/photo.jpg":     "photo.jpg",
		"https://b.example/y/photo.jpg?v=2": "photo.jpg",
		"https://c.example/photo.jpg#frag":  "photo.jpg",
	}
	for in, want := range cases {
		if got := media.Filename(in); got != want {
			t.Errorf("Filename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSyncDedupsByFilename(t *testing.T) {
	cms := newFakeCMS(t)
	imgs := newImageHost(t)
	u := newUploader(cms)

	urlA := imgs.URL + "/x/photo.jpg?v=1"
	urlB := imgs.URL + "/y/photo.jpg"
	got, stats, err := u.Sync(context.Background(), "run", []string{urlA, urlB, urlA})
	if err != nil {
		t.Fatal(err)
	}
	if len(cms.uploads) != 1 {
		t.Fatalf("want exactly one upload attempt, got %d (%v)", len(cms.uploads), cms.uploads)
	}
	if stats.Total != 2 || stats.Uploaded != 1 {
		t.Fatalf("bad stats: %+v", stats)
	}
	a, okA := got[urlA]
	b, okB := got[urlB]
	if !okA || !okB {
		t.Fatalf("both URLs must resolve: %v", got)
	}
	if a.ID != b.ID {
		t.Fatalf("same filename must share one media id: %d vs %d", a.ID, b.ID)
	}
}

func TestSyncReusesExistingIndex(t *testing.T) {
	cms := newFakeCMS(t)
	imgs := newImageHost(t)
	cms.addExisting(42, "existing.jpg")
	u := newUploader(cms)

	url := imgs.URL + "/z/existing.jpg"
	got, stats, err := u.Sync(context.Background(), "run", []string{url})
	if err != nil {
		t.Fatal(err)
	}
	if len(cms.uploads) != 0 {
		t.Fatalf("existing filename must not be uploaded: %v", cms.uploads)
	}
	if stats.Reused != 1 || stats.Uploaded != 0 {
		t.Fatalf("bad stats: %+v", stats)
	}
	if got[url].ID != 42 {
		t.Fatalf("want existing id 42, got %d", got[url].ID)
	}
}

func TestSyncMixedHitsAndUploads(t *testing.T) {
	cms := newFakeCMS(t)
	imgs := newImageHost(t)
	u := newUploader(cms)

	var urls []string
	for i := 0; i < 50; i++ {
		fn := fmt.Sprintf("cached-%d.jpg", i)
		cms.addExisting(int64(1000+i), fn)
		urls = append(urls, imgs.URL+"/a/"+fn)
	}
	for i := 0; i < 50; i++ {
		urls = append(urls, fmt.Sprintf("%s/b/new-%d.jpg", imgs.URL, i))
	}

	got, stats, err := u.Sync(context.Background(), "run", urls)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reused != 50 || stats.Uploaded != 50 || stats.Failed != 0 {
		t.Fatalf("bad stats: %+v", stats)
	}
	if len(got) != 100 {
		t.Fatalf("resolved %d of 100 URLs", len(got))
	}
	for i := 0; i < 50; i++ {
		if got[urls[i]].ID != int64(1000+i) {
			t.Fatalf("cached url %d resolved to id %d", i, got[urls[i]].ID)
		}
	}
}

func TestSyncRejectsNonImages(t *testing.T) {
	cms := newFakeCMS(t)
	imgs := newImageHost(t)
	u := newUploader(cms)

	got, stats, err := u.Sync(context.Background(), "run", []string{imgs.URL + "/bad.html"})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 || len(cms.uploads) != 0 {
		t.Fatalf("non-image must be rejected before upload: %+v uploads=%v", stats, cms.uploads)
	}
	if len(got) != 0 {
		t.Fatalf("rejected URL must not resolve: %v", got)
	}
}

func TestSyncIsolatesUploadFailures(t *testing.T) {
	cms := newFakeCMS(t)
	imgs := newImageHost(t)
	cms.failFile = "broken.jpg"
	u := newUploader(cms)

	urls := []string{imgs.URL + "/broken.jpg", imgs.URL + "/fine.jpg"}
	got, stats, err := u.Sync(context.Background(), "run", urls)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 || stats.Uploaded != 1 {
		t.Fatalf("one failure must not abort the batch: %+v", stats)
	}
	if _, ok := got[urls[1]]; !ok {
		t.Fatal("healthy upload must still resolve")
	}
}

func TestSyncEmptyInputTouchesNothing(t *testing.T) {
	// The uploader must return before contacting the CMS at all.
	u := media.NewUploader(media.NewClient("http://127.0.0.1:1", "u", "p"), "Products")
	got, stats, err := u.Sync(context.Background(), "run", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 || stats.Total != 0 {
		t.Fatalf("unexpected work: %v %+v", got, stats)
	}
}
