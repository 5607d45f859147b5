package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Corphon/VisualMediaTool/internal/models"
)

func serve(t *testing.T, check func(r *http.Request), body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		check(r)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPexels_Photos(t *testing.T) {
	srv := serve(t, func(r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "px-key" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("query") != "coffee shop" || r.URL.Query().Get("per_page") != "5" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
	}, `{"photos":[
		{"id":1,"url":"https://pexels.com/p/1","alt":"Barista at work","photographer":"Ann","src":{"medium":"m1.jpg","small":"s1.jpg"}},
		{"id":2,"url":"https://pexels.com/p/2","alt":"","photographer":"","src":{"small":"s2.jpg"}}
	]}`)

	p := NewPexels("px-key", WithBaseURL(srv.URL))
	got, err := p.Search(context.Background(), "coffee shop", 5, models.MediaPhoto)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Title != "Barista at work" || got[0].Thumb != "m1.jpg" || got[0].Author != "Ann" || got[0].ID != "1" {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].Title != "Pexels 2" || got[1].Thumb != "s2.jpg" {
		t.Fatalf("fallbacks not applied: %+v", got[1])
	}
	if got[0].License != "Free to use (see Pexels license)" || got[0].Provider != "Pexels" || got[0].Query != "coffee shop" {
		t.Fatalf("metadata = %+v", got[0])
	}
}

func TestPexels_Videos(t *testing.T) {
	srv := serve(t, func(r *http.Request) {
		if r.URL.Path != "/videos/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
	}, `{"videos":[{"id":9,"url":"https://pexels.com/v/9","image":"v9.jpg","duration":14,
		"user":{"name":"Bo"},
		"video_files":[{"quality":"hd","width":1920,"height":1080,"link":"v9.mp4","file_type":"video/mp4"}]}]}`)

	got, err := NewPexels("k", WithBaseURL(srv.URL)).Search(context.Background(), "rain", 3, models.MediaVideo)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Duration != 14 || got[0].Author != "Bo" || got[0].Thumb != "v9.jpg" {
		t.Fatalf("video = %+v", got)
	}
	if len(got[0].Files) != 1 || got[0].Files[0].Width != 1920 || got[0].Files[0].Link != "v9.mp4" {
		t.Fatalf("files = %+v", got[0].Files)
	}
}

func TestPixabay_PhotosClampAndTrim(t *testing.T) {
	srv := serve(t, func(r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/api/" || q.Get("key") != "pb" || q.Get("q") != "steam" || q.Get("image_type") != "photo" {
			t.Errorf("request = %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if q.Get("per_page") != "3" {
			t.Errorf("per_page should be clamped to 3, got %s", q.Get("per_page"))
		}
	}, `{"hits":[
		{"id":1,"pageURL":"https://pixabay.com/1","tags":"steam, cup","previewURL":"p1.jpg","user":"cy"},
		{"id":2,"pageURL":"https://pixabay.com/2","tags":"","webformatURL":"w2.jpg","user":"dz"},
		{"id":3,"pageURL":"https://pixabay.com/3","tags":"x","previewURL":"p3.jpg"}
	]}`)

	got, err := NewPixabay("pb", WithBaseURL(srv.URL)).Search(context.Background(), "steam", 2, models.MediaPhoto)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("results should be trimmed to the limit, got %d", len(got))
	}
	if got[0].Title != "steam, cup" || got[1].Title != "Pixabay 2" || got[1].Thumb != "w2.jpg" {
		t.Fatalf("results = %+v", got)
	}
	if got[0].License != "Pixabay License (see site)" {
		t.Fatalf("license = %q", got[0].License)
	}
}

func TestPixabay_Videos(t *testing.T) {
	srv := serve(t, func(r *http.Request) {
		if r.URL.Path != "/api/videos/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("image_type") != "" {
			t.Errorf("image_type must not be sent for videos")
		}
	}, `{"hits":[{"id":5,"pageURL":"https://pixabay.com/v/5","tags":"ocean","duration":30,"user":"ed",
		"videos":{"large":{"url":"l.mp4","width":3840,"height":2160,"thumbnail":"l.jpg"},
		          "tiny":{"url":"t.mp4","width":640,"height":360,"thumbnail":"t.jpg"}}}]}`)

	got, err := NewPixabay("pb", WithBaseURL(srv.URL)).Search(context.Background(), "ocean", 12, models.MediaVideo)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Thumb != "t.jpg" || got[0].Duration != 30 {
		t.Fatalf("video = %+v", got)
	}
	if len(got[0].Files) != 2 || got[0].Files[0].Quality != "large" || got[0].Files[1].Quality != "tiny" {
		t.Fatalf("files = %+v", got[0].Files)
	}
}

func TestUnsplash_Photos(t *testing.T) {
	srv := serve(t, func(r *http.Request) {
		if r.URL.Path != "/search/photos" || r.Header.Get("Authorization") != "Client-ID us" {
			t.Errorf("request = %s auth=%q", r.URL.Path, r.Header.Get("Authorization"))
		}
	}, `{"results":[
		{"id":"a1","alt_description":"","description":"Morning light","urls":{"thumb":"t.jpg"},"links":{"html":"https://unsplash.com/a1"},"user":{"name":"Fay"}},
		{"id":"b2","urls":{"small":"s.jpg"},"links":{"html":"https://unsplash.com/b2"},"user":{}}
	]}`)

	got, err := NewUnsplash("us", WithBaseURL(srv.URL)).Search(context.Background(), "light", 12, models.MediaPhoto)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got[0].Title != "Morning light" || got[0].Thumb != "t.jpg" || got[0].Author != "Fay" {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].Title != "Unsplash b2" || got[1].URL != "https://unsplash.com/b2" {
		t.Fatalf("second = %+v", got[1])
	}
}

func TestUnsplash_VideoIsEmpty(t *testing.T) {
	got, err := NewUnsplash("us", WithBaseURL("http://127.0.0.1:1")).Search(context.Background(), "x", 5, models.MediaVideo)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestDisabledProviderReturnsEmpty(t *testing.T) {
	for _, p := range []Provider{NewPexels(""), NewPixabay(" "), NewUnsplash("")} {
		if p.Enabled() {
			t.Fatalf("%s should be disabled without a key", p.Name())
		}
		got, err := p.Search(context.Background(), "x", 5, models.MediaPhoto)
		if err != nil || got == nil || len(got) != 0 {
			t.Fatalf("%s: got %v, %v", p.Name(), got, err)
		}
	}
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewPexels("k", WithBaseURL(srv.URL)).Search(context.Background(), "x", 5, models.MediaPhoto)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusUnauthorized || statusErr.Temporary() {
		t.Fatalf("expected permanent 401 StatusError, got %v", err)
	}
}
