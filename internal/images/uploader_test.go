// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func pngData(size int) []byte {
	return append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, size)...)
}

func testClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

// newHost fakes the image host; the returned URL embeds the uploaded name.
func newHost(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		r.ParseForm()
		if r.FormValue("key") == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success": false, "error": {"message": "missing key"}}`))
			return
		}
		w.Write([]byte(`{"success": true, "data": {"url": "https://img.example/` + r.FormValue("name") + `"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestUploadAll_OrderMatchesSubmission verifies successful uploads come
// back in submission order even though they run concurrently.
func TestUploadAll_OrderMatchesSubmission(t *testing.T) {
	host := newHost(t, nil)
	u := NewUploader(testClient(), host.URL, "key", 10<<20, nil)

	files := []File{
		{Name: "a.png", Data: pngData(16)},
		{Name: "b.png", Data: pngData(16)},
		{Name: "c.png", Data: pngData(16)},
	}
	got := u.UploadAll(context.Background(), "lead_test", files)

	if len(got) != 3 {
		t.Fatalf("uploaded = %d, want 3", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].URL != "https://img.example/"+want {
			t.Errorf("url[%d] = %q, want suffix %q", i, got[i].URL, want)
		}
	}
}

// TestUploadAll_RejectsInvalidFiles verifies empty, oversized, and
// non-image files are dropped without affecting siblings.
func TestUploadAll_RejectsInvalidFiles(t *testing.T) {
	host := newHost(t, nil)
	u := NewUploader(testClient(), host.URL, "key", 64, nil)

	files := []File{
		{Name: "empty.png", Data: nil},
		{Name: "ok.png", Data: pngData(16)},
		{Name: "huge.png", Data: pngData(256)},
		{Name: "notes.txt", ContentType: "image/png", Data: []byte("plain text, not an image at all")},
	}
	got := u.UploadAll(context.Background(), "lead_test", files)

	if len(got) != 1 {
		t.Fatalf("uploaded = %d, want 1 (%v)", len(got), got)
	}
	if got[0].FileName != "ok.png" {
		t.Errorf("survivor = %q, want ok.png", got[0].FileName)
	}
}

// TestUploadAll_FailedUploadExcluded verifies a host-side rejection drops
// only that file.
func TestUploadAll_FailedUploadExcluded(t *testing.T) {
	var n atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.FormValue("name") == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success": false, "error": {"message": "upload rejected"}}`))
			return
		}
		n.Add(1)
		w.Write([]byte(`{"success": true, "data": {"url": "https://img.example/` + r.FormValue("name") + `"}}`))
	}))
	defer srv.Close()

	u := NewUploader(testClient(), srv.URL, "key", 10<<20, nil)
	files := []File{
		{Name: "good.png", Data: pngData(16)},
		{Name: "bad.png", Data: pngData(16)},
	}
	got := u.UploadAll(context.Background(), "lead_test", files)

	if len(got) != 1 || got[0].FileName != "good.png" {
		t.Fatalf("uploaded = %v, want only good.png", got)
	}
}

// TestUploadAll_UnconfiguredSkipsStage verifies a missing credential means
// zero images, not an error, and no call ever reaches the host.
func TestUploadAll_UnconfiguredSkipsStage(t *testing.T) {
	var calls atomic.Int64
	host := newHost(t, &calls)
	u := NewUploader(testClient(), host.URL, "", 10<<20, nil)

	got := u.UploadAll(context.Background(), "lead_test", []File{{Name: "a.png", Data: pngData(16)}})

	if got != nil {
		t.Errorf("uploaded = %v, want nil", got)
	}
	if calls.Load() != 0 {
		t.Errorf("host calls = %d, want 0", calls.Load())
	}
}

// TestUploadAll_NonJSONResponseIsFailure verifies an unparseable host
// response degrades to a per-file failure.
func TestUploadAll_NonJSONResponseIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	u := NewUploader(testClient(), srv.URL, "key", 10<<20, nil)
	got := u.UploadAll(context.Background(), "lead_test", []File{{Name: "a.png", Data: pngData(16)}})

	if len(got) != 0 {
		t.Errorf("uploaded = %v, want none", got)
	}
}
