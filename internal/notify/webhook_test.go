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

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frankenauto/leadrelay/internal/models"
)

// TestWebhookSend_PostsFullRecord verifies the document shape: business
// fields with dash placeholders, provenance, and image URLs.
func TestWebhookSend_PostsFullRecord(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewWebhookClient(&http.Client{Timeout: 5 * time.Second}, srv.URL)
	rec := &models.InquiryRecord{
		LeadID:     "lead_a",
		Brand:      "BMW",
		Name:       "Max",
		DeviceType: "mobile",
	}
	res := c.Send(context.Background(), rec, []string{"https://img.example/1.png"})

	if !res.OK {
		t.Fatalf("result = %+v, want OK", res)
	}
	if got["brand"] != "BMW" || got["name"] != "Max" {
		t.Errorf("payload = %v", got)
	}
	// Absent business fields become dashes so spreadsheet columns stay aligned.
	if got["model"] != "-" || got["phone"] != "-" {
		t.Errorf("placeholders missing: model=%v phone=%v", got["model"], got["phone"])
	}
	if got["device_type"] != "mobile" {
		t.Errorf("device_type = %v", got["device_type"])
	}
	urls, _ := got["image_urls"].([]any)
	if len(urls) != 1 || urls[0] != "https://img.example/1.png" {
		t.Errorf("image_urls = %v", got["image_urls"])
	}
}

// TestWebhookSend_Non2xxIsFailure verifies status-based soft failure.
func TestWebhookSend_Non2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewWebhookClient(&http.Client{Timeout: 5 * time.Second}, srv.URL)
	res := c.Send(context.Background(), &models.InquiryRecord{LeadID: "lead_a"}, nil)

	if res.OK {
		t.Error("OK = true, want false")
	}
	if !res.Attempted {
		t.Error("Attempted = false, want true")
	}
}

// TestWebhookSend_TransportErrorIsFailure verifies an unreachable sink is
// a channel failure, not a propagated error.
func TestWebhookSend_TransportErrorIsFailure(t *testing.T) {
	c := NewWebhookClient(&http.Client{Timeout: time.Second}, "http://127.0.0.1:1/unreachable")
	res := c.Send(context.Background(), &models.InquiryRecord{LeadID: "lead_a"}, nil)

	if res.OK || !res.Attempted {
		t.Errorf("result = %+v, want attempted failure", res)
	}
}

// TestWebhookSend_Unconfigured verifies a missing URL skips the channel.
func TestWebhookSend_Unconfigured(t *testing.T) {
	c := NewWebhookClient(http.DefaultClient, "")
	res := c.Send(context.Background(), &models.InquiryRecord{LeadID: "lead_a"}, nil)

	if res.Attempted || res.OK {
		t.Errorf("result = %+v, want skipped", res)
	}
}
