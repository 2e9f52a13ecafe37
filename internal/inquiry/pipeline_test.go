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

package inquiry

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/frankenauto/leadrelay/internal/images"
	"github.com/frankenauto/leadrelay/internal/leadstore"
	"github.com/frankenauto/leadrelay/internal/models"
	"github.com/frankenauto/leadrelay/internal/notify"
)

// recordingArchive captures Save calls and optionally fails them.
type recordingArchive struct {
	mu    sync.Mutex
	saves int
	err   error
}

func (a *recordingArchive) Name() string { return "recording" }

func (a *recordingArchive) Save(_ context.Context, _ *models.InquiryRecord, _ []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saves++
	return a.err
}

func testRecord() *models.InquiryRecord {
	return &models.InquiryRecord{
		LeadID:     models.NewLeadID(),
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
		Brand:      "Audi",
		Model:      "A4",
	}
}

// TestRun_ArchiveFailureNeverSurfaces verifies a broken archive neither
// panics nor changes the aggregated outcome.
func TestRun_ArchiveFailureNeverSurfaces(t *testing.T) {
	sheets := newSheetsServer(t)
	client := &http.Client{Timeout: 5 * time.Second}

	archive := &recordingArchive{err: errors.New("disk full")}
	p := &Pipeline{
		Uploader: images.NewUploader(client, "", "", 10<<20, nil),
		Email:    notify.NewEmailClient(client, "", "", "from@example.de", "to@example.de"),
		Sheets:   notify.NewWebhookClient(client, sheets.srv.URL),
		Archives: []leadstore.Archive{archive},
	}

	res := p.Run(context.Background(), testRecord(), nil)

	if !res.Success {
		t.Error("success = false, want true (sheets succeeded)")
	}
	if archive.saves != 1 {
		t.Errorf("archive saves = %d, want 1", archive.saves)
	}
}

// TestRun_ArchiveSuccessDoesNotCount verifies the archive is not a
// delivery channel: with both channels unset the run fails even though
// the archive write worked.
func TestRun_ArchiveSuccessDoesNotCount(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}

	archive := &recordingArchive{}
	p := &Pipeline{
		Uploader: images.NewUploader(client, "", "", 10<<20, nil),
		Email:    notify.NewEmailClient(client, "", "", "from@example.de", "to@example.de"),
		Sheets:   notify.NewWebhookClient(client, ""),
		Archives: []leadstore.Archive{archive},
	}

	res := p.Run(context.Background(), testRecord(), nil)

	if res.Success {
		t.Error("success = true, want false (no channel succeeded)")
	}
	if archive.saves != 1 {
		t.Errorf("archive saves = %d, want 1", archive.saves)
	}
	if res.Email.Attempted || res.Sheets.Attempted {
		t.Errorf("channels attempted = %v/%v, want skipped", res.Email.Attempted, res.Sheets.Attempted)
	}
}

// TestRun_ChannelsAreIndependent verifies one channel failing mid-flight
// never blocks or aborts the other.
func TestRun_ChannelsAreIndependent(t *testing.T) {
	relay := newRelayServer(t)
	sheets := newSheetsServer(t)
	sheets.fail = true
	client := &http.Client{Timeout: 5 * time.Second}

	p := &Pipeline{
		Uploader: images.NewUploader(client, "", "", 10<<20, nil),
		Email:    notify.NewEmailClient(client, relay.srv.URL, "re_key", "from@example.de", "to@example.de"),
		Sheets:   notify.NewWebhookClient(client, sheets.srv.URL),
	}

	res := p.Run(context.Background(), testRecord(), nil)

	if !res.Success {
		t.Error("success = false, want true (email succeeded)")
	}
	if !res.Email.OK {
		t.Error("email.OK = false, want true")
	}
	if res.Sheets.OK {
		t.Error("sheets.OK = true, want false")
	}
	if !res.Sheets.Attempted {
		t.Error("sheets.Attempted = false, want true")
	}
}
