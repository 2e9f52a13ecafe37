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

// Package inquiry receives vehicle-sale inquiry submissions and runs them
// through the delivery pipeline: image ingestion, notification composition,
// channel fan-out, outcome aggregation. The pipeline is stateless per
// request — concurrent submissions never coordinate.
package inquiry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frankenauto/leadrelay/internal/images"
	"github.com/frankenauto/leadrelay/internal/leadstore"
	"github.com/frankenauto/leadrelay/internal/metrics"
	"github.com/frankenauto/leadrelay/internal/models"
	"github.com/frankenauto/leadrelay/internal/notify"
)

// Pipeline wires the pipeline stages together. All collaborators are
// optional-by-configuration; an unconfigured one skips its stage.
type Pipeline struct {
	Uploader         *images.Uploader
	Email            *notify.EmailClient
	Sheets           *notify.WebhookClient
	Archives         []leadstore.Archive
	DashboardBaseURL string
}

// Result is the aggregated outcome of one pipeline run.
type Result struct {
	Success   bool
	Email     models.ChannelResult
	Sheets    models.ChannelResult
	ImageURLs []string
}

// channel is one delivery channel descriptor. Channels are attempted
// uniformly and independently; none observes another's result, and none is
// individually required.
type channel struct {
	name    string
	attempt func(ctx context.Context) models.ChannelResult
}

// Run executes the pipeline for one normalized record: uploads attached
// images, composes the notification, fans out to both channels
// concurrently, archives the record best-effort, and aggregates. Success
// means at least one delivery channel truly succeeded — the business would
// rather tell the customer "submitted" than lose a lead because one
// downstream integration is down.
func (p *Pipeline) Run(ctx context.Context, rec *models.InquiryRecord, files []images.File) Result {
	uploaded := p.Uploader.UploadAll(ctx, rec.LeadID, files)
	urls := make([]string, 0, len(uploaded))
	for _, img := range uploaded {
		urls = append(urls, img.URL)
	}

	msg := notify.Compose(rec, urls, p.DashboardBaseURL, time.Now())

	channels := []channel{
		{notify.ChannelEmail, func(ctx context.Context) models.ChannelResult {
			return p.Email.Send(ctx, msg, rec)
		}},
		{notify.ChannelSheets, func(ctx context.Context) models.ChannelResult {
			return p.Sheets.Send(ctx, rec, urls)
		}},
	}

	results := make([]models.ChannelResult, len(channels))
	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch channel) {
			defer wg.Done()
			results[i] = ch.attempt(ctx)
		}(i, ch)
	}
	wg.Wait()

	res := Result{ImageURLs: urls}
	for _, r := range results {
		metrics.ChannelAttempts.WithLabelValues(r.Channel, metrics.ChannelResultLabel(r.Attempted, r.OK)).Inc()
		if r.Attempted && !r.OK {
			slog.Error("delivery channel failed",
				"lead_id", rec.LeadID,
				"channel", r.Channel,
				"detail", r.Detail,
			)
		}
		switch r.Channel {
		case notify.ChannelEmail:
			res.Email = r
		case notify.ChannelSheets:
			res.Sheets = r
		}
	}
	res.Success = res.Email.OK || res.Sheets.OK

	// Archives are observability only: failures are logged, and success
	// here never flips the aggregated outcome.
	for _, a := range p.Archives {
		if err := a.Save(ctx, rec, urls); err != nil {
			slog.Warn("lead archive write failed",
				"lead_id", rec.LeadID,
				"archive", a.Name(),
				"error", err,
			)
		}
	}

	outcome := "failure"
	if res.Success {
		outcome = "success"
	}
	metrics.InquiriesTotal.WithLabelValues(outcome).Inc()

	slog.Info("inquiry pipeline finished",
		"lead_id", rec.LeadID,
		"success", res.Success,
		"email_sent", res.Email.OK,
		"sheets_sent", res.Sheets.OK,
		"images", len(urls),
	)
	return res
}
