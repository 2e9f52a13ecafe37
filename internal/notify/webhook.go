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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/frankenauto/leadrelay/internal/models"
)

// ChannelSheets is the secondary channel name in results and logs.
const ChannelSheets = "sheets"

// WebhookClient posts the full inquiry record to the spreadsheet/data-sink
// webhook. The sink only appends; nothing is ever read back.
type WebhookClient struct {
	httpClient *http.Client
	url        string
}

// NewWebhookClient creates the data-sink client. Pass an OAuth2
// client-credentials *http.Client when the sink is protected; a plain
// client otherwise. An empty URL yields an unconfigured client.
func NewWebhookClient(httpClient *http.Client, url string) *WebhookClient {
	return &WebhookClient{httpClient: httpClient, url: url}
}

// Configured reports whether the webhook URL is set.
func (c *WebhookClient) Configured() bool {
	return c != nil && c.url != ""
}

// sheetsRow is the document the spreadsheet expects: business fields with
// dash placeholders, plus provenance and image URLs for the analytics view.
type sheetsRow struct {
	LeadID           string   `json:"lead_id"`
	Name             string   `json:"name"`
	Phone            string   `json:"phone"`
	Email            string   `json:"email"`
	Location         string   `json:"location"`
	Brand            string   `json:"brand"`
	Model            string   `json:"model"`
	Year             string   `json:"year"`
	Mileage          string   `json:"mileage"`
	Fuel             string   `json:"fuel"`
	PriceExpectation string   `json:"priceExpectation"`
	Message          string   `json:"message"`
	ImageURLs        []string `json:"image_urls"`
	PageURL          string   `json:"page_url,omitempty"`
	PagePath         string   `json:"page_path,omitempty"`
	Referrer         string   `json:"referrer,omitempty"`
	DeviceType       string   `json:"device_type,omitempty"`
	ClickSource      string   `json:"click_source,omitempty"`
	LeadSourceURL    string   `json:"lead_source_url,omitempty"`
	LeadSourcePath   string   `json:"lead_source_path,omitempty"`
	Timestamp        string   `json:"timestamp,omitempty"`
	ReceivedAt       string   `json:"received_at"`
}

// Send posts the record as one JSON document. Non-2xx responses and
// transport errors are channel failures; a missing URL skips the channel.
func (c *WebhookClient) Send(ctx context.Context, rec *models.InquiryRecord, imageURLs []string) models.ChannelResult {
	if !c.Configured() {
		slog.Info("sheets webhook not configured, skipping", "lead_id", rec.LeadID)
		return models.Skipped(ChannelSheets)
	}

	if imageURLs == nil {
		imageURLs = []string{}
	}
	row := sheetsRow{
		LeadID:           rec.LeadID,
		Name:             orDash(rec.Name),
		Phone:            orDash(rec.Phone),
		Email:            orDash(rec.Email),
		Location:         orDash(rec.Location),
		Brand:            orDash(rec.Brand),
		Model:            orDash(rec.Model),
		Year:             orDash(rec.Year),
		Mileage:          orDash(rec.Mileage),
		Fuel:             orDash(rec.Fuel),
		PriceExpectation: orDash(rec.PriceExpectation),
		Message:          orDash(rec.Message),
		ImageURLs:        imageURLs,
		PageURL:          rec.PageURL,
		PagePath:         rec.PagePath,
		Referrer:         rec.Referrer,
		DeviceType:       rec.DeviceType,
		ClickSource:      rec.ClickSource,
		LeadSourceURL:    rec.LeadSourceURL,
		LeadSourcePath:   rec.LeadSourcePath,
		Timestamp:        rec.Timestamp,
		ReceivedAt:       rec.ReceivedAt,
	}

	body, err := json.Marshal(row)
	if err != nil {
		return models.Failure(ChannelSheets, fmt.Sprintf("marshal row: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return models.Failure(ChannelSheets, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Failure(ChannelSheets, fmt.Sprintf("post to webhook: %v", err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Failure(ChannelSheets, fmt.Sprintf("webhook returned HTTP %d", resp.StatusCode))
	}

	slog.Info("sheets webhook sent", "lead_id", rec.LeadID, "status", resp.StatusCode)
	return models.ChannelResult{Channel: ChannelSheets, Attempted: true, OK: true}
}
