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

// Package models defines the data structures shared across the lead relay service.
package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InquiryRecord is the normalized form of one vehicle-sale inquiry.
//
// Every field may be empty — the pipeline never rejects a submission for
// missing business data. The provenance fields feed the spreadsheet sink
// only and are never required for delivery.
type InquiryRecord struct {
	LeadID     string `json:"lead_id"`
	ReceivedAt string `json:"received_at"`

	// Vehicle
	Brand            string `json:"brand"`
	Model            string `json:"model"`
	Year             string `json:"year"`
	Mileage          string `json:"mileage"`
	Fuel             string `json:"fuel"`
	PriceExpectation string `json:"price_expectation"`

	// Contact
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`

	Message string `json:"message"`

	// Provenance — analytics only
	PageURL        string `json:"page_url,omitempty"`
	PagePath       string `json:"page_path,omitempty"`
	Referrer       string `json:"referrer,omitempty"`
	DeviceType     string `json:"device_type,omitempty"`
	ClickSource    string `json:"click_source,omitempty"`
	LeadSourceURL  string `json:"lead_source_url,omitempty"`
	LeadSourcePath string `json:"lead_source_path,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// UploadedImage pairs an attached file with the public URL the image host
// returned for it. Lives only for the duration of one pipeline run.
type UploadedImage struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

// ChannelResult is the outcome of one delivery channel attempt.
// Created fresh per request, never retried, never persisted.
type ChannelResult struct {
	Channel   string `json:"channel"`
	Attempted bool   `json:"attempted"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail,omitempty"`
}

// Failure builds a failed result for a channel with diagnostic detail.
func Failure(channel, detail string) ChannelResult {
	return ChannelResult{Channel: channel, Attempted: true, Detail: detail}
}

// Skipped marks a channel that was never attempted (missing configuration).
func Skipped(channel string) ChannelResult {
	return ChannelResult{Channel: channel}
}

// NewLeadID generates an opaque lead identifier: a base-36 millisecond
// timestamp plus a short random suffix. It correlates the dashboard view
// and archive entry with the notification — it is NOT a dedup key and
// carries no uniqueness guarantee beyond "overwhelmingly unlikely".
func NewLeadID() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return "lead_" + ts + "_" + suffix
}
