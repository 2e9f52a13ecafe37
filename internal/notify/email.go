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
	"net/mail"
	"strings"

	"github.com/frankenauto/leadrelay/internal/models"
)

// ChannelEmail is the primary channel name in results and logs.
const ChannelEmail = "email"

// EmailClient delivers the composed notification through a Resend-style
// transactional relay.
type EmailClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	from       string
	recipient  string
}

// NewEmailClient creates the relay client. An empty apiKey or recipient
// yields an unconfigured client: Send records the channel as not attempted.
func NewEmailClient(httpClient *http.Client, baseURL, apiKey, from, recipient string) *EmailClient {
	return &EmailClient{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		from:       from,
		recipient:  recipient,
	}
}

// Configured reports whether the relay credential and recipient are set.
func (c *EmailClient) Configured() bool {
	return c != nil && c.apiKey != "" && c.recipient != ""
}

// sendRequest is the relay's wire format.
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// sendResponse covers both the success and error shapes the relay returns.
type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send posts the composed message to the relay. The submitter's address
// becomes the reply route only when it parses as an email — an invalid
// address just omits the header, it never aborts the send. Any transport
// error, error-shaped body, or unparseable body degrades to a channel
// failure; nothing propagates.
func (c *EmailClient) Send(ctx context.Context, msg Message, rec *models.InquiryRecord) models.ChannelResult {
	if !c.Configured() {
		slog.Info("email relay not configured, skipping", "lead_id", rec.LeadID)
		return models.Skipped(ChannelEmail)
	}

	// Show the customer's name in the inbox sender line.
	senderName := rec.Name
	if senderName == "" {
		senderName = "Neue Anfrage"
	}

	payload := sendRequest{
		From:    fmt.Sprintf("%s <%s>", senderName, c.from),
		To:      []string{c.recipient},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	if ValidEmail(rec.Email) {
		payload.ReplyTo = strings.TrimSpace(rec.Email)
	} else if rec.Email != "" {
		slog.Warn("invalid email format, omitting reply-to",
			"lead_id", rec.LeadID,
			"email", rec.Email,
		)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return models.Failure(ChannelEmail, fmt.Sprintf("marshal payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return models.Failure(ChannelEmail, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Failure(ChannelEmail, fmt.Sprintf("post to relay: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Failure(ChannelEmail, fmt.Sprintf("read relay response: %v", err))
	}

	var parsed sendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// Non-JSON body — undetermined success counts as failure.
		return models.Failure(ChannelEmail,
			fmt.Sprintf("relay returned HTTP %d with non-JSON body", resp.StatusCode))
	}

	if parsed.ID == "" {
		detail := parsed.Message
		if detail == "" {
			detail = fmt.Sprintf("relay returned HTTP %d without message id", resp.StatusCode)
		}
		return models.Failure(ChannelEmail, detail)
	}

	slog.Info("notification email sent",
		"lead_id", rec.LeadID,
		"relay_id", parsed.ID,
	)
	return models.ChannelResult{Channel: ChannelEmail, Attempted: true, OK: true}
}

// ValidEmail reports whether the address is usable as a reply route. The
// relay rejects bare hostnames, so a dot in the domain is required on top
// of RFC 5322 parsing.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(addr.Address, "@")
	return at > 0 && strings.Contains(addr.Address[at+1:], ".")
}
