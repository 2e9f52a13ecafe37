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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/frankenauto/leadrelay/internal/images"
	"github.com/frankenauto/leadrelay/internal/models"
)

// maxMultipartMemory caps the in-memory portion of multipart parsing;
// larger parts spill to temp files.
const maxMultipartMemory = 32 << 20

// Handler serves the inquiry submission endpoint.
type Handler struct {
	pipeline      *Pipeline
	maxImages     int
	maxImageBytes int64
	fallbackPhone string
}

// NewHandler creates the submission handler.
func NewHandler(pipeline *Pipeline, maxImages int, maxImageBytes int64, fallbackPhone string) *Handler {
	return &Handler{
		pipeline:      pipeline,
		maxImages:     maxImages,
		maxImageBytes: maxImageBytes,
		fallbackPhone: fallbackPhone,
	}
}

// Response is the client-facing submission outcome. The per-channel flags
// are diagnostic; the caller only needs success and message.
type Response struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	EmailSent  *bool  `json:"emailSent,omitempty"`
	SheetsSent *bool  `json:"sheetsSent,omitempty"`
}

// ServeInquiry handles POST /api/send-inquiry.
//
// Intake never rejects on missing business fields — every expected field
// defaults to "". The only per-item rejection is an attached file over the
// size ceiling or not an image, and that drops the file, not the
// submission. HTTP 500 is reserved for the two hard cases: unreadable
// intake and zero channels succeeding.
func (h *Handler) ServeInquiry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		slog.Error("failed to parse inquiry form", "error", err)
		h.respond(w, http.StatusInternalServerError, Response{
			Success: false,
			Message: fmt.Sprintf("Beim Senden ist ein Fehler aufgetreten. Bitte rufen Sie uns an: %s", h.fallbackPhone),
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	rec := h.normalize(r)
	files := h.readFiles(r, rec.LeadID)

	slog.Info("new inquiry received",
		"lead_id", rec.LeadID,
		"name", rec.Name,
		"vehicle", fmt.Sprintf("%s %s %s", rec.Brand, rec.Model, rec.Year),
		"location", rec.Location,
		"files", len(files),
	)

	res := h.pipeline.Run(r.Context(), rec, files)

	emailSent, sheetsSent := res.Email.OK, res.Sheets.OK
	if res.Success {
		h.respond(w, http.StatusOK, Response{
			Success:    true,
			Message:    "Anfrage erfolgreich gesendet!",
			EmailSent:  &emailSent,
			SheetsSent: &sheetsSent,
		})
		return
	}

	h.respond(w, http.StatusInternalServerError, Response{
		Success:    false,
		Message:    fmt.Sprintf("Fehler beim Senden. Bitte rufen Sie uns direkt an: %s", h.fallbackPhone),
		EmailSent:  &emailSent,
		SheetsSent: &sheetsSent,
	})
}

// normalize extracts every expected field, substituting "" for anything
// absent, and stamps the record with a fresh lead id. Resubmission creates
// a new lead id and a new pipeline run — no dedup.
func (h *Handler) normalize(r *http.Request) *models.InquiryRecord {
	return &models.InquiryRecord{
		LeadID:     models.NewLeadID(),
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),

		Brand:            r.FormValue("brand"),
		Model:            r.FormValue("model"),
		Year:             r.FormValue("year"),
		Mileage:          r.FormValue("mileage"),
		Fuel:             r.FormValue("fuel"),
		PriceExpectation: r.FormValue("priceExpectation"),

		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Phone:    r.FormValue("phone"),
		Location: r.FormValue("location"),

		Message: r.FormValue("message"),

		PageURL:        r.FormValue("page_url"),
		PagePath:       r.FormValue("page_path"),
		Referrer:       r.FormValue("referrer"),
		DeviceType:     r.FormValue("device_type"),
		ClickSource:    r.FormValue("click_source"),
		LeadSourceURL:  r.FormValue("lead_source_url"),
		LeadSourcePath: r.FormValue("lead_source_path"),
		Timestamp:      r.FormValue("timestamp"),
	}
}

// readFiles reads the attached images, capped at maxImages parts. Reads are
// bounded at one byte past the size ceiling so an oversized upload is
// detected without buffering the whole thing.
func (h *Handler) readFiles(r *http.Request, leadID string) []images.File {
	if r.MultipartForm == nil {
		return nil
	}

	headers := r.MultipartForm.File["images"]
	if len(headers) > h.maxImages {
		slog.Warn("too many attached files, ignoring extras",
			"lead_id", leadID,
			"attached", len(headers),
			"max", h.maxImages,
		)
		headers = headers[:h.maxImages]
	}

	var files []images.File
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			slog.Warn("failed to open attached file",
				"lead_id", leadID,
				"file", fh.Filename,
				"error", err,
			)
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, h.maxImageBytes+1))
		f.Close()
		if err != nil {
			slog.Warn("failed to read attached file",
				"lead_id", leadID,
				"file", fh.Filename,
				"error", err,
			)
			continue
		}
		files = append(files, images.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files
}

func (h *Handler) respond(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
