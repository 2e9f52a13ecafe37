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

// Package images validates attached photos and uploads them to the image
// host. Every per-file failure is soft: the file is dropped, siblings and
// the overall submission continue. The client may have compressed images
// before upload, but nothing here assumes it did — size and type are
// re-checked server-side.
package images

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/frankenauto/leadrelay/internal/metrics"
	"github.com/frankenauto/leadrelay/internal/models"
)

// File is one attached image as read from the multipart form.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader sends attached images to an ImgBB-style hosting endpoint.
type Uploader struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	maxBytes   int64
	quota      *Quota
}

// NewUploader creates an image uploader. An empty apiKey yields an
// unconfigured uploader: ingestion is skipped entirely and treated as
// "zero images", never as an error.
func NewUploader(httpClient *http.Client, endpoint, apiKey string, maxBytes int64, quota *Quota) *Uploader {
	return &Uploader{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
		maxBytes:   maxBytes,
		quota:      quota,
	}
}

// Configured reports whether the hosting credential is present.
func (u *Uploader) Configured() bool {
	return u != nil && u.apiKey != ""
}

// UploadAll validates and uploads the given files concurrently and returns
// the public URLs of the successful uploads, ordered by the files' original
// positions. Failed and rejected files are logged and dropped.
func (u *Uploader) UploadAll(ctx context.Context, leadID string, files []File) []models.UploadedImage {
	if !u.Configured() {
		if len(files) > 0 {
			slog.Info("image host not configured, skipping uploads",
				"lead_id", leadID,
				"files", len(files),
			)
		}
		return nil
	}

	valid := make([]File, 0, len(files))
	for _, f := range files {
		if reason := u.reject(f); reason != "" {
			slog.Warn("dropping attached file",
				"lead_id", leadID,
				"file", f.Name,
				"size", len(f.Data),
				"reason", reason,
			)
			metrics.ImagesDropped.Inc()
			continue
		}
		valid = append(valid, f)
	}
	if len(valid) == 0 {
		return nil
	}

	// Upload concurrently, keeping each result in its original slot so
	// output order matches submission order.
	results := make([]models.UploadedImage, len(valid))
	ok := make([]bool, len(valid))
	var wg sync.WaitGroup

	for i, f := range valid {
		if !u.quota.Allow(ctx) {
			slog.Warn("upload quota exhausted, dropping file",
				"lead_id", leadID,
				"file", f.Name,
			)
			metrics.ImagesDropped.Inc()
			continue
		}

		wg.Add(1)
		go func(i int, f File) {
			defer wg.Done()
			publicURL, err := u.upload(ctx, f)
			if err != nil {
				slog.Error("image upload failed",
					"lead_id", leadID,
					"file", f.Name,
					"error", err,
				)
				return
			}
			results[i] = models.UploadedImage{FileName: f.Name, URL: publicURL}
			ok[i] = true
		}(i, f)
	}
	wg.Wait()

	uploaded := make([]models.UploadedImage, 0, len(valid))
	for i := range results {
		if ok[i] {
			uploaded = append(uploaded, results[i])
			metrics.ImagesUploaded.Inc()
		}
	}

	slog.Info("image ingestion complete",
		"lead_id", leadID,
		"attached", len(files),
		"uploaded", len(uploaded),
	)
	return uploaded
}

// reject returns a non-empty reason when the file must not be uploaded.
func (u *Uploader) reject(f File) string {
	if len(f.Data) == 0 {
		return "empty file"
	}
	if u.maxBytes > 0 && int64(len(f.Data)) > u.maxBytes {
		return fmt.Sprintf("exceeds size ceiling (%d bytes)", u.maxBytes)
	}
	// Sniff the actual content — the declared Content-Type header is
	// client-controlled and not trusted.
	if !strings.HasPrefix(http.DetectContentType(f.Data), "image/") {
		return "not an image"
	}
	return ""
}

// imgbbResponse is the subset of the host's upload response we read.
type imgbbResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// upload posts one file as base64 form data and returns the public URL.
func (u *Uploader) upload(ctx context.Context, f File) (string, error) {
	form := url.Values{}
	form.Set("key", u.apiKey)
	form.Set("image", base64.StdEncoding.EncodeToString(f.Data))
	form.Set("name", strings.TrimSuffix(f.Name, filepath.Ext(f.Name)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post image: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed imgbbResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("image host returned HTTP %d with unparseable body", resp.StatusCode)
	}
	if !parsed.Success || parsed.Data.URL == "" {
		if parsed.Error.Message != "" {
			return "", fmt.Errorf("image host rejected upload: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("image host rejected upload: HTTP %d", resp.StatusCode)
	}

	return parsed.Data.URL, nil
}
