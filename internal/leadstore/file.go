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

package leadstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/frankenauto/leadrelay/internal/models"
)

// FileStore appends inquiry records as JSON lines to a daily file. Only
// wired up in deployments with a writable filesystem — hosted/managed
// runtimes don't configure a leads directory and never reach this code.
type FileStore struct {
	dir string
}

// NewFileStore creates the local archive, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create leads dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Name identifies the archive in logs.
func (s *FileStore) Name() string { return "file" }

// fileEntry is one archived line.
type fileEntry struct {
	Record    *models.InquiryRecord `json:"record"`
	ImageURLs []string              `json:"image_urls"`
}

// Save appends one JSON line to today's file.
func (s *FileStore) Save(_ context.Context, rec *models.InquiryRecord, imageURLs []string) error {
	if imageURLs == nil {
		imageURLs = []string{}
	}
	line, err := json.Marshal(fileEntry{Record: rec, ImageURLs: imageURLs})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("leads-%s.jsonl", time.Now().UTC().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return nil
}
