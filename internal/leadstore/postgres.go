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

// Package leadstore provides best-effort archives for normalized inquiry
// records. Archives are observability, not delivery: a write failure is
// logged and never surfaced, and archive success never counts toward the
// submission outcome.
package leadstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/frankenauto/leadrelay/internal/models"
)

// Archive is an append-only sink for inquiry records.
type Archive interface {
	Name() string
	Save(ctx context.Context, rec *models.InquiryRecord, imageURLs []string) error
}

// PostgresStore appends inquiry records to a Postgres table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the Postgres archive backed by the given pool.
// It ensures the leads table exists on creation.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure leads schema: %w", err)
	}
	slog.Info("postgres lead archive initialised")
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS leads (
			id          BIGSERIAL PRIMARY KEY,
			lead_id     TEXT NOT NULL,
			name        TEXT DEFAULT '',
			phone       TEXT DEFAULT '',
			email       TEXT DEFAULT '',
			brand       TEXT DEFAULT '',
			model       TEXT DEFAULT '',
			year        TEXT DEFAULT '',
			payload     JSONB NOT NULL,
			image_urls  JSONB NOT NULL DEFAULT '[]',
			received_at TIMESTAMPTZ NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_leads_lead_id ON leads (lead_id);
		CREATE INDEX IF NOT EXISTS idx_leads_received_at ON leads (received_at);
	`)
	return err
}

// Name identifies the archive in logs.
func (s *PostgresStore) Name() string { return "postgres" }

// Save inserts one record. No dedup: resubmitting the same inquiry creates
// a second row with its own lead id.
func (s *PostgresStore) Save(ctx context.Context, rec *models.InquiryRecord, imageURLs []string) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if imageURLs == nil {
		imageURLs = []string{}
	}
	urls, err := json.Marshal(imageURLs)
	if err != nil {
		return fmt.Errorf("marshal image urls: %w", err)
	}

	receivedAt, err := time.Parse(time.RFC3339, rec.ReceivedAt)
	if err != nil {
		receivedAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO leads (lead_id, name, phone, email, brand, model, year, payload, image_urls, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rec.LeadID, rec.Name, rec.Phone, rec.Email, rec.Brand, rec.Model, rec.Year, payload, urls, receivedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}
