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

// Package metrics exposes Prometheus counters for the inquiry pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InquiriesTotal counts submissions received, by final outcome
	// ("success" or "failure").
	InquiriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadrelay_inquiries_total",
		Help: "Inquiry submissions received, by aggregated outcome.",
	}, []string{"outcome"})

	// ChannelAttempts counts delivery attempts per channel and result
	// ("ok", "failed", "skipped").
	ChannelAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadrelay_channel_attempts_total",
		Help: "Delivery channel attempts, by channel and result.",
	}, []string{"channel", "result"})

	// ImagesUploaded counts photos successfully uploaded to the image host.
	ImagesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadrelay_images_uploaded_total",
		Help: "Attached photos successfully uploaded to the image host.",
	})

	// ImagesDropped counts photos rejected or failed during ingestion.
	ImagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadrelay_images_dropped_total",
		Help: "Attached photos dropped during validation, quota, or upload.",
	})
)

// ChannelResultLabel maps a channel outcome onto the metric label set.
func ChannelResultLabel(attempted, ok bool) string {
	switch {
	case !attempted:
		return "skipped"
	case ok:
		return "ok"
	default:
		return "failed"
	}
}
