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

// Package notify composes the inquiry notification and delivers it through
// the independent outbound channels (email relay, spreadsheet webhook).
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/frankenauto/leadrelay/internal/models"
)

// Message is the composed notification for one inquiry.
type Message struct {
	Subject      string
	HTML         string
	DashboardURL string
}

// Compose builds the notification from a normalized record and the uploaded
// image URLs. Pure except for the caller-supplied timestamp: the same
// inputs always produce the same message. Every absent field renders as a
// dash so the message is well-formed even for a maximally empty record.
func Compose(rec *models.InquiryRecord, imageURLs []string, dashboardBaseURL string, now time.Time) Message {
	vehicle := fmt.Sprintf("%s %s (%s)", orDash(rec.Brand), orDash(rec.Model), orDash(rec.Year))

	msg := Message{
		Subject: fmt.Sprintf("Neue Anfrage: %s - %s", vehicle, orDash(rec.Name)),
	}
	if dashboardBaseURL != "" {
		msg.DashboardURL = strings.TrimSuffix(dashboardBaseURL, "/") + "/leads/" + rec.LeadID
	}
	msg.HTML = composeHTML(rec, vehicle, imageURLs, msg.DashboardURL, now)
	return msg
}

func composeHTML(rec *models.InquiryRecord, vehicle string, imageURLs []string, dashboardURL string, now time.Time) string {
	var b strings.Builder

	b.WriteString(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin: 0; padding: 0; background-color: #1a1a1a; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;">
<table width="100%" cellpadding="0" cellspacing="0" style="background-color: #1a1a1a; padding: 20px 0;"><tr><td align="center">
<table width="100%" cellpadding="0" cellspacing="0" style="background-color: #2d2d2d; border-radius: 12px; overflow: hidden; max-width: 600px;">
`)

	// Header
	b.WriteString(`<tr><td style="padding: 30px 30px 20px 30px; text-align: center;">
<h1 style="color: #EA580C; margin: 0; font-size: 28px; font-weight: bold;">Neue Anfrage</h1>
<p style="color: #888888; margin: 8px 0 0 0; font-size: 14px;">Auto Ankauf Franken</p>
</td></tr>
`)

	// Vehicle box
	b.WriteString(`<tr><td style="padding: 0 30px;"><div style="background-color: #3d4a3d; border-radius: 8px; padding: 16px; text-align: center;">`)
	fmt.Fprintf(&b, `<span style="color: #EA580C; font-size: 16px; font-weight: 600;">Fahrzeug: %s</span>`, vehicle)
	if rec.Mileage != "" {
		fmt.Fprintf(&b, `<br><span style="color: #aaaaaa; font-size: 13px;">%s km | %s</span>`,
			formatThousands(rec.Mileage), orDash(rec.Fuel))
	}
	if rec.PriceExpectation != "" {
		fmt.Fprintf(&b, `<br><span style="color: #aaaaaa; font-size: 13px;">Preisvorstellung: %s &euro;</span>`, rec.PriceExpectation)
	}
	b.WriteString("</div></td></tr>\n")

	// Contact rows
	b.WriteString(`<tr><td style="padding: 20px 30px;"><table width="100%" cellpadding="0" cellspacing="0">`)
	writeRow(&b, "Name:", orDash(rec.Name))
	writeRow(&b, "Telefon:", fmt.Sprintf(`<a href="tel:%s" style="color: #EA580C; text-decoration: none;">%s</a>`, rec.Phone, orDash(rec.Phone)))
	writeRow(&b, "E-Mail:", fmt.Sprintf(`<a href="mailto:%s" style="color: #EA580C; text-decoration: none;">%s</a>`, rec.Email, orDash(rec.Email)))
	writeRow(&b, "Stadt/PLZ:", orDash(rec.Location))
	b.WriteString("</table></td></tr>\n")

	// Free-text message
	if rec.Message != "" {
		fmt.Fprintf(&b, `<tr><td style="padding: 0 30px 20px 30px;">
<h3 style="color: #ffffff; margin: 0 0 12px 0; font-size: 16px; font-weight: 600;">Nachricht:</h3>
<div style="background-color: #383838; border-radius: 8px; padding: 16px;">
<p style="color: #cccccc; margin: 0; font-size: 14px; line-height: 1.5; text-align: center;">%s</p>
</div></td></tr>
`, rec.Message)
	}

	// Image thumbnails
	if len(imageURLs) > 0 {
		b.WriteString(`<tr><td style="padding: 0 30px;">`)
		fmt.Fprintf(&b, `<div style="background-color: #3d4f3d; border-radius: 8px; padding: 12px 16px; margin: 20px 0;"><span style="color: #ffffff; font-size: 14px;">&#128206; %d Bild(er) angeh&auml;ngt</span></div>`, len(imageURLs))
		b.WriteString(`<div style="margin: 20px 0;">`)
		for i, u := range imageURLs {
			fmt.Fprintf(&b, `<a href="%s" target="_blank" style="display: inline-block; margin: 5px;"><img src="%s" alt="Bild %d" style="width: 150px; height: 100px; object-fit: cover; border-radius: 8px; border: 1px solid #444;" /></a>`, u, u, i+1)
		}
		b.WriteString("</div></td></tr>\n")
	}

	// Footer
	b.WriteString(`<tr><td style="padding: 20px 30px 30px 30px; text-align: center;">`)
	if dashboardURL != "" {
		fmt.Fprintf(&b, `<p style="margin: 0 0 10px 0;"><a href="%s" style="color: #EA580C; font-size: 13px;">Lead im Dashboard ansehen</a></p>`, dashboardURL)
	}
	b.WriteString(`<p style="color: #666666; margin: 0; font-size: 12px;">Diese E-Mail wurde automatisch generiert von<br>frankenautoankauf.de</p>`)
	fmt.Fprintf(&b, `<p style="color: #666666; margin: 10px 0 0 0; font-size: 12px;">Datum: %s</p>`, formatGermanDate(now))
	b.WriteString("</td></tr>\n</table></td></tr></table>\n</body>\n</html>\n")

	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, `<tr><td style="padding: 12px 0; border-bottom: 1px solid #444444;"><span style="color: #888888; font-size: 14px;">%s</span></td><td style="padding: 12px 0; border-bottom: 1px solid #444444; text-align: right;"><span style="color: #ffffff; font-size: 14px; font-weight: 600;">%s</span></td></tr>`, label, value)
}

// orDash substitutes the placeholder for absent fields.
func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// formatGermanDate renders "2.1.2026, 15:04:05" — day and month without
// leading zeros, as the business reads it.
func formatGermanDate(t time.Time) string {
	return fmt.Sprintf("%d.%d.%d, %02d:%02d:%02d",
		t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute(), t.Second())
}

// formatThousands inserts German thousands separators into a numeric
// string: "80000" -> "80.000". Non-numeric input passes through unchanged.
func formatThousands(s string) string {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
