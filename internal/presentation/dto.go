package presentation

import (
	"time"

	"github.com/zjrosen/lootbox/internal/catalogue"
	"github.com/zjrosen/lootbox/internal/journal"
	"github.com/zjrosen/lootbox/internal/loader"
)

// ReportDTO represents a settled load session for presentation.
type ReportDTO struct {
	SessionID  string       `json:"session_id"`
	Total      int          `json:"total"`
	Loaded     int          `json:"loaded"`
	Failed     int          `json:"failed"`
	DurationMs int64        `json:"duration_ms"`
	Failures   []FailureDTO `json:"failures"`
	Loot       []string     `json:"loot"`
	Missing    []string     `json:"missing_loot,omitempty"`
	Bindings   []BindingDTO `json:"bindings,omitempty"`
}

// FailureDTO is one failed request.
type FailureDTO struct {
	Name    string `json:"name"`
	Locator string `json:"locator"`
	Error   string `json:"error"`
}

// BindingDTO is the outcome of applying a texture to a model.
type BindingDTO struct {
	Model    string `json:"model"`
	Texture  string `json:"texture"`
	Found    bool   `json:"found"`
	Surfaces int    `json:"surfaces"`
}

// CatalogueEntryDTO is one catalogue entry.
type CatalogueEntryDTO struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Variant    string `json:"variant,omitempty"`
	Locator    string `json:"locator"`
	Loot       bool   `json:"loot"`
	ColorSpace string `json:"color_space,omitempty"`
}

// HistoryEntryDTO is one journal entry.
type HistoryEntryDTO struct {
	SessionID  string    `json:"session_id"`
	Total      int       `json:"total"`
	Loaded     int       `json:"loaded"`
	Failed     int       `json:"failed"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
}

// FromReport converts a session report. Loot and missing names come from the registry.
func FromReport(r loader.Report, loot, missing []string) ReportDTO {
	failures := make([]FailureDTO, len(r.Failures))
	for i, f := range r.Failures {
		failures[i] = FailureDTO{Name: f.Name, Locator: f.Locator, Error: f.Err.Error()}
	}
	if loot == nil {
		loot = []string{}
	}
	return ReportDTO{
		SessionID:  r.SessionID,
		Total:      r.Total,
		Loaded:     r.Loaded,
		Failed:     r.Failed(),
		DurationMs: r.Duration().Milliseconds(),
		Failures:   failures,
		Loot:       loot,
		Missing:    missing,
	}
}

// FromCatalogue converts catalogue entries in declaration order.
func FromCatalogue(c catalogue.Catalogue) []CatalogueEntryDTO {
	entries := c.Entries()
	out := make([]CatalogueEntryDTO, len(entries))
	for i, d := range entries {
		out[i] = CatalogueEntryDTO{
			Name:       d.Name,
			Kind:       string(d.Kind),
			Variant:    string(d.Variant),
			Locator:    d.Locator,
			Loot:       d.Loot,
			ColorSpace: string(d.ColorSpace),
		}
	}
	return out
}

// FromHistory converts journal entries.
func FromHistory(entries []journal.Entry) []HistoryEntryDTO {
	out := make([]HistoryEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryDTO{
			SessionID:  e.SessionID,
			Total:      e.Total,
			Loaded:     e.Loaded,
			Failed:     e.Failed,
			FinishedAt: e.FinishedAt,
			DurationMs: e.Duration().Milliseconds(),
		}
	}
	return out
}

// FromFailureRecords converts the failures stored for a journaled session.
func FromFailureRecords(records []journal.FailureRecord) []FailureDTO {
	out := make([]FailureDTO, len(records))
	for i, r := range records {
		out[i] = FailureDTO{Name: r.Name, Locator: r.Locator, Error: r.Message}
	}
	return out
}
