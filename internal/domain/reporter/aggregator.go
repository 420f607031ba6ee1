// Package reporter implements the session-scoped report aggregator: a
// cross-module card collector with a downloadable archive.
package reporter

import (
	"archive/tar"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/facetlabs/facet/internal/shared/id"
)

// Card is one collected report entry.
type Card struct {
	ID        id.CardID `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Aggregator collects report cards from modules during a session. It is
// created per session and injected into leaves that declared reporter use.
type Aggregator struct {
	mu    sync.Mutex
	cards []Card
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// AddCard appends a card and returns its generated ID.
func (a *Aggregator) AddCard(title, body string) string {
	card := Card{
		ID:        id.NewCardID(),
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
	a.mu.Lock()
	a.cards = append(a.cards, card)
	a.mu.Unlock()
	return card.ID.String()
}

// Cards returns the number of collected cards.
func (a *Aggregator) Cards() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.cards)
}

// Snapshot returns a copy of the collected cards.
func (a *Aggregator) Snapshot() []Card {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Card(nil), a.cards...)
}

// Reset discards all collected cards.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	a.cards = nil
	a.mu.Unlock()
}

// Archive writes the collected cards as a gzip-compressed tar stream, one
// file per card plus an index.
func (a *Aggregator) Archive(w io.Writer) error {
	cards := a.Snapshot()

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	index := "# Report index\n"
	for i, card := range cards {
		name := fmt.Sprintf("cards/%03d-%s.md", i+1, card.ID)
		body := fmt.Sprintf("# %s\n\n%s\n", card.Title, card.Body)
		if err := writeEntry(tw, name, body, card.CreatedAt); err != nil {
			return fmt.Errorf("archive card %s: %w", card.ID, err)
		}
		index += fmt.Sprintf("- %s: %s\n", card.ID, card.Title)
	}
	if err := writeEntry(tw, "index.md", index, time.Now()); err != nil {
		return fmt.Errorf("archive index: %w", err)
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func writeEntry(tw *tar.Writer, name, body string, mod time.Time) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(body)),
		ModTime: mod,
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := io.WriteString(tw, body)
	return err
}
