// Package ports declares the boundary interfaces of the engine. Adapters
// implement them; the core depends only on these contracts.
package ports

import (
	"context"

	"github.com/petsaude/iasys/pkg/domain"
)

// Completer wraps an external text-completion capability.
type Completer interface {
	// Complete sends an ordered prompt and returns the raw model output.
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// HistoryStore persists conversation transcripts per session. The actor's
// state is deliberately not stored here; durability of the machine itself is
// out of scope.
type HistoryStore interface {
	// Append adds messages to the session transcript.
	Append(ctx context.Context, sessionID string, messages ...domain.ChatMessage) error

	// History returns the full transcript for a session, oldest first.
	// Returns an empty slice (not an error) for unknown sessions.
	History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)

	// Delete removes the transcript for a session.
	Delete(ctx context.Context, sessionID string) error
}

// Vaccine is one entry of the vaccination reference catalog.
type Vaccine struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Dosage      int    `json:"dosage"`
}

// VaccinationGuidance is the catalog payload for one age category.
type VaccinationGuidance struct {
	Category string    `json:"category"`
	Message  string    `json:"message"`
	Vaccines []Vaccine `json:"vaccines"`
}

// VaccinationCatalog is the reference lookup table the engine queries by
// category. Implementations must be pure and safe for concurrent use.
type VaccinationCatalog interface {
	Lookup(category string) (VaccinationGuidance, bool)
	Categories() []string
}
