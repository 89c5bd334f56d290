package ports

import (
	"context"

	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

// AudioCatalog defines the interface for the primary resolution provider:
// a catalog that can both find tracks and produce playable audio for them.
type AudioCatalog interface {
	// Search returns up to limit candidates for the query. A failure of
	// one search backend yields partial results, not an error; an error
	// means no backend could be queried at all.
	Search(ctx context.Context, query string, limit int) ([]domain.CandidateTrack, error)

	// Lookup fetches metadata for a direct track URL.
	Lookup(ctx context.Context, url string) (*domain.CandidateTrack, error)

	// ResolveAudioSource returns a short-lived stream address for the
	// track URL. The address is never persisted.
	ResolveAudioSource(ctx context.Context, url string) (string, error)

	// ProbeAvailability checks whether the track behind the URL is
	// playable, classifying any restriction.
	ProbeAvailability(ctx context.Context, url string) domain.RestrictionReport
}
