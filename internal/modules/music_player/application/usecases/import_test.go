package usecases

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

func importMeta(title string) ports.TrackMetadata {
	return ports.TrackMetadata{
		ID:       "meta-" + title,
		Title:    title,
		Artist:   "Artist",
		Duration: 3 * time.Minute,
	}
}

func TestImportService_PartialFailurePreservesOrder(t *testing.T) {
	f := newOrchestratorFixture(t)
	state := f.repo.createConnectedState(testGuildID)
	f.startPlaying(state, "current0001")

	f.metadata.playlistTracks = []ports.TrackMetadata{
		importMeta("One"),
		importMeta("Two"),
		importMeta("missing three"),
		importMeta("Four"),
		importMeta("Five"),
		importMeta("missing six"),
		importMeta("Seven"),
	}
	f.catalog.searchFunc = func(query string) []domain.CandidateTrack {
		if strings.Contains(query, "missing") {
			return nil
		}
		return []domain.CandidateTrack{testCandidate("imported001", query)}
	}

	service := NewImportService(f.orchestrator, f.metadata, f.publisher)
	output, err := service.Import(t.Context(), ImportInput{
		GuildID:               testGuildID,
		UserID:                testUserID,
		Kind:                  domain.QuerySpotifyPlaylist,
		ResourceID:            "playlist1",
		NotificationChannelID: testNotificationChannelID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Added != 5 || output.Failed != 2 || output.Total != 7 {
		t.Errorf("expected 5 added, 2 failed of 7, got %+v", output)
	}

	wantTitles := []string{"One", "Two", "Four", "Five", "Seven"}
	gotTitles := f.queue.titles(testGuildID)
	if len(gotTitles) != len(wantTitles) {
		t.Fatalf("expected %d queued tracks, got %d", len(wantTitles), len(gotTitles))
	}
	for i, want := range wantTitles {
		if gotTitles[i] != want {
			t.Errorf("queue position %d: expected %q, got %q", i, want, gotTitles[i])
		}
	}

	progress := f.publisher.importProgressEvents()
	if len(progress) != 2 {
		t.Fatalf("expected 2 progress events, got %d", len(progress))
	}
	if progress[0].Processed != 5 || progress[0].Done {
		t.Errorf("unexpected interim progress event: %+v", progress[0])
	}
	final := progress[len(progress)-1]
	if !final.Done || final.Processed != 7 || final.Added != 5 || final.Failed != 2 {
		t.Errorf("unexpected final progress event: %+v", final)
	}
}

func TestImportService_AutoStartsWhenIdle(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.repo.createConnectedState(testGuildID)

	f.metadata.albumTracks = []ports.TrackMetadata{
		importMeta("First"),
		importMeta("Second"),
	}
	f.catalog.searchFunc = func(query string) []domain.CandidateTrack {
		return []domain.CandidateTrack{testCandidate("imported001", query)}
	}

	service := NewImportService(f.orchestrator, f.metadata, f.publisher)
	output, err := service.Import(t.Context(), ImportInput{
		GuildID:    testGuildID,
		UserID:     testUserID,
		Kind:       domain.QuerySpotifyAlbum,
		ResourceID: "album1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.SourceName != "album" {
		t.Errorf("expected source name album, got %q", output.SourceName)
	}

	state := f.repo.Get(testGuildID)
	if track := state.CurrentTrack(); track == nil || track.Title != "First" {
		t.Errorf("expected the first imported track to start playing, got %v", track)
	}

	count, _ := f.queue.Count(t.Context(), testGuildID)
	if count != 1 {
		t.Errorf("expected 1 track left queued, got %d", count)
	}
}

func TestImportService_NoMetadataCatalog(t *testing.T) {
	f := newOrchestratorFixture(t)

	service := NewImportService(f.orchestrator, nil, f.publisher)
	_, err := service.Import(t.Context(), ImportInput{
		GuildID:    testGuildID,
		UserID:     testUserID,
		Kind:       domain.QuerySpotifyPlaylist,
		ResourceID: "playlist1",
	})
	if !errors.Is(err, ErrMetadataUnavailable) {
		t.Errorf("expected ErrMetadataUnavailable, got %v", err)
	}
}

func TestImportService_EmptyCollection(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.repo.createConnectedState(testGuildID)

	service := NewImportService(f.orchestrator, f.metadata, f.publisher)
	_, err := service.Import(t.Context(), ImportInput{
		GuildID:    testGuildID,
		UserID:     testUserID,
		Kind:       domain.QuerySpotifyPlaylist,
		ResourceID: "playlist1",
	})
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}
