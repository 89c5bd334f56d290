package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hsakamo/melobot/internal/modules/music_player/application/ports"
	"github.com/hsakamo/melobot/internal/modules/music_player/domain"
)

const (
	testGuildID               = snowflake.ID(100)
	testUserID                = snowflake.ID(200)
	testVoiceChannelID        = snowflake.ID(300)
	testNotificationChannelID = snowflake.ID(400)
)

func testTrack(id string) *domain.Track {
	return domain.NewTrack(
		domain.TrackID(id),
		"Track "+id,
		"Artist",
		"https://www.youtube.com/watch?v="+id,
		3*time.Minute,
		"",
		domain.TrackSourceYouTube,
	)
}

func testCandidate(id, title string) domain.CandidateTrack {
	return domain.CandidateTrack{
		ID:       id,
		Title:    title,
		Uploader: "Uploader - Topic",
		URL:      "https://www.youtube.com/watch?v=" + id,
		Duration: 3 * time.Minute,
	}
}

// mockRepository is an in-memory PlayerStateRepository.
type mockRepository struct {
	mu      sync.Mutex
	states  map[snowflake.ID]*domain.PlayerState
	deleted []snowflake.ID
}

func newMockRepository() *mockRepository {
	return &mockRepository{states: make(map[snowflake.ID]*domain.PlayerState)}
}

func (m *mockRepository) Get(guildID snowflake.ID) *domain.PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[guildID]
}

func (m *mockRepository) Save(state *domain.PlayerState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.GetGuildID()] = state
}

func (m *mockRepository) Delete(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, guildID)
	m.deleted = append(m.deleted, guildID)
}

func (m *mockRepository) GuildIDs() []snowflake.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]snowflake.ID, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	return ids
}

// createConnectedState creates and saves a connected state for the guild.
func (m *mockRepository) createConnectedState(guildID snowflake.ID) *domain.PlayerState {
	state := domain.NewPlayerState(guildID, testVoiceChannelID, testNotificationChannelID)
	m.Save(state)
	return state
}

// mockQueueStore is an in-memory QueueStore.
type mockQueueStore struct {
	mu         sync.Mutex
	entries    map[snowflake.ID][]domain.QueueEntry
	nextID     int64
	enqueueErr error
	popErr     error
	listErr    error
	clearErr   error
}

func newMockQueueStore() *mockQueueStore {
	return &mockQueueStore{entries: make(map[snowflake.ID][]domain.QueueEntry)}
}

func (m *mockQueueStore) Enqueue(_ context.Context, entry domain.QueueEntry) (domain.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return domain.QueueEntry{}, m.enqueueErr
	}

	m.nextID++
	entry.ID = m.nextID
	queue := m.entries[entry.GuildID]
	entry.Position = 1
	if len(queue) > 0 {
		entry.Position = queue[len(queue)-1].Position + 1
	}
	m.entries[entry.GuildID] = append(queue, entry)
	return entry, nil
}

func (m *mockQueueStore) PeekNext(_ context.Context, guildID snowflake.ID) (*domain.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := m.entries[guildID]
	if len(queue) == 0 {
		return nil, nil
	}
	head := queue[0]
	return &head, nil
}

func (m *mockQueueStore) PopNext(_ context.Context, guildID snowflake.ID) (*domain.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.popErr != nil {
		return nil, m.popErr
	}
	queue := m.entries[guildID]
	if len(queue) == 0 {
		return nil, nil
	}
	head := queue[0]
	m.entries[guildID] = queue[1:]
	return &head, nil
}

func (m *mockQueueStore) Remove(_ context.Context, guildID snowflake.ID, entryID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := m.entries[guildID]
	for i, entry := range queue {
		if entry.ID == entryID {
			m.entries[guildID] = append(queue[:i:i], queue[i+1:]...)
			return nil
		}
	}
	return errors.New("entry not found")
}

func (m *mockQueueStore) Clear(_ context.Context, guildID snowflake.ID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return 0, m.clearErr
	}
	removed := len(m.entries[guildID])
	delete(m.entries, guildID)
	return removed, nil
}

func (m *mockQueueStore) List(_ context.Context, guildID snowflake.ID) ([]domain.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	queue := m.entries[guildID]
	result := make([]domain.QueueEntry, len(queue))
	copy(result, queue)
	return result, nil
}

func (m *mockQueueStore) Count(_ context.Context, guildID snowflake.ID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[guildID]), nil
}

func (m *mockQueueStore) titles(guildID snowflake.ID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var titles []string
	for _, entry := range m.entries[guildID] {
		titles = append(titles, entry.Track.Title)
	}
	return titles
}

// mockSnapshotStore is an in-memory SessionSnapshotStore.
type mockSnapshotStore struct {
	mu        sync.Mutex
	snapshots map[snowflake.ID]ports.SessionSnapshot
	deleted   []snowflake.ID
}

func newMockSnapshotStore() *mockSnapshotStore {
	return &mockSnapshotStore{snapshots: make(map[snowflake.ID]ports.SessionSnapshot)}
}

func (m *mockSnapshotStore) SaveSnapshot(_ context.Context, snapshot ports.SessionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.GuildID] = snapshot
	return nil
}

func (m *mockSnapshotStore) DeleteSnapshot(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, guildID)
	m.deleted = append(m.deleted, guildID)
	return nil
}

func (m *mockSnapshotStore) ListSnapshots(_ context.Context) ([]ports.SessionSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]ports.SessionSnapshot, 0, len(m.snapshots))
	for _, snapshot := range m.snapshots {
		result = append(result, snapshot)
	}
	return result, nil
}

func (m *mockSnapshotStore) get(guildID snowflake.ID) (ports.SessionSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot, ok := m.snapshots[guildID]
	return snapshot, ok
}

// mockAudioCatalog is a canned AudioCatalog.
type mockAudioCatalog struct {
	mu            sync.Mutex
	searchResults []domain.CandidateTrack
	searchFunc    func(query string) []domain.CandidateTrack // Overrides searchResults when set
	searchErr     error
	lookupResult  *domain.CandidateTrack
	lookupErr     error
	probeReport   *domain.RestrictionReport // nil means playable
	resolveErr    error
	resolveErrs   map[string]error // Per-URL resolve failures
	resolveCalls  []string
}

func (m *mockAudioCatalog) Search(_ context.Context, query string, _ int) ([]domain.CandidateTrack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchFunc != nil {
		return m.searchFunc(query), nil
	}
	return m.searchResults, nil
}

func (m *mockAudioCatalog) Lookup(_ context.Context, _ string) (*domain.CandidateTrack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupResult, m.lookupErr
}

func (m *mockAudioCatalog) ResolveAudioSource(_ context.Context, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveCalls = append(m.resolveCalls, url)
	if err, ok := m.resolveErrs[url]; ok {
		return "", err
	}
	if m.resolveErr != nil {
		return "", m.resolveErr
	}
	return "stream://" + url, nil
}

func (m *mockAudioCatalog) ProbeAvailability(_ context.Context, _ string) domain.RestrictionReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.probeReport != nil {
		return *m.probeReport
	}
	return domain.Playable()
}

// mockMetadataCatalog is a canned MetadataCatalog.
type mockMetadataCatalog struct {
	getTrackResult    *ports.TrackMetadata
	getTrackErr       error
	playlistTracks    []ports.TrackMetadata
	albumTracks       []ports.TrackMetadata
	searchTrackResult *ports.TrackMetadata
}

func (m *mockMetadataCatalog) GetTrack(_ context.Context, _ string) (*ports.TrackMetadata, error) {
	return m.getTrackResult, m.getTrackErr
}

func (m *mockMetadataCatalog) GetPlaylistTracks(_ context.Context, _ string, _ int) ([]ports.TrackMetadata, error) {
	return m.playlistTracks, nil
}

func (m *mockMetadataCatalog) GetAlbumTracks(_ context.Context, _ string, _ int) ([]ports.TrackMetadata, error) {
	return m.albumTracks, nil
}

func (m *mockMetadataCatalog) SearchTrack(_ context.Context, _ string) (*ports.TrackMetadata, error) {
	return m.searchTrackResult, nil
}

// mockTransport is a recording VoiceTransport.
type mockTransport struct {
	mu        sync.Mutex
	joinErr   error
	leaveErr  error
	attachErr error
	stopErr   error
	pauseErr  error
	resumeErr error

	joined   []snowflake.ID
	left     []snowflake.ID
	attached []string
	stops    int
	pauses   int
	resumes  int

	// onStop simulates the transport reporting a stopped track.
	onStop   func(guildID snowflake.ID)
	callback ports.TrackEndCallback
}

func (m *mockTransport) JoinChannel(_ context.Context, guildID, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joined = append(m.joined, guildID)
	return nil
}

func (m *mockTransport) LeaveChannel(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.leaveErr != nil {
		return m.leaveErr
	}
	m.left = append(m.left, guildID)
	return nil
}

func (m *mockTransport) AttachStream(_ context.Context, _ snowflake.ID, streamAddress string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attachErr != nil {
		return m.attachErr
	}
	m.attached = append(m.attached, streamAddress)
	return nil
}

func (m *mockTransport) Stop(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	if m.stopErr != nil {
		m.mu.Unlock()
		return m.stopErr
	}
	m.stops++
	onStop := m.onStop
	m.mu.Unlock()

	if onStop != nil {
		onStop(guildID)
	}
	return nil
}

func (m *mockTransport) Pause(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.pauses++
	return nil
}

func (m *mockTransport) Resume(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resumeErr != nil {
		return m.resumeErr
	}
	m.resumes++
	return nil
}

func (m *mockTransport) SetTrackEndCallback(callback ports.TrackEndCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = callback
}

func (m *mockTransport) pauseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauses
}

func (m *mockTransport) resumeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resumes
}

func (m *mockTransport) attachedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attached)
}

// mockVoiceStateProvider maps users to voice channels.
type mockVoiceStateProvider struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(_, userID snowflake.ID) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

// mockEventPublisher records published events.
type mockEventPublisher struct {
	mu               sync.Mutex
	trackEnqueued    []ports.TrackEnqueuedEvent
	trackStarted     []ports.TrackStartedEvent
	trackFailed      []ports.TrackFailedEvent
	queueEmpty       []ports.QueueEmptyEvent
	playbackFinished []ports.PlaybackFinishedEvent
	progressUpdated  []ports.ProgressUpdatedEvent
	importProgress   []ports.ImportProgressEvent
}

func (m *mockEventPublisher) PublishTrackEnqueued(event ports.TrackEnqueuedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackEnqueued = append(m.trackEnqueued, event)
}

func (m *mockEventPublisher) PublishTrackStarted(event ports.TrackStartedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackStarted = append(m.trackStarted, event)
}

func (m *mockEventPublisher) PublishTrackFailed(event ports.TrackFailedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackFailed = append(m.trackFailed, event)
}

func (m *mockEventPublisher) PublishQueueEmpty(event ports.QueueEmptyEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueEmpty = append(m.queueEmpty, event)
}

func (m *mockEventPublisher) PublishPlaybackFinished(event ports.PlaybackFinishedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playbackFinished = append(m.playbackFinished, event)
}

func (m *mockEventPublisher) PublishProgressUpdated(event ports.ProgressUpdatedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progressUpdated = append(m.progressUpdated, event)
}

func (m *mockEventPublisher) PublishImportProgress(event ports.ImportProgressEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.importProgress = append(m.importProgress, event)
}

func (m *mockEventPublisher) trackEnqueuedEvents() []ports.TrackEnqueuedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.TrackEnqueuedEvent(nil), m.trackEnqueued...)
}

func (m *mockEventPublisher) trackStartedEvents() []ports.TrackStartedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.TrackStartedEvent(nil), m.trackStarted...)
}

func (m *mockEventPublisher) trackFailedEvents() []ports.TrackFailedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.TrackFailedEvent(nil), m.trackFailed...)
}

func (m *mockEventPublisher) queueEmptyEvents() []ports.QueueEmptyEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.QueueEmptyEvent(nil), m.queueEmpty...)
}

func (m *mockEventPublisher) playbackFinishedEvents() []ports.PlaybackFinishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.PlaybackFinishedEvent(nil), m.playbackFinished...)
}

func (m *mockEventPublisher) progressUpdatedEvents() []ports.ProgressUpdatedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.ProgressUpdatedEvent(nil), m.progressUpdated...)
}

func (m *mockEventPublisher) importProgressEvents() []ports.ImportProgressEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.ImportProgressEvent(nil), m.importProgress...)
}

// orchestratorFixture wires an orchestrator with all mocks.
type orchestratorFixture struct {
	repo         *mockRepository
	queue        *mockQueueStore
	snapshots    *mockSnapshotStore
	catalog      *mockAudioCatalog
	metadata     *mockMetadataCatalog
	transport    *mockTransport
	voiceStates  *mockVoiceStateProvider
	publisher    *mockEventPublisher
	dispatcher   *GuildDispatcher
	orchestrator *PlaybackOrchestrator
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()

	f := &orchestratorFixture{
		repo:      newMockRepository(),
		queue:     newMockQueueStore(),
		snapshots: newMockSnapshotStore(),
		catalog:   &mockAudioCatalog{},
		metadata:  &mockMetadataCatalog{},
		transport: &mockTransport{},
		voiceStates: &mockVoiceStateProvider{
			channels: map[snowflake.ID]snowflake.ID{testUserID: testVoiceChannelID},
		},
		publisher:  &mockEventPublisher{},
		dispatcher: NewGuildDispatcher(),
	}
	t.Cleanup(f.dispatcher.Close)

	f.orchestrator = NewPlaybackOrchestrator(
		f.repo,
		f.queue,
		f.snapshots,
		f.catalog,
		f.metadata,
		f.transport,
		f.voiceStates,
		f.publisher,
		f.dispatcher,
		nil,
	)
	return f
}

// sync waits for all previously submitted tasks on the guild's worker.
func (f *orchestratorFixture) sync(guildID snowflake.ID) {
	_ = f.dispatcher.Do(guildID, func(ctx context.Context) error { return nil })
}

// enqueueDirect puts an entry straight into the store, bypassing resolution.
func (f *orchestratorFixture) enqueueDirect(guildID snowflake.ID, id string) domain.QueueEntry {
	entry := domain.NewQueueEntry(guildID, *testTrack(id), testUserID)
	stored, err := f.queue.Enqueue(context.Background(), entry)
	if err != nil {
		panic(err)
	}
	return stored
}

// startPlaying marks an entry as the current track without the transport.
func (f *orchestratorFixture) startPlaying(state *domain.PlayerState, id string) *domain.QueueEntry {
	entry := domain.NewQueueEntry(state.GetGuildID(), *testTrack(id), testUserID)
	entry.ID = -1
	state.SetCurrentEntry(&entry)
	return &entry
}
