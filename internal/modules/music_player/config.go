package music_player

// Config holds the music player module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`

	// DatabasePath is where the queue and session database lives.
	DatabasePath string `env:"MUSIC_DB_PATH" envDefault:"melobot.db"`

	// Spotify credentials are optional; without them Spotify links and
	// playlist imports are unavailable, plain playback still works.
	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`
}
