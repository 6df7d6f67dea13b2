package constants

import "time"

const (
	AppName = "hemma"
	Version = "v0.3.0"

	// TotalDays bounds every day index to [0, TotalDays).
	TotalDays  = 30
	XPPerHabit = 10

	// UploadDebounce is the quiet period before local changes are pushed.
	UploadDebounce = 2 * time.Second
	// WatchDebounce coalesces bursts of store file events in watch mode.
	WatchDebounce = 500 * time.Millisecond
	// RemoteTimeout bounds a single request to the sync endpoint.
	RemoteTimeout = 20 * time.Second

	// TimestampFormat matches the ISO-8601 form used on the wire (millisecond precision, UTC).
	TimestampFormat = "2006-01-02T15:04:05.000Z07:00"
	DateFormat      = "2006-01-02"
)

// Local store keys.
const (
	KeyTracker               = "hemma-tracker"
	KeyDayUpdatedAt          = "hemma-day-updated-at"
	KeyCustomHabits          = "hemma-custom-habits"
	KeyCustomHabitsUpdatedAt = "hemma-custom-habits-updated-at"
	KeyCurrentDay            = "hemma-current-day"
	KeyTheme                 = "ramadan-theme"
	KeyAuthUser              = "hemma-auth-user"
)

const (
	DefaultConfigDir   = "~/.config/hemma"
	ConfigFileName     = "config.toml"
	SQLiteFileName     = "hemma.db"
	JSONFileName       = "hemma.json"
	LockFileName       = "hemma-watch.lock"
	DefaultAPIURL      = "http://localhost:4000/api"
	DefaultStartDate   = "2026-02-18"
	DefaultKeyringUser = "auth-token"

	BackendSQLite = "sqlite"
	BackendJSON   = "json"

	ThemeDark  = "dark"
	ThemeLight = "light"

	// CustomIDPrefix is prepended to generated category and habit identifiers.
	CustomIDPrefix = "custom-"
)

// Server defaults.
const (
	DefaultServerPort  = 4000
	DefaultJWTIssuer   = "hemma"
	DefaultJWTLifetime = 30 * 24 * time.Hour
	DefaultCacheTTL    = 10 * time.Minute
	DefaultMongoDB     = "hemma"
	CacheKeyPrefix     = "hemma:sync:"
	DefaultSQLitePath  = "hemma-server.db"
)
