package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits the renovation catalog specification
)

// RenovationSpec describes one renovation type from the configured catalog:
// what it costs and how much wear it removes from a room.
type RenovationSpec struct {
	Cost          int64 // price debited from the player at submission
	WearReduction int   // wear removed when the worker completes the order
}

// Config holds all runtime configuration values. Infrastructure settings
// come from required environment variables; game tuning values fall back
// to defaults so a bare development environment still boots. Components
// receive the values they need at construction; nothing reads this
// package from ambient state.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to sign JWTs

	AccessTTLMin   int // access token time-to-live in minutes
	RefreshTTLDays int // refresh token time-to-live in days
	BcryptCost     int // bcrypt cost for password hashing

	GridWidth         int   // number of columns in the tower grid
	GridHeight        int   // number of floors in the tower grid
	PlannedPerTick    int   // max planned rooms the planner proposes per tick
	TickIntervalSec   int   // seconds between scheduled tick invocations
	ImminentWindowSec int   // half-width of the update-imminent window around the tick boundary
	StartingFunds     int64 // funds granted to a freshly registered player
	LockTTLSec        int   // expiry on the redis tick lock, a crash-release backstop
	CacheTTLSec       int   // TTL for the cached state response in redis

	SnapshotPath string // filesystem path of the materialized snapshot document

	ImageServiceURL string // renovation image post-processing endpoint ("" disables the call)
	ImageTimeoutSec int    // bound on the outbound post-processing call

	Renovations map[string]RenovationSpec // catalog of renovation types by kind
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),

		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		GridWidth:         envInt("GRID_WIDTH", 12),
		GridHeight:        envInt("GRID_HEIGHT", 20),
		PlannedPerTick:    envInt("PLANNED_PER_TICK", 5),
		TickIntervalSec:   envInt("TICK_INTERVAL_SEC", 60),
		ImminentWindowSec: envInt("IMMINENT_WINDOW_SEC", 10),
		StartingFunds:     int64(envInt("STARTING_FUNDS", 10000)),
		LockTTLSec:        envInt("TICK_LOCK_TTL_SEC", 120),
		CacheTTLSec:       envInt("STATE_CACHE_TTL_SEC", 2),

		SnapshotPath: envStr("SNAPSHOT_PATH", "data/snapshot.json"),

		ImageServiceURL: os.Getenv("IMAGE_SERVICE_URL"),
		ImageTimeoutSec: envInt("IMAGE_TIMEOUT_SEC", 10),

		Renovations: parseRenovations(envStr("RENOVATION_TYPES", "paint:200:10,refit:800:40")),
	}
}

// parseRenovations decodes a catalog specification of the form
// "kind:cost:wear,kind:cost:wear". Malformed entries are fatal: a typo in
// the catalog must not silently drop a renovation type.
func parseRenovations(spec string) map[string]RenovationSpec {
	out := make(map[string]RenovationSpec)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			log.Fatalf("invalid RENOVATION_TYPES entry: %q", entry)
		}
		cost, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || cost <= 0 {
			log.Fatalf("invalid renovation cost in %q", entry)
		}
		wear, err := strconv.Atoi(parts[2])
		if err != nil || wear <= 0 {
			log.Fatalf("invalid renovation wear reduction in %q", entry)
		}
		out[parts[0]] = RenovationSpec{Cost: cost, WearReduction: wear}
	}
	if len(out) == 0 {
		log.Fatal("RENOVATION_TYPES resolved to an empty catalog")
	}
	return out
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envStr returns the value of an optional environment variable, or the
// provided default when it is unset or empty.
func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt is like envStr for integer values. An unparsable value is fatal
// rather than silently replaced by the default.
func envInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
