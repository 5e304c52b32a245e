package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"
)

// =============================================================================
// OCX Go Backend - Enhanced Configuration with Environment Overrides
// =============================================================================

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Zone       ZoneConfig       `yaml:"zone"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Economy    EconomyConfig    `yaml:"economy"`
	Sync       SyncConfig       `yaml:"sync"`
	Failsafe   FailsafeYAML     `yaml:"failsafe"`
	Handoff    HandoffConfig    `yaml:"handoff"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Cache      CacheConfig      `yaml:"cache"`
	Security   SecurityConfig   `yaml:"security"`
	Peers      []PeerEdge       `yaml:"peers"`
}

type ServerConfig struct {
	GRPCPort         string   `yaml:"grpc_port"`
	HTTPPort         string   `yaml:"http_port"`
	Env              string   `yaml:"env"`
	Interface        string   `yaml:"interface"`
	ReadTimeoutSec   int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec  int      `yaml:"write_timeout_sec"`
	IdleTimeoutSec   int      `yaml:"idle_timeout_sec"`
	ShutdownTimeout  int      `yaml:"shutdown_timeout_sec"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
}

// ZoneConfig identifies the zone this edge node is authoritative over.
type ZoneConfig struct {
	ZoneID       uint32  `yaml:"zone_id"`
	Name         string  `yaml:"name"`
	VoxelSizeM   float64 `yaml:"voxel_size_m"`
	TickPeriodMs int     `yaml:"tick_period_ms"`
}

// PhysicsConfig tunes the kinematic/collision validation kernel.
type PhysicsConfig struct {
	MaxVelocityMps      float64 `yaml:"max_velocity_mps"`
	MaxAccelerationMps2 float64 `yaml:"max_acceleration_mps2"`
	MaxJerkMps3         float64 `yaml:"max_jerk_mps3"`
	MinHorizonS         float64 `yaml:"min_horizon_s"`
	MaxHorizonS         float64 `yaml:"max_horizon_s"`
	ReactionTimeS       float64 `yaml:"reaction_time_s"`
	SafetyMarginM       float64 `yaml:"safety_margin_m"`
}

// EconomyConfig tunes the VTS auction, pricing, and ticketing subsystems.
type EconomyConfig struct {
	MinBid              uint64  `yaml:"min_bid"`
	ReservePrice        uint64  `yaml:"reserve_price"`
	MaxBidsPerAuction   int     `yaml:"max_bids_per_auction"`
	BasePrice           uint64  `yaml:"base_price"`
	MinPrice            uint64  `yaml:"min_price"`
	MaxPrice            uint64  `yaml:"max_price"`
	DemandSensitivity   float64 `yaml:"demand_sensitivity"`
	TimeSensitivity     float64 `yaml:"time_sensitivity"`
	TicketValidityS     int     `yaml:"ticket_validity_s"`
	DefaultZoneVtsLimit int     `yaml:"default_zone_vts_limit"`
}

// SyncConfig tunes predictive-sync comparison and rollback behavior.
type SyncConfig struct {
	RollbackThreshold       float64 `yaml:"rollback_threshold"`
	SnapshotStrategy        string  `yaml:"snapshot_strategy"` // tick_based | memory_budget | adaptive
	SnapshotInterval        uint64  `yaml:"snapshot_interval"`
	MaxSnapshots            int     `yaml:"max_snapshots"`
	MaxConsecutiveRollbacks int     `yaml:"max_consecutive_rollbacks"`
	RollbackCooldownMs      int     `yaml:"rollback_cooldown_ms"`
}

// FailsafeYAML mirrors coordination.FailsafeConfig for YAML loading.
type FailsafeYAML struct {
	HeartbeatTimeoutMs    int     `yaml:"heartbeat_timeout_ms"`
	MaxRetries            int     `yaml:"max_retries"`
	DegradedSpeedFactor   float64 `yaml:"degraded_speed_factor"`
	EmergencyStopDistance float64 `yaml:"emergency_stop_distance"`
}

// HandoffConfig tunes cross-zone handoff triggering and timeouts.
type HandoffConfig struct {
	TriggerDistanceM float64 `yaml:"trigger_distance_m"`
	StepTimeoutMs    int     `yaml:"step_timeout_ms"`
	RequestTTLMs     int     `yaml:"request_ttl_ms"`
}

// MonitoringConfig tunes the Prometheus metrics surface.
type MonitoringConfig struct {
	Enabled          bool `yaml:"enabled"`
	LatencyAlertMs   int  `yaml:"latency_alert_ms"`
	EnableLiveStream bool `yaml:"enable_live_stream"`
}

// CacheConfig points at the Redis instance backing the replay-guard nonce
// cache and the cross-zone handoff event bus.
type CacheConfig struct {
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
	Enabled   bool   `yaml:"enabled"`
}

// SecurityConfig configures message signing and peer identity for
// inter-edge traffic.
type SecurityConfig struct {
	HMACSecret       string `yaml:"hmac_secret"`
	NonceTTLSec      int    `yaml:"nonce_ttl_sec"`
	MaxClockSkewMs   int    `yaml:"max_clock_skew_ms"`
	SPIFFESocketPath string `yaml:"spiffe_socket_path"`
	TrustDomain      string `yaml:"trust_domain"`
}

// PeerEdge is one other edge node this instance can hand robots off to.
type PeerEdge struct {
	EdgeID  uint32 `yaml:"edge_id"`
	ZoneID  uint32 `yaml:"zone_id"`
	Address string `yaml:"address"`
}

// =============================================================================
// Singleton Pattern with Environment Overrides
// =============================================================================

var (
	instance *Config
	once     sync.Once
)

// Get returns the singleton config instance
func Get() *Config {
	once.Do(func() {
		cfg, err := LoadConfig(getEnv("CONFIG_PATH", "config.yaml"))
		if err != nil {
			slog.Warn("Config: failed to load config file: (using defaults)", "error", err)
		}
		if cfg == nil {
			cfg = &Config{}
		}
		cfg.applyEnvOverrides()
		instance = cfg
	})
	return instance
}

// LoadConfig loads config from YAML file
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	c.Server.GRPCPort = getEnv("EDGE_GRPC_PORT", c.Server.GRPCPort)
	c.Server.HTTPPort = getEnv("EDGE_HTTP_PORT", c.Server.HTTPPort)
	c.Server.Env = getEnv("EDGE_ENV", c.Server.Env)
	c.Server.Interface = getEnv("EDGE_INTERFACE", c.Server.Interface)

	if v := getEnvInt("EDGE_ZONE_ID", -1); v >= 0 {
		c.Zone.ZoneID = uint32(v)
	}
	c.Zone.Name = getEnv("EDGE_ZONE_NAME", c.Zone.Name)

	if v := getEnvFloat("MAX_VELOCITY_MPS", 0); v > 0 {
		c.Physics.MaxVelocityMps = v
	}
	if v := getEnvFloat("MAX_ACCELERATION_MPS2", 0); v > 0 {
		c.Physics.MaxAccelerationMps2 = v
	}
	if v := getEnvFloat("MAX_JERK_MPS3", 0); v > 0 {
		c.Physics.MaxJerkMps3 = v
	}

	if v := getEnvInt("SERVER_READ_TIMEOUT_SEC", 0); v > 0 {
		c.Server.ReadTimeoutSec = v
	}
	if v := getEnvInt("SERVER_WRITE_TIMEOUT_SEC", 0); v > 0 {
		c.Server.WriteTimeoutSec = v
	}
	if v := getEnvInt("SERVER_IDLE_TIMEOUT_SEC", 0); v > 0 {
		c.Server.IdleTimeoutSec = v
	}
	if v := getEnvInt("SERVER_SHUTDOWN_TIMEOUT_SEC", 0); v > 0 {
		c.Server.ShutdownTimeout = v
	}
	if origins := getEnv("CORS_ALLOW_ORIGINS", ""); origins != "" {
		c.Server.CORSAllowOrigins = splitCSV(origins)
	}

	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.Enabled = getEnvBool("CACHE_ENABLED", c.Cache.Enabled)

	c.Security.HMACSecret = getEnv("EDGE_HMAC_SECRET", c.Security.HMACSecret)
	if v := getEnvInt("NONCE_TTL_SEC", 0); v > 0 {
		c.Security.NonceTTLSec = v
	}
	c.Security.SPIFFESocketPath = getEnv("SPIFFE_ENDPOINT_SOCKET", c.Security.SPIFFESocketPath)
	c.Security.TrustDomain = getEnv("SPIFFE_TRUST_DOMAIN", c.Security.TrustDomain)

	if v := getEnvFloat("ROLLBACK_THRESHOLD", 0); v > 0 {
		c.Sync.RollbackThreshold = v
	}
	c.Sync.SnapshotStrategy = getEnv("SNAPSHOT_STRATEGY", c.Sync.SnapshotStrategy)

	if v := getEnvInt("HEARTBEAT_TIMEOUT_MS", 0); v > 0 {
		c.Failsafe.HeartbeatTimeoutMs = v
	}

	c.applyDefaults()
}

// applyDefaults sets sensible defaults for zero-valued config fields
func (c *Config) applyDefaults() {
	if c.Server.GRPCPort == "" {
		c.Server.GRPCPort = "9090"
	}
	if c.Server.HTTPPort == "" {
		c.Server.HTTPPort = "8080"
	}
	if c.Server.ReadTimeoutSec == 0 {
		c.Server.ReadTimeoutSec = 15
	}
	if c.Server.WriteTimeoutSec == 0 {
		c.Server.WriteTimeoutSec = 15
	}
	if c.Server.IdleTimeoutSec == 0 {
		c.Server.IdleTimeoutSec = 60
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30
	}
	if len(c.Server.CORSAllowOrigins) == 0 {
		c.Server.CORSAllowOrigins = []string{"*"}
	}

	if c.Zone.TickPeriodMs == 0 {
		c.Zone.TickPeriodMs = 100
	}
	if c.Zone.VoxelSizeM == 0 {
		c.Zone.VoxelSizeM = 0.5
	}

	if c.Physics.MaxVelocityMps == 0 {
		c.Physics.MaxVelocityMps = 2.0
	}
	if c.Physics.MaxAccelerationMps2 == 0 {
		c.Physics.MaxAccelerationMps2 = 1.5
	}
	if c.Physics.MaxJerkMps3 == 0 {
		c.Physics.MaxJerkMps3 = 3.0
	}
	if c.Physics.MinHorizonS == 0 {
		c.Physics.MinHorizonS = 0.5
	}
	if c.Physics.MaxHorizonS == 0 {
		c.Physics.MaxHorizonS = 5.0
	}
	if c.Physics.ReactionTimeS == 0 {
		c.Physics.ReactionTimeS = 0.3
	}
	if c.Physics.SafetyMarginM == 0 {
		c.Physics.SafetyMarginM = 0.3
	}

	if c.Economy.MinBid == 0 {
		c.Economy.MinBid = 100
	}
	if c.Economy.ReservePrice == 0 {
		c.Economy.ReservePrice = 50
	}
	if c.Economy.MaxBidsPerAuction == 0 {
		c.Economy.MaxBidsPerAuction = 1000
	}
	if c.Economy.BasePrice == 0 {
		c.Economy.BasePrice = 100
	}
	if c.Economy.MinPrice == 0 {
		c.Economy.MinPrice = 10
	}
	if c.Economy.MaxPrice == 0 {
		c.Economy.MaxPrice = 10000
	}
	if c.Economy.DemandSensitivity == 0 {
		c.Economy.DemandSensitivity = 0.5
	}
	if c.Economy.TimeSensitivity == 0 {
		c.Economy.TimeSensitivity = 0.3
	}
	if c.Economy.TicketValidityS == 0 {
		c.Economy.TicketValidityS = 60
	}
	if c.Economy.DefaultZoneVtsLimit == 0 {
		c.Economy.DefaultZoneVtsLimit = 256
	}

	if c.Sync.SnapshotStrategy == "" {
		c.Sync.SnapshotStrategy = "tick_based"
	}
	if c.Sync.SnapshotInterval == 0 {
		c.Sync.SnapshotInterval = 10
	}
	if c.Sync.MaxSnapshots == 0 {
		c.Sync.MaxSnapshots = 100
	}
	if c.Sync.RollbackThreshold == 0 {
		c.Sync.RollbackThreshold = 0.1
	}
	if c.Sync.MaxConsecutiveRollbacks == 0 {
		c.Sync.MaxConsecutiveRollbacks = 3
	}
	if c.Sync.RollbackCooldownMs == 0 {
		c.Sync.RollbackCooldownMs = 500
	}

	if c.Failsafe.HeartbeatTimeoutMs == 0 {
		c.Failsafe.HeartbeatTimeoutMs = 100
	}
	if c.Failsafe.MaxRetries == 0 {
		c.Failsafe.MaxRetries = 3
	}
	if c.Failsafe.DegradedSpeedFactor == 0 {
		c.Failsafe.DegradedSpeedFactor = 0.5
	}
	if c.Failsafe.EmergencyStopDistance == 0 {
		c.Failsafe.EmergencyStopDistance = 0.2
	}

	if c.Handoff.TriggerDistanceM == 0 {
		c.Handoff.TriggerDistanceM = 5.0
	}
	if c.Handoff.StepTimeoutMs == 0 {
		c.Handoff.StepTimeoutMs = 2000
	}
	if c.Handoff.RequestTTLMs == 0 {
		c.Handoff.RequestTTLMs = 5000
	}

	if c.Security.NonceTTLSec == 0 {
		c.Security.NonceTTLSec = 60
	}
	if c.Security.MaxClockSkewMs == 0 {
		c.Security.MaxClockSkewMs = 500
	}
	if c.Security.SPIFFESocketPath == "" {
		c.Security.SPIFFESocketPath = "unix:///run/spire/sockets/agent.sock"
	}
	if c.Security.TrustDomain == "" {
		c.Security.TrustDomain = "fleet.local"
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1"
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func splitCSV(s string) []string {
	parts := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// =============================================================================
// Convenience Methods
// =============================================================================

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func (c *Config) GetHTTPPort() string {
	if c.Server.HTTPPort == "" {
		return "8080"
	}
	return c.Server.HTTPPort
}

func (c *Config) GetGRPCPort() string {
	if c.Server.GRPCPort == "" {
		return "9090"
	}
	return c.Server.GRPCPort
}
