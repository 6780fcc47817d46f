// Package config loads the arena's runtime configuration from YAML: a
// single typed Config passed by reference into every collaborator at
// construction time rather than read from ambient globals.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// APMProfile names one of the enumerated rate profiles.
type APMProfile string

const (
	APMHumanLike   APMProfile = "human_like"
	APMCompetitive APMProfile = "competitive"
	APMUnlimited   APMProfile = "unlimited"
)

// GameSpeed is informational passthrough to the simulator.
type GameSpeed string

const (
	SpeedSlower GameSpeed = "slower"
	SpeedSlow   GameSpeed = "slow"
	SpeedNormal GameSpeed = "normal"
	SpeedFast   GameSpeed = "fast"
	SpeedFaster GameSpeed = "faster"
)

// TechLevel is passthrough configuration to the simulator.
type TechLevel string

const (
	TechLow          TechLevel = "low"
	TechMedium       TechLevel = "medium"
	TechHigh         TechLevel = "high"
	TechUnrestricted TechLevel = "unrestricted"
)

// Mode is one of the three match configuration families.
type Mode string

const (
	ModeRanked1v1  Mode = "ranked_1v1"
	ModeCasual1v1  Mode = "casual_1v1"
	ModeTournament Mode = "tournament"
)

// ModeSettings binds a mode to its enumerated configuration and the
// APM profile fixed at session creation.
type ModeSettings struct {
	APMProfile    APMProfile `yaml:"apm_profile"`
	GameSpeed     GameSpeed  `yaml:"game_speed"`
	TechLevel     TechLevel  `yaml:"tech_level"`
	StartingCash  int        `yaml:"starting_cash"`
	FogOfWar      bool       `yaml:"fog_of_war"`
	Shroud        bool       `yaml:"shroud"`
	MapPool       []string   `yaml:"map_pool"`
	Ranked        bool       `yaml:"ranked"`
	MaxQueueDepth int        `yaml:"max_queue_depth"` // 0 = unbounded; backs MatchmakerFull
}

// Matchmaker holds the pairing-policy defaults.
type Matchmaker struct {
	InitialRadius    int           `yaml:"initial_radius"`
	MaxRadius        int           `yaml:"max_radius"`
	WideningStep     int           `yaml:"widening_step"`
	WideningInterval time.Duration `yaml:"widening_interval"`
	QueueTimeout     time.Duration `yaml:"queue_timeout"`
	PairingInterval  time.Duration `yaml:"pairing_interval"`
}

// Session holds the per-match timing defaults.
type Session struct {
	ConnectDeadline      time.Duration `yaml:"connect_deadline"`
	GameTimeout          time.Duration `yaml:"game_timeout"`
	SimulatorIPCTimeout  time.Duration `yaml:"simulator_ipc_timeout"`
	GraceWindow          time.Duration `yaml:"grace_window"`
	MaxChatLength        int           `yaml:"max_chat_length"`
	MaxHighSeverityCount int           `yaml:"max_high_severity_count"`
	RecipientQueueDepth  int           `yaml:"recipient_queue_depth"`
}

// Config is the arena's complete, YAML-sourced configuration.
type Config struct {
	Matchmaker Matchmaker            `yaml:"matchmaker"`
	Session    Session               `yaml:"session"`
	Modes      map[Mode]ModeSettings `yaml:"modes"`

	RedisAddr       string   `yaml:"redis_addr"`
	KafkaBrokers    []string `yaml:"kafka_brokers"`
	KafkaTopic      string   `yaml:"kafka_topic"`
	PostgresDSN     string   `yaml:"postgres_dsn"`
	SQLiteAuditPath string   `yaml:"sqlite_audit_path"`
	JWTSecret       string   `yaml:"jwt_secret"`
	HTTPAddr        string   `yaml:"http_addr"`
	WSAddr          string   `yaml:"ws_addr"`
}

// Default returns the configuration with every named default filled
// in, used when no YAML file is supplied and as the base that a loaded
// file is layered on top of.
func Default() *Config {
	return &Config{
		Matchmaker: Matchmaker{
			InitialRadius:    50,
			MaxRadius:        400,
			WideningStep:     10,
			WideningInterval: 5 * time.Second,
			QueueTimeout:     5 * time.Minute,
			PairingInterval:  1 * time.Second,
		},
		Session: Session{
			ConnectDeadline:      60 * time.Second,
			GameTimeout:          30 * time.Minute,
			SimulatorIPCTimeout:  10 * time.Second,
			GraceWindow:          30 * time.Second,
			MaxChatLength:        200,
			MaxHighSeverityCount: 5,
			RecipientQueueDepth:  32,
		},
		Modes: map[Mode]ModeSettings{
			ModeRanked1v1: {
				APMProfile: APMCompetitive, GameSpeed: SpeedNormal, TechLevel: TechUnrestricted,
				StartingCash: 10000, FogOfWar: true, Shroud: true, Ranked: true,
				MapPool: []string{"tundra_bay", "red_delta", "iron_curtain"},
			},
			ModeCasual1v1: {
				APMProfile: APMHumanLike, GameSpeed: SpeedNormal, TechLevel: TechUnrestricted,
				StartingCash: 10000, FogOfWar: true, Shroud: true, Ranked: false,
				MapPool: []string{"tundra_bay", "red_delta"},
			},
			ModeTournament: {
				APMProfile: APMCompetitive, GameSpeed: SpeedNormal, TechLevel: TechHigh,
				StartingCash: 8000, FogOfWar: true, Shroud: true, Ranked: true,
				MapPool: []string{"iron_curtain"},
			},
		},
		KafkaTopic: "arena.match-events",
		HTTPAddr:   ":8080",
		WSAddr:     ":8090",
	}
}

// Load reads YAML from path and merges it onto Default(). A missing
// field keeps its default rather than zeroing out.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
