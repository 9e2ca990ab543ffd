package models

// MConfig Structure
type MConfig struct {
	Name     string          `yaml:"name"`
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	LogLevel string          `yaml:"log_level"`
	Backend  MBackendConfig  `yaml:"backend"`
	Stream   MStreamConfig   `yaml:"stream"`
	Poll     MPollConfig     `yaml:"poll"`
	Chart    MChartConfig    `yaml:"chart"`
	Search   MSearchConfig   `yaml:"search"`
	Recorder MRecorderConfig `yaml:"recorder"`
}

type MBackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	WSURL          string `yaml:"ws_url"`
	RequestTimeout int    `yaml:"timeout"`
	Proxy          string `yaml:"proxy"`
	UserID         string `yaml:"user_id"`
	Timezone       string `yaml:"timezone"`
}

type MStreamConfig struct {
	ReconnectDelaySeconds int `yaml:"reconnect_delay_seconds"`
	IdleTopicTTLSeconds   int `yaml:"idle_topic_ttl_seconds"` // 0 disables the sweep
}

type MPollConfig struct {
	OpenIntervalSeconds   int `yaml:"open_interval_seconds"`
	ClosedIntervalSeconds int `yaml:"closed_interval_seconds"`
}

type MChartConfig struct {
	MinAnimatedPoints  int      `yaml:"min_animated_points"`
	MaxAnimatedPoints  int      `yaml:"max_animated_points"`
	InitialVisible     int      `yaml:"initial_visible"`
	StepPoints         int      `yaml:"step_points"`
	StepIntervalMs     int      `yaml:"step_interval_ms"`
	LiveIndicatorMs    int      `yaml:"live_indicator_ms"`
	LiveAppendMax      int      `yaml:"live_append_max"`
	EligibleTimeframes []string `yaml:"eligible_timeframes"`
	MaxLivePoints      int      `yaml:"max_live_points"`
}

type MSearchConfig struct {
	MinKeywordLength int `yaml:"min_keyword_length"`
}

type MRecorderConfig struct {
	Enabled            bool   `yaml:"enabled"`
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}
