// Package config は、アプリケーションの設定ファイル(config.json / config.yaml)の構造定義と、
// その読み込み、解決（テンプレートのマージなど）に関する機能を提供します。
package config

// Config は設定ファイル全体を表すルート構造体です。
type Config struct {
	ConfigVersion string          `json:"config_version" yaml:"config_version"`
	Network       NetworkSettings `json:"network" yaml:"network"`
	IndexPath     string          `json:"index_path,omitempty" yaml:"index_path,omitempty"`
	EnableLogFile bool            `json:"enable_log_file" yaml:"enable_log_file"`
	LogFilePath   string          `json:"log_file_path,omitempty" yaml:"log_file_path,omitempty"`
	LogLevel      string          `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	TaskTemplates map[string]Task `json:"task_templates" yaml:"task_templates"`
	Tasks         []Task          `json:"tasks" yaml:"tasks"`
}

// NetworkSettings は、HTTPリクエストに関するグローバルな設定を保持します。
type NetworkSettings struct {
	UserAgent               string            `json:"user_agent" yaml:"user_agent"`
	DefaultHeaders          map[string]string `json:"default_headers" yaml:"default_headers"`
	PerDomainIntervalMillis map[string]int    `json:"per_domain_interval_ms" yaml:"per_domain_interval_ms"`
	RequestTimeoutMillis    int               `json:"request_timeout_ms" yaml:"request_timeout_ms"`
}

// Task は単一の連載アーカイブタスクを定義します。
type Task struct {
	Enabled           *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TaskName          string `json:"task_name,omitempty" yaml:"task_name,omitempty"`
	UseTemplate       string `json:"use_template,omitempty" yaml:"use_template,omitempty"`
	SiteAdapter       string `json:"site_adapter,omitempty" yaml:"site_adapter,omitempty"`
	LandingURL        string `json:"landing_url,omitempty" yaml:"landing_url,omitempty"`
	StoryName         string `json:"story_name,omitempty" yaml:"story_name,omitempty"`
	SaveRootDirectory string `json:"save_root_directory,omitempty" yaml:"save_root_directory,omitempty"`
	// RequestIntervalMillis が正の値の場合、ランダム待機の代わりに固定間隔で待機します。
	RequestIntervalMillis int `json:"request_interval_ms,omitempty" yaml:"request_interval_ms,omitempty"`
	MinIntervalMillis     int `json:"min_interval_ms,omitempty" yaml:"min_interval_ms,omitempty"`
	MaxIntervalMillis     int `json:"max_interval_ms,omitempty" yaml:"max_interval_ms,omitempty"`
}

// IsEnabled は、タスクが有効かどうかを返します。未指定の場合は有効とみなします。
func (t Task) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

const (
	DefaultSiteAdapter   = "xenforo"
	DefaultUserAgent     = "Mozilla/5.0"
	DefaultSaveRoot      = ".output"
	DefaultIndexPath     = "archive_index.db"
	DefaultLandingURL    = "https://proximalflame.com/index-2/"
	DefaultStoryName     = "The Last Angel"
	DefaultMinIntervalMs = 500
	DefaultMaxIntervalMs = 1500
)

// Default は、設定ファイルが存在しない場合に使用する組み込み設定を返します。
func Default() *Config {
	cfg := &Config{
		ConfigVersion: compatibleVersion,
		TaskTemplates: map[string]Task{},
		Tasks: []Task{{
			TaskName:   DefaultStoryName,
			LandingURL: DefaultLandingURL,
			StoryName:  DefaultStoryName,
		}},
	}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults は、未設定の項目にデフォルト値を埋めます。
func applyDefaults(cfg *Config) {
	if cfg.Network.UserAgent == "" {
		cfg.Network.UserAgent = DefaultUserAgent
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = DefaultIndexPath
	}
	for i := range cfg.Tasks {
		task := &cfg.Tasks[i]
		if task.SiteAdapter == "" {
			task.SiteAdapter = DefaultSiteAdapter
		}
		if task.SaveRootDirectory == "" {
			task.SaveRootDirectory = DefaultSaveRoot
		}
		if task.TaskName == "" {
			task.TaskName = task.StoryName
		}
		if task.MinIntervalMillis <= 0 {
			task.MinIntervalMillis = DefaultMinIntervalMs
		}
		if task.MaxIntervalMillis < task.MinIntervalMillis {
			task.MaxIntervalMillis = DefaultMaxIntervalMs
			if task.MaxIntervalMillis < task.MinIntervalMillis {
				task.MaxIntervalMillis = task.MinIntervalMillis
			}
		}
	}
}
