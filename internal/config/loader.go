package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const compatibleVersion = "1.0"

// taskPatch は、タスク設定をデコードするための中間ヘルパー構造体です。
// nil でないフィールドだけがテンプレートの値を上書きします。
type taskPatch struct {
	Enabled               *bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TaskName              *string `json:"task_name,omitempty" yaml:"task_name,omitempty"`
	UseTemplate           string  `json:"use_template,omitempty" yaml:"use_template,omitempty"`
	SiteAdapter           *string `json:"site_adapter,omitempty" yaml:"site_adapter,omitempty"`
	LandingURL            *string `json:"landing_url,omitempty" yaml:"landing_url,omitempty"`
	StoryName             *string `json:"story_name,omitempty" yaml:"story_name,omitempty"`
	SaveRootDirectory     *string `json:"save_root_directory,omitempty" yaml:"save_root_directory,omitempty"`
	RequestIntervalMillis *int    `json:"request_interval_ms,omitempty" yaml:"request_interval_ms,omitempty"`
	MinIntervalMillis     *int    `json:"min_interval_ms,omitempty" yaml:"min_interval_ms,omitempty"`
	MaxIntervalMillis     *int    `json:"max_interval_ms,omitempty" yaml:"max_interval_ms,omitempty"`
}

// rawConfig は、設定ファイルをデコードするための中間構造体です。
type rawConfig struct {
	ConfigVersion string          `json:"config_version" yaml:"config_version"`
	Network       NetworkSettings `json:"network" yaml:"network"`
	IndexPath     string          `json:"index_path" yaml:"index_path"`
	EnableLogFile bool            `json:"enable_log_file" yaml:"enable_log_file"`
	LogFilePath   string          `json:"log_file_path" yaml:"log_file_path"`
	LogLevel      string          `json:"log_level" yaml:"log_level"`
	TaskTemplates map[string]Task `json:"task_templates" yaml:"task_templates"`
	Tasks         []taskPatch     `json:"tasks" yaml:"tasks"`
}

// LoadAndResolve は、指定されたパスから設定ファイルを読み込み、解析と解決を行います。
// 拡張子が .yaml / .yml の場合は YAML として、それ以外は JSON として解析します。
func LoadAndResolve(path string) (*Config, error) {
	absPath, _ := filepath.Abs(path)
	cwd, _ := os.Getwd()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイル '%s' の読み込みに失敗しました (Abs: '%s', Cwd: '%s'): %w", path, absPath, cwd, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseAndResolveYAML(data)
	default:
		return ParseAndResolve(data)
	}
}

// LoadOrDefault は、設定ファイルが存在しない場合に組み込み設定を返します。
// 存在するが読めない、または不正な場合はエラーを返します。
func LoadOrDefault(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), false, nil
	}
	cfg, err := LoadAndResolve(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// ParseAndResolve は、JSON 設定データを解析し、テンプレートを解決して最終的な設定を返します。
func ParseAndResolve(data []byte) (*Config, error) {
	var rawCfg rawConfig
	if err := json.Unmarshal(data, &rawCfg); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError

		if errors.As(err, &syntaxErr) {
			line, col := computeLineAndColumn(data, syntaxErr.Offset)
			return nil, fmt.Errorf("設定ファイルのJSON構文エラー (行 %d, 列 %d): %w", line, col, err)
		}
		if errors.As(err, &typeErr) {
			line, col := computeLineAndColumn(data, typeErr.Offset)
			return nil, fmt.Errorf("設定ファイルの型エラー (行 %d, 列 %d, フィールド '%s'): 期待値 %v, 実際 %v - %w",
				line, col, typeErr.Field, typeErr.Type, typeErr.Value, err)
		}
		return nil, fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
	}
	return resolve(&rawCfg)
}

// ParseAndResolveYAML は、YAML 設定データを解析し、テンプレートを解決して最終的な設定を返します。
func ParseAndResolveYAML(data []byte) (*Config, error) {
	var rawCfg rawConfig
	if err := yaml.Unmarshal(data, &rawCfg); err != nil {
		return nil, fmt.Errorf("設定ファイル(YAML)の解析に失敗しました: %w", err)
	}
	return resolve(&rawCfg)
}

func resolve(rawCfg *rawConfig) (*Config, error) {
	if rawCfg.ConfigVersion != compatibleVersion {
		return nil, fmt.Errorf("サポートされていない設定バージョン '%s' です。'%s' が必要です。", rawCfg.ConfigVersion, compatibleVersion)
	}

	resolvedConfig := &Config{
		ConfigVersion: rawCfg.ConfigVersion,
		Network:       rawCfg.Network,
		IndexPath:     rawCfg.IndexPath,
		EnableLogFile: rawCfg.EnableLogFile,
		LogFilePath:   rawCfg.LogFilePath,
		LogLevel:      rawCfg.LogLevel,
		TaskTemplates: rawCfg.TaskTemplates,
		Tasks:         make([]Task, 0, len(rawCfg.Tasks)),
	}

	for _, patch := range rawCfg.Tasks {
		var resolvedTask Task
		if patch.UseTemplate != "" {
			template, ok := rawCfg.TaskTemplates[patch.UseTemplate]
			if !ok {
				taskName := "unknown"
				if patch.TaskName != nil {
					taskName = *patch.TaskName
				}
				return nil, fmt.Errorf("タスク '%s' が未定義のテンプレート '%s' を使用しています", taskName, patch.UseTemplate)
			}
			resolvedTask = template
		}
		applyPatch(&resolvedTask, &patch)
		resolvedConfig.Tasks = append(resolvedConfig.Tasks, resolvedTask)
	}

	applyDefaults(resolvedConfig)

	for i, task := range resolvedConfig.Tasks {
		if task.LandingURL == "" || task.StoryName == "" {
			return nil, fmt.Errorf("タスク #%d ('%s') には landing_url と story_name が必要です", i+1, task.TaskName)
		}
	}

	return resolvedConfig, nil
}

// applyPatch は、patchの非nilフィールドをtargetに上書きします。
func applyPatch(target *Task, patch *taskPatch) {
	target.UseTemplate = patch.UseTemplate
	if patch.Enabled != nil {
		target.Enabled = patch.Enabled
	}
	if patch.TaskName != nil {
		target.TaskName = *patch.TaskName
	}
	if patch.SiteAdapter != nil {
		target.SiteAdapter = *patch.SiteAdapter
	}
	if patch.LandingURL != nil {
		target.LandingURL = *patch.LandingURL
	}
	if patch.StoryName != nil {
		target.StoryName = *patch.StoryName
	}
	if patch.SaveRootDirectory != nil {
		target.SaveRootDirectory = *patch.SaveRootDirectory
	}
	if patch.RequestIntervalMillis != nil {
		target.RequestIntervalMillis = *patch.RequestIntervalMillis
	}
	if patch.MinIntervalMillis != nil {
		target.MinIntervalMillis = *patch.MinIntervalMillis
	}
	if patch.MaxIntervalMillis != nil {
		target.MaxIntervalMillis = *patch.MaxIntervalMillis
	}
}

// computeLineAndColumn は、バイトオフセットから行番号と列番号（1始まり）を計算します。
func computeLineAndColumn(data []byte, offset int64) (int, int) {
	if offset < 0 || int(offset) > len(data) {
		return 0, 0
	}
	line := 1
	lastLineStart := 0
	for i, b := range data {
		if int64(i) == offset {
			return line, i - lastLineStart + 1
		}
		if b == '\n' {
			line++
			lastLineStart = i + 1
		}
	}
	return line, int(offset) - lastLineStart + 1
}
