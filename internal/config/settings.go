package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Settings represents the structure of ~/.driftwatch/settings.json.
// Pointer fields distinguish "unset" from an explicit zero; every detector
// threshold is tunable here without code changes.
type Settings struct {
	AttentionGraceSeconds   *int        `json:"attention_grace_seconds,omitempty"`
	ClassifierURL           string      `json:"classifier_url,omitempty"`
	DBPath                  string      `json:"db_path,omitempty"`
	Debug                   *bool       `json:"debug,omitempty"`
	DebounceGlobal          *bool       `json:"debounce_global,omitempty"`
	DebounceWindowSeconds   *int        `json:"debounce_window_seconds,omitempty"`
	EvaluateTimeoutSeconds  *int        `json:"evaluate_timeout_seconds,omitempty"`
	IdleThresholdSeconds    *int        `json:"idle_threshold_seconds,omitempty"`
	MaxLogFiles             *int        `json:"max_log_files,omitempty"`
	Owner                   string      `json:"owner,omitempty"`
	PollIntervalSeconds     *int        `json:"poll_interval_seconds,omitempty"`
	PresenceSustainSeconds  *int        `json:"presence_sustain_seconds,omitempty"`
	RelevanceSustainSeconds *int        `json:"relevance_sustain_seconds,omitempty"`
	WatchPaths              StringArray `json:"watch_paths,omitempty"`
}

// Duration converts an optional seconds field into a duration, falling
// back to zero (meaning "use the built-in default") when unset.
func Duration(seconds *int) time.Duration {
	if seconds == nil {
		return 0
	}
	return time.Duration(*seconds) * time.Second
}

// StringArray supports both JSON arrays and comma-separated strings
type StringArray []string

// UnmarshalJSON implements custom unmarshaling for StringArray
func (sa *StringArray) UnmarshalJSON(data []byte) error {
	// Try array format first
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*sa = arr
		return nil
	}

	// Fall back to comma-separated string
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*sa = parseCommaSeparated(str)
	return nil
}

// parseCommaSeparated splits comma-separated string and trims whitespace
func parseCommaSeparated(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// LoadSettings loads settings from $DRIFTWATCH_HOME/settings.json (or
// ~/.driftwatch/settings.json if not set). Returns empty Settings if the
// file doesn't exist (not an error).
func LoadSettings() (*Settings, error) {
	path := GetSettingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil // Not an error, use defaults
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}

	if settings.DBPath != "" {
		settings.DBPath = ExpandPath(settings.DBPath)
	}
	for i, p := range settings.WatchPaths {
		settings.WatchPaths[i] = ExpandPath(p)
	}

	return &settings, nil
}

// SaveSettings saves settings to $DRIFTWATCH_HOME/settings.json
func SaveSettings(settings *Settings) error {
	path := GetSettingsPath()
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}
