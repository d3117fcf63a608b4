// Package settings manages persistent user settings for the routeaudit CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Settings holds persistent user preferences
type Settings struct {
	// TableFile is the route-table spec used when -f is not specified
	TableFile string `json:"table_file,omitempty"`

	// RedisAddr is the CONFIG_DB address used when --redis is not specified
	RedisAddr string `json:"redis_addr,omitempty"`

	// DeviceUser and DevicePassword authenticate the SSH tunnel for --device
	DeviceUser     string `json:"device_user,omitempty"`
	DevicePassword string `json:"device_password,omitempty"`

	// VRF selects which STATIC_ROUTE entries are loaded from CONFIG_DB
	VRF string `json:"vrf,omitempty"`

	// AuditLog is the audit log path
	AuditLog string `json:"audit_log,omitempty"`

	// AuditMaxSizeMB rotates the audit log past this size; 0 uses the default
	AuditMaxSizeMB int `json:"audit_max_size_mb,omitempty"`

	// LogFormat is "text" or "json"
	LogFormat string `json:"log_format,omitempty"`

	// ListenAddr is the default address for `routeaudit serve`
	ListenAddr string `json:"listen_addr,omitempty"`
}

// Defaults used when a setting is empty.
const (
	DefaultListenAddr     = ":9190"
	DefaultAuditMaxSizeMB = 10
	DefaultDeviceUser     = "admin"
)

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "routeaudit_settings.json"
	}
	return filepath.Join(home, ".routeaudit", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A missing file yields
// empty settings.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path. The file may hold a device
// password, so it is written owner-only.
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// GetAuditLog returns the audit log path (with fallback)
func (s *Settings) GetAuditLog() string {
	if s.AuditLog != "" {
		return s.AuditLog
	}
	return filepath.Join(filepath.Dir(DefaultSettingsPath()), "audit.log")
}

// GetAuditMaxSize returns the rotation threshold in bytes.
func (s *Settings) GetAuditMaxSize() int64 {
	mb := s.AuditMaxSizeMB
	if mb <= 0 {
		mb = DefaultAuditMaxSizeMB
	}
	return int64(mb) * 1024 * 1024
}

// GetListenAddr returns the serve listen address (with fallback)
func (s *Settings) GetListenAddr() string {
	if s.ListenAddr != "" {
		return s.ListenAddr
	}
	return DefaultListenAddr
}

// GetDeviceUser returns the SSH user (with fallback)
func (s *Settings) GetDeviceUser() string {
	if s.DeviceUser != "" {
		return s.DeviceUser
	}
	return DefaultDeviceUser
}

type field struct {
	get func(*Settings) string
	set func(*Settings, string) error
}

func stringField(p func(*Settings) *string) field {
	return field{
		get: func(s *Settings) string { return *p(s) },
		set: func(s *Settings, v string) error { *p(s) = v; return nil },
	}
}

var fields = map[string]field{
	"table_file":      stringField(func(s *Settings) *string { return &s.TableFile }),
	"redis_addr":      stringField(func(s *Settings) *string { return &s.RedisAddr }),
	"device_user":     stringField(func(s *Settings) *string { return &s.DeviceUser }),
	"device_password": stringField(func(s *Settings) *string { return &s.DevicePassword }),
	"vrf":             stringField(func(s *Settings) *string { return &s.VRF }),
	"audit_log":       stringField(func(s *Settings) *string { return &s.AuditLog }),
	"listen_addr":     stringField(func(s *Settings) *string { return &s.ListenAddr }),
	"log_format": {
		get: func(s *Settings) string { return s.LogFormat },
		set: func(s *Settings, v string) error {
			if v != "" && v != "text" && v != "json" {
				return fmt.Errorf("log_format must be text or json, got %q", v)
			}
			s.LogFormat = v
			return nil
		},
	},
	"audit_max_size_mb": {
		get: func(s *Settings) string {
			if s.AuditMaxSizeMB == 0 {
				return ""
			}
			return strconv.Itoa(s.AuditMaxSizeMB)
		},
		set: func(s *Settings, v string) error {
			if v == "" {
				s.AuditMaxSizeMB = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("audit_max_size_mb must be a non-negative integer, got %q", v)
			}
			s.AuditMaxSizeMB = n
			return nil
		},
	},
}

// Keys returns the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a key by its JSON name.
func (s *Settings) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown setting %q", key)
	}
	return f.get(s), nil
}

// Set assigns a key by its JSON name. An empty value clears it.
func (s *Settings) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	return f.set(s, value)
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
