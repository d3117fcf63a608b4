package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}

	if got := s.GetListenAddr(); got != DefaultListenAddr {
		t.Errorf("GetListenAddr() default = %q, want %q", got, DefaultListenAddr)
	}
	if got := s.GetDeviceUser(); got != "admin" {
		t.Errorf("GetDeviceUser() default = %q, want %q", got, "admin")
	}
	if got := s.GetAuditMaxSize(); got != 10*1024*1024 {
		t.Errorf("GetAuditMaxSize() default = %d", got)
	}
	if got := s.GetAuditLog(); !strings.HasSuffix(got, "audit.log") {
		t.Errorf("GetAuditLog() default = %q, want .../audit.log", got)
	}
	if s.TableFile != "" {
		t.Errorf("TableFile should be empty, got %q", s.TableFile)
	}
}

func TestSettings_SetGet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{"table_file", "/etc/routeaudit/core.yaml", false},
		{"redis_addr", "10.0.0.5:6379", false},
		{"device_user", "admin", false},
		{"device_password", "YourPaSsWoRd", false},
		{"vrf", "Vrf-red", false},
		{"audit_log", "/var/log/routeaudit/audit.log", false},
		{"listen_addr", "127.0.0.1:9190", false},
		{"log_format", "json", false},
		{"log_format", "xml", true},
		{"audit_max_size_mb", "25", false},
		{"audit_max_size_mb", "-1", true},
		{"audit_max_size_mb", "big", true},
		{"no_such_key", "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			s := &Settings{}
			err := s.Set(tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Set(%q, %q) should fail", tt.key, tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set(%q, %q) error = %v", tt.key, tt.value, err)
			}
			got, err := s.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) error = %v", tt.key, err)
			}
			if got != tt.value {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.value)
			}
		})
	}
}

func TestSettings_SetEmptyClears(t *testing.T) {
	s := &Settings{LogFormat: "json", AuditMaxSizeMB: 5, ListenAddr: ":80"}
	for _, key := range []string{"log_format", "audit_max_size_mb", "listen_addr"} {
		if err := s.Set(key, ""); err != nil {
			t.Fatalf("Set(%q, \"\") error = %v", key, err)
		}
	}
	if s.LogFormat != "" || s.AuditMaxSizeMB != 0 || s.GetListenAddr() != DefaultListenAddr {
		t.Errorf("empty values should clear: %+v", s)
	}
	if s.GetAuditMaxSize() != DefaultAuditMaxSizeMB*1024*1024 {
		t.Errorf("GetAuditMaxSize() = %d after clear", s.GetAuditMaxSize())
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != 9 {
		t.Errorf("Keys() returned %d keys: %v", len(keys), keys)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Errorf("Keys() not sorted: %v", keys)
		}
	}
	s := &Settings{}
	for _, k := range keys {
		if _, err := s.Get(k); err != nil {
			t.Errorf("Get(%q) error = %v", k, err)
		}
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{
		TableFile: "core.yaml",
		RedisAddr: "10.0.0.5:6379",
		VRF:       "Vrf-red",
		LogFormat: "json",
	}

	s.Clear()

	if s.TableFile != "" || s.RedisAddr != "" || s.VRF != "" || s.LogFormat != "" {
		t.Error("Clear() should reset all fields to empty")
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s := &Settings{
		TableFile:      "core.yaml",
		RedisAddr:      "10.0.0.5:6379",
		DevicePassword: "secret",
		AuditMaxSizeMB: 3,
	}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("settings file mode = %o, want 600", perm)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if *loaded != *s {
		t.Errorf("LoadFrom() = %+v, want %+v", loaded, s)
	}
}

func TestSettings_LoadNonExistent(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFrom() should not error for missing file: %v", err)
	}
	if *s != (Settings{}) {
		t.Errorf("LoadFrom() of missing file = %+v, want empty", s)
	}
}

func TestSettings_LoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{invalid"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should error for invalid JSON")
	}
}

func TestSettings_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "settings.json")

	s := &Settings{TableFile: "core.yaml"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("settings file not created: %v", err)
	}
}

func TestLoadSave_DefaultPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	s := &Settings{RedisAddr: "10.0.0.5:6379"}
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.RedisAddr != "10.0.0.5:6379" {
		t.Errorf("Load().RedisAddr = %q", loaded.RedisAddr)
	}
	if !strings.HasSuffix(DefaultSettingsPath(), filepath.Join(".routeaudit", "settings.json")) {
		t.Errorf("DefaultSettingsPath() = %q", DefaultSettingsPath())
	}
}

func TestDefaultSettingsPath_NoHome(t *testing.T) {
	t.Setenv("HOME", "")

	if path := DefaultSettingsPath(); path != "routeaudit_settings.json" {
		t.Errorf("DefaultSettingsPath() with no HOME = %q, want %q", path, "routeaudit_settings.json")
	}
}

func TestLoadFrom_ReadError(t *testing.T) {
	dirAsFile := filepath.Join(t.TempDir(), "settings.json")
	if err := os.Mkdir(dirAsFile, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	if _, err := LoadFrom(dirAsFile); err == nil {
		t.Error("LoadFrom() should error when path is a directory")
	}
}

func TestSaveTo_MkdirError(t *testing.T) {
	blockingFile := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blockingFile, []byte("blocking"), 0644); err != nil {
		t.Fatalf("Failed to create blocking file: %v", err)
	}

	s := &Settings{TableFile: "core.yaml"}
	if err := s.SaveTo(filepath.Join(blockingFile, "subdir", "settings.json")); err == nil {
		t.Error("SaveTo() should fail when directory creation fails")
	}
}
