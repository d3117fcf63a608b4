package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtron-network/routeaudit/pkg/ipaddr"
	"github.com/newtron-network/routeaudit/pkg/routing"
	"github.com/newtron-network/routeaudit/pkg/settings"
)

// withFlags sets the source flags for one test and restores them after.
func withFlags(t *testing.T, file, redis, device string, s *settings.Settings) {
	t.Helper()
	oldFile, oldRedis, oldDevice, oldSettings := tableFile, redisAddr, deviceHost, userSettings
	tableFile, redisAddr, deviceHost, userSettings = file, redis, device, s
	t.Cleanup(func() {
		tableFile, redisAddr, deviceHost, userSettings = oldFile, oldRedis, oldDevice, oldSettings
	})
}

func TestTableSource(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		redis      string
		device     string
		settings   *settings.Settings
		wantKind   string
		wantTarget string
		wantErr    bool
	}{
		{name: "file flag", file: "core.yaml", wantKind: "file", wantTarget: "core.yaml"},
		{name: "redis flag", redis: "10.0.0.5:6379", wantKind: "redis", wantTarget: "10.0.0.5:6379"},
		{name: "device flag", device: "leaf1", wantKind: "device", wantTarget: "leaf1"},
		{name: "two flags", file: "core.yaml", redis: "10.0.0.5:6379", wantErr: true},
		{
			name:       "flag beats settings",
			redis:      "10.0.0.5:6379",
			settings:   &settings.Settings{TableFile: "saved.yaml"},
			wantKind:   "redis",
			wantTarget: "10.0.0.5:6379",
		},
		{
			name:       "settings table file",
			settings:   &settings.Settings{TableFile: "saved.yaml", RedisAddr: "10.0.0.9:6379"},
			wantKind:   "file",
			wantTarget: "saved.yaml",
		},
		{
			name:       "settings redis",
			settings:   &settings.Settings{RedisAddr: "10.0.0.9:6379"},
			wantKind:   "redis",
			wantTarget: "10.0.0.9:6379",
		},
		{name: "nothing", settings: &settings.Settings{}, wantErr: true},
		{name: "nil settings", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withFlags(t, tt.file, tt.redis, tt.device, tt.settings)

			kind, target, err := tableSource()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantTarget, target)
		})
	}
}

func TestLoadTable_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(serveTable), 0644))
	withFlags(t, path, "", "", nil)

	lt, err := loadTable(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "core-rtr", lt.table.Name())
	assert.Equal(t, path, lt.source)
	assert.Equal(t, 3, lt.table.Len())
	assert.Empty(t, lt.skippedStrings())
}

func TestResolve(t *testing.T) {
	tbl := routing.NewTable("t")
	dest, mask, err := ipaddr.ParsePrefix("10.1.0.0/16")
	require.NoError(t, err)
	require.NoError(t, tbl.AddEntry(dest, mask, 3, ipaddr.MustParse("10.1.0.1")))

	res, err := resolve(tbl, "10.1.200.4")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Interface)
	require.NotNil(t, res.Route)
	assert.Equal(t, "10.1.0.0/16 dev 3 via 10.1.0.1", res.Route.String())

	res, err = resolve(tbl, "10.2.0.1")
	assert.Error(t, err)
	assert.Equal(t, -1, res.Interface)
	assert.Nil(t, res.Route)
	assert.Equal(t, err.Error(), res.Error)

	res, err = resolve(tbl, "10.1.300.4")
	assert.Error(t, err)
	assert.Equal(t, -1, res.Interface)
}

func TestIsSettingsOrMeta(t *testing.T) {
	root := &cobra.Command{Use: "routeaudit"}
	settingsCmd := &cobra.Command{Use: "settings"}
	setCmd := &cobra.Command{Use: "set"}
	list := &cobra.Command{Use: "list"}
	version := &cobra.Command{Use: "version"}
	settingsCmd.AddCommand(setCmd)
	root.AddCommand(settingsCmd, list, version)

	assert.True(t, isSettingsOrMeta(setCmd))
	assert.True(t, isSettingsOrMeta(version))
	assert.False(t, isSettingsOrMeta(list))
	assert.False(t, isSettingsOrMeta(root))
}
