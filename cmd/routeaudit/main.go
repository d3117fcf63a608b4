// Routeaudit - static IPv4 routing table auditor
//
// Loads a static routing table from a YAML spec file or from a SONiC
// device's CONFIG_DB, resolves destinations by longest-prefix match, and
// proposes CIDR simplifications without touching the source.
//
// Source flags select the table; commands are verbs on that table:
//
//	routeaudit [-f table.yaml | --redis addr | --device host] <verb> [args]
//
// Examples:
//
//	routeaudit -f core.yaml list
//	routeaudit -f core.yaml lookup 10.1.2.3 192.168.0.7
//	routeaudit --redis 10.0.0.5:6379 --vrf Vrf-red check
//	routeaudit --device leaf1 optimize --verify --save leaf1-opt.yaml
//	routeaudit -f core.yaml serve --listen :9190
package main

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/routeaudit/pkg/audit"
	"github.com/newtron-network/routeaudit/pkg/cli"
	"github.com/newtron-network/routeaudit/pkg/configdb"
	"github.com/newtron-network/routeaudit/pkg/routing"
	"github.com/newtron-network/routeaudit/pkg/settings"
	"github.com/newtron-network/routeaudit/pkg/spec"
	"github.com/newtron-network/routeaudit/pkg/util"
	"github.com/newtron-network/routeaudit/pkg/version"
)

var (
	// Source flags (select the table)
	tableFile  string // -f, --file
	redisAddr  string // --redis
	deviceHost string // --device
	vrfName    string // --vrf

	// Global option flags
	verbose bool
	logJSON bool
	noColor bool

	userSettings *settings.Settings
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("Error:"), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "routeaudit",
	Short:             "Static IPv4 routing table auditor",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Routeaudit resolves destinations against a static IPv4 routing table and
proposes CIDR simplifications (duplicates, sibling merges, subsumed routes).

Source flags select the table; proposals are never written back to the source.

  routeaudit [-f table.yaml | --redis addr | --device host] <verb> [args]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			cli.SetColor(false)
		}
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}

		var err error
		userSettings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}
		if logJSON || userSettings.LogFormat == "json" {
			util.SetJSONFormat()
		}

		if isSettingsOrMeta(cmd) {
			return nil
		}

		if vrfName == "" {
			vrfName = userSettings.VRF
		}

		auditLogger, err := audit.NewFileLogger(userSettings.GetAuditLog(), audit.RotationConfig{
			MaxSize:    userSettings.GetAuditMaxSize(),
			MaxBackups: 10,
		})
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&tableFile, "file", "f", "", "Route table spec file (YAML)")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "CONFIG_DB Redis address (host:port)")
	rootCmd.PersistentFlags().StringVar(&deviceHost, "device", "", "SONiC device reached over SSH")
	rootCmd.PersistentFlags().StringVar(&vrfName, "vrf", "", "VRF to load from CONFIG_DB (default \"default\")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "table", Title: "Table Operations:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{listCmd, lookupCmd, checkCmd, optimizeCmd, serveCmd} {
		cmd.GroupID = "table"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{auditCmd, settingsCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("routeaudit dev build (use 'make build' for version info)")
		} else {
			fmt.Println("routeaudit " + version.Info())
		}
	},
}

func isSettingsOrMeta(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "settings", "version", "help", "completion":
			return true
		}
	}
	return false
}

// loadedTable is a table together with where it came from.
type loadedTable struct {
	table   *routing.Table
	source  string
	skipped []configdb.SkippedRoute
}

func (l *loadedTable) skippedStrings() []string {
	out := make([]string, 0, len(l.skipped))
	for _, s := range l.skipped {
		out = append(out, s.String())
	}
	return out
}

// tableSource resolves the source flags, falling back to settings.
func tableSource() (kind, target string, err error) {
	set := 0
	for _, v := range []string{tableFile, redisAddr, deviceHost} {
		if v != "" {
			set++
		}
	}
	switch {
	case set > 1:
		return "", "", fmt.Errorf("-f, --redis and --device are mutually exclusive")
	case tableFile != "":
		return "file", tableFile, nil
	case redisAddr != "":
		return "redis", redisAddr, nil
	case deviceHost != "":
		return "device", deviceHost, nil
	case userSettings != nil && userSettings.TableFile != "":
		return "file", userSettings.TableFile, nil
	case userSettings != nil && userSettings.RedisAddr != "":
		return "redis", userSettings.RedisAddr, nil
	}
	return "", "", fmt.Errorf("no table: use -f <file>, --redis <addr> or --device <host> (or: routeaudit settings set table_file <file>)")
}

// loadTable reads the selected table.
func loadTable(ctx context.Context) (*loadedTable, error) {
	kind, target, err := tableSource()
	if err != nil {
		return nil, err
	}

	switch kind {
	case "file":
		tbl, err := spec.LoadTable(target)
		if err != nil {
			return nil, err
		}
		return &loadedTable{table: tbl, source: target}, nil

	case "device":
		password := os.Getenv("ROUTEAUDIT_DEVICE_PASSWORD")
		if password == "" {
			password = userSettings.DevicePassword
		}
		tun, err := configdb.NewSSHTunnel(configdb.TunnelConfig{
			Host:     target,
			User:     userSettings.GetDeviceUser(),
			Password: password,
		})
		if err != nil {
			return nil, err
		}
		defer tun.Close()
		return loadFromConfigDB(ctx, tun.LocalAddr(), target)

	default:
		return loadFromConfigDB(ctx, target, target)
	}
}

func loadFromConfigDB(ctx context.Context, addr, name string) (*loadedTable, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := configdb.NewClient(addr)
	defer client.Close()

	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	tbl, skipped, err := client.LoadTable(ctx, name, vrfName)
	if err != nil {
		return nil, err
	}
	return &loadedTable{table: tbl, source: "configdb://" + name, skipped: skipped}, nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
