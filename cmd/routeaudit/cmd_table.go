package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/routeaudit/pkg/audit"
	"github.com/newtron-network/routeaudit/pkg/cli"
	"github.com/newtron-network/routeaudit/pkg/ipaddr"
	"github.com/newtron-network/routeaudit/pkg/routing"
	"github.com/newtron-network/routeaudit/pkg/util"
)

var jsonOutput bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List table entries in insertion order",
	RunE: func(cmd *cobra.Command, args []string) error {
		lt, err := loadTable(cmd.Context())
		if err != nil {
			return err
		}
		entries := lt.table.Entries()

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No routes")
			return nil
		}
		printEntries(entries)
		return nil
	},
}

func printEntries(entries []routing.Entry) {
	writeEntries(os.Stdout, entries)
}

func writeEntries(w io.Writer, entries []routing.Entry) {
	t := cli.NewTableTo(w, "#", "PREFIX", "MASK", "IFACE", "NEXT HOP")
	for i, e := range entries {
		t.Row(strconv.Itoa(i), storedPrefix(e), e.Mask.String(), strconv.Itoa(e.Interface), e.NextHop.String())
	}
	t.Flush()
}

// storedPrefix renders the destination as entered, the way Entry.String
// does, rather than masked.
func storedPrefix(e routing.Entry) string {
	return fmt.Sprintf("%s/%d", e.Destination, e.Mask.PrefixLength())
}

// lookupResult is one resolved (or failed) destination.
type lookupResult struct {
	Destination string         `json:"destination"`
	Interface   int            `json:"interface"`
	Route       *routing.Entry `json:"route,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func resolve(tbl *routing.Table, dest string) (lookupResult, error) {
	res := lookupResult{Destination: dest, Interface: -1}
	addr, err := ipaddr.ParseAddr(dest)
	if err == nil {
		var e routing.Entry
		if e, err = tbl.Resolve(addr); err == nil {
			res.Interface = e.Interface
			res.Route = &e
			return res, nil
		}
	}
	res.Error = err.Error()
	return res, err
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <address>...",
	Short: "Resolve output interfaces by longest-prefix match",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lt, err := loadTable(cmd.Context())
		if err != nil {
			return err
		}

		results := make([]lookupResult, 0, len(args))
		failed := 0
		for _, a := range args {
			r, err := resolve(lt.table, a)
			if err != nil {
				failed++
			}
			results = append(results, r)
		}

		if jsonOutput {
			if err := json.NewEncoder(os.Stdout).Encode(results); err != nil {
				return err
			}
		} else {
			t := cli.NewTable("DESTINATION", "IFACE", "VIA", "ROUTE")
			for _, r := range results {
				if r.Error != "" {
					t.Row(r.Destination, "-", "-", red(r.Error))
					continue
				}
				t.Row(r.Destination, strconv.Itoa(r.Interface), r.Route.NextHop.String(), storedPrefix(*r.Route))
			}
			t.Flush()
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d lookups failed", failed, len(args))
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and validate the table",
	Long: `Load the table and report routes that were rejected or could not be
represented. Exits non-zero if anything was skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		kind, target, err := tableSource()
		if err != nil {
			return err
		}
		name := kind + ":" + target

		lt, err := loadTable(cmd.Context())
		if err != nil {
			fmt.Printf("%s %s\n", cli.DotPad(name, 50), cli.Status(false))
			event := audit.NewEvent(currentUser(), target, audit.OperationCheck).
				WithSource(target).
				WithError(err).
				WithDuration(time.Since(start))
			if aerr := audit.Log(event); aerr != nil {
				util.Warnf("writing audit log: %v", aerr)
			}
			return err
		}

		ok := len(lt.skipped) == 0
		fmt.Printf("%s %s\n", cli.DotPad(name, 50), cli.Status(ok))
		fmt.Printf("  %d routes loaded\n", lt.table.Len())
		for _, s := range lt.skipped {
			fmt.Printf("  %s %s\n", yellow("skipped"), s)
		}

		event := audit.NewEvent(currentUser(), lt.table.Name(), audit.OperationCheck).
			WithSource(lt.source).
			WithSkipped(lt.skippedStrings()).
			WithSteps(lt.table.Len(), nil).
			WithDuration(time.Since(start))
		if ok {
			event.WithSuccess()
		} else {
			event.WithError(fmt.Errorf("%d routes skipped", len(lt.skipped)))
		}
		if err := audit.Log(event); err != nil {
			return fmt.Errorf("writing audit log: %w", err)
		}

		if !ok {
			return fmt.Errorf("%d routes skipped", len(lt.skipped))
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{listCmd, lookupCmd} {
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "JSON output")
	}
}
