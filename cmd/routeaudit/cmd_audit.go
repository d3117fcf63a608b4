package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/routeaudit/pkg/audit"
	"github.com/newtron-network/routeaudit/pkg/cli"
	"github.com/newtron-network/routeaudit/pkg/routing"
)

var (
	auditTable    string
	auditUser     string
	auditLast     string
	auditLimit    int
	auditFailures bool
	auditJSON     bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View the audit log of check and optimize runs",
	Long: `View the audit log of check and optimize runs.

Each run records the table, its source, the optimizer steps proposed, the
verify outcome and any routes skipped while loading.

Examples:
  routeaudit audit --limit 20
  routeaudit audit --table core-rtr --last 24h
  routeaudit audit --failures`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{
			Table:       auditTable,
			User:        auditUser,
			FailureOnly: auditFailures,
		}
		if auditLast != "" {
			d, err := time.ParseDuration(auditLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", auditLast)
			}
			filter.StartTime = time.Now().Add(-d)
		}

		events, err := audit.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}
		// newest last in the file; show the most recent --limit
		if auditLimit > 0 && len(events) > auditLimit {
			events = events[len(events)-auditLimit:]
		}

		if auditJSON {
			return json.NewEncoder(os.Stdout).Encode(events)
		}
		if len(events) == 0 {
			fmt.Println("No audit events found")
			return nil
		}

		t := cli.NewTable("TIMESTAMP", "USER", "TABLE", "OPERATION", "ENTRIES", "STEPS", "VERIFY", "STATUS")
		for _, e := range events {
			status := green("ok")
			if !e.Success {
				status = red("failed")
			}
			counts := e.StepCounts()
			steps := fmt.Sprintf("%d/%d/%d", counts[routing.StepRedundant], counts[routing.StepContiguous], counts[routing.StepContained])
			verify := string(e.Verify)
			if verify == "" {
				verify = "-"
			}
			t.Row(
				e.Timestamp.Format("2006-01-02 15:04:05"),
				e.User,
				e.Table,
				e.Operation,
				strconv.Itoa(e.EntriesBefore)+"->"+strconv.Itoa(e.EntriesAfter),
				steps,
				verify,
				status,
			)
		}
		t.Flush()
		fmt.Println(cli.Dim("STEPS = redundant/contiguous/contained"))
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditTable, "table", "", "Filter by table name")
	auditCmd.Flags().StringVar(&auditUser, "user", "", "Filter by user")
	auditCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 24h)")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum events to show (most recent)")
	auditCmd.Flags().BoolVar(&auditFailures, "failures", false, "Show only failed runs")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "JSON output")
}
