package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/routeaudit/pkg/audit"
	"github.com/newtron-network/routeaudit/pkg/cli"
	"github.com/newtron-network/routeaudit/pkg/routing"
	"github.com/newtron-network/routeaudit/pkg/spec"
)

var (
	optimizeVerify bool
	optimizeJSON   bool
	optimizeSave   string
)

// optimizeReport is the --json form of an optimizer run.
type optimizeReport struct {
	Table  string          `json:"table"`
	Source string          `json:"source"`
	Steps  []routing.Step  `json:"steps"`
	Result []routing.Entry `json:"result"`
	Verify string          `json:"verify,omitempty"`
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Propose a simplified, equivalent table",
	Long: `Run the optimizer on a private copy of the table and print every rewrite.

Rules, in priority order:
  redundant   identical entries collapse to one
  contiguous  sibling subnets on one interface merge into their supernet
  contained   an entry inside a wider one on the same interface is dropped

The source is never modified. Use --save to write the proposal as a spec file
and --verify to check that every address still forwards the same way. --save
always verifies and writes nothing when forwarding would change.

Examples:
  routeaudit -f core.yaml optimize
  routeaudit -f core.yaml optimize --verify --save core-opt.yaml
  routeaudit --device leaf1 optimize --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		lt, err := loadTable(cmd.Context())
		if err != nil {
			return err
		}

		before := lt.table.Entries()
		steps := lt.table.Optimize()
		result := before
		if len(steps) > 0 {
			result = steps[len(steps)-1].Snapshot
		}

		event := audit.NewEvent(currentUser(), lt.table.Name(), audit.OperationOptimize).
			WithSource(lt.source).
			WithSkipped(lt.skippedStrings()).
			WithSteps(len(before), steps)

		var verifyErr error
		if optimizeVerify {
			verifyErr = routing.VerifySteps(before, steps)
			event.WithVerify(verifyErr)
		}

		if optimizeJSON {
			report := optimizeReport{Table: lt.table.Name(), Source: lt.source, Steps: steps, Result: result}
			if optimizeVerify {
				report.Verify = string(event.Verify)
			}
			if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
				return err
			}
		} else {
			printSteps(steps)
			fmt.Printf("\n%s: %d -> %d entries\n", cli.Bold(lt.table.Name()), len(before), len(result))
			if len(steps) > 0 {
				printEntries(result)
			}
			if optimizeVerify {
				if verifyErr != nil {
					fmt.Printf("verify: %s %v\n", red("FAIL"), verifyErr)
				} else {
					fmt.Printf("verify: %s\n", green("forwarding unchanged"))
				}
			}
		}

		if verifyErr == nil && optimizeSave != "" {
			if err := saveProposal(optimizeSave, lt.table.Name(), before, steps); err != nil {
				verifyErr = err
			} else if !optimizeJSON {
				fmt.Printf("saved proposal to %s\n", optimizeSave)
			}
		}

		if verifyErr != nil {
			event.WithError(verifyErr)
		} else {
			event.WithSuccess()
		}
		event.WithDuration(time.Since(start))
		if err := audit.Log(event); err != nil {
			return fmt.Errorf("writing audit log: %w", err)
		}
		return verifyErr
	},
}

// saveProposal writes the optimized table to path. It refuses when the
// steps change forwarding or the result would not load back.
func saveProposal(path, name string, before []routing.Entry, steps []routing.Step) error {
	if err := routing.VerifySteps(before, steps); err != nil {
		return fmt.Errorf("not saving %s: %w", path, err)
	}
	result := before
	if len(steps) > 0 {
		result = steps[len(steps)-1].Snapshot
	}
	if err := spec.FromEntries(name, result).Save(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func printSteps(steps []routing.Step) {
	if len(steps) == 0 {
		fmt.Println("No simplifications found")
		return
	}
	for i, s := range steps {
		affected := make([]string, 0, len(s.Affected))
		for _, a := range s.Affected {
			affected = append(affected, storedPrefix(a))
		}
		fmt.Printf("%3d. %s %s -> %s\n", i+1, stepLabel(s.Kind), strings.Join(affected, " + "), s.Result)
		switch {
		case s.Contiguous != nil:
			fmt.Println(cli.Dim(fmt.Sprintf("       /%d  %s", s.Contiguous.PrefixLength, s.Contiguous.Bits[0])))
			fmt.Println(cli.Dim(fmt.Sprintf("       /%d  %s", s.Contiguous.PrefixLength, s.Contiguous.Bits[1])))
		case s.Contained != nil:
			fmt.Println(cli.Dim(fmt.Sprintf("       outer %s - %s  inner %s - %s",
				s.Contained.Outer.Start, s.Contained.Outer.End, s.Contained.Inner.Start, s.Contained.Inner.End)))
		}
	}
}

func stepLabel(k routing.StepKind) string {
	label := fmt.Sprintf("%-10s", k)
	switch k {
	case routing.StepRedundant:
		return yellow(label)
	case routing.StepContiguous:
		return green(label)
	default:
		return label
	}
}

func init() {
	optimizeCmd.Flags().BoolVar(&optimizeVerify, "verify", false, "Check forwarding equivalence of the proposal")
	optimizeCmd.Flags().BoolVar(&optimizeJSON, "json", false, "JSON output")
	optimizeCmd.Flags().StringVar(&optimizeSave, "save", "", "Write the proposed table to a spec file")
}
