// Command plexilrun is an illustrative CLI harness for exercising a
// plan's core kernel behavior against a scripted external interface,
// per spec.md §6. It is not a substitute for the real PLEXIL toolchain
// (XML parsing, adapter loading, and IPC transport are explicitly out
// of scope for the core, see spec.md §1) — it exists so the kernel can
// be driven end to end without a full plan-language front end.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	pcore "github.com/plexil-group/plexil-sub009"
	"github.com/plexil-group/plexil-sub009/checkpoint"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("plexilrun", flag.ContinueOnError)
	planPath := fs.String("p", "", "path to a plan JSON file")
	scriptPath := fs.String("s", "", "path to a script JSON file")
	libName := fs.String("l", "", "library node name (reserved, no library resolution in this harness)")
	libPath := fs.String("L", "", "library search path (reserved)")
	debugPath := fs.String("d", "", "path to a debug-pattern config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	_ = libName
	_ = libPath

	if *planPath == "" {
		fmt.Fprintln(os.Stderr, "plexilrun: -p plan.json is required")
		return 2
	}

	if *debugPath != "" {
		cfg, err := os.ReadFile(*debugPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plexilrun: reading debug config: %v\n", err)
			return 2
		}
		applyDebugConfig(string(cfg))
		defer pcore.SetLogger(nil)
	}

	plan, err := loadPlan(*planPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plexilrun: loading plan: %v\n", err)
		return 2
	}

	var script []scriptEvent
	if *scriptPath != "" {
		script, err = loadScript(*scriptPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plexilrun: loading script: %v\n", err)
			return 2
		}
	}

	harness := newScriptHarness(script)
	driver, err := pcore.NewDriver(plan, pcore.WithDispatcher(harness), pcore.WithMetrics(true))
	if err != nil {
		fmt.Fprintf(os.Stderr, "plexilrun: building driver: %v\n", err)
		return 2
	}
	var iface pcore.ExternalInterface = driver
	iface = checkpoint.NewRecorder(iface, os.Stdout)
	harness.iface = iface

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for !allFinished(plan) {
		if _, err := driver.Step(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "plexilrun: step failed: %v\n", err)
			return 1
		}
		harness.deliverDue()
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "plexilrun: plan did not finish before deadline")
			return 1
		default:
		}
	}

	for _, n := range plan {
		if n.Outcome() == pcore.OutcomeFailure {
			return 1
		}
	}
	return 0
}

func allFinished(roots []*pcore.Node) bool {
	for _, n := range roots {
		if n.State() != pcore.StateFinished {
			return false
		}
	}
	return true
}

// applyDebugConfig reads one glob channel pattern per line (blank lines
// and lines starting with "#" are ignored) and installs a logger that
// emits DEBUG-level messages only for channels matching an enabled
// pattern, per spec.md §6's -d flag and the debug-pattern facility of
// SPEC_FULL.md component M.
func applyDebugConfig(config string) {
	filter := pcore.NewDebugFilter()
	scanner := bufio.NewScanner(strings.NewReader(config))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		filter.Enable(line)
	}
	pcore.SetLogger(pcore.NewFilteringLogger(pcore.NewDefaultLogger(os.Stderr, pcore.LogDebug), filter))
}

type planFile struct {
	Nodes []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"nodes"`
}

func loadPlan(path string) ([]*pcore.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf planFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, err
	}
	nodes := make([]*pcore.Node, 0, len(pf.Nodes))
	for _, n := range pf.Nodes {
		nodes = append(nodes, pcore.NewNode(n.ID, parseNodeType(n.Type)))
	}
	return nodes, nil
}

func parseNodeType(s string) pcore.NodeType {
	switch s {
	case "Assignment":
		return pcore.AssignmentNode
	case "Command":
		return pcore.CommandNode
	case "Update":
		return pcore.UpdateNode
	case "NodeList":
		return pcore.ListNode
	case "LibraryCall":
		return pcore.LibraryCallNode
	default:
		return pcore.EmptyNode
	}
}

type scriptEvent struct {
	AfterCycle uint64 `json:"afterCycle"`
	State      string `json:"state"`
	Value      string `json:"value"`
}

func loadScript(path string) ([]scriptEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var events []scriptEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	return events, nil
}
