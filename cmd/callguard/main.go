package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/acartag7/callguard/pkg/audit"
	"github.com/acartag7/callguard/pkg/config"
	"github.com/acartag7/callguard/pkg/envelope"
	"github.com/acartag7/callguard/pkg/guard"
	"github.com/acartag7/callguard/pkg/policy"
	"github.com/acartag7/callguard/pkg/session"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing; main() just wires it to the real
// process args and streams.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stdout)
		return 0
	}

	switch args[1] {
	case "validate":
		return runValidateCmd(args[2:], stdout, stderr)
	case "demo":
		return runDemoCmd(args[2:], stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, "callguard v0.1.0")
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[1])
		printUsage(stderr)
		return 2
	}
}

const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorBlue  = "\033[34m"
	colorGray  = "\033[90m"
	colorCyan  = "\033[36m"
	colorGreen = "\033[32m"
)

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "%sCallGuard%s\n", colorBold+colorBlue, colorReset)
	fmt.Fprintf(w, "%sAgents propose. The guard disposes.%s\n", colorGray, colorReset)
	fmt.Fprintf(w, "\n%sUSAGE:%s\n  callguard <command> [flags]\n\n", colorBold, colorReset)
	printSection(w, "COMMANDS")
	printCommand(w, "validate", "Validate a policy bundle (--bundle)")
	printCommand(w, "demo", "Run a scripted call through a guard (--bundle, --mode)")
	printCommand(w, "version", "Show version information")
	printCommand(w, "help", "Show this help")
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "%s%s:%s\n", colorBold+colorCyan, title, colorReset)
}

func printCommand(w io.Writer, name, desc string) {
	fmt.Fprintf(w, "  %s%-10s%s %s\n", colorGreen, name, colorReset, desc)
}

func runValidateCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	bundlePath := fs.String("bundle", "", "path to the policy bundle YAML file")
	asJSON := fs.Bool("json", false, "emit machine-readable JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *bundlePath == "" {
		fmt.Fprintln(stderr, "validate: --bundle is required")
		return 2
	}

	cb, err := policy.LoadBundleFile(*bundlePath)
	if err != nil {
		if *asJSON {
			json.NewEncoder(stdout).Encode(map[string]string{"status": "invalid", "error": err.Error()})
		} else {
			fmt.Fprintf(stderr, "invalid bundle: %v\n", err)
		}
		return 1
	}

	if *asJSON {
		json.NewEncoder(stdout).Encode(map[string]any{
			"status":         "valid",
			"policy_version": cb.Hash,
			"contracts":      len(cb.Bundle.Contracts),
		})
	} else {
		fmt.Fprintf(stdout, "%svalid%s bundle, policy_version=%s, %d contracts\n", colorGreen, colorReset, cb.Hash, len(cb.Bundle.Contracts))
	}
	return 0
}

func runDemoCmd(args []string, stdout, stderr io.Writer) int {
	defaults := config.Load()

	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	bundlePath := fs.String("bundle", defaults.BundlePath, "path to the policy bundle YAML file")
	mode := fs.String("mode", defaults.Mode, "enforce or observe")
	toolName := fs.String("tool", "Bash", "tool name to simulate")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts := []guard.Option{}
	if *mode == "observe" {
		opts = append(opts, guard.WithMode(guard.ModeObserve))
	}
	if defaults.AuditSinkURL != "" {
		opts = append(opts, guard.WithSink(audit.MultiSink{
			Sinks: []audit.Sink{audit.NewStdoutSink(), audit.NewWebhookSink(defaults.AuditSinkURL, nil)},
		}))
	}

	var g *guard.Guard
	var err error
	if *bundlePath != "" {
		g, err = guard.FromYAML(*bundlePath, opts...)
	} else {
		g = guard.New(opts...)
	}
	if err != nil {
		fmt.Fprintf(stderr, "demo: %v\n", err)
		return 1
	}

	s := session.New("demo-session")
	e := g.NewEnvelope(*toolName, map[string]any{"command": "echo hello"}, "demo-call", time.Now(), s.ID(), "dev", envelope.Principal{ID: "demo-agent"})

	out, err := g.Run(context.Background(), s, e, func(ctx context.Context, e envelope.Envelope) (string, error) {
		return "hello", nil
	})
	if err != nil {
		slog.Error("demo call blocked", "error", err)
		fmt.Fprintf(stderr, "blocked: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "executed: %s\n", out)
	return 0
}
