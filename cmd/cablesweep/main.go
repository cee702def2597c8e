package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	"cablesweep/internal/browse"
	"cablesweep/internal/bundle"
	"cablesweep/internal/export"
	"cablesweep/internal/logger"
	"cablesweep/internal/render"
	"cablesweep/internal/settings"
	"cablesweep/internal/sweep"
	"cablesweep/internal/watch"
)

// Output streams, swapped by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

const commonHelp = `
Flags common to every command:
  --config <file>      settings file (default <report dir>/.cablesweep/settings.yaml)
  --log-level <level>  debug, info, warn or error (overrides log.level)
`

var commands = []command{
	{
		name:  "summary",
		short: "Print one line per cable",
		usage: "cablesweep summary <Report.xml> [--watch]",
		long: `Reconcile the report and print the device header followed by one line
per cable tag: completion time, DTF marker length, worst VSWR and worst
return loss. Cables are sorted by tag and values rounded to two places
unless the display settings say otherwise.

With --watch the summary is printed again each time the report or one of
its CSV assets changes, until interrupted.
`,
		run: runSummary,
	},
	{
		name:  "export",
		short: "Write the reconciled report as YAML, markdown or a note vault",
		usage: "cablesweep export <Report.xml> [--format yaml|markdown|vault] [--out <path>]",
		long: `Reconcile the report and write it in the chosen format. YAML carries
every parsed field unrounded; markdown is a note with YAML frontmatter.
Writes to stdout unless --out is given.

The vault format writes a directory (--out is required) holding index.md
and one linked note per cable under cables/.
`,
		run: runExport,
	},
	{
		name:  "chart",
		short: "Draw a PNG bar chart of one metric per cable",
		usage: "cablesweep chart <Report.xml> --out <file.png> [--metric vswr|rl|length]",
		long: `Reconcile the report and draw one bar per cable. Cables missing the
measurement behind the metric are left out.
`,
		run: runChart,
	},
	{
		name:  "browse",
		short: "Browse cables interactively",
		usage: "cablesweep browse <Report.xml>",
		long: `Reconcile the report and open a table of cables. Use the arrow keys to
move, enter to show states and results for the selected cable, q to quit.
`,
		run: runBrowse,
	},
	{
		name:  "check",
		short: "Reconcile only and report problems",
		usage: "cablesweep check <Report.xml>",
		long: `Reconcile the report without rendering it. Prints the number of cables
and any warnings; exits non-zero if the report cannot be reconciled.
`,
		run: runCheck,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "cablesweep: cable sweep report reconciliation\n\n")
	fmt.Fprintf(w, "Usage:\n  cablesweep <command> <Report.xml> [flags]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'cablesweep help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s%s", cmd.usage, cmd.long, commonHelp)
			return
		}
	}
	fmt.Fprintf(w, "cablesweep: unknown command %q\n\nRun 'cablesweep help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(stdout, args[1])
		} else {
			printUsage(stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'cablesweep help' for usage.", args[0])
}

// ---------------------------------------------------------------------------
// Shared flags and loading
// ---------------------------------------------------------------------------

type commonFlags struct {
	config   string
	logLevel string
}

func newFlagSet(name string, c *commonFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.config, "config", "", "settings file")
	fs.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	return fs
}

// parseArgs parses flags and returns the single report path.
func parseArgs(fs *pflag.FlagSet, usage string, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return "", fmt.Errorf("usage: %s", usage)
		}
		return "", fmt.Errorf("%w\nusage: %s", err, usage)
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return fs.Arg(0), nil
}

// loadSettings prefers an explicit --config path over the report directory.
func loadSettings(reportDir, explicit string) (*settings.Settings, error) {
	if explicit != "" {
		return settings.Load(explicit)
	}
	return settings.LoadSettings(reportDir)
}

// reconcile loads the report at path and returns a view ready to render.
func reconcile(path string, c commonFlags) (render.View, error) {
	b, dir, err := bundle.Load(path)
	if err != nil {
		return render.View{}, err
	}
	s, err := loadSettings(dir, c.config)
	if err != nil {
		return render.View{}, err
	}

	level := s.LogLevel()
	if c.logLevel != "" {
		if level, err = settings.ParseLevel(c.logLevel); err != nil {
			return render.View{}, fmt.Errorf("--log-level: %w", err)
		}
	}
	logger.SetLevel(level)
	lg := logger.New(stderr).With("report", path)

	opts := append(s.EngineOptions(), sweep.WithLogger(lg))
	rep, warnings, err := sweep.NewEngine(dir, opts...).Reconcile(b)
	if err != nil {
		return render.View{}, fmt.Errorf("reconcile %s: %w", path, err)
	}
	return render.View{Report: rep, Warnings: warnings, Options: render.OptionsFrom(s)}, nil
}

// writeOutput runs fn against stdout, or against a new file at out.
func writeOutput(out string, fn func(io.Writer) error) error {
	if out == "" {
		return fn(stdout)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out, err)
	}
	fmt.Fprintf(stderr, "wrote %s\n", out)
	return nil
}

// ---------------------------------------------------------------------------
// summary
// ---------------------------------------------------------------------------

func runSummary(args []string) error {
	var (
		c      commonFlags
		follow bool
	)
	fs := newFlagSet("summary", &c)
	fs.BoolVarP(&follow, "watch", "w", false, "print again whenever the report or its CSV assets change")
	path, err := parseArgs(fs, "cablesweep summary <Report.xml> [--watch]", args)
	if err != nil {
		return err
	}
	show := func() error {
		v, err := reconcile(path, c)
		if err != nil {
			return err
		}
		return render.Summary{}.Render(stdout, v)
	}
	if !follow {
		return show()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	w := watch.New(path, watch.WithLogger(logger.New(stderr)))
	return w.Run(ctx, func() error {
		fmt.Fprintf(stdout, "\n== %s ==\n", time.Now().Format(time.TimeOnly))
		return show()
	})
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func runExport(args []string) error {
	var (
		c           commonFlags
		format, out string
	)
	fs := newFlagSet("export", &c)
	fs.StringVar(&format, "format", "yaml", "yaml, markdown or vault")
	fs.StringVar(&out, "out", "", "output file or vault directory (default stdout)")
	path, err := parseArgs(fs, "cablesweep export <Report.xml> [--format yaml|markdown|vault] [--out <path>]", args)
	if err != nil {
		return err
	}
	if format == "vault" {
		return runExportVault(path, out, c)
	}
	r, err := render.Lookup(format)
	if err != nil {
		return err
	}
	if r.Name() == "chart" && out == "" {
		return fmt.Errorf("format chart needs --out")
	}
	v, err := reconcile(path, c)
	if err != nil {
		return err
	}
	return writeOutput(out, func(w io.Writer) error { return r.Render(w, v) })
}

func runExportVault(path, out string, c commonFlags) error {
	if out == "" {
		return fmt.Errorf("format vault needs --out <dir>")
	}
	v, err := reconcile(path, c)
	if err != nil {
		return err
	}
	vault, err := export.GenerateVault(v)
	if err != nil {
		return err
	}
	if err := export.WriteVault(vault, out); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "wrote %d notes to %s\n", len(vault.Paths()), out)
	return nil
}

// ---------------------------------------------------------------------------
// chart
// ---------------------------------------------------------------------------

func runChart(args []string) error {
	var (
		c           commonFlags
		out, metric string
	)
	fs := newFlagSet("chart", &c)
	fs.StringVar(&out, "out", "", "PNG file to write")
	fs.StringVar(&metric, "metric", "vswr", "vswr, rl or length")
	usage := "cablesweep chart <Report.xml> --out <file.png> [--metric vswr|rl|length]"
	path, err := parseArgs(fs, usage, args)
	if err != nil {
		return err
	}
	if out == "" {
		return fmt.Errorf("--out is required\nusage: %s", usage)
	}
	m, err := render.ParseMetric(metric)
	if err != nil {
		return err
	}
	v, err := reconcile(path, c)
	if err != nil {
		return err
	}
	return writeOutput(out, func(w io.Writer) error { return render.Chart{Metric: m}.Render(w, v) })
}

// ---------------------------------------------------------------------------
// browse
// ---------------------------------------------------------------------------

func runBrowse(args []string) error {
	var c commonFlags
	fs := newFlagSet("browse", &c)
	path, err := parseArgs(fs, "cablesweep browse <Report.xml>", args)
	if err != nil {
		return err
	}
	v, err := reconcile(path, c)
	if err != nil {
		return err
	}
	return browse.Run(v)
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

func runCheck(args []string) error {
	var c commonFlags
	fs := newFlagSet("check", &c)
	path, err := parseArgs(fs, "cablesweep check <Report.xml>", args)
	if err != nil {
		return err
	}
	v, err := reconcile(path, c)
	if err != nil {
		return err
	}
	var sides int
	for _, r := range v.Report.Reports {
		if r.DTF != nil {
			sides++
		}
		if r.RL != nil {
			sides++
		}
	}
	fmt.Fprintf(stdout, "ok: %d devices, %d cables, %d measurements, %d warnings\n",
		len(v.Report.Devices), len(v.Report.Reports), sides, len(v.Warnings))
	for _, w := range v.Warnings {
		fmt.Fprintf(stdout, "warning: %s\n", w)
	}
	return nil
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
