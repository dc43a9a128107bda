package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"grimm.is/directroute/cmd"
	"grimm.is/directroute/internal/brand"
	"grimm.is/directroute/internal/i18n"
)

var printer = i18n.NewCLIPrinter()

// commonFlags registers the flags every sub-command accepts.
func commonFlags(fs *flag.FlagSet, opts *cmd.Options) {
	fs.StringVar(&opts.ConfigFile, "config", brand.DefaultConfigPath(), "Configuration file")
	fs.StringVar(&opts.ConfigFile, "c", brand.DefaultConfigPath(), "Configuration file (short)")
	fs.StringVar(&opts.AddressList, "list", "", "Address list file (overrides address_list)")
	fs.StringVar(&opts.AddressList, "l", "", "Address list file (short)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&opts.JSON, "json", false, "Log in JSON")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts cmd.Options

	switch os.Args[1] {
	case "run":
		runFlags := flag.NewFlagSet("run", flag.ExitOnError)
		commonFlags(runFlags, &opts)
		runFlags.BoolVar(&opts.DryRun, "dry-run", false, "Dry run - log route commands without applying")
		runFlags.BoolVar(&opts.DryRun, "n", false, "Dry run (short)")
		runFlags.Parse(os.Args[2:])

		if err := cmd.RunDaemon(ctx, opts); err != nil {
			printer.Fprintf(os.Stderr, "Run failed: %v\n", err)
			os.Exit(1)
		}

	case "once":
		onceFlags := flag.NewFlagSet("once", flag.ExitOnError)
		commonFlags(onceFlags, &opts)
		onceFlags.BoolVar(&opts.DryRun, "dry-run", false, "Dry run - print route commands without applying")
		onceFlags.BoolVar(&opts.DryRun, "n", false, "Dry run (short)")
		onceFlags.Parse(os.Args[2:])

		if err := cmd.RunOnce(ctx, opts); err != nil {
			printer.Fprintf(os.Stderr, "Cycle failed: %v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		commonFlags(checkFlags, &opts)
		verbose := checkFlags.Bool("verbose", false, "Verbose output")
		checkFlags.BoolVar(verbose, "v", false, "Verbose output (short)")
		checkFlags.Parse(os.Args[2:])

		if len(checkFlags.Args()) > 0 {
			opts.ConfigFile = checkFlags.Arg(0)
		}
		if err := cmd.RunCheck(os.Stdout, opts, *verbose); err != nil {
			printer.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case "gateway":
		gwFlags := flag.NewFlagSet("gateway", flag.ExitOnError)
		commonFlags(gwFlags, &opts)
		verbose := gwFlags.Bool("verbose", false, "List every default route")
		gwFlags.BoolVar(verbose, "v", false, "List every default route (short)")
		gwFlags.Parse(os.Args[2:])

		if err := cmd.RunGateway(ctx, opts, *verbose); err != nil {
			printer.Fprintf(os.Stderr, "Gateway lookup failed: %v\n", err)
			os.Exit(1)
		}

	case "status":
		statusFlags := flag.NewFlagSet("status", flag.ExitOnError)
		addr := statusFlags.String("addr", "127.0.0.1:9310", "Daemon metrics listen address")
		statusFlags.StringVar(addr, "a", "127.0.0.1:9310", "Daemon metrics listen address (short)")
		statusFlags.Parse(os.Args[2:])

		if err := cmd.RunStatus(ctx, os.Stdout, *addr); err != nil {
			printer.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}

	case "history":
		histFlags := flag.NewFlagSet("history", flag.ExitOnError)
		commonFlags(histFlags, &opts)
		var h cmd.HistoryOptions
		histFlags.DurationVar(&h.Since, "since", 0, "Only changes newer than this (e.g. 24h)")
		histFlags.StringVar(&h.Destination, "dest", "", "Only changes for this destination")
		histFlags.StringVar(&h.Action, "action", "", "Only this action: add, change, delete")
		histFlags.IntVar(&h.Limit, "limit", 50, "Maximum rows")
		histFlags.Parse(os.Args[2:])

		if err := cmd.RunHistory(ctx, os.Stdout, opts, h); err != nil {
			printer.Fprintf(os.Stderr, "History failed: %v\n", err)
			os.Exit(1)
		}

	case "version", "-version", "--version":
		cmd.RunVersion(os.Stdout)

	case "help", "-h", "--help":
		printUsage()

	default:
		printer.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Commands:
  run       Reconcile routes until interrupted
            Options: --config (-c) <file>, --list (-l) <file>, --dry-run (-n)
  once      Run a single reconciliation cycle and exit
            Options: --config (-c) <file>, --list (-l) <file>, --dry-run (-n)
  check     Validate configuration and address list
            Options: --verbose (-v)
  gateway   Resolve and print the direct gateway
            Options: --verbose (-v)
  status    Show the state of a running daemon
            Options: --addr (-a) <host:port>
  history   Show recorded route changes (requires an audit block)
            Options: --since <duration>, --dest <ip>, --action <op>, --limit <n>
  version   Print version information

Common options:
  --log-level <level>   debug, info, warn, error
  --json                Log in JSON

Examples:
  %s run                           # Reconcile with %s
  %s once --dry-run                # Show what one cycle would change
  %s check -v /etc/%s/%s.hcl
  %s gateway -v
`,
		brand.Name, brand.Description,
		brand.LowerName,
		brand.LowerName, brand.DefaultConfigPath(),
		brand.LowerName,
		brand.LowerName, brand.LowerName, brand.LowerName,
		brand.LowerName)
}
