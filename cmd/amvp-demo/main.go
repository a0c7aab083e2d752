package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/abkarcher/libamvp/pkg/metrics"
	pkgversion "github.com/abkarcher/libamvp/pkg/version"
)

// Build-time variables (set via -ldflags)
var (
	version   = ""        // Set via -ldflags "-X main.version=x.y.z"
	buildTime = "unknown" // Set via -ldflags "-X main.buildTime=..."
	gitCommit = "unknown" // Set via -ldflags "-X main.gitCommit=..."
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "register":
		registerCommand()
	case "process":
		processCommand()
	case "selftest":
		selftestCommand()
	case "version":
		fmt.Printf("amvp-demo version %s\n", getVersion())
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`amvp-demo - AMVP client demo driving a reference crypto module

USAGE:
    amvp-demo <command> [options]

COMMANDS:
    register  Print the registration JSON for the reference module
    process   Process a vector-set JSON file and print the response
    selftest  Run the built-in vector sets through the reference module
    version   Print version information
    help      Show this help message

Run 'amvp-demo <command> --help' for more information on a command.

EXAMPLES:
    # Emit the registration message
    amvp-demo register

    # Process a downloaded vector set
    amvp-demo process --in vectors.json --out response.json

    # Run the built-in vector sets against the reference module
    amvp-demo selftest --log-level debug`)
}

func registerCommand() {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error, silent")
	_ = fs.Parse(os.Args[2:])

	zlog := metrics.NewZapLogger(parseLevel(*logLevel), os.Stderr)
	defer func() { _ = zlog.Sync() }()

	ctx, err := newReferenceModule(nil)
	if err != nil {
		zlog.Fatal("building reference module: " + err.Error())
	}
	defer ctx.Close()

	reg, err := ctx.BuildRegistration()
	if err != nil {
		zlog.Fatal("building registration: " + err.Error())
	}
	fmt.Println(string(reg))
}

func processCommand() {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	in := fs.String("in", "", "Vector-set JSON file (required)")
	out := fs.String("out", "", "Response output file (default stdout)")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error, silent")
	_ = fs.Parse(os.Args[2:])

	zlog := metrics.NewZapLogger(parseLevel(*logLevel), os.Stderr)
	defer func() { _ = zlog.Sync() }()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "process: --in is required")
		fs.Usage()
		os.Exit(1)
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		zlog.Fatal("reading vector set: " + err.Error())
	}

	ctx, err := newReferenceModule(nil)
	if err != nil {
		zlog.Fatal("building reference module: " + err.Error())
	}
	defer ctx.Close()

	resp, err := ctx.ProcessVectorSet(raw)
	if err != nil {
		zlog.Fatal("processing vector set: " + err.Error())
	}

	if *out == "" {
		fmt.Println(string(resp))
		return
	}
	if err := os.WriteFile(*out, resp, 0o644); err != nil {
		zlog.Fatal("writing response: " + err.Error())
	}
	zlog.Info("response written to " + *out)
}

func parseLevel(s string) metrics.Level {
	switch s {
	case "debug":
		return metrics.LevelDebug
	case "info":
		return metrics.LevelInfo
	case "warn":
		return metrics.LevelWarn
	case "error":
		return metrics.LevelError
	default:
		return metrics.LevelSilent
	}
}
