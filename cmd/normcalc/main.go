package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := dispatch(ctx, os.Args[1], os.Args[2:], os.Stdout, os.Stderr)
	stop()

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func dispatch(ctx context.Context, command string, args []string, stdout, stderr io.Writer) error {
	switch command {
	case "calc":
		return runCalc(ctx, args, stdout, stderr)
	case "seed":
		return runSeed(ctx, args, stdout, stderr)
	case "eval":
		return runEval(args, stdout, stderr)
	case "catalog":
		return runCatalog(args, stdout, stderr)
	case "config":
		return runConfig(args, stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	usage := `normcalc - derive bills of materials from network topologies

Usage:
  normcalc <command> [options]

Available Commands:
  calc       Calculate a project offline against a catalog file
  seed       Load the stock catalog (or a catalog file) into a database
  eval       Evaluate a norm formula
  catalog    Print the stock catalog
  config     Show the effective config or write a default one
  help       Show this help message

Examples:
  normcalc calc -catalog norms.yaml -project site.yaml -xlsx site-bom.xlsx
  normcalc seed -db ./normcalc.db
  normcalc eval 'ceil(length / step)' length=12.5 step=0.4
  normcalc catalog -format json > norms.json

Use "normcalc <command> -h" for more information about a command.
`
	fmt.Fprint(w, usage)
}
