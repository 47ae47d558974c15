// Command molscan sweeps the buried-volume calculator over a range of sphere
// radii and renders the results.
//
// Usage:
//
//	molscan scan    -xyz mol.xyz -center 1 -z-axis 2 -xz-plane 3 -range 3:5:40
//	molscan single  -xyz mol.xyz -center 1 -z-axis 2 -xz-plane 3 -r 3.5
//	molscan cavity  -xyz mol.xyz -center 1 -z-axis 2 -xz-plane 3 -r 3.5
//	molscan history [-show <scan id>]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/molecule-scanner/internal/version"
)

const usage = `usage: molscan <command> [flags]

commands:
  scan      run the calculator over a radius range and write CSV, plots and HTML
  single    run one radius and print total, quadrant and octant results
  cavity    run one radius and render the top and bottom cavity surfaces
  history   list stored scans, or print one as CSV with -show
  version   print build information

Run "molscan <command> -h" for the flags of a command.
`

func main() {
	log.SetFlags(log.LstdFlags)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("molscan %s: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, command string, args []string, stdout io.Writer) error {
	switch command {
	case "scan":
		return runScan(ctx, args, stdout)
	case "single":
		return runSingle(ctx, args, stdout)
	case "cavity":
		return runCavity(ctx, args, stdout)
	case "history":
		return runHistory(args, stdout)
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, version.String("molscan"))
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}
