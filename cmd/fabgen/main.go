// Command fabgen builds a CGRA fabric from a topology file, prints its
// report and exports the configuration address map.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/cgrafab/bitstream"
	"github.com/sarchlab/cgrafab/ctxlog"
	"github.com/sarchlab/cgrafab/fabric"
	"github.com/sarchlab/cgrafab/loader"
	"github.com/sarchlab/cgrafab/report"
	"github.com/sarchlab/cgrafab/topoload"
	"github.com/tebeka/atexit"
)

// ExitError carries the process exit code of a failed run.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

type options struct {
	topology  string
	outDir    string
	logLevel  string
	logFormat string
	check     bool
}

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			atexit.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func parse(args []string, output io.Writer) (options, bool, error) {
	var o options

	fs := flag.NewFlagSet("fabgen", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
fabgen - build a CGRA fabric and its configuration address map.

Usage:
  fabgen [options] [TOPOLOGY]

Arguments:
  TOPOLOGY
    Path to a .yaml, .yml or .hcl topology file.

Options:
`)
		fs.PrintDefaults()
	}

	fs.StringVar(&o.topology, "topology", "", "Path to the topology file.")
	fs.StringVar(&o.outDir, "out", "", "Directory for addrmap.yaml and report.txt. Empty prints the report only.")
	fs.StringVar(&o.logLevel, "log-level", "info", "Logging level: trace, debug, info, warn or error.")
	fs.StringVar(&o.logFormat, "log-format", "text", "Log output format: text or json.")
	fs.BoolVar(&o.check, "check", false, "Shift a test pattern through the configuration chain and verify every tile memory.")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return o, true, nil
		}
		return o, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if o.topology == "" && fs.NArg() > 0 {
		o.topology = fs.Arg(0)
	}

	if o.topology == "" {
		fs.Usage()
		return o, true, nil
	}

	o.logFormat = strings.ToLower(o.logFormat)
	if o.logFormat != "text" && o.logFormat != "json" {
		return o, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	o.logLevel = strings.ToLower(o.logLevel)
	switch o.logLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return o, false, &ExitError{
			Code:    2,
			Message: "invalid log-level: must be 'trace', 'debug', 'info', 'warn' or 'error'",
		}
	}

	return o, false, nil
}

func run(outW io.Writer, args []string) error {
	o, shouldExit, err := parse(args, outW)
	if err != nil || shouldExit {
		return err
	}

	logger := ctxlog.New(o.logLevel, o.logFormat, os.Stderr)
	slog.SetDefault(logger)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	topo, err := topoload.Load(ctx, o.topology)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}

	name := topo.Name
	d, err := fabric.Builder{}.
		WithTopology(topo).
		WithHook(fabric.LogHook{Logger: logger}).
		Build(name)
	if err != nil {
		return &ExitError{Code: 1, Message: fmt.Sprintf("build %s: %v", name, err)}
	}

	var rep bytes.Buffer
	report.Write(&rep, d)
	if _, err := outW.Write(rep.Bytes()); err != nil {
		return err
	}

	if o.outDir != "" {
		if err := writeOutputs(o.outDir, d, rep.Bytes()); err != nil {
			return &ExitError{Code: 1, Message: err.Error()}
		}
		logger.Info("Outputs written", "dir", o.outDir)
	}

	if o.check {
		cycles, err := checkLoad(d, topo.Tech.ConfigBusWidth)
		if err != nil {
			return &ExitError{Code: 1, Message: err.Error()}
		}
		fmt.Fprintf(outW, "\nConfiguration load check passed: %d bits in %d cycles\n",
			d.AddressMap.Width(), cycles)
	}

	return nil
}

func writeOutputs(dir string, d *fabric.Design, rep []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "addrmap.yaml"))
	if err != nil {
		return fmt.Errorf("create address map: %w", err)
	}
	defer f.Close()

	if err := report.WriteAddressMapYAML(f, d); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "report.txt"), rep, 0o644)
}

// checkLoad shifts a patterned image through the configuration chain and
// compares every tile memory with its slice of the image.
func checkLoad(d *fabric.Design, busWidth int) (int, error) {
	img := bitstream.New(d.AddressMap)
	for i := 0; i < img.Width(); i += 3 {
		img.SetBit(i, true)
	}

	segments := make([]loader.Segment, 0, len(d.Tiles))
	for _, pt := range d.Tiles {
		segments = append(segments, loader.Segment{Name: pt.Tile.Path(), Range: pt.Range})
	}

	engine := sim.NewSerialEngine()
	l := loader.Builder{}.
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithBusWidth(busWidth).
		Build("ConfigLoader")

	l.Load(img, segments)
	engine.Run()

	if !l.Done() {
		return 0, fmt.Errorf("configuration load did not finish")
	}

	for _, s := range segments {
		got, _ := l.Memory(s.Name)
		if !bytes.Equal(got, img.Extract(s.Range)) {
			return 0, fmt.Errorf("tile %s: loaded configuration differs from the image", s.Name)
		}
	}

	return l.Cycles(), nil
}
