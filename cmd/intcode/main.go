// Intcode CLI - the main entry point for running Intcode programs
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/pipeline"
	"github.com/chazu/intcode/pkg/program"
	"github.com/chazu/intcode/runstore"
	"github.com/chazu/intcode/vm"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("intcode")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	inputs := flag.String("in", "", "Comma-separated input values")
	patches := flag.String("patch", "", "Comma-separated memory patches (addr=value,...)")
	amps := flag.String("amps", "", "Comma-separated amplifier phase settings")
	feedback := flag.Bool("feedback", false, "Wire amplifiers as a feedback loop (with -amps)")
	maxThrust := flag.Bool("max", false, "Try every phase ordering and report the best (with -amps)")
	diag := flag.String("diag", "", "Run as a diagnostic with the given system id")
	saveFile := flag.String("save", "", "Write a state snapshot when execution suspends on empty input")
	restoreFile := flag.String("restore", "", "Resume from a state snapshot instead of loading a program")
	manifestDir := flag.String("manifest", "", "Load run configuration from intcode.toml in this directory")
	historyFile := flag.String("history", "", "Record the run in this SQLite database")
	name := flag.String("name", "", "Program name for the run history")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: intcode [options] [program.txt]\n\n")
		fmt.Fprintf(os.Stderr, "Runs an Intcode program from a file, or from stdin when no file is given.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  intcode program.txt                     # Run, print outputs\n")
		fmt.Fprintf(os.Stderr, "  intcode -in 1 program.txt               # Run with input 1\n")
		fmt.Fprintf(os.Stderr, "  intcode -patch 1=12,2=2 program.txt     # Patch memory, then run\n")
		fmt.Fprintf(os.Stderr, "  intcode -diag 5 program.txt             # Diagnostic run, system id 5\n")
		fmt.Fprintf(os.Stderr, "  intcode -amps 4,3,2,1,0 program.txt     # Serial amplifier chain\n")
		fmt.Fprintf(os.Stderr, "  intcode -amps 5,6,7,8,9 -feedback -max program.txt  # Best feedback thrust\n")
		fmt.Fprintf(os.Stderr, "\nSnapshots:\n")
		fmt.Fprintf(os.Stderr, "  intcode -save state.cbor program.txt    # Suspend on empty input queue\n")
		fmt.Fprintf(os.Stderr, "  intcode -restore state.cbor -in 2       # Resume with more input\n")
		fmt.Fprintf(os.Stderr, "\nManifests:\n")
		fmt.Fprintf(os.Stderr, "  intcode -manifest .                     # Run per ./intcode.toml\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	cfg := runConfig{
		inputsSpec:  *inputs,
		patchesSpec: *patches,
		ampsSpec:    *amps,
		feedback:    *feedback,
		maxThrust:   *maxThrust,
		diagSpec:    *diag,
		saveFile:    *saveFile,
		restoreFile: *restoreFile,
		historyFile: *historyFile,
		name:        *name,
	}

	// Manifest values fill in anything the flags left unset
	if *manifestDir != "" {
		if err := cfg.applyManifest(*manifestDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if err := run(&cfg, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runConfig is the merged flag + manifest configuration for one invocation.
type runConfig struct {
	programPath string
	inputsSpec  string
	patchesSpec string
	ampsSpec    string
	feedback    bool
	maxThrust   bool
	diagSpec    string
	saveFile    string
	restoreFile string
	historyFile string
	name        string

	inputs  []int64
	patches []manifest.Patch
	phases  []int64
}

func (c *runConfig) applyManifest(dir string) error {
	m, err := manifest.Load(dir)
	if err != nil {
		return err
	}
	if c.programPath == "" {
		c.programPath = m.ProgramPath()
	}
	if c.inputsSpec == "" {
		c.inputs = m.Run.Inputs
	}
	if c.ampsSpec == "" {
		c.phases = m.Run.Phases
	}
	if !c.feedback {
		c.feedback = m.Run.Feedback
	}
	if c.patchesSpec == "" {
		c.patches = m.Patches
	}
	if c.historyFile == "" {
		c.historyFile = m.HistoryPath()
	}
	if c.name == "" {
		c.name = m.Program.Name
	}
	return nil
}

func run(cfg *runConfig, args []string) error {
	var err error
	if cfg.inputsSpec != "" {
		cfg.inputs, err = parseInt64List(cfg.inputsSpec)
		if err != nil {
			return fmt.Errorf("bad -in value: %w", err)
		}
	}
	if cfg.ampsSpec != "" {
		cfg.phases, err = parseInt64List(cfg.ampsSpec)
		if err != nil {
			return fmt.Errorf("bad -amps value: %w", err)
		}
	}
	if cfg.patchesSpec != "" {
		cfg.patches, err = parsePatches(cfg.patchesSpec)
		if err != nil {
			return fmt.Errorf("bad -patch value: %w", err)
		}
	}

	// Resuming from a snapshot skips program loading entirely
	if cfg.restoreFile != "" {
		return runRestored(cfg)
	}

	image, err := loadImage(cfg, args)
	if err != nil {
		return err
	}
	for _, p := range cfg.patches {
		log.Debugf("patching address %d to %d", p.Address, p.Value)
	}

	switch {
	case len(cfg.phases) > 0:
		return runAmplifiers(cfg, image)
	case cfg.diagSpec != "":
		return runDiagnostic(cfg, image)
	default:
		return runPlain(cfg, image)
	}
}

// loadImage reads the program from the first positional argument, the
// manifest's program path, or stdin, in that order of preference.
func loadImage(cfg *runConfig, args []string) ([]int64, error) {
	path := cfg.programPath
	if len(args) > 0 {
		path = args[0]
	}

	if path == "" {
		log.Info("reading program from stdin")
		return program.Parse(os.Stdin)
	}
	log.Infof("loading program from %s", path)
	return program.LoadFile(path)
}

// runPlain drives a single process to completion, printing each output
// value on its own line.
func runPlain(cfg *runConfig, image []int64) error {
	p := vm.NewProcess(image)
	if err := applyPatches(p, cfg.patches); err != nil {
		return err
	}
	for _, in := range cfg.inputs {
		p.AddInput(in)
	}

	runErr := p.Run()
	for _, out := range p.Outputs() {
		fmt.Println(out)
	}

	switch {
	case errors.Is(runErr, vm.ErrCatchFire):
		if err := recordRun(cfg, image, p.Outputs(), "halted"); err != nil {
			return err
		}
		return nil
	case errors.Is(runErr, vm.ErrNoInput) && cfg.saveFile != "":
		data, err := vm.MarshalSnapshot(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfg.saveFile, data, 0644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		log.Infof("suspended on empty input, snapshot saved to %s", cfg.saveFile)
		if err := recordRun(cfg, image, p.Outputs(), "suspended"); err != nil {
			return err
		}
		return nil
	default:
		if err := recordRun(cfg, image, p.Outputs(), "failed"); err != nil {
			return err
		}
		return runErr
	}
}

// runRestored resumes a snapshotted process, feeding it any new inputs.
func runRestored(cfg *runConfig) error {
	data, err := os.ReadFile(cfg.restoreFile)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	p, err := vm.UnmarshalSnapshot(data)
	if err != nil {
		return err
	}
	log.Infof("resumed from %s at counter %d", cfg.restoreFile, p.Counter())

	already := len(p.Outputs())
	for _, in := range cfg.inputs {
		p.AddInput(in)
	}

	runErr := p.Run()
	for _, out := range p.Outputs()[already:] {
		fmt.Println(out)
	}

	if errors.Is(runErr, vm.ErrNoInput) && cfg.saveFile != "" {
		data, err := vm.MarshalSnapshot(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfg.saveFile, data, 0644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		log.Infof("suspended again, snapshot saved to %s", cfg.saveFile)
		return nil
	}
	if errors.Is(runErr, vm.ErrCatchFire) {
		return nil
	}
	return runErr
}

// runDiagnostic runs the self-test convention: zeros for passing checks,
// then one diagnostic code.
func runDiagnostic(cfg *runConfig, image []int64) error {
	systemID, err := strconv.ParseInt(cfg.diagSpec, 10, 64)
	if err != nil {
		return fmt.Errorf("bad -diag value %q", cfg.diagSpec)
	}

	image, err = patchedImage(image, cfg.patches)
	if err != nil {
		return err
	}
	code, err := pipeline.Diagnostic(image, systemID)
	if err != nil {
		recordRun(cfg, image, nil, "failed")
		return err
	}
	fmt.Println(code)
	return recordRun(cfg, image, []int64{code}, "halted")
}

// runAmplifiers runs the phase settings through an amplifier chain,
// serial or feedback, optionally searching all orderings.
func runAmplifiers(cfg *runConfig, image []int64) error {
	image, err := patchedImage(image, cfg.patches)
	if err != nil {
		return err
	}

	var thrust int64
	switch {
	case cfg.maxThrust:
		thrust, err = pipeline.MaxThrust(image, cfg.phases, cfg.feedback)
	case cfg.feedback:
		thrust, err = pipeline.Feedback(image, cfg.phases)
	default:
		thrust, err = pipeline.Serial(image, cfg.phases)
	}
	if err != nil {
		recordRun(cfg, image, nil, "failed")
		return err
	}
	fmt.Println(thrust)
	return recordRun(cfg, image, []int64{thrust}, "halted")
}

func applyPatches(p *vm.Process, patches []manifest.Patch) error {
	for _, patch := range patches {
		if err := p.Store(patch.Address, patch.Value); err != nil {
			return fmt.Errorf("applying patch %d=%d: %w", patch.Address, patch.Value, err)
		}
	}
	return nil
}

// patchedImage returns a copy of image with the patches applied, for the
// drivers that construct their own processes.
func patchedImage(image []int64, patches []manifest.Patch) ([]int64, error) {
	if len(patches) == 0 {
		return image, nil
	}
	p := vm.NewProcess(image)
	if err := applyPatches(p, patches); err != nil {
		return nil, err
	}
	return p.Memory(), nil
}

func recordRun(cfg *runConfig, image []int64, outputs []int64, status string) error {
	if cfg.historyFile == "" {
		return nil
	}
	store, err := runstore.Open(cfg.historyFile)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(&runstore.Run{
		ImageHash: runstore.HashImage(image),
		Name:      cfg.name,
		Inputs:    cfg.inputs,
		Outputs:   outputs,
		Status:    status,
	})
	if err != nil {
		return err
	}
	log.Debugf("recorded run %d (%s)", id, status)
	return nil
}

// parseInt64List parses a comma-separated list of integers.
func parseInt64List(s string) ([]int64, error) {
	fields := strings.Split(s, ",")
	values := make([]int64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad integer %q", strings.TrimSpace(field))
		}
		values = append(values, v)
	}
	return values, nil
}

// parsePatches parses "addr=value,addr=value" memory patches.
func parsePatches(s string) ([]manifest.Patch, error) {
	var patches []manifest.Patch
	for _, field := range strings.Split(s, ",") {
		addr, value, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			return nil, fmt.Errorf("bad patch %q, want addr=value", field)
		}
		a, err := strconv.ParseInt(addr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad patch address %q", addr)
		}
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad patch value %q", value)
		}
		patches = append(patches, manifest.Patch{Address: a, Value: v})
	}
	return patches, nil
}
