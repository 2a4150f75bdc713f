package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	INFILE_SUFFIX  = "_INP4GEN"
	OUTFILE_SUFFIX = "_OUT4GEN"
)

// Errors
var (
	ErrMissingFile      = errors.New("missing file")
	ErrUnsupportedTask  = errors.New("unsupported task")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrMalformedOutput  = errors.New("malformed xtb output")
	ErrMalformedRequest = errors.New("malformed request")
)

// Flags
var (
	debug      bool
	cpuprofile string
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "xtbext JOB",
	Short: "Answer an external-program request with xtb",
	Long: `xtbext reads the request JOB_INP4GEN written by the host program,
runs xtb on it in a private working directory and writes the response
JOB_OUT4GEN. Sections xtb does not compute are filled with zeros.

xtb is configured through the environment:
  XTB_CONFIG        TOML file of defaults for the settings below
  XTB_COMMAND       xtb executable (xtb)
  XTB_CHARGE        molecular charge (0)
  XTB_MULTIPLICITY  spin multiplicity (1)
  XTB_SOLVATION     gbsa or alpb, requires XTB_SOLVENT
  XTB_SOLVENT       solvent name, requires XTB_SOLVATION
  XTB_GFN           GFN parameterization
  XTB_SCRATCH       root for working directories (directory of JOB)
  XTB_KEEP_LOG      keep the working directory and xtb.log if true`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if debug {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return err
			}
			defer pprof.StopCPUProfile()
		}
		return Run(args[0])
	},
}

func init() {
	rootCmd.Flags().BoolVar(&debug, "debug", false,
		"toggle debugging information")
	rootCmd.Flags().StringVar(&cpuprofile, "cpu", "",
		"write a CPU profile")
}

// Run answers the request for job, reading job+INFILE_SUFFIX and
// writing job+OUTFILE_SUFFIX. Nothing is written to the response file
// unless every step succeeds.
func Run(job string) error {
	conf, err := LoadConfig(filepath.Dir(job))
	if err != nil {
		return err
	}
	req, err := LoadJob(job + INFILE_SUFFIX)
	if err != nil {
		return err
	}
	logger.Info("loaded request",
		zap.Stringer("task", req.Task),
		zap.Int("active", req.NumActive),
		zap.Int("atoms", req.NumAtoms),
		zap.Int("frozen", req.NumFrozen),
	)
	// unsupported tasks fail before anything is written
	if err := CheckTask(req.Task); err != nil {
		return err
	}
	dir, err := NewWorkDir(conf.Scratch, job)
	if err != nil {
		return err
	}
	res, err := execute(dir, req, conf)
	if err != nil {
		logger.Info("keeping working directory after failure",
			zap.String("dir", dir))
		return err
	}
	var buf bytes.Buffer
	if err := WriteOutput(&buf, req, res); err != nil {
		return err
	}
	if err := os.WriteFile(job+OUTFILE_SUFFIX, buf.Bytes(), 0644); err != nil {
		return err
	}
	Cleanup(dir, conf.KeepLog)
	return nil
}

// execute stages req in dir, runs xtb and reads back its results
func execute(dir string, req Job, conf Config) (res Result, err error) {
	constrained, err := Stage(dir, req)
	if err != nil {
		return
	}
	args, err := BuildArgs(req, conf, constrained)
	if err != nil {
		return
	}
	if err = RunXTB(dir, args); err != nil {
		return
	}
	return ReadResult(dir, req)
}

// exitCode returns the process exit status for err
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrMissingFile):
		return 2
	case errors.Is(err, ErrUnsupportedTask):
		return 3
	case errors.Is(err, ErrInvalidConfig):
		return 4
	case errors.Is(err, ErrMalformedOutput):
		return 5
	case errors.Is(err, ErrMalformedRequest):
		return 6
	}
	return 1
}

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "xtbext: %v\n", err)
		os.Exit(exitCode(err))
	}
}
