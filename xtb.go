package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Files in the working directory. The inputs are written by Stage and
// the rest are produced by xtb.
const (
	XYZ_FILE    = "input.xyz"
	XYZ_LABEL   = "generated by xtbext"
	FIX_FILE    = "constrain.inp"
	LOG_FILE    = "xtb.log"
	ENERGY_FILE = "energy"
	GRAD_FILE   = "gradient"
	HESS_FILE   = "hessian"
	OPT_FILE    = "xtbopt.xyz"
)

// Result holds the quantities read back from xtb as the text tokens it
// printed. Fields the task did not ask for are nil.
type Result struct {
	Energy   string
	Gradient [][]string
	Hessian  [][]string
	Geom     []string
}

// CheckTask returns ErrUnsupportedTask for tasks xtb cannot run
func CheckTask(t Task) error {
	if t == Guess {
		return fmt.Errorf("%w %q: xtb cannot generate an initial guess",
			ErrUnsupportedTask, t.String())
	}
	return nil
}

// BuildArgs returns the full xtb command line for job, including the
// command itself. constrained reports whether Stage wrote FIX_FILE.
func BuildArgs(job Job, conf Config, constrained bool) ([]string, error) {
	if err := CheckTask(job.Task); err != nil {
		return nil, err
	}
	args := []string{conf.Command}
	if job.Task == Micro {
		args = append(args, "--opt")
	}
	if constrained {
		args = append(args, "--input", FIX_FILE)
	}
	args = append(args,
		"--chrg", conf.Charge,
		"--uhf", strconv.Itoa(conf.UHF),
	)
	if conf.Solvation != "" && conf.Solvent != "" {
		args = append(args, "--"+conf.Solvation, conf.Solvent)
	}
	if conf.GFN != "" {
		args = append(args, "--gfn", conf.GFN)
	}
	switch job.Task {
	case Hessian:
		args = append(args, "--hess", "--grad")
	case Energy, Gradient, Micro:
		args = append(args, "--grad")
	}
	return append(args, XYZ_FILE), nil
}

// RunXTB runs args in dir and waits for it to finish, sending both
// output streams to LOG_FILE. xtb can exit with an error status after
// writing usable results, so a nonzero exit is only logged and the
// result files decide whether the run worked.
func RunXTB(dir string, args []string) error {
	logfile := filepath.Join(dir, LOG_FILE)
	f, err := os.Create(logfile)
	if err != nil {
		return err
	}
	defer f.Close()
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Stdout = f
	cmd.Stderr = f
	logger.Info("running xtb",
		zap.String("cmd", cmd.String()),
		zap.String("dir", dir),
	)
	err = cmd.Run()
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		logger.Warn("xtb exited with nonzero status",
			zap.Int("status", exit.ExitCode()),
			zap.String("log", logfile),
		)
		return nil
	} else if err != nil {
		return fmt.Errorf("running %s: %w", args[0], err)
	}
	return nil
}

func readMarked(filename, marker string) ([]string, error) {
	lines, err := ReadLines(filename)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformedOutput, filename)
	}
	fields := strings.Fields(lines[0])
	if len(fields) == 0 || fields[0] != marker {
		return nil, fmt.Errorf("%w: %s does not start with %s",
			ErrMalformedOutput, filename, marker)
	}
	return lines, nil
}

// ReadEnergy returns the energy from an xtb energy file, which looks
// like
//
//	$energy
//	     1    -5.07036284917     -5.07036284917     -5.07036284917
//	$end
func ReadEnergy(filename string) (string, error) {
	lines, err := readMarked(filename, "$energy")
	if err != nil {
		return "", err
	}
	if len(lines) < 2 {
		return "", fmt.Errorf("%w: no energy in %s",
			ErrMalformedOutput, filename)
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 2 {
		return "", fmt.Errorf("%w: no energy on line 2 of %s",
			ErrMalformedOutput, filename)
	}
	return fields[1], nil
}

// ReadGradient returns the gradient rows for natoms atoms from an xtb
// gradient file. After the $grad and cycle lines come natoms
// coordinate lines and then natoms gradient lines.
func ReadGradient(filename string, natoms int) ([][]string, error) {
	lines, err := readMarked(filename, "$grad")
	if err != nil {
		return nil, err
	}
	start, end := 2+natoms, 2+2*natoms
	if len(lines) < end {
		return nil, fmt.Errorf("%w: %s has %d lines, need %d for %d atoms",
			ErrMalformedOutput, filename, len(lines), end, natoms)
	}
	ret := make([][]string, 0, natoms)
	for i, line := range lines[start:end] {
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: %s line %d has %d fields, want 3",
				ErrMalformedOutput, filename, start+i+1, len(fields))
		}
		ret = append(ret, fields)
	}
	return ret, nil
}

// ReadHessian returns the 3natoms x 3natoms Hessian from an xtb
// hessian file, given row-major between $hessian and $end
func ReadHessian(filename string, natoms int) ([][]string, error) {
	lines, err := readMarked(filename, "$hessian")
	if err != nil {
		return nil, err
	}
	var tokens []string
	for _, line := range lines[1:] {
		if strings.HasPrefix(strings.TrimSpace(line), "$end") {
			break
		}
		tokens = append(tokens, strings.Fields(line)...)
	}
	dim := 3 * natoms
	if len(tokens) != dim*dim {
		return nil, fmt.Errorf("%w: %s has %d values, want %d for %d atoms",
			ErrMalformedOutput, filename, len(tokens), dim*dim, natoms)
	}
	ret := make([][]string, dim)
	for i := range ret {
		ret[i] = tokens[i*dim : (i+1)*dim]
	}
	return ret, nil
}

// ReadGeom returns the coordinate records of an xyz file
func ReadGeom(filename string) ([]string, error) {
	lines, err := ReadLines(filename)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformedOutput, filename)
	}
	count, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: %s does not start with an atom count",
			ErrMalformedOutput, filename)
	}
	if len(lines) < 2+count {
		return nil, fmt.Errorf("%w: %s has %d lines, need %d for %d atoms",
			ErrMalformedOutput, filename, len(lines), 2+count, count)
	}
	return lines[2 : 2+count], nil
}

// ReadResult reads the xtb output files in dir that job.Task calls for
// and trims the derivatives to the host's active atoms
func ReadResult(dir string, job Job) (res Result, err error) {
	full := job.FullAtoms()
	res.Energy, err = ReadEnergy(filepath.Join(dir, ENERGY_FILE))
	if err != nil {
		return
	}
	if job.Task.WantsGradient() {
		res.Gradient, err = ReadGradient(filepath.Join(dir, GRAD_FILE), full)
		if err != nil {
			return
		}
		res.Gradient = ResizeGradient(res.Gradient, job.NumActive)
	}
	if job.Task.WantsHessian() {
		res.Hessian, err = ReadHessian(filepath.Join(dir, HESS_FILE), full)
		if err != nil {
			return
		}
		res.Hessian = ResizeHessian(res.Hessian, job.NumActive)
	}
	if job.Task == Micro {
		res.Geom, err = ReadGeom(filepath.Join(dir, OPT_FILE))
		if err != nil {
			return
		}
	}
	return
}
