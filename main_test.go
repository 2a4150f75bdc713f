package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupJob copies the request fixture name into a fresh directory and
// points the engine configuration at the stand-in xtb. It returns the
// job path and the scratch root.
func setupJob(t *testing.T, name string) (job, scratch string) {
	t.Helper()
	clearEnv(t)
	dir := t.TempDir()
	src, err := os.Open(filepath.Join("testfiles", name+INFILE_SUFFIX))
	require.NoError(t, err)
	defer src.Close()
	job = filepath.Join(dir, "job")
	dst, err := os.Create(job + INFILE_SUFFIX)
	require.NoError(t, err)
	defer dst.Close()
	_, err = io.Copy(dst, src)
	require.NoError(t, err)
	scratch = filepath.Join(dir, "scratch")
	t.Setenv(envCommand, fakeXTB(t))
	t.Setenv(envScratch, scratch)
	return job, scratch
}

func readOutput(t *testing.T, job string) string {
	t.Helper()
	data, err := os.ReadFile(job + OUTFILE_SUFFIX)
	require.NoError(t, err)
	return string(data)
}

func assertNoWorkDir(t *testing.T, scratch string) {
	t.Helper()
	entries, _ := os.ReadDir(scratch)
	assert.Empty(t, entries, "working directories left in %s", scratch)
}

func TestRunEnergy(t *testing.T) {
	job, scratch := setupJob(t, "energy")
	t.Setenv("FAKE_XTB_ENERGY_ONLY", "1")
	require.NoError(t, Run(job))

	got := readOutput(t, job)
	want := "CURRENT COORDINATE\n" +
		"H    0.000000000000    0.000000000000    0.000000000000\n" +
		"H    0.000000000000    0.000000000000    0.740000000000\n" +
		fmt.Sprintf("ENERGY%24s%24s%24s\n", "-5.123456789012", ZERO, ZERO)
	assert.True(t, strings.HasPrefix(got, want), got)
	assert.Contains(t, got, "GRADIENT\n"+strings.Repeat("  "+ZERO+"\n", 6)+"HESSIAN\n")

	z := fmt.Sprintf("%16s", ZERO)
	var hess strings.Builder
	hess.WriteString("HESSIAN\n")
	for _, n := range []int{1, 2, 3, 4, 5, 5, 1} {
		hess.WriteString(strings.Repeat(z, n) + "\n")
	}
	hess.WriteString("DIPOLE DERIVATIVES\n")
	assert.Contains(t, got, hess.String())
	assertNoWorkDir(t, scratch)
}

func TestRunMicro(t *testing.T) {
	job, scratch := setupJob(t, "micro")
	require.NoError(t, Run(job))

	got := readOutput(t, job)
	want := "CURRENT COORDINATE\n" +
		"O     0.000000000000     0.000000000000     0.117300000000\n" +
		"H     0.000000000000     0.757200000000    -0.469200000000\n" +
		"ENERGY"
	assert.True(t, strings.HasPrefix(got, want), got)
	assert.Contains(t, got, "GRADIENT\n"+
		"  1.0D-02\n  1.1D-02\n  1.2D-02\n"+
		"  2.0D-02\n  2.1D-02\n  2.2D-02\n"+
		"HESSIAN\n")
	assertNoWorkDir(t, scratch)
}

func TestRunHessian(t *testing.T) {
	job, _ := setupJob(t, "hessian")
	require.NoError(t, Run(job))

	got := readOutput(t, job)
	want := "HESSIAN\n" +
		fmt.Sprintf("%16s\n%16s%16s\n%16s%16s%16s\n",
			"0.5", "6.5", "7.5", "12.5", "13.5", "14.5") +
		"DIPOLE DERIVATIVES\n"
	assert.Contains(t, got, want)
}

func TestRunKeepLog(t *testing.T) {
	tests := []struct {
		name     string
		fixed    bool
		wantArgs string
	}{
		{"micro", true, "--opt --input constrain.inp --chrg 0 --uhf 0 --grad input.xyz\n"},
		{"energy", false, "--chrg 0 --uhf 0 --grad input.xyz\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			job, scratch := setupJob(t, test.name)
			t.Setenv(envKeepLog, "yes")
			require.NoError(t, Run(job))

			dir := filepath.Join(scratch, fmt.Sprintf("job.%d", os.Getpid()))
			for _, file := range []string{LOG_FILE, XYZ_FILE} {
				assert.FileExists(t, filepath.Join(dir, file))
			}
			if test.fixed {
				assert.FileExists(t, filepath.Join(dir, FIX_FILE))
			} else {
				assert.NoFileExists(t, filepath.Join(dir, FIX_FILE))
			}
			args, err := os.ReadFile(filepath.Join(dir, "args"))
			require.NoError(t, err)
			assert.Equal(t, test.wantArgs, string(args))
		})
	}
}

func TestRunErrors(t *testing.T) {
	t.Run("invalid configuration", func(t *testing.T) {
		job, scratch := setupJob(t, "energy")
		t.Setenv(envSolvent, "water")
		err := Run(job)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.NoDirExists(t, scratch)
		assert.NoFileExists(t, job+OUTFILE_SUFFIX)
	})

	t.Run("guess", func(t *testing.T) {
		job, scratch := setupJob(t, "guess")
		err := Run(job)
		assert.ErrorIs(t, err, ErrUnsupportedTask)
		assert.NoDirExists(t, scratch)
		assert.NoFileExists(t, job+OUTFILE_SUFFIX)
	})

	t.Run("missing request", func(t *testing.T) {
		clearEnv(t)
		err := Run(filepath.Join(t.TempDir(), "job"))
		assert.ErrorIs(t, err, ErrMissingFile)
	})

	t.Run("no results", func(t *testing.T) {
		job, scratch := setupJob(t, "energy")
		t.Setenv(envCommand, "true")
		err := Run(job)
		assert.ErrorIs(t, err, ErrMissingFile)
		assert.NoFileExists(t, job+OUTFILE_SUFFIX)
		dir := filepath.Join(scratch, fmt.Sprintf("job.%d", os.Getpid()))
		assert.FileExists(t, filepath.Join(dir, XYZ_FILE))
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{fmt.Errorf("x: %w", ErrMissingFile), 2},
		{ErrUnsupportedTask, 3},
		{ErrInvalidConfig, 4},
		{ErrMalformedOutput, 5},
		{&ParseError{Err: errors.New("bad")}, 6},
		{errors.New("other"), 1},
	}
	for _, test := range tests {
		if got := exitCode(test.err); got != test.want {
			t.Errorf("%v: got %v, wanted %v\n", test.err, got, test.want)
		}
	}
}
