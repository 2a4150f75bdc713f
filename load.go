package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Task is the type of calculation requested by the host
type Task int

const (
	Guess Task = iota
	Micro
	Energy
	Gradient
	Hessian
)

func (t Task) String() string {
	return [...]string{
		"GUESS",
		"MICROITERATION",
		"ENERGY",
		"ENERGY AND GRADIENT",
		"ENERGY, GRADIENT, AND HESSIAN",
	}[t]
}

// ParseTask returns the Task whose request phrase is phrase
func ParseTask(phrase string) (Task, bool) {
	phrase = strings.TrimSpace(phrase)
	for t := Guess; t <= Hessian; t++ {
		if t.String() == phrase {
			return t, true
		}
	}
	return Guess, false
}

// WantsGradient reports whether the host expects a computed gradient
// for t
func (t Task) WantsGradient() bool {
	return t == Gradient || t == Hessian || t == Micro
}

func (t Task) WantsHessian() bool {
	return t == Hessian
}

// Job is a parsed host request. Atoms holds the NumAtoms records of
// the host's active region and Frozen the NumFrozen records of the
// frozen atoms. Every array built from a Job lists the Atoms first and
// the Frozen atoms after them, and the resize and constraint code
// depends on that order.
type Job struct {
	Task      Task
	NumActive int
	NumAtoms  int
	Atoms     []string
	NumFrozen int
	Frozen    []string
}

func (j Job) FullAtoms() int {
	return j.NumAtoms + j.NumFrozen
}

// ParseError describes a request line that does not match the
// expected layout
type ParseError struct {
	File  string
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %v", e.File, e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedRequest, e.Err}
}

// field is one entry of the request layout. Line returns the 0-based
// line the field starts on, which can depend on the fields decoded
// before it. Header fields have the form "label: value" and are handed
// to Decode; record fields copy Count lines into Dest.
type field struct {
	Name   string
	Line   func(j *Job) int
	Decode func(j *Job, value string) error
	Count  func(j *Job) int
	Dest   func(j *Job) *[]string
}

func at(line int) func(*Job) int {
	return func(*Job) int { return line }
}

var requestLayout = []field{
	{
		Name:   "task",
		Line:   at(0),
		Decode: decodeTask,
	},
	{
		Name:   "atom count",
		Line:   at(3),
		Decode: decodeAtomCount,
	},
	{
		Name:  "atoms",
		Line:  at(4),
		Count: func(j *Job) int { return j.NumAtoms },
		Dest:  func(j *Job) *[]string { return &j.Atoms },
	},
	{
		Name:   "frozen atom count",
		Line:   func(j *Job) int { return 4 + j.NumAtoms },
		Decode: decodeFrozenCount,
	},
	{
		Name:  "frozen atoms",
		Line:  func(j *Job) int { return 5 + j.NumAtoms },
		Count: func(j *Job) int { return j.NumFrozen },
		Dest:  func(j *Job) *[]string { return &j.Frozen },
	},
}

func decodeTask(j *Job, value string) error {
	t, ok := ParseTask(value)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnsupportedTask, value)
	}
	j.Task = t
	return nil
}

func decodeAtomCount(j *Job, value string) (err error) {
	fields := strings.Split(value, "/")
	if len(fields) != 2 {
		return fmt.Errorf("want \"M / N\", got %q", value)
	}
	if j.NumActive, err = atoi(fields[0]); err != nil {
		return err
	}
	if j.NumAtoms, err = atoi(fields[1]); err != nil {
		return err
	}
	if j.NumActive > j.NumAtoms {
		return fmt.Errorf("%d active atoms exceeds %d atoms",
			j.NumActive, j.NumAtoms)
	}
	return nil
}

func decodeFrozenCount(j *Job, value string) (err error) {
	j.NumFrozen, err = atoi(value)
	return
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}

func headerValue(line string) (string, error) {
	i := strings.Index(line, ":")
	if i < 0 {
		return "", fmt.Errorf("missing ':' in %q", line)
	}
	return strings.TrimSpace(line[i+1:]), nil
}

// NormalizeRecord replaces tabs in a coordinate record with four
// spaces for xtb's xyz reader
func NormalizeRecord(line string) string {
	return strings.ReplaceAll(line, "\t", "    ")
}

// ReadLines returns the lines of filename without their line endings
func ReadLines(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingFile, filename)
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines, scanner.Err()
}

// LoadJob parses the host request in filename according to
// requestLayout
func LoadJob(filename string) (job Job, err error) {
	lines, err := ReadLines(filename)
	if err != nil {
		return
	}
	for _, f := range requestLayout {
		line := f.Line(&job)
		perr := &ParseError{File: filename, Line: line + 1, Field: f.Name}
		if f.Decode != nil {
			if line < 0 || line >= len(lines) {
				perr.Err = fmt.Errorf("file ends after %d lines",
					len(lines))
				return job, perr
			}
			value, err := headerValue(lines[line])
			if err == nil {
				err = f.Decode(&job, value)
			}
			if errors.Is(err, ErrUnsupportedTask) {
				return job, fmt.Errorf("%s: %w", filename, err)
			} else if err != nil {
				perr.Err = err
				return job, perr
			}
			continue
		}
		count := f.Count(&job)
		if count > len(lines)-line {
			perr.Err = fmt.Errorf("want %d records, file ends after %d lines",
				count, len(lines))
			return job, perr
		}
		dest := f.Dest(&job)
		*dest = make([]string, 0, count)
		for _, l := range lines[line : line+count] {
			*dest = append(*dest, NormalizeRecord(l))
		}
	}
	return
}
