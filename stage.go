package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FixList returns the xtb atom list to hold fixed for job and whether
// there is anything to fix. A microiteration fixes the host's active
// atoms so only the rest of the region relaxes. Frozen atoms, when
// present, are always fixed. They are assumed to form the contiguous
// range following the NumAtoms region atoms, which is how Stage lays
// them out.
func FixList(job Job) (string, bool) {
	var ranges []string
	if job.Task == Micro && job.NumActive > 0 {
		ranges = append(ranges, AtomRange(1, job.NumActive))
	}
	if job.NumFrozen > 0 {
		ranges = append(ranges,
			AtomRange(job.NumAtoms+1, job.FullAtoms()))
	}
	return strings.Join(ranges, ","), len(ranges) > 0
}

// Stage writes the xtb coordinate file for job into dir, followed by a
// constraint file if FixList has anything to fix. The returned bool
// reports whether the constraint file was written.
func Stage(dir string, job Job) (constrained bool, err error) {
	atoms := make([]string, 0, job.FullAtoms())
	atoms = append(atoms, job.Atoms...)
	atoms = append(atoms, job.Frozen...)
	var buf bytes.Buffer
	if err = WriteXYZ(&buf, XYZ_LABEL, atoms); err != nil {
		return
	}
	err = os.WriteFile(filepath.Join(dir, XYZ_FILE), buf.Bytes(), 0644)
	if err != nil {
		return
	}
	fix, ok := FixList(job)
	if !ok {
		return false, nil
	}
	buf.Reset()
	if err = WriteFix(&buf, fix); err != nil {
		return
	}
	err = os.WriteFile(filepath.Join(dir, FIX_FILE), buf.Bytes(), 0644)
	if err != nil {
		return
	}
	logger.Debug("wrote constraint file", zap.String("atoms", fix))
	return true, nil
}
