package main

import (
	"bufio"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// ZERO is written for every quantity xtb does not provide
const ZERO = "0.000000000000"

// WriteTriangle writes the lower triangle of the square matrix m to w
// in blocks of five columns. Block b holds columns 5b through 5b+4 of
// every row from 5b down, each value right-justified in 16 characters.
func WriteTriangle(w io.Writer, m [][]string) {
	dim := len(m)
	for lo := 0; lo < dim; lo += 5 {
		for r := lo; r < dim; r++ {
			for c := lo; c < min(lo+5, dim, r+1); c++ {
				fmt.Fprintf(w, "%16s", m[r][c])
			}
			fmt.Fprint(w, "\n")
		}
	}
}

// WriteOutput writes the response for job to w. Every section is
// present whatever the task, with zeros in place of anything that was
// not computed.
func WriteOutput(w io.Writer, job Job, res Result) error {
	nw := bufio.NewWriter(w)
	dim := 3 * job.NumActive

	geom := job.Atoms
	if job.Task == Micro {
		geom = res.Geom
	}
	fmt.Fprintln(nw, "CURRENT COORDINATE")
	for _, line := range geom[:min(job.NumActive, len(geom))] {
		fmt.Fprintln(nw, line)
	}

	fmt.Fprintf(nw, "ENERGY%24s%24s%24s\n", res.Energy, ZERO, ZERO)
	fmt.Fprintf(nw, "S**2  %24s\n", ZERO)

	fmt.Fprintln(nw, "GRADIENT")
	if job.Task.WantsGradient() {
		for _, row := range res.Gradient {
			for _, g := range row {
				fmt.Fprintf(nw, "  %s\n", g)
			}
		}
	} else {
		for i := 0; i < dim; i++ {
			fmt.Fprintf(nw, "  %s\n", ZERO)
		}
	}

	fmt.Fprintln(nw, "HESSIAN")
	hess := Zeros(dim)
	if job.Task.WantsHessian() {
		hess = res.Hessian
		logAsymmetry(hess)
	}
	WriteTriangle(nw, hess)

	fmt.Fprintln(nw, "DIPOLE DERIVATIVES")
	for i := 0; i < dim; i++ {
		fmt.Fprintf(nw, "%16s%16s%16s\n", ZERO, ZERO, ZERO)
	}

	fmt.Fprintln(nw, "POLARIZABILITY")
	WriteTriangle(nw, Zeros(3))
	return nw.Flush()
}

func logAsymmetry(hess [][]string) {
	if len(hess) == 0 || !logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	m, err := ToDense(hess)
	if err != nil {
		logger.Debug("hessian is not numeric", zap.Error(err))
		return
	}
	logger.Debug("hessian asymmetry", zap.Float64("max", Asymmetry(m)))
}
