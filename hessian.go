package main

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// ResizeGradient truncates a gradient over all of the atoms given to
// xtb to the first nactive rows. This is only correct because the
// active atoms always come first.
func ResizeGradient(grad [][]string, nactive int) [][]string {
	if len(grad) > nactive {
		return grad[:nactive]
	}
	return grad
}

// ResizeHessian keeps the leading 3nactive x 3nactive block of hess
func ResizeHessian(hess [][]string, nactive int) [][]string {
	dim := 3 * nactive
	if len(hess) <= dim {
		return hess
	}
	ret := make([][]string, dim)
	for i := range ret {
		ret[i] = hess[i][:dim]
	}
	return ret
}

// ToDense parses the tokens of a square matrix, accepting Fortran D
// exponents
func ToDense(m [][]string) (*mat.Dense, error) {
	n := len(m)
	ret := mat.NewDense(n, n, nil)
	for i, row := range m {
		for j, s := range row {
			v, err := parseFloat(s)
			if err != nil {
				return nil, err
			}
			ret.Set(i, j, v)
		}
	}
	return ret, nil
}

// Asymmetry returns max |m_ij - m_ji| over the elements of m
func Asymmetry(m mat.Matrix) float64 {
	var diff mat.Dense
	diff.Sub(m, m.T())
	diff.Apply(func(_, _ int, v float64) float64 {
		return math.Abs(v)
	}, &diff)
	return mat.Max(&diff)
}

// Tokens formats the elements of m the way zero placeholders are
// written in the response
func Tokens(m mat.Matrix) [][]string {
	r, c := m.Dims()
	ret := make([][]string, r)
	for i := range ret {
		ret[i] = make([]string, c)
		for j := range ret[i] {
			ret[i][j] = strconv.FormatFloat(m.At(i, j), 'f', 12, 64)
		}
	}
	return ret
}

func Zeros(n int) [][]string {
	if n == 0 {
		return nil
	}
	return Tokens(mat.NewDense(n, n, nil))
}
