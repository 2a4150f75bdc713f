package main

import (
	"embed"
	"io"
	"text/template"
)

//go:embed *.tmpl
var Templates embed.FS

var TEMPLATES *template.Template

func init() {
	var err error
	TEMPLATES, err = template.ParseFS(Templates, "*.tmpl")
	if err != nil {
		panic(err)
	}
}

type XYZ struct {
	Count int
	Label string
	Atoms []string
}

// WriteXYZ writes the records in atoms to w as an xyz file
func WriteXYZ(w io.Writer, label string, atoms []string) error {
	return TEMPLATES.ExecuteTemplate(w, "xyz.tmpl", XYZ{
		Count: len(atoms),
		Label: label,
		Atoms: atoms,
	})
}

type Fix struct {
	Atoms string
}

// WriteFix writes an xcontrol file fixing the atoms in the xtb atom
// list atoms, such as "1-3,7", to w
func WriteFix(w io.Writer, atoms string) error {
	return TEMPLATES.ExecuteTemplate(w, "xcontrol.tmpl", Fix{
		Atoms: atoms,
	})
}
