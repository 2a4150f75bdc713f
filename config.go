package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	envConfig       = "XTB_CONFIG"
	envCommand      = "XTB_COMMAND"
	envCharge       = "XTB_CHARGE"
	envMultiplicity = "XTB_MULTIPLICITY"
	envSolvation    = "XTB_SOLVATION"
	envSolvent      = "XTB_SOLVENT"
	envGFN          = "XTB_GFN"
	envScratch      = "XTB_SCRATCH"
	envKeepLog      = "XTB_KEEP_LOG"
)

var (
	// implicit solvation models understood by xtb
	SOLVATION_MODELS = map[string]struct{}{
		"gbsa": {},
		"alpb": {},
	}
	// values of XTB_KEEP_LOG that keep the working directory
	TRUTHY = map[string]struct{}{
		"1":    {},
		"t":    {},
		"true": {},
		"y":    {},
		"yes":  {},
		"on":   {},
	}
)

// RawConf is the layout of the optional TOML defaults file named by
// XTB_CONFIG
type RawConf struct {
	Command      string
	Charge       int
	Multiplicity int
	Solvation    string
	Solvent      string
	GFN          string
	Scratch      string
	KeepLog      bool `toml:"keep_log"`
}

// ToConfig converts rc to a Config, turning the multiplicity into the
// number of unpaired electrons
func (rc RawConf) ToConfig() (conf Config, err error) {
	if rc.Multiplicity < 1 {
		err = fmt.Errorf("%w: multiplicity %d < 1",
			ErrInvalidConfig, rc.Multiplicity)
		return
	}
	conf.Command = rc.Command
	conf.Charge = strconv.Itoa(rc.Charge)
	conf.UHF = rc.Multiplicity - 1
	conf.Solvation = strings.ToLower(rc.Solvation)
	conf.Solvent = rc.Solvent
	conf.GFN = rc.GFN
	conf.Scratch = rc.Scratch
	conf.KeepLog = rc.KeepLog
	return
}

// Config holds the xtb settings shared by every step of a run. It is
// resolved once by LoadConfig and not modified afterward.
type Config struct {
	Command   string
	Charge    string
	UHF       int
	Solvation string
	Solvent   string
	GFN       string
	Scratch   string
	KeepLog   bool
}

func getEnv(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

// Truthy reports whether s is one of the accepted true values,
// ignoring case
func Truthy(s string) bool {
	_, ok := TRUTHY[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

func (c *Config) applyEnv() error {
	c.Command = getEnv(envCommand, c.Command)
	c.Charge = getEnv(envCharge, c.Charge)
	if mult := os.Getenv(envMultiplicity); mult != "" {
		m, err := strconv.Atoi(strings.TrimSpace(mult))
		if err != nil || m < 1 {
			return fmt.Errorf("%w: %s=%q is not a multiplicity",
				ErrInvalidConfig, envMultiplicity, mult)
		}
		c.UHF = m - 1
	}
	c.Solvation = strings.ToLower(getEnv(envSolvation, c.Solvation))
	c.Solvent = getEnv(envSolvent, c.Solvent)
	c.GFN = getEnv(envGFN, c.GFN)
	c.Scratch = getEnv(envScratch, c.Scratch)
	if keep := os.Getenv(envKeepLog); keep != "" {
		c.KeepLog = Truthy(keep)
	}
	return nil
}

// Validate checks that the solvation model and solvent are given
// together and that the model is one xtb supports
func (c Config) Validate() error {
	switch {
	case c.Solvation == "" && c.Solvent != "":
		return fmt.Errorf("%w: solvent %q given without %s",
			ErrInvalidConfig, c.Solvent, envSolvation)
	case c.Solvation == "":
		return nil
	case c.Solvent == "":
		return fmt.Errorf("%w: solvation model %q given without %s",
			ErrInvalidConfig, c.Solvation, envSolvent)
	}
	if _, ok := SOLVATION_MODELS[c.Solvation]; !ok {
		return fmt.Errorf("%w: unsupported solvation model %q",
			ErrInvalidConfig, c.Solvation)
	}
	return nil
}

// LoadConfig resolves the engine configuration from the TOML file
// named by XTB_CONFIG, if any, and then the environment. scratch is
// the working directory root used when neither sets one.
func LoadConfig(scratch string) (conf Config, err error) {
	// Defaults
	rc := RawConf{
		Command:      "xtb",
		Multiplicity: 1,
		Scratch:      scratch,
	}
	if file := os.Getenv(envConfig); file != "" {
		if _, err = toml.DecodeFile(file, &rc); err != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			return
		}
	}
	conf, err = rc.ToConfig()
	if err != nil {
		return
	}
	if err = conf.applyEnv(); err != nil {
		return
	}
	return conf, conf.Validate()
}
