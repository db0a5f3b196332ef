//go:build mage

// Package main contains Mage build targets for anneal-bench developer tooling.
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "bin/anneal-bench"

// Default target to run when none is specified.
var Default = Build

// Build compiles the anneal-bench binary into bin/.
func Build() error {
	if err := os.MkdirAll(filepath.Dir(binary), 0o755); err != nil {
		return err
	}
	// go-sqlite3 needs cgo.
	return sh.RunWith(map[string]string{"CGO_ENABLED": "1"}, "go", "build", "-o", binary, ".")
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and the tests.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Dev serves the UI against the built-in emulator with live reload of
// templates and config.
func Dev() error {
	mg.Deps(Build)
	env := map[string]string{
		"ANNEAL_BENCH_SERVICE_MODE":     "mock",
		"ANNEAL_BENCH_WEB_TEMPLATE_DIR": "web/templates",
	}
	return sh.RunWithV(env, binary, "--debug")
}

// Emulate serves the solver emulator on 127.0.0.1:8060.
func Emulate() error {
	mg.Deps(Build)
	return sh.RunV(binary, "emulate")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm("bin")
}
