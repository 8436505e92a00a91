//go:build e2e && unix

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// TestMain compiles the TUI once into the e2e directory and removes the
// binary after the run.
func TestMain(m *testing.M) {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "getwd: %v\n", err)
		os.Exit(1)
	}
	binPath = filepath.Join(dir, "courier_e2e")

	build := exec.Command("go", "build", "-o", binPath, ".")
	build.Dir = ".."
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "building courier: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = os.Remove(binPath)
	os.Exit(code)
}
