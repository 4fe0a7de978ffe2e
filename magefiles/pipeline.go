//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// runCLI builds the binary and runs it with args, inheriting stdio.
func runCLI(args ...string) error {
	mg.Deps(Build)
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", binName, args, err)
	}
	return nil
}

// Status shows collection progress and the operations that can run next.
func Status() error {
	return runCLI("status")
}

// Quality evaluates metadata quality across the collection.
func Quality() error {
	return runCLI("quality")
}

// Prescreen applies the scope rules declared in settings.
func Prescreen() error {
	return runCLI("prescreen")
}

// Dedupe reports likely duplicate record pairs.
func Dedupe() error {
	return runCLI("dedupe")
}

// Check runs the consistency battery over the collection.
func Check() error {
	return runCLI("check")
}

// Snapshot checks the collection and saves a snapshot.
func Snapshot() error {
	return runCLI("snapshot", "save")
}
