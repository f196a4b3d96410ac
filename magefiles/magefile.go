//go:build mage

// Package main provides build targets for the strata project using Mage.
//
// Usage:
//
//	mage build     Compile the strata binary to bin/
//	mage test      Run all tests with the race detector
//	mage cover     Run all tests and write coverage.out
//	mage lint      Run go vet and golangci-lint
//	mage sample    Generate the reference bronze extract into data/bronze
//	mage pipeline  Build, then run the pipeline over data/
//	mage clean     Remove build artifacts
//	mage install   Install strata to GOPATH/bin
//	mage stats     Print Go lines of code
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "strata"
	binaryDir  = "bin"
	cmdDir     = "./cmd/strata"
	dataDir    = "data"
	coverFile  = "coverage.out"
)

func binary() string {
	return filepath.Join(binaryDir, binaryName)
}

// Build compiles the strata binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", binary(), cmdDir)
}

// Test runs all tests with the race detector.
func Test() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover runs all tests and writes a coverage profile.
func Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile="+coverFile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+coverFile)
}

// Lint runs go vet and golangci-lint.
func Lint() error {
	if err := sh.RunV(binGo, "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Sample writes the reference synthetic bronze extract into data/bronze.
func Sample() error {
	mg.Deps(Build)
	return sh.RunV(binary(), "--data-dir", dataDir, "generate")
}

// Pipeline runs strata over data/, generating the sample extract first if
// data/bronze is missing.
func Pipeline() error {
	mg.Deps(Build)
	if _, err := os.Stat(filepath.Join(dataDir, "bronze")); os.IsNotExist(err) {
		mg.Deps(Sample)
	}
	return sh.RunV(binary(), "--data-dir", dataDir, "run")
}

// Clean removes build artifacts.
func Clean() error {
	for _, p := range []string{binaryDir, coverFile} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(gopath, "bin", binaryName), binary())
}

// Stats prints Go lines of code, split into production and test code.
func Stats() error {
	var prodLines, testLines int
	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch path {
			case "vendor", ".git", binaryDir, dataDir, "magefiles":
				return filepath.SkipDir
			}
			if strings.HasPrefix(filepath.Base(path), "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		count, err := countLines(path)
		if err != nil {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") {
			testLines += count
		} else {
			prodLines += count
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Lines of code (Go, total):      %d\n", prodLines+testLines)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
