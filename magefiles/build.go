//go:build mage

// Copyright (c) 2026 The krishi Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for krishi using Mage.
//
// Usage:
//
//	mage build           Compile the krishi binary to bin/
//	mage install         Install krishi to GOPATH/bin
//	mage test:all        Run all tests
//	mage test:race       Run all tests with the race detector
//	mage test:cover      Write coverage to bin/coverage.out
//	mage lint            Run golangci-lint
//	mage clean           Remove build artifacts
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "krishi"
	binaryDir  = "bin"
	cmdDir     = "./cmd/krishi"
	modulePath = "github.com/mesh-intelligence/krishi"
)

// ldflags stamps the version from git, when available, and an optional
// backend URL from KRISHI_BUILD_BACKEND_URL.
func ldflags() string {
	flags := []string{"-s", "-w"}
	if v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil && v != "" {
		flags = append(flags, "-X", modulePath+"/pkg/krishi.Version="+strings.TrimPrefix(v, "v"))
	}
	if u := os.Getenv("KRISHI_BUILD_BACKEND_URL"); u != "" {
		flags = append(flags, "-X", modulePath+"/pkg/krishi.DefaultBackendURL="+u)
	}
	return strings.Join(flags, " ")
}

// Build compiles the krishi binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
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
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
