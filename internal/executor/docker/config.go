package docker

import (
	"time"
)

// Runtime describes how one language runs inside the sandbox.
type Runtime struct {
	// Image is the Docker image the pool pre-warms for this language.
	Image string
	// Version is reported back in the execution result.
	Version string
	// File is the entry file name written under /tmp.
	File string
	// Command is the shell command that compiles and/or runs File, with /tmp
	// as the working directory.
	Command string
	// MemoryLimit overrides Config.MemoryLimit when non-zero (compilers need more).
	MemoryLimit int64
}

// Config holds the configuration for Docker execution.
type Config struct {
	// Runtimes maps a Piston language name ("python", "cpp") to its sandbox.
	Runtimes map[string]Runtime
	// MemoryLimit is the default memory cap per container (in bytes).
	MemoryLimit int64
	// CPULimit is the number of CPUs the container can use.
	CPULimit float64
	// Timeout is the maximum amount of time the execution can take.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers kept per runtime.
	PoolSize int
}

// DefaultConfig provides sandboxes for the interpreted languages plus Go and C++.
func DefaultConfig() Config {
	return Config{
		Runtimes: map[string]Runtime{
			"python": {
				Image:   "python:3.12-alpine",
				Version: "3.12",
				File:    "main.py",
				Command: "python3 main.py",
			},
			"javascript": {
				Image:   "node:20-alpine",
				Version: "20",
				File:    "main.js",
				Command: "node main.js",
			},
			"go": {
				Image:       "golang:1.22-alpine",
				Version:     "1.22",
				File:        "main.go",
				Command:     "HOME=/tmp GOCACHE=/tmp/.cache GOFLAGS=-mod=mod go run main.go",
				MemoryLimit: 512 * 1024 * 1024,
			},
			"cpp": {
				Image:       "gcc:13",
				Version:     "13",
				File:        "main.cpp",
				Command:     "g++ -O2 -o main main.cpp && ./main",
				MemoryLimit: 512 * 1024 * 1024,
			},
		},
		// 128 MB memory limit
		MemoryLimit: 128 * 1024 * 1024,
		// 0.5 CPU shares
		CPULimit: 0.5,
		Timeout:  10 * time.Second,
		PoolSize: 1,
	}
}

func (c Config) memoryFor(rt Runtime) int64 {
	if rt.MemoryLimit > 0 {
		return rt.MemoryLimit
	}
	return c.MemoryLimit
}
