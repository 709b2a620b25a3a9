//go:build linux || darwin || freebsd || netbsd || openbsd

/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command shmsem creates, inspects and exercises semaphore regions shared
// between processes.
//
// Usage:
//
//	shmsem init    [path] [-count n] [-force]
//	shmsem acquire [path] [-timeout d]
//	shmsem release [path]
//	shmsem stat    [path]
//	shmsem demo    [path]
//	shmsem stress  [path] [-workers n] [-iterations n]
//	shmsem serve   [path] [-addr host:port]
//
// The path defaults to SHMSEM_PATH, or ipc_lock in the working directory.
// See internal/config for every SHMSEM_* variable.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/srediag/shmsem/internal/config"
	"github.com/srediag/shmsem/internal/logger"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, cfg *config.Config, args []string) error
}

var commands = []command{
	{"init", "create a region and set its count", runInit},
	{"acquire", "decrement the count, blocking while it is zero", runAcquire},
	{"release", "increment the count and wake one waiter", runRelease},
	{"stat", "print the region header", runStat},
	{"demo", "parent waits for a child process to release", runDemo},
	{"stress", "contend for the semaphore from many goroutines", runStress},
	{"serve", "serve /live, /ready and /metrics for a region", runServe},
	{childCommand, "", runChild},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <command> [path] [flags]\n\n", os.Args[0])
	for _, c := range commands {
		if c.usage != "" {
			fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger.SetLevel(cfg.LogLevel)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name, args := os.Args[1], os.Args[2:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(ctx, cfg, args); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			stop()
			os.Exit(1)
		}
		return
	}
	usage()
	os.Exit(2)
}
