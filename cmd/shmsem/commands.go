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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/srediag/shmsem/internal/config"
	"github.com/srediag/shmsem/internal/logger"
	"github.com/srediag/shmsem/internal/stress"
	"github.com/srediag/shmsem/pkg/health"
	"github.com/srediag/shmsem/pkg/sem"
	"github.com/srediag/shmsem/pkg/shm"
)

// childCommand is the hidden command run by the demo's child process.
const childCommand = "demo-child"

func parseArgs(flags *flag.FlagSet, cfg *config.Config, args []string) (string, error) {
	path := cfg.Path
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		path, args = args[0], args[1:]
	}
	if err := flags.Parse(args); err != nil {
		return "", err
	}
	if flags.NArg() > 0 {
		return "", fmt.Errorf("unexpected arguments: %v", flags.Args())
	}
	return path, nil
}

// openWithRetry opens the region at path, waiting with backoff while it does
// not exist yet or its creator has not finished initializing it.
func openWithRetry(ctx context.Context, path string, maxWait time.Duration) (*shm.Region, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = maxWait

	var r *shm.Region
	op := func() error {
		var err error
		r, err = shm.Open(ctx, path)
		if err == nil {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, shm.ErrNotInitialized) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, next time.Duration) {
		logger.Internal.Infof("region %s not ready (%v), retrying in %s", path, err, next)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}
	return r, nil
}

func runInit(ctx context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	count := cfg.InitialCount
	flags.Func("count", "initial count, at most 4294967295", func(v string) error {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return err
		}
		count = uint32(n)
		return nil
	})
	force := flags.Bool("force", false, "remove an existing region first")
	path, err := parseArgs(flags, cfg, args)
	if err != nil {
		return err
	}
	if *force {
		if err := shm.Remove(path); err != nil {
			return err
		}
	}
	r, err := shm.Create(ctx, path, count)
	if err != nil {
		return err
	}
	defer r.Close()
	fmt.Printf("initialized %s with count %d\n", path, count)
	return nil
}

func runAcquire(ctx context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("acquire", flag.ContinueOnError)
	timeout := flags.Duration("timeout", 0, "give up after this long, 0 waits forever")
	path, err := parseArgs(flags, cfg, args)
	if err != nil {
		return err
	}
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}
	r, err := openWithRetry(ctx, path, *timeout)
	if err != nil {
		return err
	}
	defer r.Close()
	s, err := r.Semaphore(sem.WithPollInterval(cfg.PollInterval))
	if err != nil {
		return err
	}
	start := time.Now()
	if err := s.AcquireContext(ctx); err != nil {
		return err
	}
	fmt.Printf("acquired %s after %s, count %d\n", path, time.Since(start).Round(time.Millisecond), s.Value())
	return nil
}

func runRelease(ctx context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("release", flag.ContinueOnError)
	path, err := parseArgs(flags, cfg, args)
	if err != nil {
		return err
	}
	r, err := shm.Open(ctx, path)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := sem.Release(r.Word()); err != nil {
		return err
	}
	v, _ := r.Value()
	fmt.Printf("released %s, count %d\n", path, v)
	return nil
}

func runStat(_ context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("stat", flag.ContinueOnError)
	path, err := parseArgs(flags, cfg, args)
	if err != nil {
		return err
	}
	shm.DebugRegionDetail(path)
	return nil
}

// runDemo is the reference program: the parent creates the region with a
// count of 0 and starts a child process that sleeps, then releases. The
// parent blocks in acquire until that release.
func runDemo(ctx context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("demo", flag.ContinueOnError)
	childSleep := flags.Duration("child-sleep", cfg.ChildSleep, "how long the child sleeps before releasing")
	parentDelay := flags.Duration("parent-delay", cfg.ParentDelay, "how long the parent sleeps before acquiring")
	path, err := parseArgs(flags, cfg, args)
	if err != nil {
		return err
	}
	if err := shm.Remove(path); err != nil {
		return err
	}
	r, err := shm.Create(ctx, path, 0)
	if err != nil {
		return err
	}
	defer r.Close()
	defer func() { _ = shm.Remove(path) }()

	self, err := os.Executable()
	if err != nil {
		return err
	}
	child := exec.CommandContext(ctx, self, childCommand, path, "-sleep", childSleep.String())
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	if err := child.Start(); err != nil {
		return fmt.Errorf("start child: %w", err)
	}

	select {
	case <-time.After(*parentDelay):
	case <-ctx.Done():
		_ = child.Wait()
		return ctx.Err()
	}
	fmt.Println("Waiting for child...")
	s, err := r.Semaphore(sem.WithPollInterval(cfg.PollInterval))
	if err != nil {
		return err
	}
	start := time.Now()
	if err := s.AcquireContext(ctx); err != nil {
		return err
	}
	fmt.Printf("Child done initializing (waited %s, count %d)\n", time.Since(start).Round(time.Millisecond), s.Value())
	return child.Wait()
}

func runChild(ctx context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet(childCommand, flag.ContinueOnError)
	sleep := flags.Duration("sleep", cfg.ChildSleep, "how long to sleep before releasing")
	path, err := parseArgs(flags, cfg, args)
	if err != nil {
		return err
	}
	r, err := shm.Open(ctx, path)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Println("Initializing...")
	select {
	case <-time.After(*sleep):
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := sem.Release(r.Word()); err != nil {
		return err
	}
	time.Sleep(time.Second)
	fmt.Println("Done initializing")
	return nil
}

func runStress(ctx context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("stress", flag.ContinueOnError)
	workers := flags.Int("workers", cfg.StressWorkers, "number of contending goroutines")
	iterations := flags.Int("iterations", cfg.StressIterations, "acquire/release pairs per worker")
	hold := flags.Duration("hold", 0, "how long each permit is held")
	path, err := parseArgs(flags, cfg, args)
	if err != nil {
		return err
	}
	r, err := shm.Open(ctx, path)
	if err != nil {
		return err
	}
	defer r.Close()

	m := sem.NewMetrics(cfg.MetricsNamespace)
	s, err := r.Semaphore(sem.WithMetrics(m), sem.WithPollInterval(cfg.PollInterval))
	if err != nil {
		return err
	}
	res, err := stress.Run(ctx, s, stress.Options{Workers: *workers, Iterations: *iterations, Hold: *hold})
	if res != nil {
		fmt.Println(res.String())
		fmt.Printf("kernel waits:%.0f woken:%.0f\n", counterValue(m.Waits), counterValue(m.Wakes))
	}
	return err
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	_ = c.Write(m)
	return m.GetCounter().GetValue()
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := flags.String("addr", cfg.MetricsAddr, "listen address")
	path, err := parseArgs(flags, cfg, args)
	if err != nil {
		return err
	}
	r, err := openWithRetry(ctx, path, 0)
	if err != nil {
		return err
	}
	defer r.Close()

	mux, err := newServeMux(r, cfg.MetricsNamespace)
	if err != nil {
		return err
	}
	log := logger.New("serve", nil)
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(err)
		}
	}()
	log.Infof("serving %s on %s", path, *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newServeMux routes /live, /ready and /metrics for r on a registry of its own.
func newServeMux(r *shm.Region, namespace string) (*http.ServeMux, error) {
	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		health.NewValueGauge(r, namespace),
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	h := health.NewHandler(r, reg, namespace)

	mux := http.NewServeMux()
	mux.HandleFunc("/live", h.LiveEndpoint)
	mux.HandleFunc("/ready", h.ReadyEndpoint)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux, nil
}
