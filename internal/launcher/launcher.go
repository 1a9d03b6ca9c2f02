// Package launcher starts booth scripts fire-and-forget. Scripts are queued
// to a background worker so the HTTP request path never waits on path
// resolution or process spawn; a dispatched script is not tracked, cancelled
// or awaited.
package launcher

import (
	"context"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

const defaultQueueSize = 16

// Runner resolves script names under a scripts directory and spawns them
// detached. Failures are logged and, for a missing script, reported through
// the OnError callback; they are never returned to the caller.
type Runner struct {
	scriptsDir string
	queue      chan string
	done       chan struct{}

	// OnError receives a message when a mapped script cannot be located.
	// Optional; typically wired to a session error annotation.
	OnError func(msg string)

	// spawn is swappable for tests.
	spawn func(path string) error
}

func New(scriptsDir string) *Runner {
	return &Runner{
		scriptsDir: scriptsDir,
		queue:      make(chan string, defaultQueueSize),
		done:       make(chan struct{}),
		spawn:      spawnDetached,
	}
}

// Start runs the worker until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				return
			case name := <-r.queue:
				r.run(name)
			}
		}
	}()
}

// Launch queues a script by name. Never blocks: if the queue is full the
// request is dropped and logged.
func (r *Runner) Launch(script string) {
	select {
	case r.queue <- script:
	default:
		log.Printf("launcher queue full, dropping %q", script)
	}
}

// Wait blocks until the worker has stopped. Used during shutdown.
func (r *Runner) Wait() {
	<-r.done
}

func (r *Runner) run(name string) {
	path, err := filepath.Abs(filepath.Join(r.scriptsDir, name))
	if err != nil {
		log.Printf("resolving script %q: %v", name, err)
		return
	}
	if !fileExists(path) {
		log.Printf("Script not found: %s", path)
		if r.OnError != nil {
			r.OnError("Script missing: " + name)
		}
		return
	}
	if err := r.spawn(path); err != nil {
		log.Printf("ERROR start app %s: %v", path, err)
		return
	}
	log.Printf("Started app: %s", path)
}

// spawnDetached starts the script and reaps it in the background so it never
// becomes a zombie. The process outlives the request that triggered it.
func spawnDetached(path string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", path)
	} else {
		cmd = exec.Command(path)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("script %s exited: %v", filepath.Base(path), err)
		}
	}()
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
