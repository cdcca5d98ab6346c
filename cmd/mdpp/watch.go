package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long a path must stay quiet before it is converted.
const watchDebounce = 150 * time.Millisecond

// debouncer coalesces bursts of events per path. Every trigger bumps the
// path's generation; work started for an older generation is stale and
// must not commit its output.
type debouncer struct {
	delay time.Duration
	fire  func(key string, gen uint64)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	gens    map[string]uint64
	stopped bool
	running sync.WaitGroup
}

func newDebouncer(delay time.Duration, fire func(key string, gen uint64)) *debouncer {
	return &debouncer{
		delay:  delay,
		fire:   fire,
		timers: make(map[string]*time.Timer),
		gens:   make(map[string]uint64),
	}
}

// trigger schedules fire for key after the quiet period, replacing any
// pending schedule.
func (d *debouncer) trigger(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.gens[key]++
	gen := d.gens[key]
	if t := d.timers[key]; t != nil {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.stopped || d.gens[key] != gen {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.running.Add(1)
		d.mu.Unlock()

		defer d.running.Done()
		d.fire(key, gen)
	})
}

// commit runs write only while gen is still the latest generation of key.
// It reports whether write ran.
func (d *debouncer) commit(key string, gen uint64, write func() error) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || d.gens[key] != gen {
		return false, nil
	}
	return true, write()
}

// stop cancels pending work and waits for running work to return.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
	d.mu.Unlock()
	d.running.Wait()
}

// watchSession converts inputs again whenever they change.
type watchSession struct {
	inputs  []string
	output  string
	params  *batchParams
	common  commonFlags
	env     *Environment
	watcher *fsnotify.Watcher
	deb     *debouncer

	explicit map[string]bool // file inputs, cleaned
	dirs     []string        // directory inputs, cleaned
	printMu  sync.Mutex
}

// runWatch blocks until ctx is done, converting each changed MD++ file.
func runWatch(ctx context.Context, inputs []string, output string, params *batchParams, common commonFlags, env *Environment) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatch, err)
	}
	defer func() { _ = w.Close() }()

	s := &watchSession{
		inputs:   inputs,
		output:   output,
		params:   params,
		common:   common,
		env:      env,
		watcher:  w,
		explicit: make(map[string]bool),
	}
	if err := s.addInputs(); err != nil {
		return fmt.Errorf("%w: %v", ErrWatch, err)
	}

	s.deb = newDebouncer(watchDebounce, func(path string, gen uint64) {
		s.reconvert(ctx, path, gen)
	})
	defer s.deb.stop()

	if !common.quiet {
		fmt.Fprintf(env.Stdout, "Watching %s (press Ctrl+C to stop)\n", strings.Join(inputs, ", "))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			s.handle(ev)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(env.Stderr, "watch error: %v\n", err)
		}
	}
}

// addInputs watches directory inputs recursively and the parent
// directory of each file input.
func (s *watchSession) addInputs() error {
	for _, input := range s.inputs {
		info, err := os.Stat(input)
		if err != nil {
			return err
		}
		clean := filepath.Clean(input)
		if info.IsDir() {
			s.dirs = append(s.dirs, clean)
			if err := s.addRecursive(clean); err != nil {
				return err
			}
			continue
		}
		s.explicit[clean] = true
		if err := s.watcher.Add(filepath.Dir(clean)); err != nil {
			return err
		}
	}
	return nil
}

// addRecursive watches root and its subdirectories, skipping hidden ones.
func (s *watchSession) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return s.watcher.Add(path)
	})
}

func (s *watchSession) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if s.underDirInput(path) && !strings.HasPrefix(filepath.Base(path), ".") {
				if err := s.addRecursive(path); err != nil {
					fmt.Fprintf(s.env.Stderr, "watch error: %v\n", err)
				}
			}
			return
		}
	}

	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	if !isSupported(path) {
		return
	}
	if !s.explicit[path] && !s.underDirInput(path) {
		return
	}
	s.deb.trigger(path)
}

func (s *watchSession) underDirInput(path string) bool {
	for _, dir := range s.dirs {
		if rel, err := filepath.Rel(dir, path); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// target finds the output of a changed file the way the initial batch did.
func (s *watchSession) target(path string) (FileToConvert, bool) {
	files, err := discoverFiles(s.inputs, s.output)
	if err != nil {
		return FileToConvert{}, false
	}
	for _, f := range files {
		if filepath.Clean(f.InputPath) == path {
			return f, true
		}
	}
	return FileToConvert{}, false
}

// reconvert renders path and writes it unless a newer change arrived
// while rendering.
func (s *watchSession) reconvert(ctx context.Context, path string, gen uint64) {
	f, ok := s.target(path)
	if !ok {
		return
	}

	start := time.Now()
	res := ConversionResult{InputPath: f.InputPath, OutputPath: f.OutputPath}
	out, err := renderFile(ctx, s.params, f)
	if err == nil {
		res.Warnings = out.warnings
		var committed bool
		committed, err = s.deb.commit(path, gen, func() error { return writeOutputs(f, out) })
		if err == nil && !committed {
			return
		}
	}
	if ctx.Err() != nil {
		return
	}
	res.Err = err
	res.Duration = time.Since(start)

	s.printMu.Lock()
	defer s.printMu.Unlock()
	printResults([]ConversionResult{res}, s.common.quiet, s.common.verbose, s.env)
}
