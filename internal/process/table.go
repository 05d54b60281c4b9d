// Package process tracks agent processes after they have been spawned: it
// drains their output, reaps them and keeps a short, bounded history of
// exited processes for the API.
package process

import (
	"cmp"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mattjoyce/launchpad/internal/agent"
	"github.com/mattjoyce/launchpad/internal/events"
	"github.com/mattjoyce/launchpad/internal/log"
)

// ErrNotFound is returned for an unknown process id.
var ErrNotFound = errors.New("process not found")

// Status of a tracked process.
type Status string

const (
	StatusRunning Status = "running"
	StatusExited  Status = "exited"
	StatusKilled  Status = "killed"
	StatusFailed  Status = "failed"
)

// Snapshot is a point-in-time copy of a tracked process.
type Snapshot struct {
	ID        string     `json:"id"`
	Executor  agent.Kind `json:"executor"`
	Profile   string     `json:"profile"`
	Dir       string     `json:"dir"`
	PID       int        `json:"pid"`
	Status    Status     `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	ExitedAt  *time.Time `json:"exited_at,omitempty"`
	ExitCode  *int       `json:"exit_code,omitempty"`
	Error     string     `json:"error,omitempty"`
	Stdout    string     `json:"stdout,omitempty"`
	Stderr    string     `json:"stderr,omitempty"`
	// Truncated is true when older output was dropped from Stdout or Stderr.
	Truncated bool `json:"truncated,omitempty"`
}

type entry struct {
	child   *agent.SpawnedChild
	profile string
	stdout  *tailBuffer
	stderr  *tailBuffer
	done    chan struct{}

	mu       sync.Mutex
	status   Status
	exitedAt time.Time
	exitCode int
	err      error
	killed   bool
}

func (e *entry) snapshot(withOutput bool) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		ID:        e.child.ID,
		Executor:  e.child.Kind,
		Profile:   e.profile,
		Dir:       e.child.Dir,
		PID:       e.child.PID(),
		Status:    e.status,
		StartedAt: e.child.StartedAt,
	}
	if e.status != StatusRunning {
		at, code := e.exitedAt, e.exitCode
		s.ExitedAt = &at
		s.ExitCode = &code
	}
	if e.err != nil {
		s.Error = e.err.Error()
	}
	if withOutput {
		s.Stdout = e.stdout.String()
		s.Stderr = e.stderr.String()
		s.Truncated = e.stdout.Dropped() > 0 || e.stderr.Dropped() > 0
	}
	return s
}

// DefaultRetain is how many exited processes a Table remembers.
const DefaultRetain = 100

// Table is safe for concurrent use. Running processes are always kept; only
// the most recently exited ones are, up to the retain limit.
type Table struct {
	mu        sync.RWMutex
	procs     map[string]*entry
	exited    []string // ids in reap order, oldest first
	retain    int
	tailBytes int
	events    events.Publisher
	logger    *slog.Logger
}

// Option configures a Table.
type Option func(*Table)

func WithEvents(p events.Publisher) Option {
	return func(t *Table) { t.events = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Table) { t.logger = l }
}

// WithTailBytes sets how much output is retained per stream.
func WithTailBytes(n int) Option {
	return func(t *Table) { t.tailBytes = n }
}

// WithRetain bounds how many exited processes are kept. Values below 1 are
// raised to 1 so a caller can always Wait on the process it just tracked.
func WithRetain(n int) Option {
	return func(t *Table) { t.retain = max(n, 1) }
}

func NewTable(opts ...Option) *Table {
	t := &Table{
		procs:     make(map[string]*entry),
		retain:    DefaultRetain,
		tailBytes: DefaultTailBytes,
		logger:    log.WithComponent("process"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TrackOption configures a single Track call.
type TrackOption func(*trackConfig)

type trackConfig struct {
	stdout io.Writer
	stderr io.Writer
}

// WithMirror copies the child's output to the given writers as it arrives,
// in addition to retaining the tail.
func WithMirror(stdout, stderr io.Writer) TrackOption {
	return func(c *trackConfig) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// Track takes ownership of child: its output is drained in the background
// and the process is reaped when it exits.
func (t *Table) Track(child *agent.SpawnedChild, profile string, opts ...TrackOption) Snapshot {
	var cfg trackConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &entry{
		child:   child,
		profile: profile,
		stdout:  newTailBuffer(t.tailBytes),
		stderr:  newTailBuffer(t.tailBytes),
		done:    make(chan struct{}),
		status:  StatusRunning,
	}

	t.mu.Lock()
	t.procs[child.ID] = e
	t.mu.Unlock()

	go t.reap(e, cfg)
	return e.snapshot(false)
}

func (t *Table) reap(e *entry, cfg trackConfig) {
	logger := t.logger.With("process_id", e.child.ID)

	var wg sync.WaitGroup
	wg.Add(2)
	go drain(&wg, e.child.Stdout, e.stdout, cfg.stdout)
	go drain(&wg, e.child.Stderr, e.stderr, cfg.stderr)
	wg.Wait()

	code, err := e.child.Wait()

	e.mu.Lock()
	e.exitedAt = time.Now().UTC()
	e.exitCode = code
	e.err = err
	switch {
	case err != nil:
		e.status = StatusFailed
	case e.killed:
		e.status = StatusKilled
	default:
		e.status = StatusExited
	}
	status := e.status
	e.mu.Unlock()

	logger.Info("agent exited", "status", status, "exit_code", code, "error", err)
	if t.events != nil {
		t.events.Publish(events.ProcessExited, map[string]any{
			"process_id": e.child.ID,
			"profile":    e.profile,
			"status":     status,
			"exit_code":  code,
		})
	}
	t.retire(e.child.ID)
	// Waiters wake only after the exit has been logged, published and the
	// history trimmed.
	close(e.done)
}

// retire records id as exited and evicts the oldest exited entries beyond
// the retain limit.
func (t *Table) retire(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exited = append(t.exited, id)
	n := len(t.exited) - t.retain
	if n <= 0 {
		return
	}
	for _, old := range t.exited[:n] {
		delete(t.procs, old)
		t.logger.Debug("evicted exited process", "process_id", old)
	}
	t.exited = slices.Delete(t.exited, 0, n)
}

func drain(wg *sync.WaitGroup, r io.Reader, tail *tailBuffer, mirror io.Writer) {
	defer wg.Done()
	if r == nil {
		return
	}
	var w io.Writer = tail
	if mirror != nil {
		w = io.MultiWriter(tail, mirror)
	}
	_, _ = io.Copy(w, r)
}

func (t *Table) lookup(id string) (*entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.procs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Get returns the process with its retained output.
func (t *Table) Get(id string) (Snapshot, error) {
	e, err := t.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return e.snapshot(true), nil
}

// List returns every tracked process without output, oldest first.
func (t *Table) List() []Snapshot {
	t.mu.RLock()
	out := make([]Snapshot, 0, len(t.procs))
	for _, e := range t.procs {
		out = append(out, e.snapshot(false))
	}
	t.mu.RUnlock()

	slices.SortFunc(out, func(a, b Snapshot) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Kill terminates a running process. Killing an exited process is a no-op.
func (t *Table) Kill(id string) error {
	e, err := t.lookup(id)
	if err != nil {
		return err
	}
	return e.kill()
}

func (e *entry) kill() error {
	select {
	case <-e.done:
		return nil
	default:
	}

	e.mu.Lock()
	e.killed = true
	e.mu.Unlock()
	return e.child.Kill()
}

// Wait blocks until the process has been reaped or ctx is done.
func (t *Table) Wait(ctx context.Context, id string) (Snapshot, error) {
	e, err := t.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	select {
	case <-e.done:
		return e.snapshot(true), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Running counts processes that have not exited.
func (t *Table) Running() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, e := range t.procs {
		select {
		case <-e.done:
		default:
			n++
		}
	}
	return n
}

// Shutdown kills every running process and waits for them to be reaped.
// Entries are held directly, so eviction while reaping does not matter.
func (t *Table) Shutdown(ctx context.Context) error {
	t.mu.RLock()
	entries := make([]*entry, 0, len(t.procs))
	for _, e := range t.procs {
		entries = append(entries, e)
	}
	t.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		if err := e.kill(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, e := range entries {
		select {
		case <-e.done:
		case <-ctx.Done():
			return errors.Join(append(errs, ctx.Err())...)
		}
	}
	return errors.Join(errs...)
}
