package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ScanFunc runs the pipeline over one file and publishes the outcome.
type ScanFunc func(ctx context.Context, file string)

type scanState int

const (
	stateIdle scanState = iota
	statePending
	stateScanning
)

type fileState struct {
	state     scanState
	timer     *time.Timer
	rescan    bool
	forgotten bool
}

// Controller owns when a (re)scan happens. Each watched file moves through
// Idle -> Pending (debounced) -> Scanning -> Idle. Rapid triggers collapse
// into one scheduled scan; a trigger arriving mid-scan is recorded once and
// causes exactly one follow-up scan after completion, so displayed results
// always converge on current content without unbounded concurrent requests
// per file. Scans of different files may run concurrently.
type Controller struct {
	mu       sync.Mutex
	files    map[string]*fileState
	debounce time.Duration
	scan     ScanFunc
	logger   *slog.Logger
	closed   bool
	wg       sync.WaitGroup
}

// NewController creates a controller with the given debounce delay.
func NewController(debounce time.Duration, scan ScanFunc, logger *slog.Logger) *Controller {
	return &Controller{
		files:    make(map[string]*fileState),
		debounce: debounce,
		scan:     scan,
		logger:   logger,
	}
}

// Trigger reacts to a file open, save, or change event.
func (c *Controller) Trigger(ctx context.Context, file string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	fs := c.files[file]
	if fs == nil {
		fs = &fileState{}
		c.files[file] = fs
	}

	switch fs.state {
	case stateScanning:
		// Recorded once; never queued more than once. A trigger also
		// revives a file forgotten mid-scan, e.g. removed and recreated
		// in one burst.
		fs.rescan = true
		fs.forgotten = false
	default:
		fs.state = statePending
		if fs.timer != nil {
			fs.timer.Stop()
		}
		fs.timer = time.AfterFunc(c.debounce, func() {
			c.fire(ctx, file)
		})
	}
}

// fire moves a still-pending file into Scanning and starts its scan.
func (c *Controller) fire(ctx context.Context, file string) {
	c.mu.Lock()
	fs := c.files[file]
	if c.closed || fs == nil || fs.state != statePending {
		c.mu.Unlock()
		return
	}
	fs.state = stateScanning
	c.mu.Unlock()

	c.logger.Debug("debounce settled, scanning", "file", file)

	c.wg.Add(1)
	go c.run(ctx, file, fs)
}

// run executes scans until no follow-up is queued. The scan callback
// re-reads file content itself, so a follow-up always covers the latest
// edit.
func (c *Controller) run(ctx context.Context, file string, fs *fileState) {
	defer c.wg.Done()

	for {
		c.scan(ctx, file)

		c.mu.Lock()
		if fs.rescan && !c.closed {
			fs.rescan = false
			c.mu.Unlock()
			continue
		}
		if fs.forgotten {
			delete(c.files, file)
		} else {
			fs.state = stateIdle
		}
		c.mu.Unlock()
		return
	}
}

// Forget drops debounce state for a file, e.g. when it is closed or
// deleted. An in-flight scan is not interrupted; its entry stays in the
// map until it finishes, so a trigger arriving meanwhile queues a rescan
// on the running goroutine instead of starting a second concurrent scan.
func (c *Controller) Forget(file string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fs := c.files[file]
	if fs == nil {
		return
	}
	if fs.timer != nil {
		fs.timer.Stop()
	}
	if fs.state == stateScanning {
		fs.rescan = false
		fs.forgotten = true
		return
	}
	delete(c.files, file)
}

// Close stops all pending timers and waits for in-flight scans.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	for _, fs := range c.files {
		if fs.timer != nil {
			fs.timer.Stop()
		}
	}
	c.mu.Unlock()
	c.wg.Wait()
}
