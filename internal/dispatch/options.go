package dispatch

// Config carries the optional settings of a Map call. Build it with Option
// values; a nil *Config is valid and means all defaults.
type Config struct {
	workers  int
	observer func(Decision)
	progress func(completed, total int)
}

// Option configures a Map call.
type Option func(*Config)

// WithWorkers sets the parallel pool size. Values <= 0 select DefaultWorkers.
func WithWorkers(n int) Option {
	return func(c *Config) { c.workers = n }
}

// WithObserver registers a callback invoked once per Map call, before any
// element is processed, with the strategy that was chosen.
func WithObserver(fn func(Decision)) Option {
	return func(c *Config) { c.observer = fn }
}

// WithProgress registers a callback reporting how many elements have been
// processed so far. Under the parallel strategy it is called from worker
// goroutines and must be safe for concurrent use; completed is monotonic
// per call but updates may arrive out of order.
func WithProgress(fn func(completed, total int)) Option {
	return func(c *Config) { c.progress = fn }
}

func newConfig(opts []Option) *Config {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// workerCount returns the pool size for a workload of n items. The pool
// never exceeds the number of items and is at least one.
func (c *Config) workerCount(n int) int {
	w := c.workers
	if w <= 0 {
		w = DefaultWorkers()
	}
	if n > 0 && w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

func (c *Config) report(completed, total int) {
	if c.progress != nil {
		c.progress(completed, total)
	}
}
