package cmd

// Options holds the shared command-line options for the assignwatch CLI.
type Options struct {
	Repo      string // owner/name; falls back to config default_repo
	Format    string
	Sort      string
	State     string
	Search    string
	Limit     int
	Workers   int
	Verbosity int
	Analyze   bool
	NoStats   bool
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Sort:    "updated",
		State:   "open",
		Limit:   50,
		Workers: 10,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithRepo sets the repository (owner/name).
func WithRepo(repo string) Option {
	return func(o *Options) {
		o.Repo = repo
	}
}

// WithFormat sets the output format (table, json).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithSort sets the sort mode.
func WithSort(sort string) Option {
	return func(o *Options) {
		o.Sort = sort
	}
}

// WithState sets the issue state filter (open, closed, all).
func WithState(state string) Option {
	return func(o *Options) {
		o.State = state
	}
}

// WithSearch sets the title/label/assignee search filter.
func WithSearch(search string) Option {
	return func(o *Options) {
		o.Search = search
	}
}

// WithLimit sets the maximum number of results.
func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

// WithWorkers sets the number of concurrent workers.
func WithWorkers(workers int) Option {
	return func(o *Options) {
		o.Workers = workers
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithAnalyze enables per-issue completion estimates.
func WithAnalyze(analyze bool) Option {
	return func(o *Options) {
		o.Analyze = analyze
	}
}
