package cmd

// Options holds the shared command-line options for the prwatch CLI.
type Options struct {
	ConfigFile string
	Token      string
	Users      []string
	Sections   []string
	Workers    int
	Verbosity  int
	Force      bool
	Timeline   bool
	NoCache    bool
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any
// provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithToken sets the GitHub token.
func WithToken(token string) Option {
	return func(o *Options) {
		o.Token = token
	}
}

// WithUsers overrides the tracked users from the settings file.
func WithUsers(users []string) Option {
	return func(o *Options) {
		o.Users = users
	}
}

// WithWorkers sets the number of concurrent fetch workers.
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
