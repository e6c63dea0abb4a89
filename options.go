package pcore

// driverOptions holds configuration resolved before a Driver is built.
type driverOptions struct {
	timebase       Timebase
	dispatcher     Dispatcher
	logger         Logger
	metricsEnabled bool
	panicOnAssert  bool
}

// Option configures a Driver at construction time.
type Option interface {
	applyDriver(*driverOptions) error
}

type optionFunc struct {
	f func(*driverOptions) error
}

func (o *optionFunc) applyDriver(opts *driverOptions) error { return o.f(opts) }

// WithTimebase supplies the Timebase the Driver schedules wakeups
// against. Defaults to a DeadlineTimebase if not given.
func WithTimebase(tb Timebase) Option {
	return &optionFunc{func(opts *driverOptions) error {
		opts.timebase = tb
		return nil
	}}
}

// WithDispatcher supplies the Dispatcher used to issue commands,
// updates, and lookup subscriptions to the external world.
func WithDispatcher(d Dispatcher) Option {
	return &optionFunc{func(opts *driverOptions) error {
		opts.dispatcher = d
		return nil
	}}
}

// WithLogger overrides the process-wide default Logger for this Driver
// instance only.
func WithLogger(l Logger) Option {
	return &optionFunc{func(opts *driverOptions) error {
		opts.logger = l
		return nil
	}}
}

// WithMetrics enables per-cycle metrics collection on the Driver.
func WithMetrics(enabled bool) Option {
	return &optionFunc{func(opts *driverOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// WithPanicOnAssert configures whether an AssertionError recovered
// during a macro step is re-panicked after logging (true, suited to
// tests and strict builds) or swallowed and returned as an error
// (false, the default, suited to production use where the exec should
// keep running other plans).
func WithPanicOnAssert(enabled bool) Option {
	return &optionFunc{func(opts *driverOptions) error {
		opts.panicOnAssert = enabled
		return nil
	}}
}

func resolveDriverOptions(opts []Option) (*driverOptions, error) {
	cfg := &driverOptions{
		logger: getLogger(),
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o.applyDriver(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.timebase == nil {
		cfg.timebase = NewDeadlineTimebase()
	}
	return cfg, nil
}
