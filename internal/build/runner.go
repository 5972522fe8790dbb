package build

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	stamperrors "github.com/conneroisu/stamp/internal/errors"
	"github.com/conneroisu/stamp/internal/logging"
)

// Task is one named build step.
type Task func(ctx context.Context, p *Project) error

// TaskResult represents the outcome of one task execution.
type TaskResult struct {
	Name     string
	Error    error
	Duration time.Duration
}

// TaskCallback is called when a task completes
type TaskCallback func(result TaskResult)

// TaskInfo describes a registered task or alias for listings.
type TaskInfo struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Runs        []string `json:"runs,omitempty" yaml:"runs,omitempty"`
}

type taskEntry struct {
	description string
	run         Task
}

// Runner sequences named tasks and aliases. Runs are serialized; a task
// failure stops the run.
type Runner struct {
	tasks     map[string]taskEntry
	aliases   map[string][]string
	callbacks []TaskCallback
	metrics   *BuildMetrics
	logger    logging.Logger
	mutex     sync.RWMutex
	runMutex  sync.Mutex
}

// NewRunner creates an empty runner.
func NewRunner(logger logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewLogger(logging.DefaultConfig())
	}
	return &Runner{
		tasks:   make(map[string]taskEntry),
		aliases: make(map[string][]string),
		metrics: NewBuildMetrics(),
		logger:  logger.WithComponent("build"),
	}
}

// NewDefaultRunner creates a runner with the standard tasks and the
// build, release and default aliases.
func NewDefaultRunner(logger logging.Logger) *Runner {
	r := NewRunner(logger)
	r.Register("lint", "Run the lint command over the lint globs", Lint)
	r.Register("clean", "Remove the dist directory", Clean)
	r.Register("copy", "Write the source into dist with markers substituted", Copy)
	r.Register("minify", "Minify the source and prepend the license banner", Minify)
	r.Register("bump", "Bump the version in the primary and mirror metadata", Bump)
	r.Register("versioncheck", "Check every artifact carries the primary version", VersionCheck)

	r.Alias("build", "lint", "clean", "copy", "minify")
	r.Alias("release", "bump", "build")
	r.Alias("default", "build")
	return r
}

// Register adds or replaces a task.
func (r *Runner) Register(name, description string, task Task) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.tasks[name] = taskEntry{description: description, run: task}
}

// Alias defines name as the ordered list of tasks or other aliases.
func (r *Runner) Alias(name string, tasks ...string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.aliases[name] = append([]string(nil), tasks...)
}

// AddCallback registers a function called after every task.
func (r *Runner) AddCallback(cb TaskCallback) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.callbacks = append(r.callbacks, cb)
}

// Metrics returns the runner's task metrics.
func (r *Runner) Metrics() *BuildMetrics {
	return r.metrics
}

// Tasks lists tasks and aliases sorted by name.
func (r *Runner) Tasks() []TaskInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	infos := make([]TaskInfo, 0, len(r.tasks)+len(r.aliases))
	for name, t := range r.tasks {
		infos = append(infos, TaskInfo{Name: name, Description: t.description})
	}
	for name, runs := range r.aliases {
		infos = append(infos, TaskInfo{Name: name, Runs: append([]string(nil), runs...)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Expand resolves aliases into the flat list of tasks to run. No names
// means "default". Tasks are kept, repeats included, in the order written.
func (r *Runner) Expand(names ...string) ([]string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if len(names) == 0 {
		names = []string{"default"}
	}

	var plan []string
	var stack []string
	var walk func(name string) error
	walk = func(name string) error {
		// Tasks shadow aliases of the same name.
		if _, ok := r.tasks[name]; ok {
			plan = append(plan, name)
			return nil
		}
		runs, ok := r.aliases[name]
		if !ok {
			return stamperrors.ErrTaskNotFound(name)
		}
		for _, s := range stack {
			if s == name {
				cycle := append(append([]string(nil), stack...), name)
				return stamperrors.NewBuildError(stamperrors.ErrCodeTaskCycle,
					"alias cycle: "+strings.Join(cycle, " -> "), nil).WithTask(name)
			}
		}
		stack = append(stack, name)
		for _, child := range runs {
			if err := walk(child); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		return nil
	}

	for _, name := range names {
		if err := walk(name); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// Run expands names and runs the resulting tasks in order against p,
// stopping at the first failure or when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, p *Project, names ...string) error {
	plan, err := r.Expand(names...)
	if err != nil {
		return err
	}

	r.runMutex.Lock()
	defer r.runMutex.Unlock()

	for _, name := range plan {
		if err := ctx.Err(); err != nil {
			return stamperrors.NewBuildError(stamperrors.ErrCodeTaskFailed, "run cancelled", err).WithTask(name)
		}

		r.mutex.RLock()
		entry := r.tasks[name]
		callbacks := append([]TaskCallback(nil), r.callbacks...)
		r.mutex.RUnlock()

		perf := logging.StartOperation(r.logger, "task:"+name)
		start := time.Now()
		err := entry.run(ctx, p)
		result := TaskResult{Name: name, Error: err, Duration: time.Since(start)}

		r.metrics.RecordTask(result)
		for _, cb := range callbacks {
			cb(result)
		}

		if err != nil {
			perf.EndWithError(ctx, err)
			return taskError(name, err)
		}
		perf.End(ctx)
	}
	return nil
}

// taskError attaches the task name to err, wrapping foreign errors.
func taskError(name string, err error) error {
	if se, ok := err.(*stamperrors.StampError); ok {
		if se.Task == "" {
			se.Task = name
		}
		return se
	}
	return stamperrors.NewBuildError(stamperrors.ErrCodeTaskFailed, "task failed", err).WithTask(name)
}
