// Package runner wires the pipelines into the fixed table of named tasks
// the command line exposes.
package runner

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/conneroisu/assetpipe/internal/config"
	pipeerrors "github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/fileset"
	"github.com/conneroisu/assetpipe/internal/logging"
	"github.com/conneroisu/assetpipe/internal/minify"
	"github.com/conneroisu/assetpipe/internal/script"
	"github.com/conneroisu/assetpipe/internal/server"
	"github.com/conneroisu/assetpipe/internal/style"
	"github.com/conneroisu/assetpipe/internal/task"
	"github.com/conneroisu/assetpipe/internal/vendorsync"
	"github.com/conneroisu/assetpipe/internal/watcher"
)

// Deps holds what the task table is built from. Only Config is required.
type Deps struct {
	Config *config.Config
	Logger logging.Logger

	// FS is the project tree. Defaults to the OS filesystem rooted at
	// Config.Root.
	FS afero.Fs

	// Compiler compiles stylesheets. Defaults to the Dart Sass CLI.
	Compiler style.Compiler

	// Notifier receives changed asset paths. Defaults to the dev server;
	// build-only runs pass server.NopNotifier.
	Notifier server.Notifier
}

// Runner owns the task table and the dev server.
type Runner struct {
	tasks  map[task.ID]task.Task
	server *server.Server
	logger logging.Logger
}

// New builds the task table.
func New(d Deps) (*Runner, error) {
	if d.Config == nil {
		return nil, pipeerrors.NewConfigError(pipeerrors.ErrCodeConfigInvalid, "runner needs a configuration")
	}
	cfg := d.Config

	logger := d.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.DefaultConfig())
	}

	fsys := d.FS
	if fsys == nil {
		fsys = afero.NewBasePathFs(afero.NewOsFs(), cfg.Root)
	}

	compiler := d.Compiler
	if compiler == nil {
		compiler = style.NewSassCompiler(cfg.Styles.Sass, cfg.Root, cfg.Styles.LoadPaths)
	}

	srv := server.New(fsys, cfg.Server.Addr(), logger)

	var notifier server.Notifier = srv
	if d.Notifier != nil {
		notifier = d.Notifier
	}

	minifier, err := minify.New(cfg.Styles.Targets)
	if err != nil {
		return nil, fmt.Errorf("styles.targets: %w", err)
	}

	syncer := vendorsync.New(fsys, cfg.Paths.Vendor,
		vendorsync.DefaultManifest(cfg.Paths.Modules, cfg.Paths.Vendor), logger)

	styles := style.NewPipeline(fsys, compiler, minifier, notifier, logger, style.Options{
		Source:     cfg.Paths.Styles,
		Output:     cfg.Paths.StylesOut,
		Descriptor: cfg.Paths.Descriptor,
	})

	scripts, err := script.NewPipeline(fsys, minifier, notifier, logger,
		cfg.Paths.Scripts, cfg.Paths.Descriptor, cfg.Scripts.Exclude)
	if err != nil {
		return nil, err
	}

	logged := func(t task.Task) task.Task {
		return task.WithLogging(logger, t)
	}

	clean := logged(task.New("clean", syncer.Clean))
	css := logged(task.New("css", styles.Run))
	js := logged(task.New("js", scripts.Run))
	reload := logged(task.New("reload", func(ctx context.Context) error {
		notifier.Reload(ctx)
		return nil
	}))

	vendor, err := task.Series("vendor", clean, logged(task.New("vendor-sync", syncer.Sync)))
	if err != nil {
		return nil, err
	}

	assets, err := task.Parallel("assets", css, js)
	if err != nil {
		return nil, err
	}

	build, err := task.Series("build", logged(vendor), assets)
	if err != nil {
		return nil, err
	}

	files, err := watcher.New(cfg.Root, []watcher.Binding{
		{Dir: slashDir(cfg.Paths.Styles), Files: fileset.MustNew("**/*"), Task: css},
		{Dir: slashDir(cfg.Paths.Scripts), Files: fileset.MustNew("**/*", "*.min.js"), Task: js},
		{Dir: ".", Files: fileset.MustNew("**/*.html"), Task: reload},
	}, watcher.Options{
		Debounce: cfg.Watch.Debounce,
		Ignore:   cfg.Watch.Ignore,
		OnResult: srv.Report,
	}, logger)
	if err != nil {
		return nil, err
	}

	live, err := task.Parallel("live", files, srv)
	if err != nil {
		return nil, err
	}

	watch, err := task.Series("watch", keepGoing{
		Task:   logged(build),
		logger: logger,
		report: srv.Report,
	}, live)
	if err != nil {
		return nil, err
	}

	return &Runner{
		tasks: map[task.ID]task.Task{
			task.Clean:  clean,
			task.Vendor: logged(vendor),
			task.CSS:    css,
			task.JS:     js,
			task.Build:  logged(build),
			task.Watch:  watch,
		},
		server: srv,
		logger: logger,
	}, nil
}

// Task returns the task registered for id.
func (r *Runner) Task(id task.ID) (task.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, pipeerrors.NewConfigError(pipeerrors.ErrCodeUnknownTask, "unknown task "+id.String())
	}
	return t, nil
}

// Run runs the task registered for id.
func (r *Runner) Run(ctx context.Context, id task.ID) error {
	t, err := r.Task(id)
	if err != nil {
		return err
	}
	return t.Run(ctx)
}

// Server returns the dev server used by the watch task.
func (r *Runner) Server() *server.Server {
	return r.server
}

// keepGoing downgrades recoverable failures of the wrapped task to warnings,
// so watch starts serving even when a stylesheet does not compile. Other
// failures are returned unchanged.
type keepGoing struct {
	task.Task
	logger logging.Logger
	report watcher.ResultFunc
}

func (k keepGoing) Run(ctx context.Context) error {
	err := k.Task.Run(ctx)
	if err == nil || !pipeerrors.IsRecoverable(err) {
		return err
	}

	name := task.FailedTask(err)
	if name == "" {
		name = k.Name()
	}
	k.report(name, err)
	k.logger.Warn(ctx, err, "Build failed; waiting for the next change", "task", name)
	return nil
}

func slashDir(p string) string {
	return path.Clean(filepath.ToSlash(p))
}
