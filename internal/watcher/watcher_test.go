package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/assetpipe/internal/config"
	pipeerrors "github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/fileset"
	"github.com/conneroisu/assetpipe/internal/logging"
	"github.com/conneroisu/assetpipe/internal/task"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(99), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestBindingMatch(t *testing.T) {
	noop := task.New("noop", func(context.Context) error { return nil })
	styles := Binding{Dir: "scss", Files: fileset.MustNew("**/*"), Task: noop}
	scripts := Binding{Dir: "js", Files: fileset.MustNew("**/*", "*.min.js"), Task: noop}
	pages := Binding{Dir: ".", Files: fileset.MustNew("**/*.html"), Task: noop}

	testCases := []struct {
		name    string
		binding Binding
		path    string
		want    bool
	}{
		{"scss top level", styles, "scss/grayscale.scss", true},
		{"scss nested", styles, "scss/pages/_about.scss", true},
		{"scss prefix only", styles, "scss-old/a.scss", false},
		{"css output", styles, "css/grayscale.css", false},
		{"js source", scripts, "js/grayscale.js", true},
		{"js minified output", scripts, "js/grayscale.min.js", false},
		{"root html", pages, "index.html", true},
		{"nested html", pages, "docs/about.html", true},
		{"not html", pages, "index.htm", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.binding.match(tc.path))
		})
	}
}

func TestNewRequiresBindings(t *testing.T) {
	_, err := New(t.TempDir(), nil, Options{}, logging.Discard())
	require.Error(t, err)
	assert.True(t, pipeerrors.IsConfigError(err))
}

type counter struct {
	runs atomic.Int32
}

func (c *counter) task(name string) task.Task {
	return task.New(name, func(context.Context) error {
		c.runs.Add(1)
		return nil
	})
}

// startWatcher runs w until the test ends and waits for the initial scan.
func startWatcher(t *testing.T, w *Watcher, wantDirs ...string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	require.Eventually(t, func() bool {
		dirs := w.WatchedDirs()
		for _, d := range wantDirs {
			if !slices.Contains(dirs, d) {
				return false
			}
		}
		return len(dirs) > 0
	}, 5*time.Second, 10*time.Millisecond)
}

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0755))
	}
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0644))
}

func TestWatcherRunsMatchingBinding(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "scss", "js")

	var css, js counter
	w, err := New(root, []Binding{
		{Dir: "scss", Files: fileset.MustNew("**/*"), Task: css.task("css")},
		{Dir: "js", Files: fileset.MustNew("**/*", "*.min.js"), Task: js.task("js")},
	}, Options{Debounce: 20 * time.Millisecond}, logging.Discard())
	require.NoError(t, err)
	startWatcher(t, w, "scss", "js")

	writeFile(t, root, "scss/grayscale.scss", ".a{}")

	require.Eventually(t, func() bool { return css.runs.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(0), js.runs.Load())
}

func TestWatcherIgnoresOutputsAndIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "js", "node_modules/pkg")

	var js, pages counter
	w, err := New(root, []Binding{
		{Dir: "js", Files: fileset.MustNew("**/*", "*.min.js"), Task: js.task("js")},
		{Dir: ".", Files: fileset.MustNew("**/*.html"), Task: pages.task("reload")},
	}, Options{Debounce: 10 * time.Millisecond, Ignore: config.DefaultWatchIgnore}, logging.Discard())
	require.NoError(t, err)
	startWatcher(t, w, "js")

	assert.NotContains(t, w.WatchedDirs(), "node_modules")

	writeFile(t, root, "js/grayscale.min.js", "min")
	writeFile(t, root, "node_modules/pkg/index.html", "<p>")

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), js.runs.Load())
	assert.Equal(t, int32(0), pages.runs.Load())

	writeFile(t, root, "index.html", "<p>")
	require.Eventually(t, func() bool { return pages.runs.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherAddsNewDirectories(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "scss")

	var css counter
	w, err := New(root, []Binding{
		{Dir: "scss", Files: fileset.MustNew("**/*"), Task: css.task("css")},
	}, Options{Debounce: 10 * time.Millisecond}, logging.Discard())
	require.NoError(t, err)
	startWatcher(t, w, "scss")

	mkdirs(t, root, "scss/pages")
	require.Eventually(t, func() bool {
		return slices.Contains(w.WatchedDirs(), "scss/pages")
	}, 5*time.Second, 10*time.Millisecond)

	// Wait out the run triggered by the directory itself.
	require.Eventually(t, func() bool { return css.runs.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	writeFile(t, root, "scss/pages/about.scss", ".b{}")
	require.Eventually(t, func() bool { return css.runs.Load() == 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "scss")

	var css counter
	w, err := New(root, []Binding{
		{Dir: "scss", Files: fileset.MustNew("**/*"), Task: css.task("css")},
	}, Options{Debounce: 150 * time.Millisecond}, logging.Discard())
	require.NoError(t, err)
	startWatcher(t, w, "scss")

	for i := 0; i < 5; i++ {
		writeFile(t, root, "scss/grayscale.scss", ".a{}")
	}

	require.Eventually(t, func() bool { return css.runs.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), css.runs.Load())
}

func TestWorkerCoalescesTriggersDuringRun(t *testing.T) {
	var (
		running   atomic.Int32
		maxActive atomic.Int32
		runs      atomic.Int32
	)
	started := make(chan struct{}, 10)
	release := make(chan struct{})

	blocking := task.New("css", func(context.Context) error {
		active := running.Add(1)
		defer running.Add(-1)
		if active > maxActive.Load() {
			maxActive.Store(active)
		}
		if runs.Add(1) == 1 {
			started <- struct{}{}
			<-release
		}
		return nil
	})

	wk := newWorker(blocking, 5*time.Millisecond, logging.Discard(), func(string, error) {})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go wk.run(ctx)

	wk.notify()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not start")
	}

	for i := 0; i < 5; i++ {
		wk.notify()
	}
	close(release)

	require.Eventually(t, func() bool { return runs.Load() == 2 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), runs.Load())
	assert.Equal(t, int32(1), maxActive.Load())
}

func TestWorkerContinuesAfterFailure(t *testing.T) {
	var calls atomic.Int32
	flaky := task.New("css", func(context.Context) error {
		if calls.Add(1) == 1 {
			return pipeerrors.NewCompileError(pipeerrors.ErrCodeCompileFailed, "expected \"}\".", nil).
				WithLocation("scss/grayscale.scss", 3, 1)
		}
		return nil
	})

	var mu sync.Mutex
	var results []error
	wk := newWorker(flaky, time.Millisecond, logging.Discard(), func(name string, err error) {
		assert.Equal(t, "css", name)
		mu.Lock()
		results = append(results, err)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go wk.run(ctx)

	wk.notify()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	wk.notify()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 5*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(results) == 2
	}, 5*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, pipeerrors.IsCompileError(results[0]))
	assert.NoError(t, results[1])
}

func TestWatcherReportsResults(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "scss")

	reported := make(chan string, 4)
	var css counter
	w, err := New(root, []Binding{
		{Dir: "scss", Files: fileset.MustNew("**/*"), Task: css.task("css")},
	}, Options{
		Debounce: 10 * time.Millisecond,
		OnResult: func(name string, err error) { reported <- name },
	}, logging.Discard())
	require.NoError(t, err)
	startWatcher(t, w, "scss")

	writeFile(t, root, "scss/grayscale.scss", ".a{}")

	select {
	case name := <-reported:
		assert.Equal(t, "css", name)
	case <-time.After(5 * time.Second):
		t.Fatal("no result reported")
	}
}
