// Package internal contains the implementation packages of the assetpipe CLI.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - task: Task interface, Series and Parallel composition, task IDs
//   - runner: the fixed table of named tasks built from configuration
//   - vendorsync: copies third-party assets from node_modules into vendor/
//   - style: Sass compilation, vendor prefixing and CSS minification
//   - script: JavaScript minification
//   - minify: esbuild transforms shared by style and script
//   - banner: license banner rendered from the package descriptor
//   - fileset: glob selection of files relative to a base directory
//   - watcher: file system monitoring with per-binding debouncing
//   - server: static dev server, live-reload websocket hub and status page
//   - config: configuration loading and validation
//   - errors: structured pipeline errors and Sass diagnostic parsing
//   - logging: structured logging over log/slog
//   - version: build identity
//
// # Inter-Package Communication
//
//   - runner builds every pipeline and composes them into tasks
//   - style and script report written paths to a Notifier
//   - server implements Notifier and broadcasts to connected browsers
//   - watcher runs the css, js and reload tasks when their files change
//
// All pipelines read and write through an afero.Fs rooted at the project, so
// tests run them against an in-memory tree.
package internal
