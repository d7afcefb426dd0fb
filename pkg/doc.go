// Package pkg provides the core libraries for scalebar, which stamps
// calibrated scale bars onto electron-microscopy images.
//
// # Overview
//
// An image is queued as a [task] with a magnification from the calibrated
// catalog. The [pipeline] renders each task through [overlay] and writes the
// result next to its source (or into a chosen directory):
//
//	Image file + magnification
//	         ↓
//	    [task] queue (curation: add, update, remove, remap outputs)
//	         ↓
//	    [pipeline] (batch run or reduced-size preview)
//	         ↓
//	    [overlay] (geometry → compositor → codec)
//	         ↓
//	    {name}_ScaleBar{ext}
//
// # Quick Start
//
//	r := overlay.NewRenderer(fonts.NewResolver(), fonts.DefaultSpec(), nil, logger)
//	runner := pipeline.NewRunner(r, cache.NewNullCache(), nil, logger)
//	defer runner.Close()
//
//	q, _ := task.NewQueue(task.New("cell.tiff", magnification.Default(), overlay.AlignLeft, ""))
//	report, err := runner.RunBatch(ctx, q, pipeline.BatchOptions{MarginLeft: 100, MarginBottom: 100})
//
// # Main Packages
//
// ## Domain
//
// [magnification] - The fixed calibration catalog: ratio, pixels per
// nanometre and bar length for each supported magnification.
//
// [overlay] - Pure bar and label geometry, the gogpu and fogleman
// compositors, and image decode/encode.
//
// [fonts] - Bold font discovery with an embedded fallback face.
//
// [task] - Tasks, the ordered queue and image import.
//
// ## Orchestration
//
// [pipeline] - Batch runs (sequential or bounded parallel) and cached
// previews.
//
// [preview] - Debounced, cancellable preview scheduling for interactive
// front ends.
//
// ## Persistence
//
// [settings] - The application settings document.
//
// [session] - The saved queue between CLI invocations.
//
// [io] - JSON and TOML queue manifests.
//
// [cache] - Preview cache backends: file, Redis and null.
//
// [history] - Batch run history: JSONL file, MongoDB and null.
//
// ## Support
//
// [errors] - Coded errors with user-facing messages.
//
// [observability] - Batch lifecycle hooks.
//
// [buildinfo] - Version information set at link time.
//
// [task]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/task
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/pipeline
// [overlay]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/overlay
// [magnification]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/magnification
// [fonts]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/fonts
// [preview]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/preview
// [settings]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/settings
// [session]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/session
// [io]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/cache
// [history]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/history
// [errors]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/scalebar/pkg/buildinfo
package pkg
