// Package io reads and writes queue manifests.
//
// A manifest lists images with the calibration to apply to each, so a queue
// curated on one machine can be replayed on another or kept under version
// control next to the data. Two encodings are supported, chosen by file
// extension: JSON (.json) and TOML (.toml).
//
// # Format
//
//	version = 1
//
//	[[tasks]]
//	image = "cells/a.tiff"
//	magnification = 57
//	alignment = "right"
//
//	[[tasks]]
//	image = "cells/b.png"
//	output = "out/b_ScaleBar.png"
//
// The JSON form has the same shape:
//
//	{"version": 1, "tasks": [{"image": "cells/a.tiff", "magnification": 57}]}
//
// # Fields
//
//   - image: required; relative paths resolve against the manifest's directory
//   - magnification: catalog ratio; 0 or absent uses the import default
//   - alignment: left, center or right; absent uses the import default
//   - output: output path; absent derives {dir}/{name}_ScaleBar{ext}
//
// Task IDs are not part of a manifest; every import creates fresh tasks.
package io
