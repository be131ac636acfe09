// Package output persists generated variations and names their files.
//
// # Layout
//
// One run writes into a single run folder:
//
//	<output_dir>/<base>_<prefix>/
//	    <base>_000.png
//	    <base>_001.png
//	    ...
//	    thumbnails/thumb_000.png
//	    processing_details.json
//
// When overwriting is disabled the run folder name is made unique with
// UniqueFolder, which appends _1, _2, ... to an existing path.
//
// # File Names
//
// Variation files are numbered by their 0-based position in sweep order.
// Human-readable labels such as "36°" or "33%" are only embedded in file names
// after SanitizeLabel has replaced the degree and percent signs with "deg" and
// "pct".
package output
