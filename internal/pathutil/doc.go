// Package pathutil formats capture filenames and bootstraps output
// directories, independent of any particular device or sink.
package pathutil
