// Package installer places extension artifacts into the host extension
// directory. Archives are downloaded (or opened from disk), verified when a
// checksum is known, extracted into a staging directory and renamed into
// place; unpacked directories are copied. Nothing prompts.
package installer
