// Package storage provides JSON-based persistence for dining data
// snapshots.
//
// Exactly one snapshot file exists at a time; each scrape run replaces it
// wholesale via a temp-file write and rename so readers never observe a
// torn snapshot. The default storage location is
// ~/.local/share/vt-nutrition/.
package storage
