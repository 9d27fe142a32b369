// Package extract describes a downloaded register extract awaiting ingestion.
package extract

// File is one downloaded extract. Dir is the run's private work directory;
// Path lies inside it.
type File struct {
	URL   string
	Dir   string
	Path  string
	Bytes int64
}
