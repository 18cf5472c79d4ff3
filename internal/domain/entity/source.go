package entity

// SourceItem is one named text blob offered to the ingestor.
// Err is set when the blob could not be read; Raw is then ignored.
type SourceItem struct {
	Name string
	Raw  string
	Err  error
}
