// Package data loads and saves point matrices.
//
// Formats are chosen by file extension: .csv, .tsv and .txt are delimited
// text, .bin is a checksummed binary format with optional zstd or LZ4
// payload compression, and any of them may be wrapped in .gz. Paths may be
// local files or s3://, minio:// and mem:// URLs, all served through the
// blobstore package.
//
// Text parsing reports typed errors with coordinates: a ragged row surfaces
// a treesearch.DimensionError and a non-numeric cell surfaces
// treesearch.ErrInvalidParameter, both wrapped in a ParseError carrying the
// row and column.
package data
