package pipeline

import "path"

// Stage directories under both storage roots. The web tier and the GPU
// tier mount the same share at different absolute roots, so database
// records keep stage-relative paths and each side prefixes its own root.
const (
	RawDir       = "raw"
	ProcessedDir = "processed"
	DiarizedDir  = "diarized"
	ChunksDir    = "chunks"
)

// PathMapper translates stage-relative paths between the two mounts
type PathMapper struct {
	WebRoot string
	GPURoot string
}

// WebPath returns the absolute path of a stage-relative name on the web
// tier's mount.
func (m PathMapper) WebPath(relative string) string {
	return path.Join(m.WebRoot, relative)
}

// GPUPath returns the absolute path the GPU tier sees for the same file
func (m PathMapper) GPUPath(relative string) string {
	return path.Join(m.GPURoot, relative)
}

// RawPath builds the stage-relative path for a raw upload
func RawPath(name string) string {
	return path.Join(RawDir, name)
}

// ProcessedPath builds the stage-relative path for a cleaned recording
func ProcessedPath(name string) string {
	return path.Join(ProcessedDir, name)
}

// DiarizedPath builds the stage-relative path for a diarized recording
func DiarizedPath(name string) string {
	return path.Join(DiarizedDir, name)
}

// ChunkPath builds the stage-relative path for a chunk file
func ChunkPath(name string) string {
	return path.Join(ChunksDir, name)
}
