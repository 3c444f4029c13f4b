package checksum

// Phase represents a stage of computing an image checksum.
type Phase int

const (
	PhaseCached Phase = iota // Digest served from the sidecar record.
	PhaseHash                // Full read of the image started.
	PhaseDone                // Digest computed and recorded.
)

// Event describes a single checksum progress update.
type Event struct {
	Phase      Phase
	Path       string
	BytesTotal int64 // File size; -1 if unknown.
	BytesDone  int64 // Bytes hashed so far (hash phase only).
}
