package biometric

// DefaultTolerance is the maximum embedding distance for two faces to
// be considered the same person.
const DefaultTolerance = 0.6

// GalleryEntry pairs an enrolled identity with its embedding.
type GalleryEntry struct {
	IdentityID int64
	Name       string
	Embedding  Embedding
}

// MatchGallery scans the gallery in order and returns the first entry
// whose distance to the candidate is within tolerance. The scan is
// deliberately first-match-wins rather than nearest-neighbor: with a
// sane tolerance two enrolled people do not both fall inside it, and
// the stable gallery order makes the outcome reproducible.
func MatchGallery(candidate Embedding, gallery []GalleryEntry, tolerance float64) (GalleryEntry, bool) {
	for _, entry := range gallery {
		if Verify(candidate, entry.Embedding, tolerance) {
			return entry, true
		}
	}
	return GalleryEntry{}, false
}

// Verify reports whether two embeddings are within tolerance of each
// other. A distance exactly equal to the tolerance counts as a match.
func Verify(a, b Embedding, tolerance float64) bool {
	return Distance(a, b) <= tolerance
}
