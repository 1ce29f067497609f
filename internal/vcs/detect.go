package vcs

import (
	"fmt"
	"os"
	"path/filepath"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
)

// TarMarkerFile is the metadata file the tar backend leaves at the root of
// an extracted archive so the working copy can be re-identified later.
const TarMarkerFile = ".vcsync-tar.yaml"

// detectionMarkers lists the administrative entries that identify a working
// copy, in precedence order. Git wins over the rest when a path somehow
// carries several markers.
var detectionMarkers = []struct { //nolint:gochecknoglobals // Constant-like table
	kind   Kind
	marker string
}{
	{KindGit, ".git"},
	{KindSvn, ".svn"},
	{KindHg, ".hg"},
	{KindBzr, ".bzr"},
	{KindTar, TarMarkerFile},
}

// DetectKind inspects path and returns the kind of working copy found there.
func DetectKind(path string) (Kind, error) {
	for _, entry := range detectionMarkers {
		if _, err := os.Stat(filepath.Join(path, entry.marker)); err == nil {
			return entry.kind, nil
		}
	}
	return KindUnknown, fmt.Errorf("%s: %w", path, vcserrors.ErrNotWorkingCopy)
}
