package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/c360studio/oracletrack/protocol"
)

// Scanner builds a complete dataset from an ordered list of target
// files resolved against a data root.
type Scanner struct {
	root    string
	targets []string
	logger  *slog.Logger
}

// NewScanner creates a scanner for the given data root and ordered
// target list. Targets may be plain file names or doublestar glob
// patterns relative to the root.
func NewScanner(root string, targets []string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{root: root, targets: targets, logger: logger}
}

// ScanRoot scans every target file in order and merges the per-file
// datasets with last-write-wins semantics on id collisions. Targets
// that match nothing are skipped; a file that fails to parse aborts
// the scan. The returned collisions document every cross-file
// override.
func (s *Scanner) ScanRoot(ctx context.Context) (protocol.Dataset, []protocol.Collision, error) {
	dataset := make(protocol.Dataset)
	var collisions []protocol.Collision

	for _, target := range s.targets {
		matches, err := doublestar.Glob(os.DirFS(s.root), target)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve target %q: %w", target, err)
		}
		if len(matches) == 0 {
			s.logger.Debug("Target file not present, skipping", slog.String("target", target))
			continue
		}
		sort.Strings(matches)

		for _, match := range matches {
			path := filepath.Join(s.root, filepath.FromSlash(match))
			perFile, err := ScanFile(ctx, path)
			if err != nil {
				return nil, nil, err
			}
			s.logger.Debug("Scanned data file",
				slog.String("file", match),
				slog.Int("records", len(perFile)))
			collisions = append(collisions, dataset.Merge(perFile)...)
		}
	}

	return dataset, collisions, nil
}
