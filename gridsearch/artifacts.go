package gridsearch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

// ArtifactExt は成果物ファイルの拡張子
const ArtifactExt = ".gob"

// artifactNamer は NNNNNN_<timestamp>_<code>.gob 形式の成果物パスを払い出す
// 連番はディレクトリ内の既存ファイルの最大値から続ける。
type artifactNamer struct {
	dir  string
	next int
}

func newArtifactNamer(dir string) (*artifactNamer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "gridsearch: create artifacts dir %s", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "gridsearch: read artifacts dir %s", dir)
	}
	n := &artifactNamer{dir: dir}
	for _, e := range entries {
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok || len(prefix) != 6 {
			continue
		}
		if seq, err := strconv.Atoi(prefix); err == nil && seq >= n.next {
			n.next = seq + 1
		}
	}
	return n, nil
}

func (n *artifactNamer) Next(now time.Time) string {
	code := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("%06d_%s_%s%s", n.next, now.Format("20060102-150405"), code, ArtifactExt)
	n.next++
	return filepath.Join(n.dir, name)
}
