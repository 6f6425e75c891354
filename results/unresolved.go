package results

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/seqgrid/param"
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

// Unresolved は試行回数を使い切っても必要な成功数に届かなかった組
type Unresolved struct {
	Dataset   string        `json:"dataset"`
	Setting   param.Setting `json:"setting"`
	Successes int           `json:"successes"`
	Required  int           `json:"required"`
	Errors    int           `json:"errors"`
	LastError string        `json:"last_error,omitempty"`
}

// SaveUnresolved は未解決の組をJSONで書き出す
// 空のリストも [] として書き出す。
func SaveUnresolved(path string, list []Unresolved) error {
	if list == nil {
		list = []Unresolved{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return errors.Wrap(err, "results: marshal unresolved list")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "results: create %s", dir)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "results: write %s", path)
	}
	return nil
}

// LoadUnresolved はSaveUnresolvedで書き出したファイルを読み込む
// JSONの数値は float64 として読み込まれる。
func LoadUnresolved(path string) ([]Unresolved, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "results: read %s", path)
	}
	var list []Unresolved
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrapf(err, "results: decode %s", path)
	}
	return list, nil
}
