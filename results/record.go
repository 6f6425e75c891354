// Package results はグリッドサーチの結果レコードと、その追記専用ストアを提供する。
//
// 照合アルゴリズム（Count）はストレージの形式から独立しており、
// MemoryStore と FileStore はどちらも同じ Count を使って Lookup を実装する。
package results

import (
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/seqgrid/param"
)

// History はメトリクス名からエポックごとの値への対応
type History map[string][]float64

// Metrics はメトリクス名を辞書順で返す
func (h History) Metrics() []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Epochs は最も長い系列の長さを返す
func (h History) Epochs() int {
	n := 0
	for _, v := range h {
		if len(v) > n {
			n = len(v)
		}
	}
	return n
}

// Best はメトリクスの最小値を返す。NaNは無視する
func (h History) Best(metric string) (float64, bool) {
	values, ok := h[metric]
	if !ok {
		return 0, false
	}
	best, found := math.Inf(1), false
	for _, v := range values {
		if !math.IsNaN(v) && v < best {
			best, found = v, true
		}
	}
	return best, found
}

// Last はメトリクスの最後の値を返す
func (h History) Last(metric string) (float64, bool) {
	values := h[metric]
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}

// Clone は系列をコピーしたHistoryを返す
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	for k, v := range h {
		out[k] = append([]float64(nil), v...)
	}
	return out
}

// Record は1回の成功した学習の結果
type Record struct {
	// ID はレコードの一意な識別子（UUID）
	ID string

	// Dataset はデータセットの識別子
	Dataset string

	// Setting は学習に使ったパラメータ
	Setting param.Setting

	// History はエポックごとのメトリクス
	History History

	// Artifact は保存された成果物のパス（保存しなかった場合は空）
	Artifact string

	// ParamCount は学習可能なパラメータ数（不明な場合は0）
	ParamCount int

	TrainingTime time.Duration
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Matches はレコードが (setting, dataset) に一致するかを返す
// ignored に含まれないsettingの全てのキーがレコードに存在し、値が等しい場合に一致する。
// 値の比較は reflect.DeepEqual で行い、型の変換はしない（1 と 1.0 は異なる）。
func (r Record) Matches(setting param.Setting, dataset string, ignored []string) bool {
	if r.Dataset != dataset {
		return false
	}
	skip := make(map[string]bool, len(ignored))
	for _, k := range ignored {
		skip[k] = true
	}
	for _, p := range setting.Params() {
		if skip[p.Name] {
			continue
		}
		v, ok := r.Setting.Get(p.Name)
		if !ok || !reflect.DeepEqual(v, p.Value) {
			return false
		}
	}
	return true
}

// MarshalZerologObject はレコードの要約をログに出力する
func (r Record) MarshalZerologObject(e *zerolog.Event) {
	e.Str("id", r.ID).
		Str("dataset", r.Dataset).
		Object("setting", r.Setting).
		Str("artifact", r.Artifact).
		Int("epochs", r.History.Epochs()).
		Dur("training_time", r.TrainingTime)
}

// Count は records のうち (setting, dataset) に一致するレコードの数を返す
//
// パラメータ:
//   - records: 検索対象のレコード
//   - setting: 照合するパラメータ
//   - dataset: データセットの識別子
//   - ignored: 照合から除外するパラメータ名
//
// 使用例:
//
//	n := results.Count(all, setting, "data/a.csv", []string{"verbose"})
func Count(records []Record, setting param.Setting, dataset string, ignored []string) int {
	n := 0
	for _, r := range records {
		if r.Matches(setting, dataset, ignored) {
			n++
		}
	}
	return n
}
