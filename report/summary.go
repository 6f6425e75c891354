// Package report はグリッド探索の結果を集計し、学習曲線を描画する。
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/seqgrid/param"
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/results"
)

// Summary は (dataset, setting) ごとの集計結果
// 各レコードのメトリクスの最良値（最小値）を集計の対象にする。
type Summary struct {
	Dataset string
	Setting param.Setting

	// Runs は集計したレコード数
	Runs int

	// Mean, Std は最良値の平均と標本標準偏差（Runs == 1 のとき Std は0）
	Mean float64
	Std  float64

	// Best は全レコード中の最良値、BestRecord はそのレコードのID
	Best       float64
	BestRecord string
}

// Summarize はレコードを (dataset, setting) ごとにまとめ、平均の昇順で返す
// メトリクスを持たないレコードは無視する。
//
// パラメータ:
//   - records: 集計するレコード
//   - metric: 集計するメトリクス名（例: "val_loss"）
//
// 使用例:
//
//	records, _ := store.LoadAll()
//	summaries, err := report.Summarize(records, "val_loss")
//	report.WriteTable(os.Stdout, summaries, "val_loss")
func Summarize(records []results.Record, metric string) ([]Summary, error) {
	if metric == "" {
		return nil, errors.NewValidationError("metric", "must not be empty", metric)
	}

	type group struct {
		summary Summary
		values  []float64
	}
	groups := make(map[string]*group)
	var order []string

	for _, rec := range records {
		best, ok := rec.History.Best(metric)
		if !ok {
			continue
		}
		key := groupKey(rec)
		g, found := groups[key]
		if !found {
			g = &group{summary: Summary{
				Dataset: rec.Dataset,
				Setting: rec.Setting,
				Best:    math.Inf(1),
			}}
			groups[key] = g
			order = append(order, key)
		}
		g.values = append(g.values, best)
		if best < g.summary.Best {
			g.summary.Best = best
			g.summary.BestRecord = rec.ID
		}
	}

	out := make([]Summary, 0, len(order))
	for _, key := range order {
		g := groups[key]
		s := g.summary
		s.Runs = len(g.values)
		if s.Runs == 1 {
			s.Mean = g.values[0]
		} else {
			s.Mean, s.Std = stat.MeanStdDev(g.values, nil)
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Mean < out[j].Mean
	})
	return out, nil
}

// groupKey は値の型まで区別するキーを返す（int の 1 と float64 の 1 は別の組）
func groupKey(rec results.Record) string {
	var b strings.Builder
	b.WriteString(rec.Dataset)
	for _, p := range rec.Setting.Params() {
		fmt.Fprintf(&b, "\x00%s=%T:%v", p.Name, p.Value, p.Value)
	}
	return b.String()
}

// WriteTable は集計結果を表形式で書き出す
func WriteTable(w io.Writer, summaries []Summary, metric string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "rank\tdataset\truns\t%s mean\tstd\tbest\tsetting\n", metric)
	for i, s := range summaries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.6g\t%.3g\t%.6g\t%s\n",
			i+1, s.Dataset, s.Runs, s.Mean, s.Std, s.Best, s.Setting.String())
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "report: write table")
	}
	return nil
}

// FindRecord はIDでレコードを探す
func FindRecord(records []results.Record, id string) (results.Record, bool) {
	for _, rec := range records {
		if rec.ID == id {
			return rec, true
		}
	}
	return results.Record{}, false
}
