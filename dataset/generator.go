package dataset

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/pkg/log"
	"github.com/YuminosukeSato/seqgrid/tensor"
)

// Mode は生成に使う区間の選択
type Mode string

const (
	// ModeTrain は [0, n_train) を使う
	ModeTrain Mode = "train"
	// ModeValid は [n_train, n_all) を使う
	ModeValid Mode = "valid"
	// ModeManual は呼び出し側が指定した区間を使う
	ModeManual Mode = "manual"
)

// Pair の部品名
const (
	// InputKey は主入力（生の入力ウィンドウ）
	InputKey = "primary"
	// ValueKey はターゲット列のみの入力、または補助出力
	ValueKey = "value"
	// OutputKey は主出力
	OutputKey = "main"
)

// Pair はフォーマット済みの1バッチ分の (入力, 出力)
// 単一テンソルの入出力は InputKey / OutputKey に格納される。
type Pair struct {
	Input  map[string]*tensor.Dense
	Output map[string]*tensor.Dense
}

// FormatFunc は生のバッチ [batch_size, L, dim] をモデル向けの形に変換する
type FormatFunc func(batch *tensor.Dense) (Pair, error)

// SplitFormat は既定のフォーマット: 入力 = 先頭input_length、出力 = 残り
func SplitFormat(inputLength int) FormatFunc {
	return func(batch *tensor.Dense) (Pair, error) {
		steps := batch.Shape()[1]
		in, err := tensor.Gather3(batch, 0, inputLength, nil)
		if err != nil {
			return Pair{}, err
		}
		out, err := tensor.Gather3(batch, inputLength, steps, nil)
		if err != nil {
			return Pair{}, err
		}
		return Pair{
			Input:  map[string]*tensor.Dense{InputKey: in},
			Output: map[string]*tensor.Dense{OutputKey: out},
		}, nil
	}
}

// GenOptions はGenの引数
type GenOptions struct {
	Mode Mode

	// BatchSize が0の場合はDatasetの既定値を使う
	BatchSize int

	// Format がnilの場合は SplitFormat を使う
	Format FormatFunc

	// Shuffle がtrueの場合、エポックごとに新しい順列でアンカーを並べる
	Shuffle bool

	// ManualStart, ManualEnd は ModeManual のときの区間 [start, end)
	ManualStart int
	ManualEnd   int

	// Seed はシャッフル用の乱数シード
	Seed uint64
}

// Generator はウィンドウのバッチを無限に遅延生成する
// 内部でゴルーチンやバッファは持たず、Nextの呼び出しごとに1バッチを作る。
// 巻き戻しはできないので、最初からやり直す場合はGenで新しく作成する。
type Generator struct {
	ds     *Dataset
	values *mat.Dense
	dim    int
	window int
	inLen  int

	mode      Mode
	batchSize int
	format    FormatFunc
	shuffle   bool
	start     int
	end       int

	anchors []int
	order   []int
	pos     int
	pending []int
	epoch   int
	rng     *rand.Rand
}

// Gen は区間とバッチ順序を検証してGeneratorを作成する
//
// 戻り値のエラー:
//   - RangeError: ModeManualの境界が不正、または区間にウィンドウが入らない場合
//   - AlignmentError: Shuffle=falseでバッチサイズが (end - start - L) を割り切らない場合
//
// 順序付き（Shuffle=false）の検証区間は input_length だけ左にずらす。
// これにより最初の検証ウィンドウの出力は n_train から始まり、入力は訓練区間の末尾を使う。
func (d *Dataset) Gen(opts GenOptions) (*Generator, error) {
	bs := opts.BatchSize
	if bs == 0 {
		bs = d.cfg.BatchSize
	}
	if bs < 0 {
		return nil, errors.NewValidationError("batch_size", "must be positive", bs)
	}

	l := d.WindowLength()
	var start, end int
	switch opts.Mode {
	case ModeTrain:
		start, end = 0, d.nTrain
	case ModeValid:
		start, end = d.nTrain, d.nAll
	case ModeManual:
		start, end = opts.ManualStart, opts.ManualEnd
		if start < 0 {
			return nil, errors.NewRangeError(start, end, d.nAll, "start must not be negative")
		}
		if end >= d.nAll {
			return nil, errors.NewRangeError(start, end, d.nAll, "end must be below n_all")
		}
		if end <= start {
			return nil, errors.NewRangeError(start, end, d.nAll, "end must exceed start")
		}
	default:
		return nil, errors.NewValueError("Dataset.Gen", fmt.Sprintf("invalid mode %q", opts.Mode))
	}

	count := end - start - l
	if count <= 0 {
		return nil, errors.NewRangeError(start, end, d.nAll, fmt.Sprintf("range holds no window of length %d", l))
	}

	if !opts.Shuffle {
		if count%bs != 0 {
			return nil, errors.NewAlignmentError(start, end, l, bs)
		}
		if opts.Mode == ModeValid {
			start -= d.cfg.InputLength
			end -= d.cfg.InputLength
		}
	}

	format := opts.Format
	if format == nil {
		format = SplitFormat(d.cfg.InputLength)
	}

	values, err := d.AsArray(nil)
	if err != nil {
		return nil, err
	}

	g := &Generator{
		ds:        d,
		values:    values,
		dim:       d.Dim(),
		window:    l,
		inLen:     d.cfg.InputLength,
		mode:      opts.Mode,
		batchSize: bs,
		format:    format,
		shuffle:   opts.Shuffle,
		start:     start,
		end:       end,
		rng:       rand.New(rand.NewPCG(opts.Seed, opts.Seed)),
	}

	g.anchors = make([]int, count)
	for k := range g.anchors {
		g.anchors[k] = start + d.cfg.InputLength + k
	}
	g.order = make([]int, count)
	g.newPass()

	d.logger.Debug("Generator created",
		log.OperationKey, log.OperationGenerate,
		log.PhaseKey, string(opts.Mode),
		log.BatchSizeKey, bs,
		log.StepsPerEpochKey, g.StepsPerEpoch(),
		"shuffle", opts.Shuffle,
		"start", start,
		"end", end,
	)
	return g, nil
}

// newPass は次のエポックのアンカー順序を作る
func (g *Generator) newPass() {
	copy(g.order, g.anchors)
	if g.shuffle {
		g.rng.Shuffle(len(g.order), func(i, j int) {
			g.order[i], g.order[j] = g.order[j], g.order[i]
		})
	} else {
		// batch_size × (count/batch_size) に並べて列優先で読む:
		// スロットjの連続するバッチが同じ部分系列を1ステップずつ進む
		m := len(g.anchors) / g.batchSize
		for k := 0; k < m; k++ {
			for j := 0; j < g.batchSize; j++ {
				g.order[k*g.batchSize+j] = g.anchors[j*m+k]
			}
		}
	}
	g.pos = 0
}

// NextAnchors は次のバッチのアンカー位置を返す
// シャッフル時にエポックの端数が出た場合は次のエポックの先頭と合わせて1バッチにする。
func (g *Generator) NextAnchors() []int {
	for len(g.pending) < g.batchSize {
		if g.pos == len(g.order) {
			g.epoch++
			g.newPass()
		}
		g.pending = append(g.pending, g.order[g.pos])
		g.pos++
	}
	batch := g.pending[:g.batchSize:g.batchSize]
	g.pending = append([]int(nil), g.pending[g.batchSize:]...)
	return batch
}

// NextBatch は次のフォーマット前のバッチ [batch_size, L, dim] を返す
func (g *Generator) NextBatch() *tensor.Dense {
	anchors := g.NextAnchors()
	batch := tensor.Zeros(g.batchSize, g.window, g.dim)
	raw := g.values.RawMatrix()
	out := batch.Data()
	rowLen := g.dim
	for slot, anchor := range anchors {
		first := anchor - g.inLen
		for s := 0; s < g.window; s++ {
			src := raw.Data[(first+s)*raw.Stride : (first+s)*raw.Stride+rowLen]
			copy(out[(slot*g.window+s)*rowLen:], src)
		}
	}
	return batch
}

// Next は次のフォーマット済みバッチを返す
func (g *Generator) Next() (Pair, error) {
	return g.format(g.NextBatch())
}

// StepsPerEpoch は1エポックあたりの完全なバッチ数を返す
func (g *Generator) StepsPerEpoch() int {
	return len(g.anchors) / g.batchSize
}

// Epoch は完了したエポック数を返す
func (g *Generator) Epoch() int {
	return g.epoch
}

// Bounds は実際に使われる区間 [start, end) を返す（検証区間のずらしを反映済み）
func (g *Generator) Bounds() (int, int) {
	return g.start, g.end
}

// BatchSize はこのGeneratorのバッチサイズを返す
func (g *Generator) BatchSize() int {
	return g.batchSize
}

// Samples は1エポックあたりのウィンドウ数を返す
func (g *Generator) Samples() int {
	return len(g.anchors)
}
