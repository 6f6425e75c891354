// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// データセット・サンプル生成・グリッドサーチの各段階で発生するエラーを構造化して扱います。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("seqgrid-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConstantColumnWarning は訓練区間で標準偏差が0になった列に対して発生する警告です。
// 該当列はイプシロンで割られるため、スケーリング後もほぼ定数のままになります。
type ConstantColumnWarning struct {
	Column  string
	Epsilon float64
}

func (w *ConstantColumnWarning) Error() string {
	return fmt.Sprintf("column '%s' is constant over the training rows; its scale is floored to %g", w.Column, w.Epsilon)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConstantColumnWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("column", w.Column).
		Float64("epsilon", w.Epsilon).
		Str("type", "ConstantColumnWarning")
}

// NewConstantColumnWarning は新しいConstantColumnWarningを作成します。
func NewConstantColumnWarning(column string, epsilon float64) *ConstantColumnWarning {
	return &ConstantColumnWarning{Column: column, Epsilon: epsilon}
}

// ===========================================================================
//
//	データセット・生成器のエラー型
//
// ===========================================================================

// InvalidSelectorError は列セレクタの形式が不正な場合のエラーです。
// 受け付けるのは "default"/"all"、列名のリスト、整数インデックスのリストのみです。
type InvalidSelectorError struct {
	Selector interface{}
	Reason   string
}

func (e *InvalidSelectorError) Error() string {
	return fmt.Sprintf("seqgrid: column selector %#v not supported: %s", e.Selector, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidSelectorError) MarshalZerologObject(event *zerolog.Event) {
	event.Interface("selector", e.Selector).
		Str("reason", e.Reason).
		Str("type", "InvalidSelectorError")
}

// NewInvalidSelectorError は新しいInvalidSelectorErrorを作成し、スタックトレースを付与します。
func NewInvalidSelectorError(selector interface{}, reason string) error {
	return errors.WithStack(&InvalidSelectorError{Selector: selector, Reason: reason})
}

// AlignmentError は順序付き（非シャッフル）生成でバッチサイズが範囲長を割り切らない場合のエラーです。
type AlignmentError struct {
	Start     int
	End       int
	Window    int
	BatchSize int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("seqgrid: ordered generation requires batch_size (%d) to divide end - start - window (%d - %d - %d = %d)",
		e.BatchSize, e.End, e.Start, e.Window, e.End-e.Start-e.Window)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *AlignmentError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("start", e.Start).
		Int("end", e.End).
		Int("window", e.Window).
		Int("batch_size", e.BatchSize).
		Str("type", "AlignmentError")
}

// NewAlignmentError は新しいAlignmentErrorを作成し、スタックトレースを付与します。
func NewAlignmentError(start, end, window, batchSize int) error {
	return errors.WithStack(&AlignmentError{Start: start, End: end, Window: window, BatchSize: batchSize})
}

// RangeError は生成範囲の境界が不正な場合のエラーです。
type RangeError struct {
	Start  int
	End    int
	Limit  int
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("seqgrid: invalid range [%d, %d) (limit %d): %s", e.Start, e.End, e.Limit, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *RangeError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("start", e.Start).
		Int("end", e.End).
		Int("limit", e.Limit).
		Str("reason", e.Reason).
		Str("type", "RangeError")
}

// NewRangeError は新しいRangeErrorを作成し、スタックトレースを付与します。
func NewRangeError(start, end, limit int, reason string) error {
	return errors.WithStack(&RangeError{Start: start, End: end, Limit: limit, Reason: reason})
}

// UnsupportedFormatError は未知の入出力フォーマット種別が要求された場合のエラーです。
type UnsupportedFormatError struct {
	Kind string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("seqgrid: io format '%s' not implemented", e.Kind)
}

// NewUnsupportedFormatError は新しいUnsupportedFormatErrorを作成し、スタックトレースを付与します。
func NewUnsupportedFormatError(kind string) error {
	return errors.WithStack(&UnsupportedFormatError{Kind: kind})
}

// ===========================================================================
//
//	グリッドサーチのエラー型
//
// ===========================================================================

// TrainingError は外部の学習処理が1回の試行で失敗したことを表します。
// グリッドサーチでは再試行可能なエラーとして扱われます。
type TrainingError struct {
	Dataset string
	Attempt int
	Err     error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("seqgrid: training on '%s' failed at attempt %d: %v", e.Dataset, e.Attempt, e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *TrainingError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("dataset", e.Dataset).
		Int("attempt", e.Attempt).
		AnErr("cause", e.Err).
		Str("type", "TrainingError")
}

// NewTrainingError は新しいTrainingErrorを作成し、スタックトレースを付与します。
func NewTrainingError(dataset string, attempt int, err error) error {
	return errors.WithStack(&TrainingError{Dataset: dataset, Attempt: attempt, Err: err})
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("seqgrid: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("seqgrid: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("seqgrid: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError は学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("seqgrid: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("seqgrid: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("seqgrid: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// CombineErrors は2つのエラーを1つにまとめます。どちらかがnilの場合はもう一方を返します。
func CombineErrors(err, other error) error {
	return errors.CombineErrors(err, other)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")

	// ErrNotFitted はモデルが未学習の場合のエラーです。
	ErrNotFitted = New("model is not fitted")
)
