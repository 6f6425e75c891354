package gridsearch

import (
	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/seqgrid/param"
	"github.com/YuminosukeSato/seqgrid/results"
)

// State は (setting, dataset) の組の進行状態
type State int

const (
	// StatePending はまだ試行していない状態
	StatePending State = iota
	// StateAttempting は試行中の状態
	StateAttempting
	// StateResolved は必要な成功数に達した状態（既存のレコードで満たされていた場合を含む）
	StateResolved
	// StateExhausted は失敗回数が試行予算に達した状態
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAttempting:
		return "attempting"
	case StateResolved:
		return "resolved"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// RunOutcome は1つの組の試行回数と成功数を管理する状態機械
//
// 遷移:
//
//	Pending --Begin--> Attempting --Succeed--> Attempting | Resolved
//	                   Attempting --Fail-----> Attempting | Exhausted
//
// Trials は失敗の予算で、成功した試行は予算を消費しない。
type RunOutcome struct {
	Dataset  string
	Setting  param.Setting
	Found    int
	Required int
	Trials   int

	Successes int
	Errors    int
	LastErr   error

	state State
}

// NewRunOutcome は組の状態を作成する
// 既存のレコード数 found が required を満たしている場合は最初から Resolved になる。
func NewRunOutcome(dataset string, setting param.Setting, found, required, trials int) *RunOutcome {
	o := &RunOutcome{
		Dataset:  dataset,
		Setting:  setting,
		Found:    found,
		Required: required,
		Trials:   trials,
	}
	switch {
	case found >= required:
		o.state = StateResolved
	case trials <= 0:
		o.state = StateExhausted
	default:
		o.state = StatePending
	}
	return o
}

// State は現在の状態を返す
func (o *RunOutcome) State() State { return o.state }

// Remaining は残りの必要な成功数を返す
func (o *RunOutcome) Remaining() int {
	n := o.Required - o.Found - o.Successes
	if n < 0 {
		return 0
	}
	return n
}

// Attempts はこの実行での試行回数を返す
func (o *RunOutcome) Attempts() int { return o.Successes + o.Errors }

// NeedsAttempt はさらに試行が必要かを返す
func (o *RunOutcome) NeedsAttempt() bool {
	return o.state == StatePending || o.state == StateAttempting
}

// Skipped は一度も試行せずに解決済みだったかを返す
func (o *RunOutcome) Skipped() bool {
	return o.state == StateResolved && o.Attempts() == 0
}

// Begin は次の試行を開始する
func (o *RunOutcome) Begin() {
	if o.state == StatePending {
		o.state = StateAttempting
	}
}

// Succeed は成功した試行を記録する
func (o *RunOutcome) Succeed() {
	if o.state != StateAttempting {
		return
	}
	o.Successes++
	if o.Remaining() == 0 {
		o.state = StateResolved
	}
}

// Fail は失敗した試行を記録する
func (o *RunOutcome) Fail(err error) {
	if o.state != StateAttempting {
		return
	}
	o.Errors++
	o.LastErr = err
	if o.Errors >= o.Trials {
		o.state = StateExhausted
	}
}

// Unresolved は未解決リスト用の要約を返す
func (o *RunOutcome) Unresolved() results.Unresolved {
	u := results.Unresolved{
		Dataset:   o.Dataset,
		Setting:   o.Setting,
		Successes: o.Found + o.Successes,
		Required:  o.Required,
		Errors:    o.Errors,
	}
	if o.LastErr != nil {
		u.LastError = o.LastErr.Error()
	}
	return u
}

// MarshalZerologObject は状態をログに出力する
func (o *RunOutcome) MarshalZerologObject(e *zerolog.Event) {
	e.Str("dataset", o.Dataset).
		Object("setting", o.Setting).
		Str("state", o.state.String()).
		Int("found", o.Found).
		Int("successes", o.Successes).
		Int("errors", o.Errors).
		Int("required", o.Required)
}
