package model

import (
	"sync"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

// StateManager はモデルの学習状態をスレッドセーフに管理する
// フィールドはgobで保存されるように公開している。
type StateManager struct {
	Fitted bool
	mu     sync.RWMutex

	NFeatures   int
	NOutputs    int
	NSamples    int
	NIterations int
}

// NewStateManager は新しいStateManagerを作成する
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted はモデルが学習済みかどうかを返す
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted はモデルを学習済み状態にする
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset は状態を初期化する
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NOutputs = 0
	s.NSamples = 0
	s.NIterations = 0
}

// SetDimensions は学習時の入出力の次元を記録する
func (s *StateManager) SetDimensions(nFeatures, nOutputs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NOutputs = nOutputs
}

// GetDimensions は学習時の入出力の次元を返す
func (s *StateManager) GetDimensions() (nFeatures, nOutputs int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NOutputs
}

// AddSamples は逐次学習で見たサンプル数とイテレーション数を加算する
func (s *StateManager) AddSamples(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NSamples += n
	s.NIterations++
}

// Iterations は逐次学習のイテレーション数を返す
func (s *StateManager) Iterations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NIterations
}

// RequireFitted はモデルが未学習の場合にエラーを返す
func (s *StateManager) RequireFitted(op string) error {
	if !s.IsFitted() {
		return errors.NewModelError(op, "not fitted", errors.ErrNotFitted)
	}
	return nil
}
