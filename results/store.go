package results

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"sync"

	"github.com/YuminosukeSato/seqgrid/param"
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/pkg/log"
)

// Store は結果レコードの追記専用ストア
type Store interface {
	// Append はレコードを1件追記する。戻った時点で永続化が完了している
	Append(r Record) error

	// LoadAll は全レコードを追記順に返す
	LoadAll() ([]Record, error)

	// Lookup は (setting, dataset) に一致するレコードの数を返す
	Lookup(setting param.Setting, dataset string, ignored []string) (int, error)
}

// MemoryStore はメモリ上のStore
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore は records を初期内容とするMemoryStoreを作成する
func NewMemoryStore(records ...Record) *MemoryStore {
	return &MemoryStore{records: append([]Record(nil), records...)}
}

// Append はレコードを追記する
func (s *MemoryStore) Append(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

// LoadAll は全レコードのコピーを返す
func (s *MemoryStore) LoadAll() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...), nil
}

// Lookup は一致するレコードの数を返す
func (s *MemoryStore) Lookup(setting param.Setting, dataset string, ignored []string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Count(s.records, setting, dataset, ignored), nil
}

// Len はレコード数を返す
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// fileFormat はFileStoreのファイル内容
type fileFormat struct {
	Version int
	Records []Record
}

const fileFormatVersion = 1

// FileStore はgobファイルに保存されるStore
// 追記のたびにファイル全体を一時ファイルへ書き出してから置き換えるため、
// 途中でプロセスが停止しても失われるのは書き込み中の1件のみになる。
type FileStore struct {
	path string

	mu      sync.RWMutex
	records []Record
	logger  log.Logger
}

// OpenFileStore はファイルを開いてFileStoreを作成する
// ファイルが存在しない場合は空のストアとして開き、最初のAppendで作成する。
//
// パラメータ:
//   - path: ストアのファイルパス
//
// 戻り値:
//   - *FileStore: 既存のレコードを読み込んだストア
//   - error: ファイルの読み込みまたはデコードに失敗した場合
//
// 使用例:
//
//	store, err := results.OpenFileStore("results/linear.gob")
//	if err != nil {
//	    return err
//	}
//	n, _ := store.Lookup(setting, "data/a.csv", nil)
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, logger: log.GetLoggerWithName("results.store")}

	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	s.records = records
	s.logger.Debug("Result store opened", "path", path, "records", len(records))
	return s, nil
}

func readRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "results: open %s", path)
	}
	defer f.Close()

	var content fileFormat
	if err := gob.NewDecoder(f).Decode(&content); err != nil {
		return nil, errors.Wrapf(err, "results: decode %s", path)
	}
	if content.Version != fileFormatVersion {
		return nil, errors.Newf("results: %s has unsupported format version %d", path, content.Version)
	}
	return content.Records, nil
}

// Path はファイルパスを返す
func (s *FileStore) Path() string { return s.path }

// Append はレコードを追記し、ファイル全体を書き直す
// 書き込みに失敗した場合、レコードは追加されない。
func (s *FileStore) Append(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := append(s.records[:len(s.records):len(s.records)], r)
	if err := writeRecords(s.path, records); err != nil {
		return err
	}
	s.records = records
	s.logger.Debug("Record appended",
		log.DatasetKey, r.Dataset,
		log.SettingKey, r.Setting.String(),
		"records", len(records),
	)
	return nil
}

func writeRecords(path string, records []Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "results: create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "results: create temp file in %s", dir)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(fileFormat{Version: fileFormatVersion, Records: records}); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "results: encode %s", path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "results: sync %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "results: close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "results: replace %s", path)
	}
	return nil
}

// LoadAll は全レコードのコピーを返す
func (s *FileStore) LoadAll() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...), nil
}

// Lookup は一致するレコードの数を返す
func (s *FileStore) Lookup(setting param.Setting, dataset string, ignored []string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Count(s.records, setting, dataset, ignored), nil
}

// Reload はファイルからレコードを読み直す
func (s *FileStore) Reload() error {
	records, err := readRecords(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}
