package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

// ReadCSV はヘッダ付きCSVを読み込んでTableを作成する
// 全ての列が数値である必要がある。
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrEmptyData, "ReadCSV: missing header")
	}
	if err != nil {
		return nil, errors.Wrap(err, "ReadCSV: header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var values []float64
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "ReadCSV: row %d", rows+1)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.NewValueError("ReadCSV",
					"row "+strconv.Itoa(rows+1)+", column '"+header[j]+"': "+err.Error())
			}
			values = append(values, v)
		}
		rows++
	}
	if rows == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "ReadCSV: no rows")
	}

	return NewTable(header, mat.NewDense(rows, len(header), values))
}

// LoadCSV はファイルパスからCSVを読み込む
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "LoadCSV: open %s", path)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "LoadCSV: %s", path)
	}
	return t, nil
}

// Loader はデータセット識別子からTableを解決する
type Loader interface {
	Load(id string) (*Table, error)
}

// CSVLoader はルートディレクトリ配下のCSVファイルを識別子として読み込むLoader
// 一度読み込んだTableはキャッシュされる（Tableは不変なので共有して問題ない）。
type CSVLoader struct {
	Root string

	mu    sync.Mutex
	cache map[string]*Table
}

// NewCSVLoader は新しいCSVLoaderを作成する
func NewCSVLoader(root string) *CSVLoader {
	return &CSVLoader{Root: root, cache: make(map[string]*Table)}
}

// Load は識別子に対応するCSVを読み込む
func (l *CSVLoader) Load(id string) (*Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.cache[id]; ok {
		return t, nil
	}
	path := id
	if l.Root != "" && !filepath.IsAbs(id) {
		path = filepath.Join(l.Root, id)
	}
	t, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}
	if l.cache == nil {
		l.cache = make(map[string]*Table)
	}
	l.cache[id] = t
	return t, nil
}
