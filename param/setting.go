// Package param はハイパーパラメータの組（Setting）とグリッドの展開を提供する。
//
// Setting は不変の値として扱われ、各コンポーネントへ値渡しで受け渡される。
// キーの順序はグリッドで宣言された順序を保持する。
package param

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

func init() {
	// YAMLやJSONから得た入れ子の値
	gob.Register([]interface{}{})
	gob.Register(map[string]interface{}{})
}

// Param は名前付きのパラメータ値
type Param struct {
	Name  string
	Value interface{}
}

// Setting は1回の学習に使うパラメータの組
// ゼロ値は空のSettingとして使える。
type Setting struct {
	params []Param
}

// NewSetting は与えられた順序でSettingを作成する
// 名前が重複している場合や空の場合はエラーを返す。
func NewSetting(params ...Param) (Setting, error) {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p.Name == "" {
			return Setting{}, errors.NewValidationError("name", "parameter name must not be empty", p.Value)
		}
		if seen[p.Name] {
			return Setting{}, errors.NewValidationError(p.Name, "duplicate parameter", p.Value)
		}
		seen[p.Name] = true
	}
	return Setting{params: append([]Param(nil), params...)}, nil
}

// FromMap はmapからSettingを作成する。キーは辞書順に並べる
func FromMap(m map[string]interface{}) Setting {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	params := make([]Param, len(names))
	for i, k := range names {
		params[i] = Param{Name: k, Value: m[k]}
	}
	return Setting{params: params}
}

// Len はパラメータ数を返す
func (s Setting) Len() int { return len(s.params) }

// Get は名前に対応する値を返す
func (s Setting) Get(name string) (interface{}, bool) {
	for _, p := range s.params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Has は名前が存在するかを返す
func (s Setting) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Names は宣言順の名前を返す
func (s Setting) Names() []string {
	names := make([]string, len(s.params))
	for i, p := range s.params {
		names[i] = p.Name
	}
	return names
}

// Params は宣言順のパラメータのコピーを返す
func (s Setting) Params() []Param {
	return append([]Param(nil), s.params...)
}

// Map はパラメータをmapとして返す
func (s Setting) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(s.params))
	for _, p := range s.params {
		m[p.Name] = p.Value
	}
	return m
}

// With は name を value に置き換えた（または末尾に追加した）新しいSettingを返す
func (s Setting) With(name string, value interface{}) Setting {
	params := s.Params()
	for i := range params {
		if params[i].Name == name {
			params[i].Value = value
			return Setting{params: params}
		}
	}
	return Setting{params: append(params, Param{Name: name, Value: value})}
}

// Without は指定した名前を除いた新しいSettingを返す
func (s Setting) Without(names ...string) Setting {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var params []Param
	for _, p := range s.params {
		if !drop[p.Name] {
			params = append(params, p)
		}
	}
	return Setting{params: params}
}

// Int は整数パラメータを返す。値がintでない場合はエラー
func (s Setting) Int(name string) (int, error) {
	v, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	i, ok := v.(int)
	if !ok {
		return 0, typeError(name, "int", v)
	}
	return i, nil
}

// IntOr は存在しない場合に def を返すInt
func (s Setting) IntOr(name string, def int) (int, error) {
	if !s.Has(name) {
		return def, nil
	}
	return s.Int(name)
}

// Float は実数パラメータを返す
// int は float64 として受け付ける。
func (s Setting) Float(name string) (float64, error) {
	v, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	f, ok := asFloat(v)
	if !ok {
		return 0, typeError(name, "float64", v)
	}
	return f, nil
}

// FloatOr は存在しない場合に def を返すFloat
func (s Setting) FloatOr(name string, def float64) (float64, error) {
	if !s.Has(name) {
		return def, nil
	}
	return s.Float(name)
}

// Str は文字列パラメータを返す
func (s Setting) Str(name string) (string, error) {
	v, err := s.lookup(name)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", typeError(name, "string", v)
	}
	return str, nil
}

// Bool は真偽値パラメータを返す
func (s Setting) Bool(name string) (bool, error) {
	v, err := s.lookup(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, typeError(name, "bool", v)
	}
	return b, nil
}

// BoolOr は存在しない場合に def を返すBool
func (s Setting) BoolOr(name string, def bool) (bool, error) {
	if !s.Has(name) {
		return def, nil
	}
	return s.Bool(name)
}

// Floats は実数のリストを返す（[]float64 または数値のみの []interface{}）
func (s Setting) Floats(name string) ([]float64, error) {
	v, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	switch list := v.(type) {
	case []float64:
		return append([]float64(nil), list...), nil
	case []interface{}:
		out := make([]float64, len(list))
		for i, e := range list {
			f, ok := asFloat(e)
			if !ok {
				return nil, typeError(name, "[]float64", v)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, typeError(name, "[]float64", v)
	}
}

// Strings は文字列のリストを返す（[]string または文字列のみの []interface{}）
func (s Setting) Strings(name string) ([]string, error) {
	v, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), nil
	case []interface{}:
		out := make([]string, len(list))
		for i, e := range list {
			str, ok := e.(string)
			if !ok {
				return nil, typeError(name, "[]string", v)
			}
			out[i] = str
		}
		return out, nil
	default:
		return nil, typeError(name, "[]string", v)
	}
}

func (s Setting) lookup(name string) (interface{}, error) {
	v, ok := s.Get(name)
	if !ok {
		return nil, errors.NewValidationError(name, "missing parameter", nil)
	}
	return v, nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func typeError(name, want string, got interface{}) error {
	return errors.NewValidationError(name, fmt.Sprintf("expected %s, got %T", want, got), got)
}

// String は宣言順に "name=value" を並べた文字列を返す
func (s Setting) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range s.params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", p.Name, p.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON は宣言順を保ったJSONオブジェクトを出力する
func (s Setting) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range s.params {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "param: marshal %s", p.Name)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON はJSONオブジェクトを出現順にSettingへ読み込む
func (s *Setting) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "param: decode setting")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.Newf("param: expected JSON object, got %v", tok)
	}
	var params []Param
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "param: decode setting key")
		}
		name, _ := tok.(string)
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return errors.Wrapf(err, "param: decode %s", name)
		}
		params = append(params, Param{Name: name, Value: value})
	}
	decoded, err := NewSetting(params...)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// MarshalZerologObject はパラメータをログのフィールドとして出力する
func (s Setting) MarshalZerologObject(e *zerolog.Event) {
	for _, p := range s.params {
		e.Interface(p.Name, p.Value)
	}
}

// GobEncode は宣言順と値の具体型を保ったままエンコードする
func (s Setting) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobSetting{Params: s.params}); err != nil {
		return nil, errors.Wrap(err, "param: gob encode setting")
	}
	return buf.Bytes(), nil
}

// GobDecode はGobEncodeの出力を読み込む
func (s *Setting) GobDecode(data []byte) error {
	var decoded gobSetting
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&decoded); err != nil {
		return errors.Wrap(err, "param: gob decode setting")
	}
	s.params = decoded.Params
	return nil
}

type gobSetting struct {
	Params []Param
}
