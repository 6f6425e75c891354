// Package config はYAMLの実験設定ファイルを読み込む。
//
// グリッドはYAMLのマッピングノードから直接デコードするので、ファイルに
// 書かれたキーの順序がそのまま展開順になる。値は型変換せずにそのまま使う。
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/seqgrid/gridsearch"
	"github.com/YuminosukeSato/seqgrid/param"
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/pkg/log"
)

// ModelLinear は forecast.LinearTrainer を使うモデル名
const ModelLinear = "linear"

// Config は実験設定
type Config struct {
	// Datasets はデータセット識別子（DataDir からの相対パス、または絶対パス）
	Datasets []string `yaml:"datasets"`
	DataDir  string   `yaml:"data_dir"`

	Model string `yaml:"model"`

	// Store は結果ストアのファイル、ResumeFrom は既存の成功数を数える別のストア
	Store      string `yaml:"store"`
	ResumeFrom string `yaml:"resume_from"`

	// ArtifactsDir が空の場合、学習済みモデルは保存しない
	ArtifactsDir string `yaml:"artifacts_dir"`

	// Failures は試行予算を使い切った組を書き出すJSONファイル
	Failures string `yaml:"failures"`

	LogLevel string `yaml:"log_level"`

	Runner Runner `yaml:"runner"`
	Grid   Grid   `yaml:"grid"`
}

// Runner は gridsearch.Options に対応する設定
type Runner struct {
	Trials            int      `yaml:"trials"`
	RequiredSuccesses int      `yaml:"required_successes"`
	IgnoredParams     []string `yaml:"ignored_params"`
}

// Grid は宣言順を保ったパラメータグリッドの定義
type Grid struct {
	Axes []param.Axis
}

// UnmarshalYAML はマッピングノードをキーの順に軸へ変換する
// 値がシーケンスでない場合は1要素の軸として扱う。
func (g *Grid) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.NewValidationError("grid", fmt.Sprintf("expected a mapping at line %d", node.Line), node.Value)
	}
	axes := make([]param.Axis, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var name string
		if err := key.Decode(&name); err != nil {
			return errors.Wrapf(err, "grid: key at line %d", key.Line)
		}

		var values []interface{}
		if value.Kind == yaml.SequenceNode {
			if err := value.Decode(&values); err != nil {
				return errors.Wrapf(err, "grid: values of %q", name)
			}
		} else {
			var v interface{}
			if err := value.Decode(&v); err != nil {
				return errors.Wrapf(err, "grid: value of %q", name)
			}
			values = []interface{}{v}
		}
		axes = append(axes, param.Axis{Name: name, Values: values})
	}
	g.Axes = axes
	return nil
}

// Default は既定値で埋めたConfigを返す
func Default() Config {
	defaults := gridsearch.DefaultOptions()
	return Config{
		Model:    ModelLinear,
		LogLevel: "info",
		Runner: Runner{
			Trials:            defaults.Trials,
			RequiredSuccesses: defaults.RequiredSuccesses,
		},
	}
}

// Load はファイルから設定を読み込んで検証する
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "config: %s", path)
	}
	return cfg, nil
}

// Parse はYAMLを読み込んで検証する
// 未知のキーはエラーになる。
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if err == io.EOF {
			return nil, errors.NewValidationError("config", "empty document", nil)
		}
		return nil, errors.Wrap(err, "config: decode")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は設定の整合性を検証する
func (c *Config) Validate() error {
	if len(c.Datasets) == 0 {
		return errors.NewValidationError("datasets", "at least one dataset is required", c.Datasets)
	}
	seen := make(map[string]bool, len(c.Datasets))
	for _, d := range c.Datasets {
		if d == "" {
			return errors.NewValidationError("datasets", "dataset identifiers must not be empty", c.Datasets)
		}
		if seen[d] {
			return errors.NewValidationError("datasets", "duplicate dataset "+d, c.Datasets)
		}
		seen[d] = true
	}
	if c.Model != ModelLinear {
		return errors.NewValidationError("model", "unsupported model", c.Model)
	}
	if c.Store == "" {
		return errors.NewValidationError("store", "must not be empty", c.Store)
	}
	if c.ResumeFrom != "" && c.ResumeFrom == c.Store {
		return errors.NewValidationError("resume_from", "must differ from store", c.ResumeFrom)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("log_level", err.Error(), c.LogLevel)
	}
	if err := c.Options().Validate(); err != nil {
		return err
	}
	if _, err := c.ParamGrid(); err != nil {
		return err
	}
	return nil
}

// Options は gridsearch.Options を返す（ResumeFrom は呼び出し側で設定する）
func (c *Config) Options() gridsearch.Options {
	return gridsearch.Options{
		Trials:            c.Runner.Trials,
		RequiredSuccesses: c.Runner.RequiredSuccesses,
		IgnoredParams:     append([]string(nil), c.Runner.IgnoredParams...),
	}
}

// ParamGrid は宣言順の param.Grid を返す
func (c *Config) ParamGrid() (*param.Grid, error) {
	return param.NewGrid(c.Grid.Axes...)
}
