package series

import (
	"fmt"
	"os"

	"votemap-api/internal/classify"

	"gopkg.in/yaml.v3"
)

// 文档注释：序列与阶梯配置文件（YAML）
// 背景：允许在不改代码的情况下调整阈值、色阶与序列倍率；缺省项回退到内置默认值。
// 约束：任何校验失败都在启动期返回错误，调用方应中止启动。
type fileConfig struct {
	Series []Series `yaml:"series"`
	Ladder struct {
		Thresholds []float64 `yaml:"thresholds"`
		ColorsA    []string  `yaml:"colors_a"`
		ColorsB    []string  `yaml:"colors_b"`
		Neutral    string    `yaml:"neutral"`
	} `yaml:"ladder"`
}

// 解析结果：目录与阶梯均已校验
type Config struct {
	Catalog *Catalog
	Ladder  *classify.Ladder
}

func Defaults() Config {
	return Config{Catalog: DefaultCatalog(), Ladder: classify.DefaultLadder()}
}

// Parse：解析 YAML；series 为空时使用默认目录，thresholds 为空时使用默认阶梯
func Parse(b []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return Config{}, fmt.Errorf("series config: %w", err)
	}
	cfg := Defaults()
	if len(fc.Series) > 0 {
		c, err := NewCatalog(fc.Series...)
		if err != nil {
			return Config{}, err
		}
		cfg.Catalog = c
	}
	if len(fc.Ladder.Thresholds) > 0 {
		n := len(fc.Ladder.Thresholds)
		a, b := fc.Ladder.ColorsA, fc.Ladder.ColorsB
		if len(a) == 0 {
			a = classify.HSLRamp(classify.HueA, n)
		}
		if len(b) == 0 {
			b = classify.HSLRamp(classify.HueB, n)
		}
		l, err := classify.NewLadder(fc.Ladder.Thresholds, a, b, fc.Ladder.Neutral)
		if err != nil {
			return Config{}, err
		}
		cfg.Ladder = l
	}
	return cfg, nil
}

// Load：path 为空时返回默认配置
func Load(path string) (Config, error) {
	if path == "" {
		return Defaults(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("series config: %w", err)
	}
	return Parse(b)
}
