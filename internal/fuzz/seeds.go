package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса
)

var rubySeeds = []string{
	"",
	"class A\nend\n",
	"module M\n  class A::B < Base\n  end\nend\n",
	"class Shop\n  def add(item, qty = 1, *rest, note:, **opts, &blk)\n    total = 0\n  end\nend\n",
	"def area(r) = 3.14 * r * r\n",
	"class << self\n  def build; end\nend\n",
	"while x do\n  y = [1, 2]\nend\n",
	"s = <<~SQL\n  select end\nSQL\nx = %w[end class]\n",
	"=begin\nclass Hidden\n=end\nclass Shown\nend\n",
	"puts \"unterminated\n",
	"end\n",
	"class Open\n  def m\n",
	"x = {a: 1}\nh = nil\nf = 1.5e3\n",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range rubySeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.rb файлы
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".rb" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
