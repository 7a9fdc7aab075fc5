package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wushici/exhibit-kit/internal/config"
)

const sampleIndex = `# PDF与展品信息双向索引

| **不在范围内.png** | 1 | 忽略 |

## 一、展品 → PDF 页码

| 展品 | 页码 | 主题 |
|---|---|---|
| **孤立展品.png** | 3 | 未分组 |

### 武梁祠系列
| **武梁祠西壁.png** | 12-14, 13, 20 | 西王母 |
| **祥瑞图一.png** | 15-13 | - |
这一行不是表格

### 展厅介绍
| **武氏祠简介.jpg** | 无直接对应 | 概述 |
| **武梁祠西壁.png** | 21 | 重复行 |

## 二、PDF → 展品

| **第二节展品.png** | 40 | 不应出现 |
`

func TestParsePages(t *testing.T) {
	tests := []struct {
		raw  string
		want []int
	}{
		{"5", []int{5}},
		{"3-5", []int{3, 4, 5}},
		{"3 - 5", []int{3, 4, 5}},
		{"7, 3-4, 4", []int{3, 4, 7}},
		{"5-3", []int{}},
		{"5-3, 9", []int{9}},
		{"无直接对应", []int{}},
		{"见 12、14 页", []int{12, 14}},
		{"", []int{}},
		{"１２、3-４", []int{3, 4, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePages(tt.raw, "无直接对应"))
		})
	}
}

func TestIndexParser_Parse(t *testing.T) {
	cfg := config.DefaultConfig().Catalog.Index
	idx, err := NewIndexParser(cfg, nil).Parse(strings.NewReader(sampleIndex))
	require.NoError(t, err)

	assert.Len(t, idx.Entries, 4)
	assert.NotContains(t, idx.Entries, "不在范围内")
	assert.NotContains(t, idx.Entries, "第二节展品")

	lone, ok := idx.Lookup("孤立展品")
	require.True(t, ok)
	assert.Equal(t, "其他石刻系列", lone.Series)
	assert.Equal(t, []int{3}, lone.Pages)

	rui, ok := idx.Lookup("祥瑞图一")
	require.True(t, ok)
	assert.Equal(t, "武梁祠系列", rui.Series)
	assert.Empty(t, rui.Pages)
	assert.Equal(t, "", rui.PDFTopic)

	intro, ok := idx.Lookup("武氏祠简介")
	require.True(t, ok)
	assert.Equal(t, "展厅介绍", intro.Series)
	assert.Equal(t, []int{}, intro.Pages)
	assert.Equal(t, "概述", intro.PDFTopic)

	// later row wins
	west, ok := idx.Lookup("武梁祠西壁")
	require.True(t, ok)
	assert.Equal(t, "展厅介绍", west.Series)
	assert.Equal(t, []int{21}, west.Pages)
	assert.Equal(t, []string{"武梁祠西壁"}, idx.Duplicates)
}

func TestIndexParser_LongLinesAndNoTrailingNewline(t *testing.T) {
	filler := strings.Repeat("汉", 1<<20) // 3 MiB of UTF-8 on one line
	text := "## 一、展品\n" + filler + "\n| **长行之后.png** | 8 | 主题 |"

	idx, err := NewIndexParser(config.DefaultConfig().Catalog.Index, nil).Parse(strings.NewReader(text))
	require.NoError(t, err)

	e, ok := idx.Lookup("长行之后")
	require.True(t, ok)
	assert.Equal(t, []int{8}, e.Pages)
}

func TestIndexParser_ParseFileMissing(t *testing.T) {
	_, err := NewIndexParser(config.DefaultConfig().Catalog.Index, nil).ParseFile(filepath.Join(t.TempDir(), "none.md"))
	assert.Error(t, err)
}

func TestLoadPages(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "第1页.txt", "\n### 武梁祠画像\n概述一行\n")
	write(t, dir, "第12页.txt", "没有标题的正文")
	write(t, dir, "第１５页.txt", "全角页码")
	write(t, dir, "封面.txt", "skipped")
	write(t, dir, "第x页.txt", "no number")
	write(t, dir, "notes.md", "ignored")

	store, err := LoadPages(dir, config.DefaultConfig().Catalog.PageFiles, nil)
	require.NoError(t, err)

	require.Len(t, store.Pages, 3)
	p1, _ := store.Get(1)
	assert.Equal(t, "武梁祠画像", p1.Title)
	assert.Equal(t, "### 武梁祠画像\n概述一行", p1.Content)

	p12, _ := store.Get(12)
	assert.Equal(t, "", p12.Title)
	p15, ok := store.Get(15)
	require.True(t, ok)
	assert.Equal(t, "全角页码", p15.Content)
	assert.Equal(t, 15, store.TotalPages())
}

func TestLoadPages_DuplicateNumberLastWins(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "第03页.txt", "first")
	write(t, dir, "第3页.txt", "second")

	store, err := LoadPages(dir, config.DefaultConfig().Catalog.PageFiles, nil)
	require.NoError(t, err)

	p, _ := store.Get(3)
	assert.Equal(t, "second", p.Content)
	assert.Equal(t, []int{3}, store.Duplicates)
}

func TestLoadPages_MissingDir(t *testing.T) {
	store, err := LoadPages(filepath.Join(t.TempDir(), "absent"), config.DefaultConfig().Catalog.PageFiles, nil)
	require.NoError(t, err)
	assert.Empty(t, store.Pages)
	assert.Equal(t, 0, store.TotalPages())
}

func TestResolveNames(t *testing.T) {
	root := t.TempDir()
	models := filepath.Join(root, "models")
	infos := filepath.Join(root, "info")
	texts := filepath.Join(root, "texts")

	write(t, models, "b.png", "")
	write(t, models, "a.png", "")
	write(t, models, "a.jpg", "") // wrong extension for this dir
	write(t, infos, "c.jpg", "")
	write(t, infos, "a.jpg", "")
	write(t, texts, "d.txt", "")
	write(t, texts, ".前石室.txt", "")
	require.NoError(t, os.MkdirAll(filepath.Join(texts, "sub.txt"), 0o755))

	names, err := ResolveNames(
		AssetSource{Dir: models, Ext: ".png"},
		AssetSource{Dir: infos, Ext: ".jpg"},
		AssetSource{Dir: texts, Ext: ".txt"},
		AssetSource{Dir: filepath.Join(root, "missing"), Ext: ".png"},
	)
	require.NoError(t, err)
	// dotfile stems count like any other
	assert.Equal(t, []string{".前石室", "a", "b", "c", "d"}, names)
}

func TestSeriesClassifier(t *testing.T) {
	cc := config.DefaultConfig().Catalog
	c := NewSeriesClassifier(cc.SeriesRules, cc.FallbackSeries)

	tests := []struct{ name, want string }{
		{"武梁祠东壁", "武梁祠系列"},
		{"祥瑞图二", "武梁祠系列"},
		{"前石室第七石", "前石室系列"},
		{"另一个前石室顶部", "前石室系列"},
		{"孔门弟子图", "前石室系列"},
		{"另一个后石室", "后石室系列"},
		{"左石室屋顶", "左石室系列"},
		{"武氏墓群介绍牌", "展厅介绍"},
		{"武氏祠简介", "展厅介绍"},
		{"石阙", "其他石刻系列"},
		// prefix rules come first
		{"武梁祠介绍牌", "武梁祠系列"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.name), tt.name)
	}
}

func TestExtractTags(t *testing.T) {
	text := "【年代】东汉 【题材：西王母、东王公/祥瑞（图）】\n【 】 【材质：石灰岩。】"
	got := ExtractTags(text, "武梁祠系列")

	assert.ElementsMatch(t, []string{"武梁祠系列", "年代", "题材：西王母", "东王公", "祥瑞（图", "材质：石灰岩"}, got)
	assert.True(t, sort.StringsAreSorted(got))

	assert.Equal(t, []string{"其他石刻系列"}, ExtractTags("", "其他石刻系列"))
}

func TestEncodeURLPath(t *testing.T) {
	assert.Equal(t, "/generated/models/artifact-001-320.webp", EncodeURLPath("generated", "models", "artifact-001-320.webp"))
	assert.Equal(t, "/a%20b/x%26y%3D1~z", EncodeURLPath("a b", "x&y=1~z"))
	assert.Equal(t,
		"/materials/raw/%E6%9D%A5%E8%87%AA%E3%80%8A%E9%B2%81%E8%BF%85%E8%97%8F%E6%B1%89%E7%94%BB%E7%8F%8D%E8%B5%8F%E3%80%8B/%E7%AB%A0%E8%8A%82%EF%BC%88%E4%B8%80%EF%BC%89%E6%AD%A6%E6%B0%8F%E7%A5%A0%E6%B1%89%E7%94%BB.pdf",
		EncodeURLPath(config.DefaultConfig().Catalog.PDFPublicPath...),
	)
	assert.Equal(t, "/", EncodeURLPath())
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
