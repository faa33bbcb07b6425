package utils

import (
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 匹配打分前的字符串归一化与相似度计算
// 归一化口径：小写化、去变音符号（Parfémy -> parfemy）、去非字母数字

// 去变音符号：NFD 分解后丢弃所有组合标记
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripDiacritics 去掉变音符号
func StripDiacritics(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeForMatch 匹配用归一化：小写 + 去变音 + 只留字母数字
func NormalizeForMatch(s string) string {
	s = strings.ToLower(StripDiacritics(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Similarity 归一化相似度 = 1 - 编辑距离/最大长度，入参应已归一化
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 1)
	sim := 1.0 - float64(dist)/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

// Tokenize 提取长度 >= minLen 的词（小写、去变音后按非字母数字切分）
func Tokenize(s string, minLen int) []string {
	s = strings.ToLower(StripDiacritics(s))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= minLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// JaccardOverlap 两个词集的 Jaccard 重合度
func JaccardOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// SplitPathSegments 把面包屑路径拆成段
// 同时兼容 "A > B > C" 和 "a/b/c" 两种习惯，段内去空白，空段丢弃
func SplitPathSegments(path string) []string {
	sep := ">"
	if !strings.Contains(path, ">") && strings.Contains(path, "/") {
		sep = "/"
	}
	parts := strings.Split(path, sep)
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// IsPathPrefix 判断 prefix 的路径段是否是 full 的严格段前缀（大小写不敏感）
func IsPathPrefix(prefix, full []string) bool {
	if len(prefix) > len(full) {
		return false
	}
	for i := range prefix {
		if !strings.EqualFold(prefix[i], full[i]) {
			return false
		}
	}
	return true
}
