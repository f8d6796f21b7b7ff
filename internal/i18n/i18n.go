package i18n

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

// 已有目录的语言，顺序即匹配优先级；第一个是兜底
var supported = []struct {
	tag      language.Tag
	locale   string
	messages map[string]string
}{
	{language.English, "en", EnMessages},
	{language.SimplifiedChinese, "zh-CN", ZhCNMessages},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(supported))
	for i, s := range supported {
		tags[i] = s.tag
	}
	return language.NewMatcher(tags)
}()

// localeEnv 按 POSIX 优先级排列，SMARTTODO_LANG 最先
var localeEnv = []string{"SMARTTODO_LANG", "LC_ALL", "LC_MESSAGES", "LANG"}

// I18n 终端标签翻译；创建后只读
// I18n translates CLI labels. It is read-only after New.
type I18n struct {
	locale   string
	messages map[string]string
}

// New 按 locale 选择目录，空字符串时从环境变量检测
// New picks the closest catalog for locale, detecting it from the environment when empty.
// Keys missing from the chosen catalog fall back to English.
func New(locale string) *I18n {
	if strings.TrimSpace(locale) == "" {
		locale = DetectLocale()
	}
	idx := match(locale)

	i := &I18n{
		locale:   supported[idx].locale,
		messages: make(map[string]string, len(EnMessages)),
	}
	for k, v := range EnMessages {
		i.messages[k] = v
	}
	if idx != 0 {
		for k, v := range supported[idx].messages {
			i.messages[k] = v
		}
	}
	return i
}

// T 翻译函数 / Translation function
func (i *I18n) T(key string, args ...any) string {
	tmpl, ok := i.messages[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Locale returns the catalog in use: "en" or "zh-CN".
func (i *I18n) Locale() string {
	return i.locale
}

// DetectLocale 返回第一个非空的 locale 环境变量，C/POSIX 视为未设置
// DetectLocale returns the first meaningful locale variable, or "en".
func DetectLocale() string {
	for _, env := range localeEnv {
		v := posixLocale(os.Getenv(env))
		if v != "" {
			return v
		}
	}
	return "en"
}

// posixLocale 把 "zh_CN.UTF-8@pinyin" 之类的值变成 BCP 47 形式
func posixLocale(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "C" || v == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(v, "_", "-")
}

func match(locale string) int {
	tag, err := language.Parse(posixLocale(locale))
	if err != nil {
		return 0
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return 0
	}
	return idx
}
