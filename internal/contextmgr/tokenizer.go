package contextmgr

import (
	"strings"
	"unicode"

	"smarttodo/internal/chat"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const (
	encodingCL100K = "cl100k_base"
	encodingO200K  = "o200k_base"

	// EncodingEstimate 不加载 BPE，按字符估算
	EncodingEstimate = "estimate"

	// 每条消息的固定开销（role、分隔符）
	messageOverhead = 4

	// 英文约 4 字符/token，CJK 约 1.5 token/字
	narrowTokensPerRune = 0.25
	wideTokensPerRune   = 1.5
)

// Tokenizer 统计提示词 token 数；没有 BPE 数据时按字符估算
// Tokenizer counts prompt tokens with a tiktoken encoding, or estimates them when
// the encoding is unavailable. It is safe for concurrent use.
type Tokenizer struct {
	enc      *tiktoken.Tiktoken // nil: estimate
	encoding string
}

// NewTokenizer loads a BPE encoding by name. tiktoken-go downloads encodings it has
// not cached, with no deadline; Budget is the bounded way to get one.
// A load failure yields an estimating tokenizer.
func NewTokenizer(encoding string) *Tokenizer {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return NewHeuristicTokenizer()
	}
	return &Tokenizer{enc: enc, encoding: encoding}
}

// NewHeuristicTokenizer never loads BPE data and always estimates.
func NewHeuristicTokenizer() *Tokenizer {
	return &Tokenizer{encoding: EncodingEstimate}
}

// NewTokenizerForModel loads the encoding the model's family uses.
func NewTokenizerForModel(model string) *Tokenizer {
	return NewTokenizer(encodingForModel(model))
}

// Count returns the prompt size of messages including per-message overhead.
func (t *Tokenizer) Count(messages []chat.Message) int {
	total := 0
	for _, msg := range messages {
		total += messageOverhead + t.CountText(msg.Role) + t.CountText(msg.Content)
	}
	return total
}

// CountText counts tokens for a single string.
func (t *Tokenizer) CountText(text string) int {
	if text == "" {
		return 0
	}
	if t.enc == nil {
		return estimateTokens(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// IsPrecise reports whether counts come from a real encoding.
func (t *Tokenizer) IsPrecise() bool {
	return t.enc != nil
}

// EncodingName is the BPE encoding in use, or EncodingEstimate.
func (t *Tokenizer) EncodingName() string {
	return t.encoding
}

func estimateTokens(text string) int {
	var narrow, wide int
	for _, r := range text {
		if isWide(r) {
			wide++
		} else {
			narrow++
		}
	}
	n := int(float64(narrow)*narrowTokensPerRune + float64(wide)*wideTokensPerRune)
	if n < 1 {
		return 1
	}
	return n
}

// isWide 中日韩文字与全角符号
func isWide(r rune) bool {
	if unicode.In(r, unicode.Han, unicode.Hangul, unicode.Hiragana, unicode.Katakana) {
		return true
	}
	return (r >= 0x3000 && r <= 0x303F) || (r >= 0xFF00 && r <= 0xFFEF)
}

// o 系列与 gpt-4o 用 o200k；其余（含 Claude 与本地模型）以 cl100k 近似
var modelEncodings = []struct {
	prefix   string
	encoding string
}{
	{"o1", encodingO200K},
	{"o3", encodingO200K},
	{"o4", encodingO200K},
	{"gpt-4o", encodingO200K},
	{"chatgpt-4o", encodingO200K},
	{"gpt-4.1", encodingO200K},
}

func encodingForModel(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, e := range modelEncodings {
		if strings.HasPrefix(m, e.prefix) {
			return e.encoding
		}
	}
	return encodingCL100K
}
