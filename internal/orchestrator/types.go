package orchestrator

import (
	"strings"
	"time"

	"smarttodo/internal/provider"

	"github.com/sirupsen/logrus"
)

// fallbackNote 精炼失败时追加到 rationale 的说明
// fallbackNote is appended to the heuristic rationale when refinement fails
const fallbackNote = "\n(LLM fallback used due to error: %v)"

// fallbackMarker 是 fallbackNote 中错误之前的固定部分
var fallbackMarker = fallbackNote[:strings.Index(fallbackNote, "%v")]

// Options 可选依赖；零值表示使用配置与默认实现
// Options carries optional collaborators; zero values fall back to config and defaults
type Options struct {
	// Provider overrides the provider built from config. Leave nil to use config.
	Provider provider.Provider
	// Now is the clock used for deadline suggestions; defaults to time.Now.
	Now    func() time.Time
	Logger logrus.FieldLogger
}
