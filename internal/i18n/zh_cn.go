package i18n

// ZhCNMessages 简体中文消息目录
var ZhCNMessages = map[string]string{
	// 建议卡片
	"card.title":       "建议",
	"card.priority":    "优先级",
	"card.deadlines":   "截止时间",
	"card.categories":  "分类",
	"card.tags":        "标签",
	"card.description": "改进后的描述",
	"card.rationale":   "理由",
	"card.none":        "（无）",
	"card.fallback":    "模型不可用，已显示启发式结果",

	"priority.high":   "高",
	"priority.medium": "中",
	"priority.low":    "低",

	// 交互输入
	"prompt.title":       "标题：",
	"prompt.description": "描述（可选）：",
	"prompt.category":    "分类提示（可选）：",
	"prompt.load":        "当前未完成任务数（可选）：",
	"prompt.context":     "上下文，如 email: 回复 Bob（留空结束）：",
	"prompt.again":       "继续下一个任务？[Y/n]：",

	"interactive.welcome": "输入任务以获取建议，Ctrl+D 退出。",
	"interactive.bye":     "再见。",
	"interactive.working": "思考中（%s）...",

	// 配置
	"config.provider":        "提供方",
	"config.model":           "模型",
	"config.base_url":        "接口地址",
	"config.api_key":         "API 密钥",
	"config.timeout":         "超时",
	"config.max_tokens":      "提示词 token 预算",
	"config.repair_json":     "修复 JSON",
	"config.estimate_tokens": "估算 token",
	"config.unlimited":       "不限",

	// 错误
	"error.title_required": "标题不能为空。",
	"error.load":           "不是数字：%s",
	"error.suggest":        "生成建议失败：%s",
}
