package prompt

import "strings"

// ValidationResult - 프롬프트 키워드 검사 결과
type ValidationResult struct {
	Score  int      `json:"score" yaml:"score"`
	Issues []string `json:"issues" yaml:"issues"`
}

// keywordCheck - 하나의 키워드 검사 항목
type keywordCheck struct {
	penalty int
	issue   string
	passes  func(lower string) bool
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// 감점 합계 = 100
var validationChecks = []keywordCheck{
	{
		penalty: 25,
		issue:   "Missing identity preservation instruction",
		passes:  func(p string) bool { return strings.Contains(p, "preserve the exact facial features") },
	},
	{
		penalty: 15,
		issue:   "Missing camera and lens specification",
		passes:  func(p string) bool { return strings.Contains(p, "shot on") && strings.Contains(p, "mm") },
	},
	{
		penalty: 15,
		issue:   "Missing hyperrealistic or 8K quality marker",
		passes:  func(p string) bool { return containsAny(p, "hyperrealistic", "8k") },
	},
	{
		penalty: 10,
		issue:   "Missing lighting specification",
		passes:  func(p string) bool { return strings.Contains(p, "lighting") },
	},
	{
		penalty: 10,
		issue:   "Missing professional context",
		passes:  func(p string) bool { return strings.Contains(p, "professional") },
	},
	{
		penalty: 10,
		issue:   "Missing aperture setting",
		passes:  func(p string) bool { return strings.Contains(p, "f/") },
	},
	{
		penalty: 15,
		issue:   "Missing post-processing instruction",
		passes:  func(p string) bool { return containsAny(p, "retouch", "post-processing") },
	},
}

// ValidatePrompt - 필수 키워드 포함 여부로 0~100 점수 계산 (대소문자 무시)
func ValidatePrompt(prompt string) ValidationResult {
	lower := strings.ToLower(prompt)
	result := ValidationResult{Score: 100, Issues: []string{}}

	for _, check := range validationChecks {
		if !check.passes(lower) {
			result.Score -= check.penalty
			result.Issues = append(result.Issues, check.issue)
		}
	}

	if result.Score < 0 {
		result.Score = 0
	}
	return result
}
