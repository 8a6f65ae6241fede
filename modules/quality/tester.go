package quality

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// 통과 기준
const (
	MinIdentityScore     = 90
	MinTechnicalScore    = 85
	MinProfessionalScore = 80
	MinOverallScore      = 85
	MinPromptLength      = 200
	MaxPromptLength      = 1000
)

// TemplateInfo - 결과에 붙는 템플릿 식별 정보
type TemplateInfo struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
}

// PromptTestResult - 프롬프트 1개의 테스트 결과
type PromptTestResult struct {
	Template       TemplateInfo       `json:"template" yaml:"template"`
	Prompt         string             `json:"prompt" yaml:"prompt"`
	Length         int                `json:"length" yaml:"length"`
	Metrics        ConsistencyMetrics `json:"metrics" yaml:"metrics"`
	CriticalIssues []string           `json:"criticalIssues" yaml:"criticalIssues"`
	Passed         bool               `json:"passed" yaml:"passed"`
}

// Averages - 점수 평균
type Averages struct {
	Identity     float64 `json:"identity" yaml:"identity"`
	Technical    float64 `json:"technical" yaml:"technical"`
	Professional float64 `json:"professional" yaml:"professional"`
	Overall      float64 `json:"overall" yaml:"overall"`
}

// CategorySummary - 카테고리별 집계
type CategorySummary struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Templates int      `json:"templates" yaml:"templates"`
	Passed    int      `json:"passed" yaml:"passed"`
	Failed    int      `json:"failed" yaml:"failed"`
	Averages  Averages `json:"averages" yaml:"averages"`
}

// TestSummary - 전체 카탈로그 테스트 결과
type TestSummary struct {
	TotalTemplates  int                `json:"totalTemplates" yaml:"totalTemplates"`
	PassedTemplates int                `json:"passedTemplates" yaml:"passedTemplates"`
	FailedTemplates int                `json:"failedTemplates" yaml:"failedTemplates"`
	Averages        Averages           `json:"averages" yaml:"averages"`
	Categories      []CategorySummary  `json:"categories" yaml:"categories"`
	Results         []PromptTestResult `json:"results" yaml:"results"`
	GeneratedAt     time.Time          `json:"generatedAt" yaml:"generatedAt"`
}

// AllPassed - 실패 템플릿이 없으면 true
func (s TestSummary) AllPassed() bool {
	return s.TotalTemplates > 0 && s.FailedTemplates == 0
}

func hasAll(lower string, subs ...string) bool {
	for _, s := range subs {
		if !strings.Contains(lower, s) {
			return false
		}
	}
	return true
}

func hasAny(lower string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// criticalIssues - 필수 요소 5개 + 길이 2개 검사
func criticalIssues(p string) []string {
	lower := strings.ToLower(p)
	issues := []string{}

	if !strings.Contains(lower, "preserve the exact facial features") {
		issues = append(issues, "Missing identity preservation instruction")
	}
	if !hasAll(lower, "shot on", "mm", "f/", "lighting") {
		issues = append(issues, "Incomplete technical specification (camera, lens, aperture, lighting)")
	}
	if !hasAny(lower, "hyperrealistic", "photorealistic") {
		issues = append(issues, "Missing realism marker")
	}
	if !strings.Contains(lower, "professional") || !hasAny(lower, psychologyTerms...) {
		issues = append(issues, "Missing professional psychology context")
	}
	if !hasAny(lower, "retouch", "post-processing", "color grading") {
		issues = append(issues, "Missing post-processing instruction")
	}

	n := len([]rune(p))
	if n < MinPromptLength {
		issues = append(issues, fmt.Sprintf("Prompt too short: %d characters (min %d)", n, MinPromptLength))
	}
	if n > MaxPromptLength {
		issues = append(issues, fmt.Sprintf("Prompt too long: %d characters (max %d)", n, MaxPromptLength))
	}
	return issues
}

// TestSinglePrompt - 단일 프롬프트 평가. info가 nil이면 ad-hoc 결과
func TestSinglePrompt(p string, info *TemplateInfo) PromptTestResult {
	result := PromptTestResult{
		Template:       TemplateInfo{ID: "adhoc", Name: "Ad-hoc prompt", Category: "custom"},
		Prompt:         p,
		Length:         len([]rune(p)),
		Metrics:        CalculateConsistencyMetrics(p),
		CriticalIssues: criticalIssues(p),
	}
	if info != nil {
		result.Template = *info
	}

	m := result.Metrics
	result.Passed = m.IdentityPreservationScore >= MinIdentityScore &&
		m.TechnicalQualityScore >= MinTechnicalScore &&
		m.ProfessionalContextScore >= MinProfessionalScore &&
		m.OverallConsistencyScore >= MinOverallScore &&
		len(result.CriticalIssues) == 0
	return result
}

// averager - 평균 누적기
type averager struct {
	n                                          int
	identity, technical, professional, overall int
}

func (a *averager) add(m ConsistencyMetrics) {
	a.n++
	a.identity += m.IdentityPreservationScore
	a.technical += m.TechnicalQualityScore
	a.professional += m.ProfessionalContextScore
	a.overall += m.OverallConsistencyScore
}

func (a averager) averages() Averages {
	if a.n == 0 {
		return Averages{}
	}
	avg := func(sum int) float64 {
		return math.Round(float64(sum)/float64(a.n)*10) / 10
	}
	return Averages{
		Identity:     avg(a.identity),
		Technical:    avg(a.technical),
		Professional: avg(a.professional),
		Overall:      avg(a.overall),
	}
}

// RunPromptQualityTest - 카탈로그 전체 템플릿 평가 및 집계
// 에러는 카탈로그 항목 자체가 잘못된 경우에만 반환
func RunPromptQualityTest() (TestSummary, error) {
	return runCatalog(catalog)
}

func runCatalog(categories []Category) (TestSummary, error) {
	summary := TestSummary{
		Categories:  make([]CategorySummary, 0, len(categories)),
		Results:     []PromptTestResult{},
		GeneratedAt: time.Now().UTC(),
	}
	var total averager

	for _, c := range categories {
		cs := CategorySummary{ID: c.ID, Name: c.Name}
		var cat averager

		for _, tmpl := range c.Templates {
			p, err := RenderTemplate(tmpl)
			if err != nil {
				return TestSummary{}, fmt.Errorf("category %s: %w", c.ID, err)
			}

			result := TestSinglePrompt(p, &TemplateInfo{ID: tmpl.ID, Name: tmpl.Name, Category: c.ID})
			summary.Results = append(summary.Results, result)

			cs.Templates++
			if result.Passed {
				cs.Passed++
			} else {
				cs.Failed++
			}
			cat.add(result.Metrics)
			total.add(result.Metrics)
		}

		cs.Averages = cat.averages()
		summary.Categories = append(summary.Categories, cs)
		summary.TotalTemplates += cs.Templates
		summary.PassedTemplates += cs.Passed
		summary.FailedTemplates += cs.Failed
	}

	summary.Averages = total.averages()
	return summary, nil
}
