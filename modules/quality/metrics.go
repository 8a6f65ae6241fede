package quality

import (
	"math"
	"strings"
)

// ConsistencyMetrics - 프롬프트 텍스트만으로 계산한 일관성 점수
type ConsistencyMetrics struct {
	IdentityPreservationScore int      `json:"identityPreservationScore" yaml:"identityPreservationScore"`
	TechnicalQualityScore     int      `json:"technicalQualityScore" yaml:"technicalQualityScore"`
	ProfessionalContextScore  int      `json:"professionalContextScore" yaml:"professionalContextScore"`
	OverallConsistencyScore   int      `json:"overallConsistencyScore" yaml:"overallConsistencyScore"`
	Recommendations           []string `json:"recommendations" yaml:"recommendations"`
}

// 종합 점수 가중치
const (
	identityWeight     = 0.40
	technicalWeight    = 0.35
	professionalWeight = 0.25
)

// weightedCheck - 실패 시 weight만큼 감점
type weightedCheck struct {
	weight         int
	recommendation string
	keywords       []string // 하나라도 포함되면 통과
}

func (c weightedCheck) passes(lower string) bool {
	for _, k := range c.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

var psychologyTerms = []string{"psycholog", "therap", "counsel"}

// 항목별 가중치 합계 = 100
var (
	identityChecks = []weightedCheck{
		{40, "Add an explicit instruction to preserve the exact facial features", []string{"preserve the exact facial features"}},
		{20, "Reference the uploaded reference photo", []string{"reference photo"}},
		{15, "Mention skin tone preservation", []string{"skin tone"}},
		{15, "Mention bone structure preservation", []string{"bone structure"}},
		{10, "Emphasize keeping the person's identity", []string{"identity"}},
	}
	technicalChecks = []weightedCheck{
		{20, "Specify the camera body (\"Shot on ...\")", []string{"shot on"}},
		{20, "Specify the lens focal length in mm", []string{"mm"}},
		{15, "Specify the aperture (f/...)", []string{"f/"}},
		{15, "Describe the lighting setup", []string{"lighting"}},
		{15, "Request 8K resolution", []string{"8k"}},
		{15, "Describe retouching or post-processing", []string{"retouch", "post-processing"}},
	}
	professionalChecks = []weightedCheck{
		{30, "State the professional context", []string{"professional"}},
		{30, "Name the psychology or therapy specialization", psychologyTerms},
		{20, "Describe the clothing (\"wearing ...\")", []string{"wearing"}},
		{20, "Describe the setting (\"Setting: ...\")", []string{"setting:"}},
	}
)

func score(lower string, checks []weightedCheck, recs *[]string) int {
	s := 100
	for _, c := range checks {
		if !c.passes(lower) {
			s -= c.weight
			*recs = append(*recs, c.recommendation)
		}
	}
	if s < 0 {
		s = 0
	}
	return s
}

// CalculateConsistencyMetrics - 세 하위 점수와 가중 평균 종합 점수 계산
func CalculateConsistencyMetrics(prompt string) ConsistencyMetrics {
	lower := strings.ToLower(prompt)
	recs := []string{}

	m := ConsistencyMetrics{
		IdentityPreservationScore: score(lower, identityChecks, &recs),
		TechnicalQualityScore:     score(lower, technicalChecks, &recs),
		ProfessionalContextScore:  score(lower, professionalChecks, &recs),
	}
	m.OverallConsistencyScore = int(math.Round(
		identityWeight*float64(m.IdentityPreservationScore) +
			technicalWeight*float64(m.TechnicalQualityScore) +
			professionalWeight*float64(m.ProfessionalContextScore),
	))
	m.Recommendations = recs
	return m
}
