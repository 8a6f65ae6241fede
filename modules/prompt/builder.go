package prompt

import "strings"

// PromptPrefix - 모든 프롬프트의 시작 문구
const PromptPrefix = "Hyperrealistic professional photography, "

// 프롬프트 세그먼트 (순서 고정)
var segmentTemplates = []string{
	"CRITICAL: Preserve the exact facial features, bone structure, skin tone and identity of the person in the reference photo while portraying them as a " + tokenRole + ".",
	"Show " + tokenPronoun + " as a " + tokenProfession + ".",
	"Pose: " + tokenPose + ", wearing " + tokenClothing + ".",
	"Mood: " + tokenMood + ".",
	"Setting: " + tokenSetting + ", " + tokenBackground + ".",
	"Shot on " + tokenCamera + " with " + tokenLens + ", " + tokenLighting + ", " + tokenQuality + ", " + tokenPostProcessing + ".",
}

// 변형 프롬프트용 문구
const (
	identityMoodPrefix      = "preserving identical facial identity, "
	qualityQualifier        = ", photorealistic skin texture"
	postProcessingQualifier = ", maintaining natural facial identity"
)

// VariationCount - GenerateVariations 결과 개수
const VariationCount = 3

// Pronoun - 성별에 맞는 지칭
func Pronoun(gender Gender) string {
	switch gender {
	case GenderMale:
		return "this man"
	case GenderFemale:
		return "this woman"
	default:
		return "this person"
	}
}

// BuildPrompt - 컨텍스트와 기술 사양으로 이미지 생성 프롬프트 조립
// 빈 필드도 허용 (검증하지 않음)
func BuildPrompt(ctx PromptContext, specs TechnicalSpecs, gender Gender) string {
	r := placeholderValues{ctx: ctx, specs: specs, pronoun: Pronoun(gender)}.replacer()

	parts := make([]string, len(segmentTemplates))
	for i, tmpl := range segmentTemplates {
		parts[i] = r.Replace(tmpl)
	}

	return PromptPrefix + strings.Join(parts, " ")
}

// GenerateVariations - 기본 프롬프트 + 얼굴 보존 강조 + 품질 강조 변형
// ctx/specs는 값으로 받으므로 호출자의 데이터는 바뀌지 않는다
func GenerateVariations(base PromptContext, specs TechnicalSpecs, gender Gender) []string {
	identity := base
	identity.Mood = identityMoodPrefix + base.Mood

	enhanced := specs
	enhanced.Quality = specs.Quality + qualityQualifier
	enhanced.PostProcessing = specs.PostProcessing + postProcessingQualifier

	return []string{
		BuildPrompt(base, specs, gender),
		BuildPrompt(identity, specs, gender),
		BuildPrompt(base, enhanced, gender),
	}
}
