package prompt

import "strings"

// 템플릿에서 허용되는 placeholder 토큰 (닫힌 집합)
const (
	tokenRole           = "{role}"
	tokenPronoun        = "{pronoun}"
	tokenProfession     = "{profession}"
	tokenPose           = "{pose}"
	tokenClothing       = "{clothing}"
	tokenMood           = "{mood}"
	tokenSetting        = "{setting}"
	tokenBackground     = "{background}"
	tokenCamera         = "{camera}"
	tokenLens           = "{lens}"
	tokenLighting       = "{lighting}"
	tokenQuality        = "{quality}"
	tokenPostProcessing = "{postProcessing}"
)

// placeholderValues - 토큰별 치환값
type placeholderValues struct {
	ctx     PromptContext
	specs   TechnicalSpecs
	pronoun string
}

// replacer - 한 번의 스캔으로 치환. 치환된 값은 다시 검사하지 않으므로
// 값 안에 "{camera}" 같은 문자열이 있어도 그대로 남는다
func (v placeholderValues) replacer() *strings.Replacer {
	return strings.NewReplacer(
		tokenRole, v.ctx.Profession,
		tokenPronoun, v.pronoun,
		tokenProfession, v.ctx.Profession,
		tokenPose, v.ctx.Pose,
		tokenClothing, v.ctx.Clothing,
		tokenMood, v.ctx.Mood,
		tokenSetting, v.ctx.Setting,
		tokenBackground, v.ctx.Background,
		tokenCamera, v.specs.Camera,
		tokenLens, v.specs.Lens,
		tokenLighting, v.specs.Lighting,
		tokenQuality, v.specs.Quality,
		tokenPostProcessing, v.specs.PostProcessing,
	)
}
