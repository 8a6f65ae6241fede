package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument - 알 수 없는 setting/style 등 입력값 오류
var ErrInvalidArgument = errors.New("invalid argument")

func invalidArgument(field, value string) error {
	return fmt.Errorf("%w: unknown %s %q", ErrInvalidArgument, field, value)
}

// PromptContext - 요청마다 새로 만드는 인물/장면 정보
type PromptContext struct {
	Profession string `json:"profession"`
	Setting    string `json:"setting"`
	Mood       string `json:"mood"`
	Clothing   string `json:"clothing"`
	Background string `json:"background"`
	Pose       string `json:"pose"`
}

// Setting - 촬영 장소
type Setting string

const (
	SettingOffice  Setting = "office"
	SettingHome    Setting = "home"
	SettingStudio  Setting = "studio"
	SettingOutdoor Setting = "outdoor"
	SettingVideo   Setting = "video"
)

// Style - 의상/분위기 스타일
type Style string

const (
	StyleFormal   Style = "formal"
	StyleCasual   Style = "casual"
	StyleCreative Style = "creative"
)

// Gender - 대명사 선택용. 목록 밖의 값도 허용 ("this person")
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderUnisex Gender = "unisex"
)

// AllSettings - 지원 장소 전체
func AllSettings() []Setting {
	return []Setting{SettingOffice, SettingHome, SettingStudio, SettingOutdoor, SettingVideo}
}

// AllStyles - 지원 스타일 전체
func AllStyles() []Style {
	return []Style{StyleFormal, StyleCasual, StyleCreative}
}

// AllGenders - 지원 성별 전체
func AllGenders() []Gender {
	return []Gender{GenderMale, GenderFemale, GenderUnisex}
}

// ParseSetting - 문자열을 Setting으로 변환
func ParseSetting(raw string) (Setting, error) {
	s := Setting(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllSettings() {
		if s == known {
			return s, nil
		}
	}
	return "", invalidArgument("setting", raw)
}

// ParseStyle - 문자열을 Style로 변환
func ParseStyle(raw string) (Style, error) {
	s := Style(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllStyles() {
		if s == known {
			return s, nil
		}
	}
	return "", invalidArgument("style", raw)
}

// ParseGender - 대소문자/공백 정규화만 수행. 빈 값은 unisex
func ParseGender(raw string) Gender {
	g := Gender(strings.ToLower(strings.TrimSpace(raw)))
	if g == "" {
		return GenderUnisex
	}
	return g
}

// CreatePsychologistContext - 전문 분야/장소/스타일로 PromptContext 생성
// 장소와 스타일은 서로 독립적으로 채워지며, 알 수 없는 값은 ErrInvalidArgument
func CreatePsychologistContext(specialization string, setting Setting, style Style, gender Gender) (PromptContext, error) {
	ctx := PromptContext{
		Profession: fmt.Sprintf("licensed psychologist specializing in %s", specialization),
	}

	switch setting {
	case SettingOffice:
		ctx.Setting = "Modern private practice office"
		ctx.Background = "bookshelves and a comfortable therapy chair softly blurred behind"
		ctx.Pose = "seated in an armchair with an open, welcoming posture"
	case SettingHome:
		ctx.Setting = "Warm home office environment"
		ctx.Background = "a tidy desk, indoor plants and soft daylight"
		ctx.Pose = "seated at a desk, leaning slightly forward as if listening"
	case SettingStudio:
		ctx.Setting = "Professional photography studio environment"
		ctx.Background = "a seamless neutral gray backdrop"
		ctx.Pose = "head-and-shoulders framing, body angled three-quarters to camera"
	case SettingOutdoor:
		ctx.Setting = "Peaceful outdoor garden setting"
		ctx.Background = "softly blurred greenery"
		ctx.Pose = "standing relaxed with arms loosely at the sides"
	case SettingVideo:
		ctx.Setting = "Telehealth video session setup"
		ctx.Background = "a clean, uncluttered wall with soft decor"
		ctx.Pose = "centered and facing the camera at eye level"
	default:
		return PromptContext{}, invalidArgument("setting", string(setting))
	}

	switch style {
	case StyleFormal:
		ctx.Clothing = "a tailored navy blazer over a crisp collared shirt"
		ctx.Mood = "trustworthy, composed and professional"
	case StyleCasual:
		ctx.Clothing = "a soft knit sweater in muted earth tones"
		ctx.Mood = "warm, approachable and empathetic"
	case StyleCreative:
		ctx.Clothing = "a modern smart-casual outfit with a subtle color accent"
		ctx.Mood = "open, curious and encouraging"
	default:
		return PromptContext{}, invalidArgument("style", string(style))
	}

	return ctx, nil
}
