package prompt

import "sort"

// TechnicalSpecs - 프롬프트 끝에 붙는 촬영 기술 사양
type TechnicalSpecs struct {
	Camera         string `json:"camera" yaml:"camera"`
	Lens           string `json:"lens" yaml:"lens"`
	Lighting       string `json:"lighting" yaml:"lighting"`
	Quality        string `json:"quality" yaml:"quality"`
	PostProcessing string `json:"postProcessing" yaml:"postProcessing"`
}

// 기술 사양 테이블 키
const (
	SpecStudioPortrait    = "studio_portrait"
	SpecOfficeEnvironment = "office_environment"
	SpecHomeOffice        = "home_office"
	SpecOutdoorNatural    = "outdoor_natural"
	SpecVideoCall         = "video_call"
	SpecPresentation      = "presentation"
)

// 값 타입 맵 - Specs()가 복사본을 돌려주므로 외부에서 변경 불가
var technicalSpecs = map[string]TechnicalSpecs{
	SpecStudioPortrait: {
		Camera:         "Canon EOS R5",
		Lens:           "RF 85mm f/1.2L lens at f/2.8",
		Lighting:       "soft three-point studio lighting with a large octabox key",
		Quality:        "8K resolution with tack-sharp focus on the eyes",
		PostProcessing: "natural skin retouching with pore-level texture preserved",
	},
	SpecOfficeEnvironment: {
		Camera:         "Sony A7R V",
		Lens:           "FE 35mm f/1.4 GM lens at f/2.8",
		Lighting:       "balanced window lighting with a subtle bounce fill",
		Quality:        "8K resolution with crisp environmental detail",
		PostProcessing: "light retouching and neutral color grading",
	},
	SpecHomeOffice: {
		Camera:         "Nikon Z8",
		Lens:           "Z 50mm f/1.2 S lens at f/2.2",
		Lighting:       "warm ambient lighting mixed with soft daylight",
		Quality:        "8K resolution with gentle background separation",
		PostProcessing: "subtle retouching with warm, true-to-life tones",
	},
	SpecOutdoorNatural: {
		Camera:         "Canon EOS R6 Mark II",
		Lens:           "RF 135mm f/1.8L lens at f/2",
		Lighting:       "golden hour natural lighting with a white reflector fill",
		Quality:        "8K resolution with creamy bokeh",
		PostProcessing: "natural retouching with soft film-like color grading",
	},
	SpecVideoCall: {
		Camera:         "Sony FX3",
		Lens:           "FE 24-70mm f/2.8 GM II lens at 50mm f/4",
		Lighting:       "soft key light with diffused ring lighting fill",
		Quality:        "8K resolution with clean, noise-free detail",
		PostProcessing: "even-toned retouching with accurate skin color",
	},
	SpecPresentation: {
		Camera:         "Nikon Z9",
		Lens:           "Z 70-200mm f/2.8 S lens at 135mm f/3.5",
		Lighting:       "stage lighting with a soft frontal key and rim light",
		Quality:        "8K resolution with sharp subject isolation",
		PostProcessing: "polished retouching with clean contrast",
	},
}

// Specs - 키로 기술 사양 조회
func Specs(key string) (TechnicalSpecs, bool) {
	specs, ok := technicalSpecs[key]
	return specs, ok
}

// MustSpecs - 존재가 보장된 키 전용 (카탈로그/테스트)
func MustSpecs(key string) TechnicalSpecs {
	specs, ok := technicalSpecs[key]
	if !ok {
		panic("prompt: unknown technical spec " + key)
	}
	return specs
}

// SpecKeys - 등록된 키 목록 (정렬)
func SpecKeys() []string {
	keys := make([]string, 0, len(technicalSpecs))
	for k := range technicalSpecs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SpecsForSetting - 촬영 장소별 기본 사양 키
func SpecsForSetting(setting Setting) (string, error) {
	switch setting {
	case SettingStudio:
		return SpecStudioPortrait, nil
	case SettingOffice:
		return SpecOfficeEnvironment, nil
	case SettingHome:
		return SpecHomeOffice, nil
	case SettingOutdoor:
		return SpecOutdoorNatural, nil
	case SettingVideo:
		return SpecVideoCall, nil
	}
	return "", invalidArgument("setting", string(setting))
}
