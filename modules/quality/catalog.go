package quality

import (
	"fmt"

	"portrait-studio-server/modules/prompt"
)

// Template - 품질 테스트용 프롬프트 템플릿
type Template struct {
	ID             string
	Name           string
	Specialization string
	Setting        prompt.Setting
	Style          prompt.Style
	Gender         prompt.Gender
	SpecKey        string
}

// Category - 템플릿 묶음
type Category struct {
	ID        string
	Name      string
	Templates []Template
}

// 카탈로그 (순서 유지)
var catalog = []Category{
	{
		ID:   "clinical",
		Name: "Clinical Psychology",
		Templates: []Template{
			{"clinical-office-formal", "Clinical Office Portrait", "clinical psychology", prompt.SettingOffice, prompt.StyleFormal, prompt.GenderMale, prompt.SpecOfficeEnvironment},
			{"clinical-studio-formal", "Clinical Studio Headshot", "anxiety and depression treatment", prompt.SettingStudio, prompt.StyleFormal, prompt.GenderFemale, prompt.SpecStudioPortrait},
			{"clinical-video-casual", "Clinical Telehealth", "cognitive behavioral therapy", prompt.SettingVideo, prompt.StyleCasual, prompt.GenderUnisex, prompt.SpecVideoCall},
			{"clinical-presentation", "Clinical Case Presentation", "evidence-based clinical practice", prompt.SettingOffice, prompt.StyleFormal, prompt.GenderMale, prompt.SpecPresentation},
		},
	},
	{
		ID:   "counseling",
		Name: "Counseling",
		Templates: []Template{
			{"counseling-office-casual", "Counseling Office", "individual counseling", prompt.SettingOffice, prompt.StyleCasual, prompt.GenderFemale, prompt.SpecOfficeEnvironment},
			{"counseling-home-casual", "Counseling Home Practice", "grief counseling", prompt.SettingHome, prompt.StyleCasual, prompt.GenderMale, prompt.SpecHomeOffice},
			{"counseling-outdoor-creative", "Counseling Outdoors", "mindfulness-based counseling", prompt.SettingOutdoor, prompt.StyleCreative, prompt.GenderUnisex, prompt.SpecOutdoorNatural},
			{"counseling-video-formal", "Counseling Online", "career counseling", prompt.SettingVideo, prompt.StyleFormal, prompt.GenderFemale, prompt.SpecVideoCall},
		},
	},
	{
		ID:   "child_adolescent",
		Name: "Child & Adolescent",
		Templates: []Template{
			{"child-office-creative", "Child Therapy Office", "child and adolescent psychology", prompt.SettingOffice, prompt.StyleCreative, prompt.GenderFemale, prompt.SpecOfficeEnvironment},
			{"child-home-casual", "Family-Friendly Home Office", "play therapy", prompt.SettingHome, prompt.StyleCasual, prompt.GenderMale, prompt.SpecHomeOffice},
			{"child-studio-casual", "Adolescent Studio Portrait", "adolescent development", prompt.SettingStudio, prompt.StyleCasual, prompt.GenderUnisex, prompt.SpecStudioPortrait},
			{"child-outdoor-creative", "School Psychologist Outdoors", "school psychology", prompt.SettingOutdoor, prompt.StyleCreative, prompt.GenderFemale, prompt.SpecOutdoorNatural},
		},
	},
	{
		ID:   "couples_family",
		Name: "Couples & Family",
		Templates: []Template{
			{"couples-office-formal", "Couples Therapy Office", "couples therapy", prompt.SettingOffice, prompt.StyleFormal, prompt.GenderMale, prompt.SpecOfficeEnvironment},
			{"family-home-casual", "Family Systems Home Office", "family systems therapy", prompt.SettingHome, prompt.StyleCasual, prompt.GenderFemale, prompt.SpecHomeOffice},
			{"couples-video-casual", "Couples Telehealth", "relationship counseling", prompt.SettingVideo, prompt.StyleCasual, prompt.GenderUnisex, prompt.SpecVideoCall},
			{"family-outdoor-casual", "Family Therapist Outdoors", "parenting support", prompt.SettingOutdoor, prompt.StyleCasual, prompt.GenderMale, prompt.SpecOutdoorNatural},
		},
	},
	{
		ID:   "neuropsychology",
		Name: "Neuropsychology",
		Templates: []Template{
			{"neuro-office-formal", "Neuropsychology Clinic", "clinical neuropsychology", prompt.SettingOffice, prompt.StyleFormal, prompt.GenderFemale, prompt.SpecOfficeEnvironment},
			{"neuro-studio-formal", "Neuropsychologist Headshot", "cognitive assessment", prompt.SettingStudio, prompt.StyleFormal, prompt.GenderMale, prompt.SpecStudioPortrait},
			{"neuro-presentation", "Neuropsychology Grand Rounds", "brain injury rehabilitation", prompt.SettingOffice, prompt.StyleFormal, prompt.GenderUnisex, prompt.SpecPresentation},
			{"neuro-video-formal", "Remote Assessment", "memory and aging", prompt.SettingVideo, prompt.StyleFormal, prompt.GenderFemale, prompt.SpecVideoCall},
		},
	},
	{
		ID:   "wellness_coaching",
		Name: "Wellness & Coaching",
		Templates: []Template{
			{"wellness-outdoor-creative", "Wellness Garden Portrait", "health psychology", prompt.SettingOutdoor, prompt.StyleCreative, prompt.GenderFemale, prompt.SpecOutdoorNatural},
			{"wellness-home-creative", "Coaching Home Studio", "positive psychology coaching", prompt.SettingHome, prompt.StyleCreative, prompt.GenderMale, prompt.SpecHomeOffice},
			{"wellness-studio-creative", "Coaching Brand Headshot", "performance psychology", prompt.SettingStudio, prompt.StyleCreative, prompt.GenderUnisex, prompt.SpecStudioPortrait},
			{"wellness-presentation", "Wellness Workshop Host", "stress management", prompt.SettingOffice, prompt.StyleCasual, prompt.GenderFemale, prompt.SpecPresentation},
		},
	},
}

// Categories - 카탈로그 복사본
func Categories() []Category {
	out := make([]Category, len(catalog))
	for i, c := range catalog {
		out[i] = c
		out[i].Templates = append([]Template(nil), c.Templates...)
	}
	return out
}

// TemplateCount - 전체 템플릿 수
func TemplateCount() int {
	n := 0
	for _, c := range catalog {
		n += len(c.Templates)
	}
	return n
}

// RenderTemplate - 템플릿을 실제 프롬프트로 변환
func RenderTemplate(tmpl Template) (string, error) {
	specs, ok := prompt.Specs(tmpl.SpecKey)
	if !ok {
		return "", fmt.Errorf("template %s: unknown spec key %q", tmpl.ID, tmpl.SpecKey)
	}

	ctx, err := prompt.CreatePsychologistContext(tmpl.Specialization, tmpl.Setting, tmpl.Style, tmpl.Gender)
	if err != nil {
		return "", fmt.Errorf("template %s: %w", tmpl.ID, err)
	}

	return prompt.BuildPrompt(ctx, specs, tmpl.Gender), nil
}
