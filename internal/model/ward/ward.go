package ward

import (
	"strings"

	"github.com/zhouzirui/z-reception/backend/internal/analysis/intent"
)

// Ward captures the wording used while collecting intake for one category.
// Templates may reference the caller's name as {name}.
type Ward struct {
	ID                string          `json:"id" yaml:"id"`
	Category          intent.Category `json:"category" yaml:"category"`
	Name              string          `json:"name" yaml:"name"`
	Description       string          `json:"description,omitempty" yaml:"description"`
	NamePrompt        string          `json:"namePrompt" yaml:"name_prompt"`
	AgePrompt         string          `json:"agePrompt" yaml:"age_prompt"`
	ReasonPrompt      string          `json:"reasonPrompt" yaml:"reason_prompt"`
	CompletionSaved   string          `json:"completionSaved" yaml:"completion_saved"`
	CompletionUnsaved string          `json:"completionUnsaved" yaml:"completion_unsaved"`
}

// Render substitutes the caller's name into a template.
func Render(template, name string) string {
	return strings.ReplaceAll(template, "{name}", name)
}

// Completion picks the closing message depending on whether the record was persisted.
func (w Ward) Completion(name string, saved bool) string {
	if saved {
		return Render(w.CompletionSaved, name)
	}
	return Render(w.CompletionUnsaved, name)
}

// Seed provides the default wards and their wording.
func Seed() []Ward {
	return []Ward{
		{
			ID:                intent.General.Ward(),
			Category:          intent.General,
			Name:              "General Ward",
			Description:       "Check-ups, ongoing symptoms and non-urgent care.",
			NamePrompt:        "Thank you for contacting the General Ward. May I please have your name?",
			AgePrompt:         "Thank you, {name}. Could you please provide your age?",
			ReasonPrompt:      "Thank you. Could you please describe your concern or the reason for your visit?",
			CompletionSaved:   "Thank you, {name}. Your information has been successfully recorded and saved. You've been routed to the General Ward. A staff member will be with you shortly.",
			CompletionUnsaved: "Thank you, {name}. Your information has been recorded and you've been routed to the General Ward. A staff member will be with you shortly.",
		},
		{
			ID:                intent.Emergency.Ward(),
			Category:          intent.Emergency,
			Name:              "Emergency Ward",
			Description:       "Injuries, accidents and life-threatening symptoms.",
			NamePrompt:        "This is the Emergency Ward. I need to collect some information quickly. What is the patient's name?",
			AgePrompt:         "Thank you. What is {name}'s age?",
			ReasonPrompt:      "Please describe the emergency situation or symptoms.",
			CompletionSaved:   "Emergency information recorded and saved for {name}. Medical staff are being notified immediately.",
			CompletionUnsaved: "Emergency information recorded for {name}. Medical staff are being notified immediately.",
		},
		{
			ID:                intent.MentalHealth.Ward(),
			Category:          intent.MentalHealth,
			Name:              "Mental Health Ward",
			Description:       "Anxiety, depression, stress and other mental health support.",
			NamePrompt:        "Thank you for reaching out to the Mental Health Ward. To assist you better, could you please provide your name?",
			AgePrompt:         "Thank you, {name}. Could you please provide your age?",
			ReasonPrompt:      "Could you please share what brings you to the Mental Health Ward today?",
			CompletionSaved:   "Thank you, {name}. Your information has been saved and sent to the Mental Health Ward. A mental health professional will contact you soon.",
			CompletionUnsaved: "Thank you, {name}. Your information has been sent to the Mental Health Ward. A mental health professional will contact you soon.",
		},
	}
}
