package provider

// GenerateRequest is the JSON body of a generateContent call.
type GenerateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
	SafetySettings   []SafetySetting  `json:"safetySettings,omitempty"`
}

// Content is one conversational turn.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is a single text fragment of a Content.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig carries the sampling parameters.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

// HarmCategory names a content-safety category.
type HarmCategory string

const (
	HarmCategoryHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmCategoryHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmCategorySexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmCategoryDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// AllHarmCategories lists the categories covered by a uniform safety policy.
var AllHarmCategories = []HarmCategory{
	HarmCategoryHarassment,
	HarmCategoryHateSpeech,
	HarmCategorySexuallyExplicit,
	HarmCategoryDangerousContent,
}

// BlockNone disables blocking for a category.
const BlockNone = "BLOCK_NONE"

// SafetySetting maps a category to a blocking threshold.
type SafetySetting struct {
	Category  HarmCategory `json:"category"`
	Threshold string       `json:"threshold"`
}

// UniformSafety returns one setting per known category, all with the
// same threshold.
func UniformSafety(threshold string) []SafetySetting {
	settings := make([]SafetySetting, 0, len(AllHarmCategories))
	for _, c := range AllHarmCategories {
		settings = append(settings, SafetySetting{Category: c, Threshold: threshold})
	}
	return settings
}

// GenerateResponse is a successful (2xx) reply. Body is left raw so the
// caller decides how strictly to read it.
type GenerateResponse struct {
	Model      string
	StatusCode int
	Body       []byte
}
