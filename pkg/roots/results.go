package roots

import "strings"

// VisionResult describes a religious object, ritual or symbol.
type VisionResult struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	Symbolism   string `json:"symbolism"`
	History     string `json:"history"`
}

// AudioAnalysisResult describes a chant, mantra or prayer.
type AudioAnalysisResult struct {
	Title   string `json:"title"`
	Meaning string `json:"meaning"`
	Origin  string `json:"origin"`
}

// SignalFaint is returned by AnalyzeAudio when analysis fails.
func SignalFaint() *AudioAnalysisResult {
	return &AudioAnalysisResult{
		Title:   "Signal Faint 📡",
		Meaning: "The frequencies were a bit low. Please try closer to the source.",
		Origin:  "Unknown Source",
	}
}

// storyOutput is the model-facing shape of a story.
type storyOutput struct {
	Story       string `json:"story"`
	ImagePrompt string `json:"imagePrompt"`
}

// StoryResult is a short fable with the prompt for its illustration.
// ImageURL is empty until IllustrateStory fills it.
type StoryResult struct {
	Title       string `json:"title"`
	Story       string `json:"story"`
	ImagePrompt string `json:"imagePrompt"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// VideoScene is one scene of a video plan. Scene numbers come from the model
// and may have gaps or duplicates.
type VideoScene struct {
	SceneNumber int    `json:"sceneNumber"`
	Visual      string `json:"visual"`
	Audio       string `json:"audio"`
}

// VideoPlanResult is a cinematic short video plan: narration script, visual
// style, voiceover lines and scenes in model order.
type VideoPlanResult struct {
	Title              string       `json:"title"`
	Script             string       `json:"script"`
	VisualStyle        string       `json:"visualStyle"`
	VoiceoverDialogues []string     `json:"voiceoverDialogues"`
	Scenes             []VideoScene `json:"scenes"`
}

// MeditationResult is a guided meditation in three spoken sections.
type MeditationResult struct {
	Title         string `json:"title"`
	Intro         string `json:"intro" jsonschema:"Breathing and grounding instructions"`
	Visualization string `json:"visualization" jsonschema:"The main visualization journey"`
	Reflection    string `json:"reflection" jsonschema:"A final thought or mantra"`
}

// Narration joins the spoken sections for speech synthesis.
func (m *MeditationResult) Narration() string {
	return strings.Join([]string{m.Intro, m.Visualization, m.Reflection}, " ... ")
}
