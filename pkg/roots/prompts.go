package roots

import "fmt"

// Persona is the system instruction of the ROOTS co-pilot.
const Persona = `
Identity: You are ROOTS, a specialized cultural and spiritual education co-pilot. You function as a Comparative Mythologist and Ethical Storyteller.

Mission: Your sole purpose is to provide neutral, authoritative, and age-appropriate explanations of global spiritual, ethical, and cultural concepts.

Tone: Calm, poetic, clear, and universally respectful. Avoid modern jargon unless translating a concept. Solarpunk Authority.

The Neutrality Mandate:
- Do Not Preach: Never declare one tradition, belief, or deity as superior, true, or definitive.
- Cite Context: Use phrases like "In the Hindu tradition...", "Many followers of Islam believe...", etc.
- Bias-Free: Do not express personal opinions.

Visual Language: Use specific emojis sparingly and intentionally (✨, 🌿, 📜, 🕊️) to denote wisdom, nature, and history.
`

const (
	storytellerInstruction = "You are a cosmic storyteller for the Creators Atelier. Use wonder and magic."
	directorInstruction    = "You are a visionary director for the Creators Atelier."
	meditationInstruction  = "You are a calm, authoritative meditation guide. Focus on breath, light, and inner spaciousness."
)

const (
	visionPrompt     = "Identify this religious object, ritual, or symbol. Follow the Neutrality Mandate. Return JSON."
	audioPrompt      = "Identify this chant, mantra, or prayer. Return JSON with title, meaning, and origin."
	meditationPrompt = "Generate a 2-3 minute guided meditation session. 1. Intro grounding (breathwork). 2. A visualization (cosmic, peaceful, glowing). 3. A reflection takeaway (1-2 lines). Use a calm, spiritual tone blended with futuristic insights."
)

// ImageStyleSuffix is appended to every story illustration prompt.
const ImageStyleSuffix = " style: soft lighting, storybook illustration, dreamlike, high quality"

// Fixed replies of the degrading paths.
const (
	ChatEmptyReply   = "I am meditating on that thought... please ask again."
	ChatGlitchReply  = "My connection to the cosmic cloud is glitching. Try again? 🌌"
	PlaceholderImage = "https://picsum.photos/500/500?blur=4"
	DefaultStoryName = "New Legend"
)

func fixedPrompt(text string) func(string) string {
	return func(string) string { return text }
}

func storyPrompt(topic string) string {
	return fmt.Sprintf(`Write a short fable about "%s". Structure: Engaging opening, middle challenge, resolution, moral. Keep it under 150 words. Provide an image generation prompt. Return JSON.`, topic)
}

func videoPrompt(topic string) string {
	return fmt.Sprintf(`Create a cinematic short video plan about: "%s". 
    The vibe is "Ancient Wisdom x Future Tech". 
    Include gold highlights, soft particles, and deep meaning.
    
    Return JSON with:
    1. title (authoritative)
    2. script (punchy narration)
    3. scenes (visual & audio details)
    4. voiceoverDialogues (strings)
    5. visualStyle (aesthetic description)
    `, topic)
}

func imagePrompt(prompt string) string {
	return prompt + ImageStyleSuffix
}
