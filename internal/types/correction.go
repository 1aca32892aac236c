package types

// Correction is the verdict on a free-text essay answer.
type Correction struct {
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback"`
}

// Voice is a prebuilt speech synthesis voice.
type Voice string

const (
	VoiceAlgenib  Voice = "Algenib"
	VoiceAchernar Voice = "Achernar"
	VoiceSpica    Voice = "Spica"
	VoiceHadar    Voice = "Hadar"
	VoiceArcturus Voice = "Arcturus"
)

// Voices lists the accepted presets; the first is the default.
func Voices() []Voice {
	return []Voice{VoiceAlgenib, VoiceAchernar, VoiceSpica, VoiceHadar, VoiceArcturus}
}

func (v Voice) Valid() bool {
	for _, p := range Voices() {
		if v == p {
			return true
		}
	}
	return false
}
