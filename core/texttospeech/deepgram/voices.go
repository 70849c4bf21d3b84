package deepgram

import "github.com/koscakluka/ema-voice/core/texttospeech"

const defaultVoice = "aura-2-thalia-en"

var auraVoices = []texttospeech.Voice{
	{ID: "aura-2-thalia-en", Name: "Thalia", Language: "en-US"},
	{ID: "aura-2-andromeda-en", Name: "Andromeda", Language: "en-US"},
	{ID: "aura-2-helena-en", Name: "Helena", Language: "en-US"},
	{ID: "aura-2-apollo-en", Name: "Apollo", Language: "en-US"},
	{ID: "aura-2-arcas-en", Name: "Arcas", Language: "en-US"},
	{ID: "aura-2-aries-en", Name: "Aries", Language: "en-US"},
	{ID: "aura-asteria-en", Name: "Asteria", Language: "en-US"},
	{ID: "aura-luna-en", Name: "Luna", Language: "en-US"},
	{ID: "aura-stella-en", Name: "Stella", Language: "en-US"},
	{ID: "aura-athena-en", Name: "Athena", Language: "en-GB"},
	{ID: "aura-hera-en", Name: "Hera", Language: "en-US"},
	{ID: "aura-orion-en", Name: "Orion", Language: "en-US"},
	{ID: "aura-perseus-en", Name: "Perseus", Language: "en-US"},
	{ID: "aura-angus-en", Name: "Angus", Language: "en-IE"},
	{ID: "aura-orpheus-en", Name: "Orpheus", Language: "en-US"},
	{ID: "aura-helios-en", Name: "Helios", Language: "en-GB"},
	{ID: "aura-zeus-en", Name: "Zeus", Language: "en-US"},
	{ID: "aura-2-celeste-es", Name: "Celeste", Language: "es-CO"},
	{ID: "aura-2-estrella-es", Name: "Estrella", Language: "es-MX"},
	{ID: "aura-2-nestor-es", Name: "Nestor", Language: "es-ES"},
}

// GetAvailableVoices returns a copy of the Aura voice catalog.
func GetAvailableVoices() []texttospeech.Voice {
	voices := make([]texttospeech.Voice, len(auraVoices))
	copy(voices, auraVoices)
	return voices
}
