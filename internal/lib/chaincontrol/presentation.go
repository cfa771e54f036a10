package chaincontrol

// ChainControlEmoji returns the badge glyph for a chain level
func ChainControlEmoji(level ChainLevel) string {
	switch level.Code {
	case LevelR3.Code:
		return "🚫"
	case LevelR2.Code:
		return "⛓️"
	case LevelR1.Code:
		return "🔗"
	default:
		return "✅"
	}
}

// ChainControlAdvice returns the driver-facing advisory sentence for a chain level
func ChainControlAdvice(level ChainLevel) string {
	switch level.Code {
	case LevelR3.Code:
		return "Road closed. Do not attempt the pass; hold the load or take an alternate route."
	case LevelR2.Code:
		return "Chains required on all vehicles except 4WD/AWD with snow tires. Chain up before the checkpoint."
	case LevelR1.Code:
		return "Chains required on the drive axle. Install chains at the chain-up area before the summit."
	default:
		return "No chain control expected. Carry chains and monitor conditions before departure."
	}
}
