package briefing

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"
)

// SystemPrompt instructs the model to write a dispatcher-style briefing
const SystemPrompt = `You are a winter road dispatcher writing a short briefing for a commercial driver about to run a mountain route.

Instructions:
- Use only the chain-control alerts provided. Do not invent passes, conditions, or levels.
- Lead with the most severe condition on the route.
- Chain levels: R1 = chains on the drive axle, R2 = chains on all vehicles except 4WD/AWD with snow tires, R3 = road closed.
- Temperatures are °F, wind speeds are mph, distances are miles from the route.
- Keep the tone calm and direct. No marketing language, no emoji.

Return valid JSON with these exact fields:
- headline (string): one line, max 90 chars, names the worst pass and its level
- body (string): 2 to 4 sentences covering every alerted pass, most severe first
- actions (array of strings): 1 to 4 concrete steps the driver should take, imperative mood

If there are no alerts, say that no chain controls are expected and remind the driver to carry chains.`

// BriefingSchema defines the JSON schema for structured briefing output
var BriefingSchema = openai.ChatCompletionResponseFormatJSONSchema{
	Name:   "driver_briefing",
	Strict: true,
	Schema: json.RawMessage(`{
		"type": "object",
		"properties": {
			"headline": {
				"type": "string",
				"description": "One-line summary naming the worst pass and its chain level"
			},
			"body": {
				"type": "string",
				"description": "Two to four sentences covering every alerted pass, most severe first"
			},
			"actions": {
				"type": "array",
				"items": { "type": "string" },
				"description": "Concrete steps for the driver, imperative mood"
			}
		},
		"required": ["headline", "body", "actions"],
		"additionalProperties": false
	}`),
}
