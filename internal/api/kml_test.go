package api

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
)

func TestWriteAlertsKML(t *testing.T) {
	alerts := []chaincontrol.ChainAlert{
		{
			PassID:           "donner-pass",
			Name:             "Donner Pass",
			Highway:          "I-80",
			ChainRequirement: chaincontrol.LevelR2,
			Weather:          chaincontrol.WeatherSnapshot{Condition: "Snow", Description: "heavy snow", Temp: 24, WindSpeed: 12},
			Location:         chaincontrol.Location{Lat: 39.3157, Lng: -120.3268},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAlertsKML(&buf, "I-80 chain controls", alerts))
	body := buf.String()

	assert.Contains(t, body, "<name>I-80 chain controls</name>")
	assert.Contains(t, body, "<name>R2 Donner Pass</name>")
	assert.Contains(t, body, "R2 - Chains Required on I-80. heavy snow (24°F, 12 mph wind).")
	assert.Contains(t, body, "<coordinates>")
	assert.Contains(t, body, "<styleUrl>#level-R2</styleUrl>")
	assert.Equal(t, 3, strings.Count(body, "<Style id="), "one style per restricted level")
}

func TestWriteAlertsKML_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAlertsKML(&buf, "Nothing", nil))
	assert.NotContains(t, buf.String(), "<Placemark>")
	assert.Contains(t, buf.String(), "<Document>")
}
