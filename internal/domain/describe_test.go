package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	f := ParseFeatures("cloud_total_pct=40; humidity_pct=50; precip_prob_max_pct=0; precip_total_mm=0.0")
	o := Score(f)

	assert.Equal(t,
		"Strong color expected: broken cloud primed to catch color, balanced humidity deepening the tones and dry conditions.",
		Describe(f, o, o.Score, 1))
}

func TestDescribe_LeadFollowsProbability(t *testing.T) {
	f := ParseFeatures("cloud_total_pct=40")
	o := Score(f)

	assert.True(t, strings.HasPrefix(Describe(f, o, 90, 0), "Vivid sunset ahead:"))
	assert.True(t, strings.HasPrefix(Describe(f, o, 50, 0), "Moderate color expected:"))
	assert.True(t, strings.HasPrefix(Describe(f, o, 10, 0), "Muted sunset ahead:"))
	assert.True(t, strings.HasPrefix(Describe(f, o, 10, -4), "Little color expected:"))
}

func TestDescribe_RanksLargestEffects(t *testing.T) {
	f := ParseFeatures("cloud_total_pct=99; humidity_pct=90; precip_prob_max_pct=60; precip_total_mm=0.5")
	o := Score(f)
	desc := Describe(f, o, o.Score, 0)

	assert.True(t, strings.HasPrefix(desc, "Muted sunset ahead: overcast skies blocking the sun, "), desc)
	// Four drivers at most: the cloud setup plus the three largest adjustments.
	assert.Equal(t, 3, strings.Count(desc, ",")+strings.Count(desc, " and "))
}

func TestDescribe_BoundedAndUnquoted(t *testing.T) {
	inputs := []string{
		"",
		"cloud_total_pct=3; humidity_pct=20",
		"cloud_total_pct=92; humidity_pct=95; cloud_high_pct=80; precip_total_mm=6; precip_prob_max_pct=95; low_cloud_pct=99",
		"cloud_total_pct=55; cloud_high_pct=40; humidity_pct=60",
	}
	for _, in := range inputs {
		f := ParseFeatures(in)
		o := Score(f)
		for seed := int64(0); seed < 3; seed++ {
			desc := Describe(f, o, o.Score, seed)
			assert.LessOrEqual(t, len(desc), MaxDescriptionLen)
			assert.NotContains(t, desc, `"`)
			drivers := strings.Count(desc, ",") + strings.Count(desc, " and ") + 1
			assert.GreaterOrEqual(t, drivers, 3, desc)
			assert.LessOrEqual(t, drivers, 4, desc)
		}
	}
}

func TestSanitizeDescription(t *testing.T) {
	assert.Equal(t, "A glowing sky", SanitizeDescription(`  A "glowing"   sky `))
	assert.Equal(t, "A glowing sky", SanitizeDescription("'A glowing sky'"))
	assert.Equal(t, "A glowing sky", SanitizeDescription("‘A glowing’ sky"))
	assert.Equal(t, "Clouds catch the light", SanitizeDescription("“Clouds” catch ‘the’ 'light'"))
	assert.Equal(t, "It’s bright and don't blink", SanitizeDescription("'It’s bright and don't blink'"))

	long := strings.Repeat("crimson ", 40)
	got := SanitizeDescription(long)
	assert.LessOrEqual(t, len(got), MaxDescriptionLen)
	assert.True(t, strings.HasSuffix(got, "crimson."))
}

func TestDescribe_InferredCloudIsNotDescribedAsMeasured(t *testing.T) {
	f := ParseFeatures("")
	o := Score(f)
	require.True(t, o.CloudInferred)

	desc := Describe(f, o, o.Score, 0)
	assert.Contains(t, desc, "no reliable cloud reading")
	assert.NotContains(t, desc, cloudPhrase(o.CloudPct))
}
