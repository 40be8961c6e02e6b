package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelgroomer/internal/config"
	"pixelgroomer/internal/domain"
)

func TestBuildPairsShareStem(t *testing.T) {
	files := []domain.SourceFile{
		probedFile("/sd/IMG_001.CR3", baseTime),
		probedFile("/sd/IMG_001.JPG", baseTime),
		probedFile("/sd/IMG_002.CR3", baseTime.Add(time.Minute)),
		probedFile("/sd/IMG_002.JPG", baseTime.Add(time.Minute)),
		probedFile("/sd/IMG_003.JPG", baseTime.Add(2*time.Minute)),
	}
	plan, err := Build(Group(files), testConfig(func(c *config.EffectiveConfig) { c.Event = "Test" }))
	require.NoError(t, err)
	require.Len(t, plan.Actions, 5)

	stems := map[string]map[string]bool{}
	for _, a := range plan.Actions {
		stem := strings.TrimSuffix(a.Destination, a.Source.Ext)
		if stems[a.ShotKey] == nil {
			stems[a.ShotKey] = map[string]bool{}
		}
		stems[a.ShotKey][stem] = true
	}
	assert.Len(t, stems, 3)
	for key, s := range stems {
		assert.Len(t, s, 1, key)
	}

	assert.Equal(t, 3, plan.Summary.Shots)
	assert.Equal(t, 5, plan.Summary.Files)
	assert.Equal(t, 2, plan.Summary.RawCount)
	assert.Equal(t, 3, plan.Summary.ImageCount)
	assert.Equal(t, "/lib/2026-01-24/20260124_Test_003.jpg", plan.Actions[4].Destination)
}

func TestBuildCollisionSkipsLaterAction(t *testing.T) {
	files := []domain.SourceFile{
		probedFile("/sd/A.JPG", baseTime),
		probedFile("/sd/B.JPG", baseTime.Add(time.Minute)),
	}
	cfg := testConfig(func(c *config.EffectiveConfig) { c.NamingPattern = "{date}_{event}"; c.Event = "Day" })
	plan, err := Build(Group(files), cfg)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 2)

	assert.Equal(t, plan.Actions[0].Destination, plan.Actions[1].Destination)
	assert.False(t, plan.Actions[0].Skipped())
	assert.True(t, plan.Actions[1].Skipped())
	assert.Equal(t, "/sd/A.JPG", plan.Actions[1].CollidesWith)
	assert.Equal(t, 1, plan.Summary.Collisions)
	assert.Equal(t, 1, plan.Executable())
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "B.JPG")
}

func TestBuildCollisionWithinShot(t *testing.T) {
	files := []domain.SourceFile{
		probedFile("/sd/a/IMG_1.JPG", baseTime),
		probedFile("/sd/b/img_1.jpg", baseTime),
	}
	plan, err := Build(Group(files), testConfig())
	require.NoError(t, err)
	require.Len(t, plan.Actions, 2)
	assert.True(t, plan.Actions[1].Skipped())
}

func TestBuildNoTwoExecutableActionsShareDestination(t *testing.T) {
	var files []domain.SourceFile
	for i := 0; i < 20; i++ {
		name := "/sd/IMG_" + string(rune('A'+i)) + ".JPG"
		files = append(files, probedFile(name, baseTime.Add(time.Duration(i%3)*time.Hour)))
	}
	cfg := testConfig(func(c *config.EffectiveConfig) { c.NamingPattern = "{date}_{time}" })
	plan, err := Build(Group(files), cfg)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, a := range plan.Actions {
		if a.Skipped() {
			continue
		}
		key := strings.ToLower(a.Destination)
		assert.False(t, seen[key], a.Destination)
		seen[key] = true
	}
	assert.Equal(t, 17, plan.Summary.Collisions)
}

func TestBuildMetadataKind(t *testing.T) {
	files := []domain.SourceFile{probedFile("/sd/IMG_1.JPG", baseTime)}

	plan, err := Build(Group(files), testConfig())
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCopy, plan.Actions[0].Kind)
	assert.False(t, plan.Actions[0].WritesMetadata())

	plan, err = Build(Group(files), testConfig(func(c *config.EffectiveConfig) { c.Author = "Jane Doe" }))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCopyWithMetadata, plan.Actions[0].Kind)
	assert.True(t, plan.Actions[0].WritesMetadata())
}

func TestBuildCountsFallbacksAndRange(t *testing.T) {
	fallback := domain.NewSourceFile("/sd/IMG_9.JPG", "IMG_9.JPG", 10, baseTime.Add(3*time.Hour)).
		WithCapture(baseTime.Add(3*time.Hour), domain.TimestampFilesystem, "")
	files := []domain.SourceFile{probedFile("/sd/IMG_1.JPG", baseTime), fallback}

	plan, err := Build(Group(files), testConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Summary.Fallbacks)
	require.NotNil(t, plan.Summary.RangeStart)
	require.NotNil(t, plan.Summary.RangeEnd)
	assert.True(t, plan.Summary.RangeStart.Equal(baseTime))
	assert.True(t, plan.Summary.RangeEnd.Equal(baseTime.Add(3*time.Hour)))
}

func TestBuildEmpty(t *testing.T) {
	plan, err := Build(nil, testConfig())
	require.NoError(t, err)
	assert.Empty(t, plan.Actions)
	assert.Nil(t, plan.Summary.RangeStart)
}

func TestBuildInvalidPattern(t *testing.T) {
	_, err := Build(nil, testConfig(func(c *config.EffectiveConfig) { c.NamingPattern = "{date}_{nope}" }))
	require.Error(t, err)
}

func TestBuildIsDeterministic(t *testing.T) {
	files := []domain.SourceFile{
		probedFile("/sd/IMG_2.JPG", baseTime.Add(time.Minute)),
		probedFile("/sd/IMG_1.CR3", baseTime),
		probedFile("/sd/IMG_1.JPG", baseTime),
	}
	cfg := testConfig(func(c *config.EffectiveConfig) { c.SplitByType = true })
	first, err := Build(Group(files), cfg)
	require.NoError(t, err)
	second, err := Build(Group([]domain.SourceFile{files[2], files[0], files[1]}), cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
