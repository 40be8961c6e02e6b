package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelgroomer/internal/config"
	"pixelgroomer/internal/domain"
	appErrors "pixelgroomer/internal/errors"
)

func executed(t *testing.T, fs *memFS, cfg config.EffectiveConfig) []domain.ExecutionResult {
	t.Helper()
	plan := planFor(t, fs, cfg, "A.JPG", "B.JPG", "C.JPG")
	fs.copyErr["/sd/B.JPG"] = assert.AnError
	results, err := (&Executor{FS: fs}).Execute(context.Background(), plan, cfg)
	require.NoError(t, err)
	return results
}

func TestDeleteOnlySucceededSources(t *testing.T) {
	fs := newMemFS()
	cfg := testConfig()
	results := executed(t, fs, cfg)
	prompt := &fakePrompt{confirm: true}

	out, err := Deleter{FS: fs, Prompt: prompt}.Delete(context.Background(), results, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, prompt.asked)
	assert.ElementsMatch(t, []string{"/sd/A.JPG", "/sd/C.JPG"}, fs.removed)
	assert.True(t, out[0].SourceDeleted)
	assert.False(t, out[1].SourceDeleted)
	assert.True(t, out[2].SourceDeleted)
	assert.False(t, results[0].SourceDeleted)

	_, ok := fs.content("/sd/B.JPG")
	assert.True(t, ok)
	assert.Equal(t, 2, domain.Summarize(out).Deleted)
}

func TestDeleteDeclinedByUser(t *testing.T) {
	fs := newMemFS()
	cfg := testConfig()
	results := executed(t, fs, cfg)

	_, err := Deleter{FS: fs, Prompt: &fakePrompt{confirm: false}}.Delete(context.Background(), results, cfg)
	assert.True(t, appErrors.Is(err, appErrors.DeleteDeclined))
	assert.Empty(t, fs.removed)
}

func TestDeleteDisabledByNoDelete(t *testing.T) {
	fs := newMemFS()
	cfg := testConfig(func(c *config.EffectiveConfig) { c.NoDelete = true })
	results := executed(t, fs, cfg)
	prompt := &fakePrompt{confirm: true}

	_, err := Deleter{FS: fs, Prompt: prompt}.Delete(context.Background(), results, cfg)
	assert.True(t, appErrors.Is(err, appErrors.DeleteDeclined))
	assert.Zero(t, prompt.asked)
	assert.Empty(t, fs.removed)
}

func TestDeleteWithoutConfirmation(t *testing.T) {
	fs := newMemFS()
	cfg := testConfig(func(c *config.EffectiveConfig) { c.ConfirmDelete = false })
	results := executed(t, fs, cfg)

	_, err := Deleter{FS: fs}.Delete(context.Background(), results, cfg)
	require.NoError(t, err)
	assert.Len(t, fs.removed, 2)
}

func TestDeleteNeedsPromptWhenConfirming(t *testing.T) {
	fs := newMemFS()
	cfg := testConfig()
	results := executed(t, fs, cfg)

	_, err := Deleter{FS: fs}.Delete(context.Background(), results, cfg)
	assert.True(t, appErrors.Is(err, appErrors.DeleteDeclined))
	assert.Empty(t, fs.removed)
}

func TestDeleteNothingEligible(t *testing.T) {
	prompt := &fakePrompt{confirm: true}
	out, err := Deleter{FS: newMemFS(), Prompt: prompt}.Delete(context.Background(), []domain.ExecutionResult{
		{Status: domain.StatusFailed},
		{Status: domain.StatusSkipped},
	}, testConfig())
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Zero(t, prompt.asked)
}
