package app

import (
	"context"
	"errors"
	"fmt"

	"pixelgroomer/internal/config"
	"pixelgroomer/internal/domain"
	appErrors "pixelgroomer/internal/errors"
	"pixelgroomer/internal/logging"
)

// Deleter removes the sources of successfully imported files once the user
// agreed to it.
type Deleter struct {
	FS     FileSystem
	Prompt PromptPort
	Logger logging.Logger
}

// Delete marks deleted sources on the returned copy of results. Only
// succeeded actions are eligible. When deletion is declined or disabled the
// returned error has kind DeleteDeclined.
func (d Deleter) Delete(ctx context.Context, results []domain.ExecutionResult, cfg config.EffectiveConfig) ([]domain.ExecutionResult, error) {
	out := append([]domain.ExecutionResult(nil), results...)

	var eligible []int
	for i, r := range out {
		if r.Status == domain.StatusSucceeded {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return out, nil
	}
	if cfg.NoDelete {
		return out, appErrors.Wrap(appErrors.DeleteDeclined, "delete", "", errors.New("--no-delete is set"))
	}
	if ctx.Err() != nil {
		return out, appErrors.Wrap(appErrors.DeleteDeclined, "delete", "", ctx.Err())
	}

	if cfg.ConfirmDelete {
		if d.Prompt == nil {
			return out, appErrors.Wrap(appErrors.DeleteDeclined, "delete", "", errors.New("no prompt available"))
		}
		ok, err := d.Prompt.Confirm(fmt.Sprintf("Delete %d imported source files?", len(eligible)), false)
		if err != nil {
			return out, appErrors.Wrap(appErrors.DeleteDeclined, "delete", "", err)
		}
		if !ok {
			return out, appErrors.Wrap(appErrors.DeleteDeclined, "delete", "", errors.New("declined by user"))
		}
	}

	for _, i := range eligible {
		if ctx.Err() != nil {
			break
		}
		src := out[i].Action.Source.Path
		if err := d.FS.Remove(src); err != nil {
			d.Logger.Warnf("Could not delete %s: %v", src, err)
			continue
		}
		out[i].SourceDeleted = true
	}
	return out, nil
}
