package app

import (
	"sort"

	"pixelgroomer/internal/domain"
)

// Group clusters probed files into shots keyed by (capture day, base
// identity key), orders the shots by their earliest member and numbers them
// 1..N per calendar day.
//
// Two unrelated exposures sharing both day and base key (a reset camera
// counter) end up in one shot; nothing tries to tell them apart.
func Group(files []domain.SourceFile) []domain.Shot {
	byKey := map[string]*domain.Shot{}
	var keys []string

	for _, f := range files {
		if f.Class == domain.ClassUnsupported {
			continue
		}
		key := domain.ShotKey(f.TakenAt, f.BaseKey)
		shot, ok := byKey[key]
		if !ok {
			shot = &domain.Shot{
				Key:     key,
				Day:     f.TakenAt.Format(domain.DayLayout),
				BaseKey: f.BaseKey,
			}
			byKey[key] = shot
			keys = append(keys, key)
		}
		if f.IsRAW() {
			shot.Raw = append(shot.Raw, f)
		} else {
			shot.Images = append(shot.Images, f)
		}
	}

	shots := make([]domain.Shot, 0, len(keys))
	for _, key := range keys {
		shot := byKey[key]
		sortByPath(shot.Raw)
		sortByPath(shot.Images)
		shots = append(shots, *shot)
	}

	sort.SliceStable(shots, func(i, j int) bool {
		return domain.CaptureBefore(shots[i].Earliest(), shots[j].Earliest())
	})

	seq := map[string]int{}
	for i := range shots {
		seq[shots[i].Day]++
		shots[i].Seq = seq[shots[i].Day]
	}
	return shots
}

func sortByPath(files []domain.SourceFile) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
}
