package catalog

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/robertmeta/vidcat/model"
)

// DefaultSort orders the most viewed videos first.
var DefaultSort = model.SortSpec{Key: model.SortByViews, Direction: model.Descending}

// Sort returns a new slice ordered by spec. Equal keys keep their input
// order. Titles and channels are compared with the root-locale collation,
// so accented letters sort next to their base letters.
func Sort(videos []model.Video, spec model.SortSpec) []model.Video {
	sorted := slices.Clone(videos)
	compare := comparator(spec.Key)

	slices.SortStableFunc(sorted, func(a, b model.Video) int {
		if spec.Direction == model.Descending {
			return -compare(a, b)
		}
		return compare(a, b)
	})

	return sorted
}

func comparator(key model.SortKey) func(a, b model.Video) int {
	switch key {
	case model.SortByDuration:
		return func(a, b model.Video) int {
			return cmp.Compare(a.DurationSeconds, b.DurationSeconds)
		}
	case model.SortByTitle:
		// A Collator keeps scratch buffers; one per Sort call keeps Sort safe
		// for concurrent use.
		col := collate.New(language.Und)
		return func(a, b model.Video) int {
			return col.CompareString(a.Title, b.Title)
		}
	case model.SortByChannel:
		col := collate.New(language.Und)
		return func(a, b model.Video) int {
			return col.CompareString(a.Channel, b.Channel)
		}
	default:
		return func(a, b model.Video) int {
			return cmp.Compare(a.ViewCount, b.ViewCount)
		}
	}
}
