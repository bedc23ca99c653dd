package catalog

import (
	"slices"

	"github.com/robertmeta/vidcat/model"
)

// DefaultPageSize is the number of videos per page in the grid.
const DefaultPageSize = 24

func pageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	return size
}

// TotalPages returns how many pages n videos fill. An empty result still
// has one (empty) page.
func TotalPages(n, size int) int {
	size = pageSize(size)
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate returns page number (1-based) of videos. Pages outside the
// available range are empty.
func Paginate(videos []model.Video, size, number int) []model.Video {
	size = pageSize(size)
	if number < 1 || number-1 >= (len(videos)+size-1)/size {
		return []model.Video{}
	}

	start := (number - 1) * size
	end := min(start+size, len(videos))
	return slices.Clone(videos[start:end])
}

// Derive runs the whole pipeline over the loaded videos: filter, sort, then
// cut out the requested page.
func Derive(all []model.Video, criteria model.FilterCriteria, spec model.SortSpec, page model.PageState) model.View {
	sorted := Sort(Filter(all, criteria), spec)
	size := pageSize(page.Size)

	return model.View{
		Videos:     Paginate(sorted, size, page.Number),
		TotalCount: len(sorted),
		TotalPages: TotalPages(len(sorted), size),
		Page:       page.Number,
		PageSize:   size,
	}
}
