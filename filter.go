package treesearch

import "github.com/RoaringBitmap/roaring/v2"

// FilterFunc reports whether the reference point at the given input-order
// index may appear in results. Filters are consulted in every traversal
// mode before a candidate is offered.
type FilterFunc func(index int) bool

// BitmapFilter returns a FilterFunc admitting exactly the indices set in
// the bitmap. The bitmap must not be mutated while a search runs.
func BitmapFilter(bm *roaring.Bitmap) FilterFunc {
	return func(index int) bool {
		return index >= 0 && bm.Contains(uint32(index))
	}
}
