package filament

import "strconv"

// Filament is one distinct material/color used by a print job. The ID is the
// zero-based index that tool-change commands refer to; everything shown to
// the user is 1-based.
type Filament struct {
	ID    int
	Color string
}

// String renders the 1-based id, matching what the slicer shows.
func (f Filament) String() string {
	return strconv.Itoa(f.ID + 1)
}
