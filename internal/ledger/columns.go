package ledger

import (
	"fmt"
	"strings"
)

// ShiftColumn returns the column letter n places after base.
//
// The arithmetic is modulo 26, so offsets past 'Z' wrap around to 'A'
// instead of continuing with "AA". Division regions are at most four
// columns wide and start well before 'W', so the wrap never triggers with
// the current layout. Moving a base column into 'W'..'Z' would silently
// write into the wrong region; fix it here, in one place, if that changes.
func ShiftColumn(base byte, n int) byte {
	return byte((int(base-'A')+n)%26 + 'A')
}

// A1 formats a sheet-qualified range such as Internal!A4:B.
func A1(tab string, startCol byte, startRow int, endCol byte, endRow int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s!%c%d:%c", tab, startCol, startRow, endCol)
	if endRow > 0 {
		fmt.Fprintf(&b, "%d", endRow)
	}
	return b.String()
}
