// Package fields splits one listing line into its positional columns.
package fields

import (
	"fmt"

	"github.com/Ning0612/lsparse/internal/domain"
)

// Fields holds the raw columns of one listing line
type Fields struct {
	Mode  string
	Links string
	Owner string
	Group string
	Size  string
	Month string
	Day   string
	// TimeOrYear is "HH:MM" for recent entries or a four-digit year
	TimeOrYear string
	// Name is everything after the eighth column, unsplit
	Name string
}

// fixedColumns is the number of space-delimited columns before the name
const fixedColumns = 8

var columnNames = [fixedColumns]string{
	"file mode", "link count", "owner", "group", "size",
	"timestamp month", "timestamp day", "timestamp time or year",
}

// Split cuts line into the eight fixed columns and the raw name remainder.
//
// Columns are separated by runs of spaces. The name begins after the single
// space that follows the eighth column, so any further leading spaces belong
// to the name.
func Split(line string) (Fields, error) {
	var cols [fixedColumns]string
	i := 0
	for c := 0; c < fixedColumns; c++ {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		if i == len(line) {
			return Fields{}, fmt.Errorf("%w: missing %s field", domain.ErrMalformedLine, columnNames[c])
		}
		start := i
		for i < len(line) && line[i] != ' ' {
			i++
		}
		cols[c] = line[start:i]
	}

	// i sits on the separator space or at end of line
	if i+1 >= len(line) {
		return Fields{}, fmt.Errorf("%w: missing file name", domain.ErrMalformedLine)
	}

	return Fields{
		Mode:       cols[0],
		Links:      cols[1],
		Owner:      cols[2],
		Group:      cols[3],
		Size:       cols[4],
		Month:      cols[5],
		Day:        cols[6],
		TimeOrYear: cols[7],
		Name:       line[i+1:],
	}, nil
}
