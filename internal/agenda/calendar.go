package agenda

import "time"

// GridCells is the fixed size of the month view: six weeks of seven days.
const GridCells = 42

// maxPerCell caps the titles shown in one day cell.
const maxPerCell = 2

// Cell is one day in the month grid.
type Cell struct {
	Date    time.Time
	Day     int
	InMonth bool
	Today   bool
	Events  []EventItem
}

// MonthGrid lays out the month containing ref as 42 cells starting on the
// Sunday on or before the 1st.  Each cell lists at most two events whose
// start falls on that day in ref's location.
func MonthGrid(ref time.Time, events []EventItem) []Cell {
	loc := ref.Location()
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	ty, tm, td := ref.Date()

	cells := make([]Cell, GridCells)
	for i := range cells {
		d := start.AddDate(0, 0, i)
		y, m, day := d.Date()
		c := Cell{
			Date:    d,
			Day:     day,
			InMonth: m == ref.Month(),
			Today:   y == ty && m == tm && day == td,
		}
		for _, e := range events {
			ey, em, ed := e.Start.In(loc).Date()
			if ey == y && em == m && ed == day {
				c.Events = append(c.Events, e)
				if len(c.Events) == maxPerCell {
					break
				}
			}
		}
		cells[i] = c
	}
	return cells
}

// Weeks splits cells into rows of seven for templates.
func Weeks(cells []Cell) [][]Cell {
	rows := make([][]Cell, 0, len(cells)/7)
	for i := 0; i+7 <= len(cells); i += 7 {
		rows = append(rows, cells[i:i+7])
	}
	return rows
}
