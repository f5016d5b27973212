/*
Package availability turns spreadsheet rows into per-employee registrations.

PURPOSE:
  Staff submit availability through a form whose export format drifts
  over time: sometimes one column per weekday, sometimes a single column
  of "day + shift" phrases, in Vietnamese or English. This package
  detects the layout from the header row and normalizes every data row
  into a schedule.Registration.

LAYOUTS:
  Per-day:  | Tên | Thứ 2      | Thứ 3 | ... | Lý do |
            | An  | Ca 1, Ca 2 | Tối   | ... | exams |
  List:     | Name | Shifts                        |
            | An   | Mon morning; T3 ca 2; CN tối |

LENIENCY:
  Nothing here returns an error. Unknown tokens, blank names and short
  rows are dropped. A sheet without a name column yields an empty Result.

SEE ALSO:
  - sheet/parse.go: Produces the rows
  - schedule/types.go: Registration.Merge
*/
package availability

import (
	"github.com/warp/shift-roster/schedule"
	"github.com/warp/shift-roster/sheet"
)

// Result is the normalized content of one sheet.
type Result struct {
	// Names in first-seen order, using the first-seen spelling.
	Names         []string
	Registrations schedule.Registrations
	Layout        Layout
	Rows          int // data rows read
	Dropped       int // data rows without a name
}

// Empty reports whether nothing was registered.
func (r Result) Empty() bool { return len(r.Registrations) == 0 }

// Normalize interprets rows, the first of which is the header.
func Normalize(rows [][]string) Result {
	res := Result{Registrations: schedule.Registrations{}}
	if len(rows) == 0 {
		res.Layout = DetectLayout(nil)
		return res
	}

	res.Layout = DetectLayout(sheet.Header(rows))
	if res.Layout.NameCol < 0 {
		return res
	}

	display := map[string]string{}
	for _, row := range rows[1:] {
		res.Rows++

		name := schedule.CleanName(sheet.Cell(row, res.Layout.NameCol))
		if name == "" {
			res.Dropped++
			continue
		}

		reg := schedule.Registration{Slots: parseRow(row, res.Layout)}
		if res.Layout.ReasonCol >= 0 {
			reg.Reason = sheet.Cell(row, res.Layout.ReasonCol)
		}

		key := schedule.NameKey(name)
		shown, seen := display[key]
		if !seen {
			shown = name
			display[key] = name
			res.Names = append(res.Names, name)
		}
		merged := res.Registrations[shown]
		merged.Merge(reg)
		res.Registrations[shown] = merged
	}
	return res
}

// NormalizeText parses and normalizes raw export text.
func NormalizeText(text string) Result {
	return Normalize(sheet.Parse(text))
}

func parseRow(row []string, l Layout) schedule.SlotSet {
	slots := schedule.NewSlotSet()
	switch l.Mode {
	case ModePerDay:
		for day, col := range l.DayCols {
			for _, shift := range ParseDayCell(sheet.Cell(row, col)) {
				slots.Add(schedule.NewSlot(day, shift))
			}
		}
	case ModeList:
		for _, s := range ParseList(sheet.Cell(row, l.ListCol)) {
			slots.Add(s)
		}
	}
	return slots
}
