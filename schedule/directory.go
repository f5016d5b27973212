package schedule

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// DIRECTORY - The employee universe for assignment
// =============================================================================

// DefaultEmployees is the fixed roster every session starts from.
func DefaultEmployees() []Employee {
	return []Employee{
		{ID: "NV001", Name: "Bùi Đức Huy"},
		{ID: "NV002", Name: "Tạ Lê Uyên"},
		{ID: "NV003", Name: "Cung Hồng Ngân Hà"},
		{ID: "NV004", Name: "Nguyễn Phương Thảo"},
		{ID: "NV005", Name: "Trần Vũ Phương Oanh"},
		{ID: "NV006", Name: "Nguyễn Minh Nguyệt"},
		{ID: "NV007", Name: "Đinh Diệu An"},
		{ID: "NV008", Name: "Nguyễn Văn Toàn"},
	}
}

// NewEmployeeIDPrefix marks identifiers synthesized during ingestion.
const NewEmployeeIDPrefix = "NEW_"

// NameKey is the directory's de-duplication key for a display name: NFC
// normalized, trimmed, inner whitespace collapsed and case folded. Two
// names collide only if their keys are equal.
func NameKey(name string) string {
	collapsed := strings.Join(strings.Fields(norm.NFC.String(name)), " ")
	return cases.Fold().String(collapsed)
}

// CleanName trims and collapses whitespace without changing case, for display.
func CleanName(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

// Directory holds the ordered employee universe: defaults first, then
// names discovered during ingestion in first-seen order. Entries are
// never removed.
type Directory struct {
	mu        sync.RWMutex
	employees []Employee
	byKey     map[string]int
}

// NewDirectory seeds a directory. Later defaults whose name key collides
// with an earlier one are skipped.
func NewDirectory(defaults []Employee) *Directory {
	d := &Directory{byKey: make(map[string]int, len(defaults))}
	for _, e := range defaults {
		d.addLocked(e)
	}
	return d
}

func (d *Directory) addLocked(e Employee) bool {
	key := NameKey(e.Name)
	if key == "" {
		return false
	}
	if _, ok := d.byKey[key]; ok {
		return false
	}
	d.byKey[key] = len(d.employees)
	d.employees = append(d.employees, e)
	return true
}

// Extend appends every name not already present and returns the new entries.
func (d *Directory) Extend(names []string) []Employee {
	d.mu.Lock()
	defer d.mu.Unlock()

	var added []Employee
	for _, name := range names {
		clean := CleanName(name)
		e := Employee{ID: EmployeeID(NewEmployeeIDPrefix + clean), Name: clean}
		if d.addLocked(e) {
			added = append(added, e)
		}
	}
	return added
}

// Employees returns a copy of the universe in directory order.
func (d *Directory) Employees() []Employee {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Employee(nil), d.employees...)
}

// Lookup finds an employee by name using the directory key.
func (d *Directory) Lookup(name string) (Employee, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.byKey[NameKey(name)]
	if !ok {
		return Employee{}, false
	}
	return d.employees[i], true
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.employees)
}
