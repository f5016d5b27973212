package schedule

import "sort"

// =============================================================================
// REGISTRATION SUMMARY - Who registered, and who registered too little
// =============================================================================

// MinRegisteredDays is the number of distinct days below which a
// registration is flagged as low.
const MinRegisteredDays = 4

type RegistrationStatus string

const (
	StatusRegistered    RegistrationStatus = "registered"
	StatusNotRegistered RegistrationStatus = "not_registered"
)

const (
	ReasonNotSubmitted = "no registration submitted"
	ReasonNotGiven     = "no reason given"
)

// RegistrationSummary is one employee's row in the registration overview.
type RegistrationSummary struct {
	Employee        Employee
	Status          RegistrationStatus
	Days            int
	Slots           []Slot
	LowRegistration bool
	Reason          string
}

// RegistrationReport summarizes a whole directory.
type RegistrationReport struct {
	Entries    []RegistrationSummary
	Total      int
	Registered int
	Missing    int
}

// SummarizeRegistrations builds the overview for every employee. Anyone
// present in regs counts as registered, even with no slots. Low
// registrations sort first, then registered before not registered;
// otherwise directory order is kept.
func SummarizeRegistrations(employees []Employee, regs Registrations) RegistrationReport {
	report := RegistrationReport{Total: len(employees)}

	for _, e := range employees {
		reg, ok := regs[e.Name]
		if !ok {
			report.Missing++
			report.Entries = append(report.Entries, RegistrationSummary{
				Employee: e,
				Status:   StatusNotRegistered,
				Reason:   ReasonNotSubmitted,
			})
			continue
		}

		report.Registered++
		entry := RegistrationSummary{
			Employee: e,
			Status:   StatusRegistered,
			Days:     reg.Slots.DistinctDays(),
			Slots:    reg.Slots.Sorted(),
			Reason:   reg.Reason,
		}
		entry.LowRegistration = entry.Days < MinRegisteredDays
		if entry.Reason == "" && entry.LowRegistration {
			entry.Reason = ReasonNotGiven
		}
		report.Entries = append(report.Entries, entry)
	}

	sort.SliceStable(report.Entries, func(i, j int) bool {
		a, b := report.Entries[i], report.Entries[j]
		if a.LowRegistration != b.LowRegistration {
			return a.LowRegistration
		}
		return a.Status == StatusRegistered && b.Status == StatusNotRegistered
	})
	return report
}
