package locale

import (
	"fmt"
	"time"
)

// Table holds the display names used in year index headers and link lines.
type Table struct {
	Tag      string
	Weekdays [7]string  // indexed by time.Weekday (Sunday = 0)
	Months   [13]string // indexed by time.Month (entry 0 unused)
}

var french = Table{
	Tag:      "fr",
	Weekdays: [7]string{"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi"},
	Months: [13]string{"",
		"Janvier", "Fevrier", "Mars", "Avril", "Mai", "Juin",
		"Juillet", "Aout", "Septembre", "Octobre", "Novembre", "Decembre",
	},
}

var english = Table{
	Tag:      "en",
	Weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	Months: [13]string{"",
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
}

// Default returns the French table, the journal's native locale.
func Default() Table {
	return french
}

// ForTag returns the table for a locale tag ("fr", "en").
func ForTag(tag string) (Table, bool) {
	switch tag {
	case "fr", "":
		return french, true
	case "en":
		return english, true
	}
	return Table{}, false
}

// Weekday returns the display name for d.
func (t Table) Weekday(d time.Weekday) string {
	return t.Weekdays[d]
}

// Month returns the display name for m.
func (t Table) Month(m time.Month) string {
	return t.Months[m]
}

// DayMonth formats a date as "<day> <Month>", e.g. "2 Decembre".
func (t Table) DayMonth(day time.Time) string {
	return fmt.Sprintf("%d %s", day.Day(), t.Month(day.Month()))
}
