package controller

import "time"

const attendanceDateLayout = "02-01-2006"

// FormatDate renders t as DD-MM-YYYY in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(attendanceDateLayout)
}
