// Package timezone pins wall-clock handling to the resort's own zone.
//
// Stay dates (check-in, check-out, override dates) are calendar dates and are
// carried as midnight UTC via ParseDate. Instants such as audit timestamps or
// the "today" used for cancellation cutoffs come from Now and are expressed in
// the zone named by APP_TIMEZONE, which defaults to UTC.
//
// Services take a Clock instead of calling Now directly so tests can freeze time
// with FixedClock.
package timezone
