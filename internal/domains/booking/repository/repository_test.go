package repository_test

import (
	"strings"
	"testing"
	"time"

	"resort/internal/domains/booking/repository"

	"github.com/stretchr/testify/assert"
)

func TestOverlapFilter(t *testing.T) {
	checkIn := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC)

	filter := repository.OverlapFilter([]string{"r1", "r2"}, checkIn, checkOut, []string{"confirmed", "checked_in"}, "")
	where, args := filter.GetWhereClause()

	assert.Contains(t, where, "bookings.room_id IN (:room_id_0, :room_id_1)")
	assert.Contains(t, where, "bookings.status IN (:status_0, :status_1)")
	assert.Contains(t, where, "bookings.check_in < :window_end")
	assert.Contains(t, where, "bookings.check_out > :window_start")
	assert.NotContains(t, where, "exclude_id")
	assert.Equal(t, checkOut, args["window_end"])
	assert.Equal(t, checkIn, args["window_start"])
	assert.Equal(t, "r2", args["room_id_1"])
	assert.Equal(t, 3, strings.Count(where, " AND "))
}

func TestOverlapFilterExcludesBooking(t *testing.T) {
	filter := repository.OverlapFilter([]string{"r1"}, time.Now(), time.Now(), []string{"confirmed"}, "b-1")
	where, args := filter.GetWhereClause()

	assert.Contains(t, where, "bookings.id != :exclude_id")
	assert.Equal(t, "b-1", args["exclude_id"])
}
