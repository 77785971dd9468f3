package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"resort/config"
	"resort/infras/otel/mocks"
	availabilityMocks "resort/internal/domains/availability/mocks"
	availabilityModel "resort/internal/domains/availability/model"
	bookingMocks "resort/internal/domains/booking/mocks"
	"resort/internal/domains/booking/model"
	"resort/internal/domains/booking/model/dto"
	"resort/internal/domains/booking/repository"
	"resort/internal/domains/booking/service"
	guestMocks "resort/internal/domains/guest/mocks"
	guestModel "resort/internal/domains/guest/model"
	roomMocks "resort/internal/domains/room/mocks"
	roomModel "resort/internal/domains/room/model"
	cacheMocks "resort/shared/cache/mocks"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/failure"
	"resort/shared/lock"
	lockMocks "resort/shared/lock/mocks"
	gRepo "resort/shared/repository"
	"resort/shared/timezone"
)

var now = time.Date(2025, time.May, 31, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo         *bookingMocks.MockBooking
	rooms        *roomMocks.MockRoom
	availability *availabilityMocks.MockAvailability
	guests       *guestMocks.MockGuestService
	cache        *cacheMocks.MockRedisCache
	cfg          *config.Config
	locker       lock.Locker
	clock        timezone.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	cfg.Booking.ReferencePrefix = "RSV"
	cfg.Booking.CancellationWindowHours = 24
	cfg.Booking.DefaultSource = model.SourceWeb
	cfg.Booking.Lock.WaitSeconds = 1

	f := &fixture{
		repo:         bookingMocks.NewMockBooking(ctrl),
		rooms:        roomMocks.NewMockRoom(ctrl),
		availability: availabilityMocks.NewMockAvailability(ctrl),
		guests:       guestMocks.NewMockGuestService(ctrl),
		cache:        cacheMocks.NewMockRedisCache(ctrl),
		cfg:          cfg,
		locker:       lock.NewLocal(),
		clock:        timezone.FixedClock(now),
	}

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func (f *fixture) service() service.Booking {
	return service.New(f.repo, f.rooms, f.availability, f.guests, f.locker, f.clock, f.cfg, f.cache, mocks.NewOtel())
}

func date(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}

	return d
}

func price(v float64) *float64 {
	return &v
}

func room(id string, base float64, maxGuests int) roomModel.Room {
	return roomModel.Room{ID: id, Name: "Room " + id, Price: base, MaxGuests: maxGuests, Available: true}
}

func ids(rooms []dto.AvailableRoom) []string {
	res := make([]string, len(rooms))
	for i, r := range rooms {
		res[i] = r.ID
	}

	return res
}

func TestBookingService_SearchWithoutDates(t *testing.T) {
	f := newFixture(t)

	f.rooms.EXPECT().
		FindCandidates(gomock.Any(), 2).
		Return([]roomModel.Room{room("b", 200, 2), room("a", 100, 4), room("c", 150, 3)}, nil)

	res, err := f.service().Search(context.Background(), dto.SearchRequest{Guests: 2})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(res.Rooms))
	assert.InDelta(t, 100, res.Rooms[0].Price, 0.001)
	assert.Zero(t, res.Rooms[0].Nights)
}

func TestBookingService_SearchDefaultsToOneGuest(t *testing.T) {
	f := newFixture(t)

	f.rooms.EXPECT().FindCandidates(gomock.Any(), 1).Return(nil, nil)

	res, err := f.service().Search(context.Background(), dto.SearchRequest{})

	require.NoError(t, err)
	assert.Empty(t, res.Rooms)
}

func TestBookingService_SearchWithDates(t *testing.T) {
	f := newFixture(t)

	checkIn, checkOut := date("2025-06-01"), date("2025-06-04")

	f.rooms.EXPECT().
		FindCandidates(gomock.Any(), 1).
		Return([]roomModel.Room{
			room("cheap", 80, 2),
			room("booked", 90, 2),
			room("closed", 100, 2),
			room("repriced", 120, 2),
			room("plain", 110, 2),
		}, nil)

	f.repo.EXPECT().
		FindOverlapping(gomock.Any(), []string{"cheap", "booked", "closed", "repriced", "plain"}, checkIn, checkOut, model.OccupyingStatuses, "").
		Return([]model.Booking{{ID: "bk-1", RoomID: "booked", Status: model.StatusConfirmed}}, nil)

	f.availability.EXPECT().
		ListInWindow(gomock.Any(), gomock.Any(), checkIn, checkOut).
		Return([]availabilityModel.Override{
			{RoomID: "cheap", Date: date("2025-06-01"), IsAvailable: true, Price: price(200)},
			{RoomID: "repriced", Date: date("2025-06-01"), IsAvailable: true},
			{RoomID: "closed", Date: date("2025-06-02"), IsAvailable: false},
			{RoomID: "repriced", Date: date("2025-06-02"), IsAvailable: true, Price: price(70)},
			{RoomID: "repriced", Date: date("2025-06-03"), IsAvailable: true, Price: price(300)},
		}, nil)

	res, err := f.service().Search(context.Background(), dto.SearchRequest{CheckIn: "2025-06-01", CheckOut: "2025-06-04"})

	require.NoError(t, err)
	assert.Equal(t, []string{"repriced", "plain", "cheap"}, ids(res.Rooms))

	repriced := res.Rooms[0]
	assert.InDelta(t, 70, repriced.Price, 0.001)
	assert.InDelta(t, 120, repriced.BasePrice, 0.001)
	assert.Equal(t, 3, repriced.Nights)
	assert.InDelta(t, 210, repriced.TotalPrice, 0.001)

	assert.InDelta(t, 200, res.Rooms[2].Price, 0.001)
}

func TestBookingService_SearchOverrideOnCheckOutDayCounts(t *testing.T) {
	f := newFixture(t)

	f.rooms.EXPECT().FindCandidates(gomock.Any(), 1).Return([]roomModel.Room{room("r1", 100, 2)}, nil)
	f.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	f.availability.EXPECT().
		ListInWindow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]availabilityModel.Override{{RoomID: "r1", Date: date("2025-06-04"), IsAvailable: false}}, nil)

	res, err := f.service().Search(context.Background(), dto.SearchRequest{CheckIn: "2025-06-01", CheckOut: "2025-06-04"})

	require.NoError(t, err)
	assert.Empty(t, res.Rooms)
}

func TestBookingService_SearchErrors(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.SearchRequest
		setupMock func(f *fixture)
		wantCode  int
		wantMsg   string
	}{
		{
			name:      "only check-in given",
			req:       dto.SearchRequest{CheckIn: "2025-06-01"},
			setupMock: func(_ *fixture) {},
			wantCode:  http.StatusBadRequest,
			wantMsg:   "check_in and check_out must be provided together",
		},
		{
			name:      "check-out before check-in",
			req:       dto.SearchRequest{CheckIn: "2025-06-04", CheckOut: "2025-06-01"},
			setupMock: func(_ *fixture) {},
			wantCode:  http.StatusBadRequest,
			wantMsg:   "check_in must be before check_out",
		},
		{
			name:      "same day stay",
			req:       dto.SearchRequest{CheckIn: "2025-06-01", CheckOut: "2025-06-01"},
			setupMock: func(_ *fixture) {},
			wantCode:  http.StatusBadRequest,
			wantMsg:   "check_in must be before check_out",
		},
		{
			name: "room lookup fails",
			req:  dto.SearchRequest{},
			setupMock: func(f *fixture) {
				f.rooms.EXPECT().FindCandidates(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))
			},
			wantCode: http.StatusInternalServerError,
			wantMsg:  "failed to fetch rooms",
		},
		{
			name: "override lookup fails",
			req:  dto.SearchRequest{CheckIn: "2025-06-01", CheckOut: "2025-06-02"},
			setupMock: func(f *fixture) {
				f.rooms.EXPECT().FindCandidates(gomock.Any(), gomock.Any()).Return([]roomModel.Room{room("r1", 100, 2)}, nil)
				f.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
				f.availability.EXPECT().ListInWindow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
			},
			wantCode: http.StatusInternalServerError,
			wantMsg:  "failed to fetch rooms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.service().Search(context.Background(), tt.req)

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, failure.GetCode(err))
			assert.Equal(t, tt.wantMsg, failure.PublicMessage(err))
			assert.Empty(t, res.Rooms)
		})
	}
}

func validCreate() dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		RoomID:     "r1",
		CheckIn:    "2025-06-01",
		CheckOut:   "2025-06-04",
		GuestName:  "Ana",
		GuestEmail: "Ana@Example.com",
		Guests:     2,
	}
}

func TestBookingService_Create(t *testing.T) {
	f := newFixture(t)

	checkIn, checkOut := date("2025-06-01"), date("2025-06-04")

	f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(room("r1", 100, 2), nil)
	f.repo.EXPECT().
		FindOverlapping(gomock.Any(), []string{"r1"}, checkIn, checkOut, model.HoldingStatuses, "").
		DoAndReturn(func(ctx context.Context, _ []string, _, _ time.Time, _ []string, _ string) ([]model.Booking, error) {
			assert.True(t, gRepo.ReadsPrimary(ctx), "overlap recheck must read the primary")

			return nil, nil
		})
	f.availability.EXPECT().
		ListInWindow(gomock.Any(), []string{"r1"}, checkIn, checkOut).
		Return([]availabilityModel.Override{{RoomID: "r1", Date: checkIn, IsAvailable: true, Price: price(125.5)}}, nil)
	f.guests.EXPECT().
		ResolveOrCreate(gomock.Any(), "Ana", "Ana@Example.com", "").
		Return(guestModel.Guest{ID: "g1", Name: "Ana", Email: "ana@example.com"}, nil)
	f.repo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, booking model.Booking) error {
			assert.Equal(t, model.StatusPending, booking.Status)
			assert.Equal(t, "g1", booking.GuestID)
			assert.Equal(t, "ana@example.com", booking.GuestEmail)
			assert.Equal(t, model.SourceWeb, booking.Source)
			assert.Equal(t, constant.ContextGuest, booking.CreatedBy)
			assert.Nil(t, booking.SpecialRequests)
			assert.InDelta(t, 376.5, booking.TotalPrice, 0.001)

			return nil
		})

	res, err := f.service().Create(context.Background(), validCreate())

	require.NoError(t, err)
	assert.Equal(t, 3, res.Nights)
	assert.InDelta(t, 376.5, res.TotalPrice, 0.001)
	assert.Regexp(t, `^RSV-20250601-[0-9A-F]{8}$`, res.Reference)
	assert.Equal(t, res.Reference, res.Booking.Reference)
	assert.Equal(t, "r1", res.Room.ID)
	assert.Equal(t, "2025-06-01", res.Booking.CheckIn)
	assert.Equal(t, "2025-06-04", res.Booking.CheckOut)
}

func TestBookingService_CreateRejections(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *dto.CreateBookingRequest)
		setupMock func(f *fixture)
		wantCode  int
		wantMsg   string
	}{
		{
			name: "missing fields are reported together",
			mutate: func(r *dto.CreateBookingRequest) {
				*r = dto.CreateBookingRequest{}
			},
			setupMock: func(_ *fixture) {},
			wantCode:  http.StatusBadRequest,
			wantMsg:   "missing required fields: room_id, check_in, check_out, guest_name, guest_email",
		},
		{
			name: "check-out not after check-in",
			mutate: func(r *dto.CreateBookingRequest) {
				r.CheckOut = r.CheckIn
			},
			setupMock: func(_ *fixture) {},
			wantCode:  http.StatusBadRequest,
			wantMsg:   "check_in must be before check_out",
		},
		{
			name:   "room not found",
			mutate: func(_ *dto.CreateBookingRequest) {},
			setupMock: func(f *fixture) {
				f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(roomModel.Room{}, nil)
			},
			wantCode: http.StatusNotFound,
			wantMsg:  "room not found",
		},
		{
			name:   "room switched off",
			mutate: func(_ *dto.CreateBookingRequest) {},
			setupMock: func(f *fixture) {
				closed := room("r1", 100, 2)
				closed.Available = false
				f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(closed, nil)
			},
			wantCode: http.StatusConflict,
			wantMsg:  "room is not available for booking",
		},
		{
			name: "party too large",
			mutate: func(r *dto.CreateBookingRequest) {
				r.Guests = 5
			},
			setupMock: func(f *fixture) {
				f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(room("r1", 100, 2), nil)
			},
			wantCode: http.StatusBadRequest,
			wantMsg:  "number of guests exceeds room capacity",
		},
		{
			name:   "dates already held",
			mutate: func(_ *dto.CreateBookingRequest) {},
			setupMock: func(f *fixture) {
				f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(room("r1", 100, 2), nil)
				f.repo.EXPECT().
					FindOverlapping(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), model.HoldingStatuses, gomock.Any()).
					Return([]model.Booking{{ID: "other", Status: model.StatusPending}}, nil)
			},
			wantCode: http.StatusConflict,
			wantMsg:  "room is no longer available for the selected dates",
		},
		{
			name:   "closed by override",
			mutate: func(_ *dto.CreateBookingRequest) {},
			setupMock: func(f *fixture) {
				f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(room("r1", 100, 2), nil)
				f.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
				f.availability.EXPECT().
					ListInWindow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]availabilityModel.Override{{RoomID: "r1", Date: date("2025-06-02"), IsAvailable: false}}, nil)
			},
			wantCode: http.StatusConflict,
			wantMsg:  "room is no longer available for the selected dates",
		},
		{
			name:   "exclusion constraint backstop",
			mutate: func(_ *dto.CreateBookingRequest) {},
			setupMock: func(f *fixture) {
				f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(room("r1", 100, 2), nil)
				f.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
				f.availability.EXPECT().ListInWindow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
				f.guests.EXPECT().ResolveOrCreate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(guestModel.Guest{ID: "g1"}, nil)
				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(fmt.Errorf("failed to insert data (booking): %w", gRepo.ErrExclusion))
			},
			wantCode: http.StatusConflict,
			wantMsg:  "room is no longer available for the selected dates",
		},
		{
			name:   "store failure is internal",
			mutate: func(_ *dto.CreateBookingRequest) {},
			setupMock: func(f *fixture) {
				f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(room("r1", 100, 2), nil)
				f.repo.EXPECT().
					FindOverlapping(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errors.New("connection reset"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			req := validCreate()
			tt.mutate(&req)

			_, err := f.service().Create(context.Background(), req)

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, failure.GetCode(err))

			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}
}

func TestBookingService_CreateLockBusy(t *testing.T) {
	f := newFixture(t)

	ctrl := gomock.NewController(t)
	locker := lockMocks.NewMockLocker(ctrl)
	f.locker = locker

	f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(room("r1", 100, 2), nil)
	locker.EXPECT().
		Acquire(gomock.Any(), "booking:room:r1").
		Return(nil, fmt.Errorf("%w: booking:room:r1: %w", lock.ErrNotAcquired, context.DeadlineExceeded))

	_, err := f.service().Create(context.Background(), validCreate())

	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
}

// memoryBookings is a deliberately non-atomic store: the check and the insert are separate
// critical sections, so only the service lock keeps two writers from both passing the check.
type memoryBookings struct {
	mu       sync.Mutex
	bookings []model.Booking
}

func (m *memoryBookings) Insert(_ context.Context, booking model.Booking) error {
	time.Sleep(2 * time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.bookings = append(m.bookings, booking)

	return nil
}

func (m *memoryBookings) FindOverlapping(_ context.Context, roomIDs []string, checkIn, checkOut time.Time, statuses []string, excludeID string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res []model.Booking

	for _, booking := range m.bookings {
		if booking.ID == excludeID {
			continue
		}

		if booking.RoomID == roomIDs[0] && booking.Overlaps(checkIn, checkOut) && containsStatus(statuses, booking.Status) {
			res = append(res, booking)
		}
	}

	return res, nil
}

func (m *memoryBookings) Get(context.Context, gDto.FilterGroup, ...string) (model.Booking, error) {
	return model.Booking{}, nil
}

func (m *memoryBookings) GetAll(context.Context, gDto.QueryParams, gDto.FilterGroup, ...string) ([]model.Booking, error) {
	return nil, nil
}

func (m *memoryBookings) Count(context.Context, gDto.FilterGroup) (int, error) {
	return 0, nil
}

func (m *memoryBookings) Update(context.Context, map[string]any, gDto.FilterGroup) error {
	return nil
}

func containsStatus(statuses []string, status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}

	return false
}

var _ repository.Booking = (*memoryBookings)(nil)

func TestBookingService_ConcurrentCreateSingleWinner(t *testing.T) {
	f := newFixture(t)
	f.cfg.Booking.Lock.WaitSeconds = 10

	store := &memoryBookings{}

	f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(room("r1", 100, 2), nil).AnyTimes()
	f.availability.EXPECT().ListInWindow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	f.guests.EXPECT().
		ResolveOrCreate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(guestModel.Guest{ID: "g1", Email: "ana@example.com"}, nil).
		AnyTimes()

	svc := service.New(store, f.rooms, f.availability, f.guests, f.locker, f.clock, f.cfg, f.cache, mocks.NewOtel())

	const attempts = 12

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := range attempts {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			req := validCreate()
			// staggered stays that all share the night of June 2nd
			if i%2 == 1 {
				req.CheckIn, req.CheckOut = "2025-06-02", "2025-06-03"
			}

			_, err := svc.Create(context.Background(), req)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				succeeded++
			case failure.GetCode(err) == http.StatusConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
	assert.Len(t, store.bookings, 1)
}

func TestBookingService_TransitionStatus(t *testing.T) {
	tests := []struct {
		name      string
		current   model.Booking
		status    string
		setupMock func(f *fixture)
		wantCode  int
		wantMsg   string
	}{
		{
			name:    "confirm pending booking",
			current: model.Booking{ID: "b1", RoomID: "r1", Status: model.StatusPending, CheckIn: date("2025-06-10"), CheckOut: date("2025-06-12")},
			status:  model.StatusConfirmed,
			setupMock: func(f *fixture) {
				f.repo.EXPECT().
					FindOverlapping(gomock.Any(), []string{"r1"}, date("2025-06-10"), date("2025-06-12"), model.OccupyingStatuses, "b1").
					DoAndReturn(func(ctx context.Context, _ []string, _, _ time.Time, _ []string, _ string) ([]model.Booking, error) {
						assert.True(t, gRepo.ReadsPrimary(ctx))

						return nil, nil
					})
				f.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, model.StatusConfirmed, fields[model.FieldStatus])

						return nil
					})
			},
		},
		{
			name:    "confirm clashes with another confirmed stay",
			current: model.Booking{ID: "b1", RoomID: "r1", Status: model.StatusPending, CheckIn: date("2025-06-10"), CheckOut: date("2025-06-12")},
			status:  model.StatusConfirmed,
			setupMock: func(f *fixture) {
				f.repo.EXPECT().
					FindOverlapping(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), "b1").
					Return([]model.Booking{{ID: "b2", Status: model.StatusConfirmed}}, nil)
			},
			wantCode: http.StatusConflict,
			wantMsg:  "room is no longer available for the selected dates",
		},
		{
			name:    "cancel well ahead of check-in",
			current: model.Booking{ID: "b1", RoomID: "r1", Status: model.StatusConfirmed, CheckIn: date("2025-06-05"), CheckOut: date("2025-06-07")},
			status:  model.StatusCancelled,
			setupMock: func(f *fixture) {
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:      "cancel within the window",
			current:   model.Booking{ID: "b1", RoomID: "r1", Status: model.StatusConfirmed, CheckIn: date("2025-06-01"), CheckOut: date("2025-06-03")},
			status:    model.StatusCancelled,
			setupMock: func(_ *fixture) {},
			wantCode:  http.StatusBadRequest,
			wantMsg:   "cannot cancel within 24 hours of check-in",
		},
		{
			name:    "cancel after check-in date passed",
			current: model.Booking{ID: "b1", RoomID: "r1", Status: model.StatusPending, CheckIn: date("2025-05-30"), CheckOut: date("2025-06-02")},
			status:  model.StatusCancelled,
			setupMock: func(f *fixture) {
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:      "cancel a checked in stay",
			current:   model.Booking{ID: "b1", RoomID: "r1", Status: model.StatusCheckedIn, CheckIn: date("2025-05-30"), CheckOut: date("2025-06-02")},
			status:    model.StatusCancelled,
			setupMock: func(_ *fixture) {},
			wantCode:  http.StatusBadRequest,
			wantMsg:   "cannot cancel a booking that is checked in or checked out",
		},
		{
			name:      "terminal booking cannot move",
			current:   model.Booking{ID: "b1", RoomID: "r1", Status: model.StatusCancelled},
			status:    model.StatusConfirmed,
			setupMock: func(_ *fixture) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "same status rejected",
			current:   model.Booking{ID: "b1", RoomID: "r1", Status: model.StatusPending},
			status:    model.StatusPending,
			setupMock: func(_ *fixture) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:    "check out a checked in stay",
			current: model.Booking{ID: "b1", RoomID: "r1", Status: model.StatusCheckedIn, CheckIn: date("2025-05-28"), CheckOut: date("2025-05-31")},
			status:  model.StatusCheckedOut,
			setupMock: func(f *fixture) {
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(tt.current, nil)
			tt.setupMock(f)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "staff-1")
			res, err := f.service().TransitionStatus(ctx, tt.current.ID, dto.TransitionRequest{Status: tt.status})

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				if tt.wantMsg != "" {
					assert.Equal(t, tt.wantMsg, err.Error())
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, "staff-1", res.ModifiedBy)
		})
	}
}

func TestBookingService_TransitionStatusBoundary(t *testing.T) {
	f := newFixture(t)
	// exactly 24 hours before check-in midnight is outside the window
	f.clock = timezone.FixedClock(time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC))

	f.repo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(model.Booking{ID: "b1", RoomID: "r1", Status: model.StatusConfirmed, CheckIn: date("2025-06-01"), CheckOut: date("2025-06-02")}, nil)
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.service().TransitionStatus(context.Background(), "b1", dto.TransitionRequest{Status: model.StatusCancelled})

	assert.NoError(t, err)
}

func TestBookingService_TransitionStatusLookups(t *testing.T) {
	t.Run("invalid status", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service().TransitionStatus(context.Background(), "b1", dto.TransitionRequest{Status: "archived"})

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		assert.Equal(t, "invalid status", err.Error())
	})

	t.Run("booking not found", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

		_, err := f.service().TransitionStatus(context.Background(), "ghost", dto.TransitionRequest{Status: model.StatusConfirmed})

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestBookingService_Get(t *testing.T) {
	f := newFixture(t)

	f.cache.EXPECT().Get(gomock.Any(), "booking:get:b1", gomock.Any()).Return(errors.New("cache miss"))
	f.repo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(model.Booking{ID: "b1", Reference: "RSV-20250601-ABCDEF12", CheckIn: date("2025-06-01"), CheckOut: date("2025-06-02")}, nil)

	res, err := f.service().Get(context.Background(), "b1")

	require.NoError(t, err)
	assert.Equal(t, "RSV-20250601-ABCDEF12", res.Reference)
}

func TestBookingService_GetAll(t *testing.T) {
	f := newFixture(t)

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).Times(2)
	f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(25, nil)
	f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]model.Booking{{ID: "b1"}}, nil)

	res, err := f.service().GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 10}, gDto.FilterGroup{})

	require.NoError(t, err)
	assert.Equal(t, 25, res.TotalData)
	assert.Equal(t, 3, res.TotalPage)
	assert.Len(t, res.Bookings, 1)
}

func TestBookingService_CreateSource(t *testing.T) {
	tests := []struct {
		name       string
		ctx        context.Context
		source     string
		wantSource string
	}{
		{
			name:       "anonymous caller cannot pick the channel",
			ctx:        context.Background(),
			source:     model.SourceAdmin,
			wantSource: model.SourceWeb,
		},
		{
			name:       "signed in staff keeps the channel",
			ctx:        context.WithValue(context.Background(), constant.ContextKeyUserID, "staff-1"),
			source:     model.SourceAdmin,
			wantSource: model.SourceAdmin,
		},
		{
			name:       "trusted internal caller keeps the channel",
			ctx:        context.WithValue(context.Background(), constant.ContextKeyTrusted, true),
			source:     model.SourceVoice,
			wantSource: model.SourceVoice,
		},
		{
			name:       "staff without a channel gets the default",
			ctx:        context.WithValue(context.Background(), constant.ContextKeyUserID, "staff-1"),
			wantSource: model.SourceWeb,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.rooms.EXPECT().Get(gomock.Any(), gomock.Any()).Return(room("r1", 100, 2), nil)
			f.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
			f.availability.EXPECT().ListInWindow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
			f.guests.EXPECT().ResolveOrCreate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(guestModel.Guest{ID: "g1"}, nil)
			f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, booking model.Booking) error {
				assert.Equal(t, tt.wantSource, booking.Source)

				return nil
			})

			req := validCreate()
			req.Source = tt.source

			_, err := f.service().Create(tt.ctx, req)

			require.NoError(t, err)
		})
	}
}

func TestBookingService_CancellationWindowFollowsConfig(t *testing.T) {
	f := newFixture(t)
	f.cfg.Booking.CancellationWindowHours = 48
	f.repo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(model.Booking{ID: "b1", RoomID: "r1", Status: model.StatusConfirmed, CheckIn: date("2025-06-02"), CheckOut: date("2025-06-04")}, nil)

	_, err := f.service().TransitionStatus(context.Background(), "b1", dto.TransitionRequest{Status: model.StatusCancelled})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	assert.Equal(t, "cannot cancel within 48 hours of check-in", err.Error())
}

func TestBookingService_TracesReturnedErrors(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

	recorder := mocks.NewRecorder()
	svc := service.New(f.repo, f.rooms, f.availability, f.guests, f.locker, f.clock, f.cfg, f.cache, recorder)

	_, err := svc.TransitionStatus(context.Background(), "ghost", dto.TransitionRequest{Status: model.StatusConfirmed})

	require.Error(t, err)
	assert.Contains(t, recorder.Spans, "service.booking.TransitionStatus")
	require.Len(t, recorder.RecordedErrors(), 1)
	assert.ErrorIs(t, recorder.RecordedErrors()[0], err)
}
