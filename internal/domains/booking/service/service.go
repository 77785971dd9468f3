package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Booking=MockBookingService

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"resort/config"
	"resort/infras/otel"
	availabilityModel "resort/internal/domains/availability/model"
	availabilityRepository "resort/internal/domains/availability/repository"
	"resort/internal/domains/booking/model"
	"resort/internal/domains/booking/model/dto"
	"resort/internal/domains/booking/repository"
	guestService "resort/internal/domains/guest/service"
	roomModel "resort/internal/domains/room/model"
	roomDto "resort/internal/domains/room/model/dto"
	roomRepository "resort/internal/domains/room/repository"
	"resort/shared"
	"resort/shared/cache"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/failure"
	"resort/shared/lock"
	gRepo "resort/shared/repository"
	"resort/shared/timezone"
	"resort/shared/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"

	lockKeyRoom = "booking:room"
)

const (
	msgFetchRooms        = "failed to fetch rooms"
	msgRoomUnavailable   = "room is no longer available for the selected dates"
	msgRoomBusy          = "room is being booked by another request, please retry"
	msgDatesTogether     = "check_in and check_out must be provided together"
	msgDateOrder         = "check_in must be before check_out"
	msgCancelWindow      = "cannot cancel within %d hours of check-in"
	msgCancelOccupied    = "cannot cancel a booking that is checked in or checked out"
	msgInvalidStatus     = "invalid status"
	msgRoomNotFound      = "room not found"
	msgBookingNotFound   = "booking not found"
	msgRoomClosed        = "room is not available for booking"
	msgOccupancyExceeded = "number of guests exceeds room capacity"
)

type Booking interface {
	// Search lists rooms that can host minGuests; with dates it also drops rooms that are
	// occupied or closed by an override and prices the rest for the stay.
	Search(ctx context.Context, req dto.SearchRequest) (dto.SearchResponse, error)
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.CreateBookingResponse, error)
	TransitionStatus(ctx context.Context, id string, req dto.TransitionRequest) (dto.BookingResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
}

type serviceImpl struct {
	repo             repository.Booking
	roomRepo         roomRepository.Room
	availabilityRepo availabilityRepository.Availability
	guest            guestService.Guest
	locker           lock.Locker
	clock            timezone.Clock
	cfg              *config.Config
	cache            cache.RedisCache
	otel             otel.Otel
}

func New(
	repo repository.Booking,
	roomRepo roomRepository.Room,
	availabilityRepo availabilityRepository.Availability,
	guest guestService.Guest,
	locker lock.Locker,
	clock timezone.Clock,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:             repo,
		roomRepo:         roomRepo,
		availabilityRepo: availabilityRepo,
		guest:            guest,
		locker:           locker,
		clock:            clock,
		cfg:              cfg,
		cache:            cache,
		otel:             otel,
	}
}

func (s *serviceImpl) Search(ctx context.Context, req dto.SearchRequest) (res dto.SearchResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Search")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = validator.ValidateStruct(&req); err != nil {
		return res, err //nolint:wrapcheck
	}

	minGuests := max(req.Guests, 1)

	var stay *dto.Stay

	if req.CheckIn != constant.Empty || req.CheckOut != constant.Empty {
		if req.CheckIn == constant.Empty || req.CheckOut == constant.Empty {
			return res, failure.BadRequestFromString(msgDatesTogether) // nolint:wrapcheck
		}

		parsed, err := parseStay(req.CheckIn, req.CheckOut)
		if err != nil {
			return res, err
		}

		stay = &parsed
	}

	rooms, err := s.roomRepo.FindCandidates(ctx, minGuests)
	if err != nil {
		log.Error().Err(err).Int("min_guests", minGuests).Msg(msgFetchRooms)

		return res, failure.Upstream(msgFetchRooms, err) // nolint:wrapcheck
	}

	res.Rooms = make([]dto.AvailableRoom, 0, len(rooms))

	if stay == nil {
		for _, room := range rooms {
			var hit dto.AvailableRoom
			hit.FromModel(room, room.Price, 0)
			res.Rooms = append(res.Rooms, hit)
		}

		sortByPrice(res.Rooms)

		return res, nil
	}

	res.Rooms, err = s.resolve(ctx, rooms, *stay)
	if err != nil {
		log.Error().Err(err).Str("check_in", req.CheckIn).Str("check_out", req.CheckOut).Msg(msgFetchRooms)

		return dto.SearchResponse{}, failure.Upstream(msgFetchRooms, err) // nolint:wrapcheck
	}

	return res, nil
}

// resolve filters candidate rooms for a stay and prices the survivors. Bookings and overrides
// of every candidate are fetched in one round trip each.
func (s *serviceImpl) resolve(ctx context.Context, rooms []roomModel.Room, stay dto.Stay) ([]dto.AvailableRoom, error) {
	if len(rooms) == 0 {
		return []dto.AvailableRoom{}, nil
	}

	ids := make([]string, len(rooms))
	for i, room := range rooms {
		ids[i] = room.ID
	}

	occupied, err := s.repo.FindOverlapping(ctx, ids, stay.CheckIn, stay.CheckOut, model.OccupyingStatuses, constant.Empty)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}

	overrides, err := s.availabilityRepo.ListInWindow(ctx, ids, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}

	booked := make(map[string]bool, len(occupied))
	for _, booking := range occupied {
		booked[booking.RoomID] = true
	}

	byRoom := make(map[string][]availabilityModel.Override, len(rooms))
	for _, override := range overrides {
		byRoom[override.RoomID] = append(byRoom[override.RoomID], override)
	}

	hits := make([]dto.AvailableRoom, 0, len(rooms))

	for _, room := range rooms {
		if booked[room.ID] || availabilityModel.Blocked(byRoom[room.ID]) {
			continue
		}

		var hit dto.AvailableRoom
		hit.FromModel(room, availabilityModel.EffectivePrice(room.Price, byRoom[room.ID]), stay.Nights)
		hits = append(hits, hit)
	}

	sortByPrice(hits)

	return hits, nil
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.CreateBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = validator.ValidateStruct(&req); err != nil {
		return res, err //nolint:wrapcheck
	}

	stay, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return res, err
	}

	req.Guests = max(req.Guests, 1)
	if !staffCaller(ctx) {
		req.Source = constant.Empty
	}

	if req.Source == constant.Empty {
		req.Source = cmp.Or(s.cfg.Booking.DefaultSource, model.SourceWeb)
	}

	room, err := s.roomRepo.Get(ctx, shared.ByID(req.RoomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Str("room_id", req.RoomID).Msg("failed to get room")

		return res, fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return res, failure.NotFound(msgRoomNotFound) // nolint:wrapcheck
	}

	if !room.Available {
		return res, failure.Conflict(msgRoomClosed) // nolint:wrapcheck
	}

	if !room.Fits(req.Guests) {
		return res, failure.BadRequestFromString(msgOccupancyExceeded) // nolint:wrapcheck
	}

	release, err := s.lockRoom(ctx, room.ID)
	if err != nil {
		return res, err
	}
	defer release()

	ctx = gRepo.OnPrimary(ctx)

	overlapping, err := s.repo.FindOverlapping(ctx, []string{room.ID}, stay.CheckIn, stay.CheckOut, model.HoldingStatuses, constant.Empty)
	if err != nil {
		log.Error().Err(err).Str("room_id", room.ID).Msg("failed to check overlapping bookings")

		return res, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}

	if len(overlapping) > 0 {
		log.Info().Str("room_id", room.ID).Str("check_in", req.CheckIn).Str("check_out", req.CheckOut).Msg("booking rejected, dates taken")

		return res, failure.Conflict(msgRoomUnavailable) // nolint:wrapcheck
	}

	overrides, err := s.availabilityRepo.ListInWindow(ctx, []string{room.ID}, stay.CheckIn, stay.CheckOut)
	if err != nil {
		log.Error().Err(err).Str("room_id", room.ID).Msg("failed to list overrides")

		return res, fmt.Errorf("failed to list overrides: %w", err)
	}

	if availabilityModel.Blocked(overrides) {
		return res, failure.Conflict(msgRoomUnavailable) // nolint:wrapcheck
	}

	nightly := availabilityModel.EffectivePrice(room.Price, overrides)
	total := shared.RoundMoney(nightly * float64(stay.Nights))

	guest, err := s.guest.ResolveOrCreate(ctx, req.GuestName, req.GuestEmail, req.GuestPhone)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve guest")

		return res, fmt.Errorf("failed to resolve guest: %w", err)
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == constant.Empty {
		user = constant.ContextGuest
	}

	id := uuid.NewString()
	booking := req.ToModel(id, guest.ID, user, stay, total)
	booking.GuestEmail = guest.Email
	booking.Reference = model.Reference(s.cfg.Booking.ReferencePrefix, stay.CheckIn, id)

	if err = s.repo.Insert(ctx, booking); err != nil {
		if errors.Is(err, gRepo.ErrExclusion) {
			log.Warn().Str("room_id", room.ID).Msg("booking rejected by exclusion constraint")

			return res, failure.Conflict(msgRoomUnavailable) // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	log.Info().
		Str("booking_id", booking.ID).
		Str("reference", booking.Reference).
		Str("room_id", room.ID).
		Int("nights", stay.Nights).
		Float64("total_price", total).
		Msg("booking created")

	res.Booking.FromModel(booking)
	res.Reference = booking.Reference
	res.Room = toRoomResponse(room)
	res.TotalPrice = total
	res.Nights = stay.Nights

	s.invalidate(ctx, constant.Empty)

	return res, nil
}

func (s *serviceImpl) TransitionStatus(ctx context.Context, id string, req dto.TransitionRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.TransitionStatus")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if !model.ValidStatus(req.Status) {
		return res, failure.BadRequestFromString(msgInvalidStatus) // nolint:wrapcheck
	}

	filter := shared.ByID(id, model.FieldID, model.TableName)

	booking, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("booking_id", id).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	if err = model.CanTransition(booking.Status, req.Status); err != nil {
		return res, failure.BadRequest(err) // nolint:wrapcheck
	}

	if req.Status == model.StatusCancelled {
		if err = s.checkCancellation(booking); err != nil {
			return res, err
		}
	}

	if slices.Contains(model.OccupyingStatuses, req.Status) {
		release, err := s.lockRoom(ctx, booking.RoomID)
		if err != nil {
			return res, err
		}
		defer release()

		ctx = gRepo.OnPrimary(ctx)

		clashes, err := s.repo.FindOverlapping(ctx, []string{booking.RoomID}, booking.CheckIn, booking.CheckOut, model.OccupyingStatuses, booking.ID)
		if err != nil {
			log.Error().Err(err).Str("booking_id", id).Msg("failed to check overlapping bookings")

			return res, fmt.Errorf("failed to check overlapping bookings: %w", err)
		}

		if len(clashes) > 0 {
			return res, failure.Conflict(msgRoomUnavailable) // nolint:wrapcheck
		}
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	now := s.clock.Now()

	err = s.repo.Update(ctx, map[string]any{
		model.FieldStatus:        req.Status,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: user,
	}, filter)
	if err != nil {
		if errors.Is(err, gRepo.ErrExclusion) {
			return res, failure.Conflict(msgRoomUnavailable) // nolint:wrapcheck
		}

		log.Error().Err(err).Str("booking_id", id).Msg("failed to update booking status")

		return res, fmt.Errorf("failed to update booking status: %w", err)
	}

	log.Info().Str("booking_id", id).Str("from", booking.Status).Str("to", req.Status).Msg("booking status changed")

	booking.Status = req.Status
	booking.ModifiedAt = now
	booking.ModifiedBy = user

	res.FromModel(booking)

	s.invalidate(ctx, id)

	return res, nil
}

// checkCancellation enforces the cancellation window. A check-in that already passed is let through.
func (s *serviceImpl) checkCancellation(booking model.Booking) error {
	if booking.Status == model.StatusCheckedIn || booking.Status == model.StatusCheckedOut {
		return failure.BadRequestFromString(msgCancelOccupied) // nolint:wrapcheck
	}

	now := s.clock.Now()
	checkIn := timezone.StartOfDay(booking.CheckIn, now.Location())
	hoursUntil := checkIn.Sub(now).Hours()

	window := s.cfg.Booking.CancellationWindowHours
	if window <= 0 {
		window = constant.HoursPerDay
	}

	if hoursUntil > 0 && hoursUntil < float64(window) {
		return failure.BadRequestFromString(fmt.Sprintf(msgCancelWindow, window)) // nolint:wrapcheck
	}

	if hoursUntil <= 0 {
		log.Warn().
			Str("booking_id", booking.ID).
			Str("check_in", booking.CheckIn.Format(constant.DateOnlyFormat)).
			Msg("cancelling a booking whose check-in has passed")
	}

	return nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return cache.Remember(ctx, s.cache, shared.BuildCacheKey(cacheGetBooking, id), s.cfg.Cache.TTL, func(ctx context.Context) (out dto.BookingResponse, err error) {
		booking, err := s.repo.Get(ctx, shared.ByID(id, model.FieldID, model.TableName))
		if err != nil {
			log.Error().Err(err).Str("booking_id", id).Msg("failed to load booking")

			return out, fmt.Errorf("failed to load booking: %w", err)
		}

		if booking.ID == constant.Empty {
			return out, failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
		}

		out.FromModel(booking)

		return out, nil
	})
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	key := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	return cache.Remember(ctx, s.cache, key, s.cfg.Cache.TTL, func(ctx context.Context) (page dto.GetBookingsResponse, err error) {
		total, err := s.count(ctx, req, filter)
		if err != nil {
			return page, err
		}

		bookings, err := s.repo.GetAll(ctx, req, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to list bookings")

			return page, fmt.Errorf("failed to list bookings: %w", err)
		}

		page.FromModels(bookings, total, req.Limit)

		return page, nil
	})
}

func (s *serviceImpl) count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error) {
	key := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	return cache.Remember(ctx, s.cache, key, s.cfg.Cache.TTL, func(ctx context.Context) (int, error) {
		total, err := s.repo.Count(ctx, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to count bookings")

			return 0, fmt.Errorf("failed to count bookings: %w", err)
		}

		return total, nil
	})
}

// lockRoom serialises writers of one room for at most the configured wait.
func (s *serviceImpl) lockRoom(ctx context.Context, roomID string) (lock.Release, error) {
	if wait := s.cfg.Booking.Lock.WaitSeconds; wait > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, time.Duration(wait)*time.Second)
		defer cancel()
	}

	release, err := s.locker.Acquire(ctx, shared.BuildCacheKey(lockKeyRoom, roomID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			log.Warn().Err(err).Str("room_id", roomID).Msg("room lock busy")

			return nil, failure.Conflict(msgRoomBusy) // nolint:wrapcheck
		}

		log.Error().Err(err).Str("room_id", roomID).Msg("failed to acquire room lock")

		return nil, fmt.Errorf("failed to acquire room lock: %w", err)
	}

	return release, nil
}

// staffCaller reports whether ctx belongs to a signed-in staff user or a trusted internal caller.
// Only they may pick the booking source.
func staffCaller(ctx context.Context) bool {
	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	trusted, _ := ctx.Value(constant.ContextKeyTrusted).(bool)

	return user != constant.Empty || trusted
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	var keys []string
	if id != constant.Empty {
		keys = append(keys, shared.BuildCacheKey(cacheGetBooking, id))
	}

	cache.Evict(ctx, s.cache, keys, cacheGetAllBooking, cacheCountBooking)
}

func parseStay(checkIn, checkOut string) (dto.Stay, error) {
	in, err := timezone.ParseDate(checkIn)
	if err != nil {
		return dto.Stay{}, failure.BadRequestFromString("check_in must be a date formatted as YYYY-MM-DD") // nolint:wrapcheck
	}

	out, err := timezone.ParseDate(checkOut)
	if err != nil {
		return dto.Stay{}, failure.BadRequestFromString("check_out must be a date formatted as YYYY-MM-DD") // nolint:wrapcheck
	}

	nights := model.Nights(in, out)
	if !in.Before(out) || nights < 1 {
		return dto.Stay{}, failure.BadRequestFromString(msgDateOrder) // nolint:wrapcheck
	}

	return dto.Stay{CheckIn: in, CheckOut: out, Nights: nights}, nil
}

func sortByPrice(rooms []dto.AvailableRoom) {
	slices.SortStableFunc(rooms, func(a, b dto.AvailableRoom) int {
		return cmp.Compare(a.Price, b.Price)
	})
}

func toRoomResponse(room roomModel.Room) roomDto.RoomResponse {
	var res roomDto.RoomResponse
	res.FromModel(room)

	return res
}
