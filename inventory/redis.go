package inventory

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"railway-reservation/models"
)

//go:embed scripts/init_pool.lua
var initPoolSource string

//go:embed scripts/allocate_seat.lua
var allocateSeatSource string

//go:embed scripts/release_seat.lua
var releaseSeatSource string

//go:embed scripts/list_seats.lua
var listSeatsSource string

//go:embed scripts/drop_pool.lua
var dropPoolSource string

var (
	initPoolScript     = redis.NewScript(initPoolSource)
	allocateSeatScript = redis.NewScript(allocateSeatSource)
	releaseSeatScript  = redis.NewScript(releaseSeatSource)
	listSeatsScript    = redis.NewScript(listSeatsSource)
	dropPoolScript     = redis.NewScript(dropPoolSource)
)

// RedisBackend stores each pool as a capacity hash plus one hash per seat.
// All keys of a pool share a hash tag so a pool lives in one cluster slot
// and its Lua scripts stay single-slot.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisBackend creates a backend over a connected client. prefix
// namespaces the keys; empty means "pool".
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "pool"
	}
	return &RedisBackend{client: client, prefix: prefix}
}

// Name implements Backend
func (b *RedisBackend) Name() string {
	return "redis"
}

// Open implements Backend
func (b *RedisBackend) Open(trainNumber string) Pool {
	return &RedisPool{
		client:      b.client,
		trainNumber: trainNumber,
		poolKey:     b.poolKey(trainNumber),
		seatPrefix:  b.poolKey(trainNumber) + ":seat:",
	}
}

// Exists implements Backend
func (b *RedisBackend) Exists(ctx context.Context, trainNumber string) (bool, error) {
	n, err := b.client.Exists(ctx, b.poolKey(trainNumber)).Result()
	if err != nil {
		return false, models.StorageFailure("check seat pool", err)
	}
	return n == 1, nil
}

// Drop implements Backend
func (b *RedisBackend) Drop(ctx context.Context, trainNumber string) error {
	key := b.poolKey(trainNumber)
	err := dropPoolScript.Run(ctx, b.client, []string{key}, key+":seat:").Err()
	if err != nil {
		return models.StorageFailure("drop seat pool", err)
	}
	return nil
}

func (b *RedisBackend) poolKey(trainNumber string) string {
	return fmt.Sprintf("%s:{%s}", b.prefix, trainNumber)
}

// RedisPool is the seat pool of one train in Redis
type RedisPool struct {
	client      redis.UniversalClient
	trainNumber string
	poolKey     string
	seatPrefix  string
}

// TrainNumber implements Pool
func (p *RedisPool) TrainNumber() string {
	return p.trainNumber
}

// Initialize implements Pool
func (p *RedisPool) Initialize(ctx context.Context, capacity int, layout []models.SeatCategory) error {
	if err := validateLayout(capacity, layout); err != nil {
		return err
	}

	args := make([]interface{}, 0, len(layout)+2)
	args = append(args, p.seatPrefix, capacity)
	for _, c := range layout {
		args = append(args, string(c))
	}

	if err := initPoolScript.Run(ctx, p.client, []string{p.poolKey}, args...).Err(); err != nil {
		return models.StorageFailure("init seat pool", err)
	}
	return nil
}

// Allocate implements Pool
func (p *RedisPool) Allocate(ctx context.Context, category models.SeatCategory, passenger models.Passenger) (int, error) {
	if err := validateAllocation(category, passenger); err != nil {
		return 0, err
	}

	seat, err := allocateSeatScript.Run(ctx, p.client, []string{p.poolKey},
		p.seatPrefix,
		string(category),
		passenger.Name,
		passenger.Age,
		string(passenger.Gender),
	).Int()
	if err != nil {
		return 0, models.StorageFailure("allocate seat", err)
	}

	switch {
	case seat > 0:
		return seat, nil
	case seat == -1:
		return 0, p.notFound()
	default:
		return 0, fmt.Errorf("%w: no free %s seat on train %s", models.ErrNoSeatAvailable, category, p.trainNumber)
	}
}

// Release implements Pool
func (p *RedisPool) Release(ctx context.Context, seatNumber int) error {
	code, err := releaseSeatScript.Run(ctx, p.client, []string{p.poolKey}, p.seatPrefix, seatNumber).Int()
	if err != nil {
		return models.StorageFailure("release seat", err)
	}

	switch code {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("%w: seat %d on train %s", models.ErrSeatAlreadyFree, seatNumber, p.trainNumber)
	case -1:
		return p.notFound()
	default:
		return fmt.Errorf("%w: seat %d on train %s", models.ErrSeatNotFound, seatNumber, p.trainNumber)
	}
}

// Seats implements Pool
func (p *RedisPool) Seats(ctx context.Context) ([]models.Seat, error) {
	res, err := listSeatsScript.Run(ctx, p.client, []string{p.poolKey}, p.seatPrefix).Result()
	if err != nil {
		return nil, models.StorageFailure("list seats", err)
	}

	rows, ok := res.([]interface{})
	if !ok {
		return nil, p.notFound()
	}

	seats := make([]models.Seat, 0, len(rows))
	for i, row := range rows {
		seat, err := parseRedisSeat(i+1, row)
		if err != nil {
			return nil, fmt.Errorf("%w: train %s: %v", models.ErrStorageFailure, p.trainNumber, err)
		}
		seats = append(seats, seat)
	}
	return seats, nil
}

func (p *RedisPool) notFound() error {
	return fmt.Errorf("%w: train %s", models.ErrPoolNotFound, p.trainNumber)
}

// parseRedisSeat decodes one {category, booked, name, age, gender} row
func parseRedisSeat(number int, row interface{}) (models.Seat, error) {
	fields, ok := row.([]interface{})
	if !ok || len(fields) != 5 {
		return models.Seat{}, fmt.Errorf("seat %d: malformed row %v", number, row)
	}

	str := func(v interface{}) string {
		s, _ := v.(string)
		return s
	}

	seat := models.Seat{
		SeatNumber: number,
		Category:   models.SeatCategory(str(fields[0])),
		Booked:     str(fields[1]) == "1",
	}
	if !seat.Category.Valid() {
		return models.Seat{}, fmt.Errorf("seat %d: unknown category %q", number, fields[0])
	}

	if fields[2] != nil || fields[3] != nil || fields[4] != nil {
		age, err := strconv.Atoi(str(fields[3]))
		if err != nil {
			return models.Seat{}, fmt.Errorf("seat %d: bad passenger age %q", number, fields[3])
		}
		seat.Passenger = &models.Passenger{
			Name:   str(fields[2]),
			Age:    age,
			Gender: models.Gender(str(fields[4])),
		}
	}

	if !seat.Consistent() {
		return models.Seat{}, fmt.Errorf("seat %d: inconsistent passenger data", number)
	}
	return seat, nil
}
