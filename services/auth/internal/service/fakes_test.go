package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/propertyapp/property-listing/services/auth/internal/domain"
)

type memoryOTPRepo struct {
	mu         sync.Mutex
	challenges []*domain.OTPChallenge
	nextID     int64
	failCreate error
}

func (r *memoryOTPRepo) Create(_ context.Context, c *domain.OTPChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.challenges = append(r.challenges, &cp)
	return nil
}

func (r *memoryOTPRepo) Consume(_ context.Context, mobile, codeHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var newest *domain.OTPChallenge
	for _, c := range r.challenges {
		if c.MobileNumber != mobile || c.CodeHash != codeHash || c.Verified {
			continue
		}
		if newest == nil || c.CreatedAt.After(newest.CreatedAt) || (c.CreatedAt.Equal(newest.CreatedAt) && c.ID > newest.ID) {
			newest = c
		}
	}
	if newest == nil || !newest.Usable(now) {
		return false, nil
	}
	newest.Verified = true
	return true, nil
}

func (r *memoryOTPRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.challenges[:0]
	var n int64
	for _, c := range r.challenges {
		if !c.Verified && c.ExpiresAt.Before(now) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	r.challenges = kept
	return n, nil
}

func (r *memoryOTPRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.challenges)
}

type memoryUserRepo struct {
	users map[string]*domain.User
}

func (r *memoryUserRepo) FindByMobile(_ context.Context, mobile string) (*domain.User, error) {
	return r.users[mobile], nil
}

func (r *memoryUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

type sentSMS struct {
	recipient, message string
}

type recordingGateway struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (g *recordingGateway) Send(_ context.Context, recipient, message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, sentSMS{recipient, message})
	return nil
}

var errGatewayDown = errors.New("gateway down")

// fakeClock is advanced by tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequence returns codes in order.
func sequence(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}
