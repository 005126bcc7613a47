package stats

import (
	"sync"
	"time"
)

// Recorder counts download outcomes. It satisfies flow.Metrics.
type Recorder struct {
	mu        sync.RWMutex
	startTime time.Time
	now       func() time.Time

	delivered  int64
	failed     int64
	totalBytes int64
	users      map[int64]bool
	daily      map[string]*PeriodStats // YYYY-MM-DD
	lastDone   time.Time
}

type PeriodStats struct {
	Delivered int64
	Failed    int64
	Bytes     int64
	Users     int
	users     map[int64]bool
}

type Snapshot struct {
	Delivered    int64
	Failed       int64
	TotalBytes   int64
	UniqueUsers  int
	Today        PeriodStats
	LastDelivery time.Time
	Uptime       time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{
		startTime: time.Now(),
		now:       time.Now,
		users:     make(map[int64]bool),
		daily:     make(map[string]*PeriodStats),
	}
}

func (r *Recorder) Delivered(userID int64, bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.delivered++
	r.totalBytes += bytes
	r.users[userID] = true
	r.lastDone = now

	p := r.period(now)
	p.Delivered++
	p.Bytes += bytes
	p.users[userID] = true
}

func (r *Recorder) Failed(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failed++
	r.users[userID] = true
	p := r.period(r.now())
	p.Failed++
	p.users[userID] = true
}

func (r *Recorder) period(t time.Time) *PeriodStats {
	key := t.Format("2006-01-02")
	p, ok := r.daily[key]
	if !ok {
		p = &PeriodStats{users: make(map[int64]bool)}
		r.daily[key] = p
	}
	return p
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	s := Snapshot{
		Delivered:    r.delivered,
		Failed:       r.failed,
		TotalBytes:   r.totalBytes,
		UniqueUsers:  len(r.users),
		LastDelivery: r.lastDone,
		Uptime:       now.Sub(r.startTime),
	}
	if p, ok := r.daily[now.Format("2006-01-02")]; ok {
		s.Today = PeriodStats{Delivered: p.Delivered, Failed: p.Failed, Bytes: p.Bytes, Users: len(p.users)}
	}
	return s
}
