package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spoileralert/spoiler-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
	At      time.Time
}

// fakeMailer records sends and can be told to fail the first N attempts
type fakeMailer struct {
	mu        sync.Mutex
	sent      []sentMail
	attempts  int
	failFirst int
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts++
	if f.attempts <= f.failFirst {
		return errors.New("transport says no")
	}

	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body, At: time.Now()})
	return nil
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeMailer) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func newTestDispatcher(t *testing.T, m Mailer) *Dispatcher {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.EmailJob{}))

	return &Dispatcher{
		db:          db,
		mailer:      m,
		jobs:        make(chan *model.EmailJob),
		stop:        make(chan struct{}),
		workers:     1,
		poll:        10 * time.Millisecond,
		maxAttempts: 3,
		sendTimeout: 2 * time.Second,
		backoff:     time.Millisecond,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal("condition not met in time")
}

func jobByID(t *testing.T, d *Dispatcher, id int64) model.EmailJob {
	t.Helper()

	var job model.EmailJob
	require.NoError(t, d.db.First(&job, id).Error)
	return job
}

func TestScheduleAssignsMonotonicIDs(t *testing.T) {
	d := newTestDispatcher(t, &fakeMailer{})

	id1, err := d.Schedule("b@x.com", "s", "b", time.Now().Add(time.Hour))
	require.NoError(t, err)

	id2, err := d.Schedule("c@x.com", "s", "b", time.Now().Add(time.Hour))
	require.NoError(t, err)

	assert.Greater(t, id2, id1)
}

func TestDeliversAtOrAfterTrigger(t *testing.T) {
	m := &fakeMailer{}
	d := newTestDispatcher(t, m)

	trigger := time.Now().Add(100 * time.Millisecond)

	id, err := d.Schedule("b@x.com", "This is not a spoiler", "he dies", trigger)
	require.NoError(t, err)

	d.Start()
	defer d.Stop()

	waitFor(t, func() bool { return m.sentCount() == 1 })

	m.mu.Lock()
	sent := m.sent[0]
	m.mu.Unlock()

	assert.Equal(t, "b@x.com", sent.To)
	assert.Equal(t, "This is not a spoiler", sent.Subject)
	assert.False(t, sent.At.Before(trigger), "fired before its trigger time")

	waitFor(t, func() bool { return jobByID(t, d, id).Status == model.JobSent })

	// No second delivery on later ticks
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, m.sentCount())
}

func TestFutureJobsAreNotFiredEarly(t *testing.T) {
	m := &fakeMailer{}
	d := newTestDispatcher(t, m)

	_, err := d.Schedule("b@x.com", "s", "b", time.Now().Add(time.Hour))
	require.NoError(t, err)

	d.Start()
	defer d.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, m.sentCount())
}

func TestRetriesThenSucceeds(t *testing.T) {
	m := &fakeMailer{failFirst: 2}
	d := newTestDispatcher(t, m)

	id, err := d.Schedule("b@x.com", "s", "b", time.Now())
	require.NoError(t, err)

	d.Start()
	defer d.Stop()

	waitFor(t, func() bool { return jobByID(t, d, id).Status == model.JobSent })

	job := jobByID(t, d, id)
	assert.Equal(t, 3, job.Attempts)
	assert.Empty(t, job.LastError)
	assert.Equal(t, 1, m.sentCount())
}

func TestMarksFailedWhenRetriesExhausted(t *testing.T) {
	m := &fakeMailer{failFirst: 100}
	d := newTestDispatcher(t, m)

	id, err := d.Schedule("b@x.com", "s", "b", time.Now())
	require.NoError(t, err)

	d.Start()
	defer d.Stop()

	waitFor(t, func() bool { return jobByID(t, d, id).Status == model.JobFailed })

	job := jobByID(t, d, id)
	assert.Equal(t, d.maxAttempts, job.Attempts)
	assert.Contains(t, job.LastError, "transport says no")

	// Failed jobs stay failed, no more attempts on later ticks
	attempts := m.attemptCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, attempts, m.attemptCount())
}

// stuckMailer hangs forever on the first send, ignoring the context it is
// handed, and delivers everything after that.
type stuckMailer struct {
	fakeMailer
	calls int
}

func (s *stuckMailer) Send(ctx context.Context, to, subject, body string) error {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()

	if first {
		select {}
	}

	return s.fakeMailer.Send(ctx, to, subject, body)
}

func TestHungTransportDoesNotStallWorker(t *testing.T) {
	m := &stuckMailer{}
	d := newTestDispatcher(t, m)
	d.sendTimeout = 50 * time.Millisecond
	d.maxAttempts = 1

	id1, err := d.Schedule("b@x.com", "s", "b", time.Now())
	require.NoError(t, err)

	d.Start()
	defer d.Stop()

	// The hung send is cut off at the deadline and recorded as a failure
	waitFor(t, func() bool { return jobByID(t, d, id1).Status == model.JobFailed })

	job := jobByID(t, d, id1)
	assert.Equal(t, 1, job.Attempts)
	assert.Contains(t, job.LastError, context.DeadlineExceeded.Error())

	// The worker is free again, the next job still goes out
	id2, err := d.Schedule("c@x.com", "s", "b", time.Now())
	require.NoError(t, err)

	waitFor(t, func() bool { return jobByID(t, d, id2).Status == model.JobSent })
	assert.Equal(t, 1, m.sentCount())
}

func TestRequeueStale(t *testing.T) {
	d := newTestDispatcher(t, &fakeMailer{})

	job := model.EmailJob{
		Recipient: "b@x.com",
		Subject:   "s",
		Body:      "b",
		TriggerAt: time.Now(),
		Status:    model.JobSending,
	}
	require.NoError(t, d.db.Create(&job).Error)

	d.requeueStale()

	assert.Equal(t, model.JobPending, jobByID(t, d, job.ID).Status)
}
