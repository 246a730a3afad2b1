package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/courses-api/pkg/config"
)

func TestDSNQuotesValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "courses",
		Password: `p@ss w'rd\`,
		Name:     "online_courses",
		SSLMode:  "disable",
	})
	assert.Equal(t, `host='db' port=5432 user='courses' password='p@ss w\'rd\\' dbname='online_courses' sslmode='disable'`, dsn)
}

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) PingContext(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitReadyRetries(t *testing.T) {
	db := &flakyPinger{failures: 2}
	assert.NoError(t, waitReady(context.Background(), db, 3, time.Millisecond))
	assert.Equal(t, 3, db.calls)

	db = &flakyPinger{failures: 5}
	assert.Error(t, waitReady(context.Background(), db, 1, time.Millisecond))
	assert.Equal(t, 2, db.calls)
}

func TestWaitReadyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	db := &flakyPinger{failures: 5}
	assert.ErrorIs(t, waitReady(ctx, db, 10, time.Hour), context.Canceled)
}
