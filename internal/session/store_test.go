package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPutGetPop(t *testing.T) {
	s := NewStore(time.Minute)
	user := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	assert.Nil(t, s.Get(user))

	s.Put(user, ids)
	assert.Equal(t, ids, s.Get(user))
	assert.Equal(t, ids, s.Get(user)) // Get does not consume

	assert.Equal(t, ids, s.Pop(user))
	assert.Nil(t, s.Get(user))
	assert.Nil(t, s.Pop(user))
}

func TestPerUserIsolation(t *testing.T) {
	s := NewStore(time.Minute)
	a, b := uuid.New(), uuid.New()

	s.Put(a, []uuid.UUID{uuid.New()})
	assert.Nil(t, s.Get(b))

	s.Clear(b) // clearing an absent selection is a no-op
	assert.NotNil(t, s.Get(a))
}

func TestExpiry(t *testing.T) {
	s := NewStore(time.Minute)
	current := time.Now()
	s.now = func() time.Time { return current }

	user := uuid.New()
	s.Put(user, []uuid.UUID{uuid.New()})

	current = current.Add(30 * time.Second)
	assert.NotNil(t, s.Get(user))

	current = current.Add(31 * time.Second)
	assert.Nil(t, s.Get(user))
}

func TestPutReplaces(t *testing.T) {
	s := NewStore(time.Minute)
	user := uuid.New()
	first := []uuid.UUID{uuid.New()}
	second := []uuid.UUID{uuid.New(), uuid.New()}

	s.Put(user, first)
	s.Put(user, second)
	assert.Equal(t, second, s.Get(user))
}
