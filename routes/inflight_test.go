package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInflight(t *testing.T) {
	f := newInflight()
	defer close(f)

	a := submitKey{surveyId: 1, userId: 1}
	b := submitKey{surveyId: 1, userId: 2}

	assert.True(t, f.acquire(a))
	assert.False(t, f.acquire(a))
	assert.True(t, f.acquire(b))

	f.release(a)
	assert.True(t, f.acquire(a))
}
