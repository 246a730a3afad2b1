package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSolvedRatio(t *testing.T) {
	assert.Equal(t, 0.5, SolvedRatio(1, 2))
	assert.Equal(t, 1.0, SolvedRatio(3, 3))
	assert.Equal(t, 0.0, SolvedRatio(0, 0))
	assert.Equal(t, 0.0, SolvedRatio(0, 5))
}
