package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid(), s)
	}
	for _, s := range []Status{"", "pending", "Cancelled", "SHIPPED"} {
		assert.False(t, s.Valid(), s)
	}
}
