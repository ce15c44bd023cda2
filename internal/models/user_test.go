package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatus_Valid(t *testing.T) {
	assert.True(t, StatusInactive.Valid())
	assert.True(t, StatusActive.Valid())
	assert.True(t, StatusExpired.Valid())

	assert.False(t, SubscriptionStatus("").Valid())
	assert.False(t, SubscriptionStatus("banned").Valid())
	assert.False(t, SubscriptionStatus("Active").Valid())
}
