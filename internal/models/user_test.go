package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleAdmin, ParseRole("ADMIN"))
	assert.Equal(t, RoleAdmin, ParseRole("  Admin "))
	assert.Equal(t, RoleManager, ParseRole("Manager"))
	assert.Equal(t, RoleUser, ParseRole("user"))
}

func TestParseRole_UnknownFallsBackToUser(t *testing.T) {
	assert.Equal(t, RoleUser, ParseRole(""))
	assert.Equal(t, RoleUser, ParseRole("superuser"))
}

func TestRole_IsAdmin(t *testing.T) {
	assert.True(t, RoleAdmin.IsAdmin())
	assert.False(t, RoleManager.IsAdmin())
	assert.False(t, RoleUser.IsAdmin())
}
