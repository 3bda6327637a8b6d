package rbac

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, role := range Roles() {
		parsed, err := ParseRole(string(role))
		require.NoError(t, err)
		require.Equal(t, role, parsed)
	}
	_, err := ParseRole("superuser")
	require.Error(t, err)
	_, err = ParseRole("")
	require.Error(t, err)
}

func TestCapabilitiesJSONKeys(t *testing.T) {
	payload, err := json.Marshal(Capabilities{})
	require.NoError(t, err)

	var keys map[string]bool
	require.NoError(t, json.Unmarshal(payload, &keys))

	expected := []string{
		"canCreatePermits", "canEditPermits", "canDeletePermits", "canClosePermits",
		"canReopenPermits", "canReopenAnyPermit", "canViewPermits", "canExportPermits",
		"canManageUsers", "canViewStatistics", "canViewActivityLog", "canManagePermissions",
	}
	require.Len(t, keys, len(expected))
	for _, key := range expected {
		require.Contains(t, keys, key)
	}
}

func TestDefaultCapabilities(t *testing.T) {
	admin := DefaultCapabilities(RoleAdmin)
	require.True(t, admin.DeletePermits)
	require.True(t, admin.ManageUsers)
	require.True(t, admin.ManagePermissions)
	require.True(t, admin.ReopenAnyPermit)

	manager := DefaultCapabilities(RoleManager)
	require.True(t, manager.CreatePermits)
	require.True(t, manager.ReopenAnyPermit)
	require.False(t, manager.DeletePermits)
	require.False(t, manager.ManageUsers)
	require.False(t, manager.ManagePermissions)

	officer := DefaultCapabilities(RoleSecurityOfficer)
	require.True(t, officer.ClosePermits)
	require.True(t, officer.ReopenPermits)
	require.False(t, officer.ReopenAnyPermit)
	require.False(t, officer.CreatePermits)
	require.False(t, officer.ExportPermits)

	observer := DefaultCapabilities(RoleObserver)
	require.Equal(t, Capabilities{ViewPermits: true}, observer)

	require.Equal(t, Capabilities{}, DefaultCapabilities(Role("bogus")))
}
