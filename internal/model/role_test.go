package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionMatrixValidate(t *testing.T) {
	valid := EmptyPermissionMatrix()
	valid["users"]["edit"] = true
	require.NoError(t, valid.Validate())

	unknownSection := PermissionMatrix{"billing": {"view": true}}
	err := unknownSection.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billing")

	unknownAction := PermissionMatrix{"users": {"approve": true}}
	require.Error(t, unknownAction.Validate())

	// A sparse matrix is fine as long as every key is known
	sparse := PermissionMatrix{"orders": {"view": true}}
	require.NoError(t, sparse.Validate())
}

func TestPermissionMatrixAllows(t *testing.T) {
	m := PermissionMatrix{"orders": {"view": true, "edit": false}}

	assert.True(t, m.Allows("orders", "view"))
	assert.False(t, m.Allows("orders", "edit"))
	// Absent pairs read as denied
	assert.False(t, m.Allows("orders", "delete"))
	assert.False(t, m.Allows("finance", "view"))

	var nilMatrix PermissionMatrix
	assert.False(t, nilMatrix.Allows("orders", "view"))
}

func TestPermissionMatrixValueScan(t *testing.T) {
	m := EmptyPermissionMatrix()
	m["inventory"]["create"] = true

	value, err := m.Value()
	require.NoError(t, err)

	var restored PermissionMatrix
	require.NoError(t, restored.Scan(value))
	assert.True(t, restored.Allows("inventory", "create"))
	assert.False(t, restored.Allows("inventory", "delete"))
}

func TestPermissionMatrixScanNil(t *testing.T) {
	var m PermissionMatrix
	require.NoError(t, m.Scan(nil))
	assert.False(t, m.Allows("users", "view"))
}

func TestFullPermissionMatrixCoversEverything(t *testing.T) {
	m := FullPermissionMatrix()
	require.NoError(t, m.Validate())
	for _, section := range PermissionSections {
		for _, action := range PermissionActions {
			assert.True(t, m.Allows(section, action), "%s/%s", section, action)
		}
	}
}

func TestPermissionMatrixJSONRoundTrip(t *testing.T) {
	m := EmptyPermissionMatrix()
	m["users"]["view"] = true

	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var restored PermissionMatrix
	require.NoError(t, json.Unmarshal(raw, &restored))
	assert.True(t, restored.Allows("users", "view"))
}

func TestUserIsAdmin(t *testing.T) {
	adminByName := User{Role: &Role{Name: AdminRoleName}}
	assert.True(t, adminByName.IsAdmin())

	matrix := EmptyPermissionMatrix()
	matrix["users"]["edit"] = true
	adminByGrant := User{Role: &Role{Name: "Менеджер", Permissions: matrix}}
	assert.True(t, adminByGrant.IsAdmin())

	regular := User{Role: &Role{Name: "Кладовщик", Permissions: EmptyPermissionMatrix()}}
	assert.False(t, regular.IsAdmin())

	noRole := User{}
	assert.False(t, noRole.IsAdmin())
}
