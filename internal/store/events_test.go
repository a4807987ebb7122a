package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberRoleColumn(t *testing.T) {
	tests := []struct {
		role MemberRole
		want string
	}{
		{role: MemberManager, want: "manager_ids"},
		{role: MemberExpert, want: "expert_ids"},
		{role: MemberSpectator, want: "spectator_ids"},
	}

	for _, tc := range tests {
		col, err := tc.role.column()
		require.NoError(t, err)
		assert.Equal(t, tc.want, col)
	}

	_, err := MemberRole("organizer").column()
	assert.Error(t, err)
}

func TestAppendOnceQuery_CoalescesNullArrays(t *testing.T) {
	// A NULL array column makes both array_append and the ANY guard evaluate
	// to NULL, turning the membership write into a silent no-op. Every array
	// reference must therefore be wrapped in COALESCE.
	for _, column := range []string{"manager_ids", "expert_ids", "spectator_ids", "project_ids"} {
		query := appendOnceQuery(column)

		assert.Contains(t, query, "array_append(COALESCE("+column+", '{}'), $1)")
		assert.Contains(t, query, "NOT ($1 = ANY(COALESCE("+column+", '{}')))")
		assert.NotContains(t, query, "ANY("+column+")")
		assert.Equal(t, 2, strings.Count(query, "COALESCE"))
	}
}
