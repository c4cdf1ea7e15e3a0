package taskwarrior

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxmph/leadbox/internal/crm"
	"github.com/pdxmph/leadbox/internal/tasks"
)

func TestCreateFollowUpArgs(t *testing.T) {
	var got []string
	b := NewBackendWithRunner(func(args ...string) ([]byte, error) {
		got = args
		return []byte("Created task 1."), nil
	})

	err := b.CreateFollowUp(tasks.Lead{ContactID: "1", Name: "Miguel Sánchez", Phone: "34 654-789-123", Status: crm.StatusScheduled})
	require.NoError(t, err)
	assert.Equal(t, []string{"add", "Prepare viewing with Miguel Sánchez", "+leadbox", "+lead_1", "due:tomorrow"}, got)

	err = b.CreateFollowUp(tasks.Lead{ContactID: "2", Name: "Laura González", Phone: "34 654-543-321", Status: crm.StatusFollowUp})
	require.NoError(t, err)
	assert.Equal(t, []string{"add", "Follow up with Laura González (34 654-543-321)", "+leadbox", "+lead_2"}, got)
}

func TestCreateFollowUpFailure(t *testing.T) {
	b := NewBackendWithRunner(func(args ...string) ([]byte, error) {
		return []byte("boom"), errors.New("exit status 1")
	})
	err := b.CreateFollowUp(tasks.Lead{ContactID: "1", Name: "x", Status: crm.StatusFollowUp})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	assert.Error(t, b.CreateFollowUp(tasks.Lead{Name: "no id"}))
}

func TestListFollowUps(t *testing.T) {
	export := `[{"id":3,"uuid":"a1b2","description":"Follow up with Miguel Sánchez","status":"pending",
		"tags":["leadbox","lead_1"],"entry":"20240615T120000Z","due":"20240616T000000Z"}]`

	var got []string
	b := NewBackendWithRunner(func(args ...string) ([]byte, error) {
		got = args
		return []byte(export), nil
	})

	list, err := b.ListFollowUps("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tag:lead_1", "status:pending", "export"}, got)
	require.Len(t, list, 1)
	assert.Equal(t, "a1b2", list[0].ID)
	assert.Equal(t, 2024, list[0].Created.Year())
	require.NotNil(t, list[0].Due)
	assert.Equal(t, 16, list[0].Due.Day())
}

func TestListFollowUpsNoMatches(t *testing.T) {
	b := NewBackendWithRunner(func(args ...string) ([]byte, error) {
		return []byte("No matching tasks."), errors.New("exit status 1")
	})
	list, err := b.ListFollowUps("1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, tasks.ListBackends(), "taskwarrior")
}
