package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	tests := []struct {
		args    []string
		wantUse string
	}{
		{[]string{"serve"}, "serve"},
		{[]string{"migrate", "up"}, "migrate"},
		{[]string{"sweep", "all"}, "sweep"},
	}

	for _, tc := range tests {
		t.Run(tc.wantUse, func(t *testing.T) {
			cmd, _, err := root.Find(tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.wantUse, cmd.Name())
		})
	}
}

func TestSubcommandArgs(t *testing.T) {
	root := newRootCmd()

	sweep, _, err := root.Find([]string{"sweep"})
	require.NoError(t, err)
	assert.Error(t, sweep.Args(sweep, nil))
	assert.NoError(t, sweep.Args(sweep, []string{"overdue"}))
	assert.Contains(t, sweep.ValidArgs, "archive")
	assert.Contains(t, sweep.ValidArgs, sweepAll)

	migrate, _, err := root.Find([]string{"migrate"})
	require.NoError(t, err)
	assert.Error(t, migrate.Args(migrate, []string{"up", "down"}))
	assert.Contains(t, migrate.ValidArgs, "status")

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("no-scheduler"))
}
