package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	upErr   error
	steps   []int
	forced  []int
	version uint
	verErr  error
}

func (f *fakeMigrator) Up() error { return f.upErr }
func (f *fakeMigrator) Steps(n int) error { f.steps = append(f.steps, n); return nil }
func (f *fakeMigrator) Force(v int) error { f.forced = append(f.forced, v); return nil }
func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, false, f.verErr }

func TestRunDefaultsToUp(t *testing.T) {
	m := &fakeMigrator{upErr: migrate.ErrNoChange}
	require.NoError(t, run(m, nil))

	m.upErr = errors.New("boom")
	require.Error(t, run(m, []string{"up"}))
}

func TestRunDownAndForce(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"down", "1"}))
	require.NoError(t, run(m, []string{"force", "3"}))
	assert.Equal(t, []int{-1}, m.steps)
	assert.Equal(t, []int{3}, m.forced)
}

func TestRunArgumentErrors(t *testing.T) {
	m := &fakeMigrator{}
	assert.Error(t, run(m, []string{"down"}))
	assert.Error(t, run(m, []string{"force", "x"}))
	assert.Error(t, run(m, []string{"sideways"}))
}

func TestRunVersion(t *testing.T) {
	require.NoError(t, run(&fakeMigrator{verErr: migrate.ErrNilVersion}, []string{"version"}))
	require.NoError(t, run(&fakeMigrator{version: 1}, []string{"version"}))
	require.Error(t, run(&fakeMigrator{verErr: errors.New("db gone")}, []string{"version"}))
}
