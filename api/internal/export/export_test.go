package export

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-bot/api/internal/exam"
)

type fakeTarget struct {
	name    string
	err     error
	calls   int
	archive []byte
}

func (f *fakeTarget) Name() string { return f.name }

func (f *fakeTarget) Deliver(_ context.Context, _ exam.ExportBundle, archive []byte) error {
	f.calls++
	f.archive = archive
	return f.err
}

func TestServiceNoTargetsIsAnError(t *testing.T) {
	s := NewService(nil)
	require.Error(t, s.Export(context.Background(), testBundle()))
}

func TestServiceDeliversArchiveToEveryTarget(t *testing.T) {
	a := &fakeTarget{name: "a"}
	b := &fakeTarget{name: "b"}
	s := NewService(nil, a, b)

	require.NoError(t, s.Export(context.Background(), testBundle()))
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.NotEmpty(t, a.archive)
	assert.Equal(t, a.archive, b.archive)
}

func TestServiceKeepsGoingPastFailingTarget(t *testing.T) {
	bad := &fakeTarget{name: "bad", err: errors.New("no credentials")}
	good := &fakeTarget{name: "good"}
	s := NewService(nil, bad, good)

	err := s.Export(context.Background(), testBundle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	// A failing target never blocks the others.
	assert.Equal(t, 1, good.calls)
}

func TestEmailTargetUnconfiguredFailsFast(t *testing.T) {
	e := &EmailTarget{}
	assert.False(t, e.Configured())
	require.Error(t, e.Deliver(context.Background(), testBundle(), []byte("zip")))
}
