package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPendingPutGetRemove(t *testing.T) {
	s := NewPendingStore(time.Minute)

	id := s.Put(&Pending{UserID: 7, Name: "მაგსი", Amount: 20, Product: "ფილე"})
	require.NotEmpty(t, id)

	p, ok := s.Get(7)
	require.True(t, ok)
	require.Equal(t, id, p.ID)
	require.Equal(t, "მაგსი", p.Name)

	byID, ok := s.GetByID(id)
	require.True(t, ok)
	require.Equal(t, p, byID)

	s.Remove(7)
	_, ok = s.Get(7)
	require.False(t, ok)
}

func TestPendingReplacesPerUser(t *testing.T) {
	s := NewPendingStore(time.Minute)

	first := s.Put(&Pending{UserID: 7, Name: "პირველი"})
	second := s.Put(&Pending{UserID: 7, Name: "მეორე"})
	require.NotEqual(t, first, second)

	p, ok := s.Get(7)
	require.True(t, ok)
	require.Equal(t, "მეორე", p.Name)

	_, ok = s.GetByID(first)
	require.False(t, ok)
}

func TestPendingExpiry(t *testing.T) {
	s := NewPendingStore(10 * time.Millisecond)

	id := s.Put(&Pending{UserID: 7, Name: "მაგსი"})
	time.Sleep(20 * time.Millisecond)

	_, ok := s.Get(7)
	require.False(t, ok)
	_, ok = s.GetByID(id)
	require.False(t, ok)
}

func TestPendingSweep(t *testing.T) {
	s := NewPendingStore(10 * time.Millisecond)

	s.Put(&Pending{UserID: 1})
	s.Put(&Pending{UserID: 2})
	time.Sleep(20 * time.Millisecond)

	s.Sweep()
	require.Zero(t, s.Len())
}
