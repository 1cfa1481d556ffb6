/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestJoinAssignsColorsAndFirstPlayer(t *testing.T) {
	r := New(MaxPlayers)

	names := []string{"ann", "bob", "cat", "dan"}
	for i, name := range names {
		p, rejoined, err := r.Join(name+"-id", name, epoch)
		require.NoError(t, err)
		assert.False(t, rejoined)
		assert.Equal(t, Palette[i], p.Color)
		assert.Equal(t, i == 0, p.FirstPlayer)
		assert.True(t, p.Connected)
	}

	_, _, err := r.Join("eve-id", "eve", epoch)
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 4, r.Len())
}

func TestJoinValidatesNames(t *testing.T) {
	r := New(MaxPlayers)

	_, _, err := r.Join("a", "   ", epoch)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, _, err = r.Join("a", "this name is far too long to fit", epoch)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, _, err = r.Join("a", "Ann", epoch)
	require.NoError(t, err)

	_, _, err = r.Join("b", "ann", epoch)
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestRejoinKeepsSeat(t *testing.T) {
	r := New(MaxPlayers)
	first, _, err := r.Join("a", "ann", epoch)
	require.NoError(t, err)
	_, _, err = r.Join("b", "bob", epoch)
	require.NoError(t, err)

	_, err = r.Disconnect("a")
	require.NoError(t, err)
	assert.Len(t, r.Connected(), 1)

	back, rejoined, err := r.Join("a", "ann", epoch.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, rejoined)
	assert.Equal(t, first.Color, back.Color)
	assert.True(t, back.FirstPlayer)
	assert.Equal(t, epoch, back.JoinedAt)
	assert.Len(t, r.Connected(), 2)
}

func TestRemoveFreesColorAndPromotesFirst(t *testing.T) {
	r := New(MaxPlayers)
	for _, id := range []string{"a", "b", "c"} {
		_, _, err := r.Join(id, id+"name", epoch)
		require.NoError(t, err)
	}

	_, err := r.Disconnect("b")
	require.NoError(t, err)

	removed, err := r.Remove("a")
	require.NoError(t, err)
	assert.Equal(t, "pink", removed.Color)

	assert.False(t, r.IsFirstPlayer("b"), "disconnected players are skipped")
	assert.True(t, r.IsFirstPlayer("c"))

	p, _, err := r.Join("d", "dname", epoch)
	require.NoError(t, err)
	assert.Equal(t, "pink", p.Color)

	_, err = r.Remove("zzz")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestPlayersReturnsCopies(t *testing.T) {
	r := New(2)
	_, _, err := r.Join("a", "ann", epoch)
	require.NoError(t, err)

	ps := r.Players()
	ps[0].Name = "mallory"

	p, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "ann", p.Name)
}
