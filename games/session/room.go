/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Seednode/partydeck/games/animlock"
	"github.com/Seednode/partydeck/games/roster"
)

const inboxSize = 64

// room owns one game session. All of its state is touched only from run,
// which drains inbox one closure at a time.
type room struct {
	code   string
	hostID string
	reg    *Registry
	log    zerolog.Logger

	roster   *roster.Roster
	mode     Mode
	game     Game
	lock     *animlock.Lock
	removals map[string]removal
	seq      uint64

	createdAt    time.Time
	lastActivity atomic.Int64

	inbox  chan func()
	done   chan struct{}
	closed bool
}

type removal struct {
	timer animlock.Timer
	gen   uint64
}

func newRoom(reg *Registry, code, hostID string) *room {
	now := reg.now()

	r := &room{
		code:      code,
		hostID:    hostID,
		reg:       reg,
		log:       reg.log.With().Str("room", code).Logger(),
		roster:    roster.New(roster.MaxPlayers),
		removals:  make(map[string]removal),
		createdAt: now,
		inbox:     make(chan func(), inboxSize),
		done:      make(chan struct{}),
	}
	r.lock = animlock.New(reg.sched, reg.now, reg.opts.AnimationGrace, r.expire)
	r.lastActivity.Store(now.UnixNano())

	go r.run()

	return r
}

func (r *room) run() {
	for {
		f := <-r.inbox
		f()

		if r.closed {
			close(r.done)

			return
		}
	}
}

// do runs f on the room's loop and waits for its result.
func (r *room) do(f func() error) error {
	errc := make(chan error, 1)

	select {
	case r.inbox <- func() { errc <- f() }:
	case <-r.done:
		return ErrRoomClosed
	}

	select {
	case err := <-errc:
		return err
	case <-r.done:
		select {
		case err := <-errc:
			return err
		default:
			return ErrRoomClosed
		}
	}
}

// post queues f without waiting. It is dropped if the room closes first.
func (r *room) post(f func()) {
	select {
	case r.inbox <- func() {
		if !r.closed {
			f()
		}
	}:
	case <-r.done:
	}
}

// after schedules f onto the loop. f must re-check whatever state it
// depends on; the room may have moved on by the time it runs.
func (r *room) after(d time.Duration, f func()) animlock.Timer {
	return r.reg.sched.AfterFunc(d, func() {
		r.post(f)
	})
}

func (r *room) expire(tok animlock.Token) {
	r.post(func() {
		reason, ok := r.lock.Expire(tok)
		if !ok {
			return
		}

		r.log.Warn().Str("reason", reason.String()).Msg("no completion signal from display, releasing animation lock")
		r.released(reason)
	})
}

func (r *room) released(reason animlock.Reason) {
	if r.game != nil {
		r.game.Released(reason)
	}
}

func (r *room) touch() {
	r.lastActivity.Store(r.reg.now().UnixNano())
}

func (r *room) lastActive() time.Time {
	return time.Unix(0, r.lastActivity.Load())
}

func (r *room) handle(clientID string, a Action) error {
	if !r.isHost(clientID) && !r.isMember(clientID) {
		return ErrNotInRoom
	}

	r.touch()

	switch a.Type {
	case KindStartGame:
		return r.start(clientID, a.Mode)
	case KindRestartGame:
		return r.restart(clientID)
	case KindAnimationComplete, KindFirstCardFlipComplete:
		return r.complete(clientID, animlock.Animation)
	case KindWinnerAnimationComplete:
		return r.complete(clientID, animlock.Winner)
	}

	if r.game == nil {
		return ErrNoGame
	}

	if !r.lock.Permits(string(a.Type)) {
		return ErrLocked
	}

	return r.game.Handle(clientID, a)
}

func (r *room) start(clientID string, mode Mode) error {
	if !r.canControl(clientID) {
		return ErrNotAllowed
	}
	if r.inGame() {
		return ErrGameInProgress
	}
	if mode == "" {
		mode = ModeEights
	}

	return r.begin(mode)
}

// restart deals a fresh game in the same mode, abandoning the current one.
func (r *room) restart(clientID string) error {
	if !r.canControl(clientID) {
		return ErrNotAllowed
	}
	if r.game == nil {
		return ErrNoGame
	}

	return r.begin(r.mode)
}

func (r *room) begin(mode Mode) error {
	players := r.roster.Connected()
	if len(players) < 2 {
		return ErrTooFewPlayers
	}

	g, err := newGame(r, mode, players)
	if err != nil {
		return err
	}

	if r.game != nil {
		r.game.Stop()
	}
	r.lock.Cancel()

	r.game = g
	r.mode = mode

	for id := range r.removals {
		r.cancelRemoval(id)
	}

	r.log.Info().Str("mode", string(mode)).Int("players", len(players)).Msg("game started")

	g.Start()

	return nil
}

func (r *room) complete(clientID string, reason animlock.Reason) error {
	if !r.isHost(clientID) {
		return ErrNotHost
	}

	if err := r.lock.Release(reason); err != nil {
		return err
	}

	r.released(reason)

	return nil
}

func (r *room) join(clientID, name string) (JoinResult, error) {
	if r.isHost(clientID) {
		return JoinResult{}, ErrHostIsDisplay
	}

	if _, known := r.roster.Get(clientID); !known && r.inGame() {
		return JoinResult{}, ErrGameInProgress
	}

	p, rejoined, err := r.roster.Join(clientID, name, r.reg.now())
	if err != nil {
		return JoinResult{}, err
	}

	r.touch()
	r.cancelRemoval(clientID)
	r.reg.remember(clientID, r)

	if rejoined {
		r.log.Info().Str("player", p.Name).Msg("player reconnected")
	} else {
		r.log.Info().Str("player", p.Name).Str("color", p.Color).Msg("player joined")
	}

	snap := r.snapshot()
	res := JoinResult{
		Header:        header("joinResult"),
		Success:       true,
		Code:          r.code,
		Color:         p.Color,
		IsFirstPlayer: p.FirstPlayer,
		Rejoined:      rejoined,
		Room:          &snap,
	}

	r.notify(clientID, res)
	r.broadcast(PlayerJoined{Header: header("playerJoined"), Name: p.Name, Roster: r.lobby()})

	if r.game != nil {
		if rejoined {
			r.game.PlayerConnectionChanged(clientID, true)
		} else {
			r.sendState()
		}
	}

	return res, nil
}

func (r *room) disconnect(clientID string) (string, error) {
	p, err := r.roster.Disconnect(clientID)
	if err != nil {
		return "", err
	}

	r.touch()
	r.log.Info().Str("player", p.Name).Msg("player disconnected")

	if r.game != nil {
		r.game.PlayerConnectionChanged(clientID, false)
	}

	r.broadcast(PlayerLeft{Header: header("playerLeft"), Name: p.Name, Roster: r.lobby()})

	if !r.inGame() {
		r.scheduleRemoval(clientID)
	}

	return p.Name, nil
}

// gameEnded starts removal timers for anyone who left mid-game.
func (r *room) gameEnded() {
	for _, p := range r.roster.Players() {
		if !p.Connected {
			r.scheduleRemoval(p.ID)
		}
	}
}

// scheduleRemoval drops a player who stays disconnected past the player
// timeout while no game is running.
func (r *room) scheduleRemoval(playerID string) {
	d := r.reg.opts.PlayerTimeout
	if d <= 0 {
		return
	}

	r.cancelRemoval(playerID)

	r.seq++
	gen := r.seq
	r.removals[playerID] = removal{
		gen: gen,
		timer: r.after(d, func() {
			if cur, ok := r.removals[playerID]; !ok || cur.gen != gen {
				return
			}
			delete(r.removals, playerID)

			if r.inGame() {
				return
			}

			p, ok := r.roster.Get(playerID)
			if !ok || p.Connected {
				return
			}

			if _, err := r.roster.Remove(playerID); err != nil {
				return
			}
			r.reg.forget(playerID, r)

			r.log.Info().Str("player", p.Name).Msg("player removed after timeout")
			r.broadcast(PlayerLeft{Header: header("playerLeft"), Name: p.Name, Removed: true, Roster: r.lobby()})
		}),
	}
}

func (r *room) cancelRemoval(playerID string) {
	if cur, ok := r.removals[playerID]; ok {
		if cur.timer != nil {
			cur.timer.Stop()
		}
		delete(r.removals, playerID)
	}
}

// shutdown tells every member why the room is going away and stops its
// timers. The loop exits after the current closure.
func (r *room) shutdown(reason, newCode string) {
	ev := RoomClosed{Header: header("roomClosed"), Reason: reason, NewCode: newCode}

	r.notify(r.hostID, ev)
	for _, p := range r.roster.Players() {
		r.notify(p.ID, ev)
	}

	if r.game != nil {
		r.game.Stop()
	}
	r.lock.Cancel()

	for id := range r.removals {
		r.cancelRemoval(id)
	}

	r.closed = true
}

func (r *room) notify(clientID string, ev Event) {
	r.reg.notifier.Notify(clientID, ev)
}

func (r *room) toDisplay(ev Event) {
	r.notify(r.hostID, ev)
}

// broadcast sends ev to the display and every connected player.
func (r *room) broadcast(ev Event) {
	r.toDisplay(ev)

	for _, p := range r.roster.Connected() {
		r.notify(p.ID, ev)
	}
}

// sendState fans out the public view to the display and a private view to
// each connected player. Players who joined after the deal get the public
// view.
func (r *room) sendState() {
	if r.game == nil {
		return
	}

	r.toDisplay(GameStateUpdated{Header: header("gameStateUpdated"), View: r.game.Public()})

	for _, p := range r.roster.Connected() {
		view, err := r.game.Private(p.ID)
		if err != nil {
			view = r.game.Public()
		}

		r.notify(p.ID, GameStateUpdated{Header: header("gameStateUpdated"), View: view})
	}
}

func (r *room) lobby() []LobbyPlayer {
	players := r.roster.Players()

	out := make([]LobbyPlayer, 0, len(players))
	for _, p := range players {
		out = append(out, LobbyPlayer{
			Name:          p.Name,
			Color:         p.Color,
			IsFirstPlayer: p.FirstPlayer,
			Connected:     p.Connected,
		})
	}

	return out
}

func (r *room) snapshot() RoomSnapshot {
	return RoomSnapshot{
		Code:    r.code,
		Mode:    r.mode,
		Phase:   r.phase(),
		Players: r.lobby(),
	}
}

func (r *room) phase() string {
	if r.game == nil {
		return "lobby"
	}

	return r.game.Phase()
}

func (r *room) inGame() bool {
	return r.game != nil && !r.game.Over()
}

func (r *room) isHost(clientID string) bool {
	return clientID == r.hostID
}

func (r *room) isMember(clientID string) bool {
	_, ok := r.roster.Get(clientID)

	return ok
}

// canControl reports whether clientID may start, restart or advance the
// game: the display or the first player.
func (r *room) canControl(clientID string) bool {
	return r.isHost(clientID) || r.roster.IsFirstPlayer(clientID)
}

func (r *room) name(clientID string) string {
	if p, ok := r.roster.Get(clientID); ok {
		return p.Name
	}

	return ""
}
