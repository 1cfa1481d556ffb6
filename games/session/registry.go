/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package session owns the rooms: creation, membership, teardown and idle
// cleanup. Each room serializes its own state on a private goroutine and
// drives whichever game mode it was started in.
package session

import (
	"context"
	crand "crypto/rand"
	"errors"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Seednode/partydeck/games/animlock"
	"github.com/Seednode/partydeck/games/cards"
	"github.com/Seednode/partydeck/games/eights"
	"github.com/Seednode/partydeck/games/overunder"
)

const (
	// CodeAlphabet leaves out I and O so codes read cleanly off a TV.
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	CodeLength   = 4

	codeAttempts = 64
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomClosed     = errors.New("room is closed")
	ErrNoCodes        = errors.New("could not allocate a room code")
	ErrNotInRoom      = errors.New("you are not in this room")
	ErrNotHost        = errors.New("only the display can do that")
	ErrNotAllowed     = errors.New("only the display or the first player can do that")
	ErrHostIsDisplay  = errors.New("the display cannot join its own room as a player")
	ErrGameInProgress = errors.New("a game is already in progress")
	ErrNoGame         = errors.New("no game has been started")
	ErrLocked         = errors.New("please wait for the animation to finish")
	ErrTooFewPlayers  = errors.New("at least two connected players are needed")
	ErrWrongMode      = errors.New("that action does not apply to this game mode")
	ErrUnknownMode    = errors.New("unknown game mode")
)

// Options configures a Registry. Zero values pick the defaults.
type Options struct {
	Notifier  Notifier
	Logger    zerolog.Logger
	Scheduler animlock.Scheduler
	Now       func() time.Time
	NewCode   func() (string, error)
	NewRand   func() *rand.Rand

	// Eights, when set, supplies the engine options for each new card
	// game. OnWinnerDetected is always overridden.
	Eights func() eights.Options

	IdleTimeout    time.Duration
	PlayerTimeout  time.Duration
	AnimationGrace time.Duration
	VoteWindow     time.Duration
	ResultsDelay   time.Duration
	Rounds         int
	Prompts        []overunder.Prompt
}

const (
	DefaultAnimationGrace = 3 * time.Second
	DefaultVoteWindow     = 30 * time.Second
	DefaultResultsDelay   = 8 * time.Second
)

// Registry maps room codes to rooms.
type Registry struct {
	opts     Options
	log      zerolog.Logger
	notifier Notifier
	sched    animlock.Scheduler
	now      func() time.Time

	mu      sync.Mutex
	rooms   map[string]*room
	hosts   map[string]string
	members map[string]string
}

// DisconnectResult says what a lost connection did.
type DisconnectResult struct {
	// Closed is the code of the room torn down because its display left.
	Closed string

	// Room and Player are set when a player was marked disconnected.
	Room   string
	Player string
}

func New(opts Options) *Registry {
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(string, Event) {})
	}
	if opts.Scheduler == nil {
		opts.Scheduler = animlock.Realtime
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewCode == nil {
		opts.NewCode = GenerateCode
	}
	if opts.NewRand == nil {
		opts.NewRand = cards.NewRand
	}
	if opts.AnimationGrace <= 0 {
		opts.AnimationGrace = DefaultAnimationGrace
	}
	if opts.VoteWindow <= 0 {
		opts.VoteWindow = DefaultVoteWindow
	}
	if opts.ResultsDelay <= 0 {
		opts.ResultsDelay = DefaultResultsDelay
	}
	if opts.Rounds <= 0 {
		opts.Rounds = overunder.DefaultRounds
	}

	return &Registry{
		opts:     opts,
		log:      opts.Logger,
		notifier: opts.Notifier,
		sched:    opts.Scheduler,
		now:      opts.Now,
		rooms:    make(map[string]*room),
		hosts:    make(map[string]string),
		members:  make(map[string]string),
	}
}

// GenerateCode returns a random room code drawn from CodeAlphabet.
func GenerateCode() (string, error) {
	// Largest multiple of the alphabet size that fits in a byte, so every
	// letter is equally likely.
	const limit = 256 - 256%len(CodeAlphabet)

	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)

	for len(out) < CodeLength {
		if _, err := crand.Read(buf); err != nil {
			return "", err
		}

		for _, b := range buf {
			if int(b) >= limit || len(out) == CodeLength {
				continue
			}
			out = append(out, CodeAlphabet[int(b)%len(CodeAlphabet)])
		}
	}

	return string(out), nil
}

// CreateRoom opens a room hosted by the display hostID. A display that
// already hosts a room has that room closed first.
func (reg *Registry) CreateRoom(hostID string) (string, error) {
	reg.mu.Lock()
	previous, hadPrevious := reg.hosts[hostID]
	r, err := reg.createLocked(hostID)
	reg.mu.Unlock()

	if err != nil {
		return "", err
	}

	if hadPrevious {
		reg.closeRoom(previous, "replaced", r.code)
	}

	reg.log.Info().Str("room", r.code).Msg("room created")
	reg.notifier.Notify(hostID, RoomCreated{Header: header("roomCreated"), Code: r.code})

	return r.code, nil
}

func (reg *Registry) createLocked(hostID string) (*room, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := reg.opts.NewCode()
		if err != nil {
			return nil, err
		}

		if _, exists := reg.rooms[code]; exists {
			continue
		}

		r := newRoom(reg, code, hostID)
		reg.rooms[code] = r
		reg.hosts[hostID] = code

		return r, nil
	}

	return nil, ErrNoCodes
}

// JoinRoom seats clientID in the room with the given code, or reconnects
// them if they already hold a seat there. The outcome is also sent to the
// client as a joinResult.
func (reg *Registry) JoinRoom(code, clientID, name string) (JoinResult, error) {
	code = NormalizeCode(code)

	res, err := reg.join(code, clientID, name)
	if err != nil {
		reg.log.Debug().Err(err).Str("room", code).Msg("join rejected")

		res = JoinResult{Header: header("joinResult"), Message: err.Error(), Code: code}
		reg.notifier.Notify(clientID, res)

		return res, err
	}

	return res, nil
}

func (reg *Registry) join(code, clientID, name string) (JoinResult, error) {
	r, err := reg.lookup(code)
	if err != nil {
		return JoinResult{}, err
	}

	reg.mu.Lock()
	previous, member := reg.members[clientID]
	reg.mu.Unlock()

	if member && previous != code {
		if old, err := reg.lookup(previous); err == nil {
			_ = old.do(func() error {
				_, err := old.disconnect(clientID)
				return err
			})
		}
	}

	var res JoinResult
	err = r.do(func() error {
		var err error
		res, err = r.join(clientID, name)
		return err
	})

	return res, err
}

// Dispatch routes an action from clientID. Room-scoped actions find their
// room by code, or by the sender's membership when no code is given.
// Every rejection is also reported to the sender.
func (reg *Registry) Dispatch(clientID string, a Action) error {
	var err error

	switch a.Type {
	case KindJoinRoom:
		_, err = reg.JoinRoom(a.Code, clientID, a.Name)

		return err
	case KindCreateRoom:
		_, err = reg.CreateRoom(clientID)
	case KindRequestNewRoom:
		_, err = reg.RequestNewRoom(clientID, a.Code)
	default:
		var r *room
		if r, err = reg.resolve(clientID, a.Code); err == nil {
			err = r.do(func() error {
				return r.handle(clientID, a)
			})
		}
	}

	if err != nil {
		reg.Reject(clientID, a.Type, err)
	}

	return err
}

// Reject tells clientID that an action failed.
func (reg *Registry) Reject(clientID string, kind Kind, err error) {
	reg.log.Debug().Err(err).Str("client", clientID).Str("action", string(kind)).Msg("action rejected")
	reg.notifier.Notify(clientID, RoomError{Header: header("roomError"), Message: err.Error(), Action: kind})
}

// HandleDisconnect reacts to a lost connection. A departing display closes
// its room; a departing player keeps their seat and is marked disconnected.
func (reg *Registry) HandleDisconnect(clientID string) DisconnectResult {
	reg.mu.Lock()
	hosted, isHost := reg.hosts[clientID]
	joined, isMember := reg.members[clientID]
	reg.mu.Unlock()

	var res DisconnectResult

	if isHost && reg.closeRoom(hosted, "host disconnected", "") {
		res.Closed = hosted
	}

	if isMember {
		if r, err := reg.lookup(joined); err == nil {
			_ = r.do(func() error {
				name, err := r.disconnect(clientID)
				res.Room, res.Player = joined, name
				return err
			})
		}
	}

	return res
}

// RequestNewRoom closes the display's room and opens a fresh one. Players
// of the old room are told the new code.
func (reg *Registry) RequestNewRoom(clientID, code string) (string, error) {
	code = NormalizeCode(code)

	reg.mu.Lock()
	if code == "" {
		code = reg.hosts[clientID]
	}

	old, ok := reg.rooms[code]
	if !ok {
		reg.mu.Unlock()
		return "", ErrRoomNotFound
	}
	if old.hostID != clientID {
		reg.mu.Unlock()
		return "", ErrNotHost
	}

	r, err := reg.createLocked(clientID)
	reg.mu.Unlock()

	if err != nil {
		return "", err
	}

	reg.closeRoom(code, "new room", r.code)

	reg.log.Info().Str("room", r.code).Str("previous", code).Msg("room replaced")
	reg.notifier.Notify(clientID, NewRoom{Header: header("newRoom"), NewCode: r.code})
	reg.notifier.Notify(clientID, RoomCreated{Header: header("roomCreated"), Code: r.code})

	return r.code, nil
}

// RemoveIdleRooms closes every room with no activity for threshold and
// returns their codes.
func (reg *Registry) RemoveIdleRooms(threshold time.Duration) []string {
	cutoff := reg.now().Add(-threshold)

	reg.mu.Lock()
	var idle []string
	for code, r := range reg.rooms {
		if r.lastActive().Before(cutoff) {
			idle = append(idle, code)
		}
	}
	reg.mu.Unlock()

	sort.Strings(idle)

	for _, code := range idle {
		reg.closeRoom(code, "idle", "")
	}

	return idle
}

// Run reaps idle rooms until ctx is done, then closes every room.
func (reg *Registry) Run(ctx context.Context) {
	defer reg.CloseAll("server shutting down")

	idle := reg.opts.IdleTimeout
	if idle <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := reg.RemoveIdleRooms(idle); len(removed) > 0 {
				reg.log.Info().Strs("rooms", removed).Msg("idle rooms removed")
			}
		}
	}
}

// CloseAll closes every room with the given reason.
func (reg *Registry) CloseAll(reason string) {
	reg.mu.Lock()
	codes := make([]string, 0, len(reg.rooms))
	for code := range reg.rooms {
		codes = append(codes, code)
	}
	reg.mu.Unlock()

	for _, code := range codes {
		reg.closeRoom(code, reason, "")
	}
}

// Exists reports whether a room with this code is open.
func (reg *Registry) Exists(code string) bool {
	_, err := reg.lookup(NormalizeCode(code))

	return err == nil
}

// Stats is a point-in-time count for the status page.
type Stats struct {
	Rooms   int `json:"rooms"`
	Players int `json:"players"`
	Games   int `json:"games"`
}

func (reg *Registry) Stats() Stats {
	reg.mu.Lock()
	rooms := make([]*room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.Unlock()

	s := Stats{Rooms: len(rooms)}
	for _, r := range rooms {
		_ = r.do(func() error {
			s.Players += len(r.roster.Connected())
			if r.inGame() {
				s.Games++
			}
			return nil
		})
	}

	return s
}

func (reg *Registry) closeRoom(code, reason, newCode string) bool {
	reg.mu.Lock()
	r, ok := reg.rooms[code]
	if !ok {
		reg.mu.Unlock()
		return false
	}

	delete(reg.rooms, code)
	if reg.hosts[r.hostID] == code {
		delete(reg.hosts, r.hostID)
	}
	for id, c := range reg.members {
		if c == code {
			delete(reg.members, id)
		}
	}
	reg.mu.Unlock()

	_ = r.do(func() error {
		r.shutdown(reason, newCode)
		return nil
	})

	reg.log.Info().Str("room", code).Str("reason", reason).Msg("room closed")

	return true
}

func (reg *Registry) lookup(code string) (*room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}

	return r, nil
}

func (reg *Registry) resolve(clientID, code string) (*room, error) {
	if code != "" {
		return reg.lookup(NormalizeCode(code))
	}

	reg.mu.Lock()
	code, ok := reg.hosts[clientID]
	if !ok {
		code, ok = reg.members[clientID]
	}
	reg.mu.Unlock()

	if !ok {
		return nil, ErrRoomNotFound
	}

	return reg.lookup(code)
}

// remember records clientID as a player of r, unless r was closed in the
// meantime.
func (reg *Registry) remember(clientID string, r *room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.rooms[r.code] == r {
		reg.members[clientID] = r.code
	}
}

func (reg *Registry) forget(clientID string, r *room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.members[clientID] == r.code {
		delete(reg.members, clientID)
	}
}
