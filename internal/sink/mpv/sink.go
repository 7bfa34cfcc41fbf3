// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package mpv drives an mpv process through its JSON IPC socket and exposes
// it as a media sink.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"os/exec"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/log"
	"github.com/ManuGH/acmplay/internal/procgroup"
	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

var ErrClosed = errors.New("mpv connection closed")

const quitGrace = 2 * time.Second

// Config describes how to reach mpv.
type Config struct {
	Binary string
	Socket string
	// Spawn starts mpv with an IPC server on Socket. Otherwise Socket must
	// belong to a running instance.
	Spawn bool
	Args  []string

	NativeHLS   bool
	NativeTypes []string

	CommandTimeout time.Duration
	DialAttempts   uint
}

func (c Config) withDefaults() Config {
	if c.Binary == "" {
		c.Binary = "mpv"
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 5 * time.Second
	}
	if c.DialAttempts == 0 {
		c.DialAttempts = 25
	}
	return c
}

// Sink implements ports.Sink, ports.NativeAudioTracks and
// ports.AudioSourceSetter on top of one mpv IPC connection.
type Sink struct {
	cfg    Config
	logger zerolog.Logger
	proc   *exec.Cmd

	conn    net.Conn
	writeMu sync.Mutex
	nextReq atomic.Int64

	mu       sync.Mutex
	pending  map[int64]chan reply
	handlers map[uint64]ports.MediaHandler
	nextSub  uint64
	closed   bool

	source   string
	position float64
	duration float64
	paused   bool
	loaded   bool
	tracks   []track

	events    chan ports.MediaEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        conc.WaitGroup
}

// Dial connects to mpv, spawning it first when cfg.Spawn is set.
func Dial(ctx context.Context, cfg Config) (*Sink, error) {
	cfg = cfg.withDefaults()
	if cfg.Socket == "" {
		return nil, errors.New("mpv: socket path required")
	}
	logger := log.WithComponent("mpv")

	var proc *exec.Cmd
	if cfg.Spawn {
		_ = os.Remove(cfg.Socket)
		args := append([]string{
			"--idle=yes",
			"--no-terminal",
			"--input-ipc-server=" + cfg.Socket,
		}, cfg.Args...)
		proc = exec.Command(cfg.Binary, args...)
		procgroup.Set(proc)
		if err := proc.Start(); err != nil {
			return nil, fmt.Errorf("start mpv: %w", err)
		}
		logger.Info().Str(log.FieldEvent, "mpv.spawned").Int("pid", proc.Process.Pid).Str(log.FieldPath, cfg.Socket).Msg("mpv started")
	}

	conn, err := retry.DoWithData(
		func() (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", cfg.Socket)
		},
		retry.Context(ctx),
		retry.Attempts(cfg.DialAttempts),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if proc != nil {
			_ = procgroup.Kill(proc, syscall.SIGKILL)
			_ = proc.Wait()
		}
		return nil, fmt.Errorf("dial mpv ipc %s: %w", cfg.Socket, err)
	}

	s := newSink(cfg, conn, proc, logger)
	for _, p := range observed {
		if _, err := s.command(ctx, "observe_property", p.id, p.name); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("observe %s: %w", p.name, err)
		}
	}
	return s, nil
}

func newSink(cfg Config, conn net.Conn, proc *exec.Cmd, logger zerolog.Logger) *Sink {
	s := &Sink{
		cfg:      cfg,
		logger:   logger,
		proc:     proc,
		conn:     conn,
		pending:  make(map[int64]chan reply),
		handlers: make(map[uint64]ports.MediaHandler),
		duration: math.NaN(),
		paused:   true,
		events:   make(chan ports.MediaEvent, 256),
		done:     make(chan struct{}),
	}
	s.wg.Go(s.readLoop)
	s.wg.Go(s.dispatchLoop)
	return s
}

// Close quits a spawned mpv and releases the connection.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		if s.proc != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			_, _ = s.command(ctx, "quit")
			cancel()
		}
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		_ = s.conn.Close()
		close(s.done)
		s.wg.Wait()
		if s.proc != nil {
			waitCh := make(chan error, 1)
			go func() { waitCh <- s.proc.Wait() }()
			// mpv normally exits on quit; stop its group if it lingers.
			select {
			case <-waitCh:
			case <-time.After(quitGrace):
				if err := procgroup.Terminate(s.proc, waitCh, quitGrace); err != nil {
					s.logger.Warn().Err(err).Str(log.FieldEvent, "mpv.terminated").Msg("mpv did not quit cleanly")
				}
			}
		}
		s.logger.Info().Str(log.FieldEvent, "mpv.closed").Msg("mpv sink closed")
	})
	return nil
}

func (s *Sink) command(ctx context.Context, args ...any) (json.RawMessage, error) {
	id := s.nextReq.Add(1)
	ch := make(chan reply, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.pending[id] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	line, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("encode mpv command: %w", err)
	}
	line = append(line, '\n')

	s.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
	}
	_, err = s.conn.Write(line)
	s.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write mpv command: %w", err)
	}

	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	}
}

// do runs a command with the configured timeout.
func (s *Sink) do(args ...any) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CommandTimeout)
	defer cancel()
	_, err := s.command(ctx, args...)
	if err != nil {
		return fmt.Errorf("mpv %v: %w", args[0], err)
	}
	return nil
}

func (s *Sink) readLoop() {
	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 64*1024), 4<<20)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			s.logger.Debug().Err(err).Str(log.FieldEvent, "mpv.decode_failed").Msg("ignoring malformed ipc line")
			continue
		}
		if msg.isReply() {
			s.mu.Lock()
			ch := s.pending[*msg.RequestID]
			s.mu.Unlock()
			if ch != nil {
				ch <- msg.result()
			}
			continue
		}
		s.handleEvent(msg)
	}

	s.mu.Lock()
	wasClosed := s.closed
	s.closed = true
	s.mu.Unlock()
	if !wasClosed {
		s.logger.Warn().Err(scanner.Err()).Str(log.FieldEvent, "mpv.disconnected").Msg("mpv ipc connection lost")
		s.enqueue(ports.MediaEvent{Kind: ports.MediaError, Message: "mpv ipc connection lost"})
	}
}

func (s *Sink) dispatchLoop() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.mu.Lock()
			ids := make([]uint64, 0, len(s.handlers))
			for id := range s.handlers {
				ids = append(ids, id)
			}
			slices.Sort(ids)
			hs := make([]ports.MediaHandler, 0, len(ids))
			for _, id := range ids {
				hs = append(hs, s.handlers[id])
			}
			s.mu.Unlock()
			for _, h := range hs {
				h(ev)
			}
		}
	}
}

func (s *Sink) enqueue(ev ports.MediaEvent) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}
