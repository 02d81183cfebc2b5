package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/seqlock/internal/config"
	"github.com/roach88/seqlock/internal/engine"
	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/lock"
	"github.com/roach88/seqlock/internal/store"
)

// loadLock resolves the lock a command drives. With no config directory
// the built-in reference lock is used.
func loadLock(configDir, name string) (config.Lock, error) {
	if configDir == "" {
		def := config.Default()
		if name != "" && name != def.Name {
			return config.Lock{}, &config.LoadError{
				Code:    config.ErrCodeUnknownLock,
				Message: fmt.Sprintf("lock %q not defined (no config directory given)", name),
			}
		}
		return def, nil
	}

	locks, err := config.LoadDir(configDir)
	if err != nil {
		return config.Lock{}, err
	}
	return config.Select(locks, name)
}

// lockLoadError reports a config failure through the formatter and maps
// it to a command error.
func lockLoadError(f *OutputFormatter, err error) error {
	return f.CommandError(config.Code(err), "failed to load lock", err)
}

// openExistingStore opens a cycle log that must already exist. Opening a
// missing path would silently create an empty database.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
		}
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// lockSession is a lock opened by run or feed. When a database is given,
// every edge is recorded under a fresh session.
type lockSession struct {
	lock    *lock.Lock
	store   *store.Store
	session ir.Session
	logger  *slog.Logger
}

// openLockSession builds the lock for cfg. dbPath may be empty, in which
// case nothing is recorded and the session has no ID.
func openLockSession(ctx context.Context, cfg config.Lock, dbPath string, gen engine.SessionGenerator, logger *slog.Logger) (*lockSession, error) {
	if dbPath == "" {
		l, err := lock.New(cfg, lock.WithLogger(logger))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid lock", err)
		}
		return &lockSession{lock: l, logger: logger}, nil
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	if gen == nil {
		gen = engine.UUIDv7Generator{}
	}
	id := gen.Generate()

	l, err := lock.New(cfg,
		lock.WithRecorder(st),
		lock.WithSession(id),
		lock.WithLogger(logger),
	)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "invalid lock", err)
	}

	sess, err := st.CreateSession(ctx, ir.Session{
		ID:        id,
		LockName:  l.Name(),
		TableHash: l.TableHash(),
		Length:    l.Len(),
	})
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create session", err)
	}

	logger.Info("session opened",
		"session", sess.ID,
		"lock", sess.LockName,
		"db", dbPath)
	return &lockSession{lock: l, store: st, session: sess, logger: logger}, nil
}

// ID returns the session ID, or "" when not recording.
func (s *lockSession) ID() string {
	return s.session.ID
}

// Close closes the database, if any.
func (s *lockSession) Close() error {
	if s.store == nil {
		return nil
	}
	s.logger.Info("session closed", "session", s.session.ID, "cycles", s.lock.Seq())
	return s.store.Close()
}
