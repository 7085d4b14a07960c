package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/skillpulse/internal/alarms"
	"github.com/julianstephens/skillpulse/internal/backup"
	"github.com/julianstephens/skillpulse/internal/config"
	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/engine"
	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/httpapi"
	"github.com/julianstephens/skillpulse/internal/keyring"
	"github.com/julianstephens/skillpulse/internal/logger"
	"github.com/julianstephens/skillpulse/internal/models"
	"github.com/julianstephens/skillpulse/internal/notifier"
	"github.com/julianstephens/skillpulse/internal/scheduler"
	"github.com/julianstephens/skillpulse/internal/storage"
	"github.com/julianstephens/skillpulse/internal/storage/memory"
	"github.com/julianstephens/skillpulse/internal/storage/postgres"
	"github.com/julianstephens/skillpulse/internal/storage/redis"
	"github.com/julianstephens/skillpulse/internal/storage/sqlite"
)

// Context is shared by every command. The store and processor are opened on
// first use.
type Context struct {
	Config *config.Config
	Loader *config.Loader
	// Local skips the daemon even when one is running.
	Local bool
	Out   io.Writer
	In    io.Reader

	store  storage.Provider
	proc   *engine.Processor
	caller engine.Caller
	clock  func() time.Time
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) in() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

func (c *Context) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	c.println(string(b))
	return nil
}

// OpenStore builds the configured provider without connecting.
func OpenStore(cfg *config.Config) (storage.Provider, error) {
	switch cfg.Storage.Backend {
	case constants.BackendSQLite:
		return sqlite.NewStore(cfg.Storage.Path), nil

	case constants.BackendPostgres:
		dsn, fromKeyring, err := resolveDSN(cfg)
		if err != nil {
			return nil, err
		}
		if _, err := postgres.ValidateConnString(dsn); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, err
			}
			if !fromKeyring {
				return nil, fmt.Errorf("%w; store the password in .pgpass, PGPASSWORD or the OS keyring", err)
			}
		}
		return postgres.New(dsn), nil

	case constants.BackendRedis:
		dsn, _, err := resolveDSN(cfg)
		if err != nil {
			return nil, err
		}
		return redis.New(dsn, cfg.Storage.Namespace), nil

	case constants.BackendMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// resolveDSN prefers the configured DSN and falls back to the keyring.
func resolveDSN(cfg *config.Config) (dsn string, fromKeyring bool, err error) {
	if cfg.Storage.DSN != "" {
		return cfg.Storage.DSN, false, nil
	}
	dsn, err = keyring.GetDSN(cfg.Storage.Backend)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, fmt.Errorf("no %s connection string configured; run '%s keyring set --backend %s <dsn>' or set %s_STORAGE_DSN",
			cfg.Storage.Backend, constants.AppName, cfg.Storage.Backend, constants.EnvPrefix)
	}
	return dsn, err == nil, err
}

// Store returns the loaded provider.
func (c *Context) Store() (storage.Provider, error) {
	if c.store != nil {
		return c.store, nil
	}
	store, err := OpenStore(c.Config)
	if err != nil {
		return nil, err
	}
	if err := store.Load(); err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}

// Repository wraps the loaded provider.
func (c *Context) Repository() (*storage.Repository, error) {
	store, err := c.Store()
	if err != nil {
		return nil, err
	}
	return storage.NewRepository(store), nil
}

// ProcessorOptions are the options every processor built from this config
// shares. The daemon adds its own alarms, badge and events on top.
func (c *Context) ProcessorOptions() []engine.Option {
	var opts []engine.Option
	if c.clock != nil {
		opts = append(opts, engine.WithClock(c.clock))
	}
	if c.Config.Notifications.Enabled {
		opts = append(opts, engine.WithNotifier(notifier.New()))
	}
	if c.Config.Backup.OnReset && c.Config.Storage.Backend == constants.BackendSQLite {
		opts = append(opts, engine.WithResetHook(backup.NewManager(c.Config.Storage.Path).BeforeReset))
	}
	return opts
}

// Processor builds an in-process processor. Its alarms live only as long as
// the command; the daemon re-arms persisted timers when it starts.
func (c *Context) Processor() (*engine.Processor, error) {
	if c.proc != nil {
		return c.proc, nil
	}
	repo, err := c.Repository()
	if err != nil {
		return nil, err
	}
	loc, err := c.Config.Location()
	if err != nil {
		return nil, err
	}
	opts := append(c.ProcessorOptions(), engine.WithAlarms(alarms.NewManager(nil)))
	c.proc = engine.NewProcessor(repo, loc, opts...)
	return c.proc, nil
}

// Caller routes commands to a running daemon so its alarms see every change,
// and to an in-process processor otherwise. The in-process path clears
// counters left over from an earlier day first.
func (c *Context) Caller(ctx context.Context) (engine.Caller, error) {
	if c.caller != nil {
		return c.caller, nil
	}
	if !c.Local && c.Config.Storage.Backend != constants.BackendMemory {
		client := httpapi.NewClient(c.Config.Server.Addr)
		if err := client.Ping(ctx); err == nil {
			logger.Debug("Using daemon", "addr", c.Config.Server.Addr)
			c.caller = client
			return client, nil
		}
	}
	proc, err := c.Processor()
	if err != nil {
		return nil, err
	}
	// No daemon alarm cleared yesterday's counters if nothing was running.
	if _, err := scheduler.New(proc).CatchUpReset(ctx); err != nil {
		logger.Warn("Catch-up reset failed", "error", err)
	}
	c.caller = proc
	return proc, nil
}

// Close releases the store.
func (c *Context) Close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	c.proc = nil
	c.caller = nil
	return err
}

// call runs one command through the caller.
func (c *Context) call(cmdType string, payload, out any) error {
	ctx := context.Background()
	caller, err := c.Caller(ctx)
	if err != nil {
		return err
	}
	return caller.Call(ctx, cmdType, payload, out)
}

// state fetches the full read model.
func (c *Context) state() (models.State, error) {
	var st models.State
	err := c.call(engine.CmdGetState, nil, &st)
	return st, err
}

// resolveSkill accepts a skill id, an exact name or a unique
// case-insensitive name prefix.
func (c *Context) resolveSkill(ref string) (models.EnrichedSkill, error) {
	st, err := c.state()
	if err != nil {
		return models.EnrichedSkill{}, err
	}
	return matchSkill(st.Skills, ref)
}

func matchSkill(skills []models.EnrichedSkill, ref string) (models.EnrichedSkill, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.EnrichedSkill{}, perrors.Validation("Skill ID is required")
	}
	for _, s := range skills {
		if s.ID == ref || strings.EqualFold(s.Name, ref) {
			return s, nil
		}
	}

	var found []models.EnrichedSkill
	lower := strings.ToLower(ref)
	for _, s := range skills {
		if strings.HasPrefix(strings.ToLower(s.Name), lower) {
			found = append(found, s)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return models.EnrichedSkill{}, perrors.NotFound("Skill not found")
	}
	names := make([]string, len(found))
	for i, s := range found {
		names[i] = s.Name
	}
	return models.EnrichedSkill{}, perrors.Validation("%q matches several skills: %s", ref, strings.Join(names, ", "))
}

// confirm asks a yes/no question on In. Anything but y/yes is no.
func (c *Context) confirm(question string) (bool, error) {
	c.printf("%s [y/N]: ", question)
	answer, err := bufio.NewReader(c.in()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
