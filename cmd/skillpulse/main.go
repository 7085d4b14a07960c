package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/skillpulse/internal/cli"
	"github.com/julianstephens/skillpulse/internal/config"
	"github.com/julianstephens/skillpulse/internal/constants"
	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/logger"
)

var CLI struct {
	Version   kong.VersionFlag
	ConfigDir string `help:"Directory holding config.yaml, the database, logs and backups." type:"path" default:"~/.config/skillpulse"`
	Config    string `help:"Config file path. Overrides --config-dir for the config file only." type:"path"`
	Debug     bool   `help:"Enable debug logging."`
	Local     bool   `help:"Run commands in-process even when the daemon is running."`

	Init         cli.InitCmd         `cmd:"" help:"Initialize storage and create an empty profile."`
	Tui          cli.TuiCmd          `cmd:"" help:"Launch the interactive dashboard." default:"1"`
	State        cli.StateCmd        `cmd:"" help:"Show your growth summary and skills."`
	Achievements cli.AchievementsCmd `cmd:"" help:"Show today's achievements."`
	Check        cli.SkillCheckCmd   `cmd:"" help:"Check in on a skill."`
	Skill        struct {
		Add    cli.SkillAddCmd    `cmd:"" help:"Add a new skill."`
		Check  cli.SkillCheckCmd  `cmd:"" help:"Check in on a skill."`
		Edit   cli.SkillEditCmd   `cmd:"" help:"Edit a skill."`
		Delete cli.SkillDeleteCmd `cmd:"" help:"Delete a skill and its history."`
		List   cli.SkillListCmd   `cmd:"" help:"List all skills." default:"1"`
	} `cmd:"" help:"Manage skills."`
	Timer struct {
		Start  cli.TimerStartCmd  `cmd:"" help:"Start a focus session."`
		Pause  cli.TimerPauseCmd  `cmd:"" help:"Pause the focus session."`
		Resume cli.TimerResumeCmd `cmd:"" help:"Resume a paused session."`
		Finish cli.TimerFinishCmd `cmd:"" help:"Finish the session now and check in."`
		Cancel cli.TimerCancelCmd `cmd:"" help:"Cancel the session without checking in."`
		Stop   cli.TimerStopCmd   `cmd:"" help:"Stop the session without checking in."`
		Status cli.TimerStatusCmd `cmd:"" help:"Show the focus session." default:"1"`
	} `cmd:"" help:"Run focus sessions."`
	Name     cli.NameCmd     `cmd:"" help:"Set your display name."`
	Reset    cli.ResetCmd    `cmd:"" help:"Erase all skills, history and your profile."`
	Serve    cli.ServeCmd    `cmd:"" help:"Run the background daemon and HTTP API."`
	Doctor   cli.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Validate cli.ValidateCmd `cmd:"" help:"Check stored data for inconsistencies."`
	Inspect  cli.DebugCmd    `cmd:"" help:"Inspect stored data for troubleshooting."`
	Backup   struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage sqlite backups."`
	Settings struct {
		List cli.ConfigListCmd `cmd:"" help:"Show effective settings." default:"1"`
		Set  cli.ConfigSetCmd  `cmd:"" help:"Change a setting in config.yaml."`
	} `cmd:"" help:"Manage settings."`
	Keyring struct {
		Set    cli.KeyringSetCmd    `cmd:"" help:"Store a connection string in the OS keyring."`
		Get    cli.KeyringGetCmd    `cmd:"" help:"Show the stored connection string, masked."`
		Delete cli.KeyringDeleteCmd `cmd:"" help:"Remove a stored connection string."`
		Status cli.KeyringStatusCmd `cmd:"" help:"Check whether the OS keyring is usable." default:"1"`
	} `cmd:"" help:"Manage connection strings in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Track skills, build momentum and run focus sessions."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	isServe := ctx.Command() == "serve"
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: CLI.ConfigDir, Stderr: isServe}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	loader := config.NewLoader(CLI.ConfigDir, CLI.Config)
	cfg, err := loader.Load()
	if err != nil {
		perrors.Fatal(err)
	}
	if cfg.Debug && !CLI.Debug {
		logger.SetDebug(true)
	}

	appCtx := &cli.Context{
		Config: cfg,
		Loader: loader,
		Local:  CLI.Local,
	}

	err = ctx.Run(appCtx)
	if cerr := appCtx.Close(); cerr != nil {
		logger.Warn("Failed to close store", "error", cerr)
	}
	if err != nil {
		if perrors.Guidance(err) {
			fmt.Fprintln(os.Stderr, perrors.Format(err))
			os.Exit(3)
		}
		perrors.Fatal(err)
	}
}
