package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/studioportal/internal/buildinfo"
	"github.com/dmitrijs2005/studioportal/internal/client/config"
	"github.com/spf13/cobra"
)

// newApp is a test seam for NewApp.
var newApp = NewApp

// Execute runs the portal CLI with args (without the program name).
func Execute(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	r := &root{in: in, out: out}
	cmd := r.command()
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)

	err := cmd.ExecuteContext(ctx)
	if r.app != nil {
		err = errors.Join(err, r.app.Close())
	}
	return err
}

type root struct {
	in  io.Reader
	out io.Writer
	app *App
}

// configArgs turns the persistent flags set on the command line into the
// short-flag form config.LoadConfig layers over the file and environment.
func configArgs(cmd *cobra.Command) []string {
	var args []string
	for _, f := range []struct{ name, short string }{
		{"config", "-c"},
		{"server", "-a"},
		{"state", "-f"},
		{"timeout", "-t"},
		{"log-level", "-l"},
	} {
		if fl := cmd.Flags().Lookup(f.name); fl != nil && fl.Changed {
			args = append(args, f.short, fl.Value.String())
		}
	}
	return args
}

func (r *root) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configArgs(cmd))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	r.app, err = newApp(cmd.Context(), cfg, r.in, r.out)
	if err != nil {
		return err
	}
	return r.app.Start(cmd.Context())
}

func (r *root) repl(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a := r.app

	a.printf("Welcome to the studio portal CLI (type 'help' for commands)\n")
	if s, err := a.awaitSession(ctx); err != nil {
		a.log.Warn(ctx, "session check failed", "error", err)
	} else if s != nil {
		a.follow(ctx, s)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (r *root) command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "portal",
		Short: "Terminal client of the studio portal",
		Long: `portal signs you in to the studio portal and opens its pages from the
terminal. Without a subcommand it starts an interactive shell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          r.repl,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "JSON config file")
	pf.StringP("server", "a", "", "portal server URL")
	pf.StringP("state", "f", "", "local state file")
	pf.IntP("timeout", "t", 0, "request timeout in seconds")
	pf.StringP("log-level", "l", "", "log level (debug, info, warn, error)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// No App needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}

	withApp := []*cobra.Command{
		{
			Use:   "repl",
			Short: "Start the interactive shell",
			Args:  cobra.NoArgs,
			RunE:  r.repl,
		},
		{
			Use:   "login",
			Short: "Sign in with email and password",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return r.app.Login(cmd.Context())
			},
		},
		{
			Use:   "signup",
			Short: "Create an account",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return r.app.SignUp(cmd.Context())
			},
		},
		{
			Use:   "logout",
			Short: "Sign out and forget local credentials",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return r.app.Logout(cmd.Context())
			},
		},
		{
			Use:   "whoami",
			Short: "Show the current session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return r.app.WhoAmI(cmd.Context())
			},
		},
		{
			Use:   "open <path>",
			Short: "Open a portal page and show the layout it resolves to",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return r.app.Open(cmd.Context(), args[0])
			},
		},
		{
			Use:   "teams",
			Short: "List your teams",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return r.app.Teams(cmd.Context())
			},
		},
		{
			Use:   "chat <team>",
			Short: "Read and post team messages",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return r.app.Chat(cmd.Context(), args[0])
			},
		},
		{
			Use:   "welcome",
			Short: "Dismiss the welcome card",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return r.app.DismissWelcome(cmd.Context())
			},
		},
	}

	skillsCmd := &cobra.Command{
		Use:   "skills",
		Short: "List skills, marking yours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Skills(cmd.Context())
		},
	}
	skillsCmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Add or remove one of your skills",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.ToggleSkill(cmd.Context(), args[0])
		},
	})

	avatarCmd := &cobra.Command{
		Use:   "avatar <file>",
		Short: "Upload an image as your avatar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			direct, err := cmd.Flags().GetBool("direct")
			if err != nil {
				return err
			}
			return r.app.Avatar(cmd.Context(), args[0], direct)
		},
	}
	avatarCmd.Flags().Bool("direct", false, "upload through the portal server instead of a presigned URL")

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			name, _ := f.GetString("username")
			display, _ := f.GetString("display-name")
			bio, _ := f.GetString("bio")
			if name == "" && display == "" && bio == "" {
				return r.app.EditProfile(cmd.Context())
			}
			return r.app.UpdateProfile(cmd.Context(), name, display, bio)
		},
	}
	profileCmd.Flags().String("username", "", "new username")
	profileCmd.Flags().String("display-name", "", "new display name")
	profileCmd.Flags().String("bio", "", "new bio")

	rootCmd.PersistentPreRunE = r.setup
	rootCmd.AddCommand(versionCmd, skillsCmd, avatarCmd, profileCmd)
	rootCmd.AddCommand(withApp...)
	return rootCmd
}
