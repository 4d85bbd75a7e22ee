package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/typemaster/internal/api"
	"github.com/verte-zerg/typemaster/internal/config"
	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/pages"
	"github.com/verte-zerg/typemaster/internal/session"
	"github.com/verte-zerg/typemaster/internal/stats"
	"github.com/verte-zerg/typemaster/internal/tui"
)

// prompter reads answers from stdin. Secrets are read without echo when
// stdin is a terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

func newPrompter(out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(os.Stdin), out: out, fd: int(os.Stdin.Fd())}
}

func (p *prompter) line(label string) (string, error) {
	if _, err := fmt.Fprint(p.out, label); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	text, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(text, "\r\n"), nil
}

func (p *prompter) secret(label string) (string, error) {
	if !term.IsTerminal(p.fd) {
		return p.line(label)
	}
	if _, err := fmt.Fprint(p.out, label); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	raw, err := term.ReadPassword(p.fd)
	if _, werr := fmt.Fprintln(p.out); werr != nil {
		_ = werr
	}
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

func usernameArg(p *prompter, args []string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}
	name, err := p.line("Username: ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(name), nil
}

func newSignupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup [username]",
		Short: "Create an account",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSignupCmd,
	}
}

func runSignupCmd(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	p := newPrompter(cmd.ErrOrStderr())
	username, err := usernameArg(p, args)
	if err != nil {
		return err
	}
	password, err := p.secret("Password: ")
	if err != nil {
		return err
	}
	confirm, err := p.secret("Confirm Password: ")
	if err != nil {
		return err
	}
	if err := session.ValidateSignup(username, password, confirm); err != nil {
		return err
	}
	if err := rt.client.Signup(cmd.Context(), username, password); err != nil {
		return fmt.Errorf("signup failed: %s", pages.SignupMessage(err))
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "User created successfully! Log in with: typemaster login", username)
	return err
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and remember the session",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLoginCmd,
	}
}

func runLoginCmd(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	p := newPrompter(cmd.ErrOrStderr())
	username, err := usernameArg(p, args)
	if err != nil {
		return err
	}
	password, err := p.secret("Password: ")
	if err != nil {
		return err
	}
	if err := session.ValidateLogin(username, password); err != nil {
		return err
	}
	s, err := rt.client.Login(cmd.Context(), username, password)
	if err != nil {
		return fmt.Errorf("login failed: %s", pages.LoginMessage(err))
	}
	if err := rt.sessions.Begin(cmd.Context(), s); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Login successful!")
	return err
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		Args:  cobra.NoArgs,
		RunE:  runLogoutCmd,
	}
}

func runLogoutCmd(cmd *cobra.Command, _ []string) error {
	rt, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !rt.session.Active() {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return err
	}
	if err := rt.client.Logout(cmd.Context(), rt.session); err != nil {
		rt.logger.Warn("backend logout failed", "err", err)
	}
	if err := rt.sessions.End(cmd.Context()); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return err
}

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Take a typing test",
		Args:  cobra.NoArgs,
		RunE:  runTestCmd,
	}
}

func runTestCmd(cmd *cobra.Command, _ []string) error {
	rt, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireSession(); err != nil {
		return err
	}

	overlay := tui.New(tui.Options{
		Fetcher:    rt.client,
		Saver:      rt.client,
		Session:    rt.session,
		Difficulty: rt.cfg.Difficulty,
		Logger:     rt.logger,
		Standalone: true,
	})
	program := tea.NewProgram(overlay, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if outcome := overlay.Snapshot().Outcome; outcome != nil {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d WPM · %d%% accuracy · %ds (%s)\n",
			outcome.WPM, outcome.Accuracy, outcome.Duration, outcome.Difficulty)
		return err
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	var clearAll, yes bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or clear your typing results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryCmd(cmd, clearAll, yes)
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete every stored result")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, clearAll, yes bool) error {
	rt, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireSession(); err != nil {
		return err
	}

	if clearAll {
		if !yes {
			answer, err := newPrompter(cmd.ErrOrStderr()).line("Delete all typing history? This action cannot be undone. [y/N] ")
			if err != nil {
				return err
			}
			if !strings.EqualFold(strings.TrimSpace(answer), "y") {
				logErrln("Cancelled.")
				return nil
			}
		}
		if err := rt.client.ClearResults(cmd.Context(), rt.session); err != nil {
			return fmt.Errorf("%s", api.UserMessage(err, "Failed to clear history"))
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return err
	}

	results, err := rt.client.ListResults(cmd.Context(), rt.session)
	if err != nil {
		return fmt.Errorf("%s", api.UserMessage(err, "Failed to fetch typing history"))
	}
	return stats.RenderHistory(cmd.OutOrStdout(), results, time.Now())
}

func newProfileCmd() *cobra.Command {
	var bio, image string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProfileCmd(cmd, bio, image)
		},
	}
	cmd.Flags().StringVar(&bio, "bio", "", "replace the bio")
	cmd.Flags().StringVar(&image, "image", "", "upload a profile image from this path")
	return cmd
}

func runProfileCmd(cmd *cobra.Command, bio, image string) error {
	rt, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireSession(); err != nil {
		return err
	}

	profile, err := rt.client.Profile(cmd.Context(), rt.session)
	if err != nil {
		return fmt.Errorf("%s", api.UserMessage(err, "Failed to fetch profile"))
	}

	bioChanged := cmd.Flags().Changed("bio")
	if bioChanged || image != "" {
		update := model.ProfileUpdate{Bio: profile.Bio, ImagePath: image}
		if bioChanged {
			update.Bio = bio
		}
		saved, err := rt.client.UpdateProfile(cmd.Context(), rt.session, update)
		if err != nil {
			return fmt.Errorf("%s", api.UserMessage(err, "Failed to update profile"))
		}
		profile.Bio = saved.Bio
		if saved.AvatarRef != "" {
			profile.AvatarRef = saved.AvatarRef
		}
		logErrln("Profile updated.")
	}
	return stats.RenderProfile(cmd.OutOrStdout(), profile, rt.client.AvatarURL(profile.AvatarRef))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typemaster configuration
# Uncomment a value to enable it. Environment variables (%s, %s)
# override the file and CLI flags override both.

[api]
# base-url = %q
# timeout-seconds = %d
# rate-limit = %.1f        # Requests per second

[test]
# difficulty = %q          # Easy, Medium or Hard

[ui]
# alert-ms = %d            # How long alerts stay visible

[log]
# level = %q
# file = %q
`,
		config.EnvAPIURL,
		config.EnvLogLevel,
		api.DefaultBaseURL,
		defaultTimeoutSeconds,
		defaultRateLimit,
		string(defaultDifficulty),
		defaultAlertMs,
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}
