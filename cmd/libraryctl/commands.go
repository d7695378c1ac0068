package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/samvad-hq/library-client/internal/app"
	"github.com/samvad-hq/library-client/internal/config"
	"github.com/samvad-hq/library-client/internal/domain"
	"github.com/samvad-hq/library-client/internal/logger"
	"github.com/samvad-hq/library-client/internal/notify"
	"github.com/samvad-hq/library-client/internal/pipeline"
	"github.com/samvad-hq/library-client/pkg/api"
	"github.com/samvad-hq/library-client/pkg/format"
	"github.com/samvad-hq/library-client/pkg/httpclient"
	"github.com/spf13/cobra"
)

const (
	exitFailure     = 1
	exitAuthExpired = 2

	passwordEnv = "LIBRARY_PASSWORD"
)

type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	baseURL string
	store   string

	cfg     *config.Config
	client  *app.Client
	expired bool
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "libraryctl",
		Short:         "Command line client for the library portal API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "portal base URL (overrides API_BASE_URL)")
	root.PersistentFlags().StringVar(&c.store, "store", "", "credential store: memory, bbolt or redis (overrides CREDENTIAL_STORE)")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.statusCmd(),
		c.routeCmd(),
		c.refreshCmd(),
		c.endpointsCmd(),
		c.callCmd(),
		c.rawCmd(),
	)
	return root
}

func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.baseURL != "" {
		cfg.APIBaseURL = c.baseURL
	}
	if c.store != "" {
		cfg.CredentialStore = strings.ToLower(strings.TrimSpace(c.store))
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	client, err := app.NewClient(ctx, cfg, log, app.Options{
		Navigator: pipeline.NavigatorFunc(c.toLogin),
		Sinks:     []notify.Sink{notify.SinkFunc(c.printNotification)},
	})
	if err != nil {
		logger.ErrorObj("failed to initialize client", "error", err)
		return err
	}
	c.cfg = cfg
	c.client = client
	return nil
}

func (c *cli) close() {
	if c.client != nil {
		_ = c.client.Close()
	}
	_ = logger.Close()
}

func (c *cli) printNotification(_ context.Context, message string, severity domain.Severity) {
	fmt.Fprintf(c.errOut, "[%s] %s\n", severity, message)
}

func (c *cli) toLogin(context.Context) {
	c.expired = true
	route := "/login"
	if c.cfg != nil {
		route = c.cfg.LoginRoute
	}
	fmt.Fprintf(c.errOut, "session expired (%s): run `libraryctl login <username>` to sign in again\n", route)
}

// report maps err to an exit code. Failures the pipeline already announced
// through a notification or the login hint are not printed twice.
func (c *cli) report(err error) int {
	var bizErr *pipeline.BusinessError
	var transportErr *pipeline.TransportError
	switch {
	case errors.Is(err, pipeline.ErrAuthExpired):
		if !c.expired {
			fmt.Fprintf(c.errOut, "libraryctl: %v\n", err)
		}
		return exitAuthExpired
	case errors.As(err, &bizErr), errors.As(err, &transportErr), errors.Is(err, pipeline.ErrMalformedResponse):
		return exitFailure
	default:
		fmt.Fprintf(c.errOut, "libraryctl: %v\n", err)
		return exitFailure
	}
}

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and store the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if password == "" {
				var err error
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			session, err := c.client.API().Login(cmd.Context(), api.Credentials{Username: args[0], Password: password})
			if err != nil {
				return err
			}
			name, role := args[0], ""
			if session.User != nil {
				name, role = session.User.Username, session.User.Role
			}
			fmt.Fprintf(c.out, "logged in as %s (%s)\n", name, format.Status(role, false).Label)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (default $"+passwordEnv+" or stdin)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and clear stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := c.client.API().Logout(cmd.Context())
			fmt.Fprintln(c.out, "logged out")
			return err
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	var cached bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				user *domain.User
				err  error
			)
			if cached {
				user, err = c.client.API().CachedUser(cmd.Context())
			} else {
				user, err = c.client.API().Me(cmd.Context())
			}
			if err != nil {
				return err
			}
			if user == nil {
				return errors.New("no stored profile")
			}
			return c.printJSON(user)
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "print the stored profile without contacting the portal")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored and its role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := c.client.Guard()
			authed, err := g.IsAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			if !authed {
				fmt.Fprintln(c.out, "not logged in")
				return nil
			}
			role, err := g.CurrentRole(cmd.Context())
			if err != nil {
				return err
			}
			badge := format.Status(role, false)
			fmt.Fprintf(c.out, "logged in\nrole: %s (%s)\nportal: %s\n", badge.Label, role, c.cfg.APIBaseURL)
			return nil
		},
	}
}

func (c *cli) routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Resolve a front end route through the guard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.client.Guard().Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if d.Allowed {
				fmt.Fprintln(c.out, "allowed")
				return nil
			}
			fmt.Fprintf(c.out, "redirect %s\n", d.Redirect)
			return nil
		},
	}
}

func (c *cli) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a new pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pair, err := c.client.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "token refreshed, expires in %ds\n", pair.ExpiresIn)
			return nil
		},
	}
}

func (c *cli) endpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "List the endpoint catalog",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMETHOD\tPATH\tSUMMARY")
			for _, ep := range c.client.API().Catalog().All() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ep.Name, ep.Method, ep.Path, ep.Summary)
			}
			return w.Flush()
		},
	}
}

func (c *cli) callCmd() *cobra.Command {
	var (
		query []string
		data  string
	)
	cmd := &cobra.Command{
		Use:   "call <endpoint> [param=value...]",
		Short: "Call a catalog endpoint and print its data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parsePairs(args[1:])
			if err != nil {
				return err
			}
			q, err := parsePairs(query)
			if err != nil {
				return err
			}
			body, err := parseBody(data)
			if err != nil {
				return err
			}
			out, err := c.client.API().Call(cmd.Context(), args[0], params, q, body)
			if err != nil {
				return err
			}
			return c.printRaw(out)
		},
	}
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter key=value (repeatable)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}

func (c *cli) rawCmd() *cobra.Command {
	var (
		query []string
		data  string
	)
	cmd := &cobra.Command{
		Use:   "raw <method> <path>",
		Short: "Send an arbitrary request through the authenticated pipeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parsePairs(query)
			if err != nil {
				return err
			}
			body, err := parseBody(data)
			if err != nil {
				return err
			}
			method := strings.ToUpper(args[0])
			switch method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return fmt.Errorf("unsupported method %q", args[0])
			}
			out, err := c.client.Pipeline().Issue(cmd.Context(), httpclient.Request{
				Method: method,
				Path:   args[1],
				Query:  q,
				Body:   body,
			})
			if err != nil {
				return err
			}
			return c.printRaw(out)
		},
	}
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter key=value (repeatable)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (c *cli) printRaw(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = fmt.Fprintln(c.out, string(raw))
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(c.out)
	return err
}

func parsePairs(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if k = strings.TrimSpace(k); !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		out[k] = v
	}
	return out, nil
}

func parseBody(data string) (any, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	if !json.Valid([]byte(data)) {
		return nil, errors.New("--data is not valid JSON")
	}
	return json.RawMessage(data), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
