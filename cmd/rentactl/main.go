package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rentacars/internal/config"
	"rentacars/internal/entities"
	"rentacars/internal/repository"
	"rentacars/internal/service"
)

// readPassword reads a password without echo. When stdin is not a terminal
// the next line of sc is used instead.
func readPassword(sc *bufio.Scanner, prompt string) (string, error) {
	fmt.Print(prompt)
	if !term.IsTerminal(int(syscall.Stdin)) {
		if !sc.Scan() {
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(sc.Text()), nil
	}
	b, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(b)), nil
}

func newConsole(apiURL string, cfg *config.Config) *service.Console {
	// Logs go to stderr so they stay out of prompts and listings.
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	client := repository.NewAPIClient(apiURL, repository.WithLogger(logger))
	return service.NewConsole(client, logger)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// The terminal is for the user; only warnings go to the log.
	if cfg.LogLevel < slog.LevelWarn {
		cfg.LogLevel = slog.LevelWarn
	}

	var apiURL string
	root := &cobra.Command{
		Use:           "rentactl",
		Short:         "Consola de RentaCars en la terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), newConsole(apiURL, cfg))
		},
	}
	root.PersistentFlags().StringVar(&apiURL, "api-url", cfg.APIURL, "base URL of the rental API")

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Abre la consola interactiva",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), newConsole(apiURL, cfg))
		},
	}

	var username, rol string
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Registra un usuario nuevo",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(bufio.NewScanner(os.Stdin), "Contraseña: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			shell := newConsole(apiURL, cfg).NewShell()
			msg, err := shell.Register(cmd.Context(), entities.RegisterRequest{
				Username: username,
				Password: password,
				Rol:      rol,
			})
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
	registerCmd.Flags().StringVarP(&username, "username", "u", "", "user name")
	registerCmd.Flags().StringVar(&rol, "rol", entities.RolCliente, "role: cliente or admin")
	registerCmd.MarkFlagRequired("username")

	listCmd := &cobra.Command{
		Use:       "list clientes|carros|rentas",
		Short:     "Inicia sesión y muestra un listado",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{service.ResourceCustomers, service.ResourceVehicles, service.ResourceRentals},
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(bufio.NewScanner(os.Stdin), "Contraseña: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			shell := newConsole(apiURL, cfg).NewShell()
			if err := shell.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			editor, err := shell.Open(cmd.Context(), service.Page(args[0]), false)
			if err != nil {
				return err
			}
			printView(os.Stdout, editor.View())
			return nil
		},
	}
	listCmd.Flags().StringVarP(&username, "username", "u", "", "user name")
	listCmd.MarkFlagRequired("username")

	root.AddCommand(shellCmd, registerCmd, listCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runShell(ctx context.Context, console *service.Console) error {
	sc := bufio.NewScanner(os.Stdin)
	r := &repl{
		shell: console.NewShell(),
		sc:    sc,
		out:   os.Stdout,
		readPassword: func(prompt string) (string, error) {
			return readPassword(sc, prompt)
		},
	}
	r.run(ctx)
	return nil
}
