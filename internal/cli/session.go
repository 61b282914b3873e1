package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/limmweb/instagram-ai-commentator/models"
	"github.com/limmweb/instagram-ai-commentator/pkg/storage"
)

// NewSessionCommand создаёт группу команд для работы с сессиями.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Управление сессиями Instagram",
	}
	cmd.AddCommand(newSessionCreateCommand(rootOpts))
	cmd.AddCommand(newSessionListCommand(rootOpts))
	return cmd
}

func newSessionCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Создать сессию: запросить логин и пароль, войти и сохранить конфигурацию",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.closeLog()

			store, err := storage.CreateIdentityDir(a.cfg.SessionsDir, args[0])
			if err != nil {
				return a.fatal("не удалось создать каталог сессии", err)
			}
			lock, err := storage.LockSession(store.Dir)
			if err != nil {
				return a.fatal("сессия занята", err)
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					a.log.Warn("[SESSION] не удалось снять блокировку", zap.Error(err))
				}
			}()

			creds, err := promptCredentials(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			mgr, _, _ := a.sessionManager(store)
			if err := mgr.Create(ctx, creds); err != nil {
				return a.fatal("не удалось создать сессию", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[SUCCESS] Сессия '%s' создана.\n", args[0])
			return nil
		},
	}
}

func newSessionListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Показать сохранённые сессии",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.closeLog()

			names, err := storage.ListIdentities(a.cfg.SessionsDir)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Сессий нет. Создайте: commenter session create <name>")
				return nil
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

// promptCredentials читает логин и пароль построчно.
func promptCredentials(in io.Reader, out io.Writer) (models.Credentials, error) {
	r := bufio.NewReader(in)
	fmt.Fprint(out, "Instagram логин: ")
	login, err := readLine(r)
	if err != nil {
		return models.Credentials{}, err
	}
	fmt.Fprint(out, "Instagram пароль: ")
	password, err := readLine(r)
	if err != nil {
		return models.Credentials{}, err
	}
	if login == "" || password == "" {
		return models.Credentials{}, storage.ErrMissingCredentials
	}
	return models.Credentials{Login: login, Password: password}, nil
}

// selectSession просит выбрать сессию по номеру. Единственная сессия выбирается сразу.
func selectSession(in io.Reader, out io.Writer, names []string) (string, error) {
	switch len(names) {
	case 0:
		return "", errors.New("no sessions, run `commenter session create <name>` first")
	case 1:
		return names[0], nil
	}
	for i, n := range names {
		fmt.Fprintf(out, "%d: %s\n", i+1, n)
	}
	fmt.Fprint(out, "Номер сессии: ")
	line, err := readLine(bufio.NewReader(in))
	if err != nil {
		return "", err
	}
	idx, err := strconv.Atoi(line)
	if err != nil || idx < 1 || idx > len(names) {
		return "", errors.Errorf("invalid session number %q", line)
	}
	return names[idx-1], nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", errors.Wrap(err, "read input")
	}
	return strings.TrimSpace(line), nil
}
