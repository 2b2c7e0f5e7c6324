package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mhc-gc/mhc-site/backend/go-api/internal/database"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/notify"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/users"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"github.com/spf13/cobra"
)

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for an ADMIN_ACCOUNTS entry (reads stdin when no argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			h, err := users.HashPassword(pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func passwordArg(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password is required")
	}
	return pw, nil
}

func migrateCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded Postgres migrations to DATABASE_URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				names, err := database.MigrationNames()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errors.New("DATABASE_URL is required")
			}
			applied, err := database.Migrate(cfg.Postgres.URL)
			if err != nil {
				return err
			}
			if applied {
				logger.Infof("migrations applied")
			} else {
				logger.Infof("schema already up to date")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print the embedded migration files and exit")
	return cmd
}

func mailWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mail-worker",
		Short: "Deliver queued notification emails over SMTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Queue.URL == "" || cfg.Mail.Host == "" {
				return errors.New("mail-worker requires AMQP_URL and SMTP_HOST")
			}
			q, err := notify.DialQueue(cfg.Queue.URL, cfg.Queue.Name)
			if err != nil {
				return err
			}
			defer q.Close()
			logger.Infof("mail worker consuming %s", cfg.Queue.Name)
			return q.Consume(cmd.Context(), notify.NewSMTP(smtpConfig(cfg.Mail)))
		},
	}
}
