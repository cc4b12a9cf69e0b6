package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var envPath string

var rootCmd = &cobra.Command{
	Use:           "fdmctl",
	Short:         "Кассовый терминал с фискальным модулем FDM",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "файл с переменными окружения")
	rootCmd.PersistentFlags().Int64("employee", 0, "идентификатор кассира из профиля (по умолчанию владелец сессии)")

	rootCmd.AddCommand(
		portsCmd,
		pluCmd,
		sessionCmd,
		signCmd,
		billCmd,
		clockCmd,
		cashboxCmd,
		journalCmd,
		pendingCmd,
		syncCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		stop()
		os.Exit(1)
	}
}
