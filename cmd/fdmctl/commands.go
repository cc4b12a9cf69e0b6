package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/fiscal"
	"blackboxbe/internal/infrastructure/logger"
	"blackboxbe/internal/infrastructure/storage"
	"blackboxbe/internal/service/backoffice"
	"blackboxbe/internal/service/blackbox"
	"blackboxbe/internal/service/connection"
	"blackboxbe/internal/service/monitor"
	"blackboxbe/pkg/config"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Список COM-портов системы",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn := connection.NewConnectionService(config.Device{Kind: config.DeviceSerial}, logger.NewNopLogger())
		list, err := conn.GetSystemPorts()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("COM-порты не найдены")
		}
		for _, p := range list {
			fmt.Println(p)
		}
		return nil
	},
}

var pluCmd = &cobra.Command{
	Use:   "plu <order.json>",
	Short: "Хэш PLU заказа",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTerminal()
		if err != nil {
			return err
		}
		defer t.Close()

		if err := t.openSession(cmd.Context(), cmd); err != nil {
			return err
		}
		order, err := t.loadOrder(args[0], false)
		if err != nil {
			return err
		}
		hash, err := fiscal.PLUHash(order, t.session.Units)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Кассовая сессия в бэк-офисе",
}

var sessionOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Открыть сессию по профилю кассы",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTerminal()
		if err != nil {
			return err
		}
		defer t.Close()

		info, err := t.backend.OpenSession(cmd.Context(), backoffice.OpenSessionRequest{
			Config:    t.profile.Config,
			User:      t.profile.User,
			Employees: t.profile.Employees,
		})
		if err != nil {
			return err
		}
		return printJSON(info)
	},
}

var sessionReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Отчёт о продажах сессии",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTerminal()
		if err != nil {
			return err
		}
		defer t.Close()

		report, err := t.backend.SessionReport(cmd.Context(), t.cfg.SessionID)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var sessionCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Проверить возможность закрытия кассы и вывести отчёт",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTerminal()
		if err != nil {
			return err
		}
		defer t.Close()

		if err := t.openSession(cmd.Context(), cmd); err != nil {
			return err
		}
		if err := t.guard.CheckCloseRegister(cmd.Context()); err != nil {
			return err
		}
		report, err := t.backend.SessionReport(cmd.Context(), t.session.ID)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var signCmd = &cobra.Command{
	Use:   "sign <order.json | uid>",
	Short: "Подписать и зарегистрировать заказ",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pending, _ := cmd.Flags().GetBool("pending")

		t, err := openTerminal()
		if err != nil {
			return err
		}
		defer t.Close()

		if err := t.openSession(cmd.Context(), cmd); err != nil {
			return err
		}
		order, err := t.loadOrder(args[0], pending)
		if err != nil {
			return err
		}
		if err := t.guard.CheckValidateOrder(order); err != nil {
			return err
		}

		state, err := t.blackbox.PushSingleOrder(cmd.Context(), order)
		if err != nil {
			return err
		}
		if state == blackbox.Abandoned {
			fmt.Printf("Заказ %s отложен (%s)\n", order.UID, state)
			return nil
		}
		return t.printer.PrintReceipt(cmd.Context(), order)
	},
}

var billCmd = &cobra.Command{
	Use:   "bill <order.json | uid>",
	Short: "Напечатать счёт с предварительным чеком",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pending, _ := cmd.Flags().GetBool("pending")

		t, err := openTerminal()
		if err != nil {
			return err
		}
		defer t.Close()

		if err := t.openSession(cmd.Context(), cmd); err != nil {
			return err
		}
		order, err := t.loadOrder(args[0], pending)
		if err != nil {
			return err
		}
		if err := t.blackbox.PrintBill(cmd.Context(), order, t.printer); err != nil {
			return err
		}
		// счёт остаётся неоплаченным до окончательного чека
		return t.unpaid.Save(order)
	},
}

var clockCmd = &cobra.Command{
	Use:       "clock in|out",
	Short:     "Отметить приход или уход кассира",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"in", "out"},
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTerminal()
		if err != nil {
			return err
		}
		defer t.Close()

		if err := t.openSession(cmd.Context(), cmd); err != nil {
			return err
		}

		var state models.ClockState
		if args[0] == "in" {
			state, err = t.clock.ClockIn(cmd.Context(), nil)
		} else {
			state, err = t.clock.ClockOut(cmd.Context(), nil)
		}
		if err != nil {
			return err
		}
		fmt.Println(state)
		return nil
	},
}

var cashboxCmd = &cobra.Command{
	Use:   "cashbox",
	Short: "Открыть денежный ящик",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTerminal()
		if err != nil {
			return err
		}
		defer t.Close()

		if err := t.openSession(cmd.Context(), cmd); err != nil {
			return err
		}
		n, err := t.clock.OpenCashbox(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Открытий денежного ящика: %d\n", n)
		return nil
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Последние подписанные чеки терминала",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		t, err := openTerminal()
		if err != nil {
			return err
		}
		defer t.Close()

		t.journal, err = storage.OpenJournal(t.cfg.JournalPath)
		if err != nil {
			return err
		}
		entries, err := t.journal.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Неоплаченные заказы терминала",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTerminal()
		if err != nil {
			return err
		}
		defer t.Close()

		orders, err := t.unpaid.List()
		if err != nil {
			return err
		}
		for _, o := range orders {
			fmt.Printf("%s  %s  %s EUR  pro forma: %d\n", o.UID, o.Name, o.TotalWithTax().StringFixed(2), len(o.ProForma))
		}
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Зарегистрировать в бэк-офисе уже подписанные заказы",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		interval, _ := cmd.Flags().GetDuration("interval")

		t, err := openTerminal()
		if err != nil {
			return err
		}
		defer t.Close()

		if err := t.openSession(cmd.Context(), cmd); err != nil {
			return err
		}
		m := monitor.NewService(t.unpaid, t.blackbox, t.log, monitor.Config{PollInterval: interval})

		if !watch {
			st := m.SyncOnce(cmd.Context())
			fmt.Printf("Неоплаченных заказов: %d, ожидают регистрации: %d\n", st.Pending, st.Signed)
			return nil
		}

		m.SetUpdateCallback(func(st monitor.Status) {
			fmt.Printf("%s  неоплаченных: %d, ожидают регистрации: %d\n", st.LastUpdate.Format(time.TimeOnly), st.Pending, st.Signed)
		})
		m.Start(cmd.Context())
		<-cmd.Context().Done()
		m.Stop()
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("watch", false, "повторять до остановки")
	syncCmd.Flags().Duration("interval", 30*time.Second, "интервал повтора")
	sessionCmd.AddCommand(sessionOpenCmd, sessionReportCmd, sessionCloseCmd)
	signCmd.Flags().Bool("pending", false, "аргумент — UID неоплаченного заказа")
	billCmd.Flags().Bool("pending", false, "аргумент — UID неоплаченного заказа")
	journalCmd.Flags().Int("limit", 20, "количество записей (0 — все)")
}
