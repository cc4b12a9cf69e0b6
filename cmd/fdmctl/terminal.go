package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/infrastructure/console"
	"blackboxbe/internal/infrastructure/logger"
	"blackboxbe/internal/infrastructure/rpc"
	"blackboxbe/internal/infrastructure/storage"
	"blackboxbe/internal/receipt"
	"blackboxbe/internal/service/blackbox"
	"blackboxbe/internal/service/clock"
	"blackboxbe/internal/service/connection"
	"blackboxbe/pkg/config"
	"blackboxbe/pkg/plu"
)

// profile — описание кассы, с которым терминал открывает сессию.
type profile struct {
	Config        models.PosConfig `json:"config"`
	User          models.Cashier   `json:"user"`
	Employees     []models.Cashier `json:"employees,omitempty"`
	Units         plu.UnitTable    `json:"units,omitempty"`
	ServerVersion string           `json:"server_version,omitempty"`
}

// ticket — заказ, набранный вне терминала: товары и количества.
type ticket struct {
	Lines []struct {
		Product  models.Product  `json:"product"`
		Quantity decimal.Decimal `json:"qty"`
	} `json:"lines"`
	AmountPaid decimal.NullDecimal `json:"amount_paid"`
}

// terminal собирает зависимости команд.
type terminal struct {
	cfg     config.Terminal
	log     *logger.ZapLogger
	profile profile
	backend *rpc.Client
	unpaid  *storage.FileUnpaidOrderStore

	conn     *connection.ConnectionService
	journal  *storage.SQLiteJournal
	session  *models.Session
	guard    *clock.Guard
	blackbox *blackbox.Service
	clock    *clock.Service
	printer  *console.Printer
}

func openTerminal() (*terminal, error) {
	cfg, err := config.LoadTerminal(envPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewZapLogger(cfg.Logger.Level)
	if err != nil {
		return nil, err
	}

	var p profile
	if err := readJSON(cfg.ProfilePath, &p); err != nil {
		return nil, fmt.Errorf("failed to load terminal profile: %w", err)
	}

	unpaid, err := storage.NewFileUnpaidOrderStore(cfg.UnpaidFile)
	if err != nil {
		return nil, err
	}

	return &terminal{
		cfg:     cfg,
		log:     log,
		profile: p,
		backend: rpc.NewClient(rpc.Config{
			BaseURL:  cfg.Backend.URL,
			Timeout:  cfg.Backend.Timeout,
			RetryMax: cfg.Backend.RetryMax,
			Logger:   log,
		}),
		unpaid: unpaid,
		printer: console.NewPrinter(os.Stdout,
			receipt.HeaderFromConfig(p.Config, p.ServerVersion), cfg.PaperWidth),
	}, nil
}

// openSession восстанавливает сессию из бэк-офиса и создаёт сервисы фискального модуля.
func (t *terminal) openSession(ctx context.Context, cmd *cobra.Command) error {
	if t.cfg.SessionID == 0 {
		return errors.New("TERMINAL_SESSION_ID is not set, open a session first")
	}

	info, err := t.backend.Session(ctx, t.cfg.SessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %d: %w", t.cfg.SessionID, err)
	}

	s := models.NewSession(info.ID, info.User)
	s.ConfigName = info.ConfigName
	s.HRMode = info.HRMode
	s.FiscalMode = info.FiscalMode
	s.CertifiedIdentifier = t.profile.Config.CertifiedIdentifier
	s.WorkIn = t.profile.Config.WorkIn
	s.WorkOut = t.profile.Config.WorkOut
	s.Units = t.profile.Units

	if id, _ := cmd.Flags().GetInt64("employee"); id != 0 {
		cashier, ok := t.findCashier(id)
		if !ok {
			return fmt.Errorf("cashier %d is not in the terminal profile", id)
		}
		s.SetCashier(cashier)
	}

	cashier := s.Cashier()
	clocked, err := t.backend.WorkStatus(ctx, s.ID, cashier.ID, s.HRMode)
	if err != nil {
		return fmt.Errorf("failed to get work status: %w", err)
	}
	if clocked {
		s.ReplaceClocked([]int64{cashier.ID})
	}

	t.conn = connection.NewConnectionService(t.cfg.Device, t.log)
	device, err := t.conn.Connect()
	if err != nil {
		return err
	}

	t.journal, err = storage.OpenJournal(t.cfg.JournalPath)
	if err != nil {
		return err
	}

	t.session = s
	t.guard = clock.NewGuard(s, t.backend)
	t.blackbox = blackbox.NewService(blackbox.Deps{
		Device:   device,
		Session:  s,
		Backend:  t.backend,
		Unpaid:   t.unpaid,
		Journal:  t.journal,
		Prompter: console.NewPrompter(),
		Notifier: console.NewNotifier(os.Stderr, t.log),
		Logger:   t.log,
	})
	t.clock = clock.NewService(s, t.guard, t.blackbox, t.backend, t.unpaid, t.printer, t.log)
	return nil
}

func (t *terminal) findCashier(id int64) (models.Cashier, bool) {
	if t.profile.User.ID == id {
		return t.profile.User, true
	}
	for _, c := range t.profile.Employees {
		if c.ID == id {
			return c, true
		}
	}
	return models.Cashier{}, false
}

// loadOrder возвращает неоплаченный заказ по UID или новый заказ из файла.
func (t *terminal) loadOrder(source string, pending bool) (*models.Order, error) {
	if pending {
		order, err := t.unpaid.Find(source)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, fmt.Errorf("order %s is not pending", source)
		}
		return order, nil
	}

	var tk ticket
	if err := readJSON(source, &tk); err != nil {
		return nil, err
	}

	seq, err := t.unpaid.NextSequence()
	if err != nil {
		return nil, err
	}
	order, err := models.NewOrder(t.session, seq)
	if err != nil {
		return nil, err
	}
	for _, l := range tk.Lines {
		if err := t.guard.AddProduct(order, l.Product, l.Quantity, false); err != nil {
			return nil, fmt.Errorf("%s: %w", l.Product.DisplayName, err)
		}
	}
	order.AmountPaid = order.TotalWithTax()
	if tk.AmountPaid.Valid {
		order.AmountPaid = tk.AmountPaid.Decimal
	}
	return order, nil
}

func (t *terminal) Close() {
	if t.conn != nil {
		if err := t.conn.Disconnect(); err != nil {
			t.log.Warn("failed to close fiscal data module", "error", err)
		}
	}
	if t.journal != nil {
		t.journal.Close()
	}
	t.log.Sync()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
