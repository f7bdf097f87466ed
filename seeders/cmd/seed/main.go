package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"equipment-qms/internal/repositories"
	"equipment-qms/internal/services"
	"equipment-qms/pkg/config"
	"equipment-qms/pkg/database"
	applogger "equipment-qms/pkg/logger"
	"equipment-qms/seeders"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewSeedCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [command]",
		Short: "Утилиты наполнения и диагностики базы оборудования",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(newMigrateCommand(), newImportCommand(), newCheckCommand())
	return cmd
}

// env - общее окружение команд: конфиг, логгер, база с накатанными миграциями.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
	cache  repositories.CacheRepositoryInterface
	close  func()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Logger)

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	e := &env{
		cfg:    cfg,
		logger: logger,
		db:     db,
		cache:  repositories.NewNoopCacheRepository(),
		close:  func() { _ = db.Close() },
	}

	// Сводка на сервере кешируется в Redis: импорт должен поднять версию кеша
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis недоступен, кеш сводки сброшен не будет", zap.Error(err))
			_ = client.Close()
		} else {
			e.cache = repositories.NewRedisCacheRepository(client)
			e.close = func() {
				_ = client.Close()
				_ = db.Close()
			}
		}
	}
	return e, nil
}

func (e *env) equipmentService() services.EquipmentServiceInterface {
	repo := repositories.NewEquipmentRepository(e.db, e.logger)
	policy := services.NewLifecyclePolicy(e.cfg.Schedule.Location(), e.cfg.Schedule.NextInspectionIn)
	return services.NewEquipmentService(repo, e.cache, nil, policy, nil, e.logger)
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции схемы",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			fmt.Println("✅ Миграции применены")
			return nil
		},
	}
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv|file.xlsx>",
		Short: "Импортировать оборудование из CSV или XLSX",
		Long:  "Колонки: name, type, status, location, lastInspection, nextInspection. Первая строка - заголовок, строки без названия пропускаются.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			importer := seeders.NewImporter(e.equipmentService(), e.logger)
			res, err := importer.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "---------------------------------------------------------")
			fmt.Fprintf(out, "🏁 РЕЗУЛЬТАТ ИМПОРТА (%s):\n", args[0])
			fmt.Fprintf(out, "   ✅ Создано:   %d\n", res.Created)
			fmt.Fprintf(out, "   ⏭  Пропущено: %d\n", res.Skipped)
			fmt.Fprintf(out, "   ❌ Ошибок:    %d\n", res.Failed)
			for _, le := range res.Errors {
				fmt.Fprintf(out, "      %s\n", le.Error())
			}
			fmt.Fprintln(out, "---------------------------------------------------------")
			return nil
		},
	}
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Вывести все записи оборудования",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			list, err := e.equipmentService().GetEquipments(cmd.Context())
			if err != nil {
				return err
			}
			seeders.PrintEquipment(cmd.OutOrStdout(), list, e.cfg.Schedule.Location())
			return nil
		},
	}
}
