package postgres

import (
	"Centavo/config"
	"Centavo/internal/domain/goal"
	"Centavo/internal/domain/profile"
	"Centavo/internal/domain/transaction"
	"Centavo/internal/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDb(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Error().
			Err(err).
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.DBName).
			Msg("Falha ao conectar ao banco de dados")
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error().Err(err).Msg("Falha ao obter instância do banco de dados")
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	logger.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.DBName).
		Msg("Conexão com banco de dados estabelecida com sucesso")

	if err := runMigrations(db, cfg.Listener.Channel); err != nil {
		return nil, err
	}

	return db, nil
}

func runMigrations(db *gorm.DB, notifyChannel string) error {
	logger.Info().Msg("Executando migrations...")

	entities := []interface{}{
		&goal.Goal{},
		&transaction.Transaction{},
		&profile.Profile{},
	}

	for _, entity := range entities {
		if err := db.AutoMigrate(entity); err != nil {
			logger.Error().Err(err).Msg("Erro ao migrar entidade")
			return err
		}
	}

	if err := installProcedures(db); err != nil {
		return err
	}

	if err := installNotifyTriggers(db, notifyChannel); err != nil {
		return err
	}

	logger.Info().Msg("Migrations executadas com sucesso!")
	return nil
}

// installProcedures instala add_to_goal, o incremento atômico de
// current_amount executado do lado do servidor.
func installProcedures(db *gorm.DB) error {
	const fn = `
		CREATE OR REPLACE FUNCTION add_to_goal(goal_id_param varchar, amount_param numeric)
		RETURNS void AS $$
		BEGIN
			UPDATE goals
			SET current_amount = current_amount + amount_param
			WHERE id = goal_id_param;
			IF NOT FOUND THEN
				RAISE EXCEPTION 'goal % not found', goal_id_param;
			END IF;
		END;
		$$ LANGUAGE plpgsql;
	`
	if err := db.Exec(fn).Error; err != nil {
		logger.Error().Err(err).Msg("Erro ao instalar procedure add_to_goal")
		return err
	}
	return nil
}

// installNotifyTriggers cria a função de NOTIFY e os triggers nas tabelas
// observadas. O payload carrega tabela, operação e dono; nunca o delta.
func installNotifyTriggers(db *gorm.DB, channel string) error {
	fn := `
		CREATE OR REPLACE FUNCTION notify_table_change()
		RETURNS trigger AS $$
		DECLARE
			row_user varchar;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				row_user := OLD.user_id;
			ELSE
				row_user := NEW.user_id;
			END IF;
			PERFORM pg_notify(
				'` + channel + `',
				json_build_object('table', TG_TABLE_NAME, 'op', TG_OP, 'user_id', row_user)::text
			);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql;
	`
	if err := db.Exec(fn).Error; err != nil {
		logger.Error().Err(err).Msg("Erro ao instalar função notify_table_change")
		return err
	}

	for _, table := range []string{"goals", "transactions"} {
		stmt := `
			DROP TRIGGER IF EXISTS ` + table + `_notify_change ON ` + table + `;
			CREATE TRIGGER ` + table + `_notify_change
			AFTER INSERT OR UPDATE OR DELETE ON ` + table + `
			FOR EACH ROW EXECUTE FUNCTION notify_table_change();
		`
		if err := db.Exec(stmt).Error; err != nil {
			logger.Error().Err(err).Str("table", table).Msg("Erro ao instalar trigger de notificação")
			return err
		}
	}

	return nil
}
