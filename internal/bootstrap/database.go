package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"negarai/internal/models"
)

// MigrateAndSeed ensures required tables exist, installs the atomic debit
// procedure, and inserts baseline model prices.
func MigrateAndSeed(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	if err := installDebitProcedure(db); err != nil {
		return fmt.Errorf("install debit procedure failed: %w", err)
	}
	if err := seedModelPrices(db); err != nil {
		return fmt.Errorf("seed model prices failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.UsageRecord{},
		&models.PaymentReport{},
		&models.GenerationTask{},
		&models.ModelPrice{},
	}
}

// installDebitProcedure (re)creates consume_tokens: the single-transaction
// debit path. Check, decrement, and usage insert commit or roll back as one
// unit; concurrent debits on the same account serialize on the row lock.
func installDebitProcedure(db *gorm.DB) error {
	if err := db.Exec("DROP PROCEDURE IF EXISTS consume_tokens").Error; err != nil {
		return err
	}
	return db.Exec(`
CREATE PROCEDURE consume_tokens(
    IN p_user_id VARCHAR(100),
    IN p_model VARCHAR(100),
    IN p_price INT
)
BEGIN
    DECLARE v_tokens INT;
    DECLARE EXIT HANDLER FOR SQLEXCEPTION
    BEGIN
        ROLLBACK;
        RESIGNAL;
    END;

    START TRANSACTION;

    SELECT tokens INTO v_tokens FROM accounts WHERE id = p_user_id FOR UPDATE;

    IF v_tokens IS NULL THEN
        SIGNAL SQLSTATE '45001' SET MESSAGE_TEXT = 'ACCOUNT_NOT_FOUND';
    END IF;

    IF v_tokens < p_price THEN
        SIGNAL SQLSTATE '45002' SET MESSAGE_TEXT = 'INSUFFICIENT_TOKENS';
    END IF;

    UPDATE accounts SET tokens = tokens - p_price, updated_at = NOW()
    WHERE id = p_user_id;

    INSERT INTO usage_records (id, user_id, model, price, created_at)
    VALUES (UUID(), p_user_id, p_model, p_price, NOW());

    COMMIT;

    SELECT tokens AS new_balance FROM accounts WHERE id = p_user_id;
END
`).Error
}

func seedModelPrices(db *gorm.DB) error {
	defaults := []models.ModelPrice{
		{Model: "gemini-1.5-flash", Provider: "gemini", Price: 1, Kind: "text", Enabled: true},
		{Model: "gemini-1.5-pro", Provider: "gemini", Price: 3, Kind: "text", Enabled: true},
		{Model: "nano-banana", Provider: "kie", Price: 4, Kind: "image", Enabled: true},
		{Model: "gpt-image", Provider: "kie", Price: 6, Kind: "image", Enabled: true},
		{Model: "flux", Provider: "kie", Price: 5, Kind: "image", Enabled: true},
		{Model: "midjourney", Provider: "kie", Price: 8, Kind: "image", Enabled: true},
		{Model: "veo", Provider: "kie", Price: 40, Kind: "video", Enabled: true},
		{Model: "kling", Provider: "kie", Price: 30, Kind: "video", Enabled: true},
		{Model: "wan", Provider: "kie", Price: 20, Kind: "video", Enabled: true},
		{Model: "runway", Provider: "kie", Price: 35, Kind: "video", Enabled: true},
	}
	for _, p := range defaults {
		var count int64
		if err := db.Model(&models.ModelPrice{}).Where("model = ?", p.Model).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&p).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
