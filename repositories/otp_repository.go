package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"propmarket-go/models"
)

// OTPRepository persists one-time login codes. At most one unconsumed
// credential exists per email.
type OTPRepository interface {
	// Replace deletes every credential for cred.Email and stores cred.
	Replace(ctx context.Context, cred *models.OTPCredential) error
	// GetActive returns the newest unconsumed credential for email.
	GetActive(ctx context.Context, email string) (*models.OTPCredential, error)
	// ClaimAttempt spends one attempt on the credential. It returns false
	// when the credential is consumed, expired or out of attempts.
	ClaimAttempt(ctx context.Context, id string, maxAttempts int, now time.Time) (bool, error)
	// Consume marks the credential used. It returns false when another
	// caller consumed it first.
	Consume(ctx context.Context, id string) (bool, error)
	// CleanupExpired removes consumed credentials and those expired before now.
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Replace(ctx context.Context, cred *models.OTPCredential) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", cred.Email).Delete(&models.OTPCredential{}).Error; err != nil {
			return err
		}
		return tx.Create(cred).Error
	})
}

func (r *otpRepository) GetActive(ctx context.Context, email string) (*models.OTPCredential, error) {
	var cred models.OTPCredential
	err := r.db.WithContext(ctx).
		Where("email = ? AND consumed = ?", email, false).
		Order("created_at DESC").
		First(&cred).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cred, nil
}

func (r *otpRepository) ClaimAttempt(ctx context.Context, id string, maxAttempts int, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.OTPCredential{}).
		Where("id = ? AND consumed = ? AND attempts < ? AND expires_at > ?", id, false, maxAttempts, now).
		UpdateColumn("attempts", gorm.Expr("attempts + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *otpRepository) Consume(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.OTPCredential{}).
		Where("id = ? AND consumed = ?", id, false).
		UpdateColumn("consumed", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *otpRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR consumed = ?", now, true).
		Delete(&models.OTPCredential{})
	return res.RowsAffected, res.Error
}
