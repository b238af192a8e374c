package application

import (
	"context"
	"time"

	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// LoginDevice describes the client a login was made from.
type LoginDevice struct {
	DeviceID       string
	UserAgent      string
	IP             string
	RememberDevice bool
}

// DeviceReconciliation is the outcome of recording a login device.
// Device is nil when the login carried no device id.
type DeviceReconciliation struct {
	Account     *domain.Account
	IsNewDevice bool
	Device      *domain.DeviceRecord
}

// DeviceTrustTracker maintains the known-device list of an account.
type DeviceTrustTracker struct {
	repo   domain.AccountRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewDeviceTrustTracker(repo domain.AccountRepository, logger *zap.Logger) *DeviceTrustTracker {
	return &DeviceTrustTracker{repo: repo, logger: logger, now: time.Now}
}

// ReconcileLogin records a successful login from device. A known device is
// refreshed and only ever promoted to trusted; an unknown one is appended.
// Logins without a device id leave the account untouched.
func (t *DeviceTrustTracker) ReconcileLogin(ctx context.Context, account *domain.Account, device LoginDevice) (*DeviceReconciliation, error) {
	if device.DeviceID == "" {
		return &DeviceReconciliation{Account: account}, nil
	}

	var (
		isNew  bool
		record domain.DeviceRecord
	)
	updated, err := updateAccount(ctx, t.repo, account, func(a *domain.Account) (bool, error) {
		now := t.now()
		idx := a.FindDevice(device.DeviceID)
		if idx >= 0 {
			d := &a.Devices[idx]
			d.UserAgent = device.UserAgent
			d.IP = device.IP
			d.LastLoginAt = now
			if device.RememberDevice {
				d.IsTrusted = true
			}
			isNew = false
			record = *d
		} else {
			record = domain.DeviceRecord{
				DeviceID:     device.DeviceID,
				UserAgent:    device.UserAgent,
				IP:           device.IP,
				IsTrusted:    device.RememberDevice,
				FirstLoginAt: now,
				LastLoginAt:  now,
			}
			a.Devices = append(a.Devices, record)
			isNew = true
		}
		a.LastLoginAt = &now
		return true, nil
	})
	if err != nil {
		t.logger.Error("failed to reconcile login device",
			zap.String("account_id", account.ID.String()),
			zap.String("device_id", device.DeviceID),
			zap.Error(err))
		return nil, err
	}

	if isNew {
		t.logger.Info("new device detected",
			zap.String("account_id", updated.ID.String()),
			zap.String("device_id", device.DeviceID))
	}
	return &DeviceReconciliation{Account: updated, IsNewDevice: isNew, Device: &record}, nil
}

// ListDevices returns the devices of the account in first-seen order.
func (t *DeviceTrustTracker) ListDevices(ctx context.Context, accountID ulid.ULID) ([]domain.DeviceRecord, error) {
	account, err := t.repo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.Devices, nil
}

// SetTrust marks one device of the account as trusted or untrusted.
func (t *DeviceTrustTracker) SetTrust(ctx context.Context, accountID ulid.ULID, deviceID string, isTrusted bool) (*domain.DeviceRecord, error) {
	account, err := t.repo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var record domain.DeviceRecord
	_, err = updateAccount(ctx, t.repo, account, func(a *domain.Account) (bool, error) {
		idx := a.FindDevice(deviceID)
		if idx < 0 {
			return false, domain.ErrDeviceNotFound
		}
		a.Devices[idx].IsTrusted = isTrusted
		record = a.Devices[idx]
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("device trust changed",
		zap.String("account_id", accountID.String()),
		zap.String("device_id", deviceID),
		zap.Bool("trusted", isTrusted))
	return &record, nil
}

// RemoveDevice deletes one device from the account.
func (t *DeviceTrustTracker) RemoveDevice(ctx context.Context, accountID ulid.ULID, deviceID string) error {
	account, err := t.repo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	_, err = updateAccount(ctx, t.repo, account, func(a *domain.Account) (bool, error) {
		idx := a.FindDevice(deviceID)
		if idx < 0 {
			return false, domain.ErrDeviceNotFound
		}
		a.Devices = append(a.Devices[:idx], a.Devices[idx+1:]...)
		return true, nil
	})
	if err != nil {
		return err
	}

	t.logger.Info("device removed",
		zap.String("account_id", accountID.String()),
		zap.String("device_id", deviceID))
	return nil
}
