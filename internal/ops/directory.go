package ops

import (
	"context"

	"github.com/rutero-app/fieldsync/internal/models"
)

// RefreshDirectory replaces the cached directory data (clients, users,
// payment methods and conditions) with the remote copy. Directory rows are
// never edited locally, so the replace is wholesale. There is no offline
// path; offline callers read the cache as-is.
func (d *DomainOps) RefreshDirectory(ctx context.Context) error {
	if !d.online() {
		return ErrOffline
	}

	clients, err := d.remote.ListClients(ctx)
	if err != nil {
		return err
	}
	users, err := d.remote.ListUsers(ctx)
	if err != nil {
		return err
	}
	methods, err := d.remote.ListPaymentMethods(ctx)
	if err != nil {
		return err
	}
	conditions, err := d.remote.ListPaymentConditions(ctx)
	if err != nil {
		return err
	}

	if err := d.store.Directory.ReplaceClients(ctx, clients); err != nil {
		return err
	}
	if err := d.store.Directory.ReplaceUsers(ctx, users); err != nil {
		return err
	}
	if err := d.store.Directory.ReplacePaymentMethods(ctx, methods); err != nil {
		return err
	}
	if err := d.store.Directory.ReplacePaymentConditions(ctx, conditions); err != nil {
		return err
	}

	d.log.Info(ctx, "directory refreshed",
		"clients", len(clients), "users", len(users),
		"payment_methods", len(methods), "payment_conditions", len(conditions))
	return nil
}

// Clients returns the cached client directory.
func (d *DomainOps) Clients(ctx context.Context) ([]models.Client, error) {
	return d.store.Directory.ListClients(ctx)
}

// Users returns the cached user directory.
func (d *DomainOps) Users(ctx context.Context) ([]models.User, error) {
	return d.store.Directory.ListUsers(ctx)
}

// PaymentMethods returns the cached payment methods in display order.
func (d *DomainOps) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	return d.store.Directory.ListPaymentMethods(ctx)
}

// PaymentConditions returns the cached payment conditions in display order.
func (d *DomainOps) PaymentConditions(ctx context.Context) ([]models.PaymentCondition, error) {
	return d.store.Directory.ListPaymentConditions(ctx)
}
