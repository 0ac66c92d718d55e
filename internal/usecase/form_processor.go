package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/domain/entity"
	domainErrors "github.com/railroadmedia/customer-io/internal/domain/errors"
)

// ProcessForm syncs a form submission to every account the form lists:
// the customer with the email is created or updated with the form's
// attributes, then each of the form's events is raised with the tracked
// request parameters as event data.
//
// Accounts are processed independently. A failing account or event is
// logged and the rest carry on. The customers that synced are returned; the
// call fails only when none did.
func (s *CustomerSyncService) ProcessForm(ctx context.Context, email, formName string, params map[string]string) ([]*entity.Customer, error) {
	form, ok := s.catalog.Form(formName)
	if !ok {
		return nil, domainErrors.NewFormProcessingError(formName, email, fmt.Errorf("form %q is not configured", formName))
	}

	attributes := make(map[string]any, len(form.CustomAttributes))
	for name, value := range form.CustomAttributes {
		attributes[name] = value
	}
	eventData := s.formEventData(params)

	var (
		customers []*entity.Customer
		failures  []error
	)
	for _, accountName := range form.AccountsToSync {
		customer, created, err := s.upsertByEmail(ctx, email, accountName, attributes, "", nil)
		if err != nil {
			s.logger.Error("Form submission failed to sync customer",
				zap.String("form_name", formName),
				zap.String("account", accountName),
				zap.String("email", email),
				zap.Error(err))
			failures = append(failures, fmt.Errorf("account %s: %w", accountName, err))
			continue
		}
		customers = append(customers, customer)

		account, err := s.registry.Resolve(accountName)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		for _, eventName := range form.EventsToTrigger {
			if err := s.pushEvent(ctx, account, customer.ExternalID, eventName, eventData, "", nil, created); err != nil {
				s.logger.Error("Form submission failed to raise event",
					zap.String("form_name", formName),
					zap.String("account", accountName),
					zap.String("event_name", eventName),
					zap.String("external_id", customer.ExternalID),
					zap.Error(err))
				failures = append(failures, fmt.Errorf("account %s event %s: %w", accountName, eventName, err))
			}
		}
	}

	if len(customers) == 0 {
		return nil, domainErrors.NewFormProcessingError(formName, email, errors.Join(failures...))
	}
	if len(failures) > 0 {
		s.logger.Warn("Form submission partially synced",
			zap.String("form_name", formName),
			zap.String("email", email),
			zap.Int("customers_synced", len(customers)),
			zap.Int("failures", len(failures)))
	}
	return customers, nil
}

// formEventData picks the tracked parameters out of the request, renamed
// to their event data keys. Empty values are dropped.
func (s *CustomerSyncService) formEventData(params map[string]string) map[string]any {
	data := make(map[string]any)
	for param, key := range s.catalog.FormsEventsUTMParameters {
		if value := params[param]; value != "" {
			data[key] = value
		}
	}
	return data
}
